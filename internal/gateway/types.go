package gateway

type amountRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

type limitsResponse struct {
	Input          amountRange `json:"input"`
	Output         amountRange `json:"output"`
	OutputDecimals int         `json:"outputDecimals"`
}

type quoteRequest struct {
	Amount                string `json:"amount"`
	ExactIn               bool   `json:"exactIn"`
	DestinationAddress    string `json:"destinationAddress"`
	MaxPriceDifferencePPM int    `json:"maxPriceDifferencePPM"`
}

type quoteResponse struct {
	ID              string `json:"id"`
	InputWithoutFee string `json:"inputWithoutFee"`
	Input           string `json:"input"`
	Fee             string `json:"fee"`
	Output          string `json:"output"`
	OutputDecimals  int    `json:"outputDecimals"`
	SwapPrice       string `json:"swapPrice"`
	MarketPrice     string `json:"marketPrice"`
	DifferencePPM   int64  `json:"differencePPM"`
	Slippage        string `json:"slippage"`
	// unix milliseconds
	Expiry int64 `json:"expiry"`
}

type psbtRequest struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
}

type psbtResponse struct {
	Psbt       string `json:"psbt"`
	SignInputs []int  `json:"signInputs"`
}

type submitRequest struct {
	Psbt string `json:"psbt"`
}

type submitResponse struct {
	TxID string `json:"txId"`
}

type swapResponse struct {
	ID                  string `json:"id"`
	State               *int   `json:"state"`
	BitcoinTxID         string `json:"bitcoinTxId"`
	DestinationTxHash   string `json:"destinationTxHash"`
	Confirmations       int    `json:"confirmations"`
	TargetConfirmations int    `json:"targetConfirmations"`
	EtaMs               int64  `json:"etaMs"`
	Message             string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
