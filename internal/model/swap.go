package model

import "time"

// Swap is a point-in-time snapshot of the remote swap execution.
type Swap struct {
	ID                  string        `json:"id"`
	State               SwapState     `json:"state"`
	BitcoinTxID         string        `json:"bitcoin_tx_id,omitempty"`
	DestinationTxHash   string        `json:"destination_tx_hash,omitempty"`
	Confirmations       int           `json:"confirmations"`
	TargetConfirmations int           `json:"target_confirmations"`
	ETA                 time.Duration `json:"eta"`
	Message             string        `json:"message"`
	ObservedAt          time.Time     `json:"observed_at"`
}

type ConfirmationProgress struct {
	TxID                string        `json:"tx_id"`
	Confirmations       int           `json:"confirmations"`
	TargetConfirmations int           `json:"target_confirmations"`
	ETA                 time.Duration `json:"eta"`
}

// SigningPackage is the unsigned transaction handed to the buyer's wallet,
// bound to one swap and one payer.
type SigningPackage struct {
	SwapID         string `json:"swap_id"`
	Psbt           string `json:"psbt"`
	SignInputs     []int  `json:"sign_inputs"`
	UnsignedTxID   string `json:"unsigned_tx_id"`
	PayerAddress   string `json:"payer_address"`
	PayerPublicKey string `json:"payer_public_key"`
}
