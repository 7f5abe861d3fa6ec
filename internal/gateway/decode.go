package gateway

import (
	"math/big"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/btc-strk-purchase/internal/btcrpc"
	"github.com/dwarvesf/btc-strk-purchase/internal/consts"
	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

func parseSats(field, value string) (int64, error) {
	sats, err := strconv.ParseInt(value, 10, 64)
	if err != nil || sats < 0 {
		return 0, malformed("%s %q is not a satoshi amount", field, value)
	}
	return sats, nil
}

func parseBaseUnits(field, value string, decimals int) (*model.Web3BigInt, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, malformed("%s %q is not an amount", field, value)
	}
	return model.NewWeb3BigInt(amount, decimals), nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, malformed("%s %q is not a decimal", field, value)
	}
	return d, nil
}

func outputDecimals(d int) int {
	if d <= 0 {
		return consts.STRK_DECIMALS
	}
	return d
}

func decodeLimits(resp *limitsResponse) (*model.SwapLimits, error) {
	inMin, err := parseSats("input.min", resp.Input.Min)
	if err != nil {
		return nil, err
	}
	inMax, err := parseSats("input.max", resp.Input.Max)
	if err != nil {
		return nil, err
	}
	if inMin > inMax {
		return nil, malformed("input.min %d exceeds input.max %d", inMin, inMax)
	}

	decimals := outputDecimals(resp.OutputDecimals)
	outMin, err := parseBaseUnits("output.min", resp.Output.Min, decimals)
	if err != nil {
		return nil, err
	}
	outMax, err := parseBaseUnits("output.max", resp.Output.Max, decimals)
	if err != nil {
		return nil, err
	}

	return &model.SwapLimits{
		Input:     model.AmountRange{Min: inMin, Max: inMax},
		OutputMin: outMin,
		OutputMax: outMax,
	}, nil
}

func decodeQuote(resp *quoteResponse) (*model.Quote, error) {
	if resp.ID == "" {
		return nil, malformed("quote without id")
	}
	if resp.Expiry <= 0 {
		return nil, malformed("quote %s without expiry", resp.ID)
	}

	from, err := parseSats("inputWithoutFee", resp.InputWithoutFee)
	if err != nil {
		return nil, err
	}
	total, err := parseSats("input", resp.Input)
	if err != nil {
		return nil, err
	}
	fee, err := parseSats("fee", resp.Fee)
	if err != nil {
		return nil, err
	}
	to, err := parseBaseUnits("output", resp.Output, outputDecimals(resp.OutputDecimals))
	if err != nil {
		return nil, err
	}
	swapPrice, err := parseDecimal("swapPrice", resp.SwapPrice)
	if err != nil {
		return nil, err
	}
	marketPrice, err := parseDecimal("marketPrice", resp.MarketPrice)
	if err != nil {
		return nil, err
	}
	slippage, err := parseDecimal("slippage", resp.Slippage)
	if err != nil {
		return nil, err
	}

	rate := decimal.Zero
	if from > 0 {
		rate = to.Amount().Div(decimal.NewFromInt(from))
	}

	return &model.Quote{
		ID:             resp.ID,
		FromAmountSats: from,
		TotalInputSats: total,
		FeeSats:        fee,
		ToAmount:       to,
		Rate:           rate,
		Slippage:       slippage,
		PriceInfo: model.PriceInfo{
			SwapPrice:     swapPrice,
			MarketPrice:   marketPrice,
			DifferencePPM: resp.DifferencePPM,
		},
		ExpiresAt: time.UnixMilli(resp.Expiry),
	}, nil
}

func decodeSigningPackage(swapID, address, publicKey string, resp *psbtResponse) (*model.SigningPackage, error) {
	packet, err := btcrpc.DecodePsbt(resp.Psbt)
	if err != nil {
		return nil, malformed("swap %s: %v", swapID, err)
	}
	if err := btcrpc.ValidateSignInputs(packet, resp.SignInputs); err != nil {
		return nil, malformed("swap %s: %v", swapID, err)
	}

	return &model.SigningPackage{
		SwapID:         swapID,
		Psbt:           resp.Psbt,
		SignInputs:     resp.SignInputs,
		UnsignedTxID:   btcrpc.UnsignedTxID(packet),
		PayerAddress:   address,
		PayerPublicKey: publicKey,
	}, nil
}

func validateTxID(txID string) error {
	if len(txID) != chainhash.MaxHashStringSize {
		return malformed("txid %q has wrong length", txID)
	}
	if _, err := chainhash.NewHashFromStr(txID); err != nil {
		return malformed("txid %q is not hex", txID)
	}
	return nil
}

func decodeSwap(resp *swapResponse, observedAt time.Time) (*model.Swap, error) {
	if resp.ID == "" {
		return nil, malformed("swap without id")
	}
	if resp.State == nil {
		return nil, malformed("swap %s without state", resp.ID)
	}

	state, err := model.ParseSwapState(*resp.State)
	if err != nil {
		return nil, malformed("swap %s: %v", resp.ID, err)
	}

	if resp.BitcoinTxID != "" {
		if err := validateTxID(resp.BitcoinTxID); err != nil {
			return nil, err
		}
	}
	if resp.Confirmations < 0 || resp.TargetConfirmations < 0 {
		return nil, malformed("swap %s reports negative confirmations", resp.ID)
	}

	message := resp.Message
	if message == "" {
		message = state.Description()
	}

	return &model.Swap{
		ID:                  resp.ID,
		State:               state,
		BitcoinTxID:         resp.BitcoinTxID,
		DestinationTxHash:   resp.DestinationTxHash,
		Confirmations:       resp.Confirmations,
		TargetConfirmations: resp.TargetConfirmations,
		ETA:                 time.Duration(resp.EtaMs) * time.Millisecond,
		Message:             message,
		ObservedAt:          observedAt,
	}, nil
}
