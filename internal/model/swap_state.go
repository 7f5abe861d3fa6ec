package model

import "fmt"

// SwapState mirrors the numeric states reported by the swap network.
type SwapState int

const (
	SwapStateClosed           SwapState = -5
	SwapStateFailed           SwapState = -4
	SwapStateDeclined         SwapState = -3
	SwapStateQuoteExpired     SwapState = -2
	SwapStateQuoteSoftExpired SwapState = -1
	SwapStateCreated          SwapState = 0
	SwapStateSigned           SwapState = 1
	SwapStatePosted           SwapState = 2
	SwapStateBroadcasted      SwapState = 3
	SwapStateFronted          SwapState = 4
	SwapStateBtcTxConfirmed   SwapState = 5
	SwapStateClaimClaimed     SwapState = 6
)

var swapStateNames = map[SwapState]string{
	SwapStateClosed:           "CLOSED",
	SwapStateFailed:           "FAILED",
	SwapStateDeclined:         "DECLINED",
	SwapStateQuoteExpired:     "QUOTE_EXPIRED",
	SwapStateQuoteSoftExpired: "QUOTE_SOFT_EXPIRED",
	SwapStateCreated:          "CREATED",
	SwapStateSigned:           "SIGNED",
	SwapStatePosted:           "POSTED",
	SwapStateBroadcasted:      "BROADCASTED",
	SwapStateFronted:          "FRONTED",
	SwapStateBtcTxConfirmed:   "BTC_TX_CONFIRMED",
	SwapStateClaimClaimed:     "CLAIM_CLAIMED",
}

var swapStateDescriptions = map[SwapState]string{
	SwapStateClosed:           "Swap closed",
	SwapStateFailed:           "Swap failed",
	SwapStateDeclined:         "Swap declined by the liquidity provider",
	SwapStateQuoteExpired:     "Quote expired",
	SwapStateQuoteSoftExpired: "Quote expiring",
	SwapStateCreated:          "Swap created",
	SwapStateSigned:           "Bitcoin transaction signed",
	SwapStatePosted:           "Bitcoin transaction posted",
	SwapStateBroadcasted:      "Bitcoin transaction broadcasted",
	SwapStateFronted:          "STRK delivered by the liquidity provider",
	SwapStateBtcTxConfirmed:   "Bitcoin transaction confirmed",
	SwapStateClaimClaimed:     "Swap settled",
}

// ParseSwapState rejects codes outside the known set.
func ParseSwapState(code int) (SwapState, error) {
	s := SwapState(code)
	if _, ok := swapStateNames[s]; !ok {
		return 0, fmt.Errorf("unknown swap state code %d", code)
	}

	return s, nil
}

func (s SwapState) String() string {
	if name, ok := swapStateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

func (s SwapState) Description() string {
	if d, ok := swapStateDescriptions[s]; ok {
		return d
	}

	return s.String()
}

// IsSuccess reports whether the destination asset has been delivered, either
// fronted by the liquidity provider or claimed after confirmation.
func (s SwapState) IsSuccess() bool {
	return s == SwapStateFronted || s == SwapStateClaimClaimed
}

func (s SwapState) IsFailure() bool {
	return s == SwapStateFailed || s == SwapStateDeclined || s == SwapStateClosed
}

func (s SwapState) IsTerminal() bool {
	return s.IsSuccess() || s.IsFailure()
}
