package purchase

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/btc-strk-purchase/internal/gateway"
	"github.com/dwarvesf/btc-strk-purchase/internal/session"
	"github.com/dwarvesf/btc-strk-purchase/internal/wallet"
)

var (
	ErrInvalidTransition = errors.New("invalid purchase transition")
	ErrPurchaseNotFound  = errors.New("purchase not found")
	ErrInvalidRequest    = errors.New("invalid purchase request")
	ErrNotMonitoring     = errors.New("purchase is not being monitored")
)

type FailureKind string

const (
	FailureWalletNotConnected  FailureKind = "wallet_not_connected"
	FailureInsufficientBalance FailureKind = "insufficient_balance"
	FailureQuoteExpired        FailureKind = "quote_expired"
	FailureQuoteUnavailable    FailureKind = "quote_unavailable"
	FailureOutOfLimits         FailureKind = "out_of_limits"
	FailureSigningCancelled    FailureKind = "signing_cancelled"
	FailureBroadcastRejected   FailureKind = "broadcast_rejected"
	FailureSwapDeclined        FailureKind = "swap_declined"
	FailureSwapFailed          FailureKind = "swap_failed"
	FailureSwapTimedOut        FailureKind = "swap_timed_out"
	FailureMonitoringStopped   FailureKind = "monitoring_stopped"
	FailureCancelled           FailureKind = "cancelled"
	FailureUnknown             FailureKind = "unknown"
)

// Stage names the swap sequence step a failure happened in. Failures before
// the swap step have no stage.
type Stage string

const (
	StageNone                Stage = ""
	StagePreparePsbt         Stage = "prepare_psbt"
	StageSignPsbt            Stage = "sign_psbt"
	StageBroadcast           Stage = "broadcast"
	StageBitcoinConfirmation Stage = "bitcoin_confirmation"
	StageSwapCompletion      Stage = "swap_completion"
	StageMonitoring          Stage = "monitoring"
)

// Failure is what a buyer sees of an error step. Message is always human
// readable, never a protocol code.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Stage   Stage       `json:"stage,omitempty"`
	Message string      `json:"message"`
}

func (f *Failure) Error() string {
	return f.Message
}

func sessionFailure(err error) *Failure {
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		return &Failure{Kind: FailureWalletNotConnected, Message: session.ErrSessionExpired.Error()}
	case errors.Is(err, session.ErrSessionNotFound):
		return &Failure{Kind: FailureWalletNotConnected, Message: "Please connect your Bitcoin wallet."}
	}
	return &Failure{Kind: FailureUnknown, Message: "Could not load your wallet session. Please try again."}
}

// gatewayFailure maps a gateway or signer error raised during stage.
func gatewayFailure(err error, stage Stage) *Failure {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		f := &Failure{Stage: stage}
		switch gwErr.Code {
		case gateway.CodeQuoteExpired:
			f.Kind, f.Message = FailureQuoteExpired, "Quote expired. Please request a new quote."
		case gateway.CodeQuoteUnavailable:
			f.Kind, f.Message = FailureQuoteUnavailable, "No quote is available for this amount right now."
		case gateway.CodeOutOfLimits:
			f.Kind, f.Message = FailureOutOfLimits, "Amount is outside the swap limits."
			if gwErr.Message != "" {
				f.Message = fmt.Sprintf("Amount is outside the swap limits: %s.", gwErr.Message)
			}
		case gateway.CodeBroadcastRejected:
			f.Kind, f.Message = FailureBroadcastRejected, "Bitcoin transaction broadcast was rejected."
		case gateway.CodeSwapNotFound:
			f.Kind, f.Message = FailureSwapFailed, "Swap could not be found."
		case gateway.CodeInvalidSwapState:
			f.Kind, f.Message = FailureSwapFailed, "Swap can no longer proceed."
		default:
			f.Kind, f.Message = FailureUnknown, "Unexpected response from the swap network."
		}
		return f
	}

	if errors.Is(err, wallet.ErrSigningCancelled) {
		return &Failure{Kind: FailureSigningCancelled, Stage: stage, Message: "Transaction signing was cancelled."}
	}
	if errors.Is(err, wallet.ErrInvalidSignature) {
		return &Failure{Kind: FailureSwapFailed, Stage: stage, Message: "The signed transaction did not match the swap."}
	}

	unavailable := "Swap network is unreachable. Please try again."
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		unavailable = "Swap network is temporarily unavailable. Please try again later."
	}

	switch stage {
	case StageNone:
		return &Failure{Kind: FailureQuoteUnavailable, Message: unavailable}
	case StageBroadcast:
		return &Failure{Kind: FailureBroadcastRejected, Stage: stage, Message: "Failed to broadcast Bitcoin transaction. " + unavailable}
	}
	return &Failure{Kind: FailureUnknown, Stage: stage, Message: unavailable}
}
