package purchase

import (
	"context"
	"time"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

type Step string

const (
	StepQuote     Step = "quote"
	StepConfirm   Step = "confirm"
	StepSwap      Step = "swap"
	StepComplete  Step = "complete"
	StepError     Step = "error"
	StepCancelled Step = "cancelled"
)

var transitions = map[Step][]Step{
	StepQuote:   {StepConfirm, StepError, StepCancelled},
	StepConfirm: {StepSwap, StepError, StepCancelled},
	StepSwap:    {StepComplete, StepError},
	StepError:   {StepQuote},
}

func canTransition(from, to Step) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no step change can happen without a retry.
func (s Step) IsTerminal() bool {
	return s == StepComplete || s == StepError || s == StepCancelled
}

type StartRequest struct {
	ProfileID     string `json:"-" validate:"required"`
	AssetID       string `json:"asset_id" validate:"required"`
	SellerAddress string `json:"seller_address" validate:"required,startswith=0x"`
	PriceSats     int64  `json:"price_sats" validate:"required,gt=0"`
}

// Purchase is a point-in-time copy of one purchase flow.
type Purchase struct {
	ID            string                      `json:"id"`
	ProfileID     string                      `json:"profile_id"`
	AssetID       string                      `json:"asset_id"`
	SellerAddress string                      `json:"seller_address"`
	PriceSats     int64                       `json:"price_sats"`
	Step          Step                        `json:"step"`
	Attempt       int                         `json:"attempt"`
	Progress      string                      `json:"progress"`
	Quote         *model.Quote                `json:"quote,omitempty"`
	Swap          *model.Swap                 `json:"swap,omitempty"`
	BtcTxID       string                      `json:"btc_tx_id,omitempty"`
	Confirmations *model.ConfirmationProgress `json:"confirmations,omitempty"`
	Failure       *Failure                    `json:"failure,omitempty"`
	Dismissed     bool                        `json:"dismissed"`
	Monitoring    bool                        `json:"monitoring"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	CompletedAt   *time.Time                  `json:"completed_at,omitempty"`
}

// SuccessHook observes completed purchases. It runs once per flow, on the
// goroutine that observed completion.
type SuccessHook func(p Purchase, btcTxID string)

type IService interface {
	Start(ctx context.Context, req StartRequest) (*Purchase, error)
	Confirm(ctx context.Context, id string) (*Purchase, error)
	Cancel(ctx context.Context, id string) (*Purchase, error)
	Retry(ctx context.Context, id string) (*Purchase, error)
	StopMonitoring(ctx context.Context, id string) (*Purchase, error)
	Get(ctx context.Context, id string) (*Purchase, error)
	List(ctx context.Context, profileID string) ([]Purchase, error)
	OnSuccess(hook SuccessHook)
	// Shutdown stops every running swap sequence and monitor, then waits for them.
	Shutdown()
}
