package session

import (
	"context"
	"time"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

type ActivityKind string

const (
	ActivityExplicit    ActivityKind = "explicit"
	ActivityClick       ActivityKind = "click"
	ActivityKeypress    ActivityKind = "keypress"
	ActivityScroll      ActivityKind = "scroll"
	ActivityPointerMove ActivityKind = "pointermove"
)

func (k ActivityKind) IsValid() bool {
	switch k {
	case ActivityExplicit, ActivityClick, ActivityKeypress, ActivityScroll, ActivityPointerMove:
		return true
	}
	return false
}

// AppliesTo reports whether the activity refreshes a session on chain.
// Passive page activity only keeps the Starknet session alive.
func (k ActivityKind) AppliesTo(chain model.Chain) bool {
	return k == ActivityExplicit || chain == model.ChainStarknet
}

// ConnectRequest carries the wallet's answer to a connect prompt. Exactly one
// account matching the chain must be set unless the buyer cancelled.
type ConnectRequest struct {
	Bitcoin   *model.BitcoinAccount
	Starknet  *model.StarknetAccount
	Cancelled bool
}

type View struct {
	Chain        model.Chain            `json:"chain"`
	Bitcoin      *model.BitcoinAccount  `json:"bitcoin,omitempty"`
	Starknet     *model.StarknetAccount `json:"starknet,omitempty"`
	ConnectedAt  time.Time              `json:"connected_at"`
	LastActivity time.Time              `json:"last_activity"`
	ExpiresAt    time.Time              `json:"expires_at"`
	Remaining    time.Duration          `json:"remaining"`
	ExpiringSoon bool                   `json:"expiring_soon"`
}

type IManager interface {
	Connect(ctx context.Context, profileID string, chain model.Chain, req ConnectRequest) (*View, error)
	Load(ctx context.Context, profileID string, chain model.Chain) (*View, error)
	Touch(ctx context.Context, profileID string, chain model.Chain, kind ActivityKind) (*View, error)
	Disconnect(ctx context.Context, profileID string, chain model.Chain) error
	BitcoinAccount(ctx context.Context, profileID string) (*model.BitcoinAccount, error)
	// Sweep disconnects every expired session and returns how many it removed.
	Sweep(ctx context.Context) (int, error)
}
