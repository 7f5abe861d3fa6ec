package session

import (
	"time"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
)

// Policy decides session liveness. A session sitting exactly on a threshold
// is still live.
type Policy struct {
	MaxAge        time.Duration
	IdleTimeout   time.Duration
	WarningWindow time.Duration
}

func PolicyFromConfig(cfg config.SessionConfig) Policy {
	return Policy{
		MaxAge:        cfg.MaxAge,
		IdleTimeout:   cfg.IdleTimeout,
		WarningWindow: cfg.WarningWindow,
	}
}

func (p Policy) IsExpired(s *model.WalletSession, now time.Time) bool {
	return now.Sub(s.ConnectedAt) > p.MaxAge || now.Sub(s.LastActivity) > p.IdleTimeout
}

// ExpiresAt is the earlier of the absolute and the idle deadline.
func (p Policy) ExpiresAt(s *model.WalletSession) time.Time {
	absolute := s.ConnectedAt.Add(p.MaxAge)
	idle := s.LastActivity.Add(p.IdleTimeout)
	if idle.Before(absolute) {
		return idle
	}
	return absolute
}

func (p Policy) Remaining(s *model.WalletSession, now time.Time) time.Duration {
	return p.ExpiresAt(s).Sub(now)
}

func (p Policy) IsExpiringSoon(s *model.WalletSession, now time.Time) bool {
	return p.Remaining(s, now) < p.WarningWindow
}
