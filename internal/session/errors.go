package session

import "github.com/pkg/errors"

var (
	ErrSessionExpired  = errors.New("Session expired. Please reconnect your wallet.")
	ErrSessionNotFound = errors.New("wallet not connected")
	ErrInvalidAccount  = errors.New("invalid wallet account")
	ErrUnknownChain    = errors.New("unknown chain")
	ErrUnknownActivity = errors.New("unknown activity kind")
)
