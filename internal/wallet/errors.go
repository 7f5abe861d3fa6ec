package wallet

import "github.com/pkg/errors"

var (
	ErrSigningCancelled    = errors.New("signing cancelled by user")
	ErrConnectionCancelled = errors.New("wallet connection cancelled by user")
	ErrSigningInProgress   = errors.New("a signature is already pending for this purchase")
	ErrNoPendingRequest    = errors.New("no signature pending for this purchase")
	ErrInvalidSignature    = errors.New("signed transaction rejected")
)
