package gateway

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorCode string

const (
	CodeQuoteUnavailable  ErrorCode = "quote_unavailable"
	CodeOutOfLimits       ErrorCode = "out_of_limits"
	CodeQuoteExpired      ErrorCode = "quote_expired"
	CodeSwapNotFound      ErrorCode = "swap_not_found"
	CodeInvalidSwapState  ErrorCode = "invalid_swap_state"
	CodeBroadcastRejected ErrorCode = "broadcast_rejected"
	CodeMalformedResponse ErrorCode = "malformed_response"
)

// Error is an explicit refusal by the swap network, or a response that could
// not be trusted. Network and transport failures are plain wrapped errors.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on code so sentinels compare equal to any error carrying it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrQuoteUnavailable  = &Error{Code: CodeQuoteUnavailable}
	ErrOutOfLimits       = &Error{Code: CodeOutOfLimits}
	ErrQuoteExpired      = &Error{Code: CodeQuoteExpired}
	ErrSwapNotFound      = &Error{Code: CodeSwapNotFound}
	ErrInvalidSwapState  = &Error{Code: CodeInvalidSwapState}
	ErrBroadcastRejected = &Error{Code: CodeBroadcastRejected}
	ErrMalformedResponse = &Error{Code: CodeMalformedResponse}
)

var knownCodes = map[ErrorCode]bool{
	CodeQuoteUnavailable:  true,
	CodeOutOfLimits:       true,
	CodeQuoteExpired:      true,
	CodeSwapNotFound:      true,
	CodeInvalidSwapState:  true,
	CodeBroadcastRejected: true,
}

// IsRejection reports whether err is a business answer from the network
// rather than a failure to reach it.
func IsRejection(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Code != CodeMalformedResponse
}

func malformed(format string, args ...interface{}) error {
	return &Error{Code: CodeMalformedResponse, Message: fmt.Sprintf(format, args...)}
}
