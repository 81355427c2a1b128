package auth

import (
	"errors"

	apperrors "github.com/jrsteele09/retail-console/internal/errors"
)

var (
	InvalidCredentialsErr = apperrors.ErrInvalidCredentials
	VerificationFailedErr = apperrors.ErrVerificationFailed
	NoPendingChallengeErr = apperrors.ErrNoPendingChallenge
	TransportErr          = apperrors.ErrTransport
)

const (
	loginFailedMessage        = "login failed"
	verificationFailedMessage = "verification failed"
)

// FlowError is a login step failure carrying the message shown to the user
type FlowError struct {
	Kind    error // InvalidCredentialsErr, VerificationFailedErr or TransportErr
	Message string
	Cause   error
}

func (e *FlowError) Error() string {
	return e.Message
}

func (e *FlowError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// newFlowError classifies err: server rejections get kind rejected, anything else
// is a transport failure. The message is the body detail, else the body message,
// else the error text, else fallback.
func newFlowError(err error, rejected error, fallback string) *FlowError {
	fe := &FlowError{Kind: TransportErr, Message: fallback, Cause: err}
	var respErr *apperrors.ResponseError
	if errors.As(err, &respErr) {
		fe.Kind = rejected
		if msg := respErr.DisplayMessage(); msg != "" {
			fe.Message = msg
			return fe
		}
	}
	if err != nil && err.Error() != "" {
		fe.Message = err.Error()
	}
	return fe
}
