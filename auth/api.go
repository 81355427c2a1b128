package auth

import (
	"context"
	"net/http"
)

// NextStepEmailVerification is the next_step value announcing a step-up challenge
const NextStepEmailVerification = "email_verification_required"

// LoginRequest is the password step body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest is the one-time code step body
type VerifyRequest struct {
	Code                       string `json:"code"`
	PendingAuthenticationToken string `json:"pending_authentication_token"`
}

// LoginResponse is returned by both login steps. StatusCode is the HTTP status.
type LoginResponse struct {
	StatusCode                 int    `json:"-"`
	Token                      string `json:"token,omitempty"`
	NextStep                   string `json:"next_step,omitempty"`
	PendingAuthenticationToken string `json:"pending_authentication_token,omitempty"`
}

// RequiresVerification reports a step-up response: HTTP 202 or an explicit next_step
func (r *LoginResponse) RequiresVerification() bool {
	return r.StatusCode == http.StatusAccepted || r.NextStep == NextStepEmailVerification
}

// API is the remote side of the login flow. Implementations return a
// *errors.ResponseError for non 2xx responses and any other error for network failures.
type API interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Verify(ctx context.Context, req VerifyRequest) (*LoginResponse, error)
	Logout(ctx context.Context) error
}
