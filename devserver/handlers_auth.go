package devserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/retail-console/auth"
	"github.com/jrsteele09/retail-console/users"
	"github.com/rs/zerolog/log"
)

const (
	detailInvalidCredentials   = "Invalid email or password"
	detailAccountBlocked       = "Account is blocked"
	detailInvalidCode          = "Invalid verification code"
	detailVerificationExpired  = "Verification session expired, please log in again"
	detailInvalidRefreshToken  = "Invalid refresh token"
	detailNotAuthenticated     = "Not authenticated"
	messageInvalidBody         = "Invalid request body"
	messageCredentialsRequired = "Email and password are required"
)

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, messageInvalidBody)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, messageCredentialsRequired)
		return
	}

	user, err := s.users.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		log.Debug().Str("email", req.Email).Msg("devserver: login rejected")
		writeDetail(w, http.StatusUnauthorized, detailInvalidCredentials)
		return
	}
	if user.Blocked {
		writeDetail(w, http.StatusForbidden, detailAccountBlocked)
		return
	}

	if user.NeedsSecondFactor() {
		pendingToken, code, err := s.challenges.start(user.Email)
		if err != nil {
			log.Err(err).Msg("devserver: failed to start email challenge")
			writeDetail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		// Stands in for the verification email
		log.Info().Str("email", user.Email).Str("code", code).Msg("devserver: verification code issued")
		writeJSON(w, http.StatusAccepted, auth.LoginResponse{
			NextStep:                   auth.NextStepEmailVerification,
			PendingAuthenticationToken: pendingToken,
		})
		return
	}
	s.completeLogin(w, user)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, messageInvalidBody)
		return
	}

	email, outcome := s.challenges.check(req.PendingAuthenticationToken, strings.TrimSpace(req.Code))
	switch outcome {
	case challengeUnknown:
		writeDetail(w, http.StatusBadRequest, detailVerificationExpired)
		return
	case challengeWrongCode:
		writeDetail(w, http.StatusBadRequest, detailInvalidCode)
		return
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, detailInvalidCredentials)
		return
	}
	s.completeLogin(w, user)
}

// completeLogin issues the access token in the body and the refresh token as an http-only cookie
func (s *Server) completeLogin(w http.ResponseWriter, user *users.User) {
	accessToken, err := s.tokens.CreateAccessToken(user)
	if err != nil {
		log.Err(err).Msg("devserver: failed to create access token")
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	refreshToken, err := s.tokens.CreateRefreshToken(user.ID)
	if err != nil {
		log.Err(err).Msg("devserver: failed to create refresh token")
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := s.users.SetLoggedIn(user.ID, NowTimeFunc()); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("devserver: failed to record login")
	}

	s.setRefreshCookie(w, refreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{Token: accessToken})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		writeDetail(w, http.StatusUnauthorized, detailInvalidRefreshToken)
		return
	}

	pair, err := s.tokens.Rotate(cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("devserver: refresh rejected")
		s.clearRefreshCookie(w)
		writeDetail(w, http.StatusUnauthorized, detailInvalidRefreshToken)
		return
	}

	s.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenResponse{Token: pair.AccessToken})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		s.tokens.InvalidateRefreshToken(cookie.Value)
	}
	if raw, ok := bearerToken(r); ok {
		_ = s.tokens.RevokeAccessToken(raw)
	}
	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   int(s.tokens.RefreshTokenExpiry().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func bearerToken(r *http.Request) (string, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return strings.TrimSpace(raw), true
}
