package devserver

import (
	"net/http"

	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/jrsteele09/retail-console/tenants"
	"github.com/jrsteele09/retail-console/users"
	"github.com/rs/zerolog/log"
)

// ResourceResponse is the body of every tenant scoped read
type ResourceResponse struct {
	TenantID    string       `json:"tenantId"`
	TenantName  string       `json:"tenantName,omitempty"`
	Resource    string       `json:"resource"`
	Query       string       `json:"query,omitempty"`
	RequestedBy string       `json:"requestedBy"`
	Roles       []users.Role `json:"roles"`
}

// authenticate resolves the bearer token to a user, answering 401 when it cannot
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	raw, ok := bearerToken(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
		return nil, false
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
		return nil, false
	}
	user, err := s.users.GetByID(claims.Subject)
	if err != nil || user.Blocked {
		writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
		return nil, false
	}
	return user, true
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	list := make([]*tenants.Tenant, 0, len(user.Stores))
	for _, id := range user.TenantIDs() {
		t, err := s.tenants.Get(id)
		if err != nil {
			log.Warn().Err(err).Str("tenant", id).Msg("devserver: membership of unknown tenant")
			continue
		}
		list = append(list, t)
	}
	writeJSON(w, http.StatusOK, list)
}

// handleResource serves any tenant scoped read. The checks run in the order the
// real API applies them: authentication, tenant header, tenant membership.
func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	tenantID := r.Header.Get(tenantHeader)
	if tenantID == "" {
		writeDetail(w, http.StatusBadRequest, apperrors.DetailMissingTenantHeader)
		return
	}
	if !user.CanAccess(tenantID) {
		writeDetail(w, http.StatusForbidden, apperrors.DetailTenantNotAllowed)
		return
	}

	resp := ResourceResponse{
		TenantID:    tenantID,
		Resource:    "/" + r.PathValue("resource"),
		Query:       r.URL.RawQuery,
		RequestedBy: user.Email,
		Roles:       user.RolesAt(tenantID),
	}
	if t, err := s.tenants.Get(tenantID); err == nil {
		resp.TenantName = t.Name
	}
	writeJSON(w, http.StatusOK, resp)
}
