package devserver

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/retail-console/internal/config"
	"github.com/jrsteele09/retail-console/tenants"
	"github.com/jrsteele09/retail-console/token"
	tokenfakerepo "github.com/jrsteele09/retail-console/token/repofake"
	"github.com/jrsteele09/retail-console/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Server is a local stand-in for the console API. It implements the login,
// step-up verification, refresh cookie and tenant scoping contract the console
// relies on, backed by in-memory repos.
type Server struct {
	env     string
	mux     *http.ServeMux
	routes  []string
	users   users.UserRepo
	tenants tenants.Repo

	tokens     *token.Manager
	challenges *challenges
}

func New(cfg config.Config, userRepo users.UserRepo, tenantRepo tenants.Repo) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[devserver.New] config is required")
	}
	if userRepo == nil {
		return nil, errors.New("[devserver.New] user repo is required")
	}
	if tenantRepo == nil {
		return nil, errors.New("[devserver.New] tenant repo is required")
	}
	if cfg.GetSigningSecret() == "" {
		return nil, errors.New("[devserver.New] signing secret is required")
	}

	tokens, err := token.New(tokenfakerepo.NewFakeTokensRepo(), userRepo, token.NewHMACSigner(cfg.GetSigningSecret()),
		token.WithTokenExpiry(cfg.GetAccessTokenExpiry(), cfg.GetRefreshTokenExpiry()),
		token.WithNowFunc(func() time.Time { return NowTimeFunc() }),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[devserver.New] token manager")
	}

	s := &Server{
		env:        cfg.GetEnv(),
		mux:        http.NewServeMux(),
		users:      userRepo,
		tenants:    tenantRepo,
		tokens:     tokens,
		challenges: newChallenges(challengeExpiry, maxCodeAttempts),
	}
	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	mw := s.apiMiddleware()
	for pattern, h := range map[string]http.HandlerFunc{
		"POST " + LoginRoute:   s.handleLogin,
		"POST " + VerifyRoute:  s.handleVerify,
		"POST " + RefreshRoute: s.handleRefresh,
		"POST " + LogoutRoute:  s.handleLogout,
		"GET " + TenantsRoute:  s.handleListTenants,
		"GET " + ResourceRoute: s.handleResource,
	} {
		s.RegisterRouteFunc(pattern, chain(h, mw...))
	}
	sort.Strings(s.routes)
}

// ExpireAccessTokens invalidates every issued access token, forcing clients through a refresh
func (s *Server) ExpireAccessTokens() {
	s.tokens.RevokeAllAccessTokens()
}

// PendingCode returns the one-time code of a pending challenge. Development only.
func (s *Server) PendingCode(pendingToken string) (string, bool) {
	return s.challenges.code(pendingToken)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ansiReset
	} else {
		displayMethod = ansiGray + paddedMethod + ansiReset
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
