package refresh

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/jrsteele09/retail-console/internal/metrics"
	"github.com/jrsteele09/retail-console/navigation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// RefreshFunc performs the refresh network call and returns the new bearer token
type RefreshFunc func(ctx context.Context) (string, error)

// TokenStore is the session as seen by the coordinator
type TokenStore interface {
	Token() string
	SetToken(token string) error
	Clear() error
}

// Coordinator guarantees at most one outstanding refresh call. Callers hitting a 401
// while a refresh is in flight wait for the same result instead of starting another.
type Coordinator struct {
	refreshFn  RefreshFunc
	session    TokenStore
	navigator  navigation.Navigator
	loginRoute string
	timeout    time.Duration
	metrics    *metrics.Metrics
	group      singleflight.Group

	// endedLock guards ended: the token whose failed refresh ended the session
	endedLock sync.Mutex
	ended     *string
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithTimeout bounds the shared refresh call; 0 waits forever
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.timeout = d
	}
}

// WithLoginRoute sets where a failed refresh sends the user
func WithLoginRoute(route string) Option {
	return func(c *Coordinator) {
		c.loginRoute = route
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func NewCoordinator(refreshFn RefreshFunc, session TokenStore, navigator navigation.Navigator, options ...Option) (*Coordinator, error) {
	if refreshFn == nil {
		return nil, errors.New("[NewCoordinator] refreshFn is required")
	}
	if session == nil {
		return nil, errors.New("[NewCoordinator] session is required")
	}
	if navigator == nil {
		return nil, errors.New("[NewCoordinator] navigator is required")
	}
	c := &Coordinator{
		refreshFn:  refreshFn,
		session:    session,
		navigator:  navigator,
		loginRoute: "/auth/login",
		timeout:    30 * time.Second,
		metrics:    metrics.Discard(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Refresh returns a token to retry with. staleToken is the token the rejected request
// carried; when the session already holds a different one another caller refreshed
// in the meantime and no network call is made. A late 401 for a token whose refresh
// already failed gets ErrSessionExpired without another call.
//
// ctx only bounds this caller's wait. The shared call keeps running for the other
// waiters when one of them gives up.
func (c *Coordinator) Refresh(ctx context.Context, staleToken string) (string, error) {
	current := c.session.Token()
	if current != "" && current != staleToken {
		return current, nil
	}
	if current == "" && c.endedBy(staleToken) {
		return "", errors.Wrap(apperrors.ErrSessionExpired, "[Coordinator.Refresh] session already ended")
	}

	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		return c.refresh(context.WithoutCancel(ctx), staleToken)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "[Coordinator.Refresh] waiting for refresh")
	}
}

// refresh runs once per flight; its side effects happen once regardless of the
// number of waiters.
func (c *Coordinator) refresh(ctx context.Context, staleToken string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.metrics.RefreshCalls.Inc()
	token, err := c.refreshFn(ctx)
	if err == nil && token == "" {
		err = errors.New("refresh returned an empty token")
	}
	if err != nil {
		c.metrics.RefreshFailures.Inc()
		c.setEnded(&staleToken)
		c.expire(err)
		return "", errors.Wrap(err, "[Coordinator.refresh]")
	}

	// The server has already rotated the refresh cookie, so a local write failure
	// must not end the session.
	if err := c.session.SetToken(token); err != nil {
		log.Err(err).Msg("Refreshed token kept in memory only")
	}
	c.setEnded(nil)
	log.Debug().Msg("Session token refreshed")
	return token, nil
}

func (c *Coordinator) setEnded(token *string) {
	c.endedLock.Lock()
	c.ended = token
	c.endedLock.Unlock()
}

func (c *Coordinator) endedBy(token string) bool {
	c.endedLock.Lock()
	defer c.endedLock.Unlock()
	return c.ended != nil && *c.ended == token
}

func (c *Coordinator) expire(cause error) {
	log.Err(cause).Msg("Token refresh failed, ending session")
	if err := c.session.Clear(); err != nil {
		log.Err(err).Msg("Failed to clear session")
	}

	current := c.navigator.Location()
	if navigation.IsRoute(current, c.loginRoute) {
		return
	}
	c.navigator.Navigate(navigation.LoginTarget(c.loginRoute, navigation.ReturnPath(current)))
}
