package console

import (
	"context"
	"io"
	"net/http"

	"github.com/jrsteele09/retail-console/apiclient"
	"github.com/jrsteele09/retail-console/auth"
	"github.com/jrsteele09/retail-console/cache"
	"github.com/jrsteele09/retail-console/internal/config"
	"github.com/jrsteele09/retail-console/internal/metrics"
	"github.com/jrsteele09/retail-console/navigation"
	"github.com/jrsteele09/retail-console/pipeline"
	"github.com/jrsteele09/retail-console/session"
	"github.com/jrsteele09/retail-console/storage"
	"github.com/jrsteele09/retail-console/tenants"
	"github.com/jrsteele09/retail-console/token/refresh"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// App is a wired console: session, tenant context, request pipeline, API client and login flow
type App struct {
	Session     *session.Store
	Tenants     *tenants.Context
	Cache       *cache.TenantCache
	Navigator   navigation.Navigator
	Coordinator *refresh.Coordinator
	API         *apiclient.Client
	Auth        *auth.Machine
	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry

	jar    *persistentJar
	closer io.Closer
}

type options struct {
	store     storage.Store
	navigator navigation.Navigator
	base      http.RoundTripper
}

type Option func(*options)

// WithStore uses store instead of opening the configured backend
func WithStore(store storage.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

func WithNavigator(navigator navigation.Navigator) Option {
	return func(o *options) {
		o.navigator = navigator
	}
}

// WithBaseTransport sets the round tripper underneath the request pipeline
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

func New(cfg config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("[console.New] config is required")
	}
	o := &options{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(o)
	}

	app := &App{closer: nopCloser{}}
	store := o.store
	if store == nil {
		var err error
		store, app.closer, err = OpenStore(cfg)
		if err != nil {
			return nil, err
		}
	}
	if err := app.wire(cfg, store, o); err != nil {
		_ = app.closer.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) wire(cfg config.Config, store storage.Store, o *options) error {
	var err error
	app.Registry = prometheus.NewRegistry()
	app.Metrics = metrics.New(app.Registry)

	if app.Session, err = session.New(store); err != nil {
		return errors.Wrap(err, "[console.New] session")
	}
	if app.Tenants, err = tenants.NewContext(store); err != nil {
		return errors.Wrap(err, "[console.New] tenant context")
	}
	if app.Cache, err = cache.New(); err != nil {
		return errors.Wrap(err, "[console.New] cache")
	}
	app.Tenants.OnInvalidate(app.Cache)

	app.Navigator = o.navigator
	if app.Navigator == nil {
		app.Navigator = navigation.NewHistory(cfg.GetDefaultRoute())
	}

	// The coordinator and the client depend on each other through the refresh call
	refreshFn := func(ctx context.Context) (string, error) {
		return app.API.Refresh(ctx)
	}
	if app.Coordinator, err = refresh.NewCoordinator(refreshFn, app.Session, app.Navigator,
		refresh.WithTimeout(cfg.GetRefreshTimeout()),
		refresh.WithLoginRoute(cfg.GetLoginRoute()),
		refresh.WithMetrics(app.Metrics),
	); err != nil {
		return errors.Wrap(err, "[console.New] refresh coordinator")
	}

	transport, err := pipeline.NewTransport(app.Session, app.Tenants, app.Coordinator,
		pipeline.WithBase(o.base),
		pipeline.WithAuthPaths(cfg.GetAuthPaths()...),
		pipeline.WithMetrics(app.Metrics),
	)
	if err != nil {
		return errors.Wrap(err, "[console.New] pipeline")
	}

	if app.jar, err = newPersistentJar(store, cfg.GetAPIBaseURL()); err != nil {
		return err
	}
	if app.API, err = apiclient.New(cfg.GetAPIBaseURL(), apiclient.WithTransport(transport), apiclient.WithJar(app.jar)); err != nil {
		return errors.Wrap(err, "[console.New] api client")
	}

	if app.Auth, err = auth.NewMachine(app.API, app.Session, app.Navigator,
		auth.WithRoutes(auth.Routes{Login: cfg.GetLoginRoute(), Default: cfg.GetDefaultRoute()}),
	); err != nil {
		return errors.Wrap(err, "[console.New] auth machine")
	}
	return nil
}

// Fetch reads a tenant scoped resource through the tenant cache
func (app *App) Fetch(ctx context.Context, path string) ([]byte, error) {
	generation := app.Cache.Generation()
	assignment := app.Tenants.Snapshot()
	tenantID := assignment.TenantID
	if tenantID != "" && !assignment.Unassigned {
		if body, ok := app.Cache.Get(tenantID, path); ok {
			log.Debug().Str("tenant", tenantID).Str("path", path).Msg("Cache hit")
			return body, nil
		}
	}

	body, err := app.API.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	// The request may have flagged the tenant as rejected, and a Select in the meantime
	// bumps the generation; either way the body is not cached.
	if a := app.Tenants.Snapshot(); a.TenantID != "" && a.TenantID == tenantID && !a.Unassigned {
		app.Cache.SetIfCurrent(generation, tenantID, path, body)
	}
	return body, nil
}

// ListTenants returns the tenants the signed in user may select
func (app *App) ListTenants(ctx context.Context) ([]*tenants.Tenant, error) {
	return app.API.ListTenants(ctx)
}

// SelectTenant switches tenant, dropping every cached tenant scoped response
func (app *App) SelectTenant(tenantID string) error {
	return app.Tenants.Select(tenantID)
}

// Logout ends the session locally and remotely and forgets the refresh cookie
func (app *App) Logout(ctx context.Context) {
	app.Auth.Logout(ctx)
	app.jar.clear()
	app.Cache.InvalidateAll()
}

func (app *App) Close() error {
	if app.Cache != nil {
		app.Cache.Close()
	}
	return app.closer.Close()
}
