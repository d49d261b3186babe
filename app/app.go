// Package app wires the store, session, request pipeline, API and router into one client.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-learn-client/api"
	"github.com/jrsteele09/go-learn-client/client"
	"github.com/jrsteele09/go-learn-client/credentials"
	"github.com/jrsteele09/go-learn-client/credentials/filestore"
	"github.com/jrsteele09/go-learn-client/credentials/sqlstore"
	"github.com/jrsteele09/go-learn-client/credentials/storefake"
	"github.com/jrsteele09/go-learn-client/internal/config"
	"github.com/jrsteele09/go-learn-client/navigation"
	"github.com/jrsteele09/go-learn-client/notify"
	"github.com/jrsteele09/go-learn-client/session"
	"github.com/rs/zerolog/log"
)

var ErrUnknownStoreDriver = errors.New("unknown store driver")

// App exposes the session and everything built over it. The credential store stays private so the
// session remains its only writer.
type App struct {
	Session  *session.Session
	Client   *client.Client
	Auth     *api.Auth
	Learning *api.Learning
	Router   *navigation.Router

	store  credentials.Store
	config config.Config
}

type options struct {
	store      credentials.Store
	notifier   notify.Notifier
	titles     navigation.TitleSetter
	httpClient *http.Client
	middleware []client.Middleware
	routes     []navigation.Route
}

type Option func(*options)

// WithStore bypasses the configured store driver.
func WithStore(s credentials.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

func WithTitleSetter(t navigation.TitleSetter) Option {
	return func(o *options) {
		o.titles = t
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

func WithMiddleware(mw ...client.Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mw...)
	}
}

func WithRoutes(routes ...navigation.Route) Option {
	return func(o *options) {
		o.routes = routes
	}
}

// New builds the client. The session is created first with no authenticator, the pipeline is built
// over the session, and the API bound to the pipeline is then handed back to the session.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{notifier: notify.Log{}, routes: navigation.DefaultRoutes()}
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		if store, err = OpenStore(ctx, cfg); err != nil {
			return nil, fmt.Errorf("[App New] %w", err)
		}
	}
	a := &App{store: store, config: cfg}

	sess, err := session.New(ctx, store)
	if err != nil {
		a.closeStore()
		return nil, fmt.Errorf("[App New] %w", err)
	}
	a.Session = sess

	clientOpts := []client.Option{client.WithMiddleware(o.middleware...)}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(o.httpClient))
	}
	clientOpts = append(clientOpts, client.WithTimeout(cfg.GetRequestTimeout()))
	a.Client = client.New(config.APIRoot(cfg), sess, o.notifier, clientOpts...)

	a.Auth = api.NewAuth(a.Client)
	a.Learning = api.NewLearning(a.Client)
	sess.UseAuthenticator(a.Auth)

	table, err := navigation.NewTable(o.routes...)
	if err != nil {
		a.closeStore()
		return nil, fmt.Errorf("[App New] %w", err)
	}
	guard := navigation.NewGuard(sess, o.titles, navigation.WithAppTitle(cfg.GetAppName()))
	if a.Router, err = navigation.NewRouter(table, guard); err != nil {
		a.closeStore()
		return nil, fmt.Errorf("[App New] %w", err)
	}

	log.Debug().
		Str("api", a.Client.BaseURL()).
		Str("store", cfg.GetStoreDriver()).
		Bool("logged_in", sess.IsLoggedIn()).
		Msg("client ready")
	return a, nil
}

// Close releases the credential store.
func (a *App) Close() error {
	return a.closeStore()
}

func (a *App) closeStore() error {
	if c, ok := a.store.(credentials.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("[App Close] %w", err)
		}
	}
	return nil
}

// OpenStore opens the credential store selected by cfg.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (credentials.Store, error) {
	switch driver := cfg.GetStoreDriver(); driver {
	case config.StoreDriverFile:
		var opts []filestore.Option
		if secret := cfg.GetStoreSecret(); secret != "" {
			opts = append(opts, filestore.WithSecret(secret))
		}
		s, err := filestore.Open(cfg.GetStorePath(), opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreDriverSQLite, config.StoreDriverPostgres:
		s, err := sqlstore.Open(ctx, driver, cfg.GetStoreDSN())
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreDriverMemory:
		return storefake.NewFakeStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStoreDriver, driver)
	}
}
