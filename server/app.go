package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetdash/config"
	"fleetdash/internal/api"
	"fleetdash/internal/db"
	"fleetdash/internal/health"
	"fleetdash/internal/logs"
	"fleetdash/internal/middleware"
	"fleetdash/internal/models"
	"fleetdash/internal/pages"
	"fleetdash/internal/store"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// App is the dashboard backend: one operator session against one fleet API.
type App struct {
	cfg        *config.Config
	Router     *mux.Router
	httpServer *http.Server

	db       *gorm.DB
	client   *api.Client
	env      *pages.Env
	users    *pages.Users
	bg       *pages.Recorder
	snap     DeviceSnapshots
	sessions sessions.Store

	ctx    context.Context
	cancel context.CancelFunc
}

// DeviceSnapshots keeps the last good device list for when the fleet API
// is down. *store.Snapshotter is the database-backed one.
type DeviceSnapshots interface {
	SaveDevices(list []models.Device) error
	Into(ds *store.DeviceStore) (int, error)
}

// Options overrides what Initialize would otherwise build from config.
type Options struct {
	HTTPClient *http.Client
	Persister  store.Persister
	Snapshots  DeviceSnapshots
	Users      pages.UsersOptions
}

func (a *App) Initialize(cfg *config.Config) error {
	return a.InitializeWith(cfg, Options{})
}

func (a *App) InitializeWith(cfg *config.Config, opts Options) error {
	a.cfg = cfg
	log := logs.Component("server")

	// 1) logs
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	// 2) database (optional)
	if drv := a.cfg.Database.Driver; drv != "" {
		d, err := db.Open(drv, a.cfg.Database.DSN)
		if err != nil {
			return errors.Wrap(err, "db open")
		}
		a.db = d
		if err := db.Migrate(a.db); err != nil {
			return errors.Wrap(err, "db migrate")
		}
		a.snap = store.NewSnapshotter(a.db)
	}
	if opts.Snapshots != nil {
		a.snap = opts.Snapshots
	}

	// 3) session storage and API client
	persister := opts.Persister
	switch {
	case persister != nil:
	case a.db != nil:
		persister = store.NewDBPersister(a.db)
	default:
		persister = store.NewFilePersister(a.cfg.Storage.Dir)
	}
	authStore := store.NewAuthStore(persister, a.cfg.Storage.Key)

	a.client = api.New(a.cfg.API, api.TokenFunc(authStore.Token))
	if opts.HTTPClient != nil {
		a.client.WithHTTPClient(opts.HTTPClient)
	}
	a.client.OnUnauthorized(func(err error) {
		log.WithError(err).Warn("fleet API rejected the session token")
	})

	a.env = pages.NewEnv(a.client, store.NewDeviceStore(), store.NewVideoStore(), authStore)

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.API.Timeout+time.Second)
	st := pages.NewSession(a.env).Bootstrap(ctx)
	cancel()
	log.WithField("authenticated", st.IsAuthenticated).Info("session restored")

	// the user list outlives requests; its notices are queued for /notices
	a.bg = &pages.Recorder{}
	uopts := opts.Users
	if uopts.PageSize == 0 {
		uopts.PageSize = a.cfg.Users.PageSize
		uopts.SearchDebounce = a.cfg.Users.SearchDebounce
		uopts.RoleDebounce = a.cfg.Users.RoleDebounce
	}
	a.users = pages.NewUsers(a.env.With(pages.Tee{pages.LogNotifier{}, a.bg}, nil), uopts)

	cs := sessions.NewCookieStore([]byte(a.cfg.Session.Secret))
	cs.Options = &sessions.Options{Path: "/", MaxAge: 86400 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode}
	a.sessions = cs

	// 4) router + middleware
	a.Router = mux.NewRouter()
	a.Router.Use(middleware.RequestID)
	a.Router.Use(middleware.Recoverer)
	a.Router.Use(middleware.LoggerMW)

	checks := map[string]health.Check{"session_store": func(context.Context) error {
		_, _, err := persister.Load(authStore.Key())
		return err
	}}
	if a.db != nil {
		health.RegisterRoutesWithDB(a.Router, a.db, checks)
	} else {
		health.RegisterRoutes(a.Router, checks)
	}

	a.registerAPI(a.Router.PathPrefix("/api/v1").Subrouter())
	a.RegisterWebUI("/ui/")

	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		log.Debugf("route: %-6v %s", methods, path)
		return nil
	})
	return nil
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return ErrNotInitialized
	}
	log := logs.Component("server")
	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigs; a.cancel() }()

	a.httpServer = &http.Server{
		Addr:        bind,
		Handler:     a.Router,
		ReadTimeout: 15 * time.Second,
		// uploads stream to the fleet API within the request
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case <-a.ctx.Done():
	case err := <-errc:
		a.Close()
		return errors.Wrap(err, "http server")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.httpServer.Shutdown(ctx)
	a.Close()
	return nil
}

// Close stops the background user list.
func (a *App) Close() {
	if a.users != nil {
		a.users.Close()
	}
}

var ErrNotInitialized = &initError{"server not initialized (call Initialize(cfg) first)"}

type initError struct{ s string }

func (e *initError) Error() string { return e.s }
