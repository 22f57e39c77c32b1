// Package daemon wires configuration, storage, authentication, administration and the
// web service of the console together.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/admin"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/audit"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/store"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler"
)

// ErrNilConfig is returned when no configuration is given.
var ErrNilConfig = errors.New("config is nil")

// Components are the services built from the configuration. The cli commands use
// them without starting the web service.
type Components struct {
	Manager       *store.Manager
	Identities    *auth.IdentityStore
	Engine        *auth.Engine
	Directory     *auth.DirectoryClient
	Authenticator *auth.Authenticator
	Recorder      *audit.Recorder
	Admin         *admin.Service
}

// Wire opens the configuration store, loads the document and builds the services.
func Wire(ctx context.Context, cfg *config.Config) (*Components, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	docStore, err := openDocumentStore(cfg)
	if err != nil {
		return nil, err
	}

	manager := store.NewManager(docStore)
	if err = manager.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load configuration document: %w", err)
	}

	identities := auth.NewIdentityStore(manager)
	engine := auth.NewEngine(identities)
	directory := auth.NewDirectoryClient(cfg.Directory)

	notifier := audit.NewNotifier(func() document.EmailSettings {
		if doc := manager.Snapshot(); doc != nil {
			return doc.EmailSettings
		}

		return document.EmailSettings{}
	}, audit.SendSMTP)
	recorder := audit.NewRecorder(audit.NewSink(cfg.Audit), notifier)

	return &Components{
		Manager:       manager,
		Identities:    identities,
		Engine:        engine,
		Directory:     directory,
		Authenticator: auth.NewAuthenticator(identities, directory),
		Recorder:      recorder,
		Admin:         admin.New(manager, engine, recorder),
	}, nil
}

// Deps returns the handler dependencies of c.
func (c *Components) Deps(cfg *config.Config) *handler.Deps {
	return &handler.Deps{
		Config:        cfg,
		Identities:    c.Identities,
		Authenticator: c.Authenticator,
		Engine:        c.Engine,
		Directory:     c.Directory,
		Admin:         c.Admin,
		Recorder:      c.Recorder,
	}
}

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	components *Components
	webService *web.Service
}

// Start serves the api until a termination signal arrives. While serving, the
// configuration document is polled for changes made by other processes.
func (d *Daemon) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go d.components.Manager.Watch(ctx, d.cfg.Store.RefreshInterval)
	go d.webService.WaitShutdown()

	addr := fmt.Sprintf(":%d", d.cfg.Webserver.Port)
	log.Info().Str("addr", addr).Str("url", d.cfg.Webserver.URL).Msg("starting web service")

	return d.webService.Start(addr)
}

// App returns the fiber app of the web service.
func (d *Daemon) App() *fiber.App {
	return d.webService.App
}

// New creates a new Daemon instance with the provided configuration.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	components, err := Wire(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.DevMode {
		if err = seed(ctx, components.Manager); err != nil {
			return nil, err
		}
	}

	sessions, err := openSessionStorage(cfg)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(cfg, components.Deps(cfg), web.WithSessionStorage(sessions))
	if err != nil {
		return nil, err
	}

	return &Daemon{
		cfg:        cfg,
		components: components,
		webService: webService,
	}, nil
}
