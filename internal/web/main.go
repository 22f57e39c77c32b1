// Package web serves the json api of the console.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
	fiberlogger "github.com/GoFMG-Admin/GoFMG-Admin/internal/logger/adapter/fiber"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler/admin/profile"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler/admin/settings"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler/admin/user"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler/authorize"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler/dashboard"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler/login"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler/logs"
	authmiddleware "github.com/GoFMG-Admin/GoFMG-Admin/internal/web/middleware/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/session"
)

const (
	// CheckAlivePath answers 200 while the service accepts traffic.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	sessions     fiber.Storage
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal and shuts the http server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown stops the http server. Unless fast shutdown is set, checkalive fails first
// for the configured time so load balancers stop routing to this instance.
func (s *Service) Shutdown() {
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// CheckAlive answers 200 while alive and 503 while draining.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// Option customises the web service.
type Option func(*Service)

// WithFastShutdown skips the checkalive drain period.
func WithFastShutdown() Option {
	return func(s *Service) {
		s.fastShutDown = true
	}
}

// WithSessionStorage keeps sessions in storage instead of process memory.
func WithSessionStorage(storage fiber.Storage) Option {
	return func(s *Service) {
		s.sessions = storage
	}
}

// New creates the web service and registers every handler.
func New(cfg *config.Config, deps *handler.Deps, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if deps == nil {
		return nil, handler.ErrNilDeps
	}

	deps.Config = cfg

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "GoFMG-Admin",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
	}
	service.alive.Store(true)

	for _, opt := range opts {
		opt(service)
	}

	session.Init(service.sessions)

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	app.Get(CheckAlivePath, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// session identity for every api route
	app.Use(authmiddleware.Middleware)

	handlers := []handler.Service{
		&login.Handler,
		&authorize.Handler,
		&dashboard.Handler,
		&profile.Handler,
		&user.Handler,
		&settings.Handler,
		&logs.Handler,
	}

	for _, h := range handlers {
		if err := h.Init(app, deps); err != nil {
			return nil, err
		}
	}

	return service, nil
}
