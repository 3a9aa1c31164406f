// Package web serves the permission REST API with fiber.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/config"
	fiberlogger "github.com/marketplace-tools/permd/internal/logger/adapter/fiber"
	"github.com/marketplace-tools/permd/internal/web/handler"
	"github.com/marketplace-tools/permd/internal/web/handler/assignment"
	"github.com/marketplace-tools/permd/internal/web/handler/audit"
	"github.com/marketplace-tools/permd/internal/web/handler/check"
	"github.com/marketplace-tools/permd/internal/web/handler/role"
	"github.com/marketplace-tools/permd/internal/web/middleware/auth"
	"github.com/marketplace-tools/permd/internal/web/session"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"
	// MetricsPath serves Prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	store        *acl.Store
	sessions     *session.Manager
}

// Options carries the collaborators of the web service.
type Options struct {
	Store    *acl.Store
	Sessions *session.Manager
	// Gatherer serves /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// FastShutDown skips the checkalive drain period on shutdown.
	FastShutDown bool
}

// Start starts the web service on the configured port and blocks until it stops.
func (s *Service) Start() error {
	var (
		doneFiber = make(chan error, 1)
		addr      = ":" + strconv.Itoa(s.cfg.Webserver.Port)
	)

	go func() {
		log.Info().Str("addr", addr).Msg("starting http server")

		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneFiber <- err
			return
		}

		doneFiber <- nil
	}()

	return <-doneFiber // wait for fiber to stop
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown drains and stops the http server.
func (s *Service) Shutdown() {
	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, opts Options) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if opts.Store == nil || opts.Sessions == nil {
		panic("store and sessions cannot be nil")
	}

	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	app := fiber.New(
		fiber.Config{
			AppName:       cfg.Title,
			CaseSensitive: true,
			Prefork:       false,
			Immutable:     true,
			ErrorHandler:  errorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Log:           cfg.Log,
		SkipPaths:     []string{CheckAlivePath, MetricsPath},
		UserLocalsKey: auth.LocalsUserID,
	}))

	service := &Service{
		App:          app,
		cfg:          cfg,
		fastShutDown: opts.FastShutDown,
		store:        opts.Store,
		sessions:     opts.Sessions,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	deps := &handler.Deps{
		Cfg:       cfg,
		Store:     opts.Store,
		Validator: validator.New(),
	}

	api := app.Group(handler.RootPath, auth.Middleware(opts.Sessions))

	// init handlers (they register their own routes with permission checks)
	for _, h := range []handler.Service{
		new(assignment.Service),
		new(check.Service),
		new(audit.Service),
		new(role.Service),
	} {
		h.Init(api, deps)
	}

	return service
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// errorHandler answers unhandled errors with the API's JSON error shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := handler.ErrInternal

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	return handler.Error(c, code, msg)
}
