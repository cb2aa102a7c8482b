// Package api is the local HTTP control surface the settings UI talks to.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/dudu/mirrorbooth/internal/pipeline"
	"github.com/dudu/mirrorbooth/internal/settings"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusInterval is how often the status stream pushes a snapshot.
const StatusInterval = 500 * time.Millisecond

// SettingsStore is the part of the settings store the API exposes
type SettingsStore interface {
	Get() settings.Settings
	Replace(next settings.Settings) (settings.Settings, error)
	SelectFilter(id string) (settings.Settings, error)
	Subscribe(ctx context.Context) <-chan settings.Settings
}

// StatusSource reports the frame loop status
type StatusSource interface {
	Status() pipeline.Status
}

// IdleSource reports whether the booth is idle
type IdleSource interface {
	Idle() bool
}

type ServerOption func(*Server) error

type Server struct {
	app     *fiber.App
	log     *zap.SugaredLogger
	store   SettingsStore
	status  StatusSource
	idle    IdleSource
	clock   clock.Clock
	limiter *rateLimiter

	ratePerSecond float64
	rateBurst     int
}

// NewServer builds the fiber app and registers every route.
func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{clock: clock.New()}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.log == nil {
		return nil, errors.New("logger is required")
	}
	if server.store == nil {
		return nil, errors.New("settings store is required")
	}
	if server.status == nil {
		return nil, errors.New("status source is required")
	}

	if server.ratePerSecond > 0 {
		server.limiter = newRateLimiter(server.clock, server.ratePerSecond, max(server.rateBurst, 1))
	}

	server.app = newFiber(server.log)
	server.routes()
	return server, nil
}

func WithLogger(logger *zap.SugaredLogger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithSettings(store SettingsStore) ServerOption {
	return func(s *Server) error {
		s.store = store
		return nil
	}
}

func WithStatus(status StatusSource) ServerOption {
	return func(s *Server) error {
		s.status = status
		return nil
	}
}

func WithIdle(idle IdleSource) ServerOption {
	return func(s *Server) error {
		s.idle = idle
		return nil
	}
}

func WithClock(clk clock.Clock) ServerOption {
	return func(s *Server) error {
		s.clock = clk
		return nil
	}
}

// WithRateLimit limits each client IP to perSecond requests with the given
// burst. A zero rate disables limiting.
func WithRateLimit(perSecond float64, burst int) ServerOption {
	return func(s *Server) error {
		if perSecond < 0 || burst < 0 {
			return fmt.Errorf("invalid rate limit %v/%d", perSecond, burst)
		}
		s.ratePerSecond, s.rateBurst = perSecond, burst
		return nil
	}
}

func newFiber(log *zap.SugaredLogger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "MirrorBooth",
		BodyLimit:             64 * 1024,
		StrictRouting:         true,
		CaseSensitive:         true,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          errorHandler(log),
	})
}

func (s *Server) routes() {
	s.app.Use(requestID())
	s.app.Use(accessLog(s.log))
	if s.limiter != nil {
		s.app.Use(s.limiter.handler(s.log))
	}

	s.app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"message": "MirrorBooth is running"})
	})

	v1 := s.app.Group("/api/v1")
	v1.Get("/filters", s.listFilters)
	v1.Get("/categories", s.listCategories)
	v1.Get("/settings", s.getSettings)
	v1.Put("/settings", s.putSettings)
	v1.Put("/settings/filter", s.putFilter)
	v1.Get("/status", s.getStatus)
	v1.Use("/status/ws", requireUpgrade)
	v1.Get("/status/ws", s.statusStream())
}

// App exposes the fiber app, for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listener(ln) }()

	s.log.Infow("control API listening", "addr", ln.Addr().String())
	select {
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return fmt.Errorf("failed to shut down API: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
