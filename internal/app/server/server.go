package server

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ushort/internal/app/notify"
	"github.com/sifan077/ushort/internal/app/service"
	"github.com/sifan077/ushort/internal/app/workflow"
	inthttp "github.com/sifan077/ushort/internal/http/handler"
	"github.com/sifan077/ushort/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles what the console server drives.
type Dependencies struct {
	Logger        *zap.Logger
	Shorten       *workflow.ShortenWorkflow
	Analytics     *workflow.AnalyticsWorkflow
	Notifications *notify.Scheduler
	History       *service.HistoryService
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a console server with middleware and routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "ushort console",
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// Test forwards to fiber's in-memory request runner.
func (s *Server) Test(req *http.Request) (*http.Response, error) {
	return s.app.Test(req)
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.Recovery(s.deps.Logger))
}

func (s *Server) registerRoutes() {
	consoleHandler := inthttp.NewConsoleHandler(inthttp.ConsoleDeps{
		Logger:        s.deps.Logger,
		Shorten:       s.deps.Shorten,
		Analytics:     s.deps.Analytics,
		Notifications: s.deps.Notifications,
		History:       s.deps.History,
	})
	consoleHandler.Register(s.app)
}
