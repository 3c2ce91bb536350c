// Package api is the HTTP surface: thin fiber handlers over the intake,
// workflow, and interview services. JSON shapes here are integration glue,
// not part of the core contracts.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ats-workers/internal/common/logger"
)

type Config struct {
	Address      string
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsPath  string
	// ScopeHeader carries the authenticated company id, injected by the
	// gateway that terminates auth in front of this service.
	ScopeHeader string
	// UserHeader carries the acting user id for audit fields.
	UserHeader string
}

type Server struct {
	app     *fiber.App
	config  Config
	handler *Handler
	logger  logger.Logger
}

func NewServer(config Config, handler *Handler, log logger.Logger) *Server {
	if config.ScopeHeader == "" {
		config.ScopeHeader = "X-Company-ID"
	}
	if config.UserHeader == "" {
		config.UserHeader = "X-User-ID"
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}

	app := fiber.New(fiber.Config{
		AppName:      "ats-workers",
		BodyLimit:    config.BodyLimit,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		ErrorHandler: errorHandler(log),
	})
	app.Use(recover.New())

	s := &Server{
		app:     app,
		config:  config,
		handler: handler,
		logger:  log.WithFields(map[string]interface{}{"component": "api"}),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.handler.Health)
	s.app.Get(s.config.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	public := s.app.Group("/api/public")
	public.Get("/form/:formToken", s.handler.GetApplicationForm)
	public.Post("/apply/:formToken", s.handler.SubmitApplication)

	candidates := s.app.Group("/api/candidates", s.requireScope)
	candidates.Patch("/:candidateId/status", s.handler.UpdateStatus)
	candidates.Post("/bulk-update", s.handler.BulkUpdateStatus)
	candidates.Post("/:candidateId/interview-recording", s.handler.ProcessRecording)
	candidates.Post("/:candidateId/send-email", s.handler.SendFeedbackEmail)
}

// requireScope rejects reviewer routes that arrive without a company scope.
func (s *Server) requireScope(c *fiber.Ctx) error {
	if c.Get(s.config.ScopeHeader) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "missing company scope",
		})
	}
	return c.Next()
}

func (s *Server) Listen() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"address": s.config.Address,
	})
	return s.app.Listen(s.config.Address)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
