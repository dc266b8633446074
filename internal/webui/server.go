package webui

import (
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"
	"github.com/biodoia/goleapsocial/internal/social"
	"github.com/biodoia/goleapsocial/internal/stats"
	"github.com/biodoia/goleapsocial/pkg/config"
	"github.com/biodoia/goleapsocial/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
)

// Options raccoglie le dipendenze opzionali del server
type Options struct {
	Metrics   *stats.Metrics
	Collector *stats.Collector
	// Se presente espone /ws/activity; deve essere registrato anche come observer del Runner
	Activity *ActivityHub
}

// Server espone il form, le API JSON e il feed websocket
type Server struct {
	app    *fiber.App
	cfg    *config.Config
	runner *social.Runner
	opts   Options
	stop   chan struct{}
}

// NewServer crea il server web; runner deve essere già configurato con
// metriche e collector se questi vanno aggiornati dalle esecuzioni
func NewServer(cfg *config.Config, runner *social.Runner, opts Options) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "GoLeapSocial",
		DisableStartupMessage: true,
	})

	s := &Server{
		app:    app,
		cfg:    cfg,
		runner: runner,
		opts:   opts,
		stop:   make(chan struct{}),
	}

	app.Use(middleware.RequestID())
	app.Use(middleware.Recovery())
	app.Use(middleware.Logging(middleware.LoggingConfig{
		SkipPaths: []string{"/health", "/metrics"},
	}))
	app.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	limit := middleware.RateLimit(s.cfg.Server.RateLimit, s.stop)

	s.app.Get("/", s.handleIndex)
	s.app.Get("/health", s.handleHealth)
	s.app.Post("/generate", limit, s.handleGenerate)

	api := s.app.Group("/api/v1")
	api.Post("/posts", limit, s.handleCreatePost)
	api.Get("/stats", s.handleStats)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", limit, websocket.New(s.handleWebSocket))
	if s.opts.Activity != nil {
		s.app.Get("/ws/activity", websocket.New(s.handleActivity))
	}

	if s.opts.Metrics != nil && s.cfg.Monitoring.Prometheus.Enabled {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.opts.Metrics.Handler()))
	}
}

// App restituisce l'applicazione fiber sottostante
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen avvia il server sull'indirizzo configurato
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("Web server listening")
	return s.app.Listen(addr)
}

// Shutdown arresta il server e il rate limiter
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return s.app.ShutdownWithContext(ctx)
}

// renderTempl renderizza un componente templ nella risposta
func renderTempl(c *fiber.Ctx, component templ.Component) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return component.Render(c.UserContext(), c.Response().BodyWriter())
}

// statusFor mappa la categoria di errore sullo status HTTP delle API JSON
func statusFor(kind social.Kind) int {
	switch kind {
	case social.KindRequest:
		return fiber.StatusBadRequest
	case social.KindConfiguration:
		return fiber.StatusPreconditionFailed
	default:
		return fiber.StatusBadGateway
	}
}

func (s *Server) credentialStored() bool {
	return strings.TrimSpace(s.cfg.LLM.APIKey) != ""
}
