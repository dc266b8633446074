package webui

import (
	"context"
	"time"

	"github.com/biodoia/goleapsocial/internal/chaining"
	"github.com/biodoia/goleapsocial/internal/social"
	"github.com/biodoia/goleapsocial/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog/log"
)

// ErrorResponse è il corpo JSON degli errori
type ErrorResponse struct {
	Error string      `json:"error"`
	Kind  social.Kind `json:"kind"`
	Hint  string      `json:"hint,omitempty"`
}

// Message è un frame inviato sul websocket
type Message struct {
	Type     string           `json:"type"` // "event", "result", "error"
	Event    *EventPayload    `json:"event,omitempty"`
	Response *social.Response `json:"response,omitempty"`
	Error    *ErrorResponse   `json:"error,omitempty"`
}

// EventPayload è la forma serializzabile di un chaining.Event
type EventPayload struct {
	Type     chaining.EventType `json:"type"`
	RunID    string             `json:"run_id"`
	Index    int                `json:"index"`
	Total    int                `json:"total"`
	Task     string             `json:"task,omitempty"`
	Agent    string             `json:"agent,omitempty"`
	Duration time.Duration      `json:"duration_ns,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func newEventPayload(e chaining.Event) *EventPayload {
	p := &EventPayload{
		Type:     e.Type,
		RunID:    e.PipelineID,
		Index:    e.Index,
		Total:    e.Total,
		Task:     e.Task,
		Agent:    e.Agent,
		Duration: e.Duration,
	}
	if e.Err != nil {
		p.Error = e.Err.Error()
	}
	return p
}

func newErrorResponse(err error) *ErrorResponse {
	kind := social.Classify(err)
	return &ErrorResponse{Error: err.Error(), Kind: kind, Hint: kind.Hint()}
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	return renderTempl(c, Page(FormData{
		Topic:     defaultTopic,
		Platform:  social.PlatformTwitter,
		KeyStored: s.credentialStored(),
	}))
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// handleGenerate gestisce il form: risponde sempre con un frammento HTML
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	req := social.Request{
		Topic:    c.FormValue("topic"),
		Platform: c.FormValue("platform"),
		APIKey:   c.FormValue("api_key"),
	}

	resp, err := s.runner.Run(c.UserContext(), req)
	if err != nil {
		kind := social.Classify(err)
		log.Warn().
			Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Str("kind", string(kind)).
			Msg("Generation failed")
		return renderTempl(c, ErrorFragment(kind, err))
	}

	return renderTempl(c, ResultFragment(resp))
}

func (s *Server) handleCreatePost(c *fiber.Ctx) error {
	var req social.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
			Kind:  social.KindRequest,
			Hint:  social.KindRequest.Hint(),
		})
	}

	resp, err := s.runner.Run(c.UserContext(), req)
	if err != nil {
		body := newErrorResponse(err)
		return c.Status(statusFor(body.Kind)).JSON(body)
	}

	return c.JSON(resp)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	if s.opts.Collector == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "stats not enabled"})
	}
	return c.JSON(s.opts.Collector.Snapshot())
}

// handleWebSocket esegue una richiesta inviando gli eventi della pipeline
// man mano; la chiusura della connessione annulla l'esecuzione
func (s *Server) handleWebSocket(c *websocket.Conn) {
	defer c.Close()

	var req social.Request
	if err := c.ReadJSON(&req); err != nil {
		_ = c.WriteJSON(Message{Type: "error", Error: &ErrorResponse{
			Error: "invalid request message",
			Kind:  social.KindRequest,
			Hint:  social.KindRequest.Hint(),
		}})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Il client non invia altro: una lettura fallita significa disconnessione
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	progress := chaining.ObserverFunc(func(e chaining.Event) {
		if err := c.WriteJSON(Message{Type: "event", Event: newEventPayload(e)}); err != nil {
			log.Debug().Err(err).Msg("Websocket write failed")
			cancel()
		}
	})

	resp, err := s.runner.Run(ctx, req, progress)
	if err != nil {
		_ = c.WriteJSON(Message{Type: "error", Error: newErrorResponse(err)})
		return
	}

	if err := c.WriteJSON(Message{Type: "result", Response: resp}); err != nil {
		log.Debug().Err(err).Msg("Websocket write failed")
	}
}
