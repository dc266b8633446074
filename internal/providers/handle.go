package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/biodoia/goleapsocial/pkg/config"
)

var (
	ErrMissingAPIKey = errors.New("missing API key")
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrUnauthorized viene avvolto dai client quando il provider rifiuta la credenziale
	ErrUnauthorized = errors.New("credential rejected by provider")
)

// Factory costruisce un provider live a partire dalla configurazione e dalla credenziale
type Factory func(cfg config.LLMConfig, apiKey string) (Provider, error)

// Handle è il modello linguistico assegnato agli agenti di una singola esecuzione.
//
// Un Handle è live oppure degradato: nel secondo caso Provider è un
// DegradedProvider e Reason spiega perché il provider reale non è disponibile.
type Handle struct {
	Provider    Provider
	Model       string
	Temperature float64
	MaxTokens   int

	Degraded bool
	Reason   error
}

// Open risolve la credenziale e costruisce il provider.
//
// Nessuna chiamata di rete viene eseguita: se la credenziale manca o è
// malformata la factory non viene invocata e l'Handle restituito è degradato.
// Un errore viene restituito solo se la factory stessa fallisce.
func Open(cfg config.LLMConfig, apiKey string, factory Factory) (*Handle, error) {
	h := &Handle{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	if err := ValidateAPIKey(apiKey); err != nil {
		h.Degraded = true
		h.Reason = err
		h.Provider = NewDegradedProvider(err)
		return h, nil
	}

	provider, err := factory(cfg, strings.TrimSpace(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	h.Provider = provider
	return h, nil
}

// ValidateAPIKey controlla il formato della credenziale senza contattare il provider
func ValidateAPIKey(apiKey string) error {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return ErrMissingAPIKey
	}

	if len(key) < 8 {
		return fmt.Errorf("%w: too short", ErrInvalidAPIKey)
	}

	for _, r := range key {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return fmt.Errorf("%w: contains whitespace or control characters", ErrInvalidAPIKey)
		}
	}

	return nil
}

// Request prepara una ChatRequest con i parametri del modello
func (h *Handle) Request(messages []Message, tools []Tool) *ChatRequest {
	temperature := h.Temperature
	maxTokens := h.MaxTokens

	req := &ChatRequest{
		Model:       h.Model,
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}

	if len(tools) > 0 {
		req.Tools = tools
		req.ToolChoice = "auto"
	}

	return req
}

// DegradedProvider risponde con testo etichettato senza contattare alcun servizio
type DegradedProvider struct {
	reason error
}

// NewDegradedProvider crea un provider in degraded mode
func NewDegradedProvider(reason error) *DegradedProvider {
	return &DegradedProvider{reason: reason}
}

// Name restituisce il nome del provider
func (p *DegradedProvider) Name() string {
	return "degraded"
}

// Reason restituisce il motivo del degraded mode
func (p *DegradedProvider) Reason() error {
	return p.reason
}

// HealthCheck fallisce sempre: il provider non è un servizio reale
func (p *DegradedProvider) HealthCheck(ctx context.Context) error {
	return fmt.Errorf("degraded mode: %w", p.reason)
}

// ChatCompletion restituisce una risposta etichettata con l'ultimo prompt utente
func (p *DegradedProvider) ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			prompt = req.Messages[i].Content
			break
		}
	}

	content := fmt.Sprintf("%s %v]\nPrompt: %s", DegradedResponsePrefix, p.reason, prompt)

	return &ChatResponse{
		ID:    "degraded",
		Model: req.Model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      Message{Role: RoleAssistant, Content: content},
				FinishReason: "stop",
			},
		},
	}, nil
}

// DegradedResponsePrefix marca ogni risposta prodotta in degraded mode
const DegradedResponsePrefix = "[DEGRADED LLM RESPONSE:"
