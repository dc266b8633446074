// Package providertest fornisce provider LLM deterministici per i test.
package providertest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/biodoia/goleapsocial/pkg/config"
)

// Reply è una risposta programmata del provider
type Reply struct {
	Content   string
	ToolCalls []providers.ToolCall
	Usage     providers.Usage
	Err       error
}

// Text crea una risposta testuale
func Text(content string) Reply {
	return Reply{Content: content, Usage: providers.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}
}

// Call crea una risposta con una singola tool call
func Call(id, tool, arguments string) Reply {
	return Reply{ToolCalls: []providers.ToolCall{{
		ID:       id,
		Type:     "function",
		Function: providers.FunctionCall{Name: tool, Arguments: arguments},
	}}}
}

// Fail crea una risposta che fallisce con err
func Fail(err error) Reply {
	return Reply{Err: err}
}

// Scripted restituisce le risposte in ordine; finite le risposte ripete l'ultima
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	calls   []providers.ChatRequest
}

// New crea un provider programmato
func New(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

func (s *Scripted) Name() string { return "scripted" }

func (s *Scripted) HealthCheck(ctx context.Context) error { return nil }

func (s *Scripted) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	recorded := *req
	recorded.Messages = append([]providers.Message(nil), req.Messages...)
	s.calls = append(s.calls, recorded)
	n := len(s.calls) - 1
	s.mu.Unlock()

	if len(s.replies) == 0 {
		return nil, errors.New("providertest: no scripted replies")
	}
	if n >= len(s.replies) {
		n = len(s.replies) - 1
	}

	reply := s.replies[n]
	if reply.Err != nil {
		return nil, reply.Err
	}

	finish := "stop"
	if len(reply.ToolCalls) > 0 {
		finish = "tool_calls"
	}

	return &providers.ChatResponse{
		ID:    "scripted",
		Model: req.Model,
		Choices: []providers.Choice{{
			Message: providers.Message{
				Role:      providers.RoleAssistant,
				Content:   reply.Content,
				ToolCalls: reply.ToolCalls,
			},
			FinishReason: finish,
		}},
		Usage: reply.Usage,
	}, nil
}

// Calls restituisce le richieste ricevute
func (s *Scripted) Calls() []providers.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]providers.ChatRequest(nil), s.calls...)
}

// Handle avvolge p in un Handle live
func Handle(p providers.Provider) *providers.Handle {
	return &providers.Handle{
		Provider:    p,
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   3000,
	}
}

// CountingFactory restituisce sempre p e conta le invocazioni
type CountingFactory struct {
	Provider providers.Provider
	calls    atomic.Int32
}

// Factory restituisce la providers.Factory da passare al runner
func (f *CountingFactory) Factory() providers.Factory {
	return func(cfg config.LLMConfig, apiKey string) (providers.Provider, error) {
		f.calls.Add(1)
		return f.Provider, nil
	}
}

// Calls restituisce il numero di provider costruiti
func (f *CountingFactory) Calls() int {
	return int(f.calls.Load())
}
