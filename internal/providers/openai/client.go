package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/biodoia/goleapsocial/pkg/config"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrModelNotFound      = errors.New("model not found")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrEmptyResponse      = errors.New("empty response")
)

// Client implementa un client OpenAI-compatible
type Client struct {
	*providers.BaseProvider
	httpClient *resty.Client
}

// NewClient crea un nuovo client OpenAI
func NewClient(name, baseURL, apiKey string) *Client {
	client := &Client{
		BaseProvider: providers.NewBaseProvider(name, baseURL, apiKey),
		httpClient:   resty.New(),
	}

	client.configureHTTPClient()
	return client
}

// NewFactory restituisce la factory usata per costruire il client a ogni esecuzione
func NewFactory() providers.Factory {
	return func(cfg config.LLMConfig, apiKey string) (providers.Provider, error) {
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: missing base URL", ErrInvalidRequest)
		}

		client := NewClient("openai", cfg.BaseURL, apiKey)
		client.SetTimeout(cfg.Timeout)
		return client, nil
	}
}

// SetTimeout imposta il timeout delle richieste sul client HTTP
func (c *Client) SetTimeout(timeout time.Duration) {
	c.BaseProvider.SetTimeout(timeout)
	c.httpClient.SetTimeout(c.GetTimeout())
}

// configureHTTPClient configura il client HTTP; i retry sono disabilitati
func (c *Client) configureHTTPClient() {
	c.httpClient.
		SetBaseURL(c.GetBaseURL()).
		SetTimeout(c.GetTimeout()).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	// Set API key if present
	if c.GetAPIKey() != "" {
		c.httpClient.SetAuthToken(c.GetAPIKey())
	}

	// Add request/response logging
	c.httpClient.OnBeforeRequest(func(client *resty.Client, req *resty.Request) error {
		log.Debug().
			Str("provider", c.Name()).
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("LLM API request")
		return nil
	})

	c.httpClient.OnAfterResponse(func(client *resty.Client, resp *resty.Response) error {
		log.Debug().
			Str("provider", c.Name()).
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("LLM API response")
		return nil
	})
}

// ChatCompletion esegue una richiesta di chat completion
func (c *Client) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	// Converti la richiesta generica in formato OpenAI
	openaiReq := c.convertToOpenAIRequest(req)

	var openaiResp ChatCompletionResponse
	var errResp ErrorResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(openaiReq).
		SetResult(&openaiResp).
		SetError(&errResp).
		Post("/v1/chat/completions")

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	// Handle errors
	if resp.IsError() {
		return nil, c.handleErrorResponse(resp.StatusCode(), &errResp)
	}

	if len(openaiResp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	// Converti la risposta OpenAI in formato generico
	return c.convertFromOpenAIResponse(&openaiResp), nil
}

// HealthCheck verifica credenziale e raggiungibilità tramite /v1/models
func (c *Client) HealthCheck(ctx context.Context) error {
	var result ModelsResponse
	var errResp ErrorResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&errResp).
		Get("/v1/models")

	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if resp.IsError() {
		return c.handleErrorResponse(resp.StatusCode(), &errResp)
	}

	return nil
}

// convertToOpenAIRequest converte la richiesta generica
func (c *Client) convertToOpenAIRequest(req *providers.ChatRequest) *ChatCompletionRequest {
	messages := make([]ChatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		m := ChatMessage{
			Role:       msg.Role,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}

		// Un messaggio assistant con sole tool calls non ha contenuto
		if msg.Content != "" || len(msg.ToolCalls) == 0 {
			content := msg.Content
			m.Content = &content
		}

		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}

		messages = append(messages, m)
	}

	openaiReq := &ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		ToolChoice:  req.ToolChoice,
	}

	for _, tool := range req.Tools {
		openaiReq.Tools = append(openaiReq.Tools, Tool{
			Type: "function",
			Function: Function{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		})
	}

	return openaiReq
}

// convertFromOpenAIResponse converte la risposta in formato generico
func (c *Client) convertFromOpenAIResponse(resp *ChatCompletionResponse) *providers.ChatResponse {
	choices := make([]providers.Choice, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		msg := providers.Message{
			Role: choice.Message.Role,
		}
		if choice.Message.Content != nil {
			msg.Content = *choice.Message.Content
		}

		for _, tc := range choice.Message.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, providers.ToolCall{
				ID:   tc.ID,
				Type: tc.Type,
				Function: providers.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}

		choices = append(choices, providers.Choice{
			Index:        choice.Index,
			Message:      msg,
			FinishReason: choice.FinishReason,
		})
	}

	return &providers.ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: choices,
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

// handleErrorResponse mappa gli status HTTP sugli errori sentinella
func (c *Client) handleErrorResponse(statusCode int, errResp *ErrorResponse) error {
	var baseErr error
	if errResp.Error.Message == "" {
		baseErr = fmt.Errorf("API error: status %d", statusCode)
	} else {
		baseErr = fmt.Errorf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
	}

	switch statusCode {
	case 401, 403:
		return fmt.Errorf("%w: %w: %v", ErrInvalidAPIKey, providers.ErrUnauthorized, baseErr)
	case 429:
		return fmt.Errorf("%w: %v", ErrRateLimitExceeded, baseErr)
	case 404:
		return fmt.Errorf("%w: %v", ErrModelNotFound, baseErr)
	case 400:
		return fmt.Errorf("%w: %v", ErrInvalidRequest, baseErr)
	case 502, 503, 504:
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, baseErr)
	default:
		return baseErr
	}
}
