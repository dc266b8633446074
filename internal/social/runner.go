package social

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/biodoia/goleapsocial/internal/chaining"
	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/biodoia/goleapsocial/internal/providers/openai"
	"github.com/biodoia/goleapsocial/internal/stats"
	"github.com/biodoia/goleapsocial/internal/tools"
	"github.com/biodoia/goleapsocial/pkg/cache"
	"github.com/biodoia/goleapsocial/pkg/config"
	"github.com/rs/zerolog/log"
)

// Request contiene l'input di un'esecuzione
type Request struct {
	Topic    string `json:"topic"`
	Platform string `json:"platform"`
	// Se vuota viene usata llm.api_key dalla configurazione
	APIKey string `json:"api_key,omitempty"`
}

// Response contiene il post generato
type Response struct {
	RunID           string          `json:"run_id"`
	Post            string          `json:"post"`
	Platform        Platform        `json:"platform"`
	Degraded        bool            `json:"degraded"`
	DegradedReasons []string        `json:"degraded_reasons,omitempty"`
	Duration        time.Duration   `json:"duration_ns"`
	Usage           providers.Usage `json:"usage"`
}

// Runner costruisce ed esegue una pipeline nuova per ogni richiesta.
// Condivide solo dipendenze read-only o sincronizzate internamente.
type Runner struct {
	cfg       *config.Config
	factory   providers.Factory
	publisher tools.Publisher
	resolve   func(config.SearchConfig) tools.SearchResolution
	cache     cache.Cache
	metrics   *stats.Metrics
	observers []chaining.Observer
}

// Option configura un Runner
type Option func(*Runner)

// WithProviderFactory sostituisce la factory del client LLM
func WithProviderFactory(f providers.Factory) Option {
	return func(r *Runner) { r.factory = f }
}

// WithPublisher sostituisce il publisher usato da post_content
func WithPublisher(p tools.Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithSearchResolver sostituisce la selezione del backend di ricerca
func WithSearchResolver(fn func(config.SearchConfig) tools.SearchResolution) Option {
	return func(r *Runner) { r.resolve = fn }
}

// WithCache abilita il cache dei risultati di ricerca
func WithCache(c cache.Cache) Option {
	return func(r *Runner) { r.cache = c }
}

// WithMetrics registra metriche Prometheus per ogni esecuzione
func WithMetrics(m *stats.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
		if m != nil {
			r.observers = append(r.observers, m)
		}
	}
}

// WithObserver aggiunge un observer a tutte le esecuzioni
func WithObserver(o chaining.Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// NewRunner crea un Runner; di default usa il client OpenAI e il MockPublisher
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		factory:   openai.NewFactory(),
		publisher: tools.MockPublisher{},
		resolve:   tools.ResolveSearch,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run valida la richiesta, costruisce la crew ed esegue la pipeline.
//
// Gli errori sono classificabili con Classify: ErrInvalidRequest per input non
// valido, ErrConfiguration per credenziali mancanti (prima di qualsiasi
// chiamata di rete), ErrPipelineFailed per il fallimento di un task. Una
// credenziale rifiutata dal provider resta ErrPipelineFailed ma Classify la
// riporta come KindConfiguration.
func (r *Runner) Run(ctx context.Context, req Request, observers ...chaining.Observer) (*Response, error) {
	topic, platform, err := r.validate(req)
	if err != nil {
		r.reject()
		return nil, err
	}

	apiKey := req.APIKey
	if strings.TrimSpace(apiKey) == "" {
		apiKey = r.cfg.LLM.APIKey
	}

	handle, err := providers.Open(r.cfg.LLM, apiKey, r.factory)
	if err != nil {
		r.reject()
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	resp := &Response{Platform: platform}

	if handle.Degraded {
		if !r.cfg.LLM.AllowDegraded {
			r.reject()
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, handle.Reason)
		}
		resp.Degraded = true
		resp.DegradedReasons = append(resp.DegradedReasons, "llm: "+handle.Reason.Error())
	}

	search := r.resolve(r.cfg.Search)
	if search.Degraded {
		resp.Degraded = true
		resp.DegradedReasons = append(resp.DegradedReasons, "search: "+search.Reason.Error())
	}

	registry, err := r.buildRegistry(search, platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipelineFailed, err)
	}

	all := append(append([]chaining.Observer(nil), r.observers...), observers...)
	pipeline, err := BuildPipeline(topic, platform, CrewDeps{
		LLM:           handle,
		Registry:      registry,
		MaxIterations: r.cfg.Pipeline.MaxIterations,
	}, all...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipelineFailed, err)
	}

	logger := log.With().
		Str("run_id", pipeline.ID()).
		Str("platform", string(platform)).
		Logger()

	logger.Info().
		Bool("degraded", resp.Degraded).
		Strs("tools", registry.Names()).
		Msg("Starting social run")

	result, err := pipeline.Execute(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipelineFailed, err)
	}

	if r.metrics != nil {
		r.metrics.RecordUsage(result.Usage)
	}

	resp.RunID = result.PipelineID
	resp.Post = result.Output
	resp.Duration = result.Duration
	resp.Usage = result.Usage

	logger.Info().
		Dur("duration", result.Duration).
		Int("post_length", utf8.RuneCountInString(result.Output)).
		Msg("Social run completed")

	return resp, nil
}

func (r *Runner) validate(req Request) (string, Platform, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return "", "", fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}

	if limit := r.cfg.Pipeline.MaxTopicLen; limit > 0 && utf8.RuneCountInString(topic) > limit {
		return "", "", fmt.Errorf("%w: topic longer than %d characters", ErrInvalidRequest, limit)
	}

	platform, err := ParsePlatform(req.Platform)
	if err != nil {
		return "", "", err
	}

	return topic, platform, nil
}

func (r *Runner) buildRegistry(search tools.SearchResolution, platform Platform) (*tools.Registry, error) {
	var mw []tools.Middleware
	if r.metrics != nil {
		mw = append(mw, r.metrics.ToolMiddleware())
	}

	registry := tools.NewRegistry(mw...)

	err := registry.Register(tools.NewSearchTool(search, tools.SearchOptions{
		MaxResults: r.cfg.Search.MaxResults,
		Timeout:    r.cfg.Search.Timeout,
		Cache:      r.cache,
		CacheTTL:   r.cfg.Cache.TTL,
	}))
	if err != nil {
		return nil, err
	}

	if err := registry.Register(tools.NewPostTool(string(platform), r.publisher)); err != nil {
		return nil, err
	}

	return registry, nil
}

func (r *Runner) reject() {
	if r.metrics != nil {
		r.metrics.RecordRejected()
	}
}
