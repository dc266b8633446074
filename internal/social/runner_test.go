package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/biodoia/goleapsocial/internal/chaining"
	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/biodoia/goleapsocial/internal/providers/openai"
	"github.com/biodoia/goleapsocial/internal/providers/providertest"
	"github.com/biodoia/goleapsocial/internal/stats"
	"github.com/biodoia/goleapsocial/internal/tools"
	"github.com/biodoia/goleapsocial/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "sk-test-key-123456"

type stubSearch struct {
	err error
}

func (s stubSearch) Name() string { return "stub" }

func (s stubSearch) Search(ctx context.Context, query string, count int) ([]tools.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []tools.SearchResult{{Title: "GenAI report", URL: "https://example.com", Snippet: "adoption doubled"}}, nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	posts []string
}

func (p *recordingPublisher) Publish(ctx context.Context, platform, content string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, platform+": "+content)
	return "posted", nil
}

func searchWith(p tools.SearchProvider) func(config.SearchConfig) tools.SearchResolution {
	return func(config.SearchConfig) tools.SearchResolution {
		return tools.SearchResolution{Provider: p}
	}
}

func newTestRunner(t *testing.T, f *providertest.CountingFactory, opts ...Option) *Runner {
	t.Helper()

	cfg := config.Default()
	opts = append([]Option{
		WithProviderFactory(f.Factory()),
		WithSearchResolver(searchWith(stubSearch{})),
	}, opts...)

	return NewRunner(cfg, opts...)
}

func TestRun_ResearchThenPost(t *testing.T) {
	p := providertest.New(providertest.Text("RESEARCH_OK"), providertest.Text("POST_OK"))
	f := &providertest.CountingFactory{Provider: p}

	resp, err := newTestRunner(t, f).Run(context.Background(), Request{
		Topic:    "Generative AI",
		Platform: "LinkedIn",
		APIKey:   testAPIKey,
	})
	require.NoError(t, err)

	assert.Equal(t, "POST_OK", resp.Post)
	assert.Equal(t, PlatformLinkedIn, resp.Platform)
	assert.NotEmpty(t, resp.RunID)
	assert.False(t, resp.Degraded)
	assert.Equal(t, 1, f.Calls(), "one provider per run")

	calls := p.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].Messages[1].Content, "Generative AI")
	assert.Contains(t, calls[1].Messages[1].Content, "LinkedIn")
	assert.Contains(t, calls[1].Messages[1].Content, "RESEARCH_OK")
}

func TestRun_MissingCredentialIsConfigurationError(t *testing.T) {
	for _, key := range []string{"", "   ", "short", "sk bad key with spaces"} {
		t.Run(key, func(t *testing.T) {
			f := &providertest.CountingFactory{Provider: providertest.New(providertest.Text("x"))}
			metrics := stats.NewMetrics("")

			_, err := newTestRunner(t, f, WithMetrics(metrics)).Run(context.Background(), Request{
				Topic:    "Generative AI",
				Platform: "LinkedIn",
				APIKey:   key,
			})
			require.Error(t, err)

			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Equal(t, KindConfiguration, Classify(err))
			assert.Equal(t, 0, f.Calls(), "no provider is constructed without a valid credential")
			assert.Empty(t, f.Provider.(*providertest.Scripted).Calls())
		})
	}
}

func TestRun_RejectedCredentialIsConfigurationError(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "Bearer sk-revoked-123456", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.LLM.BaseURL = srv.URL
	runner := NewRunner(cfg,
		WithProviderFactory(openai.NewFactory()),
		WithSearchResolver(searchWith(stubSearch{})),
	)

	resp, err := runner.Run(context.Background(), Request{
		Topic:    "Generative AI",
		Platform: "LinkedIn",
		APIKey:   "sk-revoked-123456",
	})
	assert.Nil(t, resp)
	require.Error(t, err)

	// la credenziale supera la validazione locale: il rifiuto arriva dal provider
	assert.Equal(t, int32(1), requests.Load())
	assert.ErrorIs(t, err, ErrPipelineFailed)
	assert.ErrorIs(t, err, openai.ErrInvalidAPIKey)
	assert.ErrorIs(t, err, providers.ErrUnauthorized)
	assert.Equal(t, KindConfiguration, Classify(err))
	assert.Equal(t, KindConfiguration.Hint(), Classify(err).Hint())
}

func TestRun_CredentialFromConfig(t *testing.T) {
	f := &providertest.CountingFactory{Provider: providertest.New(providertest.Text("RESEARCH_OK"), providertest.Text("POST_OK"))}

	cfg := config.Default()
	cfg.LLM.APIKey = testAPIKey
	runner := NewRunner(cfg, WithProviderFactory(f.Factory()), WithSearchResolver(searchWith(stubSearch{})))

	resp, err := runner.Run(context.Background(), Request{Topic: "Go", Platform: "Instagram"})
	require.NoError(t, err)
	assert.Equal(t, "POST_OK", resp.Post)
	assert.Equal(t, 1, f.Calls())
}

func TestRun_AllowDegraded(t *testing.T) {
	f := &providertest.CountingFactory{Provider: providertest.New()}

	cfg := config.Default()
	cfg.LLM.AllowDegraded = true
	runner := NewRunner(cfg,
		WithProviderFactory(f.Factory()),
		WithSearchResolver(func(config.SearchConfig) tools.SearchResolution {
			return tools.SearchResolution{Degraded: true, Reason: tools.ErrSearchDisabled}
		}),
	)

	resp, err := runner.Run(context.Background(), Request{Topic: "Go", Platform: "LinkedIn"})
	require.NoError(t, err)

	assert.True(t, resp.Degraded)
	assert.Len(t, resp.DegradedReasons, 2)
	assert.True(t, strings.HasPrefix(resp.Post, providers.DegradedResponsePrefix))
	assert.Equal(t, 0, f.Calls())
}

func TestRun_SearchFailureStillCompletes(t *testing.T) {
	p := providertest.New(
		providertest.Call("call_1", tools.SearchToolName, `{"query":"generative ai"}`),
		providertest.Text("RESEARCH_OK"),
		providertest.Text("POST_OK"),
	)
	f := &providertest.CountingFactory{Provider: p}

	runner := newTestRunner(t, f, WithSearchResolver(searchWith(stubSearch{err: errors.New("network unreachable")})))

	resp, err := runner.Run(context.Background(), Request{Topic: "Generative AI", Platform: "LinkedIn", APIKey: testAPIKey})
	require.NoError(t, err)
	assert.Equal(t, "POST_OK", resp.Post)

	msgs := p.Calls()[1].Messages
	toolReply := msgs[len(msgs)-1]
	assert.Equal(t, providers.RoleTool, toolReply.Role)
	assert.True(t, strings.HasPrefix(toolReply.Content, tools.SearchErrorPrefix))
	assert.Contains(t, toolReply.Content, "network unreachable")
}

func TestRun_WriterPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	p := providertest.New(
		providertest.Text("RESEARCH_OK"),
		providertest.Call("call_1", tools.PostToolName, `{"content":"Short post #AI"}`),
		providertest.Text("Short post #AI"),
	)
	f := &providertest.CountingFactory{Provider: p}

	resp, err := newTestRunner(t, f, WithPublisher(pub)).Run(context.Background(), Request{
		Topic: "AI", Platform: "twitter", APIKey: testAPIKey,
	})
	require.NoError(t, err)

	assert.Equal(t, "Short post #AI", resp.Post)
	assert.Equal(t, []string{"Twitter/X: Short post #AI"}, pub.posts)
}

func TestRun_Idempotent(t *testing.T) {
	run := func() string {
		p := providertest.New(providertest.Text("RESEARCH_OK"), providertest.Text("POST_OK"))
		f := &providertest.CountingFactory{Provider: p}

		resp, err := newTestRunner(t, f).Run(context.Background(), Request{
			Topic: "Generative AI", Platform: "LinkedIn", APIKey: testAPIKey,
		})
		require.NoError(t, err)
		return resp.Post
	}

	assert.Equal(t, run(), run())
}

func TestRun_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"empty topic", Request{Topic: "  ", Platform: "LinkedIn", APIKey: testAPIKey}},
		{"long topic", Request{Topic: strings.Repeat("a", 201), Platform: "LinkedIn", APIKey: testAPIKey}},
		{"unknown platform", Request{Topic: "Go", Platform: "MySpace", APIKey: testAPIKey}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &providertest.CountingFactory{Provider: providertest.New(providertest.Text("x"))}

			_, err := newTestRunner(t, f).Run(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Equal(t, KindRequest, Classify(err))
			assert.Equal(t, 0, f.Calls())
		})
	}
}

func TestRun_PipelineFailure(t *testing.T) {
	boom := errors.New("upstream 503")
	f := &providertest.CountingFactory{Provider: providertest.New(providertest.Text("RESEARCH_OK"), providertest.Fail(boom))}

	var events []chaining.EventType
	obs := chaining.ObserverFunc(func(e chaining.Event) { events = append(events, e.Type) })

	resp, err := newTestRunner(t, f).Run(context.Background(), Request{
		Topic: "Go", Platform: "LinkedIn", APIKey: testAPIKey,
	}, obs)
	assert.Nil(t, resp)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrPipelineFailed)
	assert.ErrorIs(t, err, chaining.ErrTaskFailed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindPipeline, Classify(err))
	assert.Equal(t, chaining.EventPipelineFailed, events[len(events)-1])
}

func TestRun_ConcurrentRunsAreIsolated(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]string, 4)
	errs := make([]error, 4)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := providertest.New(providertest.Text("RESEARCH_OK"), providertest.Text("POST_OK"))
			runner := newTestRunner(t, &providertest.CountingFactory{Provider: p})

			resp, err := runner.Run(context.Background(), Request{Topic: "Go", Platform: "LinkedIn", APIKey: testAPIKey})
			errs[i] = err
			if err == nil {
				results[i] = resp.RunID
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := range results {
		require.NoError(t, errs[i])
		assert.False(t, seen[results[i]], "run ids are unique")
		seen[results[i]] = true
	}
}

func TestClassify(t *testing.T) {
	rejected := fmt.Errorf("%w: %w", ErrPipelineFailed,
		fmt.Errorf("agent %q: model call failed: %w", "Research Analyst", providers.ErrUnauthorized))

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"request", fmt.Errorf("%w: topic is required", ErrInvalidRequest), KindRequest},
		{"missing key", fmt.Errorf("%w: %w", ErrConfiguration, providers.ErrMissingAPIKey), KindConfiguration},
		{"rejected key", rejected, KindConfiguration},
		{"task failure", fmt.Errorf("%w: %w", ErrPipelineFailed, errors.New("upstream 503")), KindPipeline},
		{"unknown", errors.New("unknown"), KindPipeline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}

	assert.NotEqual(t, KindConfiguration.Hint(), KindPipeline.Hint())
}
