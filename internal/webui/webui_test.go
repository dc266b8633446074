package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/biodoia/goleapsocial/internal/chaining"
	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/biodoia/goleapsocial/internal/providers/providertest"
	"github.com/biodoia/goleapsocial/internal/social"
	"github.com/biodoia/goleapsocial/internal/stats"
	"github.com/biodoia/goleapsocial/internal/tools"
	"github.com/biodoia/goleapsocial/pkg/config"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "sk-test-key-123456"

type stubSearch struct{}

func (stubSearch) Name() string { return "stub" }

func (stubSearch) Search(ctx context.Context, query string, count int) ([]tools.SearchResult, error) {
	return []tools.SearchResult{{Title: "report", URL: "https://example.com", Snippet: "snippet"}}, nil
}

type testEnv struct {
	server    *Server
	activity  *ActivityHub
	factory   *providertest.CountingFactory
	metrics   *stats.Metrics
	collector *stats.Collector
}

func newTestEnv(t *testing.T, cfg *config.Config, replies ...providertest.Reply) *testEnv {
	t.Helper()

	if len(replies) == 0 {
		replies = []providertest.Reply{providertest.Text("RESEARCH_OK"), providertest.Text("POST_OK")}
	}
	return newTestEnvWithProvider(t, cfg, providertest.New(replies...))
}

func newTestEnvWithProvider(t *testing.T, cfg *config.Config, p providers.Provider) *testEnv {
	t.Helper()

	if cfg == nil {
		cfg = config.Default()
	}

	env := &testEnv{
		factory:   &providertest.CountingFactory{Provider: p},
		metrics:   stats.NewMetrics("goleapsocial"),
		collector: stats.NewCollector(),
		activity:  NewActivityHub(),
	}
	go env.activity.Run()
	t.Cleanup(env.activity.Stop)

	runner := social.NewRunner(cfg,
		social.WithProviderFactory(env.factory.Factory()),
		social.WithSearchResolver(func(config.SearchConfig) tools.SearchResolution {
			return tools.SearchResolution{Provider: stubSearch{}}
		}),
		social.WithMetrics(env.metrics),
		social.WithObserver(env.collector),
		social.WithObserver(env.activity),
	)

	env.server = NewServer(cfg, runner, Options{
		Metrics:   env.metrics,
		Collector: env.collector,
		Activity:  env.activity,
	})
	t.Cleanup(func() { _ = env.server.Shutdown(context.Background()) })

	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := e.server.App().Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func jsonRequest(t *testing.T, v interface{}) *http.Request {
	t.Helper()

	body, err := json.Marshal(v)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")

	assert.Contains(t, body, `type="password"`)
	assert.Contains(t, body, `value="Generative AI"`)
	assert.Contains(t, body, "Generate &amp; Post")
	for _, p := range social.Platforms() {
		assert.Contains(t, body, ">"+string(p)+"</option>")
	}
}

func TestGenerate_Success(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, formRequest(url.Values{
		"topic":    {"Generative AI"},
		"platform": {"LinkedIn"},
		"api_key":  {testAPIKey},
	}))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Task Complete!")
	assert.Contains(t, body, "POST_OK")
	assert.Contains(t, body, "LinkedIn")
}

func TestGenerate_MissingKey(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, formRequest(url.Values{
		"topic":    {"Generative AI"},
		"platform": {"LinkedIn"},
	}))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `data-kind="configuration"`)
	assert.Contains(t, body, social.KindConfiguration.Hint())
	assert.Zero(t, env.factory.Calls())
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, jsonRequest(t, social.Request{
		Topic:    "Generative AI",
		Platform: "Twitter/X",
		APIKey:   testAPIKey,
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var out social.Response
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "POST_OK", out.Post)
	assert.Equal(t, social.PlatformTwitter, out.Platform)
	assert.NotEmpty(t, out.RunID)
}

func TestCreatePost_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		req     social.Request
		replies []providertest.Reply
		status  int
		kind    social.Kind
	}{
		{
			name:   "unknown platform",
			req:    social.Request{Topic: "Go", Platform: "MySpace", APIKey: testAPIKey},
			status: http.StatusBadRequest,
			kind:   social.KindRequest,
		},
		{
			name:   "empty topic",
			req:    social.Request{Topic: "  ", Platform: "LinkedIn", APIKey: testAPIKey},
			status: http.StatusBadRequest,
			kind:   social.KindRequest,
		},
		{
			name:   "missing credential",
			req:    social.Request{Topic: "Go", Platform: "LinkedIn"},
			status: http.StatusPreconditionFailed,
			kind:   social.KindConfiguration,
		},
		{
			name:    "rejected credential",
			req:     social.Request{Topic: "Go", Platform: "LinkedIn", APIKey: "sk-revoked-123456"},
			replies: []providertest.Reply{providertest.Fail(fmt.Errorf("invalid API key: %w", providers.ErrUnauthorized))},
			status:  http.StatusPreconditionFailed,
			kind:    social.KindConfiguration,
		},
		{
			name:    "model failure",
			req:     social.Request{Topic: "Go", Platform: "LinkedIn", APIKey: testAPIKey},
			replies: []providertest.Reply{providertest.Fail(errors.New("upstream down"))},
			status:  http.StatusBadGateway,
			kind:    social.KindPipeline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, tt.replies...)

			resp, body := env.do(t, jsonRequest(t, tt.req))
			assert.Equal(t, tt.status, resp.StatusCode)

			var out ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(body), &out))
			assert.Equal(t, tt.kind, out.Kind)
			assert.NotEmpty(t, out.Error)
			assert.Equal(t, tt.kind.Hint(), out.Hint)
		})
	}
}

func TestCreatePost_InvalidBody(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader("{not json"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, _ := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, jsonRequest(t, social.Request{Topic: "Go", Platform: "LinkedIn", APIKey: testAPIKey}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap stats.Snapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	assert.Equal(t, int64(1), snap.TotalRuns)
	assert.Equal(t, int64(1), snap.SuccessCount)

	resp, body = env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "goleapsocial_pipeline_runs_total")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"ok"`)
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestGenerate_RateLimited(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimit = 1
	env := newTestEnv(t, cfg)

	form := url.Values{"topic": {"Go"}, "platform": {"LinkedIn"}, "api_key": {testAPIKey}}

	resp, _ := env.do(t, formRequest(form))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, formRequest(form))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestFragments_EscapeOutput(t *testing.T) {
	var buf bytes.Buffer
	err := ResultFragment(&social.Response{
		RunID:    "run-1",
		Post:     "<script>alert(1)</script>",
		Platform: social.PlatformLinkedIn,
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")

	buf.Reset()
	err = ErrorFragment(social.KindPipeline, errors.New(`bad "<b>"`)).Render(context.Background(), &buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "<b>")
	assert.Contains(t, buf.String(), social.KindPipeline.Hint())
}

func TestEventPayload(t *testing.T) {
	p := newEventPayload(chaining.Event{
		Type:       chaining.EventTaskFailed,
		PipelineID: "run-1",
		Index:      1,
		Total:      2,
		Task:       "writing",
		Err:        errors.New("boom"),
	})

	assert.Equal(t, chaining.EventTaskFailed, p.Type)
	assert.Equal(t, "run-1", p.RunID)
	assert.Equal(t, "boom", p.Error)
}
