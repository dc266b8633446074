package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/biodoia/goleapsocial/internal/providers/providertest"
	"github.com/biodoia/goleapsocial/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingTool(name string, calls *[]string) tools.Tool {
	return tools.Tool{
		Name:        name,
		Description: name + " tool",
		Argument:    "input",
		Fn: func(ctx context.Context, input string) string {
			*calls = append(*calls, input)
			return name + " result for " + input
		},
	}
}

func newAgent(t *testing.T, p providers.Provider, ts ...tools.Tool) *Agent {
	t.Helper()

	a, err := New(Config{
		Name:      "Research Analyst",
		Role:      "Investigates and gathers latest online information.",
		Goal:      "Provide accurate, concise research.",
		Backstory: "You are a detail-oriented research expert.",
		LLM:       providertest.Handle(p),
		Tools:     ts,
	})
	require.NoError(t, err)
	return a
}

func newTask(t *testing.T, a *Agent) *Task {
	t.Helper()

	task, err := NewTask(TaskConfig{
		Name:           "research",
		Description:    "Research Generative AI",
		ExpectedOutput: "Bullet points.",
		Agent:          a,
	})
	require.NoError(t, err)
	return task
}

func TestNew_Validation(t *testing.T) {
	handle := providertest.Handle(providertest.New())
	dup := tools.Tool{Name: "x", Argument: "a", Fn: func(context.Context, string) string { return "" }}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing name", Config{Role: "r", Goal: "g", LLM: handle}},
		{"missing role", Config{Name: "n", Goal: "g", LLM: handle}},
		{"missing goal", Config{Name: "n", Role: "r", LLM: handle}},
		{"missing llm", Config{Name: "n", Role: "r", Goal: "g"}},
		{"duplicate tool", Config{Name: "n", Role: "r", Goal: "g", LLM: handle, Tools: []tools.Tool{dup, dup}}},
		{"negative iterations", Config{Name: "n", Role: "r", Goal: "g", LLM: handle, MaxIterations: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidAgent)
		})
	}
}

func TestAgent_Accessors(t *testing.T) {
	var calls []string
	a := newAgent(t, providertest.New(), recordingTool("web_search", &calls))

	assert.Equal(t, "Research Analyst", a.Name())
	assert.Equal(t, []string{"web_search"}, a.ToolNames())
	assert.True(t, a.HasTool("web_search"))
	assert.False(t, a.HasTool("post_content"))
	assert.False(t, a.Degraded())

	// ToolNames restituisce una copia
	names := a.ToolNames()
	names[0] = "changed"
	assert.Equal(t, []string{"web_search"}, a.ToolNames())
}

func TestExecute_PlainAnswer(t *testing.T) {
	p := providertest.New(providertest.Text("  RESEARCH_OK  "))
	a := newAgent(t, p)
	task := newTask(t, a)
	require.NoError(t, task.SetContext("Generative AI"))

	out, err := task.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "RESEARCH_OK", out.Raw)
	assert.Equal(t, 15, out.Usage.TotalTokens)
	assert.Same(t, out, task.Output())

	calls := p.Calls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Tools, "an agent without tools advertises none")

	system := calls[0].Messages[0].Content
	user := calls[0].Messages[1].Content
	assert.Contains(t, system, "You are Research Analyst.")
	assert.Contains(t, system, "Your personal goal is: Provide accurate, concise research.")
	assert.Contains(t, user, "Current Task: Research Generative AI")
	assert.Contains(t, user, "expected criteria for your final answer: Bullet points.")
	assert.Contains(t, user, "This is the context you're working with:\nGenerative AI")
}

func TestExecute_ToolLoop(t *testing.T) {
	var searches []string
	p := providertest.New(
		providertest.Call("call_1", "web_search", `{"input":"generative ai trends"}`),
		providertest.Text("RESEARCH_OK"),
	)
	a := newAgent(t, p, recordingTool("web_search", &searches))

	out, err := newTask(t, a).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "RESEARCH_OK", out.Raw)
	assert.Equal(t, 1, out.ToolCalls)
	assert.Equal(t, []string{"generative ai trends"}, searches)

	calls := p.Calls()
	require.Len(t, calls, 2)
	require.Len(t, calls[0].Tools, 1)
	assert.Equal(t, "auto", calls[0].ToolChoice)

	second := calls[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, providers.RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Equal(t, "web_search result for generative ai trends", last.Content)
}

func TestExecute_ToolOutsideSetIsRejected(t *testing.T) {
	var searches, posts []string
	p := providertest.New(
		providertest.Call("call_1", "post_content", `{"input":"sneaky"}`),
		providertest.Text("done"),
	)
	a := newAgent(t, p, recordingTool("web_search", &searches))

	out, err := newTask(t, a).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", out.Raw)
	assert.Empty(t, posts)
	assert.Empty(t, searches)

	msgs := p.Calls()[1].Messages
	reply := msgs[len(msgs)-1].Content
	assert.True(t, strings.HasPrefix(reply, ToolErrorPrefix))
	assert.Contains(t, reply, `tool "post_content" is not available to agent "Research Analyst"`)
}

func TestExecute_MaxIterationsForcesFinalAnswer(t *testing.T) {
	var searches []string
	p := providertest.New(
		providertest.Call("c1", "web_search", `{"input":"a"}`),
		providertest.Call("c2", "web_search", `{"input":"b"}`),
		providertest.Text("FINAL"),
	)

	a, err := New(Config{
		Name:          "Researcher",
		Role:          "r",
		Goal:          "g",
		LLM:           providertest.Handle(p),
		Tools:         []tools.Tool{recordingTool("web_search", &searches)},
		MaxIterations: 2,
	})
	require.NoError(t, err)

	out, err := newTask(t, a).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "FINAL", out.Raw)
	assert.Equal(t, []string{"a", "b"}, searches)

	calls := p.Calls()
	require.Len(t, calls, 3)
	assert.Nil(t, calls[2].Tools, "the forced final call advertises no tools")
	lastMsg := calls[2].Messages[len(calls[2].Messages)-1]
	assert.Equal(t, finalAnswerPrompt, lastMsg.Content)
}

func TestExecute_EmptyAnswer(t *testing.T) {
	a := newAgent(t, providertest.New(providertest.Text("   ")))

	_, err := newTask(t, a).Execute(context.Background())
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestExecute_ModelError(t *testing.T) {
	boom := errors.New("upstream down")
	a := newAgent(t, providertest.New(providertest.Fail(boom)))

	task := newTask(t, a)
	_, err := task.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, task.Output())
}

func TestExecute_CancelledContext(t *testing.T) {
	p := providertest.New(providertest.Text("never"))
	a := newAgent(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTask(t, a).Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.Calls())
}

func TestExecute_DegradedHandle(t *testing.T) {
	handle := &providers.Handle{
		Provider: providers.NewDegradedProvider(providers.ErrMissingAPIKey),
		Model:    "gpt-4o-mini",
		Degraded: true,
		Reason:   providers.ErrMissingAPIKey,
	}

	a, err := New(Config{Name: "Writer", Role: "r", Goal: "g", LLM: handle})
	require.NoError(t, err)
	assert.True(t, a.Degraded())

	out, err := newTask(t, a).Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.Raw, providers.DegradedResponsePrefix))
}
