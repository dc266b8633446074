package chaining

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/biodoia/goleapsocial/internal/agents"
	"github.com/biodoia/goleapsocial/internal/providers/providertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder colleziona gli eventi emessi
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newTask(t *testing.T, name string, p *providertest.Scripted) *agents.Task {
	t.Helper()

	a, err := agents.New(agents.Config{
		Name: name + " agent",
		Role: "role",
		Goal: "goal",
		LLM:  providertest.Handle(p),
	})
	require.NoError(t, err)

	task, err := agents.NewTask(agents.TaskConfig{Name: name, Description: name + " description", Agent: a})
	require.NoError(t, err)
	return task
}

func TestNewPipeline_Validation(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.ErrorIs(t, err, ErrNoTasks)

	_, err = NewPipeline([]*agents.Task{nil})
	assert.ErrorIs(t, err, ErrInvalidPipeline)
}

func TestExecute_Sequential(t *testing.T) {
	research := providertest.New(providertest.Text("RESEARCH_OK"))
	writing := providertest.New(providertest.Text("POST_OK"))

	first := newTask(t, "research", research)
	second := newTask(t, "writing", writing)

	rec := &recorder{}
	p, err := NewPipeline([]*agents.Task{first, second}, rec)
	require.NoError(t, err)
	assert.Equal(t, StateConstructed, p.State())
	assert.NotEmpty(t, p.ID())

	res, err := p.Execute(context.Background(), "Generative AI")
	require.NoError(t, err)

	assert.Equal(t, "POST_OK", res.Output)
	assert.Equal(t, p.ID(), res.PipelineID)
	assert.Equal(t, 30, res.Usage.TotalTokens)
	assert.Equal(t, StateCompleted, p.State())

	ctx1, _ := first.Context()
	ctx2, _ := second.Context()
	assert.Equal(t, "Generative AI", ctx1)
	assert.Equal(t, "RESEARCH_OK", ctx2, "task 2 context is exactly task 1 output")

	// Il contesto arriva al modello del secondo task
	msgs := writing.Calls()[0].Messages
	assert.Contains(t, msgs[len(msgs)-1].Content, "RESEARCH_OK")

	assert.Equal(t, []EventType{
		EventPipelineStarted,
		EventTaskStarted, EventTaskCompleted,
		EventTaskStarted, EventTaskCompleted,
		EventPipelineCompleted,
	}, rec.types())
}

func TestExecute_OnlyOnce(t *testing.T) {
	p, err := NewPipeline([]*agents.Task{newTask(t, "only", providertest.New(providertest.Text("ok")))})
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), "input")
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), "input")
	assert.ErrorIs(t, err, ErrAlreadyExecuted)
	assert.Equal(t, StateCompleted, p.State())
}

func TestExecute_TaskFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	writing := providertest.New(providertest.Text("never"))

	first := newTask(t, "research", providertest.New(providertest.Fail(boom)))
	second := newTask(t, "writing", writing)

	rec := &recorder{}
	p, err := NewPipeline([]*agents.Task{first, second}, rec)
	require.NoError(t, err)

	res, err := p.Execute(context.Background(), "topic")
	assert.Nil(t, res, "no partial output")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrTaskFailed)
	assert.ErrorIs(t, err, boom)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, 0, taskErr.Index)
	assert.Equal(t, "research", taskErr.Task)

	assert.Equal(t, StateFailed, p.State())
	assert.Empty(t, writing.Calls(), "later tasks never run")

	_, set := second.Context()
	assert.False(t, set)

	assert.Equal(t, []EventType{
		EventPipelineStarted,
		EventTaskStarted, EventTaskFailed,
		EventPipelineFailed,
	}, rec.types())

	// Una pipeline fallita non può essere rieseguita
	_, err = p.Execute(context.Background(), "topic")
	assert.ErrorIs(t, err, ErrAlreadyExecuted)
}

func TestExecute_CancelledContext(t *testing.T) {
	p, err := NewPipeline([]*agents.Task{newTask(t, "only", providertest.New(providertest.Text("ok")))})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Execute(ctx, "input")
	assert.ErrorIs(t, err, ErrTaskFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, p.State())
}

func TestObserverFunc(t *testing.T) {
	var got []EventType
	obs := ObserverFunc(func(e Event) { got = append(got, e.Type) })

	p, err := NewPipeline([]*agents.Task{newTask(t, "only", providertest.New(providertest.Text("ok")))}, obs)
	require.NoError(t, err)

	_, err = p.Execute(context.Background(), "input")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}
