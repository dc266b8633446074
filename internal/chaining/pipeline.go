package chaining

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/biodoia/goleapsocial/internal/agents"
	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoTasks         = errors.New("pipeline has no tasks")
	ErrInvalidPipeline = errors.New("invalid pipeline")
	ErrAlreadyExecuted = errors.New("pipeline already executed")
	ErrTaskFailed      = errors.New("task failed")
)

// State rappresenta lo stato di una pipeline
type State string

const (
	StateConstructed State = "constructed"
	StateRunning     State = "running"
	StateCompleted   State = "completed"
	StateFailed      State = "failed"
)

// Pipeline esegue i task in sequenza: il contesto del task i è l'output del task i-1
type Pipeline struct {
	id        string
	tasks     []*agents.Task
	observers []Observer

	mu    sync.RWMutex
	state State
}

// Result rappresenta il risultato finale della pipeline
type Result struct {
	PipelineID string
	Output     string
	Duration   time.Duration
	Usage      providers.Usage
	ToolCalls  int
}

// TaskError descrive il task che ha fatto fallire la pipeline
type TaskError struct {
	Index int
	Task  string
	Agent string
	Err   error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d (%s, agent %q) failed: %v", e.Index+1, e.Task, e.Agent, e.Err)
}

// Unwrap espone sia ErrTaskFailed sia la causa
func (e *TaskError) Unwrap() []error {
	return []error{ErrTaskFailed, e.Err}
}

// NewPipeline crea una pipeline sequenziale
func NewPipeline(tasks []*agents.Task, observers ...Observer) (*Pipeline, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}

	for i, task := range tasks {
		if task == nil {
			return nil, fmt.Errorf("%w: task %d is nil", ErrInvalidPipeline, i)
		}
		if task.Agent() == nil {
			return nil, fmt.Errorf("%w: task %q has no agent", ErrInvalidPipeline, task.Name())
		}
	}

	return &Pipeline{
		id:        uuid.NewString(),
		tasks:     append([]*agents.Task(nil), tasks...),
		observers: observers,
		state:     StateConstructed,
	}, nil
}

// ID restituisce l'identificativo della pipeline
func (p *Pipeline) ID() string { return p.id }

// Tasks restituisce i task in ordine di esecuzione
func (p *Pipeline) Tasks() []*agents.Task {
	return append([]*agents.Task(nil), p.tasks...)
}

// State restituisce lo stato corrente
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Execute esegue la pipeline una sola volta. Il primo task riceve input come
// contesto; il risultato è l'output dell'ultimo task.
func (p *Pipeline) Execute(ctx context.Context, input string) (*Result, error) {
	p.mu.Lock()
	if p.state != StateConstructed {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExecuted, p.id)
	}
	p.state = StateRunning
	p.mu.Unlock()

	start := time.Now()
	result := &Result{PipelineID: p.id}

	log.Info().
		Str("pipeline_id", p.id).
		Int("tasks", len(p.tasks)).
		Msg("Executing pipeline")

	p.emit(Event{Type: EventPipelineStarted, Total: len(p.tasks)})

	current := input
	for i, task := range p.tasks {
		if err := ctx.Err(); err != nil {
			return nil, p.fail(i, task, err, start)
		}

		if err := task.SetContext(current); err != nil {
			return nil, p.fail(i, task, err, start)
		}

		p.emit(Event{Type: EventTaskStarted, Index: i, Total: len(p.tasks), Task: task.Name(), Agent: task.Agent().Name()})

		log.Debug().
			Str("pipeline_id", p.id).
			Str("task", task.Name()).
			Str("agent", task.Agent().Name()).
			Msg("Executing task")

		out, err := task.Execute(ctx)
		if err != nil {
			return nil, p.fail(i, task, err, start)
		}

		result.Usage.Add(out.Usage)
		result.ToolCalls += out.ToolCalls
		current = out.Raw

		p.emit(Event{
			Type:     EventTaskCompleted,
			Index:    i,
			Total:    len(p.tasks),
			Task:     task.Name(),
			Agent:    task.Agent().Name(),
			Duration: out.Duration,
		})

		log.Debug().
			Str("pipeline_id", p.id).
			Str("task", task.Name()).
			Dur("duration", out.Duration).
			Int("tool_calls", out.ToolCalls).
			Msg("Task completed")
	}

	result.Output = current
	result.Duration = time.Since(start)

	p.setState(StateCompleted)
	p.emit(Event{Type: EventPipelineCompleted, Total: len(p.tasks), Duration: result.Duration})

	log.Info().
		Str("pipeline_id", p.id).
		Dur("duration", result.Duration).
		Int("total_tokens", result.Usage.TotalTokens).
		Msg("Pipeline executed successfully")

	return result, nil
}

// fail porta la pipeline nello stato failed e costruisce l'errore unico
func (p *Pipeline) fail(index int, task *agents.Task, cause error, start time.Time) error {
	p.setState(StateFailed)

	taskErr := &TaskError{
		Index: index,
		Task:  task.Name(),
		Agent: task.Agent().Name(),
		Err:   cause,
	}

	duration := time.Since(start)
	p.emit(Event{Type: EventTaskFailed, Index: index, Total: len(p.tasks), Task: taskErr.Task, Agent: taskErr.Agent, Err: cause})
	p.emit(Event{Type: EventPipelineFailed, Total: len(p.tasks), Duration: duration, Err: taskErr})

	log.Error().
		Err(cause).
		Str("pipeline_id", p.id).
		Str("task", taskErr.Task).
		Dur("duration", duration).
		Msg("Pipeline failed")

	return taskErr
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Pipeline) emit(e Event) {
	e.PipelineID = p.id
	e.Time = time.Now()
	for _, o := range p.observers {
		o.OnEvent(e)
	}
}
