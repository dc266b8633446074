package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/biodoia/goleapsocial/internal/providers"
)

var (
	ErrInvalidTask       = errors.New("invalid task")
	ErrContextAlreadySet = errors.New("task context already set")
)

// TaskConfig contiene i parametri di costruzione di un Task
type TaskConfig struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          *Agent
}

// Task lega un agente a un'unità di lavoro
type Task struct {
	name           string
	description    string
	expectedOutput string
	agent          *Agent

	mu         sync.Mutex
	context    string
	contextSet bool
	output     *TaskOutput
}

// TaskOutput rappresenta il risultato di un task
type TaskOutput struct {
	Task      string
	Agent     string
	Raw       string
	Usage     providers.Usage
	ToolCalls int
	Duration  time.Duration
}

// NewTask crea un nuovo Task
func NewTask(cfg TaskConfig) (*Task, error) {
	if strings.TrimSpace(cfg.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidTask)
	}
	if cfg.Agent == nil {
		return nil, fmt.Errorf("%w: agent is required", ErrInvalidTask)
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Agent.Name()
	}

	return &Task{
		name:           name,
		description:    cfg.Description,
		expectedOutput: cfg.ExpectedOutput,
		agent:          cfg.Agent,
	}, nil
}

// Name restituisce il nome del task
func (t *Task) Name() string { return t.name }

// Description restituisce la descrizione del task
func (t *Task) Description() string { return t.description }

// ExpectedOutput restituisce l'indicazione sul formato atteso
func (t *Task) ExpectedOutput() string { return t.expectedOutput }

// Agent restituisce l'agente assegnato
func (t *Task) Agent() *Agent { return t.agent }

// SetContext imposta il contesto del task; può essere chiamato una sola volta
func (t *Task) SetContext(value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.contextSet {
		return fmt.Errorf("%w: %s", ErrContextAlreadySet, t.name)
	}

	t.context = value
	t.contextSet = true
	return nil
}

// Context restituisce il contesto e se è stato impostato
func (t *Task) Context() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.context, t.contextSet
}

// Output restituisce il risultato, nil se il task non è stato completato
func (t *Task) Output() *TaskOutput {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.output
}

// Execute fa ragionare l'agente sul task e memorizza il risultato
func (t *Task) Execute(ctx context.Context) (*TaskOutput, error) {
	out, err := t.agent.Execute(ctx, t)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.output = out
	t.mu.Unlock()

	return out, nil
}
