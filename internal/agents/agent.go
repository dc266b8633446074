package agents

import (
	"errors"
	"fmt"
	"strings"

	"github.com/biodoia/goleapsocial/internal/providers"
	"github.com/biodoia/goleapsocial/internal/tools"
)

// DefaultMaxIterations limita i round di tool calls prima della risposta finale forzata
const DefaultMaxIterations = 8

var (
	ErrInvalidAgent = errors.New("invalid agent")
	ErrEmptyOutput  = errors.New("agent produced an empty answer")
)

// Config contiene i parametri di costruzione di un Agent
type Config struct {
	Name      string
	Role      string
	Goal      string
	Backstory string

	// Modello assegnato all'agente per questa esecuzione
	LLM *providers.Handle

	// Tool che l'agente può invocare; nessun altro è raggiungibile
	Tools []tools.Tool

	// Round massimi di tool calls (0 = DefaultMaxIterations)
	MaxIterations int
}

// Agent rappresenta un partecipante al ragionamento
type Agent struct {
	name      string
	role      string
	goal      string
	backstory string

	llm           *providers.Handle
	tools         map[string]tools.Tool
	toolNames     []string
	maxIterations int
}

// New valida la configurazione e costruisce un Agent immutabile
func New(cfg Config) (*Agent, error) {
	switch {
	case strings.TrimSpace(cfg.Name) == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidAgent)
	case strings.TrimSpace(cfg.Role) == "":
		return nil, fmt.Errorf("%w: role is required", ErrInvalidAgent)
	case strings.TrimSpace(cfg.Goal) == "":
		return nil, fmt.Errorf("%w: goal is required", ErrInvalidAgent)
	case cfg.LLM == nil || cfg.LLM.Provider == nil:
		return nil, fmt.Errorf("%w: language model handle is required", ErrInvalidAgent)
	case cfg.MaxIterations < 0:
		return nil, fmt.Errorf("%w: negative max iterations", ErrInvalidAgent)
	}

	a := &Agent{
		name:          cfg.Name,
		role:          cfg.Role,
		goal:          cfg.Goal,
		backstory:     cfg.Backstory,
		llm:           cfg.LLM,
		tools:         make(map[string]tools.Tool, len(cfg.Tools)),
		maxIterations: cfg.MaxIterations,
	}

	if a.maxIterations == 0 {
		a.maxIterations = DefaultMaxIterations
	}

	for _, t := range cfg.Tools {
		if _, dup := a.tools[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate tool %q", ErrInvalidAgent, t.Name)
		}
		a.tools[t.Name] = t
		a.toolNames = append(a.toolNames, t.Name)
	}

	return a, nil
}

// Name restituisce il nome dell'agente
func (a *Agent) Name() string { return a.name }

// Role restituisce il ruolo dell'agente
func (a *Agent) Role() string { return a.role }

// Goal restituisce l'obiettivo dell'agente
func (a *Agent) Goal() string { return a.goal }

// Backstory restituisce la backstory dell'agente
func (a *Agent) Backstory() string { return a.backstory }

// Degraded indica se l'agente ragiona su un modello degradato
func (a *Agent) Degraded() bool { return a.llm.Degraded }

// ToolNames restituisce i nomi dei tool assegnati, in ordine
func (a *Agent) ToolNames() []string {
	return append([]string(nil), a.toolNames...)
}

// HasTool verifica se l'agente può invocare il tool indicato
func (a *Agent) HasTool(name string) bool {
	_, ok := a.tools[name]
	return ok
}

func (a *Agent) toolDefinitions() []providers.Tool {
	if len(a.toolNames) == 0 {
		return nil
	}

	defs := make([]providers.Tool, 0, len(a.toolNames))
	for _, name := range a.toolNames {
		defs = append(defs, a.tools[name].Definition())
	}
	return defs
}
