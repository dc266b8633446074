package tools

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrDuplicateTool = errors.New("tool already registered")
	ErrUnknownTool   = errors.New("unknown tool")
	ErrInvalidTool   = errors.New("invalid tool")
)

// Registry associa i nomi delle capability ai tool. Un registry viene costruito
// per ogni esecuzione; i tool non cambiano dopo Register.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]Tool
	order      []string
	middleware []Middleware
}

// NewRegistry crea un registry vuoto; i middleware vengono applicati in ordine
// a ogni tool registrato
func NewRegistry(mw ...Middleware) *Registry {
	return &Registry{
		tools:      make(map[string]Tool),
		middleware: mw,
	}
}

// Register aggiunge un tool; i nomi devono essere unici
func (r *Registry) Register(t Tool) error {
	if t.Name == "" || t.Argument == "" || t.Fn == nil {
		return fmt.Errorf("%w: name, argument and function are required", ErrInvalidTool)
	}

	for _, mw := range r.middleware {
		t = mw(t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}

	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Get restituisce un tool per nome
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Select restituisce i tool richiesti; fallisce al primo nome sconosciuto
func (r *Registry) Select(names ...string) ([]Tool, error) {
	selected := make([]Tool, 0, len(names))
	for _, name := range names {
		t, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
		selected = append(selected, t)
	}
	return selected, nil
}

// Names restituisce i nomi dei tool in ordine di registrazione
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
