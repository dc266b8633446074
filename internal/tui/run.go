package tui

import (
	"context"
	"fmt"

	"github.com/biodoia/goleapsocial/internal/chaining"
	"github.com/biodoia/goleapsocial/internal/social"
	tea "github.com/charmbracelet/bubbletea"
)

// Run esegue la richiesta mostrando la vista di avanzamento
func Run(ctx context.Context, runner *social.Runner, req social.Request, opts ...tea.ProgramOption) (*social.Response, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(req, cancel)
	p := tea.NewProgram(m, opts...)

	progress := chaining.ObserverFunc(func(e chaining.Event) {
		p.Send(EventMsg(e))
	})

	go func() {
		resp, err := runner.Run(ctx, req, progress)
		p.Send(DoneMsg{Response: resp, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("progress view failed: %w", err)
	}

	resp, err := m.Result()
	if resp == nil && err == nil {
		return nil, context.Canceled
	}
	return resp, err
}
