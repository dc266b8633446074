// Package tui mostra l'avanzamento di un'esecuzione nel terminale.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/biodoia/goleapsocial/internal/chaining"
	"github.com/biodoia/goleapsocial/internal/social"
	tea "github.com/charmbracelet/bubbletea"
)

// EventMsg trasporta un evento della pipeline nel loop di bubbletea
type EventMsg chaining.Event

// DoneMsg segnala la fine dell'esecuzione
type DoneMsg struct {
	Response *social.Response
	Err      error
}

// TickMsg anima lo spinner
type TickMsg time.Time

type stepState int

const (
	stepPending stepState = iota
	stepRunning
	stepDone
	stepFailed
)

type step struct {
	task     string
	agent    string
	state    stepState
	duration time.Duration
}

// Model è il modello bubbletea della vista di avanzamento
type Model struct {
	topic    string
	platform string
	steps    []step
	frame    int
	started  time.Time

	done     bool
	response *social.Response
	err      error

	// Chiamata quando l'utente interrompe l'esecuzione
	onCancel func()
}

// NewModel crea la vista per una richiesta
func NewModel(req social.Request, onCancel func()) *Model {
	return &Model{
		topic:    req.Topic,
		platform: req.Platform,
		started:  time.Now(),
		onCancel: onCancel,
	}
}

// Init avvia lo spinner
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update gestisce i messaggi
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.done && m.onCancel != nil {
				m.onCancel()
			}
			return m, tea.Quit
		}

	case TickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, tickCmd()

	case EventMsg:
		m.applyEvent(chaining.Event(msg))

	case DoneMsg:
		m.done = true
		m.response = msg.Response
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyEvent(e chaining.Event) {
	if e.Total > len(m.steps) {
		grown := make([]step, e.Total)
		copy(grown, m.steps)
		m.steps = grown
	}
	if e.Index < 0 || e.Index >= len(m.steps) {
		return
	}

	s := &m.steps[e.Index]
	if e.Task != "" {
		s.task = e.Task
	}
	if e.Agent != "" {
		s.agent = e.Agent
	}

	switch e.Type {
	case chaining.EventTaskStarted:
		s.state = stepRunning
	case chaining.EventTaskCompleted:
		s.state = stepDone
		s.duration = e.Duration
	case chaining.EventTaskFailed:
		s.state = stepFailed
		s.duration = e.Duration
	}
}

// Result restituisce l'esito dopo la chiusura del programma
func (m *Model) Result() (*social.Response, error) {
	return m.response, m.err
}

// View renderizza la vista
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🤖 Agentic Social Media Manager"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(fmt.Sprintf("Topic: %s · Platform: %s", m.topic, m.platform)))
	b.WriteString("\n\n")

	if len(m.steps) == 0 && !m.done {
		b.WriteString(runningStyle.Render(spinnerFrames[m.frame] + " Preparing the crew..."))
		b.WriteString("\n")
	}

	for i, s := range m.steps {
		label := s.agent
		if label == "" {
			label = fmt.Sprintf("Task %d", i+1)
		}

		switch s.state {
		case stepPending:
			b.WriteString(subtleStyle.Render("○ " + label))
		case stepRunning:
			b.WriteString(runningStyle.Render(fmt.Sprintf("%s %s is working...", spinnerFrames[m.frame], label)))
		case stepDone:
			b.WriteString(doneStyle.Render("✓ " + label))
			b.WriteString(subtleStyle.Render(fmt.Sprintf(" (%s)", s.duration.Round(time.Millisecond))))
		case stepFailed:
			b.WriteString(failStyle.Render("✗ " + label))
		}
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString("\n")
		b.WriteString(RenderOutcome(m.response, m.err))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(fmt.Sprintf("elapsed %s · q to abort", time.Since(m.started).Round(time.Second))))
	b.WriteString("\n")

	return b.String()
}

// RenderOutcome formatta l'esito finale, usato anche dall'output --plain
func RenderOutcome(resp *social.Response, err error) string {
	var b strings.Builder

	if err != nil {
		kind := social.Classify(err)
		b.WriteString(failStyle.Render("An error occurred: " + err.Error()))
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render(kind.Hint()))
		b.WriteString("\n")
		return b.String()
	}

	if resp == nil {
		return ""
	}

	b.WriteString(doneStyle.Render("Task Complete!"))
	b.WriteString("\n")
	if resp.Degraded {
		b.WriteString(warnStyle.Render("Degraded mode: " + strings.Join(resp.DegradedReasons, "; ")))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("📝 Generated Post (%s):\n", resp.Platform))
	b.WriteString(postStyle.Render(resp.Post))
	b.WriteString("\n")

	return b.String()
}
