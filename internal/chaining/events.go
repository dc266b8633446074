package chaining

import "time"

// EventType identifica un evento del ciclo di vita della pipeline
type EventType string

const (
	EventPipelineStarted   EventType = "pipeline_started"
	EventTaskStarted       EventType = "task_started"
	EventTaskCompleted     EventType = "task_completed"
	EventTaskFailed        EventType = "task_failed"
	EventPipelineCompleted EventType = "pipeline_completed"
	EventPipelineFailed    EventType = "pipeline_failed"
)

// Event descrive un passaggio della pipeline
type Event struct {
	Type       EventType
	PipelineID string
	Index      int
	Total      int
	Task       string
	Agent      string
	Duration   time.Duration
	Err        error
	Time       time.Time
}

// Observer riceve gli eventi in modo sincrono, nella goroutine della pipeline
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adatta una funzione a Observer
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
