package stats

import (
	"sync"
	"time"

	"github.com/biodoia/goleapsocial/internal/chaining"
)

// Snapshot rappresenta le statistiche aggregate delle esecuzioni
type Snapshot struct {
	TotalRuns     int64         `json:"total_runs"`
	SuccessCount  int64         `json:"success_count"`
	ErrorCount    int64         `json:"error_count"`
	InFlight      int64         `json:"in_flight"`
	SuccessRate   float64       `json:"success_rate"`
	AvgDuration   time.Duration `json:"avg_duration_ns"`
	LastRunAt     time.Time     `json:"last_run_at,omitempty"`
	LastErrorText string        `json:"last_error,omitempty"`
}

// Collector aggrega in memoria gli esiti delle esecuzioni (nessuna persistenza)
type Collector struct {
	mu            sync.RWMutex
	total         int64
	success       int64
	errors        int64
	inFlight      int64
	totalDuration time.Duration
	lastRunAt     time.Time
	lastError     string
}

// NewCollector crea un nuovo collector
func NewCollector() *Collector {
	return &Collector{}
}

// OnEvent aggiorna le statistiche dagli eventi della pipeline
func (c *Collector) OnEvent(e chaining.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Type {
	case chaining.EventPipelineStarted:
		c.inFlight++
	case chaining.EventPipelineCompleted:
		c.finish(e)
		c.success++
	case chaining.EventPipelineFailed:
		c.finish(e)
		c.errors++
		if e.Err != nil {
			c.lastError = e.Err.Error()
		}
	}
}

func (c *Collector) finish(e chaining.Event) {
	c.inFlight--
	c.total++
	c.totalDuration += e.Duration
	c.lastRunAt = e.Time
}

// Snapshot restituisce una copia delle statistiche correnti
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		TotalRuns:     c.total,
		SuccessCount:  c.success,
		ErrorCount:    c.errors,
		InFlight:      c.inFlight,
		LastRunAt:     c.lastRunAt,
		LastErrorText: c.lastError,
	}

	if c.total > 0 {
		s.SuccessRate = float64(c.success) / float64(c.total)
		s.AvgDuration = c.totalDuration / time.Duration(c.total)
	}

	return s
}
