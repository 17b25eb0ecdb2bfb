package pipeline

import (
	"time"

	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/pipeline/replenishment"
)

// Ranker is the pure ranking step a run executes
type Ranker interface {
	// Name returns the unique identifier for this pipeline
	Name() string

	// Run ranks a stock snapshot against an already filtered sales log
	Run(stock []domain.StockRecord, sales []domain.SaleEvent) (replenishment.Result, error)
}

// PipelineConfig holds configuration for the orchestrator
type PipelineConfig struct {
	Name        string
	WorkerCount int // Number of windows processed concurrently
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig(name string) PipelineConfig {
	return PipelineConfig{
		Name:        name,
		WorkerCount: 4,
	}
}

// Window selects the sales of one independent run.
// From is inclusive, To is exclusive; a zero bound is open.
type Window struct {
	Label string    `json:"label"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// Filter returns a new slice holding the sales inside the window
func (w Window) Filter(sales []domain.SaleEvent) []domain.SaleEvent {
	out := make([]domain.SaleEvent, 0, len(sales))
	for _, s := range sales {
		if w.Contains(s.SaleDate) {
			out = append(out, s)
		}
	}
	return out
}

// PipelineStatus represents the current state of a pipeline run
type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusFailed     PipelineStatus = "failed"
)

// PipelineRun tracks a single execution of a pipeline for one window
type PipelineRun struct {
	ID            string         `json:"id"`
	PipelineName  string         `json:"pipeline_name"`
	Window        Window         `json:"window"`
	Status        PipelineStatus `json:"status"`
	SalesRows     int            `json:"sales_rows"`
	RankedCount   int            `json:"ranked_count"`
	UnrankedCount int            `json:"unranked_count"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}

// Duration returns how long the run took, or zero while it is still running
func (r PipelineRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// WindowResult pairs a run record with its output
type WindowResult struct {
	Run    PipelineRun
	Result replenishment.Result
	Err    error
}
