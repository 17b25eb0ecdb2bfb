package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs one independent pipeline per window over a shared,
// read-only snapshot.
type Orchestrator struct {
	ranker Ranker
	cfg    PipelineConfig
	now    func() time.Time
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(ranker Ranker, cfg PipelineConfig) *Orchestrator {
	if cfg.Name == "" {
		cfg.Name = ranker.Name()
	}
	return &Orchestrator{
		ranker: ranker,
		cfg:    cfg,
		now:    time.Now,
	}
}

// RunWindows executes every window concurrently, bounded by the configured
// worker count, and returns the results in window order. A failing window does
// not stop the others; its run is marked failed and its error kept in the
// result. The returned error is non-nil only when ctx is cancelled.
func (o *Orchestrator) RunWindows(ctx context.Context, stock []domain.StockRecord, sales []domain.SaleEvent, windows []Window) ([]WindowResult, error) {
	results := make([]WindowResult, len(windows))
	if len(windows) == 0 {
		return results, nil
	}

	workerCount := o.cfg.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount)

	for i, w := range windows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// each goroutine writes only its own slot
			results[i] = o.runWindow(stock, sales, w)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("window runs interrupted: %w", err)
	}
	return results, nil
}

// RunOnce executes a single window synchronously
func (o *Orchestrator) RunOnce(stock []domain.StockRecord, sales []domain.SaleEvent, w Window) WindowResult {
	return o.runWindow(stock, sales, w)
}

func (o *Orchestrator) runWindow(stock []domain.StockRecord, sales []domain.SaleEvent, w Window) WindowResult {
	run := PipelineRun{
		ID:           uuid.NewString(),
		PipelineName: o.cfg.Name,
		Window:       w,
		Status:       StatusProcessing,
		StartedAt:    o.now(),
	}

	filtered := w.Filter(sales)
	run.SalesRows = len(filtered)

	res, err := o.ranker.Run(stock, filtered)
	completed := o.now()
	run.CompletedAt = &completed

	if err != nil {
		run.Status = StatusFailed
		run.ErrorMessage = err.Error()
		log.Error().Err(err).
			Str("run_id", run.ID).
			Str("window", w.Label).
			Msg("pipeline run failed")
		return WindowResult{Run: run, Err: err}
	}

	run.Status = StatusCompleted
	run.RankedCount = len(res.Ranked)
	run.UnrankedCount = len(res.Unranked)

	log.Info().
		Str("run_id", run.ID).
		Str("pipeline", run.PipelineName).
		Str("window", w.Label).
		Int("sales_rows", run.SalesRows).
		Int("ranked", run.RankedCount).
		Int("unranked", run.UnrankedCount).
		Dur("duration", run.Duration()).
		Msg("pipeline run completed")

	return WindowResult{Run: run, Result: res}
}
