package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/replenishment/internal/cache"
	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/ingest"
	"github.com/andresuchdata/replenishment/internal/pipeline"
	"github.com/andresuchdata/replenishment/internal/pipeline/replenishment"
	"github.com/andresuchdata/replenishment/internal/report"
	"github.com/rs/zerolog/log"
)

// Options tune the report defaults of the service
type Options struct {
	TopN      int
	Locale    string
	SalesFrom time.Time // default lower bound of the monthly series
}

// Snapshot is one immutable loaded dataset plus its full-history run
type Snapshot struct {
	Stock    []domain.StockRecord
	Sales    []domain.SaleEvent
	LoadedAt time.Time
	Run      pipeline.PipelineRun
	Result   replenishment.Result
}

// Status summarises the loaded snapshot
type Status struct {
	Loaded     bool                  `json:"loaded"`
	LoadedAt   *time.Time            `json:"loaded_at,omitempty"`
	StockRows  int                   `json:"stock_rows"`
	SalesRows  int                   `json:"sales_rows"`
	LastRun    *pipeline.PipelineRun `json:"last_run,omitempty"`
	Parameters replenishment.Params  `json:"parameters"`
}

type ReplenishmentService struct {
	source       ingest.Source
	pipeline     *replenishment.Pipeline
	orchestrator *pipeline.Orchestrator
	assembler    *report.Assembler
	cache        cache.ReportCache
	opts         Options

	mu   sync.RWMutex
	snap *Snapshot

	reloadMu sync.Mutex
}

func NewReplenishmentService(
	source ingest.Source,
	p *replenishment.Pipeline,
	orchestrator *pipeline.Orchestrator,
	cacheImpl cache.ReportCache,
	opts Options,
) *ReplenishmentService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	if opts.TopN <= 0 {
		opts.TopN = report.DefaultTopN
	}
	return &ReplenishmentService{
		source:       source,
		pipeline:     p,
		orchestrator: orchestrator,
		assembler:    report.NewAssembler(opts.Locale),
		cache:        cacheImpl,
		opts:         opts,
	}
}

// Reload reads a fresh dataset and ranks it. The previous snapshot stays in
// place when loading or ranking fails.
func (s *ReplenishmentService) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	ds, err := ingest.Load(ctx, s.source)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	wr := s.orchestrator.RunOnce(ds.Stock, ds.Sales, pipeline.Window{Label: "all"})
	if wr.Err != nil {
		return fmt.Errorf("failed to rank dataset: %w", wr.Err)
	}

	snap := &Snapshot{
		Stock:    ds.Stock,
		Sales:    ds.Sales,
		LoadedAt: time.Now().UTC(),
		Run:      wr.Run,
		Result:   wr.Result,
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("replenishment: cache invalidate failed")
	}

	log.Info().
		Int("stock_rows", len(ds.Stock)).
		Int("sales_rows", len(ds.Sales)).
		Int("ranked", len(wr.Result.Ranked)).
		Int("unranked", len(wr.Result.Unranked)).
		Msg("replenishment: snapshot reloaded")
	return nil
}

func (s *ReplenishmentService) snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, domain.ErrDatasetNotLoaded
	}
	return s.snap, nil
}

// Status reports what is currently loaded
func (s *ReplenishmentService) Status() Status {
	st := Status{Parameters: s.pipeline.Params()}
	snap, err := s.snapshot()
	if err != nil {
		return st
	}
	loadedAt := snap.LoadedAt
	run := snap.Run
	st.Loaded = true
	st.LoadedAt = &loadedAt
	st.StockRows = len(snap.Stock)
	st.SalesRows = len(snap.Sales)
	st.LastRun = &run
	return st
}

// Ranking returns a page of the full-history ranking
func (s *ReplenishmentService) Ranking(page, pageSize int) (domain.RankingPage, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.RankingPage{}, err
	}
	return report.Page(snap.Result.Ranked, page, pageSize), nil
}

// Top returns the n highest-scoring items; n <= 0 uses the configured default
func (s *ReplenishmentService) Top(n int) ([]domain.ScoredItem, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.opts.TopN
	}
	return report.TopN(snap.Result.Ranked, n), nil
}

// Unranked returns the items held back for lack of a demand deviation
func (s *ReplenishmentService) Unranked() ([]domain.ItemMetrics, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Result.Unranked, nil
}

// Monthly totals quantity sold per month in [from, to). A zero from falls back
// to the configured sales cutoff.
func (s *ReplenishmentService) Monthly(from, to time.Time) ([]domain.MonthlyTotal, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = s.opts.SalesFrom
	}
	return s.assembler.MonthlyDemand(snap.Sales, from, to), nil
}

// Dashboard builds all report views. Without a date range it reuses the
// full-history ranking; with one it ranks the sales inside the range.
func (s *ReplenishmentService) Dashboard(ctx context.Context, filter domain.ReportFilter) (*domain.Dashboard, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if filter.TopN <= 0 {
		filter.TopN = s.opts.TopN
	}

	if d, ok, err := s.cache.GetDashboard(ctx, filter); err == nil && ok {
		return d, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("replenishment: cache get dashboard failed")
	}

	res := snap.Result
	if !filter.From.IsZero() || !filter.To.IsZero() {
		wr := s.orchestrator.RunOnce(snap.Stock, snap.Sales, pipeline.Window{Label: "dashboard", From: filter.From, To: filter.To})
		if wr.Err != nil {
			return nil, wr.Err
		}
		res = wr.Result
	}

	monthlyFilter := filter
	if monthlyFilter.From.IsZero() {
		monthlyFilter.From = s.opts.SalesFrom
	}
	d := s.assembler.Dashboard(res, snap.Sales, monthlyFilter)

	s.storeDashboard(ctx, snap, filter, &d)
	return &d, nil
}

// storeDashboard caches d only while snap is still the loaded snapshot.
// Reload swaps under the write lock before invalidating, so a dashboard
// built from a replaced snapshot never lands after the invalidation.
func (s *ReplenishmentService) storeDashboard(ctx context.Context, snap *Snapshot, filter domain.ReportFilter, d *domain.Dashboard) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap != snap {
		log.Debug().Msg("replenishment: snapshot replaced, dashboard not cached")
		return
	}
	if err := s.cache.SetDashboard(ctx, filter, d); err != nil {
		log.Warn().Err(err).Msg("replenishment: cache set dashboard failed")
	}
}

// Windows ranks the loaded snapshot once per window, in parallel
func (s *ReplenishmentService) Windows(ctx context.Context, windows []pipeline.Window) ([]pipeline.WindowResult, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.orchestrator.RunWindows(ctx, snap.Stock, snap.Sales, windows)
}
