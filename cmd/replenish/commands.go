package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/replenishment/internal/config"
	"github.com/andresuchdata/replenishment/internal/datasource"
	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/ingest"
	"github.com/andresuchdata/replenishment/internal/pipeline"
	"github.com/andresuchdata/replenishment/internal/pipeline/replenishment"
	"github.com/andresuchdata/replenishment/internal/report"
	"github.com/urfave/cli/v2"
)

// env runs one command against a loaded dataset
type env struct {
	cfg          *config.Config
	dataset      ingest.Dataset
	orchestrator *pipeline.Orchestrator
	assembler    *report.Assembler
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, err
	}

	if c.IsSet("source") {
		cfg.Data.Source = strings.ToLower(c.String("source"))
	}
	if c.IsSet("stock") {
		cfg.Data.StockPath = c.String("stock")
	}
	if c.IsSet("sales") {
		cfg.Data.SalesPath = c.String("sales")
	}
	if c.IsSet("db-url") {
		cfg.Database.URL = c.String("db-url")
	}
	if c.IsSet("s3-bucket") {
		cfg.Storage.Bucket = c.String("s3-bucket")
	}
	if c.IsSet("drive-folder") {
		cfg.Drive.FolderID = c.String("drive-folder")
	}
	if c.IsSet("z") {
		cfg.Scoring.ServiceLevelZ = c.Float64("z")
	}
	if c.IsSet("variance-policy") {
		cfg.Scoring.VariancePolicy = c.String("variance-policy")
	}
	if c.IsSet("locale") {
		cfg.Scoring.Locale = c.String("locale")
	}
	if c.IsSet("workers") {
		cfg.Pipeline.WorkerCount = c.Int("workers")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	params, err := cfg.Scoring.Params()
	if err != nil {
		return nil, err
	}
	p, err := replenishment.NewPipeline(params)
	if err != nil {
		return nil, err
	}

	src, err := datasource.Open(c.Context, cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ds, err := ingest.Load(c.Context, src.Source)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:          cfg,
		dataset:      ds,
		orchestrator: pipeline.NewOrchestrator(p, pipeline.PipelineConfig{Name: p.Name(), WorkerCount: cfg.Pipeline.WorkerCount}),
		assembler:    report.NewAssembler(cfg.Scoring.Locale),
	}, nil
}

func dateFlag(c *cli.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.String(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(pipeline.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

func rangeWindow(c *cli.Context, label string) (pipeline.Window, error) {
	from, err := dateFlag(c, "from")
	if err != nil {
		return pipeline.Window{}, err
	}
	to, err := dateFlag(c, "to")
	if err != nil {
		return pipeline.Window{}, err
	}
	return pipeline.Window{Label: label, From: from, To: to}, nil
}

func runRank(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	w, err := rangeWindow(c, "rank")
	if err != nil {
		return err
	}

	wr := e.orchestrator.RunOnce(e.dataset.Stock, e.dataset.Sales, w)
	if wr.Err != nil {
		return wr.Err
	}

	if path := c.String("csv"); path != "" {
		if err := report.WriteRankedCSVFile(path, wr.Result.Ranked); err != nil {
			return err
		}
	}

	ranked := wr.Result.Ranked
	if n := c.Int("top"); n > 0 {
		ranked = report.TopN(ranked, n)
	}

	out := c.App.Writer
	printRanking(out, ranked)
	printUnranked(out, wr.Result)
	return nil
}

func runMonthly(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	w, err := rangeWindow(c, "monthly")
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tMONTH\tQUANTITY SOLD")
	for _, m := range e.assembler.MonthlyDemand(e.dataset.Sales, w.From, w.To) {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Year, m.MonthName, report.FormatThousands(m.Total, 2))
	}
	return tw.Flush()
}

func runWindows(c *cli.Context) error {
	windows := make([]pipeline.Window, 0, len(c.StringSlice("window")))
	for _, spec := range c.StringSlice("window") {
		w, err := pipeline.ParseWindow(spec)
		if err != nil {
			return err
		}
		windows = append(windows, w)
	}

	e, err := setup(c)
	if err != nil {
		return err
	}

	results, err := e.orchestrator.RunWindows(c.Context, e.dataset.Stock, e.dataset.Sales, windows)
	if err != nil {
		return err
	}

	out := c.App.Writer
	failed := 0
	for _, wr := range results {
		fmt.Fprintf(out, "== %s (run %s, %d sales rows, %s)\n", wr.Run.Window.Label, wr.Run.ID, wr.Run.SalesRows, wr.Run.Status)
		if wr.Err != nil {
			failed++
			fmt.Fprintf(out, "error: %v\n\n", wr.Err)
			continue
		}
		printRanking(out, report.TopN(wr.Result.Ranked, c.Int("top")))
		printUnranked(out, wr.Result)
		fmt.Fprintln(out)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d windows failed", failed, len(results))
	}
	return nil
}

func runDashboard(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	w, err := rangeWindow(c, "dashboard")
	if err != nil {
		return err
	}

	wr := e.orchestrator.RunOnce(e.dataset.Stock, e.dataset.Sales, w)
	if wr.Err != nil {
		return wr.Err
	}

	filter := domain.ReportFilter{From: w.From, To: w.To, TopN: c.Int("top")}
	if filter.TopN <= 0 {
		filter.TopN = e.cfg.Scoring.TopN
	}
	if filter.From.IsZero() {
		filter.From = e.cfg.Data.SalesFrom
	}
	d := e.assembler.Dashboard(wr.Result, e.dataset.Sales, filter)

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

func printRanking(out io.Writer, ranked []domain.ScoredItem) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCODE\tNAME\tON HAND\tMEAN DEMAND\tIDEAL STOCK\tRISK\tCOST\tSCORE")
	for _, it := range ranked {
		name := it.Name
		if it.LowConfidence {
			name += " (low confidence)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%.2f\t%.2f\t%d\t%s\t%.4f\n",
			it.Rank, it.ItemCode, name, it.QuantityOnHand, it.MeanDemand, it.IdealStock,
			it.StockoutRisk, report.FormatThousands(it.TotalCost, 2), it.ReorderScore)
	}
	tw.Flush()
}

func printUnranked(out io.Writer, res replenishment.Result) {
	if len(res.Unranked) > 0 {
		codes := make([]string, 0, len(res.Unranked))
		for _, m := range res.Unranked {
			codes = append(codes, m.ItemCode)
		}
		fmt.Fprintf(out, "unranked (single sale, no demand deviation): %s\n", strings.Join(codes, ", "))
	}
	if res.Dropped.StockOnly > 0 || res.Dropped.SalesOnly > 0 {
		fmt.Fprintf(out, "dropped by join: %d stock-only, %d sales-only item codes\n", res.Dropped.StockOnly, res.Dropped.SalesOnly)
	}
}
