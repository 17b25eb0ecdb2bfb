package main

import (
	"os"

	"github.com/andresuchdata/replenishment/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("replenish failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "replenish",
		Usage: "Rank inventory items for replenishment from a stock snapshot and a sales log",
		Flags: sourceFlags(),
		Before: func(c *cli.Context) error {
			logger.SetFormat(c.String("log-format"))
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "rank",
				Usage: "Print the replenishment ranking",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "top", Usage: "Only print the first N items (0 prints all)"},
					&cli.StringFlag{Name: "csv", Usage: "Also write the full ranking to this CSV file"},
					&cli.StringFlag{Name: "from", Usage: "Only use sales on or after this date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "to", Usage: "Only use sales before this date (YYYY-MM-DD)"},
				},
				Action: runRank,
			},
			{
				Name:  "monthly",
				Usage: "Print total quantity sold per month",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "First day included (YYYY-MM-DD)", EnvVars: []string{"DATA_SALES_FROM"}},
					&cli.StringFlag{Name: "to", Usage: "First day excluded (YYYY-MM-DD)"},
				},
				Action: runMonthly,
			},
			{
				Name:  "windows",
				Usage: "Rank once per sales window, in parallel",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "window",
						Usage:    "label:from:to with dates as YYYY-MM-DD; repeat for several windows",
						Required: true,
					},
					&cli.IntFlag{Name: "top", Value: 5, Usage: "Items printed per window"},
				},
				Action: runWindows,
			},
			{
				Name:  "dashboard",
				Usage: "Print every report view as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Only use sales on or after this date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "to", Usage: "Only use sales before this date (YYYY-MM-DD)"},
					&cli.IntFlag{Name: "top", Usage: "Size of the top items view"},
				},
				Action: runDashboard,
			},
		},
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "source", Usage: "Dataset source: file, postgres, s3 or drive", EnvVars: []string{"DATA_SOURCE"}},
		&cli.StringFlag{Name: "stock", Usage: "Stock snapshot file (CSV or XLSX)", EnvVars: []string{"DATA_STOCK_PATH"}},
		&cli.StringFlag{Name: "sales", Usage: "Sales log file (CSV or XLSX)", EnvVars: []string{"DATA_SALES_PATH"}},
		&cli.StringFlag{Name: "db-url", Usage: "Postgres connection string", EnvVars: []string{"DATABASE_URL"}},
		&cli.StringFlag{Name: "s3-bucket", Usage: "Bucket holding the dataset objects", EnvVars: []string{"S3_BUCKET"}},
		&cli.StringFlag{Name: "drive-folder", Usage: "Google Drive folder ID", EnvVars: []string{"DRIVE_FOLDER_ID"}},
		&cli.Float64Flag{Name: "z", Usage: "Service level z value", EnvVars: []string{"SCORING_SERVICE_LEVEL_Z"}},
		&cli.StringFlag{Name: "variance-policy", Usage: "exclude or flag items with a single sale", EnvVars: []string{"SCORING_VARIANCE_POLICY"}},
		&cli.StringFlag{Name: "locale", Usage: "Month name locale (pt or en)", EnvVars: []string{"SCORING_LOCALE"}},
		&cli.IntFlag{Name: "workers", Usage: "Windows ranked concurrently", EnvVars: []string{"PIPELINE_WORKER_COUNT"}},
		&cli.StringFlag{Name: "log-level", Value: "warn", EnvVars: []string{"LOG_LEVEL"}},
		&cli.StringFlag{Name: "log-format", Value: "console", EnvVars: []string{"LOG_FORMAT"}},
	}
}
