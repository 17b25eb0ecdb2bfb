package datasource

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/replenishment/internal/config"
	"github.com/andresuchdata/replenishment/internal/drive"
	"github.com/andresuchdata/replenishment/internal/ingest"
	"github.com/andresuchdata/replenishment/internal/repository/postgres"
	"github.com/andresuchdata/replenishment/internal/storage"
)

// Opened is a configured dataset source plus the handles it keeps open
type Opened struct {
	Source ingest.Source
	// Drive is set for the drive source so callers can watch the folder
	Drive drive.FileStore
	close func() error
}

func (o *Opened) Close() error {
	if o.close == nil {
		return nil
	}
	return o.close()
}

// Open builds the source selected by cfg.Data.Source
func Open(ctx context.Context, cfg *config.Config) (*Opened, error) {
	switch cfg.Data.Source {
	case config.SourceFile:
		return &Opened{Source: ingest.NewFileSource(cfg.Data.StockPath, cfg.Data.SalesPath)}, nil

	case config.SourcePostgres:
		db, err := postgres.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		repo, err := postgres.NewDatasetRepository(db, cfg.Database.StockTable, cfg.Database.SalesTable)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Opened{Source: repo, close: db.Close}, nil

	case config.SourceS3:
		if err := config.EnsureDir(cfg.Data.DownloadDir); err != nil {
			return nil, err
		}
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			return nil, err
		}
		src := storage.NewDatasetSource(client, cfg.Storage.StockKey, cfg.Storage.SalesKey, cfg.Data.DownloadDir)
		return &Opened{Source: src}, nil

	case config.SourceDrive:
		creds, err := credentials(cfg.Drive.CredentialsFile)
		if err != nil {
			return nil, err
		}
		svc, err := drive.NewService(ctx, creds)
		if err != nil {
			return nil, err
		}
		src := drive.NewDatasetSource(svc, cfg.Drive.FolderID, cfg.Drive.StockFileName, cfg.Drive.SalesFileName, cfg.Data.DownloadDir)
		return &Opened{Source: src, Drive: svc}, nil

	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

// credentials accepts either a path to a service account key or the key JSON itself
func credentials(ref string) ([]byte, error) {
	if ref == "" {
		return nil, fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS must be set for the drive source")
	}
	if trimmed := bytes.TrimSpace([]byte(ref)); len(trimmed) > 0 && trimmed[0] == '{' {
		return trimmed, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive credentials: %w", err)
	}
	return data, nil
}
