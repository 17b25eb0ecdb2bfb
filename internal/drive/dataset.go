package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/ingest"
	"github.com/rs/zerolog/log"
)

// DatasetSource pulls the stock and sales files by name from one Drive folder.
// When several files share a name the most recently modified one wins.
type DatasetSource struct {
	files     FileStore
	folderID  string
	stockName string
	salesName string
	dir       string
}

var _ ingest.Source = (*DatasetSource)(nil)

func NewDatasetSource(files FileStore, folderID, stockName, salesName, downloadDir string) *DatasetSource {
	return &DatasetSource{
		files:     files,
		folderID:  folderID,
		stockName: stockName,
		salesName: salesName,
		dir:       downloadDir,
	}
}

func (s *DatasetSource) LoadStock(ctx context.Context) ([]domain.StockRecord, error) {
	local, err := s.download(ctx, s.stockName)
	if err != nil {
		return nil, err
	}
	return ingest.NewFileSource(local, "").LoadStock(ctx)
}

func (s *DatasetSource) LoadSales(ctx context.Context) ([]domain.SaleEvent, error) {
	local, err := s.download(ctx, s.salesName)
	if err != nil {
		return nil, err
	}
	return ingest.NewFileSource("", local).LoadSales(ctx)
}

func (s *DatasetSource) download(ctx context.Context, name string) (string, error) {
	if s.dir == "" {
		return "", fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := s.files.ListFiles(ctx, s.folderID)
	if err != nil {
		return "", err
	}
	f := findNewest(files, name)
	if f == nil {
		return "", fmt.Errorf("file %s not found in drive folder %s", name, s.folderID)
	}

	localPath := filepath.Join(s.dir, filepath.Base(f.Name))
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := s.files.DownloadFile(ctx, f.ID, out); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	log.Info().Str("file", f.Name).Str("modified", f.ModifiedTime).Msg("downloaded dataset from drive")
	return localPath, nil
}

// findNewest matches names case-insensitively; ModifiedTime is RFC 3339 so it sorts lexically
func findNewest(files []*File, name string) *File {
	var newest *File
	for _, f := range files {
		if !strings.EqualFold(f.Name, name) {
			continue
		}
		if newest == nil || f.ModifiedTime > newest.ModifiedTime {
			newest = f
		}
	}
	return newest
}
