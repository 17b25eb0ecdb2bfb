package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/ingest"
	"github.com/rs/zerolog/log"
)

// DatasetSource downloads the stock and sales objects and parses them locally.
// A key ending in "/" is a prefix: the lexically last CSV or XLSX object under it is used.
type DatasetSource struct {
	client   ObjectStorage
	stockKey string
	salesKey string
	dir      string
}

var _ ingest.Source = (*DatasetSource)(nil)

func NewDatasetSource(client ObjectStorage, stockKey, salesKey, downloadDir string) *DatasetSource {
	return &DatasetSource{client: client, stockKey: stockKey, salesKey: salesKey, dir: downloadDir}
}

func (s *DatasetSource) LoadStock(ctx context.Context) ([]domain.StockRecord, error) {
	local, err := s.fetch(ctx, s.stockKey)
	if err != nil {
		return nil, err
	}
	return ingest.NewFileSource(local, "").LoadStock(ctx)
}

func (s *DatasetSource) LoadSales(ctx context.Context) ([]domain.SaleEvent, error) {
	local, err := s.fetch(ctx, s.salesKey)
	if err != nil {
		return nil, err
	}
	return ingest.NewFileSource("", local).LoadSales(ctx)
}

func (s *DatasetSource) fetch(ctx context.Context, key string) (string, error) {
	key, err := s.resolveKey(ctx, key)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(s.dir, path.Base(key))
	if err := s.client.DownloadObject(ctx, key, dest); err != nil {
		return "", err
	}

	log.Info().Str("key", key).Str("path", dest).Msg("downloaded dataset object")
	return dest, nil
}

func (s *DatasetSource) resolveKey(ctx context.Context, key string) (string, error) {
	if !strings.HasSuffix(key, "/") {
		return key, nil
	}

	objects, err := s.client.ListObjects(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to list objects for prefix %s: %w", key, err)
	}

	var keys []string
	for _, obj := range objects {
		if _, err := ingest.DetectFormat(obj.Key); err == nil && !strings.HasSuffix(obj.Key, "/") {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("no dataset objects under prefix %s", key)
	}

	sort.Strings(keys)
	return keys[len(keys)-1], nil
}
