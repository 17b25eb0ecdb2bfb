package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/replenishment/internal/domain"
)

// FileSource reads the two tables from local CSV or XLSX files
type FileSource struct {
	StockPath string
	SalesPath string
}

// NewFileSource creates a file source for the given paths
func NewFileSource(stockPath, salesPath string) *FileSource {
	return &FileSource{StockPath: stockPath, SalesPath: salesPath}
}

func (s *FileSource) LoadStock(ctx context.Context) ([]domain.StockRecord, error) {
	rows, err := readFile(ctx, s.StockPath)
	if err != nil {
		return nil, err
	}
	stock, err := ParseStock(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.StockPath, err)
	}
	return stock, nil
}

func (s *FileSource) LoadSales(ctx context.Context) ([]domain.SaleEvent, error) {
	rows, err := readFile(ctx, s.SalesPath)
	if err != nil {
		return nil, err
	}
	sales, err := ParseSales(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.SalesPath, err)
	}
	return sales, nil
}

func readFile(ctx context.Context, path string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	rows, err := ReadTable(file, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}
