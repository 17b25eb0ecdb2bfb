package ingest

import (
	"context"

	"github.com/andresuchdata/replenishment/internal/domain"
)

// Source yields one stock snapshot and its sales log
type Source interface {
	LoadStock(ctx context.Context) ([]domain.StockRecord, error)
	LoadSales(ctx context.Context) ([]domain.SaleEvent, error)
}

// Dataset is a loaded pair of inputs
type Dataset struct {
	Stock []domain.StockRecord
	Sales []domain.SaleEvent
}

// Load reads both tables from src
func Load(ctx context.Context, src Source) (Dataset, error) {
	stock, err := src.LoadStock(ctx)
	if err != nil {
		return Dataset{}, err
	}
	sales, err := src.LoadSales(ctx)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Stock: stock, Sales: sales}, nil
}
