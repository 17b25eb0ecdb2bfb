package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/ingest"
	"github.com/jmoiron/sqlx"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DatasetRepository reads the stock snapshot and the sales log from two tables.
// It never writes.
type DatasetRepository struct {
	db         *DB
	stockTable string
	salesTable string
	from       time.Time
	to         time.Time
}

var _ ingest.Source = (*DatasetRepository)(nil)

// NewDatasetRepository validates the table names and returns a repository
func NewDatasetRepository(db *DB, stockTable, salesTable string) (*DatasetRepository, error) {
	for _, name := range []string{stockTable, salesTable} {
		if !identifierPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid table name %q", name)
		}
	}
	return &DatasetRepository{db: db, stockTable: stockTable, salesTable: salesTable}, nil
}

// WithSalesRange limits LoadSales to sale dates in [from, to); zero bounds are open
func (r *DatasetRepository) WithSalesRange(from, to time.Time) *DatasetRepository {
	cp := *r
	cp.from, cp.to = from, to
	return &cp
}

func (r *DatasetRepository) LoadStock(ctx context.Context) ([]domain.StockRecord, error) {
	query := fmt.Sprintf(`
		SELECT item_code, name, quantity_on_hand, unit_price
		FROM %s
		ORDER BY item_code
	`, r.stockTable)

	var rows []domain.StockRecord
	err := r.db.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &rows, query)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load stock from %s: %w", r.stockTable, err)
	}
	return rows, nil
}

func (r *DatasetRepository) LoadSales(ctx context.Context) ([]domain.SaleEvent, error) {
	where, args := buildSalesFilterClause(r.from, r.to, 1)
	query := fmt.Sprintf(`
		SELECT item_code, sale_date, quantity_sold
		FROM %s
		%s
		ORDER BY sale_date, item_code
	`, r.salesTable, where)

	var rows []domain.SaleEvent
	err := r.db.WithReadTx(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load sales from %s: %w", r.salesTable, err)
	}

	for _, s := range rows {
		if s.QuantitySold < 0 {
			return nil, fmt.Errorf("%s: item %q on %s: %w", r.salesTable, s.ItemCode, s.SaleDate.Format("2006-01-02"), ingest.ErrNegativeSale)
		}
	}
	return rows, nil
}

// buildSalesFilterClause constructs the WHERE clause of the sales query
func buildSalesFilterClause(from, to time.Time, startIndex int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if !from.IsZero() {
		clauses = append(clauses, fmt.Sprintf("sale_date >= $%d", idx))
		args = append(args, from)
		idx++
	}
	if !to.IsZero() {
		clauses = append(clauses, fmt.Sprintf("sale_date < $%d", idx))
		args = append(args, to)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}
