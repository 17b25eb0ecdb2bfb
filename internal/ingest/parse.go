package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/replenishment/internal/domain"
)

// ErrMissingColumn is returned when a required header is absent
var ErrMissingColumn = errors.New("missing column")

// ErrNegativeSale is returned for sales rows with a negative quantity
var ErrNegativeSale = errors.New("negative quantity sold")

// column aliases, compared after lower-casing and trimming
var (
	stockColumns = map[string][]string{
		"item_code":        {"código", "codigo", "item_code"},
		"name":             {"nome", "name"},
		"quantity_on_hand": {"quantidade em estoque", "quantity_on_hand"},
		"unit_price":       {"preço unitário (r$)", "preco unitario (r$)", "unit_price"},
	}
	salesColumns = map[string][]string{
		"item_code":     {"código", "codigo", "item_code"},
		"sale_date":     {"data da venda", "sale_date"},
		"quantity_sold": {"quantidade vendida", "quantity_sold"},
	}
)

// SaleDateLayouts are tried in order when parsing sale dates
var SaleDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	time.RFC3339,
}

// ParseStock maps table rows (header first) to stock records
func ParseStock(rows [][]string) ([]domain.StockRecord, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("stock table is empty")
	}
	cols, err := resolveColumns(rows[0], stockColumns)
	if err != nil {
		return nil, fmt.Errorf("stock table: %w", err)
	}

	out := make([]domain.StockRecord, 0, len(rows)-1)
	for i, record := range rows[1:] {
		line := i + 2
		if blank(record) {
			continue
		}

		qoh, err := parseNumber(field(record, cols["quantity_on_hand"]))
		if err != nil {
			return nil, fmt.Errorf("stock row %d: quantity_on_hand: %w", line, err)
		}
		price, err := parseNumber(field(record, cols["unit_price"]))
		if err != nil {
			return nil, fmt.Errorf("stock row %d: unit_price: %w", line, err)
		}

		code := field(record, cols["item_code"])
		if code == "" {
			return nil, fmt.Errorf("stock row %d: item_code is empty", line)
		}

		out = append(out, domain.StockRecord{
			ItemCode:       code,
			Name:           field(record, cols["name"]),
			QuantityOnHand: qoh,
			UnitPrice:      price,
		})
	}
	return out, nil
}

// ParseSales maps table rows (header first) to sale events
func ParseSales(rows [][]string) ([]domain.SaleEvent, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sales table is empty")
	}
	cols, err := resolveColumns(rows[0], salesColumns)
	if err != nil {
		return nil, fmt.Errorf("sales table: %w", err)
	}

	out := make([]domain.SaleEvent, 0, len(rows)-1)
	for i, record := range rows[1:] {
		line := i + 2
		if blank(record) {
			continue
		}

		date, err := ParseSaleDate(field(record, cols["sale_date"]))
		if err != nil {
			return nil, fmt.Errorf("sales row %d: sale_date: %w", line, err)
		}
		qty, err := parseNumber(field(record, cols["quantity_sold"]))
		if err != nil {
			return nil, fmt.Errorf("sales row %d: quantity_sold: %w", line, err)
		}
		if qty < 0 {
			return nil, fmt.Errorf("sales row %d: %w (%v)", line, ErrNegativeSale, qty)
		}

		code := field(record, cols["item_code"])
		if code == "" {
			return nil, fmt.Errorf("sales row %d: item_code is empty", line)
		}

		out = append(out, domain.SaleEvent{
			ItemCode:     code,
			SaleDate:     date,
			QuantitySold: qty,
		})
	}
	return out, nil
}

// ParseSaleDate accepts any of SaleDateLayouts
func ParseSaleDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range SaleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func resolveColumns(header []string, aliases map[string][]string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		// a UTF-8 BOM sticks to the first header cell of spreadsheet exports
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	cols := make(map[string]int, len(aliases))
	for canonical, names := range aliases {
		found := false
		for _, name := range names {
			if i, ok := index[name]; ok {
				cols[canonical] = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w %s (accepted headers: %s)", ErrMissingColumn, canonical, strings.Join(names, ", "))
		}
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseNumber reads plain finite floats; a single comma with no dot is taken as the decimal separator
func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("value is empty")
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number %q", s)
	}
	return v, nil
}
