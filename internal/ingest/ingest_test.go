package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestFileSourcePortugueseHeaders(t *testing.T) {
	dir := t.TempDir()
	stockPath := writeFile(t, dir, "estoque.csv",
		"Código,Nome,Quantidade em Estoque,Preço Unitário (R$)\n"+
			"101,Parafuso,4,2.5\n"+
			"102,Arruela,10,\"0,75\"\n")
	salesPath := writeFile(t, dir, "log_vendas.csv",
		"Código,Data da Venda,Quantidade Vendida\n"+
			"101,2025-03-01,2\n"+
			"101,2025-03-02 10:30:00,4\n"+
			"102,15/04/2025,1\n")

	ds, err := Load(context.Background(), NewFileSource(stockPath, salesPath))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(ds.Stock) != 2 {
		t.Fatalf("Expected 2 stock records, got %d", len(ds.Stock))
	}
	if ds.Stock[0].ItemCode != "101" || ds.Stock[0].Name != "Parafuso" || ds.Stock[0].QuantityOnHand != 4 || ds.Stock[0].UnitPrice != 2.5 {
		t.Errorf("Unexpected first record %+v", ds.Stock[0])
	}
	if ds.Stock[1].UnitPrice != 0.75 {
		t.Errorf("Expected decimal comma price 0.75, got %v", ds.Stock[1].UnitPrice)
	}

	if len(ds.Sales) != 3 {
		t.Fatalf("Expected 3 sales, got %d", len(ds.Sales))
	}
	want := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	if !ds.Sales[2].SaleDate.Equal(want) {
		t.Errorf("Expected %v, got %v", want, ds.Sales[2].SaleDate)
	}
	if ds.Sales[1].SaleDate.Hour() != 10 {
		t.Errorf("Expected timestamp layout to keep the hour, got %v", ds.Sales[1].SaleDate)
	}
}

func TestParseStockEnglishHeadersAnyOrder(t *testing.T) {
	rows := [][]string{
		{"unit_price", " ITEM_CODE ", "quantity_on_hand", "name", "extra"},
		{"3", "A", "-2", "Alpha", "ignored"},
		{"", "", "", "", ""},
	}

	stock, err := ParseStock(rows)
	if err != nil {
		t.Fatalf("ParseStock failed: %v", err)
	}
	if len(stock) != 1 {
		t.Fatalf("Expected blank row to be skipped, got %d records", len(stock))
	}
	// negative quantities reach the core, which rejects them
	if stock[0].QuantityOnHand != -2 || stock[0].UnitPrice != 3 {
		t.Errorf("Unexpected record %+v", stock[0])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		parse   func() error
		wantErr string
		is      error
	}{
		{
			name: "missing stock column",
			parse: func() error {
				_, err := ParseStock([][]string{{"item_code", "name", "unit_price"}})
				return err
			},
			wantErr: "quantity_on_hand",
			is:      ErrMissingColumn,
		},
		{
			name: "malformed price",
			parse: func() error {
				_, err := ParseStock([][]string{
					{"item_code", "name", "quantity_on_hand", "unit_price"},
					{"A", "Alpha", "1", "1.0"},
					{"B", "Beta", "1", "abc"},
				})
				return err
			},
			wantErr: "stock row 3: unit_price",
		},
		{
			name: "bad date",
			parse: func() error {
				_, err := ParseSales([][]string{
					{"item_code", "sale_date", "quantity_sold"},
					{"A", "March 1st", "1"},
				})
				return err
			},
			wantErr: "sales row 2: sale_date",
		},
		{
			name: "negative sale",
			parse: func() error {
				_, err := ParseSales([][]string{
					{"item_code", "sale_date", "quantity_sold"},
					{"A", "2025-03-01", "-1"},
				})
				return err
			},
			wantErr: "sales row 2",
			is:      ErrNegativeSale,
		},
		{
			name: "NaN sale",
			parse: func() error {
				_, err := ParseSales([][]string{
					{"item_code", "sale_date", "quantity_sold"},
					{"A", "2025-03-05", "NaN"},
					{"A", "2025-03-06", "5"},
				})
				return err
			},
			wantErr: "sales row 2: quantity_sold: not a finite number",
		},
		{
			name: "infinite sale",
			parse: func() error {
				_, err := ParseSales([][]string{
					{"item_code", "sale_date", "quantity_sold"},
					{"A", "2025-03-05", "Inf"},
					{"A", "2025-03-06", "5"},
				})
				return err
			},
			wantErr: "sales row 2: quantity_sold: not a finite number",
		},
		{
			name: "signed infinite sale",
			parse: func() error {
				_, err := ParseSales([][]string{
					{"item_code", "sale_date", "quantity_sold"},
					{"A", "2025-03-05", "+Inf"},
					{"A", "2025-03-06", "5"},
				})
				return err
			},
			wantErr: "sales row 2: quantity_sold: not a finite number",
		},
		{
			name: "NaN price",
			parse: func() error {
				_, err := ParseStock([][]string{
					{"item_code", "name", "quantity_on_hand", "unit_price"},
					{"A", "Alpha", "1", "nan"},
				})
				return err
			},
			wantErr: "stock row 2: unit_price: not a finite number",
		},
		{
			name: "empty table",
			parse: func() error {
				_, err := ParseSales(nil)
				return err
			},
			wantErr: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse()
			if err == nil {
				t.Fatal("Expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Expected errors.Is(%v), got %v", tt.is, err)
			}
		})
	}
}

func TestFileSourceXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "estoque.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Código", "Nome", "Quantidade em Estoque", "Preço Unitário (R$)"},
		{"W1", "Widget", 4, 2},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName failed: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	f.Close()

	stock, err := NewFileSource(path, "").LoadStock(context.Background())
	if err != nil {
		t.Fatalf("LoadStock failed: %v", err)
	}
	if len(stock) != 1 || stock[0].ItemCode != "W1" || stock[0].QuantityOnHand != 4 || stock[0].UnitPrice != 2 {
		t.Errorf("Unexpected stock %+v", stock)
	}
}

func TestDetectFormat(t *testing.T) {
	if f, err := DetectFormat("a/B.XLSX"); err != nil || f != FormatXLSX {
		t.Errorf("Expected xlsx, got %v (%v)", f, err)
	}
	if f, err := DetectFormat("sales.csv"); err != nil || f != FormatCSV {
		t.Errorf("Expected csv, got %v (%v)", f, err)
	}
	if _, err := DetectFormat("sales.json"); err == nil {
		t.Error("Expected unsupported format error")
	}
}

func TestFileSourceCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFileSource("missing.csv", "").LoadStock(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
