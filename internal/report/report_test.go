package report

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/pipeline/replenishment"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func metrics(code, name string, qoh, ideal, cost float64, risk int) domain.ItemMetrics {
	return domain.ItemMetrics{
		StockRecord:  domain.StockRecord{ItemCode: code, Name: name, QuantityOnHand: qoh},
		IdealStock:   ideal,
		TotalCost:    cost,
		StockoutRisk: risk,
	}
}

func TestMonthlyDemand(t *testing.T) {
	sales := []domain.SaleEvent{
		{ItemCode: "A", SaleDate: day("2025-02-27"), QuantitySold: 9},
		{ItemCode: "A", SaleDate: day("2025-03-02"), QuantitySold: 2},
		{ItemCode: "B", SaleDate: day("2025-03-20"), QuantitySold: 3},
		{ItemCode: "A", SaleDate: day("2025-04-01"), QuantitySold: 7},
	}

	got := NewAssembler("pt").MonthlyDemand(sales, day("2025-03-01"), time.Time{})
	if len(got) != 2 {
		t.Fatalf("Expected 2 months, got %d: %+v", len(got), got)
	}

	want := []domain.MonthlyTotal{
		{Year: 2025, Month: 3, MonthName: "Março", Total: 5},
		{Year: 2025, Month: 4, MonthName: "Abril", Total: 7},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Month %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestMonthlyDemandUpperBoundExclusive(t *testing.T) {
	sales := []domain.SaleEvent{
		{ItemCode: "A", SaleDate: day("2025-03-31"), QuantitySold: 1},
		{ItemCode: "A", SaleDate: day("2025-04-01"), QuantitySold: 4},
	}

	got := NewAssembler("en").MonthlyDemand(sales, time.Time{}, day("2025-04-01"))
	if len(got) != 1 || got[0].Total != 1 || got[0].MonthName != "March" {
		t.Fatalf("Expected only March with total 1, got %+v", got)
	}
}

func TestMonthlyDemandSeparatesYears(t *testing.T) {
	sales := []domain.SaleEvent{
		{ItemCode: "A", SaleDate: day("2025-01-10"), QuantitySold: 1},
		{ItemCode: "A", SaleDate: day("2024-01-10"), QuantitySold: 2},
	}

	got := NewAssembler("").MonthlyDemand(sales, time.Time{}, time.Time{})
	if len(got) != 2 {
		t.Fatalf("Expected 2 buckets, got %+v", got)
	}
	if got[0].Year != 2024 || got[1].Year != 2025 {
		t.Errorf("Expected 2024 before 2025, got %+v", got)
	}
}

func TestMonthName(t *testing.T) {
	tests := []struct {
		month  time.Month
		locale string
		want   string
	}{
		{time.January, "pt", "Janeiro"},
		{time.December, "pt-BR", "Dezembro"},
		{time.March, "en", "March"},
		{time.May, "EN_us", "May"},
		{time.June, "fr", "Junho"},
		{time.Month(13), "pt", ""},
	}

	for _, tt := range tests {
		t.Run(tt.locale+"/"+tt.want, func(t *testing.T) {
			if got := MonthName(tt.month, tt.locale); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		decimals int
		want     string
	}{
		{"small", 12.5, 2, "12,50"},
		{"thousands", 11166.7, 2, "11.166,70"},
		{"millions", 1234567.891, 2, "1.234.567,89"},
		{"whole", 1000, 2, "1.000"},
		{"negative", -2500.25, 2, "-2.500,25"},
		{"no decimals", 98765.4, 0, "98.765"},
		{"leading zero fraction", 3.05, 2, "3,05"},
		{"nan", math.NaN(), 2, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatThousands(tt.v, tt.decimals); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRiskByNameKeepsFirstAppearance(t *testing.T) {
	items := []domain.ItemMetrics{
		metrics("1", "Parafuso", 0, 0, 0, 1),
		metrics("2", "Arruela", 0, 0, 0, 0),
		metrics("3", "Parafuso", 0, 0, 0, 0),
	}

	got := RiskByName(items)
	if len(got) != 2 {
		t.Fatalf("Expected 2 names, got %+v", got)
	}
	if got[0].Name != "Parafuso" || got[0].MeanRisk != 0.5 || got[0].Items != 2 {
		t.Errorf("Unexpected first entry %+v", got[0])
	}
	if got[1].Name != "Arruela" || got[1].MeanRisk != 0 {
		t.Errorf("Unexpected second entry %+v", got[1])
	}

	if empty := RiskByName(nil); empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", empty)
	}
}

func TestCostByNameSortedAscending(t *testing.T) {
	items := []domain.ItemMetrics{
		metrics("1", "Martelo", 0, 0, 10000.1, 0),
		metrics("2", "Prego", 0, 0, 0.1, 0),
		metrics("3", "Prego", 0, 0, 0.2, 0),
		metrics("4", "Martelo", 0, 0, 1166.6, 0),
	}

	got := CostByName(items)
	if len(got) != 2 {
		t.Fatalf("Expected 2 names, got %+v", got)
	}
	if got[0].Name != "Prego" || got[0].TotalCost != 0.3 {
		t.Errorf("Expected Prego with 0.3 first, got %+v", got[0])
	}
	if got[1].Name != "Martelo" || got[1].Formatted != "11.166,70" {
		t.Errorf("Expected Martelo formatted as 11.166,70, got %+v", got[1])
	}
}

func TestStockByNameShares(t *testing.T) {
	items := []domain.ItemMetrics{
		metrics("1", "B", 30, 0, 0, 0),
		metrics("2", "A", 10, 0, 0, 0),
		metrics("3", "B", 40, 0, 0, 0),
	}

	got := StockByName(items)
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Fatalf("Expected A then B, got %+v", got)
	}
	if got[0].Percent != 12.5 || got[1].Percent != 87.5 {
		t.Errorf("Expected 12.5/87.5, got %v/%v", got[0].Percent, got[1].Percent)
	}
	if got[1].Quantity != 70 {
		t.Errorf("Expected quantity 70, got %v", got[1].Quantity)
	}
}

func TestStockVsIdeal(t *testing.T) {
	items := []domain.ItemMetrics{
		metrics("1", "A", 10, 20, 0, 1),
		metrics("2", "B", 30, 10, 0, 0),
	}

	got := StockVsIdeal(items)
	if got.MeanCurrent != 20 || got.MeanIdeal != 15 {
		t.Errorf("Expected 20/15, got %+v", got)
	}
	if zero := StockVsIdeal(nil); zero != (domain.StockComparison{}) {
		t.Errorf("Expected zero comparison, got %+v", zero)
	}
}

func TestTopNAndPage(t *testing.T) {
	ranked := make([]domain.ScoredItem, 7)
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if got := TopN(ranked, 5); len(got) != 5 || got[4].Rank != 5 {
		t.Errorf("Expected first 5 items, got %+v", got)
	}
	if got := TopN(ranked, 50); len(got) != 7 {
		t.Errorf("Expected all 7 items, got %d", len(got))
	}

	page := Page(ranked, 2, 3)
	if page.Total != 7 || page.TotalPages != 3 || len(page.Items) != 3 || page.Items[0].Rank != 4 {
		t.Errorf("Unexpected page %+v", page)
	}

	last := Page(ranked, 3, 3)
	if len(last.Items) != 1 || last.Items[0].Rank != 7 {
		t.Errorf("Unexpected last page %+v", last)
	}

	beyond := Page(ranked, 9, 3)
	if len(beyond.Items) != 0 {
		t.Errorf("Expected empty page, got %+v", beyond)
	}
}

func TestDashboard(t *testing.T) {
	res := replenishment.Result{
		Ranked: []domain.ScoredItem{
			{ItemMetrics: metrics("1", "A", 10, 20, 40, 1), Rank: 1},
			{ItemMetrics: metrics("2", "B", 30, 10, 20, 0), Rank: 2},
		},
		Unranked: []domain.ItemMetrics{metrics("3", "A", 5, 5, 10, 0)},
		Dropped:  domain.DropStats{StockOnly: 1},
	}
	sales := []domain.SaleEvent{
		{ItemCode: "1", SaleDate: day("2025-03-02"), QuantitySold: 2},
	}

	a := NewAssembler("pt")
	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	d := a.Dashboard(res, sales, domain.ReportFilter{TopN: 1})
	if !d.GeneratedAt.Equal(fixed) {
		t.Errorf("Expected generated_at %v, got %v", fixed, d.GeneratedAt)
	}
	if len(d.TopItems) != 1 || d.TopItems[0].ItemCode != "1" {
		t.Errorf("Unexpected top items %+v", d.TopItems)
	}
	if len(d.RiskByName) != 2 || d.RiskByName[0].Items != 2 {
		t.Errorf("Expected unranked items to count in risk by name, got %+v", d.RiskByName)
	}
	if len(d.Monthly) != 1 || d.Monthly[0].MonthName != "Março" {
		t.Errorf("Unexpected monthly %+v", d.Monthly)
	}
	if d.Dropped.StockOnly != 1 || len(d.Unranked) != 1 {
		t.Errorf("Unexpected dropped/unranked %+v / %+v", d.Dropped, d.Unranked)
	}
}

func TestWriteRankedCSV(t *testing.T) {
	ranked := []domain.ScoredItem{
		{ItemMetrics: metrics("W1", "Widget", 4, 12.5, 25, 1), ReorderScore: 0.75, Rank: 1},
	}

	var buf bytes.Buffer
	if err := WriteRankedCSV(&buf, ranked); err != nil {
		t.Fatalf("WriteRankedCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read back CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected header plus 1 row, got %d", len(rows))
	}
	if rows[0][1] != "item_code" || rows[0][len(rows[0])-1] != "low_confidence" {
		t.Errorf("Unexpected header %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "W1" || rows[1][8] != "12.5" || rows[1][14] != "0.75" {
		t.Errorf("Unexpected row %v", rows[1])
	}
}
