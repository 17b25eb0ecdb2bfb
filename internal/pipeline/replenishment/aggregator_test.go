package replenishment

import (
	"math"
	"testing"

	"github.com/andresuchdata/replenishment/internal/domain"
)

func TestDemandAggregator_MeanAndSampleStdDev(t *testing.T) {
	sales := []domain.SaleEvent{
		sale("A", "2025-03-05", 5),
		sale("A", "2025-03-20", 15),
		sale("B", "2025-03-01", 2),
		sale("B", "2025-03-02", 4),
		sale("B", "2025-03-03", 9),
	}

	stats := NewDemandAggregator().Aggregate(sales)
	if len(stats) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(stats))
	}

	a := stats["A"]
	assertClose(t, "A mean", a.MeanDemand, 10, 1e-9)
	assertClose(t, "A stddev", a.DemandStdDev, math.Sqrt(50), 1e-9)
	if !a.VarianceDefined || a.Observations != 2 {
		t.Errorf("Expected A to have 2 observations with defined variance, got %+v", a)
	}

	b := stats["B"]
	assertClose(t, "B mean", b.MeanDemand, 5, 1e-9)
	// deviations -3, -1, 4 -> 26 / 2
	assertClose(t, "B stddev", b.DemandStdDev, math.Sqrt(13), 1e-9)
}

func TestDemandAggregator_MeanPerPartition(t *testing.T) {
	groups := map[string][]float64{
		"X": {0.1, 0.2, 0.3, 0.4},
		"Y": {1e6, 1e6 + 1, 1e6 + 2},
		"Z": {7, 7, 7},
	}
	var sales []domain.SaleEvent
	for code, qty := range groups {
		for _, q := range qty {
			sales = append(sales, sale(code, "2025-01-01", q))
		}
	}

	stats := NewDemandAggregator().Aggregate(sales)
	for code, qty := range groups {
		var sum float64
		for _, q := range qty {
			sum += q
		}
		assertClose(t, code+" mean", stats[code].MeanDemand, sum/float64(len(qty)), 1e-9)
	}
	if stats["Z"].DemandStdDev != 0 || !stats["Z"].VarianceDefined {
		t.Errorf("Expected constant group to have zero but defined deviation, got %+v", stats["Z"])
	}
}

func TestDemandAggregator_SingleObservationIsUndefined(t *testing.T) {
	stats := NewDemandAggregator().Aggregate([]domain.SaleEvent{sale("A", "2025-03-05", 5)})

	a, ok := stats["A"]
	if !ok {
		t.Fatal("Expected stats for A")
	}
	if a.VarianceDefined {
		t.Error("Expected variance to be undefined for a single observation")
	}
	if math.IsNaN(a.DemandStdDev) {
		t.Error("Expected no NaN in the deviation field")
	}
	if a.MeanDemand != 5 || a.Observations != 1 {
		t.Errorf("Unexpected stats %+v", a)
	}
}

func TestDemandAggregator_EmptyLog(t *testing.T) {
	stats := NewDemandAggregator().Aggregate(nil)
	if len(stats) != 0 {
		t.Errorf("Expected no groups, got %d", len(stats))
	}
}

func TestDemandAggregator_DoesNotMutateInput(t *testing.T) {
	sales := []domain.SaleEvent{sale("A", "2025-03-05", 5), sale("A", "2025-03-20", 15)}
	before := append([]domain.SaleEvent(nil), sales...)

	NewDemandAggregator().Aggregate(sales)

	for i := range sales {
		if sales[i] != before[i] {
			t.Fatalf("Input row %d changed: %+v -> %+v", i, before[i], sales[i])
		}
	}
}
