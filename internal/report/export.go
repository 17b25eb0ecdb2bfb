package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/andresuchdata/replenishment/internal/domain"
)

// RankedCSVHeader is the column order of the ranked export
var RankedCSVHeader = []string{
	"rank",
	"item_code",
	"name",
	"quantity_on_hand",
	"unit_price",
	"mean_demand",
	"demand_stddev",
	"safety_stock",
	"ideal_stock",
	"stockout_risk",
	"total_cost",
	"mean_demand_norm",
	"unit_price_norm",
	"stockout_risk_norm",
	"reorder_score",
	"low_confidence",
}

// WriteRankedCSV writes the ranked table with a header row
func WriteRankedCSV(w io.Writer, ranked []domain.ScoredItem) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(RankedCSVHeader); err != nil {
		return err
	}

	for _, it := range ranked {
		record := []string{
			strconv.Itoa(it.Rank),
			it.ItemCode,
			it.Name,
			formatFloat(it.QuantityOnHand),
			formatFloat(it.UnitPrice),
			formatFloat(it.MeanDemand),
			formatFloat(it.DemandStdDev),
			formatFloat(it.SafetyStock),
			formatFloat(it.IdealStock),
			strconv.Itoa(it.StockoutRisk),
			formatFloat(it.TotalCost),
			formatFloat(it.MeanDemandNorm),
			formatFloat(it.UnitPriceNorm),
			formatFloat(it.StockoutRiskNorm),
			formatFloat(it.ReorderScore),
			strconv.FormatBool(it.LowConfidence),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteRankedCSVFile writes the ranked table to path, truncating any existing file
func WriteRankedCSVFile(path string, ranked []domain.ScoredItem) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteRankedCSV(file, ranked); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
