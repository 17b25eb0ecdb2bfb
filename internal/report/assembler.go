package report

import (
	"sort"
	"time"

	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/pipeline/replenishment"
	"github.com/shopspring/decimal"
)

// DefaultTopN is the size of the top items view
const DefaultTopN = 5

// Assembler slices a ranked result into the views the dashboards render
type Assembler struct {
	locale string
	now    func() time.Time
}

// NewAssembler creates an assembler printing month names in the given locale
func NewAssembler(locale string) *Assembler {
	if locale == "" {
		locale = DefaultLocale
	}
	return &Assembler{locale: locale, now: time.Now}
}

// Dashboard builds every view of one run. sales is the log the run was
// computed from; the monthly series is limited to filter.From..filter.To.
func (a *Assembler) Dashboard(res replenishment.Result, sales []domain.SaleEvent, filter domain.ReportFilter) domain.Dashboard {
	topN := filter.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	items := AllItems(res)

	return domain.Dashboard{
		GeneratedAt:  a.now().UTC(),
		TopItems:     TopN(res.Ranked, topN),
		RiskByName:   RiskByName(items),
		CostByName:   CostByName(items),
		StockByName:  StockByName(items),
		StockVsIdeal: StockVsIdeal(items),
		Monthly:      a.MonthlyDemand(sales, filter.From, filter.To),
		Unranked:     res.Unranked,
		Dropped:      res.Dropped,
	}
}

// AllItems returns the ranked items followed by the unranked ones
func AllItems(res replenishment.Result) []domain.ItemMetrics {
	items := make([]domain.ItemMetrics, 0, len(res.Ranked)+len(res.Unranked))
	for _, it := range res.Ranked {
		items = append(items, it.ItemMetrics)
	}
	return append(items, res.Unranked...)
}

// TopN returns a copy of the first n ranked items
func TopN(ranked []domain.ScoredItem, n int) []domain.ScoredItem {
	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]domain.ScoredItem, n)
	copy(out, ranked[:n])
	return out
}

// Page returns one page of the ranked table (pages start at 1)
func Page(ranked []domain.ScoredItem, page, pageSize int) domain.RankingPage {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	total := len(ranked)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]domain.ScoredItem, end-start)
	copy(items, ranked[start:end])

	return domain.RankingPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// RiskByName averages the stockout flag per item name, in order of first appearance
func RiskByName(items []domain.ItemMetrics) []domain.NameRisk {
	index := make(map[string]int)
	var out []domain.NameRisk
	sums := []float64{}
	for _, it := range items {
		i, ok := index[it.Name]
		if !ok {
			i = len(out)
			index[it.Name] = i
			out = append(out, domain.NameRisk{Name: it.Name})
			sums = append(sums, 0)
		}
		out[i].Items++
		sums[i] += float64(it.StockoutRisk)
	}
	for i := range out {
		out[i].MeanRisk = sums[i] / float64(out[i].Items)
	}
	if out == nil {
		out = []domain.NameRisk{}
	}
	return out
}

// CostByName sums the estimated cost per item name, cheapest first.
// Sums are accumulated in decimal and rounded to cents.
func CostByName(items []domain.ItemMetrics) []domain.NameCost {
	totals := make(map[string]decimal.Decimal)
	for _, it := range items {
		totals[it.Name] = totals[it.Name].Add(decimal.NewFromFloat(it.TotalCost))
	}

	out := make([]domain.NameCost, 0, len(totals))
	for name, total := range totals {
		rounded := total.Round(2)
		out = append(out, domain.NameCost{
			Name:      name,
			TotalCost: rounded.InexactFloat64(),
			Formatted: FormatThousands(rounded.InexactFloat64(), 2),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCost != out[j].TotalCost {
			return out[i].TotalCost < out[j].TotalCost
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// StockByName sums on-hand quantity per item name, sorted by name, with the
// share of the total in percent (two decimals).
func StockByName(items []domain.ItemMetrics) []domain.StockShare {
	totals := make(map[string]float64)
	var grand float64
	for _, it := range items {
		totals[it.Name] += it.QuantityOnHand
		grand += it.QuantityOnHand
	}

	out := make([]domain.StockShare, 0, len(totals))
	for name, qty := range totals {
		share := domain.StockShare{Name: name, Quantity: qty}
		if grand > 0 {
			share.Percent = RoundFloat(qty/grand*100, 2)
		}
		out = append(out, share)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StockVsIdeal compares the mean on-hand quantity with the mean ideal stock
func StockVsIdeal(items []domain.ItemMetrics) domain.StockComparison {
	if len(items) == 0 {
		return domain.StockComparison{}
	}
	var current, ideal float64
	for _, it := range items {
		current += it.QuantityOnHand
		ideal += it.IdealStock
	}
	n := float64(len(items))
	return domain.StockComparison{MeanCurrent: current / n, MeanIdeal: ideal / n}
}

type yearMonth struct {
	year  int
	month time.Month
}

// MonthlyDemand totals quantity sold per calendar month for sales on or after
// from and before to (zero bounds are open), oldest month first.
func (a *Assembler) MonthlyDemand(sales []domain.SaleEvent, from, to time.Time) []domain.MonthlyTotal {
	totals := make(map[yearMonth]float64)
	for _, s := range sales {
		if !from.IsZero() && s.SaleDate.Before(from) {
			continue
		}
		if !to.IsZero() && !s.SaleDate.Before(to) {
			continue
		}
		key := yearMonth{year: s.SaleDate.Year(), month: s.SaleDate.Month()}
		totals[key] += s.QuantitySold
	}

	keys := make([]yearMonth, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]domain.MonthlyTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.MonthlyTotal{
			Year:      k.year,
			Month:     int(k.month),
			MonthName: MonthName(k.month, a.locale),
			Total:     totals[k],
		})
	}
	return out
}
