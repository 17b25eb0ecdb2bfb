package domain

import "time"

// NameRisk is the mean stockout risk of all items sharing a name
type NameRisk struct {
	Name     string  `json:"name"`
	MeanRisk float64 `json:"mean_risk"`
	Items    int     `json:"items"`
}

// NameCost is the summed estimated cost of all items sharing a name
type NameCost struct {
	Name      string  `json:"name"`
	TotalCost float64 `json:"total_cost"`
	Formatted string  `json:"formatted"` // e.g. "11.166,70"
}

// StockShare is one slice of the on-hand stock distribution
type StockShare struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Percent  float64 `json:"percent"`
}

// StockComparison contrasts the average current stock with the average ideal stock
type StockComparison struct {
	MeanCurrent float64 `json:"mean_current"`
	MeanIdeal   float64 `json:"mean_ideal"`
}

// MonthlyTotal is the total quantity sold in a calendar month
type MonthlyTotal struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	MonthName string  `json:"month_name"`
	Total     float64 `json:"total"`
}

// DropStats counts item codes lost by the stock/sales inner join
type DropStats struct {
	StockOnly int `json:"stock_only"`
	SalesOnly int `json:"sales_only"`
}

// Dashboard aggregates all report views of a single run
type Dashboard struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	TopItems     []ScoredItem    `json:"top_items"`
	RiskByName   []NameRisk      `json:"risk_by_name"`
	CostByName   []NameCost      `json:"cost_by_name"`
	StockByName  []StockShare    `json:"stock_by_name"`
	StockVsIdeal StockComparison `json:"stock_vs_ideal"`
	Monthly      []MonthlyTotal  `json:"monthly"`
	Unranked     []ItemMetrics   `json:"unranked"`
	Dropped      DropStats       `json:"dropped"`
}

// RankingPage is a paginated slice of the ranked table
type RankingPage struct {
	Items      []ScoredItem `json:"items"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// ReportFilter narrows the sales log before a run and shapes the dashboard
type ReportFilter struct {
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	TopN     int       `json:"top_n"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}
