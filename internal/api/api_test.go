package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/replenishment/internal/cache"
	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/pipeline"
	"github.com/andresuchdata/replenishment/internal/pipeline/replenishment"
	"github.com/andresuchdata/replenishment/internal/service"
	"github.com/gin-gonic/gin"
)

type memorySource struct {
	stock []domain.StockRecord
	sales []domain.SaleEvent
}

func (m *memorySource) LoadStock(ctx context.Context) ([]domain.StockRecord, error) {
	return m.stock, nil
}

func (m *memorySource) LoadSales(ctx context.Context) ([]domain.SaleEvent, error) {
	return m.sales, nil
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newTestRouter(t *testing.T, src *memorySource) (*gin.Engine, *service.ReplenishmentService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p, err := replenishment.NewPipeline(replenishment.DefaultParams())
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	orch := pipeline.NewOrchestrator(p, pipeline.DefaultPipelineConfig(p.Name()))
	svc := service.NewReplenishmentService(src, p, orch, cache.NewNoopReportCache(), service.Options{TopN: 5, Locale: "pt"})

	return NewRouter(&Services{Replenishment: svc}, []string{"*"}), svc
}

func fixture() *memorySource {
	return &memorySource{
		stock: []domain.StockRecord{
			{ItemCode: "A", Name: "Alpha", QuantityOnHand: 2, UnitPrice: 10},
			{ItemCode: "B", Name: "Beta", QuantityOnHand: 5, UnitPrice: 1},
			{ItemCode: "C", Name: "Gamma", QuantityOnHand: 1, UnitPrice: 3},
		},
		sales: []domain.SaleEvent{
			{ItemCode: "A", SaleDate: day("2025-03-01"), QuantitySold: 2},
			{ItemCode: "A", SaleDate: day("2025-03-10"), QuantitySold: 4},
			{ItemCode: "B", SaleDate: day("2025-04-01"), QuantitySold: 1},
			{ItemCode: "B", SaleDate: day("2025-04-02"), QuantitySold: 3},
			{ItemCode: "C", SaleDate: day("2025-04-05"), QuantitySold: 5},
		},
	}
}

func perform(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutesBeforeLoad(t *testing.T) {
	router, _ := newTestRouter(t, fixture())

	rec := perform(router, http.MethodGet, "/api/v1/replenishment/ranking")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before load, got %d", rec.Code)
	}

	rec = perform(router, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from health, got %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if body.Status != "loading" {
		t.Errorf("Expected loading status, got %q", body.Status)
	}
}

func TestRoutesAfterRefresh(t *testing.T) {
	router, _ := newTestRouter(t, fixture())

	if rec := perform(router, http.MethodPost, "/api/v1/replenishment/refresh"); rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from refresh, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := perform(router, http.MethodGet, "/api/v1/replenishment/ranking?page=1&page_size=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var page domain.RankingPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("Failed to decode ranking: %v", err)
	}
	if page.Total != 2 || page.TotalPages != 2 || len(page.Items) != 1 || page.Items[0].ItemCode != "A" {
		t.Errorf("Unexpected ranking page %+v", page)
	}

	rec = perform(router, http.MethodGet, "/api/v1/replenishment/unranked")
	var unranked struct {
		Items []domain.ItemMetrics `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &unranked); err != nil {
		t.Fatalf("Failed to decode unranked: %v", err)
	}
	if len(unranked.Items) != 1 || unranked.Items[0].ItemCode != "C" || !unranked.Items[0].LowConfidence {
		t.Errorf("Unexpected unranked %+v", unranked.Items)
	}

	rec = perform(router, http.MethodGet, "/api/v1/replenishment/monthly?from=2025-03-01")
	var monthly struct {
		Months []domain.MonthlyTotal `json:"months"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &monthly); err != nil {
		t.Fatalf("Failed to decode monthly: %v", err)
	}
	if len(monthly.Months) != 2 || monthly.Months[0].Total != 6 || monthly.Months[1].Total != 9 {
		t.Errorf("Unexpected monthly %+v", monthly.Months)
	}

	rec = perform(router, http.MethodGet, "/api/v1/replenishment/dashboard?top=1")
	var dash domain.Dashboard
	if err := json.Unmarshal(rec.Body.Bytes(), &dash); err != nil {
		t.Fatalf("Failed to decode dashboard: %v", err)
	}
	if len(dash.TopItems) != 1 || len(dash.CostByName) != 3 {
		t.Errorf("Unexpected dashboard %+v", dash)
	}
}

func TestRoutesRejectBadParams(t *testing.T) {
	router, svc := newTestRouter(t, fixture())
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	tests := []string{
		"/api/v1/replenishment/ranking?page=abc",
		"/api/v1/replenishment/top?n=-1",
		"/api/v1/replenishment/monthly?from=01/03/2025",
		"/api/v1/replenishment/dashboard?from=2025-04-01&to=2025-03-01",
	}

	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			if rec := perform(router, http.MethodGet, target); rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestRefreshInvalidRecord(t *testing.T) {
	src := fixture()
	src.stock[1].QuantityOnHand = -3
	router, _ := newTestRouter(t, src)

	rec := perform(router, http.MethodPost, "/api/v1/replenishment/refresh")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	if all || len(origins) != 2 || origins[1] != "http://b.test" {
		t.Errorf("Unexpected origins %v (all=%v)", origins, all)
	}
	if _, all := normalizeAllowedOrigins([]string{"*"}); !all {
		t.Error("Expected * to allow every origin")
	}
}
