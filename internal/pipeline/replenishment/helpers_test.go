package replenishment

import (
	"math"
	"testing"
	"time"

	"github.com/andresuchdata/replenishment/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sale(code, date string, qty float64) domain.SaleEvent {
	return domain.SaleEvent{ItemCode: code, SaleDate: day(date), QuantitySold: qty}
}

func assertClose(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: expected %v (±%v), got %v", name, want, tol, got)
	}
}
