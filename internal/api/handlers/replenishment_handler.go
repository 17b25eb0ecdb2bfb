package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/andresuchdata/replenishment/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// ReplenishmentService is what the handler needs from the service layer
type ReplenishmentService interface {
	Reload(ctx context.Context) error
	Status() service.Status
	Ranking(page, pageSize int) (domain.RankingPage, error)
	Top(n int) ([]domain.ScoredItem, error)
	Unranked() ([]domain.ItemMetrics, error)
	Monthly(from, to time.Time) ([]domain.MonthlyTotal, error)
	Dashboard(ctx context.Context, filter domain.ReportFilter) (*domain.Dashboard, error)
}

type ReplenishmentHandler struct {
	service ReplenishmentService
}

func NewReplenishmentHandler(svc ReplenishmentService) *ReplenishmentHandler {
	return &ReplenishmentHandler{service: svc}
}

// errBadParam marks query parameter errors
var errBadParam = errors.New("bad query parameter")

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", errBadParam, name, raw)
	}
	return v, nil
}

func queryDate(c *gin.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", errBadParam, name, raw)
	}
	return t, nil
}

func (h *ReplenishmentHandler) parseRange(c *gin.Context) (time.Time, time.Time, error) {
	from, err := queryDate(c, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be after from", errBadParam)
	}
	return from, to, nil
}

// writeError maps service errors onto status codes
func writeError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadParam):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDatasetNotLoaded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidRecord):
		status = http.StatusUnprocessableEntity
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	}
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func (h *ReplenishmentHandler) GetRanking(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		writeError(c, "invalid ranking query", err)
		return
	}
	size, err := queryInt(c, "page_size", 50)
	if err != nil {
		writeError(c, "invalid ranking query", err)
		return
	}

	result, err := h.service.Ranking(page, size)
	if err != nil {
		writeError(c, "failed to fetch ranking", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ReplenishmentHandler) GetTop(c *gin.Context) {
	n, err := queryInt(c, "n", 0)
	if err != nil {
		writeError(c, "invalid top query", err)
		return
	}

	items, err := h.service.Top(n)
	if err != nil {
		writeError(c, "failed to fetch top items", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ReplenishmentHandler) GetUnranked(c *gin.Context) {
	items, err := h.service.Unranked()
	if err != nil {
		writeError(c, "failed to fetch unranked items", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ReplenishmentHandler) GetMonthly(c *gin.Context) {
	from, to, err := h.parseRange(c)
	if err != nil {
		writeError(c, "invalid monthly query", err)
		return
	}

	months, err := h.service.Monthly(from, to)
	if err != nil {
		writeError(c, "failed to fetch monthly demand", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"months": months})
}

func (h *ReplenishmentHandler) GetDashboard(c *gin.Context) {
	from, to, err := h.parseRange(c)
	if err != nil {
		writeError(c, "invalid dashboard query", err)
		return
	}
	top, err := queryInt(c, "top", 0)
	if err != nil {
		writeError(c, "invalid dashboard query", err)
		return
	}

	d, err := h.service.Dashboard(c.Request.Context(), domain.ReportFilter{From: from, To: to, TopN: top})
	if err != nil {
		writeError(c, "failed to build dashboard", err)
		return
	}

	c.JSON(http.StatusOK, d)
}

func (h *ReplenishmentHandler) PostRefresh(c *gin.Context) {
	if err := h.service.Reload(c.Request.Context()); err != nil {
		writeError(c, "failed to refresh dataset", err)
		return
	}

	c.JSON(http.StatusOK, h.service.Status())
}

func (h *ReplenishmentHandler) GetHealth(c *gin.Context) {
	st := h.service.Status()
	status := "ok"
	if !st.Loaded {
		status = "loading"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "dataset": st})
}
