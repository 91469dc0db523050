package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"room-reservation-api/internal/clock"
	"room-reservation-api/internal/reports"
)

// ReportHandler exposes the read-only aggregate endpoints, gated to
// managers and admins at the route level.
type ReportHandler struct {
	reports  *reports.Service
	calendar *clock.Calendar
}

func NewReportHandler(svc *reports.Service, cal *clock.Calendar) *ReportHandler {
	return &ReportHandler{reports: svc, calendar: cal}
}

func (h *ReportHandler) Usage(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}
	rows, err := h.reports.Usage(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ReportHandler) Occupancy(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}
	available := businessHoursBetween(h.calendar, start, end)
	rows, err := h.reports.Occupancy(c.Request.Context(), start, end, available)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ReportHandler) DepartmentUsage(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}
	rows, err := h.reports.DepartmentUsage(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ReportHandler) UserActivity(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}
	rows, err := h.reports.UserActivity(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ReportHandler) Statistics(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}
	stats, err := h.reports.Statistics(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// businessHoursBetween walks each day in [start, end) and sums the
// open window's length, skipping holidays and closed weekdays.
func businessHoursBetween(cal *clock.Calendar, start, end time.Time) float64 {
	var total float64
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for day.Before(end) {
		if !cal.IsHoliday(day) {
			w := cal.Window(day)
			if !w.Closed {
				total += (w.Close - w.Open).Hours()
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return total
}
