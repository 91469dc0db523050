// Package reports implements the read-only usage and occupancy
// aggregates, gated to managers and admins at the HTTP gateway.
package reports

import (
	"context"
	"log/slog"
	"time"

	"room-reservation-api/internal/models"
	"room-reservation-api/internal/store"
)

// maxReportRows caps every aggregate's underlying listing. A window
// holding more reservations than this is still served, but undercounted;
// listWindow logs the truncation so the cap is never silent.
const maxReportRows = 1000

type Service struct {
	store  store.Store
	logger *slog.Logger
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// listWindow fetches the reservations overlapping [start, end) and warns
// when the result filled the row cap, meaning the aggregates computed
// from it may be incomplete.
func (s *Service) listWindow(ctx context.Context, start, end time.Time) ([]models.Reservation, error) {
	reservations, err := s.store.ListReservations(ctx, store.ReservationFilter{Start: &start, End: &end, Limit: maxReportRows})
	if err != nil {
		return nil, err
	}
	if len(reservations) == maxReportRows {
		s.logger.Warn("report query hit the listing cap, aggregates may undercount",
			"limit", maxReportRows, "start", start, "end", end)
	}
	return reservations, nil
}

type UsageRow struct {
	RoomID int64   `json:"room_id"`
	Count  int     `json:"reservation_count"`
	Hours  float64 `json:"total_hours"`
}

// Usage aggregates reservation counts and booked hours per room over
// [start, end).
func (s *Service) Usage(ctx context.Context, start, end time.Time) ([]UsageRow, error) {
	reservations, err := s.listWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	totals := map[int64]*UsageRow{}
	for _, r := range reservations {
		row, ok := totals[r.RoomID]
		if !ok {
			row = &UsageRow{RoomID: r.RoomID}
			totals[r.RoomID] = row
		}
		row.Count++
		row.Hours += r.Duration().Hours()
	}
	out := make([]UsageRow, 0, len(totals))
	for _, row := range totals {
		out = append(out, *row)
	}
	return out, nil
}

type OccupancyRow struct {
	RoomID           int64   `json:"room_id"`
	BookedHours      float64 `json:"booked_hours"`
	BusinessHours    float64 `json:"business_hours_in_range"`
	OccupancyPercent float64 `json:"occupancy_percent"`
}

// Occupancy expresses booked hours as a percentage of the business-hours
// capacity available in the range, per room. businessHoursAvailable is
// supplied by the caller since it depends on the Clock & Calendar
// component, which this package does not otherwise depend on.
func (s *Service) Occupancy(ctx context.Context, start, end time.Time, businessHoursAvailable float64) ([]OccupancyRow, error) {
	usage, err := s.Usage(ctx, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]OccupancyRow, 0, len(usage))
	for _, u := range usage {
		pct := 0.0
		if businessHoursAvailable > 0 {
			pct = (u.Hours / businessHoursAvailable) * 100
		}
		out = append(out, OccupancyRow{RoomID: u.RoomID, BookedHours: u.Hours, BusinessHours: businessHoursAvailable, OccupancyPercent: pct})
	}
	return out, nil
}

type DepartmentUsageRow struct {
	DepartmentID int64   `json:"department_id"`
	Count        int     `json:"reservation_count"`
	Hours        float64 `json:"total_hours"`
}

// DepartmentUsage aggregates by the department owning each reservation's
// room.
func (s *Service) DepartmentUsage(ctx context.Context, start, end time.Time) ([]DepartmentUsageRow, error) {
	reservations, err := s.listWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	roomDept := map[int64]int64{}
	totals := map[int64]*DepartmentUsageRow{}
	for _, r := range reservations {
		dept, ok := roomDept[r.RoomID]
		if !ok {
			room, err := s.store.GetRoom(ctx, r.RoomID)
			if err != nil {
				continue
			}
			dept = room.DepartmentID
			roomDept[r.RoomID] = dept
		}
		row, ok := totals[dept]
		if !ok {
			row = &DepartmentUsageRow{DepartmentID: dept}
			totals[dept] = row
		}
		row.Count++
		row.Hours += r.Duration().Hours()
	}
	out := make([]DepartmentUsageRow, 0, len(totals))
	for _, row := range totals {
		out = append(out, *row)
	}
	return out, nil
}

type UserActivityRow struct {
	UserID    int64 `json:"user_id"`
	Created   int   `json:"created"`
	Cancelled int   `json:"cancelled"`
}

func (s *Service) UserActivity(ctx context.Context, start, end time.Time) ([]UserActivityRow, error) {
	reservations, err := s.listWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	totals := map[int64]*UserActivityRow{}
	for _, r := range reservations {
		row, ok := totals[r.UserID]
		if !ok {
			row = &UserActivityRow{UserID: r.UserID}
			totals[r.UserID] = row
		}
		row.Created++
		if r.Status == models.StatusCancelled {
			row.Cancelled++
		}
	}
	out := make([]UserActivityRow, 0, len(totals))
	for _, row := range totals {
		out = append(out, *row)
	}
	return out, nil
}

type Statistics struct {
	TotalReservations int     `json:"total_reservations"`
	Confirmed         int     `json:"confirmed"`
	Pending           int     `json:"pending"`
	Cancelled         int     `json:"cancelled"`
	Finished          int     `json:"finished"`
	AverageHours      float64 `json:"average_hours"`
}

func (s *Service) Statistics(ctx context.Context, start, end time.Time) (Statistics, error) {
	reservations, err := s.listWindow(ctx, start, end)
	if err != nil {
		return Statistics{}, err
	}
	var stat Statistics
	var totalHours float64
	for _, r := range reservations {
		stat.TotalReservations++
		totalHours += r.Duration().Hours()
		switch r.Status {
		case models.StatusConfirmed, models.StatusInProgress:
			stat.Confirmed++
		case models.StatusPending:
			stat.Pending++
		case models.StatusCancelled:
			stat.Cancelled++
		case models.StatusFinished:
			stat.Finished++
		}
	}
	if stat.TotalReservations > 0 {
		stat.AverageHours = totalHours / float64(stat.TotalReservations)
	}
	return stat, nil
}
