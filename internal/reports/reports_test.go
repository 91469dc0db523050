package reports_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"room-reservation-api/internal/models"
	"room-reservation-api/internal/reports"
	"room-reservation-api/internal/store/gormstore"
)

func seedStore(t *testing.T) (*gormstore.Store, *models.Room, *models.Room) {
	t.Helper()
	st, err := gormstore.Open("sqlite", "file:reports_"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	roomA := &models.Room{Code: "RA", Name: "Room A", Capacity: 4, Building: "B1", DepartmentID: 1, Status: models.RoomActive}
	require.NoError(t, st.CreateRoom(ctx, roomA))
	roomB := &models.Room{Code: "RB", Name: "Room B", Capacity: 4, Building: "B1", DepartmentID: 2, Status: models.RoomActive}
	require.NoError(t, st.CreateRoom(ctx, roomB))

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	seed := []models.Reservation{
		{RoomID: roomA.ID, UserID: 1, Title: "a1", StartAt: base, EndAt: base.Add(2 * time.Hour), Status: models.StatusFinished},
		{RoomID: roomA.ID, UserID: 2, Title: "a2", StartAt: base.Add(24 * time.Hour), EndAt: base.Add(25 * time.Hour), Status: models.StatusCancelled},
		{RoomID: roomB.ID, UserID: 1, Title: "b1", StartAt: base.Add(48 * time.Hour), EndAt: base.Add(51 * time.Hour), Status: models.StatusConfirmed},
	}
	for i := range seed {
		require.NoError(t, st.CreateReservation(ctx, &seed[i]))
	}
	return st, roomA, roomB
}

func TestUsageAggregatesPerRoom(t *testing.T) {
	st, roomA, roomB := seedStore(t)
	svc := reports.NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	rows, err := svc.Usage(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byRoom := map[int64]reports.UsageRow{}
	for _, r := range rows {
		byRoom[r.RoomID] = r
	}
	require.Equal(t, 2, byRoom[roomA.ID].Count)
	require.InDelta(t, 3.0, byRoom[roomA.ID].Hours, 0.001)
	require.Equal(t, 1, byRoom[roomB.ID].Count)
	require.InDelta(t, 3.0, byRoom[roomB.ID].Hours, 0.001)
}

func TestDepartmentUsageGroupsByRoomDepartment(t *testing.T) {
	st, _, _ := seedStore(t)
	svc := reports.NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	rows, err := svc.DepartmentUsage(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byDept := map[int64]reports.DepartmentUsageRow{}
	for _, r := range rows {
		byDept[r.DepartmentID] = r
	}
	require.Equal(t, 2, byDept[1].Count)
	require.Equal(t, 1, byDept[2].Count)
}

func TestUserActivityCountsCancellations(t *testing.T) {
	st, _, _ := seedStore(t)
	svc := reports.NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	rows, err := svc.UserActivity(context.Background(), start, end)
	require.NoError(t, err)

	byUser := map[int64]reports.UserActivityRow{}
	for _, r := range rows {
		byUser[r.UserID] = r
	}
	require.Equal(t, 2, byUser[1].Created)
	require.Equal(t, 0, byUser[1].Cancelled)
	require.Equal(t, 1, byUser[2].Created)
	require.Equal(t, 1, byUser[2].Cancelled)
}

func TestStatisticsSummary(t *testing.T) {
	st, _, _ := seedStore(t)
	svc := reports.NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	stats, err := svc.Statistics(context.Background(), start, end)
	require.NoError(t, err)

	require.Equal(t, 3, stats.TotalReservations)
	require.Equal(t, 1, stats.Confirmed)
	require.Equal(t, 1, stats.Cancelled)
	require.Equal(t, 1, stats.Finished)
	require.InDelta(t, 2.0, stats.AverageHours, 0.001)
}

func TestStatisticsEmptyRange(t *testing.T) {
	st, _, _ := seedStore(t)
	svc := reports.NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 2, 1, 0, 0, 0, 0, time.UTC)
	stats, err := svc.Statistics(context.Background(), start, end)
	require.NoError(t, err)
	require.Equal(t, 0, stats.TotalReservations)
	require.Zero(t, stats.AverageHours)
}
