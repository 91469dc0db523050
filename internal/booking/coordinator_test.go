package booking

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"room-reservation-api/internal/apperr"
	"room-reservation-api/internal/clock"
	"room-reservation-api/internal/config"
	"room-reservation-api/internal/events"
	"room-reservation-api/internal/models"
	"room-reservation-api/internal/policy"
	"room-reservation-api/internal/store"
)

// memStore is a minimal in-memory store.Store used only to exercise the
// Booking Coordinator's control flow in isolation from any SQL driver.
type memStore struct {
	mu           sync.Mutex
	rooms        map[int64]*models.Room
	users        map[int64]*models.User
	reservations map[int64]*models.Reservation
	nextID       int64
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        map[int64]*models.Room{},
		users:        map[int64]*models.User{},
		reservations: map[int64]*models.Reservation{},
		nextID:       1,
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn store.TxFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m)
}

func (m *memStore) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "room not found")
	}
	cp := *r
	return &cp, nil
}
func (m *memStore) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) { return nil, nil }
func (m *memStore) ListRooms(ctx context.Context) ([]models.Room, error)                 { return nil, nil }
func (m *memStore) ListAvailableRooms(ctx context.Context, start, end time.Time, departmentID *int64, minCapacity *int) ([]models.Room, error) {
	return nil, nil
}
func (m *memStore) CreateRoom(ctx context.Context, r *models.Room) error { return nil }
func (m *memStore) UpdateRoom(ctx context.Context, r *models.Room) error { return nil }
func (m *memStore) DeleteRoom(ctx context.Context, id int64) error      { return nil }
func (m *memStore) RoomHasActiveReservations(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func (m *memStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	cp := *u
	return &cp, nil
}
func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) { return nil, nil }
func (m *memStore) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) { return nil, nil }
func (m *memStore) CreateUser(ctx context.Context, u *models.User) error { return nil }
func (m *memStore) UpdateUser(ctx context.Context, u *models.User) error { return nil }

func (m *memStore) GetDepartment(ctx context.Context, id int64) (*models.Department, error) { return nil, nil }
func (m *memStore) GetDepartmentByCode(ctx context.Context, code string) (*models.Department, error) {
	return nil, nil
}
func (m *memStore) ListDepartments(ctx context.Context) ([]models.Department, error) { return nil, nil }
func (m *memStore) CreateDepartment(ctx context.Context, d *models.Department) error { return nil }
func (m *memStore) UpdateDepartment(ctx context.Context, d *models.Department) error { return nil }
func (m *memStore) DeleteDepartment(ctx context.Context, id int64) error             { return nil }
func (m *memStore) DepartmentInUse(ctx context.Context, id int64) (bool, error)      { return false, nil }

func (m *memStore) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "reservation not found")
	}
	cp := *r
	return &cp, nil
}
func (m *memStore) GetReservationForUpdate(ctx context.Context, id int64) (*models.Reservation, error) {
	return m.GetReservation(ctx, id)
}
func (m *memStore) CreateReservation(ctx context.Context, r *models.Reservation) error {
	r.ID = m.nextID
	m.nextID++
	cp := *r
	m.reservations[r.ID] = &cp
	return nil
}
func (m *memStore) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	cp := *r
	m.reservations[r.ID] = &cp
	return nil
}
func (m *memStore) ListReservations(ctx context.Context, f store.ReservationFilter) ([]models.Reservation, error) {
	return nil, nil
}
func (m *memStore) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Reservation, error) {
	return nil, nil
}
func (m *memStore) ListByRoom(ctx context.Context, roomID int64, limit, offset int) ([]models.Reservation, error) {
	return nil, nil
}
func (m *memStore) ListPending(ctx context.Context) ([]models.Reservation, error) { return nil, nil }
func (m *memStore) ListDueForTransition(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	return nil, nil
}
func (m *memStore) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	return nil, nil
}
func (m *memStore) ListUpcomingForReminder(ctx context.Context, now, horizon time.Time) ([]models.Reservation, error) {
	return nil, nil
}
func (m *memStore) ListTerminalOlderThan(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	return nil, nil
}
func (m *memStore) ArchiveOlderThan(ctx context.Context, cutoff, now time.Time) (int, error) {
	return 0, nil
}
func (m *memStore) BulkUpdateStatus(ctx context.Context, f store.ReservationFilter, newStatus models.ReservationStatus) (int, error) {
	return 0, nil
}

func (m *memStore) Overlapping(ctx context.Context, roomID int64, start, end time.Time, excluding *int64) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, r := range m.reservations {
		if r.RoomID != roomID || !r.Status.IsActive() {
			continue
		}
		if excluding != nil && r.ID == *excluding {
			continue
		}
		if r.Overlaps(start, end) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func setup(t *testing.T) (*Coordinator, *memStore, *clock.Fake) {
	t.Helper()
	ms := newMemStore()
	ms.rooms[1] = &models.Room{ID: 1, Status: models.RoomActive, DepartmentID: 1, Capacity: 10}
	ms.users[1] = &models.User{ID: 1, Role: models.RoleManager, DepartmentID: ptr(int64(1))}
	ms.users[2] = &models.User{ID: 2, Role: models.RoleManager, DepartmentID: ptr(int64(1))}

	cal := clock.NewCalendar([]config.Holiday{{Month: time.April, Day: 21}}, map[time.Weekday]config.BusinessWindow{
		time.Monday: {Open: 7 * time.Hour, Close: 22 * time.Hour}, time.Tuesday: {Open: 7 * time.Hour, Close: 22 * time.Hour},
		time.Wednesday: {Open: 7 * time.Hour, Close: 22 * time.Hour}, time.Thursday: {Open: 7 * time.Hour, Close: 22 * time.Hour},
		time.Friday: {Open: 7 * time.Hour, Close: 22 * time.Hour}, time.Saturday: {Open: 8 * time.Hour, Close: 18 * time.Hour},
		time.Sunday: {Closed: true},
	})
	fc := clock.NewFake(time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC))
	eng := policy.NewEngine(cal)
	bus := events.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewCoordinator(ms, eng, fc, bus), ms, fc
}

func ptr[T any](v T) *T { return &v }

func TestCreate_HappyPath(t *testing.T) {
	c, _, fc := setup(t)
	res, err := c.Create(context.Background(), CreateInput{
		RequesterID: 1, RoomID: 1, Title: "Team sync",
		StartAt: fc.Now().Add(4 * time.Hour), EndAt: fc.Now().Add(5 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusConfirmed, res.Status)
	require.NotNil(t, res.ApprovedBy)
}

func TestCreate_ConflictRejectsSecond(t *testing.T) {
	c, _, fc := setup(t)
	start := fc.Now().Add(4 * time.Hour)
	end := fc.Now().Add(5 * time.Hour)
	_, err := c.Create(context.Background(), CreateInput{RequesterID: 1, RoomID: 1, Title: "A", StartAt: start, EndAt: end})
	require.NoError(t, err)

	_, err = c.Create(context.Background(), CreateInput{RequesterID: 2, RoomID: 1, Title: "B", StartAt: start, EndAt: end})
	require.Error(t, err)
	require.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestApprove_Idempotent(t *testing.T) {
	c, ms, fc := setup(t)
	ms.users[3] = &models.User{ID: 3, Role: models.RoleUser, DepartmentID: ptr(int64(1))}
	res, err := c.Create(context.Background(), CreateInput{
		RequesterID: 3, RoomID: 1, Title: "Study group",
		StartAt: fc.Now().Add(4 * time.Hour), EndAt: fc.Now().Add(7 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, res.Status)

	first, err := c.Approve(context.Background(), res.ID, 1, models.RoleManager)
	require.NoError(t, err)
	require.Equal(t, models.StatusConfirmed, first.Status)

	second, err := c.Approve(context.Background(), res.ID, 1, models.RoleManager)
	require.NoError(t, err)
	require.Equal(t, first.ApprovedAt, second.ApprovedAt)
}

func TestCancel_TerminalRejected(t *testing.T) {
	c, ms, fc := setup(t)
	res, err := c.Create(context.Background(), CreateInput{
		RequesterID: 1, RoomID: 1, Title: "X",
		StartAt: fc.Now().Add(4 * time.Hour), EndAt: fc.Now().Add(5 * time.Hour),
	})
	require.NoError(t, err)
	ms.reservations[res.ID].Status = models.StatusFinished

	_, err = c.Cancel(context.Background(), res.ID, 1, models.RoleManager, "")
	require.Error(t, err)
	require.Equal(t, apperr.TerminalState, apperr.KindOf(err))
}

func TestCreate_CrossDepartmentIsForbidden(t *testing.T) {
	c, ms, fc := setup(t)
	ms.users[4] = &models.User{ID: 4, Role: models.RoleUser, DepartmentID: ptr(int64(2))}

	_, err := c.Create(context.Background(), CreateInput{
		RequesterID: 4, RoomID: 1, Title: "Other dept",
		StartAt: fc.Now().Add(4 * time.Hour), EndAt: fc.Now().Add(5 * time.Hour),
	})
	require.Error(t, err)
	require.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestCreate_ConcurrentSameInterval_ExactlyOneWins(t *testing.T) {
	c, _, fc := setup(t)
	start := fc.Now().Add(4 * time.Hour)
	end := fc.Now().Add(5 * time.Hour)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, requester := range []int64{1, 2} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := c.Create(context.Background(), CreateInput{
				RequesterID: id, RoomID: 1, Title: "Race", StartAt: start, EndAt: end,
			})
			results <- err
		}(requester)
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		if err == nil {
			ok++
		} else if apperr.KindOf(err) == apperr.Conflict {
			conflicts++
		}
	}
	require.Equal(t, 1, ok, "exactly one of the racing creates must commit")
	require.Equal(t, 1, conflicts, "the loser must fail with a conflict")
}

func TestCancel_NonPrivilegedTooLate(t *testing.T) {
	c, ms, fc := setup(t)
	ms.users[5] = &models.User{ID: 5, Role: models.RoleUser, DepartmentID: ptr(int64(1))}
	res, err := c.Create(context.Background(), CreateInput{
		RequesterID: 5, RoomID: 1, Title: "Short",
		StartAt: fc.Now().Add(4 * time.Hour), EndAt: fc.Now().Add(5 * time.Hour),
	})
	require.NoError(t, err)

	// within two hours of the start, a regular user can no longer cancel
	fc.Advance(3 * time.Hour)
	_, err = c.Cancel(context.Background(), res.ID, 5, models.RoleUser, "")
	require.Error(t, err)
	require.Equal(t, apperr.PolicyViolation, apperr.KindOf(err))

	// a manager still can
	_, err = c.Cancel(context.Background(), res.ID, 1, models.RoleManager, "room needed")
	require.NoError(t, err)
}

func TestUpdate_IntervalChangeClearsApproval(t *testing.T) {
	c, ms, fc := setup(t)
	ms.users[6] = &models.User{ID: 6, Role: models.RoleUser, DepartmentID: ptr(int64(1))}
	res, err := c.Create(context.Background(), CreateInput{
		RequesterID: 6, RoomID: 1, Title: "Movable",
		StartAt: fc.Now().Add(4 * time.Hour), EndAt: fc.Now().Add(5 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusConfirmed, res.Status, "a one-hour booking confirms immediately")

	newStart := fc.Now().Add(6 * time.Hour)
	newEnd := fc.Now().Add(7 * time.Hour)
	updated, err := c.Update(context.Background(), UpdateInput{
		ReservationID: res.ID, ActorID: 6, ActorRole: models.RoleUser,
		StartAt: &newStart, EndAt: &newEnd,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, updated.Status)
	require.Nil(t, updated.ApprovedBy)
	require.Nil(t, updated.ApprovedAt)
}

func TestWithRoomLock_DeadlineWhileWaiting(t *testing.T) {
	c, _, _ := setup(t)

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = c.WithRoomLock(context.Background(), 1, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.WithRoomLock(ctx, 1, func() error { return nil })
	require.Error(t, err)
	require.Equal(t, apperr.DeadlineExceeded, apperr.KindOf(err))

	// the lock must still be usable once the first holder releases it
	close(release)
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		return c.WithRoomLock(ctx, 1, func() error { return nil }) == nil
	}, time.Second, 10*time.Millisecond)
}

func TestUpdate_RejectsRoomDeactivatedSinceCreation(t *testing.T) {
	c, ms, fc := setup(t)
	res, err := c.Create(context.Background(), CreateInput{
		RequesterID: 1, RoomID: 1, Title: "Doomed room",
		StartAt: fc.Now().Add(4 * time.Hour), EndAt: fc.Now().Add(5 * time.Hour),
	})
	require.NoError(t, err)

	ms.rooms[1].Status = models.RoomMaintenance

	newStart := fc.Now().Add(6 * time.Hour)
	newEnd := fc.Now().Add(7 * time.Hour)
	_, err = c.Update(context.Background(), UpdateInput{
		ReservationID: res.ID, ActorID: 1, ActorRole: models.RoleManager,
		StartAt: &newStart, EndAt: &newEnd,
	})
	require.Error(t, err)
	require.Equal(t, apperr.PolicyViolation, apperr.KindOf(err))
}
