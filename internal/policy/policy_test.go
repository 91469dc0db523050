package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"room-reservation-api/internal/clock"
	"room-reservation-api/internal/config"
	"room-reservation-api/internal/models"
)

func testEngine() *Engine {
	cal := clock.NewCalendar([]config.Holiday{{Month: time.April, Day: 21}}, map[time.Weekday]config.BusinessWindow{
		time.Monday:    {Open: 7 * time.Hour, Close: 22 * time.Hour},
		time.Tuesday:   {Open: 7 * time.Hour, Close: 22 * time.Hour},
		time.Wednesday: {Open: 7 * time.Hour, Close: 22 * time.Hour},
		time.Thursday:  {Open: 7 * time.Hour, Close: 22 * time.Hour},
		time.Friday:    {Open: 7 * time.Hour, Close: 22 * time.Hour},
		time.Saturday:  {Open: 8 * time.Hour, Close: 18 * time.Hour},
		time.Sunday:    {Closed: true},
	})
	return NewEngine(cal)
}

func TestEvaluate_HappyPath(t *testing.T) {
	e := testEngine()
	now := time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC) // Tuesday
	room := &models.Room{Status: models.RoomActive, DepartmentID: 1}
	user := &models.User{Role: models.RoleManager, DepartmentID: ptr(int64(1))}
	start := time.Date(2025, 4, 15, 14, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 15, 15, 0, 0, 0, time.UTC)

	v := e.Evaluate(user, room, start, end, now)
	assert.False(t, v.Failed())
}

func TestEvaluate_NoticeTooShort(t *testing.T) {
	e := testEngine()
	now := time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)
	room := &models.Room{Status: models.RoomActive, DepartmentID: 1}
	user := &models.User{Role: models.RoleManager, DepartmentID: ptr(int64(1))}
	start := now.Add(1 * time.Hour)
	end := start.Add(1 * time.Hour)

	v := e.Evaluate(user, room, start, end, now)
	assert.Equal(t, ReasonNoticeTooShort, v.Reason)
}

func TestEvaluate_CrossDepartmentForbidden(t *testing.T) {
	e := testEngine()
	now := time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)
	room := &models.Room{Status: models.RoomActive, DepartmentID: 1}
	user := &models.User{Role: models.RoleUser, DepartmentID: ptr(int64(2))}
	start := time.Date(2025, 4, 15, 14, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 15, 15, 0, 0, 0, time.UTC)

	v := e.Evaluate(user, room, start, end, now)
	assert.Equal(t, ReasonCrossDepartment, v.Reason)
}

func TestEvaluate_HolidayRejected(t *testing.T) {
	e := testEngine()
	now := time.Date(2025, 4, 18, 10, 0, 0, 0, time.UTC)
	room := &models.Room{Status: models.RoomActive, DepartmentID: 1}
	user := &models.User{Role: models.RoleManager, DepartmentID: ptr(int64(1))}
	start := time.Date(2025, 4, 21, 14, 0, 0, 0, time.UTC) // Tiradentes
	end := start.Add(1 * time.Hour)

	v := e.Evaluate(user, room, start, end, now)
	assert.Equal(t, ReasonOutsideBusinessHours, v.Reason)
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, models.StatusConfirmed, InitialStatus(models.RoleAdmin, 6*time.Hour))
	assert.Equal(t, models.StatusConfirmed, InitialStatus(models.RoleUser, 1*time.Hour))
	assert.Equal(t, models.StatusPending, InitialStatus(models.RoleUser, 3*time.Hour))
	assert.Equal(t, models.StatusPending, InitialStatus(models.RoleUser, 5*time.Hour))
}

func ptr[T any](v T) *T { return &v }
