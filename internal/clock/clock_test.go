package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"room-reservation-api/internal/config"
)

func testCalendar() *Calendar {
	return NewCalendar(
		[]config.Holiday{{Month: time.December, Day: 25}, {Month: time.May, Day: 1}},
		map[time.Weekday]config.BusinessWindow{
			time.Monday:   {Open: 7 * time.Hour, Close: 22 * time.Hour},
			time.Saturday: {Open: 8 * time.Hour, Close: 18 * time.Hour},
			time.Sunday:   {Closed: true},
		},
	)
}

func TestFakeClockAdvances(t *testing.T) {
	start := time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)
	fc := NewFake(start)
	assert.Equal(t, start, fc.Now())

	fc.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), fc.Now())

	later := start.Add(24 * time.Hour)
	fc.Set(later)
	assert.Equal(t, later, fc.Now())
}

func TestCalendarHolidays(t *testing.T) {
	cal := testCalendar()
	assert.True(t, cal.IsHoliday(time.Date(2025, 12, 25, 9, 0, 0, 0, time.UTC)))
	assert.True(t, cal.IsHoliday(time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)), "holidays recur every year")
	assert.False(t, cal.IsHoliday(time.Date(2025, 12, 24, 9, 0, 0, 0, time.UTC)))
}

func TestCalendarWindow(t *testing.T) {
	cal := testCalendar()

	monday := time.Date(2025, 4, 14, 12, 0, 0, 0, time.UTC)
	w := cal.Window(monday)
	assert.False(t, w.Closed)
	assert.Equal(t, 7*time.Hour, w.Open)

	sunday := time.Date(2025, 4, 13, 12, 0, 0, 0, time.UTC)
	assert.True(t, cal.Window(sunday).Closed)

	// a weekday absent from the table counts as closed
	tuesday := time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC)
	assert.True(t, cal.Window(tuesday).Closed)
}

func TestCalendarIsOpen(t *testing.T) {
	cal := testCalendar()

	assert.True(t, cal.IsOpen(time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC)), "Monday morning")
	assert.False(t, cal.IsOpen(time.Date(2025, 4, 14, 6, 0, 0, 0, time.UTC)), "before opening")
	assert.False(t, cal.IsOpen(time.Date(2025, 4, 14, 23, 0, 0, 0, time.UTC)), "after closing")
	assert.False(t, cal.IsOpen(time.Date(2025, 4, 13, 9, 0, 0, 0, time.UTC)), "closed on Sunday")
	assert.False(t, cal.IsOpen(time.Date(2025, 12, 25, 9, 0, 0, 0, time.UTC)), "closed on a holiday even if the weekday is open")
}
