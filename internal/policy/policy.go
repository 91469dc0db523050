// Package policy implements the pure, side-effect-free admission rules a
// candidate reservation must satisfy and the initial-status decision the
// Booking Coordinator applies once a candidate passes.
package policy

import (
	"time"

	"room-reservation-api/internal/clock"
	"room-reservation-api/internal/models"
)

type Reason string

const (
	ReasonRoomInactive         Reason = "ROOM_INACTIVE"
	ReasonStartInPast          Reason = "START_IN_PAST"
	ReasonNoticeTooShort       Reason = "NOTICE_TOO_SHORT"
	ReasonNoticeTooLong        Reason = "NOTICE_TOO_LONG"
	ReasonDurationOutOfRange   Reason = "DURATION_OUT_OF_RANGE"
	ReasonCrossesMidnight      Reason = "CROSSES_MIDNIGHT"
	ReasonOutsideBusinessHours Reason = "OUTSIDE_BUSINESS_HOURS"
	ReasonCrossDepartment      Reason = "CROSS_DEPARTMENT_FORBIDDEN"
)

const (
	MinNotice   = 2 * time.Hour
	MaxNotice   = 30 * 24 * time.Hour
	MinDuration = 30 * time.Minute
	MaxDuration = 8 * time.Hour

	privilegedShortDuration = 2 * time.Hour
)

// Violation reports the first failing rule for a candidate interval. A
// zero Violation (Reason == "") means the candidate passed every check.
type Violation struct {
	Reason Reason
}

func (v Violation) Failed() bool { return v.Reason != "" }

// Engine evaluates candidate reservations against a calendar.
type Engine struct {
	calendar *clock.Calendar
}

func NewEngine(calendar *clock.Calendar) *Engine {
	return &Engine{calendar: calendar}
}

// Evaluate runs the admission checks in a fixed order and returns the
// first violation encountered, or a zero Violation if the candidate is
// admissible.
func (e *Engine) Evaluate(requester *models.User, room *models.Room, start, end, now time.Time) Violation {
	if !room.IsActive() {
		return Violation{ReasonRoomInactive}
	}
	if !start.After(now) {
		return Violation{ReasonStartInPast}
	}
	notice := start.Sub(now)
	if notice < MinNotice {
		return Violation{ReasonNoticeTooShort}
	}
	if notice > MaxNotice {
		return Violation{ReasonNoticeTooLong}
	}
	duration := end.Sub(start)
	if duration < MinDuration || duration > MaxDuration {
		return Violation{ReasonDurationOutOfRange}
	}
	if start.Year() != end.Year() || start.YearDay() != end.YearDay() {
		return Violation{ReasonCrossesMidnight}
	}
	if !e.calendar.IsOpen(start) {
		return Violation{ReasonOutsideBusinessHours}
	}
	window := e.calendar.Window(start)
	midnight := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	if start.Sub(midnight) < window.Open || end.Sub(midnight) > window.Close {
		return Violation{ReasonOutsideBusinessHours}
	}
	if requester.Role == models.RoleUser || requester.Role == models.RoleGuest {
		if !requester.InSameDepartment(room) {
			return Violation{ReasonCrossDepartment}
		}
	}
	return Violation{}
}

// InitialStatus decides whether a new reservation starts out CONFIRMED
// or must wait for approval. Privileged roles and short bookings
// (<= 2h) confirm immediately; everything else, including the 2h-4h
// band for non-privileged users, waits as PENDING.
func InitialStatus(role models.UserRole, duration time.Duration) models.ReservationStatus {
	if role.IsPrivileged() {
		return models.StatusConfirmed
	}
	if duration <= privilegedShortDuration {
		return models.StatusConfirmed
	}
	return models.StatusPending
}
