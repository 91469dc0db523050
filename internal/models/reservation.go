package models

import "time"

type ReservationStatus string

const (
	StatusPending    ReservationStatus = "PENDING"
	StatusConfirmed  ReservationStatus = "CONFIRMED"
	StatusInProgress ReservationStatus = "IN_PROGRESS"
	StatusFinished   ReservationStatus = "FINISHED"
	StatusCancelled  ReservationStatus = "CANCELLED"
)

// ActiveStatuses is the set of statuses relevant to conflict detection:
// a room may never hold two overlapping reservations whose status is in
// this set.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusInProgress}

func (s ReservationStatus) IsTerminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

func (s ReservationStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if a == s {
			return true
		}
	}
	return false
}

type Reservation struct {
	ID                 int64             `json:"id" gorm:"primaryKey;autoIncrement"`
	RoomID             int64             `json:"room_id" gorm:"not null;index:idx_room_window,priority:1"`
	UserID             int64             `json:"user_id" gorm:"not null;index:idx_user_status,priority:1"`
	Title              string            `json:"title" gorm:"size:100;not null"`
	Description        string            `json:"description,omitempty" gorm:"type:text"`
	StartAt            time.Time         `json:"start_at" gorm:"not null;index:idx_room_window,priority:2;index:idx_start_at"`
	EndAt              time.Time         `json:"end_at" gorm:"not null;index:idx_room_window,priority:3;index:idx_end_at"`
	Status             ReservationStatus `json:"status" gorm:"size:20;not null;index:idx_room_window,priority:4;index:idx_user_status,priority:2"`
	ApprovedBy         *int64            `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time        `json:"approved_at,omitempty"`
	CancellationReason string            `json:"cancellation_reason,omitempty" gorm:"type:text"`
	RemindedAt         *time.Time        `json:"-"`
	ArchivedAt         *time.Time        `json:"archived_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (Reservation) TableName() string { return "reservations" }

// Overlaps reports whether the reservation's interval overlaps the
// half-open interval [start, end).
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartAt.Before(end) && start.Before(r.EndAt)
}

func (r *Reservation) Duration() time.Duration {
	return r.EndAt.Sub(r.StartAt)
}
