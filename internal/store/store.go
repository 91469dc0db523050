// Package store defines the persistence port the rest of the core
// depends on. Two adapters satisfy it: store/gormstore over PostgreSQL
// and over SQLite, both sharing the same model tags and migration code.
package store

import (
	"context"
	"time"

	"room-reservation-api/internal/models"
)

// TxFunc is run inside a repeatable-read transaction. Returning an error
// rolls the transaction back.
type TxFunc func(ctx context.Context, tx Store) error

// ReservationFilter narrows a reservation listing.
type ReservationFilter struct {
	Status *models.ReservationStatus
	RoomID *int64
	UserID *int64
	Start  *time.Time
	End    *time.Time
	Limit  int
	Offset int
}

// Store is the persistence port. A single instance is shared by all
// request handlers and the scheduler; WithinTx opens the transaction the
// booking algorithm and bulk-status jobs require.
type Store interface {
	WithinTx(ctx context.Context, fn TxFunc) error

	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListAvailableRooms(ctx context.Context, start, end time.Time, departmentID *int64, minCapacity *int) ([]models.Room, error)
	CreateRoom(ctx context.Context, r *models.Room) error
	UpdateRoom(ctx context.Context, r *models.Room) error
	DeleteRoom(ctx context.Context, id int64) error
	RoomHasActiveReservations(ctx context.Context, id int64) (bool, error)

	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, u *models.User) error

	GetDepartment(ctx context.Context, id int64) (*models.Department, error)
	GetDepartmentByCode(ctx context.Context, code string) (*models.Department, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	CreateDepartment(ctx context.Context, d *models.Department) error
	UpdateDepartment(ctx context.Context, d *models.Department) error
	DeleteDepartment(ctx context.Context, id int64) error
	DepartmentInUse(ctx context.Context, id int64) (bool, error)

	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	// GetReservationForUpdate locks the row (SELECT ... FOR UPDATE
	// equivalent) and must only be called within a transaction opened by
	// WithinTx.
	GetReservationForUpdate(ctx context.Context, id int64) (*models.Reservation, error)
	CreateReservation(ctx context.Context, r *models.Reservation) error
	UpdateReservation(ctx context.Context, r *models.Reservation) error
	ListReservations(ctx context.Context, f ReservationFilter) ([]models.Reservation, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Reservation, error)
	ListByRoom(ctx context.Context, roomID int64, limit, offset int) ([]models.Reservation, error)
	ListPending(ctx context.Context) ([]models.Reservation, error)
	ListDueForTransition(ctx context.Context, now time.Time) ([]models.Reservation, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
	ListUpcomingForReminder(ctx context.Context, now, horizon time.Time) ([]models.Reservation, error)
	ListTerminalOlderThan(ctx context.Context, cutoff time.Time) ([]models.Reservation, error)
	ArchiveOlderThan(ctx context.Context, cutoff time.Time, now time.Time) (int, error)
	// BulkUpdateStatus sets newStatus on every reservation matching f,
	// ignoring f's pagination fields, and reports how many rows changed.
	BulkUpdateStatus(ctx context.Context, f ReservationFilter, newStatus models.ReservationStatus) (int, error)

	// Overlapping is the conflict-detection read path: a single indexed
	// range scan over (roomId, startAt, endAt, status) that underlies
	// every admission check.
	Overlapping(ctx context.Context, roomID int64, start, end time.Time, excluding *int64) ([]models.Reservation, error)

	Close() error
}
