// Package gormstore implements the store.Store port with GORM, against
// either PostgreSQL or SQLite depending on configuration. Only the
// dialector differs between the two; model tags, indexes, and query
// code are shared.
package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"room-reservation-api/internal/apperr"
	"room-reservation-api/internal/models"
	"room-reservation-api/internal/store"
)

// Store is the GORM-backed adapter. The zero value is not usable; build
// one with Open.
type Store struct {
	db     *gorm.DB
	driver string
}

// Open connects to the configured driver ("postgres" or "sqlite"), runs
// auto-migration, and ensures the conflict-scan indexes exist.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(
		&models.Department{},
		&models.User{},
		&models.Room{},
		&models.Reservation{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	// GORM's struct tags already declare (room_id, start_at, end_at,
	// status) via idx_room_window; this call is a no-op on drivers that
	// created the multi-column index from tags during AutoMigrate.
	_ = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_room_window ON reservations (room_id, start_at, end_at, status)`).Error
	_ = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_user_status ON reservations (user_id, status)`).Error
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithinTx opens a transaction pinned to repeatable-read, the isolation
// level the booking algorithm requires (combined with the per-room
// mutex it yields serializable booking for a single room), and hands
// the caller a Store bound to it; every call through that Store
// participates in the same transaction.
func (s *Store) WithinTx(ctx context.Context, fn store.TxFunc) error {
	// SQLite's single-writer model has no tunable isolation level; only
	// request repeatable-read explicitly against a driver that honors it.
	var opts *sql.TxOptions
	if s.driver == "postgres" {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx, driver: s.driver})
	}, opts)
}

// --- Rooms ---

func (s *Store) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var r models.Room
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, mapNotFound(err, "room")
	}
	return &r, nil
}

func (s *Store) GetRoomByCode(ctx context.Context, code string) (*models.Room, error) {
	var r models.Room
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&r).Error; err != nil {
		return nil, mapNotFound(err, "room")
	}
	return &r, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := s.db.WithContext(ctx).Order("id").Find(&rooms).Error; err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list rooms", err)
	}
	return rooms, nil
}

func (s *Store) ListAvailableRooms(ctx context.Context, start, end time.Time, departmentID *int64, minCapacity *int) ([]models.Room, error) {
	q := s.db.WithContext(ctx).Model(&models.Room{}).Where("status = ?", models.RoomActive)
	if departmentID != nil {
		q = q.Where("department_id = ?", *departmentID)
	}
	if minCapacity != nil {
		q = q.Where("capacity >= ?", *minCapacity)
	}
	var candidates []models.Room
	if err := q.Order("id").Find(&candidates).Error; err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list candidate rooms", err)
	}

	var available []models.Room
	for _, r := range candidates {
		conflicts, err := s.Overlapping(ctx, r.ID, start, end, nil)
		if err != nil {
			return nil, err
		}
		if len(conflicts) == 0 {
			available = append(available, r)
		}
	}
	return available, nil
}

func (s *Store) CreateRoom(ctx context.Context, r *models.Room) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return mapWriteError(err, "room")
	}
	return nil
}

func (s *Store) UpdateRoom(ctx context.Context, r *models.Room) error {
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return mapWriteError(err, "room")
	}
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&models.Room{}, id).Error; err != nil {
		return apperr.Wrap(apperr.StorageUnavailable, "delete room", err)
	}
	return nil
}

func (s *Store) RoomHasActiveReservations(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("room_id = ? AND status IN ?", id, activeStatusStrings()).
		Count(&count).Error
	if err != nil {
		return false, apperr.Wrap(apperr.StorageUnavailable, "count active reservations", err)
	}
	return count > 0, nil
}

// --- Users ---

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, mapNotFound(err, "user")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, mapNotFound(err, "user")
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list users", err)
	}
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return mapWriteError(err, "user")
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return mapWriteError(err, "user")
	}
	return nil
}

// --- Departments ---

func (s *Store) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	var d models.Department
	if err := s.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, mapNotFound(err, "department")
	}
	return &d, nil
}

func (s *Store) GetDepartmentByCode(ctx context.Context, code string) (*models.Department, error) {
	var d models.Department
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&d).Error; err != nil {
		return nil, mapNotFound(err, "department")
	}
	return &d, nil
}

func (s *Store) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var deps []models.Department
	if err := s.db.WithContext(ctx).Order("id").Find(&deps).Error; err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list departments", err)
	}
	return deps, nil
}

func (s *Store) CreateDepartment(ctx context.Context, d *models.Department) error {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return mapWriteError(err, "department")
	}
	return nil
}

func (s *Store) UpdateDepartment(ctx context.Context, d *models.Department) error {
	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		return mapWriteError(err, "department")
	}
	return nil
}

func (s *Store) DeleteDepartment(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&models.Department{}, id).Error; err != nil {
		return apperr.Wrap(apperr.StorageUnavailable, "delete department", err)
	}
	return nil
}

func (s *Store) DepartmentInUse(ctx context.Context, id int64) (bool, error) {
	var rooms, users int64
	if err := s.db.WithContext(ctx).Model(&models.Room{}).Where("department_id = ?", id).Count(&rooms).Error; err != nil {
		return false, apperr.Wrap(apperr.StorageUnavailable, "count rooms", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("department_id = ?", id).Count(&users).Error; err != nil {
		return false, apperr.Wrap(apperr.StorageUnavailable, "count users", err)
	}
	return rooms > 0 || users > 0, nil
}

// --- Reservations ---

func (s *Store) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, mapNotFound(err, "reservation")
	}
	return &r, nil
}

func (s *Store) GetReservationForUpdate(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	err := s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, id).Error
	if err != nil {
		return nil, mapNotFound(err, "reservation")
	}
	return &r, nil
}

func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return mapWriteError(err, "reservation")
	}
	return nil
}

func (s *Store) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	if err := s.db.WithContext(ctx).Save(r).Error; err != nil {
		return mapWriteError(err, "reservation")
	}
	return nil
}

func (s *Store) ListReservations(ctx context.Context, f store.ReservationFilter) ([]models.Reservation, error) {
	q := s.db.WithContext(ctx).Model(&models.Reservation{})
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.RoomID != nil {
		q = q.Where("room_id = ?", *f.RoomID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Start != nil {
		q = q.Where("end_at > ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("start_at < ?", *f.End)
	}
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	var reservations []models.Reservation
	if err := q.Order("start_at").Limit(limit).Offset(f.Offset).Find(&reservations).Error; err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list reservations", err)
	}
	return reservations, nil
}

func (s *Store) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("start_at desc")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&reservations).Error; err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list by user", err)
	}
	return reservations, nil
}

func (s *Store) ListByRoom(ctx context.Context, roomID int64, limit, offset int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := s.db.WithContext(ctx).Where("room_id = ?", roomID).Order("start_at desc")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&reservations).Error; err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list by room", err)
	}
	return reservations, nil
}

func (s *Store) ListPending(ctx context.Context) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := s.db.WithContext(ctx).Where("status = ?", models.StatusPending).Find(&reservations).Error; err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list pending", err)
	}
	return reservations, nil
}

// ListDueForTransition returns CONFIRMED reservations that should become
// IN_PROGRESS and IN_PROGRESS reservations that should become FINISHED,
// as of now. advanceStatuses applies the actual state change.
func (s *Store) ListDueForTransition(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.WithContext(ctx).Where(
		"(status = ? AND start_at <= ? AND end_at > ?) OR (status = ? AND end_at <= ?)",
		models.StatusConfirmed, now, now,
		models.StatusInProgress, now,
	).Find(&reservations).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list due for transition", err)
	}
	return reservations, nil
}

func (s *Store) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at <= ?", models.StatusPending, cutoff).
		Find(&reservations).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list stale pending", err)
	}
	return reservations, nil
}

func (s *Store) ListUpcomingForReminder(ctx context.Context, now, horizon time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.WithContext(ctx).
		Where("status = ? AND start_at > ? AND start_at <= ? AND reminded_at IS NULL", models.StatusConfirmed, now, horizon).
		Find(&reservations).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list upcoming for reminder", err)
	}
	return reservations, nil
}

func (s *Store) ListTerminalOlderThan(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.WithContext(ctx).
		Where("status IN ? AND end_at <= ? AND archived_at IS NULL", []models.ReservationStatus{models.StatusFinished, models.StatusCancelled}, cutoff).
		Find(&reservations).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "list terminal older than", err)
	}
	return reservations, nil
}

func (s *Store) ArchiveOlderThan(ctx context.Context, cutoff time.Time, now time.Time) (int, error) {
	result := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("status IN ? AND end_at <= ? AND archived_at IS NULL", []models.ReservationStatus{models.StatusFinished, models.StatusCancelled}, cutoff).
		Update("archived_at", now)
	if result.Error != nil {
		return 0, apperr.Wrap(apperr.StorageUnavailable, "archive reservations", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (s *Store) BulkUpdateStatus(ctx context.Context, f store.ReservationFilter, newStatus models.ReservationStatus) (int, error) {
	q := s.db.WithContext(ctx).Model(&models.Reservation{})
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.RoomID != nil {
		q = q.Where("room_id = ?", *f.RoomID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Start != nil {
		q = q.Where("end_at > ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("start_at < ?", *f.End)
	}
	result := q.Update("status", newStatus)
	if result.Error != nil {
		return 0, apperr.Wrap(apperr.StorageUnavailable, "bulk update status", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (s *Store) Overlapping(ctx context.Context, roomID int64, start, end time.Time, excluding *int64) ([]models.Reservation, error) {
	q := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("room_id = ? AND status IN ? AND start_at < ? AND end_at > ?", roomID, activeStatusStrings(), end, start)
	if excluding != nil {
		q = q.Where("id <> ?", *excluding)
	}
	var reservations []models.Reservation
	if err := q.Find(&reservations).Error; err != nil {
		return nil, apperr.Wrap(apperr.StorageUnavailable, "conflict scan", err)
	}
	return reservations, nil
}

func activeStatusStrings() []models.ReservationStatus {
	return models.ActiveStatuses
}

func mapNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Newf(apperr.NotFound, "%s not found", what)
	}
	return apperr.Wrap(apperr.StorageUnavailable, "query "+what, err)
}

func mapWriteError(err error, what string) error {
	if isUniqueViolation(err) {
		return apperr.Newf(apperr.Conflict, "%s violates a uniqueness constraint", what)
	}
	return apperr.Wrap(apperr.StorageUnavailable, "write "+what, err)
}
