// Package directory implements Room, Department, and User
// administration layered directly on the store, independent of the
// booking critical section.
package directory

import (
	"context"
	"strings"

	"room-reservation-api/internal/apperr"
	"room-reservation-api/internal/auth"
	"room-reservation-api/internal/models"
	"room-reservation-api/internal/store"
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// --- Rooms ---

func (s *Service) CreateRoom(ctx context.Context, r *models.Room) error {
	return s.store.CreateRoom(ctx, r)
}

func (s *Service) UpdateRoom(ctx context.Context, r *models.Room) error {
	return s.store.UpdateRoom(ctx, r)
}

func (s *Service) DeleteRoom(ctx context.Context, id int64) error {
	hasActive, err := s.store.RoomHasActiveReservations(ctx, id)
	if err != nil {
		return err
	}
	if hasActive {
		return apperr.New(apperr.Conflict, "room has reservations that have not reached a terminal state")
	}
	return s.store.DeleteRoom(ctx, id)
}

func (s *Service) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	return s.store.GetRoom(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context) ([]models.Room, error) {
	return s.store.ListRooms(ctx)
}

// --- Departments ---

func (s *Service) CreateDepartment(ctx context.Context, d *models.Department) error {
	return s.store.CreateDepartment(ctx, d)
}

func (s *Service) UpdateDepartment(ctx context.Context, d *models.Department) error {
	return s.store.UpdateDepartment(ctx, d)
}

func (s *Service) DeleteDepartment(ctx context.Context, id int64) error {
	inUse, err := s.store.DepartmentInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apperr.New(apperr.Conflict, "department still has rooms or users assigned")
	}
	return s.store.DeleteDepartment(ctx, id)
}

func (s *Service) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return s.store.ListDepartments(ctx)
}

func (s *Service) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	return s.store.GetDepartment(ctx, id)
}

// --- Users ---

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.store.ListUsers(ctx, limit, offset)
}

func (s *Service) UpdateRole(ctx context.Context, userID int64, role models.UserRole) (*models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, name, surname *string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		u.Name = *name
	}
	if surname != nil {
		u.Surname = *surname
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Register normalizes email to lowercase before persisting it, so
// uniqueness and later lookups are case-insensitive regardless of how
// the address was typed at signup.
func (s *Service) Register(ctx context.Context, name, surname, email, password string, departmentID *int64) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:         name,
		Surname:      surname,
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         models.RoleUser,
		DepartmentID: departmentID,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
