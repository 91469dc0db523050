// Package dto defines the HTTP request/response shapes validated and
// serialized at the API gateway boundary.
package dto

import "time"

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Auth ---

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=100"`
	Surname      string `json:"surname" binding:"required,min=2,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type MeResponse struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Role         string `json:"role"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

// --- Reservations ---

type CreateReservationRequest struct {
	RoomID      int64     `json:"room_id" binding:"required"`
	Title       string    `json:"title" binding:"required,min=3,max=100"`
	Description string    `json:"description,omitempty" binding:"omitempty,max=500"`
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
}

type UpdateReservationRequest struct {
	Title       *string    `json:"title,omitempty" binding:"omitempty,min=3,max=100"`
	Description *string    `json:"description,omitempty" binding:"omitempty,max=500"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	EndAt       *time.Time `json:"end_at,omitempty"`
}

type RejectReservationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ReservationResponse struct {
	ID                 int64      `json:"id"`
	RoomID             int64      `json:"room_id"`
	UserID             int64      `json:"user_id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	StartAt            time.Time  `json:"start_at"`
	EndAt              time.Time  `json:"end_at"`
	Status             string     `json:"status"`
	ApprovedBy         *int64     `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// --- Rooms ---

type CreateRoomRequest struct {
	Code         string         `json:"code" binding:"required,min=2,max=20"`
	Name         string         `json:"name" binding:"required,min=2,max=100"`
	Capacity     int            `json:"capacity" binding:"required,min=1"`
	Building     string         `json:"building" binding:"required"`
	Floor        int            `json:"floor"`
	DepartmentID int64          `json:"department_id" binding:"required"`
	Responsible  string         `json:"responsible,omitempty"`
	Description  string         `json:"description,omitempty"`
	Amenities    map[string]any `json:"amenities,omitempty"`
}

type UpdateRoomRequest struct {
	Name        *string        `json:"name,omitempty"`
	Capacity    *int           `json:"capacity,omitempty"`
	Building    *string        `json:"building,omitempty"`
	Floor       *int           `json:"floor,omitempty"`
	Status      *string        `json:"status,omitempty" binding:"omitempty,oneof=ACTIVE INACTIVE MAINTENANCE"`
	Responsible *string        `json:"responsible,omitempty"`
	Description *string        `json:"description,omitempty"`
	Amenities   map[string]any `json:"amenities,omitempty"`
}

type RoomResponse struct {
	ID           int64          `json:"id"`
	Code         string         `json:"code"`
	Name         string         `json:"name"`
	Capacity     int            `json:"capacity"`
	Building     string         `json:"building"`
	Floor        int            `json:"floor"`
	DepartmentID int64          `json:"department_id"`
	Status       string         `json:"status"`
	Responsible  string         `json:"responsible,omitempty"`
	Description  string         `json:"description,omitempty"`
	Amenities    map[string]any `json:"amenities,omitempty"`
}

// --- Departments ---

type CreateDepartmentRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=150"`
	Code      string `json:"code" binding:"required,min=2,max=20"`
	ManagerID *int64 `json:"manager_id,omitempty"`
}

type UpdateDepartmentRequest struct {
	Name      *string `json:"name,omitempty"`
	ManagerID *int64  `json:"manager_id,omitempty"`
}

type DepartmentResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	ManagerID *int64 `json:"manager_id,omitempty"`
}

// --- Users ---

type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN MANAGER ADVANCED_USER USER GUEST"`
}

type UpdateProfileRequest struct {
	Name    *string `json:"name,omitempty" binding:"omitempty,min=2,max=100"`
	Surname *string `json:"surname,omitempty" binding:"omitempty,min=2,max=100"`
}

type UserResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}
