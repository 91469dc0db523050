package models

import "time"

type UserRole string

const (
	RoleAdmin        UserRole = "ADMIN"
	RoleManager      UserRole = "MANAGER"
	RoleAdvancedUser UserRole = "ADVANCED_USER"
	RoleUser         UserRole = "USER"
	RoleGuest        UserRole = "GUEST"
)

// IsPrivileged reports whether the role is exempt from the department
// scope check and from forced PENDING status on bookings longer than
// two hours.
func (r UserRole) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleAdvancedUser
}

// CanApprove reports whether the role may approve/reject pending
// reservations.
func (r UserRole) CanApprove() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanManageDirectory reports whether the role may mutate rooms,
// departments, and other users' roles.
func (r UserRole) CanManageDirectory() bool {
	return r == RoleAdmin
}

// CanViewReports reports whether the role may read aggregate reports.
func (r UserRole) CanViewReports() bool {
	return r == RoleAdmin || r == RoleManager
}

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Surname      string    `json:"surname" gorm:"size:100;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:190;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	Role         UserRole  `json:"role" gorm:"size:20;not null;default:USER"`
	DepartmentID *int64    `json:"department_id,omitempty" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// InSameDepartment reports whether the user and the given room share a
// department, the scoping rule the Policy Engine enforces on
// non-privileged roles.
func (u *User) InSameDepartment(r *Room) bool {
	return u.DepartmentID != nil && *u.DepartmentID == r.DepartmentID
}
