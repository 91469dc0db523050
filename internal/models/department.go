package models

import "time"

// Department scopes rooms and non-privileged users, and is the grouping
// key for department-usage reports.
type Department struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:150;not null"`
	Code      string    `json:"code" gorm:"uniqueIndex;size:20;not null"`
	ManagerID *int64    `json:"manager_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Department) TableName() string { return "departments" }
