package models

import (
	"time"

	"gorm.io/datatypes"
)

type RoomStatus string

const (
	RoomActive      RoomStatus = "ACTIVE"
	RoomInactive    RoomStatus = "INACTIVE"
	RoomMaintenance RoomStatus = "MAINTENANCE"
)

// Room is a physical, bookable space belonging to a department.
type Room struct {
	ID           int64             `json:"id" gorm:"primaryKey;autoIncrement"`
	Code         string            `json:"code" gorm:"uniqueIndex;size:20;not null"`
	Name         string            `json:"name" gorm:"size:100;not null"`
	Capacity     int               `json:"capacity" gorm:"not null"`
	Building     string            `json:"building" gorm:"size:100;not null"`
	Floor        int               `json:"floor"`
	DepartmentID int64             `json:"department_id" gorm:"index;not null"`
	Status       RoomStatus        `json:"status" gorm:"size:20;not null;default:ACTIVE;index"`
	Responsible  string            `json:"responsible,omitempty" gorm:"size:150"`
	Description  string            `json:"description,omitempty" gorm:"type:text"`
	// Amenities holds free-form equipment/feature flags (e.g.
	// {"projector": true, "video_conf": "zoom"}) that don't warrant their
	// own columns and vary per room.
	Amenities datatypes.JSONMap `json:"amenities,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (Room) TableName() string { return "rooms" }

func (r *Room) IsActive() bool { return r.Status == RoomActive }
