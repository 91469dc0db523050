package dto

import (
	"room-reservation-api/internal/models"
)

func FromReservation(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                 r.ID,
		RoomID:             r.RoomID,
		UserID:             r.UserID,
		Title:              r.Title,
		Description:        r.Description,
		StartAt:            r.StartAt,
		EndAt:              r.EndAt,
		Status:             string(r.Status),
		ApprovedBy:         r.ApprovedBy,
		ApprovedAt:         r.ApprovedAt,
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func FromRoom(r *models.Room) RoomResponse {
	var amenities map[string]any
	if r.Amenities != nil {
		amenities = map[string]any(r.Amenities)
	}
	return RoomResponse{
		ID: r.ID, Code: r.Code, Name: r.Name, Capacity: r.Capacity,
		Building: r.Building, Floor: r.Floor, DepartmentID: r.DepartmentID,
		Status: string(r.Status), Responsible: r.Responsible, Description: r.Description,
		Amenities: amenities,
	}
}

func FromDepartment(d *models.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, Code: d.Code, ManagerID: d.ManagerID}
}

func FromUser(u *models.User) UserResponse {
	return UserResponse{
		ID: u.ID, Name: u.Name, Surname: u.Surname, Email: u.Email,
		Role: string(u.Role), DepartmentID: u.DepartmentID,
	}
}
