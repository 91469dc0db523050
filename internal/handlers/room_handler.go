package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"room-reservation-api/internal/directory"
	"room-reservation-api/internal/dto"
	"room-reservation-api/internal/models"
	"room-reservation-api/internal/store"
)

// RoomHandler exposes room listing/availability publicly and room
// administration to ADMIN-gated routes.
type RoomHandler struct {
	directory *directory.Service
	store     store.Store
}

func NewRoomHandler(dir *directory.Service, st store.Store) *RoomHandler {
	return &RoomHandler{directory: dir, store: st}
}

func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.directory.ListRooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		out = append(out, dto.FromRoom(&rooms[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *RoomHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	room, err := h.directory.GetRoom(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRoom(room))
}

// Available lists rooms free across [start, end), optionally scoped to a
// department and a minimum capacity.
func (h *RoomHandler) Available(c *gin.Context) {
	start, end, ok := parseRange(c)
	if !ok {
		return
	}
	var deptID *int64
	if d := c.Query("department_id"); d != "" {
		if v, err := strconv.ParseInt(d, 10, 64); err == nil {
			deptID = &v
		}
	}
	var minCap *int
	if m := c.Query("min_capacity"); m != "" {
		if v, err := strconv.Atoi(m); err == nil {
			minCap = &v
		}
	}
	rooms, err := h.store.ListAvailableRooms(c.Request.Context(), start, end, deptID, minCap)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		out = append(out, dto.FromRoom(&rooms[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Availability reports whether a single room is free across [start, end).
func (h *RoomHandler) Availability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	start, end, ok := parseRange(c)
	if !ok {
		return
	}
	conflicts, err := h.store.Overlapping(c.Request.Context(), id, start, end, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": len(conflicts) == 0, "conflicting_count": len(conflicts)})
}

func (h *RoomHandler) Create(c *gin.Context) {
	var req dto.CreateRoomRequest
	if !bindJSON(c, &req) {
		return
	}
	room := &models.Room{
		Code: req.Code, Name: req.Name, Capacity: req.Capacity,
		Building: req.Building, Floor: req.Floor, DepartmentID: req.DepartmentID,
		Responsible: req.Responsible, Description: req.Description, Status: models.RoomActive,
		Amenities: datatypes.JSONMap(req.Amenities),
	}
	if err := h.directory.CreateRoom(c.Request.Context(), room); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromRoom(room))
}

func (h *RoomHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateRoomRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.directory.GetRoom(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Name != nil {
		room.Name = *req.Name
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Building != nil {
		room.Building = *req.Building
	}
	if req.Floor != nil {
		room.Floor = *req.Floor
	}
	if req.Status != nil {
		room.Status = models.RoomStatus(*req.Status)
	}
	if req.Responsible != nil {
		room.Responsible = *req.Responsible
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.Amenities != nil {
		room.Amenities = datatypes.JSONMap(req.Amenities)
	}
	if err := h.directory.UpdateRoom(c.Request.Context(), room); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromRoom(room))
}

func (h *RoomHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.directory.DeleteRoom(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, err1 := time.Parse(time.RFC3339, c.Query("start_at"))
	end, err2 := time.Parse(time.RFC3339, c.Query("end_at"))
	if err1 != nil || err2 != nil || !end.After(start) {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Code: "VALIDATION", Message: "start_at and end_at must be RFC3339 timestamps with end_at after start_at",
		})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
