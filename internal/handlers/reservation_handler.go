package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"room-reservation-api/internal/apperr"
	"room-reservation-api/internal/booking"
	"room-reservation-api/internal/dto"
	"room-reservation-api/internal/middleware"
	"room-reservation-api/internal/models"
	"room-reservation-api/internal/store"
)

// ReservationHandler exposes the Booking Coordinator over HTTP.
type ReservationHandler struct {
	coordinator *booking.Coordinator
	store       store.Store
}

func NewReservationHandler(coord *booking.Coordinator, st store.Store) *ReservationHandler {
	return &ReservationHandler{coordinator: coord, store: st}
}

func (h *ReservationHandler) Create(c *gin.Context) {
	var req dto.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.coordinator.Create(c.Request.Context(), booking.CreateInput{
		RequesterID: middleware.UserID(c),
		RoomID:      req.RoomID,
		Title:       req.Title,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromReservation(res))
}

func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.store.GetReservation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canView(c, res) {
		respondError(c, apperr.New(apperr.Forbidden, "not permitted to view this reservation"))
		return
	}
	c.JSON(http.StatusOK, dto.FromReservation(res))
}

// List scopes to the caller's own reservations unless the caller may
// approve reservations (MANAGER/ADMIN), in which case the optional
// ?status=, ?room_id=, ?user_id=, ?start_at= and ?end_at= filter the full
// listing.
func (h *ReservationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	limit, offset := pageParams(c)

	role := middleware.Role(c)
	if !role.CanApprove() {
		reservations, err := h.store.ListByUser(ctx, middleware.UserID(c), limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toReservationResponses(reservations))
		return
	}

	filter := store.ReservationFilter{Limit: limit, Offset: offset}
	if s := c.Query("status"); s != "" {
		status := models.ReservationStatus(s)
		filter.Status = &status
	}
	if r := c.Query("room_id"); r != "" {
		if roomID, err := strconv.ParseInt(r, 10, 64); err == nil {
			filter.RoomID = &roomID
		}
	}
	if u := c.Query("user_id"); u != "" {
		if userID, err := strconv.ParseInt(u, 10, 64); err == nil {
			filter.UserID = &userID
		}
	}
	if s := c.Query("start_at"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			filter.Start = &t
		}
	}
	if e := c.Query("end_at"); e != "" {
		if t, err := time.Parse(time.RFC3339, e); err == nil {
			filter.End = &t
		}
	}
	reservations, err := h.store.ListReservations(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponses(reservations))
}

func (h *ReservationHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.coordinator.Update(c.Request.Context(), booking.UpdateInput{
		ReservationID: id,
		ActorID:       middleware.UserID(c),
		ActorRole:     middleware.Role(c),
		Title:         req.Title,
		Description:   req.Description,
		StartAt:       req.StartAt,
		EndAt:         req.EndAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromReservation(res))
}

func (h *ReservationHandler) Approve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.coordinator.Approve(c.Request.Context(), id, middleware.UserID(c), middleware.Role(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromReservation(res))
}

func (h *ReservationHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RejectReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.coordinator.Reject(c.Request.Context(), id, middleware.UserID(c), middleware.Role(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromReservation(res))
}

// Cancel takes the optional reason from the query string, since DELETE
// requests carry no body.
func (h *ReservationHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	reason := c.Query("reason")
	if _, err := h.coordinator.Cancel(c.Request.Context(), id, middleware.UserID(c), middleware.Role(c), reason); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func canView(c *gin.Context, res *models.Reservation) bool {
	role := middleware.Role(c)
	return role.CanApprove() || res.UserID == middleware.UserID(c)
}

func toReservationResponses(reservations []models.Reservation) []dto.ReservationResponse {
	out := make([]dto.ReservationResponse, 0, len(reservations))
	for i := range reservations {
		out = append(out, dto.FromReservation(&reservations[i]))
	}
	return out
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		offset = o
	}
	return
}
