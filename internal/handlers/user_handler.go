package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-reservation-api/internal/apperr"
	"room-reservation-api/internal/directory"
	"room-reservation-api/internal/dto"
	"room-reservation-api/internal/middleware"
	"room-reservation-api/internal/models"
)

// UserHandler exposes directory operations over users: self-service
// profile editing and ADMIN-gated listing/role management.
type UserHandler struct {
	directory *directory.Service
}

func NewUserHandler(dir *directory.Service) *UserHandler {
	return &UserHandler{directory: dir}
}

func (h *UserHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)
	users, err := h.directory.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.FromUser(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get allows an admin to fetch any user, or a caller to fetch themself.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if id != middleware.UserID(c) && !middleware.Role(c).CanManageDirectory() {
		respondError(c, apperr.New(apperr.Forbidden, "not permitted to view this user"))
		return
	}
	user, err := h.directory.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.directory.UpdateRole(c.Request.Context(), id, models.UserRole(req.Role))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.directory.UpdateProfile(c.Request.Context(), middleware.UserID(c), req.Name, req.Surname)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}
