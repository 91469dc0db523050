package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-reservation-api/internal/directory"
	"room-reservation-api/internal/dto"
	"room-reservation-api/internal/models"
)

// DepartmentHandler exposes department listing publicly and department
// administration to ADMIN-gated routes.
type DepartmentHandler struct {
	directory *directory.Service
}

func NewDepartmentHandler(dir *directory.Service) *DepartmentHandler {
	return &DepartmentHandler{directory: dir}
}

func (h *DepartmentHandler) List(c *gin.Context) {
	departments, err := h.directory.ListDepartments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.DepartmentResponse, 0, len(departments))
	for i := range departments {
		out = append(out, dto.FromDepartment(&departments[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *DepartmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dept, err := h.directory.GetDepartment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDepartment(dept))
}

func (h *DepartmentHandler) Create(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if !bindJSON(c, &req) {
		return
	}
	dept := &models.Department{Name: req.Name, Code: req.Code, ManagerID: req.ManagerID}
	if err := h.directory.CreateDepartment(c.Request.Context(), dept); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromDepartment(dept))
}

func (h *DepartmentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateDepartmentRequest
	if !bindJSON(c, &req) {
		return
	}
	target, err := h.directory.GetDepartment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Name != nil {
		target.Name = *req.Name
	}
	if req.ManagerID != nil {
		target.ManagerID = req.ManagerID
	}
	if err := h.directory.UpdateDepartment(c.Request.Context(), target); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDepartment(target))
}

func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.directory.DeleteDepartment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
