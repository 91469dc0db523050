package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"room-reservation-api/internal/apperr"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(s string) int64 {
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}

// pathID reads and parses the ":id" path parameter, writing a
// VALIDATION error and returning ok=false if it is not a valid integer.
func pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(c, apperr.New(apperr.Validation, "invalid path parameter: "+name))
		return 0, false
	}
	return id, true
}
