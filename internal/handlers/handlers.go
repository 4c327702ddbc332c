package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fundraising-backend/internal/middleware"
	"fundraising-backend/internal/models"
)

// requireUserID pulls the authenticated user id out of the gin context
// and writes the error response itself when it is missing or invalid.
func requireUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}

	return userID, true
}

func requireProjectID(c *gin.Context) (uuid.UUID, bool) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return uuid.Nil, false
	}
	return projectID, true
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := "internal error"

	switch {
	case errors.Is(err, models.ErrNotFound):
		status, kind = http.StatusNotFound, "not found"
	case errors.Is(err, models.ErrUnauthorized):
		status, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, models.ErrInvalidState):
		status, kind = http.StatusConflict, "invalid state"
	case errors.Is(err, models.ErrValidation):
		status, kind = http.StatusBadRequest, "validation error"
	case errors.Is(err, models.ErrCapacityExceeded):
		status, kind = http.StatusConflict, "capacity exceeded"
	case errors.Is(err, models.ErrExternalService):
		status, kind = http.StatusBadGateway, "external service error"
	}

	c.JSON(status, models.ErrorResponse{
		Error:   kind,
		Message: err.Error(),
	})
}
