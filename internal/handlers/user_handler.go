package handlers

import (
	"net/http"

	"bid-qualification-service/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler serves the workflow user directory
type UserHandler struct {
	query *services.QueryService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(query *services.QueryService) *UserHandler {
	return &UserHandler{query: query}
}

// ListByRole returns the active users holding a role
// @Summary List users by role
// @Tags Users
// @Produce json
// @Param role query string true "Role tag or alias"
// @Success 200 {array} models.WorkflowUser
// @Router /api/v1/users [get]
func (h *UserHandler) ListByRole(c *gin.Context) {
	role := c.Query("role")
	if role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role query parameter is required"})
		return
	}

	users, err := h.query.ListUsersByRole(c.Request.Context(), role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
