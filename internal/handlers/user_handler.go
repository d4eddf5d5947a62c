package handlers

import (
	"errors"
	"net/http"

	"taskflow-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserHandler serves the user directory routes.
type UserHandler struct {
	users *services.UserDirectory
	log   logrus.FieldLogger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *services.UserDirectory, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// List returns users matching the optional q filter (protected)
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  users,
		"count": len(users),
	})
}

// Lookup reports whether an email belongs to a registered user
// GET /api/users/lookup?email=
func (h *UserHandler) Lookup(c *gin.Context) {
	user, err := h.users.Lookup(c.Request.Context(), c.Query("email"))
	if errors.Is(err, services.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"exists": false, "message": "User not found"})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "user": user})
}
