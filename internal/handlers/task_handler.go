package handlers

import (
	"net/http"
	"strconv"

	"taskflow-api/internal/middleware"
	"taskflow-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CreateTaskRequest represents the request payload for creating a task
type CreateTaskRequest struct {
	Title         string  `json:"title" binding:"required,max=255"`
	Description   *string `json:"description"`
	DueDate       string  `json:"due_date" binding:"required"`
	Priority      string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	AssigneeEmail string  `json:"assignee_email" binding:"required,email"`
}

// AssignTaskRequest represents the request payload for reassigning a task
type AssignTaskRequest struct {
	AssigneeEmail string `json:"assignee_email" binding:"required,email"`
}

// TaskHandler serves the /api/tasks routes.
type TaskHandler struct {
	tasks *services.TaskService
	log   logrus.FieldLogger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks *services.TaskService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: log}
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

/*
*
List handles GET /api/tasks
Returns one page of tasks assigned to the authenticated user.
Optional query params: priority, status, page, per_page.
*/
func (h *TaskHandler) List(c *gin.Context) {
	page, err := h.tasks.List(c.Request.Context(), c.GetString(middleware.ContextUserID), services.ListTasksInput{
		Priority: c.Query("priority"),
		Status:   c.Query("status"),
		Page:     queryInt(c, "page"),
		PerPage:  queryInt(c, "per_page"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req CreateTaskRequest
	if !bindJSON(c, h.log, &req, false) {
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), c.GetString(middleware.ContextUserID), services.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       req.DueDate,
		Priority:      req.Priority,
		AssigneeEmail: req.AssigneeEmail,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": task})
}

// Show handles GET /api/tasks/:id
func (h *TaskHandler) Show(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": task})
}

// Update handles PUT and PATCH /api/tasks/:id. Only keys present in the
// body are changed.
func (h *TaskHandler) Update(c *gin.Context) {
	var in services.UpdateTaskInput
	if !bindJSON(c, h.log, &in, true) {
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("id"), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": task})
}

// Toggle handles POST /api/tasks/:id/toggle
func (h *TaskHandler) Toggle(c *gin.Context) {
	task, err := h.tasks.ToggleCompletion(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": task})
}

// Assign handles POST /api/tasks/:id/assign
func (h *TaskHandler) Assign(c *gin.Context) {
	var req AssignTaskRequest
	if !bindJSON(c, h.log, &req, false) {
		return
	}

	task, err := h.tasks.Assign(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("id"), req.AssigneeEmail)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": task})
}

// Delete handles DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	taskID := c.Param("id")
	if err := h.tasks.Delete(c.Request.Context(), c.GetString(middleware.ContextUserID), taskID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted",
		"id":      taskID,
	})
}

// Stats handles GET /api/stats
// Returns counts of the authenticated user's tasks by derived status.
func (h *TaskHandler) Stats(c *gin.Context) {
	stats, err := h.tasks.Stats(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
