package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/internal/services"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type taskResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	AssignedUserID string    `json:"assigned_user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		AssignedUserID: task.UserID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}

type taskListResponse struct {
	Tasks []taskResponse `json:"tasks"`
	Total int64          `json:"total"`
	Page  int64          `json:"page"`
	Size  int64          `json:"size"`
}

type createTaskRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *string `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	// Ownership always comes from the resolved caller; a user id in
	// the request body is ignored.
	params := services.CreateTaskParams{
		UserID: user.ID,
		Title:  req.Title,
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.Status != nil {
		params.Status = *req.Status
	}
	if req.Priority != nil {
		params.Priority = *req.Priority
	}

	task, err := h.tasks.Create(c, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	skip, err := strconv.ParseUint(c.DefaultQuery("skip", "0"), 10, 32)
	if err != nil {
		abort(c, newBadRequestError(errInvalidQueryParams.Error()))
		return
	}

	limit, err := strconv.ParseUint(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)), 10, 32)
	if err != nil || limit < 1 || limit > maxPageSize {
		abort(c, newBadRequestError(errInvalidQueryParams.Error()))
		return
	}

	tasks, total, err := h.tasks.List(c, services.ListTasksParams{
		UserID:   user.ID,
		Status:   c.Query("task_status"),
		Priority: c.Query("priority"),
		Offset:   uint32(skip),
		Limit:    uint32(limit),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTaskStatus),
			errors.Is(err, services.ErrInvalidTaskPriority):
			abort(c, newBadRequestError(err.Error()))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to list tasks")
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	response := taskListResponse{
		Tasks: make([]taskResponse, len(tasks)),
		Total: total,
		Page:  int64(skip)/int64(limit) + 1,
		Size:  int64(limit),
	}
	for i, task := range tasks {
		response.Tasks[i] = newTaskResponse(task)
	}

	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, newBadRequestError(errInvalidTaskID.Error()))
		return
	}

	task, err := h.tasks.GetByID(c, taskID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to get task")
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

type updateTaskRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,max=200"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" binding:"omitempty,oneof=pending in_progress completed"`
	Priority    *string `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, newBadRequestError(errInvalidTaskID.Error()))
		return
	}

	var req updateTaskRequest
	err = c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.Update(c, services.UpdateTaskParams{
		ID:          taskID,
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		case errors.Is(err, services.ErrInvalidTaskStatus),
			errors.Is(err, services.ErrInvalidTaskPriority):
			abort(c, newBadRequestError(err.Error()))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to update task")
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newUnauthorizedError(http.StatusText(http.StatusUnauthorized)))
		return
	}

	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, newBadRequestError(errInvalidTaskID.Error()))
		return
	}

	err = h.tasks.Delete(c, taskID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to delete task")
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
