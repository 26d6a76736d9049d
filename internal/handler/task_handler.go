package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/middleware"
	"taskboard/internal/repository"
	"taskboard/internal/service/task"
	"taskboard/internal/view"
)

type TaskHandler struct {
	tasks  *task.Service
	render view.Renderer
	logger *zap.Logger
}

func NewTaskHandler(tasks *task.Service, render view.Renderer, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, render: render, logger: logger}
}

func (h *TaskHandler) ShowCreate(c *gin.Context) {
	h.render.Render(c, http.StatusOK, "create-tasks", gin.H{})
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	_, err := h.tasks.Create(
		c.Request.Context(),
		c.PostForm("title"),
		c.PostForm("description"),
		c.PostForm("completed"),
		userID,
	)
	if err != nil {
		h.logger.Error("Failed to create task",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Server not respond. Try again")
		return
	}

	c.Redirect(http.StatusFound, "/create")
}

func (h *TaskHandler) List(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	q := task.ParseListQuery(
		c.Query("completed"),
		c.Query("sortBy"),
		c.Query("limit"),
		c.Query("skip"),
	)

	tasks, total, err := h.tasks.List(c.Request.Context(), userID, q)
	if err != nil {
		h.logger.Error("Failed to list tasks",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Server not respond. Try again")
		return
	}

	h.render.Render(c, http.StatusOK, "display-tasks", gin.H{
		"tasks":     tasks,
		"totalTask": total,
	})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, "task not found")
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			c.String(http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("Failed to delete task",
			zap.Int("task_id", id),
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Server not respond. Try again")
		return
	}

	c.Redirect(http.StatusFound, "/read")
}

func (h *TaskHandler) ShowUpdate(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, "task not found")
		return
	}

	t, err := h.tasks.Get(c.Request.Context(), id, userID, task.ScopeOwner)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			c.String(http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("Failed to load task",
			zap.Int("task_id", id),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Server not respond. Try again")
		return
	}

	h.render.Render(c, http.StatusOK, "update-tasks", gin.H{"task": t})
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.String(http.StatusNotFound, "task not found")
		return
	}

	// Only fields present in the body are overwritten.
	var fields repository.TaskUpdate
	if v, ok := c.GetPostForm("title"); ok {
		fields.Title = &v
	}
	if v, ok := c.GetPostForm("description"); ok {
		fields.Description = &v
	}
	if v, ok := c.GetPostForm("completed"); ok {
		b := v == "true"
		fields.Completed = &b
	}

	_, err = h.tasks.Update(c.Request.Context(), id, userID, task.ScopeOwner, fields)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			c.String(http.StatusNotFound, "task not found")
			return
		}
		h.logger.Error("Failed to update task",
			zap.Int("task_id", id),
			zap.Error(err),
		)
		c.String(http.StatusInternalServerError, "Server not respond. Try again")
		return
	}

	c.Redirect(http.StatusFound, "/read")
}
