package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"flowtasks/internal/dto"
	"flowtasks/internal/middleware"
	"flowtasks/internal/models"
	"flowtasks/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TaskHandler 负责任务相关接口
type TaskHandler struct {
	DB *gorm.DB
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{DB: db}
}

var errTaskForbidden = errors.New("task belongs to another user")

func toTaskResp(t *models.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// findOwned loads a task and checks it belongs to user.
func (h *TaskHandler) findOwned(id string, user *models.User) (*models.Task, error) {
	var task models.Task
	if err := h.DB.First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if task.UserID != user.ID {
		return nil, errTaskForbidden
	}
	return &task, nil
}

// writeLookupErr maps findOwned errors; verb completes "Not authorized to ... this task".
func writeLookupErr(c *gin.Context, err error, verb string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		util.Error(c, http.StatusNotFound, "Task not found")
	case errors.Is(err, errTaskForbidden):
		util.Error(c, http.StatusForbidden, "Not authorized to "+verb+" this task")
	default:
		slog.Error("load task", "id", c.Param("id"), "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
	}
}

// ListTasks 返回当前用户的全部任务，最新创建的在前
// 可选 ?status=active|completed
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Not authorized")
		return
	}

	q := h.DB.Where("user_id = ?", user.ID)
	switch c.Query("status") {
	case "active":
		q = q.Where("completed = ?", false)
	case "completed":
		q = q.Where("completed = ?", true)
	}

	var tasks []models.Task
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		slog.Error("list tasks", "user_id", user.ID, "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}

	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, toTaskResp(&tasks[i]))
	}
	util.SuccessList(c, len(items), items)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Not authorized")
		return
	}

	task, err := h.findOwned(c.Param("id"), user)
	if err != nil {
		writeLookupErr(c, err, "access")
		return
	}
	util.Success(c, toTaskResp(task))
}

// CreateTask 新建任务；description 默认为空，priority 默认 Medium
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := util.ValidateTitle(req.Title); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := util.ValidateDescription(req.Description); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(req.Priority) {
		util.Error(c, http.StatusBadRequest, "Priority must be Low, Medium or High")
		return
	}
	due, err := util.ParseDueDate(req.DueDate)
	if err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	task := models.Task{
		UserID:      user.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Priority:    req.Priority,
		DueDate:     due,
		Completed:   false,
	}
	if err := h.DB.Create(&task).Error; err != nil {
		slog.Error("create task", "user_id", user.ID, "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}

	util.SuccessMessage(c, http.StatusCreated, "Task created successfully", toTaskResp(&task))
}

// UpdateTask 只修改请求里提供的字段
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.findOwned(c.Param("id"), user)
	if err != nil {
		writeLookupErr(c, err, "update")
		return
	}

	if req.Title != nil {
		if err := util.ValidateTitle(*req.Title); err != nil {
			util.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		if err := util.ValidateDescription(*req.Description); err != nil {
			util.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			util.Error(c, http.StatusBadRequest, "Priority must be Low, Medium or High")
			return
		}
		task.Priority = *req.Priority
	}
	if req.DueDate.Set {
		due, err := util.ParseDueDate(req.DueDate.Value)
		if err != nil {
			util.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		task.DueDate = due
	}

	if err := h.DB.Save(task).Error; err != nil {
		slog.Error("update task", "id", task.ID, "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}

	util.SuccessMessage(c, http.StatusOK, "Task updated successfully", toTaskResp(task))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Not authorized")
		return
	}

	task, err := h.findOwned(c.Param("id"), user)
	if err != nil {
		writeLookupErr(c, err, "delete")
		return
	}

	if err := h.DB.Delete(task).Error; err != nil {
		slog.Error("delete task", "id", task.ID, "err", err)
		util.Error(c, http.StatusInternalServerError, "Server Error")
		return
	}

	util.SuccessMessage(c, http.StatusOK, "Task deleted successfully", gin.H{})
}
