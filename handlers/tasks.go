package handlers

import (
	"net/http"

	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
	"github.com/JavierABADdelMolino/TASKLY-sub000/services"
	"go.uber.org/zap"
)

// TaskHandler handles task endpoints
type TaskHandler struct {
	tasks *services.TaskService
	log   *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *services.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, log: logger}
}

// ListByColumn returns a column's tasks in order
func (h *TaskHandler) ListByColumn(w http.ResponseWriter, r *http.Request) {
	columnID, err := pathID(r, "columnId")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	tasks, err := h.tasks.ListByColumn(r.Context(), userID(r), columnID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Get returns one task
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	t, err := h.tasks.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Create adds a task to a column
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	columnID, err := pathID(r, "columnId")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req struct {
		Title       string              `json:"title"`
		Description string              `json:"description"`
		Importance  database.Importance `json:"importance"`
		Order       *int                `json:"order"`
		DueDate     *string             `json:"dueDate"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	due, err := parseDate("dueDate", req.DueDate)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	t, err := h.tasks.Create(r.Context(), userID(r), columnID, services.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Importance:  req.Importance,
		Order:       req.Order,
		DueDate:     due,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Update edits a task, possibly moving it to another column
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Importance  *database.Importance `json:"importance"`
		Column      *int64               `json:"column"`
		Order       *int                 `json:"order"`
		DueDate     optional[string]     `json:"dueDate"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	patch := services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Importance:  req.Importance,
		ColumnID:    req.Column,
		Order:       req.Order,
		DueDateSet:  req.DueDate.Set,
	}
	if req.DueDate.Set {
		if patch.DueDate, err = parseDate("dueDate", req.DueDate.Value); err != nil {
			writeError(w, h.log, err)
			return
		}
	}

	t, err := h.tasks.Update(r.Context(), userID(r), id, patch)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SetCompleted handles PATCH with a {completed} body.
func (h *TaskHandler) SetCompleted(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req struct {
		Completed *bool `json:"completed"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	if req.Completed == nil {
		badRequest(w, "completed is required")
		return
	}
	t, err := h.tasks.SetCompleted(r.Context(), userID(r), id, *req.Completed)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SuggestImportance stores and returns a due-date based importance
func (h *TaskHandler) SuggestImportance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	t, err := h.tasks.SuggestImportance(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestedImportance": t.AIImportance,
		"task":                t,
	})
}

// Delete removes a task
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.tasks.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "task deleted")
}
