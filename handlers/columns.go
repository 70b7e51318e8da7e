package handlers

import (
	"net/http"

	"github.com/JavierABADdelMolino/TASKLY-sub000/services"
	"go.uber.org/zap"
)

// ColumnHandler handles column endpoints
type ColumnHandler struct {
	columns *services.ColumnService
	log     *zap.Logger
}

// NewColumnHandler creates a new column handler
func NewColumnHandler(columns *services.ColumnService, logger *zap.Logger) *ColumnHandler {
	return &ColumnHandler{columns: columns, log: logger}
}

// ListByBoard returns a board's columns in order
func (h *ColumnHandler) ListByBoard(w http.ResponseWriter, r *http.Request) {
	boardID, err := pathID(r, "boardId")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	cols, err := h.columns.ListByBoard(r.Context(), userID(r), boardID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

// Get returns one column
func (h *ColumnHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	c, err := h.columns.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Create appends a column to a board
func (h *ColumnHandler) Create(w http.ResponseWriter, r *http.Request) {
	boardID, err := pathID(r, "boardId")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	c, err := h.columns.Create(r.Context(), userID(r), boardID, req.Title)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Update renames or reorders a column
func (h *ColumnHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req struct {
		Title *string `json:"title"`
		Order *int    `json:"order"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	c, err := h.columns.Update(r.Context(), userID(r), id, services.ColumnPatch{Title: req.Title, Order: req.Order})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete removes a column and its tasks
func (h *ColumnHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.columns.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "column deleted")
}
