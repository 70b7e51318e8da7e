package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/JavierABADdelMolino/TASKLY-sub000/services"
	"go.uber.org/zap"
)

// BoardHandler handles board endpoints
type BoardHandler struct {
	boards *services.BoardService
	log    *zap.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boards *services.BoardService, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{boards: boards, log: logger}
}

// List returns the caller's boards, newest first
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	boards, err := h.boards.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

// Get returns one board
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	b, err := h.boards.Get(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Create handles board creation
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	b, err := h.boards.Create(r.Context(), userID(r), req.Title, req.Description)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// Update changes a board's title or description
func (h *BoardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	b, err := h.boards.Update(r.Context(), userID(r), id, services.BoardPatch{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Favorite sets the favorite flag; an empty body marks the board.
func (h *BoardHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	var req struct {
		Favorite *bool `json:"favorite"`
	}
	if err := readJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid request format")
		return
	}
	favorite := req.Favorite == nil || *req.Favorite

	b, err := h.boards.SetFavorite(r.Context(), userID(r), id, favorite)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Delete removes a board with its columns and tasks
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if err := h.boards.Delete(r.Context(), userID(r), id); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "board deleted")
}
