package handlers

import (
	"errors"
	"net/http"

	"github.com/JavierABADdelMolino/TASKLY-sub000/services"
	"go.uber.org/zap"
)

// UserHandler handles profile endpoints of the authenticated user
type UserHandler struct {
	users   *services.UserService
	avatars *services.AvatarStore
	log     *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, avatars *services.AvatarStore, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, avatars: avatars, log: logger}
}

// Me returns the caller's profile
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Me(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateMe edits the caller's profile
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  *string          `json:"username"`
		FirstName *string          `json:"firstName"`
		LastName  *string          `json:"lastName"`
		BirthDate optional[string] `json:"birthDate"`
		Gender    *string          `json:"gender"`
		Theme     *string          `json:"theme"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	patch := services.ProfilePatch{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BirthDateSet: req.BirthDate.Set,
		Gender:       req.Gender,
		Theme:        req.Theme,
	}
	if req.BirthDate.Set {
		var err error
		if patch.BirthDate, err = parseDate("birthDate", req.BirthDate.Value); err != nil {
			writeError(w, h.log, err)
			return
		}
	}

	u, err := h.users.UpdateProfile(r.Context(), userID(r), patch)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UploadAvatar takes a multipart form with the image in the "avatar" field.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.avatars.MaxBytes()+64*1024)
	file, _, err := r.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(w, "avatar must be at most %d bytes", h.avatars.MaxBytes())
			return
		}
		badRequest(w, "avatar file is required")
		return
	}
	defer file.Close()

	u, err := h.users.SetAvatar(r.Context(), userID(r), file)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ChangePassword replaces the caller's password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	if err := h.users.ChangePassword(r.Context(), userID(r), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "password updated")
}

// DeleteMe deletes the caller's account and everything it owns
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), userID(r)); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "account deleted")
}
