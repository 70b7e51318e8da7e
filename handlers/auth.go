package handlers

import (
	"net/http"

	"github.com/JavierABADdelMolino/TASKLY-sub000/services"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	log         *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		log:         logger,
	}
}

// Register handles account sign-up
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string  `json:"email"`
		Username  string  `json:"username"`
		Password  string  `json:"password"`
		FirstName string  `json:"firstName"`
		LastName  string  `json:"lastName"`
		BirthDate *string `json:"birthDate"`
		Gender    string  `json:"gender"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	birthDate, err := parseDate("birthDate", req.BirthDate)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	session, err := h.authService.Register(r.Context(), services.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: birthDate,
		Gender:    req.Gender,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Login accepts the email or the username as identifier.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	if req.Identifier == "" {
		req.Identifier = req.Email
	}

	session, err := h.authService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Google handles sign-in with a Google ID token
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	session, err := h.authService.GoogleLogin(r.Context(), req.Credential)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.userService.Me(r.Context(), userID(r))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ForgotPassword mails a reset link when the email is known
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "if an account exists for that email, a reset link has been sent")
}

// ResetPassword sets a new password using a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		badRequest(w, "invalid request format")
		return
	}
	if err := h.authService.ResetPassword(r.Context(), mux.Vars(r)["token"], req.Password); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeMessage(w, http.StatusOK, "password has been reset")
}
