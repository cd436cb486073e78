package http

import (
	"errors"
	"log/slog"
	"net/http"

	"spendsense/internal/auth"
	"spendsense/internal/core"
)

// userView is the account shape returned to clients. The password never
// leaves the server.
type userView struct {
	ID          string               `json:"id"`
	Username    string               `json:"username"`
	Email       string               `json:"email"`
	Role        string               `json:"role"`
	Preferences core.UserPreferences `json:"preferences"`
	Profile     core.UserProfile     `json:"profile"`
}

func viewOf(u core.User) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Preferences: u.Preferences,
		Profile:     u.Profile,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.auth.Register(r.Context(), sanitizeInput(req.Username), sanitizeInput(req.Email), req.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, r, http.StatusConflict, "username already taken")
		return
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, core.ErrEmptyName):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Register failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, r, http.StatusCreated, viewOf(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"token": token,
		"user":  viewOf(u),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		s.auth.Logout(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, userID string) {
	u, err := s.auth.User(r.Context(), userID)
	if errors.Is(err, auth.ErrUserNotFound) {
		writeError(w, r, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Load user failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "load user failed")
		return
	}
	writeJSON(w, r, http.StatusOK, viewOf(u))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Current string `json:"currentPassword"`
		New     string `json:"newPassword"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.auth.ChangePassword(r.Context(), userID, req.Current, req.New)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusForbidden, "current password is incorrect")
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		slog.ErrorContext(r.Context(), "Change password failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "change password failed")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var profile core.UserProfile
	if err := readJSON(r, &profile); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.auth.UpdateProfile(r.Context(), userID, profile); err != nil {
		slog.ErrorContext(r.Context(), "Update profile failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "update profile failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request, userID string) {
	var prefs core.UserPreferences
	if err := readJSON(r, &prefs); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.auth.UpdatePreferences(r.Context(), userID, prefs); err != nil {
		slog.ErrorContext(r.Context(), "Update preferences failed", "error", err, "user_id", userID)
		writeError(w, r, http.StatusInternalServerError, "update preferences failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
