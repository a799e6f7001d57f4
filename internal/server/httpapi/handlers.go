package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okulikov/authd/internal/common"
	"github.com/okulikov/authd/internal/server/models"
)

// minPasswordLength is the signup-time password policy. The stores themselves
// only require a non-empty credential; the length floor is a property of the
// public surface.
const minPasswordLength = 8

type credentialsRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type passwordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type profileRequest struct {
	Profile *string `json:"profile"`
}

type userResponse struct {
	Username        string  `json:"username"`
	Profile         *string `json:"profile"`
	PermissionLevel int32   `json:"permission_level"`
}

type publicUserResponse struct {
	Username string  `json:"username"`
	Profile  *string `json:"profile"`
}

type usernamesResponse struct {
	Users []string `json:"users"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps store sentinels to HTTP statuses. Anything
// unrecognized is a server-side failure and is logged, not echoed.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidSession):
		writeError(w, http.StatusUnauthorized, "invalid session")
	case errors.Is(err, common.ErrInsufficientPermission):
		writeError(w, http.StatusForbidden, "insufficient permission")
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "username already taken")
	default:
		s.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.ErrInvalidInput
	}
	return nil
}

// authorize pulls the session token out of the request context and runs it
// through the gate.
func (s *Server) authorize(r *http.Request, minLevel int32) (int64, error) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		return 0, common.ErrInvalidSession
	}
	return s.gate.Authorize(r.Context(), token, minLevel)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password too short")
		return
	}

	userID, err := s.credentials.Register(r.Context(), req.Username, []byte(req.Password), nil, models.PermissionUser)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	token, err := s.sessions.Issue(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, publicUserResponse{Username: req.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	userID, err := s.credentials.Verify(r.Context(), req.Username, []byte(req.Password))
	if err != nil {
		// unknown username and wrong password must be indistinguishable
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrInvalidCredential) {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	token, err := s.sessions.Issue(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, publicUserResponse{Username: req.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := tokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	if err := s.sessions.Revoke(r.Context(), token); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authorize(r, models.PermissionUser)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := s.credentials.Delete(r.Context(), userID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authorize(r, models.PermissionUser)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	user, err := s.credentials.GetByID(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := userResponse{Username: user.Username, PermissionLevel: user.PermissionLevel}
	if user.Profile.Valid {
		resp.Profile = &user.Profile.String
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authorize(r, models.PermissionUser)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req passwordRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "passwords do not match")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password too short")
		return
	}

	// revokes every session of the user, including this one
	if err := s.credentials.UpdateCredential(r.Context(), userID, []byte(req.Password)); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authorize(r, models.PermissionUser)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.credentials.UpdateProfile(r.Context(), userID, req.Profile); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	usernames, err := s.credentials.ListUsernames(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usernamesResponse{Users: usernames})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := s.credentials.GetByUsername(r.Context(), username)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := publicUserResponse{Username: user.Username}
	if user.Profile.Valid {
		resp.Profile = &user.Profile.String
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authorize(r, models.PermissionAdmin); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	usernames, err := s.credentials.ListAdmins(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usernamesResponse{Users: usernames})
}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	s.setPermissionLevel(w, r, models.PermissionUser, models.PermissionAdmin)
}

func (s *Server) handleDemote(w http.ResponseWriter, r *http.Request) {
	s.setPermissionLevel(w, r, models.PermissionAdmin, models.PermissionUser)
}

// setPermissionLevel moves the target user from one permission level to
// another on behalf of an admin. A target already away from `from` is left
// untouched, so promote and demote are idempotent.
func (s *Server) setPermissionLevel(w http.ResponseWriter, r *http.Request, from, to int32) {
	if _, err := s.authorize(r, models.PermissionAdmin); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	target, err := s.credentials.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if target.PermissionLevel == from {
		if err := s.credentials.UpdatePermissionLevel(r.Context(), target.ID, to); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
