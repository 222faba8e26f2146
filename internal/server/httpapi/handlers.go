package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkovalev/accountd/internal/common"
	"github.com/dkovalev/accountd/internal/server/models"
	"github.com/dkovalev/accountd/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps JSON request bodies at 16kb.
const maxBodyBytes = 16 << 10

type registerRequest struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateRequest struct {
	Username *string `json:"username"`
	Fullname *string `json:"fullname"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IsAdmin  *bool   `json:"isAdmin"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("hello"))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Please fill all the fields")
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Fullname, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			writeError(w, http.StatusBadRequest, "Please fill all the fields")
		case errors.Is(err, common.ErrAlreadyExists):
			writeError(w, http.StatusBadRequest, "User already exists. Please Login!")
		default:
			s.logger.Error(r.Context(), "register failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Something went wrong while register user")
		}
		return
	}

	writeJSON(w, http.StatusOK, user.Public(), "User Registered Successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Email or Username and Password are required")
		return
	}
	if (req.Username == "" && req.Email == "") || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email or Username and Password are required")
		return
	}

	user, pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			writeError(w, http.StatusBadRequest, "User not found. Please create a account!")
		case errors.Is(err, common.ErrorUnauthorized):
			writeError(w, http.StatusBadRequest, "Password is incorrect!")
		default:
			s.logger.Error(r.Context(), "login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Error while generating Access and Refresh Tokens")
		}
		return
	}

	setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":         user.Public(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User Logged In successfully")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	if err := s.users.Logout(r.Context(), user.ID); err != nil {
		s.logger.Error(r.Context(), "logout failed", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Error while logout!")
		return
	}

	clearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]any{}, "User Logged Out Successfully")
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	// re-read: the account may have been deleted mid-session
	fresh, err := s.users.Get(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, fresh.Public(), "User Profile")
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var req updateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	changes := &services.UserChanges{
		Username: req.Username,
		Fullname: req.Fullname,
		Email:    req.Email,
		Password: req.Password,
		// isAdmin is not accepted on the self-service path
	}

	updated, err := s.users.UpdateProfile(r.Context(), user.ID, changes)
	if err != nil {
		s.respondUpdateError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated.Public(), "User Profile Updated Successfully")
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "list users failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error while fetching users")
		return
	}

	// every record sanitized, including for admins
	public := make([]*models.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	writeJSON(w, http.StatusOK, public, "Users fetched Successfully")
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := s.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, user.Public(), "User fetched Successfully")
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	changes := &services.UserChanges{
		Username: req.Username,
		Fullname: req.Fullname,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	}

	updated, err := s.users.AdminUpdate(r.Context(), id, changes)
	if err != nil {
		s.respondUpdateError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updated.Public(), "User Updated Successfully")
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.users.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, common.ErrAdminProtected):
			writeError(w, http.StatusBadRequest, "Cannot delete admin user")
		case errors.Is(err, common.ErrorNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			s.logger.Error(r.Context(), "delete user failed", "error", err, "user_id", id)
			writeError(w, http.StatusInternalServerError, "Error while deleting user")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{}, "User Deleted Successfully")
}

func (s *Server) respondUpdateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, "Username or email already in use")
	default:
		s.logger.Error(r.Context(), "update user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error while updating user")
	}
}
