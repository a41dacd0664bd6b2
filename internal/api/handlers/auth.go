package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bandly/bandly/internal/auth"
	"github.com/bandly/bandly/internal/models"
	"github.com/bandly/bandly/internal/store"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	store       store.Store
	authService *auth.Service
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(st store.Store, authSvc *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		store:       st,
		authService: authSvc,
		logger:      logger,
	}
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is returned on successful registration or login.
type tokenResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid request body")
		return
	}

	if err := models.ValidateCredentials(req.Email, req.Password); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	if req.DisplayName == "" {
		req.DisplayName = req.Email
	}

	user, err := h.store.Users().Create(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if err == store.ErrDuplicateEmail {
			WriteConflict(w, "email already registered")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		WriteInternalError(w, "failed to create user")
		return
	}

	// Every account starts with a musician profile.
	profile := &models.Profile{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Status:      models.StatusMusician,
	}
	if err := h.store.Profiles().Upsert(r.Context(), profile); err != nil {
		h.logger.Error("failed to create profile", "error", err, "user_id", user.ID)
	}

	token, err := h.authService.GenerateToken(user.ID, user.Email)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		WriteInternalError(w, "failed to generate token")
		return
	}

	WriteJSON(w, http.StatusCreated, tokenResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Token:       token,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		WriteBadRequest(w, "email and password are required")
		return
	}

	user, err := h.store.Users().Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if err == store.ErrInvalidCredentials {
			WriteUnauthorized(w, "invalid email or password")
			return
		}
		h.logger.Error("failed to authenticate", "error", err)
		WriteInternalError(w, "failed to authenticate")
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Email)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		WriteInternalError(w, "failed to generate token")
		return
	}

	WriteJSON(w, http.StatusOK, tokenResponse{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Token:       token,
	})
}
