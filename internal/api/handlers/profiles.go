package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bandly/bandly/internal/api/middleware"
	"github.com/bandly/bandly/internal/models"
	"github.com/bandly/bandly/internal/store"
)

// ProfilesHandler handles profile HTTP requests.
type ProfilesHandler struct {
	store  store.Store
	logger *slog.Logger
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(st store.Store, logger *slog.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		store:  st,
		logger: logger,
	}
}

// GetMine handles GET /v1/profile.
func (h *ProfilesHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteUnauthorized(w, "unauthorized")
		return
	}

	h.get(w, r, userID)
}

// Get handles GET /v1/profiles/{userID}.
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, chi.URLParam(r, "userID"))
}

func (h *ProfilesHandler) get(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.store.Profiles().Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get profile", "error", err, "user_id", userID)
		WriteInternalError(w, "failed to get profile")
		return
	}
	if profile == nil {
		WriteNotFound(w, "profile not found")
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

// UpdateProfileRequest represents the request body for updating a profile.
// The band mirror fields are not editable here; only the membership service
// writes them.
type UpdateProfileRequest struct {
	DisplayName *string   `json:"display_name"`
	PhotoURL    *string   `json:"photo_url"`
	Region      *string   `json:"region"`
	Instruments *[]string `json:"instruments"`
	Bio         *string   `json:"bio"`
}

// UpdateMine handles PATCH /v1/profile.
func (h *ProfilesHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteUnauthorized(w, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid request body")
		return
	}

	profile, err := h.store.Profiles().Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get profile", "error", err, "user_id", userID)
		WriteInternalError(w, "failed to get profile")
		return
	}
	if profile == nil {
		profile = &models.Profile{
			UserID: userID,
			Status: models.StatusMusician,
		}
	}

	if req.DisplayName != nil {
		profile.DisplayName = *req.DisplayName
	}
	if req.PhotoURL != nil {
		profile.PhotoURL = *req.PhotoURL
	}
	if req.Region != nil {
		profile.Region = *req.Region
	}
	if req.Instruments != nil {
		profile.Instruments = *req.Instruments
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}

	if err := h.store.Profiles().Upsert(r.Context(), profile); err != nil {
		h.logger.Error("failed to update profile", "error", err, "user_id", userID)
		WriteInternalError(w, "failed to update profile")
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}
