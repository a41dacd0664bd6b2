package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bandly/bandly/internal/band"
	"github.com/bandly/bandly/internal/events"
	"github.com/bandly/bandly/internal/models"
	"github.com/bandly/bandly/internal/store"
)

// BandsHandler handles band HTTP requests.
type BandsHandler struct {
	store   store.Store
	service *band.Service
	hub     *events.Hub
	logger  *slog.Logger
}

// NewBandsHandler creates a new bands handler. hub may be nil when live
// updates are not served.
func NewBandsHandler(st store.Store, svc *band.Service, hub *events.Hub, logger *slog.Logger) *BandsHandler {
	return &BandsHandler{
		store:   st,
		service: svc,
		hub:     hub,
		logger:  logger,
	}
}

// CreateBandRequest represents the request body for creating a band.
type CreateBandRequest struct {
	Name     string   `json:"name"`
	Region   string   `json:"region"`
	Genres   []string `json:"genres"`
	Bio      string   `json:"bio"`
	PhotoURL string   `json:"photo_url"`
}

// Create handles POST /v1/bands.
func (h *BandsHandler) Create(w http.ResponseWriter, r *http.Request) {
	creator, err := principalFromRequest(r, h.store)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	var req CreateBandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid request body")
		return
	}

	b := &models.Band{
		Name:     req.Name,
		Region:   req.Region,
		Genres:   req.Genres,
		Bio:      req.Bio,
		PhotoURL: req.PhotoURL,
	}
	if err := b.Validate(); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	created, err := h.service.CreateBand(r.Context(), creator, b)
	if err != nil {
		h.logger.Error("failed to create band", "error", err)
		writeMembershipError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, created)
}

// List handles GET /v1/bands.
func (h *BandsHandler) List(w http.ResponseWriter, r *http.Request) {
	bands, err := h.service.ListBands(r.Context())
	if err != nil {
		h.logger.Error("failed to list bands", "error", err)
		WriteInternalError(w, "failed to list bands")
		return
	}

	if bands == nil {
		bands = []*models.Band{}
	}
	WriteJSON(w, http.StatusOK, bands)
}

// Get handles GET /v1/bands/{bandID}.
func (h *BandsHandler) Get(w http.ResponseWriter, r *http.Request) {
	bandID := chi.URLParam(r, "bandID")

	detail, err := h.service.GetBand(r.Context(), bandID)
	if err != nil {
		if err != band.ErrBandNotFound {
			h.logger.Error("failed to get band", "error", err, "band_id", bandID)
		}
		writeMembershipError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, detail)
}

// UpdateBandRequest represents the request body for updating a band.
// Absent fields are unchanged.
type UpdateBandRequest struct {
	Name     *string   `json:"name"`
	Region   *string   `json:"region"`
	Genres   *[]string `json:"genres"`
	Bio      *string   `json:"bio"`
	PhotoURL *string   `json:"photo_url"`
}

// Update handles PATCH /v1/bands/{bandID} (admin only).
func (h *BandsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := principalFromRequest(r, h.store)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	var req UpdateBandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid request body")
		return
	}

	bandID := chi.URLParam(r, "bandID")
	updated, err := h.service.UpdateBand(r.Context(), bandID, actor, band.BandUpdate{
		Name:     req.Name,
		Region:   req.Region,
		Genres:   req.Genres,
		Bio:      req.Bio,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /v1/bands/{bandID} (admin only).
func (h *BandsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := principalFromRequest(r, h.store)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	bandID := chi.URLParam(r, "bandID")
	if err := h.service.DeleteBand(r.Context(), bandID, actor); err != nil {
		writeMembershipError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Leave handles POST /v1/bands/{bandID}/leave.
func (h *BandsHandler) Leave(w http.ResponseWriter, r *http.Request) {
	actor, err := principalFromRequest(r, h.store)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	bandID := chi.URLParam(r, "bandID")
	if err := h.service.Leave(r.Context(), bandID, actor); err != nil {
		writeMembershipError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// RemoveMember handles DELETE /v1/bands/{bandID}/members/{userID} (admin only).
func (h *BandsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, err := principalFromRequest(r, h.store)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	bandID := chi.URLParam(r, "bandID")
	memberID := chi.URLParam(r, "userID")
	if err := h.service.RemoveMember(r.Context(), bandID, actor, memberID); err != nil {
		writeMembershipError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// EventsWS handles GET /v1/bands/{bandID}/events/ws, upgrading to a
// websocket subscribed to the band's roster events.
func (h *BandsHandler) EventsWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		WriteNotFound(w, "live updates not available")
		return
	}

	bandID := chi.URLParam(r, "bandID")

	// The band must exist; subscribing to arbitrary IDs is not allowed.
	b, err := h.store.Bands().Get(r.Context(), bandID)
	if err != nil {
		h.logger.Error("failed to get band", "error", err, "band_id", bandID)
		WriteInternalError(w, "failed to get band")
		return
	}
	if b == nil {
		WriteNotFound(w, "band not found")
		return
	}

	h.hub.ServeWS(w, r, bandID)
}
