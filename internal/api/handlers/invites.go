package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bandly/bandly/internal/api/middleware"
	"github.com/bandly/bandly/internal/band"
	"github.com/bandly/bandly/internal/models"
	"github.com/bandly/bandly/internal/store"
)

// InvitesHandler handles invitation HTTP requests.
type InvitesHandler struct {
	store   store.Store
	service *band.Service
	logger  *slog.Logger
}

// NewInvitesHandler creates a new invites handler.
func NewInvitesHandler(st store.Store, svc *band.Service, logger *slog.Logger) *InvitesHandler {
	return &InvitesHandler{
		store:   st,
		service: svc,
		logger:  logger,
	}
}

// CreateInviteRequest represents the request body for creating an invitation.
type CreateInviteRequest struct {
	Email string `json:"email"`
}

// inviteResponse is the invitation as displayed: status reflects expiry
// evaluated at read time, independent of the stored value.
type inviteResponse struct {
	ID           string              `json:"id"`
	BandID       string              `json:"band_id"`
	BandName     string              `json:"band_name"`
	InviterName  string              `json:"inviter_name"`
	InviteeEmail string              `json:"invitee_email"`
	Status       models.InviteStatus `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	ExpiresAt    time.Time           `json:"expires_at"`
	AcceptedAt   *time.Time          `json:"accepted_at,omitempty"`
}

func toInviteResponse(inv *models.Invite) inviteResponse {
	return inviteResponse{
		ID:           inv.ID,
		BandID:       inv.BandID,
		BandName:     inv.BandName,
		InviterName:  inv.InviterName,
		InviteeEmail: inv.InviteeEmail,
		Status:       inv.EffectiveStatus(),
		CreatedAt:    inv.CreatedAt,
		ExpiresAt:    inv.ExpiresAt,
		AcceptedAt:   inv.AcceptedAt,
	}
}

func toInviteResponses(invites []*models.Invite) []inviteResponse {
	out := make([]inviteResponse, 0, len(invites))
	for _, inv := range invites {
		out = append(out, toInviteResponse(inv))
	}
	return out
}

// Create handles POST /v1/bands/{bandID}/invites (admin only).
func (h *InvitesHandler) Create(w http.ResponseWriter, r *http.Request) {
	inviter, err := principalFromRequest(r, h.store)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	var req CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" {
		WriteBadRequest(w, "email is required")
		return
	}

	bandID := chi.URLParam(r, "bandID")
	invite, err := h.service.CreateInvite(r.Context(), bandID, inviter, req.Email)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toInviteResponse(invite))
}

// ListForBand handles GET /v1/bands/{bandID}/invites (admin only).
func (h *InvitesHandler) ListForBand(w http.ResponseWriter, r *http.Request) {
	actor, err := principalFromRequest(r, h.store)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	bandID := chi.URLParam(r, "bandID")
	invites, err := h.service.ListBandInvites(r.Context(), bandID, actor)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, toInviteResponses(invites))
}

// ListMine handles GET /v1/invites - the invitations addressed to the
// authenticated user's email.
func (h *InvitesHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r.Context())
	if email == "" {
		WriteUnauthorized(w, "unauthorized")
		return
	}

	invites, err := h.service.ListMyInvites(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to list invites", "error", err)
		WriteInternalError(w, "failed to list invites")
		return
	}

	WriteJSON(w, http.StatusOK, toInviteResponses(invites))
}

// Accept handles POST /v1/invites/{inviteID}/accept.
func (h *InvitesHandler) Accept(w http.ResponseWriter, r *http.Request) {
	accepter, err := principalFromRequest(r, h.store)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	inviteID := chi.URLParam(r, "inviteID")
	if err := h.service.AcceptInvite(r.Context(), inviteID, accepter); err != nil {
		if errors.Is(err, band.ErrInviteNotFound) || errors.Is(err, band.ErrInviteNotPending) ||
			errors.Is(err, band.ErrInviteExpired) || errors.Is(err, band.ErrBandFull) ||
			errors.Is(err, band.ErrAlreadyMember) || errors.Is(err, band.ErrBandNotFound) {
			writeMembershipError(w, err)
			return
		}
		h.logger.Error("failed to accept invite", "error", err, "invite_id", inviteID)
		WriteInternalError(w, "failed to accept invite")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// Revoke handles DELETE /v1/invites/{inviteID} (admin only).
func (h *InvitesHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	actor, err := principalFromRequest(r, h.store)
	if err != nil {
		writeMembershipError(w, err)
		return
	}

	inviteID := chi.URLParam(r, "inviteID")
	if err := h.service.RevokeInvite(r.Context(), inviteID, actor); err != nil {
		writeMembershipError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}
