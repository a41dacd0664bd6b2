package handlers

import (
	"errors"
	"net/http"

	"github.com/bandly/bandly/internal/api/middleware"
	"github.com/bandly/bandly/internal/band"
	"github.com/bandly/bandly/internal/store"
)

// errNoPrincipal is returned when the request context carries no
// authenticated user or the account no longer exists.
var errNoPrincipal = errors.New("no authenticated principal")

// principalFromRequest resolves the acting user from the request context,
// loading display name and photo from the account record.
func principalFromRequest(r *http.Request, st store.Store) (band.Principal, error) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return band.Principal{}, errNoPrincipal
	}

	user, err := st.Users().GetByID(r.Context(), userID)
	if err != nil {
		return band.Principal{}, err
	}
	if user == nil {
		return band.Principal{}, errNoPrincipal
	}

	return band.Principal{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
	}, nil
}

// writeMembershipError maps membership service errors to HTTP responses.
// Unknown errors fall through to a generic 500 and should be logged by the
// caller before calling this.
func writeMembershipError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, band.ErrBandNotFound),
		errors.Is(err, band.ErrInviteNotFound):
		WriteNotFound(w, err.Error())
	case errors.Is(err, band.ErrInviteExpired):
		WriteError(w, http.StatusGone, ErrCodeGone, err.Error())
	case errors.Is(err, band.ErrBandFull):
		WriteError(w, http.StatusConflict, "band_full", err.Error())
	case errors.Is(err, band.ErrInviteNotPending),
		errors.Is(err, band.ErrAlreadyMember),
		errors.Is(err, band.ErrAlreadyInvited),
		errors.Is(err, band.ErrLastAdmin),
		errors.Is(err, band.ErrLastMember),
		errors.Is(err, band.ErrCannotRemoveSelf),
		errors.Is(err, band.ErrCannotRemoveAdmin):
		WriteConflict(w, err.Error())
	case errors.Is(err, band.ErrNotAdmin),
		errors.Is(err, band.ErrNotMember):
		WriteForbidden(w, err.Error())
	case errors.Is(err, band.ErrInvalidEmail):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, errNoPrincipal):
		WriteUnauthorized(w, "unauthorized")
	default:
		WriteInternalError(w, "internal error")
	}
}
