// Package band implements the band membership workflow: invitation issuance,
// transactional acceptance, the symmetric leave/removal paths, and the
// profile mirror that tracks them.
//
// Every precondition lives here, server-side. The acceptance path runs inside
// one store transaction with the band row locked, so the capacity and
// duplicate-membership checks are evaluated against the same snapshot the
// writes land on: two concurrent acceptances can never push a roster past the
// cap or add the same user twice.
package band

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bandly/bandly/internal/events"
	"github.com/bandly/bandly/internal/models"
	"github.com/bandly/bandly/internal/store"
)

// Principal is the acting user, as identified by the auth layer.
type Principal struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    string
}

// InviteMailer delivers invitation emails. Delivery is best-effort: failures
// are logged and never fail the issuing operation.
type InviteMailer interface {
	SendInvite(ctx context.Context, invite *models.Invite) error
}

// Service implements the membership workflow.
type Service struct {
	store  store.Store
	mailer InviteMailer
	events events.Publisher
	logger *slog.Logger
}

// NewService creates a membership service. mailer may be nil when invitation
// email delivery is not configured.
func NewService(st store.Store, mailer InviteMailer, publisher events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		store:  st,
		mailer: mailer,
		events: publisher,
		logger: logger,
	}
}

// CreateBand creates a band with the creator as its first admin member and
// writes the creator's profile mirror in the same transaction.
func (s *Service) CreateBand(ctx context.Context, creator Principal, band *models.Band) (*models.Band, error) {
	if err := band.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Bands().Create(ctx, band); err != nil {
			return fmt.Errorf("creating band: %w", err)
		}

		member := &models.BandMember{
			BandID:      band.ID,
			UserID:      creator.ID,
			Role:        models.RoleAdmin,
			DisplayName: creator.DisplayName,
			PhotoURL:    creator.PhotoURL,
			JoinedAt:    now,
		}
		if err := tx.Bands().AddMember(ctx, member); err != nil {
			return fmt.Errorf("adding founder: %w", err)
		}

		ref := &models.BandRef{
			BandID:   band.ID,
			Name:     band.Name,
			LogoURL:  band.PhotoURL,
			JoinedAt: now,
		}
		if err := tx.Profiles().SetBand(ctx, creator.ID, ref); err != nil {
			return fmt.Errorf("setting profile mirror: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return band, nil
}

// GetBand returns a band together with its roster.
func (s *Service) GetBand(ctx context.Context, bandID string) (*models.BandDetail, error) {
	b, err := s.store.Bands().Get(ctx, bandID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBandNotFound
	}

	members, err := s.store.Bands().ListMembers(ctx, bandID)
	if err != nil {
		return nil, err
	}

	return &models.BandDetail{
		Band:        *b,
		Members:     members,
		MemberCount: len(members),
	}, nil
}

// ListBands returns all bands.
func (s *Service) ListBands(ctx context.Context) ([]*models.Band, error) {
	return s.store.Bands().List(ctx)
}

// BandUpdate carries the admin-editable band fields; nil means unchanged.
type BandUpdate struct {
	Name     *string
	Region   *string
	Genres   *[]string
	Bio      *string
	PhotoURL *string
}

// UpdateBand applies an admin's edits to a band profile.
func (s *Service) UpdateBand(ctx context.Context, bandID string, actor Principal, upd BandUpdate) (*models.Band, error) {
	detail, err := s.GetBand(ctx, bandID)
	if err != nil {
		return nil, err
	}
	if detail.RoleOf(actor.ID) != models.RoleAdmin {
		return nil, ErrNotAdmin
	}

	b := detail.Band
	if upd.Name != nil {
		b.Name = *upd.Name
	}
	if upd.Region != nil {
		b.Region = *upd.Region
	}
	if upd.Genres != nil {
		b.Genres = *upd.Genres
	}
	if upd.Bio != nil {
		b.Bio = *upd.Bio
	}
	if upd.PhotoURL != nil {
		b.PhotoURL = *upd.PhotoURL
	}

	if err := s.store.Bands().Update(ctx, &b); err != nil {
		return nil, err
	}

	return &b, nil
}

// CreateInvite issues an invitation for one email address to join one band.
//
// Preconditions, all enforced here: the inviter holds the admin role, the
// roster is below capacity, the address passes the syntactic check, and no
// effective (pending, unexpired) invitation exists for the same band and
// address. The invitation expires 14 days after issuance.
func (s *Service) CreateInvite(ctx context.Context, bandID string, inviter Principal, inviteeEmail string) (*models.Invite, error) {
	var invite *models.Invite
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		// Lock the band row: the duplicate check below must see the snapshot
		// the insert lands on, so two concurrent invites to the same address
		// cannot both pass it.
		b, err := tx.Bands().GetForUpdate(ctx, bandID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBandNotFound
		}

		members, err := tx.Bands().ListMembers(ctx, bandID)
		if err != nil {
			return err
		}
		role := models.MemberRole("")
		for _, m := range members {
			if m.UserID == inviter.ID {
				role = m.Role
			}
		}
		if role != models.RoleAdmin {
			return ErrNotAdmin
		}
		if len(members) >= models.MaxBandMembers {
			return ErrBandFull
		}
		if !models.ValidEmail(inviteeEmail) {
			return ErrInvalidEmail
		}

		emailLower := models.NormalizeEmail(inviteeEmail)
		existing, err := tx.Invites().GetEffective(ctx, bandID, emailLower)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyInvited
		}

		now := time.Now().UTC()
		invite = &models.Invite{
			BandID:            bandID,
			BandName:          b.Name,
			InviterID:         inviter.ID,
			InviterName:       inviter.DisplayName,
			InviteeEmail:      inviteeEmail,
			InviteeEmailLower: emailLower,
			Status:            models.InviteStatusPending,
			CreatedAt:         now,
			ExpiresAt:         now.Add(models.InviteTTL),
		}
		if err := tx.Invites().Create(ctx, invite); err != nil {
			return fmt.Errorf("creating invite: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if err := s.mailer.SendInvite(ctx, invite); err != nil {
			s.logger.Error("failed to send invite email",
				"invite_id", invite.ID, "band_id", bandID, "error", err)
		}
	}

	s.events.Publish(events.Event{
		Type:        events.TypeInviteCreated,
		BandID:      bandID,
		UserID:      inviter.ID,
		DisplayName: inviter.DisplayName,
	})

	return invite, nil
}

// AcceptInvite consumes an invitation and admits the accepter, mutating the
// invitation, the roster, and the accepter's profile mirror in one atomic
// transaction.
func (s *Service) AcceptInvite(ctx context.Context, inviteID string, accepter Principal) error {
	var bandID string
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		// Lock the invite row first: two transactions consuming the same
		// invitation serialize here, and the loser re-reads the committed
		// status instead of a stale pending snapshot.
		invite, err := tx.Invites().GetForUpdate(ctx, inviteID)
		if err != nil {
			return err
		}
		if invite == nil {
			return ErrInviteNotFound
		}
		if invite.Status != models.InviteStatusPending {
			return ErrInviteNotPending
		}
		if invite.IsExpired() {
			return ErrInviteExpired
		}

		// Lock the band row: capacity and duplicate checks below must see
		// the snapshot the writes land on.
		b, err := tx.Bands().GetForUpdate(ctx, invite.BandID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBandNotFound
		}

		members, err := tx.Bands().ListMembers(ctx, b.ID)
		if err != nil {
			return err
		}
		if len(members) >= models.MaxBandMembers {
			return ErrBandFull
		}
		for _, m := range members {
			if m.UserID == accepter.ID {
				return ErrAlreadyMember
			}
		}

		now := time.Now().UTC()

		ref := &models.BandRef{
			BandID:   b.ID,
			Name:     b.Name,
			LogoURL:  b.PhotoURL,
			JoinedAt: now,
		}
		if err := tx.Profiles().SetBand(ctx, accepter.ID, ref); err != nil {
			return fmt.Errorf("setting profile mirror: %w", err)
		}

		member := &models.BandMember{
			BandID:      b.ID,
			UserID:      accepter.ID,
			Role:        models.RoleMember,
			DisplayName: accepter.DisplayName,
			PhotoURL:    accepter.PhotoURL,
			InviteID:    &invite.ID,
			JoinedAt:    now,
		}
		if err := tx.Bands().AddMember(ctx, member); err != nil {
			return fmt.Errorf("adding member: %w", err)
		}

		invite.Status = models.InviteStatusAccepted
		invite.AcceptedAt = &now
		invite.AcceptedBy = accepter.ID
		if err := tx.Invites().Update(ctx, invite); err != nil {
			return fmt.Errorf("marking invite accepted: %w", err)
		}

		bandID = b.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(events.Event{
		Type:        events.TypeMemberJoined,
		BandID:      bandID,
		UserID:      accepter.ID,
		DisplayName: accepter.DisplayName,
	})

	return nil
}

// RevokeInvite revokes a pending invitation. Admins of the invite's band only.
func (s *Service) RevokeInvite(ctx context.Context, inviteID string, actor Principal) error {
	var bandID string
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		// Lock the invite row: an acceptance committing concurrently flips
		// the status, and the pending check below must see that, not a
		// stale read it would then overwrite.
		invite, err := tx.Invites().GetForUpdate(ctx, inviteID)
		if err != nil {
			return err
		}
		if invite == nil {
			return ErrInviteNotFound
		}

		b, err := tx.Bands().Get(ctx, invite.BandID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBandNotFound
		}
		members, err := tx.Bands().ListMembers(ctx, invite.BandID)
		if err != nil {
			return err
		}
		role := models.MemberRole("")
		for _, m := range members {
			if m.UserID == actor.ID {
				role = m.Role
			}
		}
		if role != models.RoleAdmin {
			return ErrNotAdmin
		}

		if invite.Status != models.InviteStatusPending {
			return ErrInviteNotPending
		}

		invite.Status = models.InviteStatusRevoked
		if err := tx.Invites().Update(ctx, invite); err != nil {
			return err
		}

		bandID = invite.BandID
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(events.Event{
		Type:   events.TypeInviteRevoked,
		BandID: bandID,
		UserID: actor.ID,
	})

	return nil
}

// ListBandInvites returns a band's invitations. Admins only.
func (s *Service) ListBandInvites(ctx context.Context, bandID string, actor Principal) ([]*models.Invite, error) {
	if err := s.requireAdmin(ctx, bandID, actor.ID); err != nil {
		return nil, err
	}
	return s.store.Invites().ListByBand(ctx, bandID)
}

// ListMyInvites returns the invitations addressed to an email. Display
// status follows EffectiveStatus: expiry is evaluated at read time.
func (s *Service) ListMyInvites(ctx context.Context, email string) ([]*models.Invite, error) {
	return s.store.Invites().ListByEmail(ctx, models.NormalizeEmail(email))
}

// Leave removes the actor from a band's roster and clears their profile
// mirror in one transaction. The only admin cannot leave while other members
// remain; the sole member must delete the band instead.
func (s *Service) Leave(ctx context.Context, bandID string, actor Principal) error {
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		b, err := tx.Bands().GetForUpdate(ctx, bandID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBandNotFound
		}

		members, err := tx.Bands().ListMembers(ctx, bandID)
		if err != nil {
			return err
		}

		var self *models.BandMember
		admins := 0
		for _, m := range members {
			if m.Role == models.RoleAdmin {
				admins++
			}
			if m.UserID == actor.ID {
				self = m
			}
		}
		if self == nil {
			return ErrNotMember
		}
		if len(members) == 1 {
			return ErrLastMember
		}
		if self.Role == models.RoleAdmin && admins == 1 {
			return ErrLastAdmin
		}

		if err := tx.Bands().RemoveMember(ctx, bandID, actor.ID); err != nil {
			return err
		}
		if err := tx.Profiles().ClearBand(ctx, actor.ID); err != nil {
			return fmt.Errorf("clearing profile mirror: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(events.Event{
		Type:        events.TypeMemberLeft,
		BandID:      bandID,
		UserID:      actor.ID,
		DisplayName: actor.DisplayName,
	})

	return nil
}

// RemoveMember removes a regular member from the roster and clears their
// profile mirror. Admins only; admins remove themselves via Leave and cannot
// remove other admins.
func (s *Service) RemoveMember(ctx context.Context, bandID string, actor Principal, memberID string) error {
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		b, err := tx.Bands().GetForUpdate(ctx, bandID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBandNotFound
		}

		members, err := tx.Bands().ListMembers(ctx, bandID)
		if err != nil {
			return err
		}

		var actorRole models.MemberRole
		var target *models.BandMember
		for _, m := range members {
			if m.UserID == actor.ID {
				actorRole = m.Role
			}
			if m.UserID == memberID {
				target = m
			}
		}
		if actorRole != models.RoleAdmin {
			return ErrNotAdmin
		}
		if memberID == actor.ID {
			return ErrCannotRemoveSelf
		}
		if target == nil {
			return ErrNotMember
		}
		if target.Role == models.RoleAdmin {
			return ErrCannotRemoveAdmin
		}

		if err := tx.Bands().RemoveMember(ctx, bandID, memberID); err != nil {
			return err
		}
		if err := tx.Profiles().ClearBand(ctx, memberID); err != nil {
			return fmt.Errorf("clearing profile mirror: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.events.Publish(events.Event{
		Type:   events.TypeMemberRemoved,
		BandID: bandID,
		UserID: memberID,
	})

	return nil
}

// DeleteBand deletes a band. Admins only. Every member's profile mirror is
// cleared in the same transaction; invitations cascade at the schema level.
func (s *Service) DeleteBand(ctx context.Context, bandID string, actor Principal) error {
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		b, err := tx.Bands().GetForUpdate(ctx, bandID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBandNotFound
		}

		members, err := tx.Bands().ListMembers(ctx, bandID)
		if err != nil {
			return err
		}

		actorRole := models.MemberRole("")
		for _, m := range members {
			if m.UserID == actor.ID {
				actorRole = m.Role
			}
		}
		if actorRole != models.RoleAdmin {
			return ErrNotAdmin
		}

		for _, m := range members {
			if err := tx.Profiles().ClearBand(ctx, m.UserID); err != nil {
				return fmt.Errorf("clearing profile mirror: %w", err)
			}
		}

		return tx.Bands().Delete(ctx, bandID)
	})
	if err != nil {
		return err
	}

	s.events.Publish(events.Event{
		Type:   events.TypeBandDeleted,
		BandID: bandID,
		UserID: actor.ID,
	})

	return nil
}

// requireAdmin checks that userID holds the admin role in bandID.
func (s *Service) requireAdmin(ctx context.Context, bandID, userID string) error {
	detail, err := s.GetBand(ctx, bandID)
	if err != nil {
		return err
	}
	if detail.RoleOf(userID) != models.RoleAdmin {
		return ErrNotAdmin
	}
	return nil
}
