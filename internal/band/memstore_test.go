package band

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bandly/bandly/internal/models"
	"github.com/bandly/bandly/internal/store"
)

// memStore implements store.Store in memory for testing.
//
// WithTx serializes transactions with a mutex, standing in for the band row
// lock the real store takes: concurrent transactions observe each other's
// committed writes, never an interleaved state. Rollback is not modeled; the
// membership paths under test check every precondition before their first
// write, so a failed transaction has nothing to undo.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bands    map[string]*models.Band
	members  map[string]map[string]*models.BandMember // bandID -> userID
	invites  map[string]*models.Invite
	profiles map[string]*models.Profile
	users    map[string]*models.User
}

func newMemStore() *memStore {
	return &memStore{
		bands:    make(map[string]*models.Band),
		members:  make(map[string]map[string]*models.BandMember),
		invites:  make(map[string]*models.Invite),
		profiles: make(map[string]*models.Profile),
		users:    make(map[string]*models.User),
	}
}

func (m *memStore) Bands() store.BandStore       { return &memBands{m} }
func (m *memStore) Invites() store.InviteStore   { return &memInvites{m} }
func (m *memStore) Profiles() store.ProfileStore { return &memProfiles{m} }
func (m *memStore) Users() store.UserStore       { return &memUsers{m} }

func (m *memStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *memStore) Close() error { return nil }

type memBands struct{ s *memStore }

func (b *memBands) Create(ctx context.Context, band *models.Band) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if band.ID == "" {
		band.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	band.CreatedAt = now
	band.UpdatedAt = now
	cp := *band
	b.s.bands[band.ID] = &cp
	return nil
}

func (b *memBands) Get(ctx context.Context, id string) (*models.Band, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	band, ok := b.s.bands[id]
	if !ok {
		return nil, nil
	}
	cp := *band
	return &cp, nil
}

func (b *memBands) GetForUpdate(ctx context.Context, id string) (*models.Band, error) {
	// Transaction serialization in WithTx provides the isolation the real
	// store gets from the row lock.
	return b.Get(ctx, id)
}

func (b *memBands) List(ctx context.Context) ([]*models.Band, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	out := make([]*models.Band, 0, len(b.s.bands))
	for _, band := range b.s.bands {
		cp := *band
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *memBands) ListForUser(ctx context.Context, userID string) ([]*models.Band, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	var out []*models.Band
	for bandID, roster := range b.s.members {
		if _, ok := roster[userID]; ok {
			if band, ok := b.s.bands[bandID]; ok {
				cp := *band
				out = append(out, &cp)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *memBands) Update(ctx context.Context, band *models.Band) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, ok := b.s.bands[band.ID]; !ok {
		return nil
	}
	band.UpdatedAt = time.Now().UTC()
	cp := *band
	b.s.bands[band.ID] = &cp
	return nil
}

func (b *memBands) Delete(ctx context.Context, id string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	delete(b.s.bands, id)
	delete(b.s.members, id)
	// Invitations cascade, as they do at the schema level.
	for inviteID, inv := range b.s.invites {
		if inv.BandID == id {
			delete(b.s.invites, inviteID)
		}
	}
	return nil
}

func (b *memBands) AddMember(ctx context.Context, member *models.BandMember) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.s.members[member.BandID] == nil {
		b.s.members[member.BandID] = make(map[string]*models.BandMember)
	}
	cp := *member
	b.s.members[member.BandID][member.UserID] = &cp
	return nil
}

func (b *memBands) RemoveMember(ctx context.Context, bandID, userID string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	delete(b.s.members[bandID], userID)
	return nil
}

func (b *memBands) ListMembers(ctx context.Context, bandID string) ([]*models.BandMember, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	out := make([]*models.BandMember, 0, len(b.s.members[bandID]))
	for _, m := range b.s.members[bandID] {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (b *memBands) CountMembers(ctx context.Context, bandID string) (int, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return len(b.s.members[bandID]), nil
}

type memInvites struct{ s *memStore }

func (i *memInvites) Create(ctx context.Context, invite *models.Invite) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	if invite.ID == "" {
		invite.ID = uuid.New().String()
	}
	if invite.InviteeEmailLower == "" {
		invite.InviteeEmailLower = models.NormalizeEmail(invite.InviteeEmail)
	}
	cp := *invite
	i.s.invites[invite.ID] = &cp
	return nil
}

func (i *memInvites) Get(ctx context.Context, id string) (*models.Invite, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	inv, ok := i.s.invites[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (i *memInvites) GetForUpdate(ctx context.Context, id string) (*models.Invite, error) {
	return i.Get(ctx, id)
}

func (i *memInvites) Update(ctx context.Context, invite *models.Invite) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	if _, ok := i.s.invites[invite.ID]; !ok {
		return nil
	}
	cp := *invite
	i.s.invites[invite.ID] = &cp
	return nil
}

func (i *memInvites) ListByBand(ctx context.Context, bandID string) ([]*models.Invite, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	var out []*models.Invite
	for _, inv := range i.s.invites {
		if inv.BandID == bandID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sortInvites(out)
	return out, nil
}

func (i *memInvites) ListByEmail(ctx context.Context, emailLower string) ([]*models.Invite, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	var out []*models.Invite
	for _, inv := range i.s.invites {
		if inv.InviteeEmailLower == emailLower {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sortInvites(out)
	return out, nil
}

func (i *memInvites) GetEffective(ctx context.Context, bandID, emailLower string) (*models.Invite, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	for _, inv := range i.s.invites {
		if inv.BandID == bandID && inv.InviteeEmailLower == emailLower && inv.IsValid() {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func sortInvites(invites []*models.Invite) {
	sort.Slice(invites, func(i, j int) bool {
		if !invites[i].CreatedAt.Equal(invites[j].CreatedAt) {
			return invites[i].CreatedAt.After(invites[j].CreatedAt)
		}
		return invites[i].ID < invites[j].ID
	})
}

type memProfiles struct{ s *memStore }

func (p *memProfiles) Upsert(ctx context.Context, profile *models.Profile) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	cp := *profile
	if existing, ok := p.s.profiles[profile.UserID]; ok {
		// Band mirror columns are owned by SetBand/ClearBand.
		cp.Band = existing.Band
		cp.BandName = existing.BandName
		cp.Status = existing.Status
	}
	if cp.Status == "" {
		cp.Status = models.StatusMusician
	}
	cp.UpdatedAt = time.Now().UTC()
	p.s.profiles[profile.UserID] = &cp
	return nil
}

func (p *memProfiles) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	prof, ok := p.s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *prof
	return &cp, nil
}

func (p *memProfiles) SetBand(ctx context.Context, userID string, ref *models.BandRef) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	prof, ok := p.s.profiles[userID]
	if !ok {
		prof = &models.Profile{UserID: userID}
		p.s.profiles[userID] = prof
	}
	refCp := *ref
	prof.Band = &refCp
	prof.BandName = ref.Name
	prof.Status = models.StatusBand
	prof.UpdatedAt = time.Now().UTC()
	return nil
}

func (p *memProfiles) ClearBand(ctx context.Context, userID string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	prof, ok := p.s.profiles[userID]
	if !ok {
		return nil
	}
	prof.Band = nil
	prof.BandName = ""
	prof.Status = models.StatusMusician
	prof.UpdatedAt = time.Now().UTC()
	return nil
}

type memUsers struct{ s *memStore }

func (u *memUsers) Create(ctx context.Context, email, password, displayName string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if models.NormalizeEmail(existing.Email) == models.NormalizeEmail(email) {
			return nil, store.ErrDuplicateEmail
		}
	}
	user := &models.User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	u.s.users[user.ID] = user
	cp := *user
	return &cp, nil
}

func (u *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (u *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if models.NormalizeEmail(user.Email) == models.NormalizeEmail(email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (u *memUsers) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	// Password checks are exercised against the real store; the membership
	// tests only need identities.
	return nil, store.ErrInvalidCredentials
}
