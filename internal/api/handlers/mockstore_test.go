package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bandly/bandly/internal/models"
	"github.com/bandly/bandly/internal/store"
)

// mockStore implements store.Store in memory for handler tests. WithTx
// serializes with a mutex; the membership paths check their preconditions
// before writing, so rollback is not modeled.
type mockStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	bands     map[string]*models.Band
	members   map[string]map[string]*models.BandMember
	invites   map[string]*models.Invite
	profiles  map[string]*models.Profile
	users     map[string]*models.User
	passwords map[string]string // userID -> plaintext, mock only
}

func newMockStore() *mockStore {
	return &mockStore{
		bands:     make(map[string]*models.Band),
		members:   make(map[string]map[string]*models.BandMember),
		invites:   make(map[string]*models.Invite),
		profiles:  make(map[string]*models.Profile),
		users:     make(map[string]*models.User),
		passwords: make(map[string]string),
	}
}

func (m *mockStore) Bands() store.BandStore       { return &mockBands{m} }
func (m *mockStore) Invites() store.InviteStore   { return &mockInvites{m} }
func (m *mockStore) Profiles() store.ProfileStore { return &mockProfiles{m} }
func (m *mockStore) Users() store.UserStore       { return &mockUsers{m} }

func (m *mockStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

type mockBands struct{ s *mockStore }

func (b *mockBands) Create(ctx context.Context, band *models.Band) error {
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

func (b *mockBands) Get(ctx context.Context, id string) (*models.Band, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	band, ok := b.s.bands[id]
	if !ok {
		return nil, nil
	}
	cp := *band
	return &cp, nil
}

func (b *mockBands) GetForUpdate(ctx context.Context, id string) (*models.Band, error) {
	return b.Get(ctx, id)
}

func (b *mockBands) List(ctx context.Context) ([]*models.Band, error) {
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

func (b *mockBands) ListForUser(ctx context.Context, userID string) ([]*models.Band, error) {
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
	return out, nil
}

func (b *mockBands) Update(ctx context.Context, band *models.Band) error {
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

func (b *mockBands) Delete(ctx context.Context, id string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	delete(b.s.bands, id)
	delete(b.s.members, id)
	for inviteID, inv := range b.s.invites {
		if inv.BandID == id {
			delete(b.s.invites, inviteID)
		}
	}
	return nil
}

func (b *mockBands) AddMember(ctx context.Context, member *models.BandMember) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.s.members[member.BandID] == nil {
		b.s.members[member.BandID] = make(map[string]*models.BandMember)
	}
	cp := *member
	b.s.members[member.BandID][member.UserID] = &cp
	return nil
}

func (b *mockBands) RemoveMember(ctx context.Context, bandID, userID string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	delete(b.s.members[bandID], userID)
	return nil
}

func (b *mockBands) ListMembers(ctx context.Context, bandID string) ([]*models.BandMember, error) {
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

func (b *mockBands) CountMembers(ctx context.Context, bandID string) (int, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return len(b.s.members[bandID]), nil
}

type mockInvites struct{ s *mockStore }

func (i *mockInvites) Create(ctx context.Context, invite *models.Invite) error {
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

func (i *mockInvites) Get(ctx context.Context, id string) (*models.Invite, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	inv, ok := i.s.invites[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (i *mockInvites) GetForUpdate(ctx context.Context, id string) (*models.Invite, error) {
	return i.Get(ctx, id)
}

func (i *mockInvites) Update(ctx context.Context, invite *models.Invite) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	if _, ok := i.s.invites[invite.ID]; !ok {
		return nil
	}
	cp := *invite
	i.s.invites[invite.ID] = &cp
	return nil
}

func (i *mockInvites) ListByBand(ctx context.Context, bandID string) ([]*models.Invite, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	var out []*models.Invite
	for _, inv := range i.s.invites {
		if inv.BandID == bandID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (i *mockInvites) ListByEmail(ctx context.Context, emailLower string) ([]*models.Invite, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	var out []*models.Invite
	for _, inv := range i.s.invites {
		if inv.InviteeEmailLower == emailLower {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (i *mockInvites) GetEffective(ctx context.Context, bandID, emailLower string) (*models.Invite, error) {
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

type mockProfiles struct{ s *mockStore }

func (p *mockProfiles) Upsert(ctx context.Context, profile *models.Profile) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	cp := *profile
	if existing, ok := p.s.profiles[profile.UserID]; ok {
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

func (p *mockProfiles) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	prof, ok := p.s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *prof
	return &cp, nil
}

func (p *mockProfiles) SetBand(ctx context.Context, userID string, ref *models.BandRef) error {
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

func (p *mockProfiles) ClearBand(ctx context.Context, userID string) error {
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

type mockUsers struct{ s *mockStore }

func (u *mockUsers) Create(ctx context.Context, email, password, displayName string) (*models.User, error) {
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
	u.s.passwords[user.ID] = password
	cp := *user
	return &cp, nil
}

func (u *mockUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (u *mockUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
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

func (u *mockUsers) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, user := range u.s.users {
		if models.NormalizeEmail(user.Email) == models.NormalizeEmail(email) {
			if u.s.passwords[user.ID] != password {
				return nil, store.ErrInvalidCredentials
			}
			cp := *user
			return &cp, nil
		}
	}
	return nil, store.ErrInvalidCredentials
}
