package manage

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
)

// fakeAuthority records every call and answers from its fields.
type fakeAuthority struct {
	mu    sync.Mutex
	calls []string

	registered *dto.ClientInformation
	read       *dto.ClientInformation
	updated    *dto.ClientInformation
	reset      *dto.ClientInformation
	tokens     []dto.ActiveToken
	err        error

	scopeUpdates [][]string
}

func (f *fakeAuthority) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeAuthority) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAuthority) RegisterClient(_ context.Context, _ dto.ClientBasicInformation) (*dto.ClientInformation, error) {
	if err := f.record("register"); err != nil {
		return nil, err
	}
	return f.registered, nil
}

func (f *fakeAuthority) ReadClientInformation(_ context.Context, _, _ string) (*dto.ClientInformation, error) {
	if err := f.record("read"); err != nil {
		return nil, err
	}
	cp := *f.read
	return &cp, nil
}

func (f *fakeAuthority) UpdateClientInformation(_ context.Context, _ string, _ dto.ClientUpdate, _ string) (*dto.ClientInformation, error) {
	if err := f.record("update"); err != nil {
		return nil, err
	}
	return f.updated, nil
}

func (f *fakeAuthority) ResetClientCredentials(_ context.Context, _, _ string) (*dto.ClientInformation, error) {
	if err := f.record("reset"); err != nil {
		return nil, err
	}
	return f.reset, nil
}

func (f *fakeAuthority) DeleteClient(_ context.Context, _, _ string) error {
	return f.record("delete")
}

func (f *fakeAuthority) GetClientActiveTokens(_ context.Context, _, _ string) ([]dto.ActiveToken, error) {
	if err := f.record("tokens"); err != nil {
		return nil, err
	}
	return f.tokens, nil
}

func (f *fakeAuthority) CreateScope(_ context.Context, _ dto.ScopeInformation, _ string) error {
	return f.record("create-scope")
}

func (f *fakeAuthority) UpdateScope(_ context.Context, _, _ string, permitted []string, _ string) error {
	if err := f.record("update-scope"); err != nil {
		return err
	}
	f.mu.Lock()
	f.scopeUpdates = append(f.scopeUpdates, permitted)
	f.mu.Unlock()
	return nil
}

func (f *fakeAuthority) DeleteScope(_ context.Context, _, _, _ string) error {
	return f.record("delete-scope")
}

// memClients is an in-memory client catalog keyed by client id.
type memClients struct {
	byID     map[string]*models.Client
	listing  []models.ClientListing
	searched []models.ClientSearchResult
}

func newMemClients(clients ...*models.Client) *memClients {
	m := &memClients{byID: map[string]*models.Client{}}
	for _, c := range clients {
		cp := *c
		m.byID[c.ClientID] = &cp
	}
	return m
}

func (m *memClients) sorted(keep func(*models.Client) bool) []*models.Client {
	out := []*models.Client{}
	for _, c := range m.byID {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memClients) FindByID(_ context.Context, id string) (*models.Client, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, errors.NotFound("Client not found.")
	}
	cp := *c
	return &cp, nil
}

func (m *memClients) FindByAudienceID(_ context.Context, aud string) (*models.Client, error) {
	for _, c := range m.byID {
		if c.AudienceID == aud {
			cp := *c
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Client not found.")
}

func (m *memClients) FindByIDs(_ context.Context, ids []string) ([]*models.Client, error) {
	set := map[string]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return m.sorted(func(c *models.Client) bool { return set[c.ClientID] }), nil
}

func (m *memClients) FindByTeamID(_ context.Context, team string) ([]*models.Client, error) {
	return m.sorted(func(c *models.Client) bool { return c.TeamID == team }), nil
}

func (m *memClients) FindByTeamIDs(_ context.Context, teams []string) ([]*models.Client, error) {
	set := map[string]bool{}
	for _, id := range teams {
		set[id] = true
	}
	return m.sorted(func(c *models.Client) bool { return set[c.TeamID] }), nil
}

func (m *memClients) SearchByName(_ context.Context, _ string, _ int) ([]models.ClientSearchResult, error) {
	return append([]models.ClientSearchResult(nil), m.searched...), nil
}

func (m *memClients) Find(_ context.Context, _ models.FindQuery) ([]models.ClientListing, error) {
	return append([]models.ClientListing(nil), m.listing...), nil
}

func (m *memClients) Create(_ context.Context, c *models.Client) (*models.Client, error) {
	if _, ok := m.byID[c.ClientID]; ok {
		return nil, errors.DuplicateUnique("Client uniques already exists.", nil)
	}
	cp := *c
	if cp.Description == "" {
		cp.Description = models.DefaultClientDescription
	}
	m.byID[cp.ClientID] = &cp
	out := cp
	return &out, nil
}

func (m *memClients) Update(_ context.Context, id string, patch models.ClientPatch) (*models.Client, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, errors.NotFound("Client not found.")
	}
	patch.Apply(c)
	if c.ClientID != id {
		delete(m.byID, id)
		m.byID[c.ClientID] = c
	}
	cp := *c
	return &cp, nil
}

func (m *memClients) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return errors.NotFound("Client not found.")
	}
	delete(m.byID, id)
	return nil
}

// memScopes is an in-memory scope catalog backed by a memClients.
type memScopes struct {
	clients   *memClients
	byID      map[string]*models.Scope
	permitted []models.PermittedGroup
}

func newMemScopes(clients *memClients, scopes ...*models.Scope) *memScopes {
	m := &memScopes{clients: clients, byID: map[string]*models.Scope{}}
	for _, sc := range scopes {
		cp := *sc
		if cp.ID.IsZero() {
			cp.ID = primitive.NewObjectID()
		}
		sc.ID = cp.ID
		m.byID[cp.ID.Hex()] = &cp
	}
	return m
}

func (m *memScopes) FindByID(_ context.Context, id string) (*models.Scope, error) {
	sc, ok := m.byID[id]
	if !ok {
		return nil, errors.NotFound("Scope not found.")
	}
	cp := *sc
	return &cp, nil
}

func (m *memScopes) FindByAudienceID(ctx context.Context, aud string) ([]*models.Scope, error) {
	return m.FindByAudienceIDs(ctx, []string{aud})
}

func (m *memScopes) FindByAudienceIDs(_ context.Context, auds []string) ([]*models.Scope, error) {
	set := map[string]bool{}
	for _, a := range auds {
		set[a] = true
	}
	out := []*models.Scope{}
	for _, sc := range m.byID {
		if set[sc.AudienceID] {
			cp := *sc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

func (m *memScopes) FindByAudienceIDAndValue(_ context.Context, aud, value string) (*models.Scope, error) {
	for _, sc := range m.byID {
		if sc.AudienceID == aud && sc.Value == value {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Scope not found.")
}

func (m *memScopes) CountByAudienceID(_ context.Context, aud string) (int64, error) {
	var n int64
	for _, sc := range m.byID {
		if sc.AudienceID == aud {
			n++
		}
	}
	return n, nil
}

func (m *memScopes) FindPermitted(_ context.Context, _ models.PermittedQuery) ([]models.PermittedGroup, error) {
	return append([]models.PermittedGroup(nil), m.permitted...), nil
}

func (m *memScopes) ValidatePermittedClients(_ context.Context, ids []string) error {
	for _, id := range ids {
		if _, ok := m.clients.byID[id]; !ok {
			return errors.NotFound("Some of the permitted clients not found.")
		}
	}
	return nil
}

func (m *memScopes) Create(_ context.Context, sc *models.Scope) (*models.Scope, error) {
	cp := *sc
	cp.ID = primitive.NewObjectID()
	m.byID[cp.ID.Hex()] = &cp
	out := cp
	return &out, nil
}

func (m *memScopes) Update(_ context.Context, aud, value string, permitted []string) (*models.Scope, error) {
	for _, sc := range m.byID {
		if sc.AudienceID == aud && sc.Value == value {
			sc.PermittedClients = permitted
			cp := *sc
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Scope not found.")
}

func (m *memScopes) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return errors.NotFound("Scope not found.")
	}
	delete(m.byID, id)
	return nil
}

// memTeams maps users to the teams they belong to.
type memTeams struct {
	teams   map[string]*models.Team
	members map[string][]string
	roles   map[string]models.TeamRole
}

func (m *memTeams) ListByUser(_ context.Context, user string) ([]*models.Team, error) {
	out := []*models.Team{}
	for _, id := range m.members[user] {
		if t, ok := m.teams[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTeams) GetByIDs(_ context.Context, ids []string) ([]*models.Team, error) {
	out := []*models.Team{}
	for _, id := range ids {
		if t, ok := m.teams[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTeams) GetByID(_ context.Context, id string) (*models.Team, error) {
	return m.teams[id], nil
}

func (m *memTeams) Create(_ context.Context, name, description, owner string) (*models.Team, error) {
	for _, t := range m.teams {
		if t.Name == name {
			return nil, errors.DuplicateUnique("Team name already exists.", nil)
		}
	}
	t := &models.Team{ID: "team-" + name, Name: name, Description: description, OwnerID: owner}
	m.teams[t.ID] = t
	m.members[owner] = append(m.members[owner], t.ID)
	return t, nil
}

func (m *memTeams) Update(_ context.Context, id string, patch models.TeamPatch) (*models.Team, error) {
	t, ok := m.teams[id]
	if !ok {
		return nil, errors.NotFound("Team not found.")
	}
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	return t, nil
}

func (m *memTeams) Delete(ctx context.Context, id string) error {
	if _, ok := m.teams[id]; !ok {
		return errors.NotFound("Team not found.")
	}
	delete(m.teams, id)
	for user := range m.members {
		_ = m.RemoveMember(ctx, id, user)
	}
	return nil
}

func (m *memTeams) AddMember(ctx context.Context, teamID, user string, role models.TeamRole) error {
	if !role.IsValid() {
		return errors.InvalidParameter("", "Unknown team role.")
	}
	m.roles[teamID+"/"+user] = role
	if ok, _ := m.IsMember(ctx, teamID, user); !ok {
		m.members[user] = append(m.members[user], teamID)
	}
	return nil
}

func (m *memTeams) RemoveMember(_ context.Context, teamID, user string) error {
	kept := m.members[user][:0]
	for _, id := range m.members[user] {
		if id != teamID {
			kept = append(kept, id)
		}
	}
	m.members[user] = kept
	delete(m.roles, teamID+"/"+user)
	return nil
}

func (m *memTeams) IsMember(_ context.Context, teamID, user string) (bool, error) {
	if t, ok := m.teams[teamID]; ok && t.OwnerID == user {
		return true, nil
	}
	for _, id := range m.members[user] {
		if id == teamID {
			return true, nil
		}
	}
	return false, nil
}

func testTeams() *memTeams {
	return &memTeams{
		teams: map[string]*models.Team{
			"t1": {ID: "t1", Name: "core", OwnerID: "alice"},
			"t2": {ID: "t2", Name: "edge", OwnerID: "bob"},
		},
		members: map[string][]string{"alice": {"t1"}, "bob": {"t1", "t2"}},
		roles:   map[string]models.TeamRole{},
	}
}
