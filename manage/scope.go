package manage

import (
	"context"
	"log/slog"

	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
)

// ScopeManager creates and maintains the scopes clients expose.
type ScopeManager struct {
	authority ScopeAuthority
	scopes    ScopeCatalog
	clients   ClientCatalog
	teams     teamResolver
	logger    *slog.Logger
}

// NewScopeManager wires the scope orchestration. teams may be nil.
func NewScopeManager(auth ScopeAuthority, scopes ScopeCatalog, clients ClientCatalog, teams TeamDirectory, logger *slog.Logger) *ScopeManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeManager{
		authority: auth,
		scopes:    scopes,
		clients:   clients,
		teams:     teamResolver{dir: teams, logger: logger},
		logger:    logger,
	}
}

// owner resolves the client owning audienceID and checks it belongs to teamID.
func (m *ScopeManager) owner(ctx context.Context, teamID, audienceID string) (*models.Client, error) {
	if teamID == "" {
		return nil, errMissingTeam
	}
	c, err := m.clients.FindByAudienceID(ctx, audienceID)
	if err != nil {
		return nil, err
	}
	if c.TeamID != teamID {
		return nil, errors.NotFound("Client not found.")
	}
	return c, nil
}

// decorate attaches the owning client, and the permitted clients, each
// with its team, to every scope.
func (m *ScopeManager) decorate(ctx context.Context, scopes []*models.Scope, owners map[string]*models.Client) []dto.ScopeResponse {
	var permittedIDs []string
	for _, sc := range scopes {
		permittedIDs = append(permittedIDs, sc.PermittedClients...)
	}
	permitted := map[string]*models.Client{}
	if len(permittedIDs) > 0 {
		found, err := m.clients.FindByIDs(ctx, models.Dedupe(permittedIDs))
		if err != nil {
			m.logger.Warn("permitted client lookup failed", "error", err)
		}
		for _, c := range found {
			permitted[c.ClientID] = c
		}
	}

	teamIDs := make([]string, 0, len(owners)+len(permitted))
	for _, c := range owners {
		teamIDs = append(teamIDs, c.TeamID)
	}
	for _, c := range permitted {
		teamIDs = append(teamIDs, c.TeamID)
	}
	teams := m.teams.byID(ctx, teamIDs)
	project := func(c *models.Client) dto.ScopeOwner {
		return dto.ScopeOwner{
			ClientID:    c.ClientID,
			Name:        c.Name,
			Description: c.Description,
			Team:        teams[c.TeamID],
		}
	}

	out := make([]dto.ScopeResponse, 0, len(scopes))
	for _, sc := range scopes {
		resp := dto.ScopeResponse{Scope: *sc, PermittedClientsDetails: []dto.ScopeOwner{}}
		if c, ok := owners[sc.AudienceID]; ok {
			owner := project(c)
			resp.Client = &owner
		}
		for _, id := range sc.PermittedClients {
			if c, ok := permitted[id]; ok {
				resp.PermittedClientsDetails = append(resp.PermittedClientsDetails, project(c))
			}
		}
		out = append(out, resp)
	}
	return out
}

// ListForUser lists the scopes owned by the clients of the user's teams.
func (m *ScopeManager) ListForUser(ctx context.Context, userID string) ([]dto.ScopeResponse, error) {
	teamIDs, err := m.teams.userTeamIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(teamIDs) == 0 {
		return []dto.ScopeResponse{}, nil
	}
	clients, err := m.clients.FindByTeamIDs(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	owners := make(map[string]*models.Client, len(clients))
	audiences := make([]string, 0, len(clients))
	for _, c := range clients {
		owners[c.AudienceID] = c
		audiences = append(audiences, c.AudienceID)
	}
	scopes, err := m.scopes.FindByAudienceIDs(ctx, audiences)
	if err != nil {
		return nil, err
	}
	return m.decorate(ctx, scopes, owners), nil
}

// ListForClient lists the scopes a team's client owns.
func (m *ScopeManager) ListForClient(ctx context.Context, teamID, clientID string) ([]dto.ScopeResponse, error) {
	if teamID == "" {
		return nil, errMissingTeam
	}
	c, err := m.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if c.TeamID != teamID {
		return nil, errors.NotFound("Client not found.")
	}
	scopes, err := m.scopes.FindByAudienceID(ctx, c.AudienceID)
	if err != nil {
		return nil, err
	}
	return m.decorate(ctx, scopes, map[string]*models.Client{c.AudienceID: c}), nil
}

func (m *ScopeManager) Get(ctx context.Context, scopeID string) (*dto.ScopeResponse, error) {
	sc, err := m.scopes.FindByID(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	owners := map[string]*models.Client{}
	if c, err := m.clients.FindByAudienceID(ctx, sc.AudienceID); err == nil {
		owners[sc.AudienceID] = c
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}
	resp := m.decorate(ctx, []*models.Scope{sc}, owners)[0]
	return &resp, nil
}

// Create publishes a scope at the authority and mirrors it locally.
func (m *ScopeManager) Create(ctx context.Context, teamID, creator string, req dto.CreateScopeRequest) (*dto.ScopeResponse, error) {
	if err := models.ValidateScopeValue(req.Value); err != nil {
		return nil, err
	}
	c, err := m.owner(ctx, teamID, req.AudienceID)
	if err != nil {
		return nil, err
	}
	permitted := models.Dedupe(req.PermittedClients)
	if err := m.scopes.ValidatePermittedClients(ctx, permitted); err != nil {
		return nil, err
	}
	if _, err := m.scopes.FindByAudienceIDAndValue(ctx, c.AudienceID, req.Value); err == nil {
		return nil, errors.DuplicateUnique("Scope uniques already exists.", nil)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	sc := &models.Scope{
		Value:            req.Value,
		AudienceID:       c.AudienceID,
		PermittedClients: permitted,
		Creator:          creator,
		Description:      req.Description,
		Type:             models.ParseScopeType(req.Type),
	}
	if sc.Description == "" {
		sc.Description = models.DefaultScopeDescription
	}
	if err := m.authority.CreateScope(ctx, dto.ScopeInformation{
		Value:            sc.Value,
		AudienceID:       sc.AudienceID,
		PermittedClients: sc.PermittedClients,
		Description:      sc.Description,
		Type:             string(sc.Type),
	}, c.Token); err != nil {
		return nil, err
	}

	created, err := m.scopes.Create(ctx, sc)
	if err != nil {
		m.logger.Error("scope created but not mirrored", "audience_id", sc.AudienceID, "value", sc.Value, "error", err)
		return nil, err
	}
	resp := m.decorate(ctx, []*models.Scope{created}, map[string]*models.Client{c.AudienceID: c})[0]
	return &resp, nil
}

// Update replaces the permitted clients of a scope.
func (m *ScopeManager) Update(ctx context.Context, teamID, scopeID string, permittedClients []string) (*dto.ScopeResponse, error) {
	sc, err := m.scopes.FindByID(ctx, scopeID)
	if err != nil {
		return nil, err
	}
	c, err := m.owner(ctx, teamID, sc.AudienceID)
	if err != nil {
		return nil, err
	}
	permitted := models.Dedupe(permittedClients)
	if err := m.scopes.ValidatePermittedClients(ctx, permitted); err != nil {
		return nil, err
	}

	if err := m.authority.UpdateScope(ctx, c.ClientID, sc.Value, permitted, c.Token); err != nil {
		return nil, err
	}
	updated, err := m.scopes.Update(ctx, sc.AudienceID, sc.Value, permitted)
	if err != nil {
		m.logger.Error("scope updated but not mirrored", "scope_id", scopeID, "error", err)
		return nil, err
	}
	resp := m.decorate(ctx, []*models.Scope{updated}, map[string]*models.Client{c.AudienceID: c})[0]
	return &resp, nil
}

// Delete withdraws a scope at the authority, then locally.
func (m *ScopeManager) Delete(ctx context.Context, teamID, scopeID string) error {
	sc, err := m.scopes.FindByID(ctx, scopeID)
	if err != nil {
		return err
	}
	c, err := m.owner(ctx, teamID, sc.AudienceID)
	if err != nil {
		return err
	}
	if err := m.authority.DeleteScope(ctx, c.ClientID, sc.Value, c.Token); err != nil {
		return err
	}
	if err := m.scopes.Delete(ctx, scopeID); err != nil {
		m.logger.Error("scope deleted but mirror kept", "scope_id", scopeID, "error", err)
		return err
	}
	return nil
}

// Permitted lists, per owning client, the scopes clientID may request.
func (m *ScopeManager) Permitted(ctx context.Context, q models.PermittedQuery) ([]models.PermittedGroup, error) {
	if q.ClientID == "" {
		return nil, errors.NotFound("Client not found.")
	}
	groups, err := m.scopes.FindPermitted(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(groups))
	for i := range groups {
		ids[i] = groups[i].TeamID
	}
	teams := m.teams.byID(ctx, ids)
	for i := range groups {
		groups[i].Team = teams[groups[i].TeamID]
	}
	return groups, nil
}
