package manage

import (
	"context"
	"log/slog"

	"github.com/misha1235000/SpikeServer/authority"
	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
)

// ClientManager registers and maintains clients for teams.
type ClientManager struct {
	authority ClientAuthority
	clients   ClientCatalog
	scopes    ScopeCatalog
	teams     teamResolver
	logger    *slog.Logger
}

// NewClientManager wires the client orchestration. teams may be nil.
func NewClientManager(auth ClientAuthority, clients ClientCatalog, scopes ScopeCatalog, teams TeamDirectory, logger *slog.Logger) *ClientManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientManager{
		authority: auth,
		clients:   clients,
		scopes:    scopes,
		teams:     teamResolver{dir: teams, logger: logger},
		logger:    logger,
	}
}

var errMissingTeam = errors.InvalidParameter(errors.CodeMissingTeam, "A team is required to manage clients.")

// owned returns the client when it belongs to teamID. Clients of other
// teams are reported as absent.
func (m *ClientManager) owned(ctx context.Context, teamID, clientID string) (*models.Client, error) {
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
	return c, nil
}

// Register validates the request, registers the client at the authority
// and mirrors it locally. The returned view carries the secret, which is
// never stored.
func (m *ClientManager) Register(ctx context.Context, teamID string, req dto.RegisterClientRequest) (*dto.FullClientInformation, error) {
	if teamID == "" {
		return nil, errMissingTeam
	}
	name, err := models.NormalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateHostURIs(req.HostURIs); err != nil {
		return nil, err
	}

	info, err := m.authority.RegisterClient(ctx, dto.ClientBasicInformation{
		Name:         name,
		RedirectURIs: req.RedirectURIs,
		HostURIs:     req.HostURIs,
	})
	if err != nil {
		return nil, err
	}

	c := &models.Client{
		AudienceID:  info.AudienceID,
		TeamID:      teamID,
		Name:        name,
		Description: req.Description,
		HostURIs:    req.HostURIs,
	}
	authority.ClientInfoToModel(*info).Apply(c)
	created, err := m.clients.Create(ctx, c)
	if err != nil {
		m.logger.Error("client registered but not mirrored", "client_id", info.ID, "team_id", teamID, "error", err)
		return nil, err
	}

	full := authority.ClientFullInfo(*info)
	full.Description = created.Description
	full.Team = m.teams.one(ctx, teamID)
	return &full, nil
}

// Get reads the client from the authority and merges the local-only fields.
func (m *ClientManager) Get(ctx context.Context, teamID, clientID string) (*dto.FullClientInformation, error) {
	c, err := m.owned(ctx, teamID, clientID)
	if err != nil {
		return nil, err
	}
	info, err := m.authority.ReadClientInformation(ctx, c.ClientID, c.Token)
	if err != nil {
		return nil, err
	}
	return m.view(ctx, c, info), nil
}

func (m *ClientManager) view(ctx context.Context, c *models.Client, info *dto.ClientInformation) *dto.FullClientInformation {
	full := authority.ClientFullInfo(*info)
	if full.ClientID == "" {
		full.ClientID = c.ClientID
	}
	if full.AudienceID == "" {
		full.AudienceID = c.AudienceID
	}
	if full.Name == "" {
		full.Name = c.Name
	}
	if full.HostURIs == nil {
		full.HostURIs = c.HostURIs
	}
	full.Description = c.Description
	full.Team = m.teams.one(ctx, c.TeamID)
	return &full
}

// Update applies a partial update. Name, host and redirect uris go through
// the authority first; the description is local only.
func (m *ClientManager) Update(ctx context.Context, teamID, clientID string, req dto.UpdateClientRequest) (*dto.FullClientInformation, error) {
	var update dto.ClientUpdate
	if req.Name != nil {
		name, err := models.NormalizeName(*req.Name)
		if err != nil {
			return nil, err
		}
		update.Name = name
	}
	if req.HostURIs != nil {
		if err := models.ValidateHostURIs(req.HostURIs); err != nil {
			return nil, err
		}
		update.HostURIs = req.HostURIs
	}
	update.RedirectURIs = req.RedirectURIs

	c, err := m.owned(ctx, teamID, clientID)
	if err != nil {
		return nil, err
	}

	var (
		patch models.ClientPatch
		info  *dto.ClientInformation
	)
	if update.Name != "" || update.HostURIs != nil || update.RedirectURIs != nil {
		info, err = m.authority.UpdateClientInformation(ctx, c.ClientID, update, c.Token)
		if err != nil {
			return nil, err
		}
		patch = authority.ClientInfoToModel(*info)
	}
	if req.Description != nil {
		patch.Description = req.Description
	}

	updated, err := m.clients.Update(ctx, c.ClientID, patch)
	if err != nil {
		m.logger.Error("client updated but not mirrored", "client_id", c.ClientID, "error", err)
		return nil, err
	}
	if info == nil {
		info = &dto.ClientInformation{}
	}
	return m.view(ctx, updated, info), nil
}

// ResetCredentials rotates the client's secret and management token.
func (m *ClientManager) ResetCredentials(ctx context.Context, teamID, clientID string) (*dto.FullClientInformation, error) {
	c, err := m.owned(ctx, teamID, clientID)
	if err != nil {
		return nil, err
	}
	info, err := m.authority.ResetClientCredentials(ctx, c.ClientID, c.Token)
	if err != nil {
		return nil, err
	}
	patch := authority.ClientInfoToModel(*info)
	// only the identifiers rotate
	patch = models.ClientPatch{ClientID: patch.ClientID, Token: patch.Token}
	updated, err := m.clients.Update(ctx, c.ClientID, patch)
	if err != nil {
		m.logger.Error("credentials reset but not mirrored", "client_id", c.ClientID, "error", err)
		return nil, err
	}
	return m.view(ctx, updated, info), nil
}

// Delete removes a client that owns no scopes.
func (m *ClientManager) Delete(ctx context.Context, teamID, clientID string) error {
	c, err := m.owned(ctx, teamID, clientID)
	if err != nil {
		return err
	}
	n, err := m.scopes.CountByAudienceID(ctx, c.AudienceID)
	if err != nil {
		return err
	}
	if n > 0 {
		return errors.InvalidParameter(errors.CodeClientUndeletable, "Client owns scopes and cannot be deleted.")
	}
	if err := m.authority.DeleteClient(ctx, c.ClientID, c.Token); err != nil {
		return err
	}
	if err := m.clients.Delete(ctx, c.ClientID); err != nil {
		m.logger.Error("client deleted but mirror kept", "client_id", c.ClientID, "error", err)
		return err
	}
	return nil
}

// ActiveTokens lists the tokens currently issued to the client.
func (m *ClientManager) ActiveTokens(ctx context.Context, teamID, clientID string) ([]dto.ActiveToken, error) {
	c, err := m.owned(ctx, teamID, clientID)
	if err != nil {
		return nil, err
	}
	return m.authority.GetClientActiveTokens(ctx, c.ClientID, c.Token)
}

func (m *ClientManager) ListForTeam(ctx context.Context, teamID string) ([]*models.Client, error) {
	if teamID == "" {
		return nil, errMissingTeam
	}
	return m.clients.FindByTeamID(ctx, teamID)
}

// ListForUser lists the clients of every team the user belongs to.
func (m *ClientManager) ListForUser(ctx context.Context, userID string) ([]*models.Client, error) {
	ids, err := m.teams.userTeamIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Client{}, nil
	}
	return m.clients.FindByTeamIDs(ctx, ids)
}

// UserTeamIDs exposes the team ids a user can act for.
func (m *ClientManager) UserTeamIDs(ctx context.Context, userID string) ([]string, error) {
	return m.teams.userTeamIDs(ctx, userID)
}

// Search finds clients by approximate name.
func (m *ClientManager) Search(ctx context.Context, query string, limit int) ([]models.ClientSearchResult, error) {
	if query == "" {
		return nil, errors.InvalidParameter(errors.CodeInvalidName, "A name to search for is required.")
	}
	rows, err := m.clients.SearchByName(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].TeamID
	}
	teams := m.teams.byID(ctx, ids)
	for i := range rows {
		rows[i].Team = teams[rows[i].TeamID]
	}
	return rows, nil
}

// Find ranks the catalog.
func (m *ClientManager) Find(ctx context.Context, q models.FindQuery) ([]models.ClientListing, error) {
	rows, err := m.clients.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].TeamID
	}
	teams := m.teams.byID(ctx, ids)
	for i := range rows {
		rows[i].Team = teams[rows[i].TeamID]
	}
	return rows, nil
}
