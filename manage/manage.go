// Package manage orchestrates client, scope and team management. Every
// client and scope mutation is validated locally first, performed at the
// authority second and mirrored into the local catalogs last, so the
// catalogs may lag the authority but never lead it.
package manage

import (
	"context"
	"log/slog"

	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/models"
)

// ClientAuthority performs client management calls at the authority.
type ClientAuthority interface {
	RegisterClient(ctx context.Context, info dto.ClientBasicInformation) (*dto.ClientInformation, error)
	ReadClientInformation(ctx context.Context, clientID, clientToken string) (*dto.ClientInformation, error)
	UpdateClientInformation(ctx context.Context, clientID string, update dto.ClientUpdate, clientToken string) (*dto.ClientInformation, error)
	ResetClientCredentials(ctx context.Context, clientID, clientToken string) (*dto.ClientInformation, error)
	DeleteClient(ctx context.Context, clientID, clientToken string) error
	GetClientActiveTokens(ctx context.Context, clientID, clientToken string) ([]dto.ActiveToken, error)
}

// ScopeAuthority performs scope management calls at the authority.
type ScopeAuthority interface {
	CreateScope(ctx context.Context, info dto.ScopeInformation, clientToken string) error
	UpdateScope(ctx context.Context, clientID, value string, permittedClients []string, clientToken string) error
	DeleteScope(ctx context.Context, clientID, value, clientToken string) error
}

// ClientCatalog is the local client mirror.
type ClientCatalog interface {
	FindByID(ctx context.Context, clientID string) (*models.Client, error)
	FindByAudienceID(ctx context.Context, audienceID string) (*models.Client, error)
	FindByIDs(ctx context.Context, ids []string) ([]*models.Client, error)
	FindByTeamID(ctx context.Context, teamID string) ([]*models.Client, error)
	FindByTeamIDs(ctx context.Context, teamIDs []string) ([]*models.Client, error)
	SearchByName(ctx context.Context, query string, limit int) ([]models.ClientSearchResult, error)
	Find(ctx context.Context, q models.FindQuery) ([]models.ClientListing, error)
	Create(ctx context.Context, c *models.Client) (*models.Client, error)
	Update(ctx context.Context, clientID string, patch models.ClientPatch) (*models.Client, error)
	Delete(ctx context.Context, clientID string) error
}

// ScopeCatalog is the local scope mirror.
type ScopeCatalog interface {
	FindByID(ctx context.Context, scopeID string) (*models.Scope, error)
	FindByAudienceID(ctx context.Context, audienceID string) ([]*models.Scope, error)
	FindByAudienceIDs(ctx context.Context, audienceIDs []string) ([]*models.Scope, error)
	FindByAudienceIDAndValue(ctx context.Context, audienceID, value string) (*models.Scope, error)
	CountByAudienceID(ctx context.Context, audienceID string) (int64, error)
	FindPermitted(ctx context.Context, q models.PermittedQuery) ([]models.PermittedGroup, error)
	ValidatePermittedClients(ctx context.Context, ids []string) error
	Create(ctx context.Context, sc *models.Scope) (*models.Scope, error)
	Update(ctx context.Context, audienceID, value string, permittedClients []string) (*models.Scope, error)
	Delete(ctx context.Context, scopeID string) error
}

// TeamDirectory resolves teams. It may be nil, in which case listings are
// not decorated and user-scoped views are empty.
type TeamDirectory interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Team, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Team, error)
}

// teamResolver wraps an optional TeamDirectory.
type teamResolver struct {
	dir    TeamDirectory
	logger *slog.Logger
}

// byID returns the teams among ids keyed by id. Lookup failures only cost
// the decoration and are logged.
func (r teamResolver) byID(ctx context.Context, ids []string) map[string]*models.Team {
	out := map[string]*models.Team{}
	if r.dir == nil || len(ids) == 0 {
		return out
	}
	teams, err := r.dir.GetByIDs(ctx, models.Dedupe(ids))
	if err != nil {
		r.logger.Warn("team lookup failed", "error", err)
		return out
	}
	for _, t := range teams {
		out[t.ID] = t
	}
	return out
}

func (r teamResolver) one(ctx context.Context, id string) *models.Team {
	return r.byID(ctx, []string{id})[id]
}

// userTeamIDs lists the ids of the teams a user belongs to.
func (r teamResolver) userTeamIDs(ctx context.Context, userID string) ([]string, error) {
	if r.dir == nil || userID == "" {
		return nil, nil
	}
	teams, err := r.dir.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	return ids, nil
}
