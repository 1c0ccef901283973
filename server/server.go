// Package server exposes client, scope and team management over HTTP.
package server

import (
	"context"
	"log/slog"

	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/manage"
	"github.com/misha1235000/SpikeServer/models"
)

// ClientService is the client management surface the handlers drive.
type ClientService interface {
	Register(ctx context.Context, teamID string, req dto.RegisterClientRequest) (*dto.FullClientInformation, error)
	Get(ctx context.Context, teamID, clientID string) (*dto.FullClientInformation, error)
	Update(ctx context.Context, teamID, clientID string, req dto.UpdateClientRequest) (*dto.FullClientInformation, error)
	ResetCredentials(ctx context.Context, teamID, clientID string) (*dto.FullClientInformation, error)
	Delete(ctx context.Context, teamID, clientID string) error
	ActiveTokens(ctx context.Context, teamID, clientID string) ([]dto.ActiveToken, error)
	ListForTeam(ctx context.Context, teamID string) ([]*models.Client, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Client, error)
	UserTeamIDs(ctx context.Context, userID string) ([]string, error)
	Search(ctx context.Context, query string, limit int) ([]models.ClientSearchResult, error)
	Find(ctx context.Context, q models.FindQuery) ([]models.ClientListing, error)
}

// ScopeService is the scope management surface the handlers drive.
type ScopeService interface {
	ListForUser(ctx context.Context, userID string) ([]dto.ScopeResponse, error)
	ListForClient(ctx context.Context, teamID, clientID string) ([]dto.ScopeResponse, error)
	Get(ctx context.Context, scopeID string) (*dto.ScopeResponse, error)
	Create(ctx context.Context, teamID, creator string, req dto.CreateScopeRequest) (*dto.ScopeResponse, error)
	Update(ctx context.Context, teamID, scopeID string, permittedClients []string) (*dto.ScopeResponse, error)
	Delete(ctx context.Context, teamID, scopeID string) error
	Permitted(ctx context.Context, q models.PermittedQuery) ([]models.PermittedGroup, error)
}

// TeamService is the team management surface the handlers drive.
type TeamService interface {
	ListForUser(ctx context.Context, userID string) ([]*models.Team, error)
	Get(ctx context.Context, teamID string) (*models.Team, error)
	Create(ctx context.Context, userID string, req dto.CreateTeamRequest) (*models.Team, error)
	Update(ctx context.Context, userID, teamID string, req dto.UpdateTeamRequest) (*models.Team, error)
	Delete(ctx context.Context, userID, teamID string) error
	AddMember(ctx context.Context, userID, teamID string, req dto.TeamMemberRequest) error
	RemoveMember(ctx context.Context, userID, teamID, memberID string) error
}

var (
	_ ClientService = (*manage.ClientManager)(nil)
	_ ScopeService  = (*manage.ScopeManager)(nil)
	_ TeamService   = (*manage.TeamManager)(nil)
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server holds the handlers' dependencies. Team routes are mounted only
// when Teams is set.
type Server struct {
	Clients   ClientService
	Scopes    ScopeService
	Teams     TeamService
	Logger    *slog.Logger
	JWTSecret []byte
	Checks    map[string]HealthCheck
}

// NewServer builds a Server without team management or health checks.
func NewServer(clients ClientService, scopes ScopeService, jwtSecret []byte, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Clients:   clients,
		Scopes:    scopes,
		Logger:    logger,
		JWTSecret: jwtSecret,
		Checks:    map[string]HealthCheck{},
	}
}
