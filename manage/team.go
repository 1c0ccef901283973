package manage

import (
	"context"
	"log/slog"

	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
)

// TeamStore is the writable team directory.
type TeamStore interface {
	TeamDirectory
	GetByID(ctx context.Context, id string) (*models.Team, error)
	Create(ctx context.Context, name, description, ownerID string) (*models.Team, error)
	Update(ctx context.Context, id string, patch models.TeamPatch) (*models.Team, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, teamID, userID string, role models.TeamRole) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

// TeamManager maintains teams. Only members may change a team.
type TeamManager struct {
	teams   TeamStore
	clients ClientCatalog
	logger  *slog.Logger
}

// NewTeamManager wires team management over the directory.
func NewTeamManager(teams TeamStore, clients ClientCatalog, logger *slog.Logger) *TeamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamManager{teams: teams, clients: clients, logger: logger}
}

// ListForUser lists the teams the user owns or belongs to.
func (m *TeamManager) ListForUser(ctx context.Context, userID string) ([]*models.Team, error) {
	return m.teams.ListByUser(ctx, userID)
}

func (m *TeamManager) Get(ctx context.Context, teamID string) (*models.Team, error) {
	t, err := m.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.NotFound("Team not found.")
	}
	return t, nil
}

// Create makes a team owned by userID.
func (m *TeamManager) Create(ctx context.Context, userID string, req dto.CreateTeamRequest) (*models.Team, error) {
	if userID == "" {
		return nil, errors.Forbidden("A user is required to create a team.")
	}
	return m.teams.Create(ctx, req.Name, req.Description, userID)
}

// member returns the team when userID may change it.
func (m *TeamManager) member(ctx context.Context, userID, teamID string) (*models.Team, error) {
	t, err := m.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	ok, err := m.teams.IsMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Forbidden("The action is not allowed for this team.")
	}
	return t, nil
}

func (m *TeamManager) Update(ctx context.Context, userID, teamID string, req dto.UpdateTeamRequest) (*models.Team, error) {
	if _, err := m.member(ctx, userID, teamID); err != nil {
		return nil, err
	}
	return m.teams.Update(ctx, teamID, models.TeamPatch{Name: req.Name, Description: req.Description})
}

// Delete removes a team that no longer owns clients.
func (m *TeamManager) Delete(ctx context.Context, userID, teamID string) error {
	if _, err := m.member(ctx, userID, teamID); err != nil {
		return err
	}
	owned, err := m.clients.FindByTeamID(ctx, teamID)
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		return errors.InvalidParameter(errors.CodeTeamUndeletable, "Team still owns clients.")
	}
	if err := m.teams.Delete(ctx, teamID); err != nil {
		return err
	}
	m.logger.Info("team deleted", "team_id", teamID, "user_id", userID)
	return nil
}

// AddMember enrolls a user, or changes the role of an existing member.
func (m *TeamManager) AddMember(ctx context.Context, userID, teamID string, req dto.TeamMemberRequest) error {
	if _, err := m.member(ctx, userID, teamID); err != nil {
		return err
	}
	role := req.Role
	if role == "" {
		role = models.TeamRoleUser
	}
	return m.teams.AddMember(ctx, teamID, req.UserID, role)
}

// RemoveMember drops a member. The owner cannot be removed.
func (m *TeamManager) RemoveMember(ctx context.Context, userID, teamID, memberID string) error {
	t, err := m.member(ctx, userID, teamID)
	if err != nil {
		return err
	}
	if memberID == t.OwnerID {
		return errors.InvalidParameter("", "The team owner cannot be removed.")
	}
	return m.teams.RemoveMember(ctx, teamID, memberID)
}
