package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
)

// TeamStore handles team directory persistence.
type TeamStore struct{ DB *gorm.DB }

func NewTeamStore(db *gorm.DB) *TeamStore { return &TeamStore{DB: db} }

// Create inserts a team and enrolls its owner as ADMIN.
func (s *TeamStore) Create(ctx context.Context, name, description, ownerID string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" || ownerID == "" {
		return nil, errors.InvalidParameter("", "Team name and owner are required.")
	}
	id := uuid.NewString()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`INSERT INTO teams(id, name, description, owner_id) VALUES(?,?,?,?)`, id, name, description, ownerID).Error; err != nil {
			return err
		}
		return tx.Exec(`INSERT INTO team_members(team_id, user_id, role) VALUES(?,?,?)`, id, ownerID, string(models.TeamRoleAdmin)).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.DuplicateUnique("Team name already exists.", err)
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetByID returns nil, nil when the team does not exist.
func (s *TeamStore) GetByID(ctx context.Context, id string) (*models.Team, error) {
	var t models.Team
	if err := s.DB.WithContext(ctx).Raw(`SELECT id, name, description, owner_id, created_at FROM teams WHERE id=?`, id).Scan(&t).Error; err != nil {
		return nil, err
	}
	if t.ID == "" {
		return nil, nil
	}
	return &t, nil
}

// GetByName returns nil, nil when no team has the name.
func (s *TeamStore) GetByName(ctx context.Context, name string) (*models.Team, error) {
	var t models.Team
	if err := s.DB.WithContext(ctx).Raw(`SELECT id, name, description, owner_id, created_at FROM teams WHERE name=?`, strings.TrimSpace(name)).Scan(&t).Error; err != nil {
		return nil, err
	}
	if t.ID == "" {
		return nil, nil
	}
	return &t, nil
}

// GetByIDs returns the existing teams among ids.
func (s *TeamStore) GetByIDs(ctx context.Context, ids []string) ([]*models.Team, error) {
	teams := []*models.Team{}
	if len(ids) == 0 {
		return teams, nil
	}
	if err := s.DB.WithContext(ctx).Raw(`SELECT id, name, description, owner_id, created_at FROM teams WHERE id IN ? ORDER BY name`, ids).Scan(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// ListByUser returns the teams the user owns or belongs to.
func (s *TeamStore) ListByUser(ctx context.Context, userID string) ([]*models.Team, error) {
	teams := []*models.Team{}
	err := s.DB.WithContext(ctx).Raw(
		`SELECT DISTINCT t.id, t.name, t.description, t.owner_id, t.created_at
		 FROM teams t LEFT JOIN team_members m ON m.team_id = t.id
		 WHERE t.owner_id = ? OR m.user_id = ?
		 ORDER BY t.name`, userID, userID,
	).Scan(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// Update applies the present fields of patch. A name taken by another team
// is a DuplicateUnique.
func (s *TeamStore) Update(ctx context.Context, id string, patch models.TeamPatch) (*models.Team, error) {
	set := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, errors.InvalidParameter("", "Team name is required.")
		}
		set["name"] = name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if len(set) > 0 {
		res := s.DB.WithContext(ctx).Table("teams").Where("id = ?", id).Updates(set)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return nil, errors.DuplicateUnique("Team name already exists.", res.Error)
			}
			return nil, res.Error
		}
	}
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.NotFound("Team not found.")
	}
	return t, nil
}

// Delete removes a team and its memberships.
func (s *TeamStore) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM team_members WHERE team_id=?`, id).Error; err != nil {
			return err
		}
		res := tx.Exec(`DELETE FROM teams WHERE id=?`, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.NotFound("Team not found.")
		}
		return nil
	})
}

// AddMember enrolls a user, updating the role if already a member.
func (s *TeamStore) AddMember(ctx context.Context, teamID, userID string, role models.TeamRole) error {
	if !role.IsValid() {
		return errors.InvalidParameter("", "Unknown team role.")
	}
	return s.DB.WithContext(ctx).Exec(
		`INSERT INTO team_members(team_id, user_id, role) VALUES(?,?,?)
		 ON CONFLICT(team_id, user_id) DO UPDATE SET role=excluded.role`,
		teamID, userID, strings.ToUpper(string(role)),
	).Error
}

// RemoveMember drops a user from a team.
func (s *TeamStore) RemoveMember(ctx context.Context, teamID, userID string) error {
	return s.DB.WithContext(ctx).Exec(`DELETE FROM team_members WHERE team_id=? AND user_id=?`, teamID, userID).Error
}

// IsMember reports whether the user owns or belongs to the team.
func (s *TeamStore) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM teams t LEFT JOIN team_members m ON m.team_id = t.id AND m.user_id = ?
		 WHERE t.id = ? AND (t.owner_id = ? OR m.user_id IS NOT NULL)`, userID, teamID, userID,
	).Scan(&n).Error
	return n > 0, err
}

func isUniqueViolation(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "sqlstate 23505")
}
