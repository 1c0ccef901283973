package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TeamRole is a member's role within a team.
type TeamRole string

const (
	TeamRoleUser  TeamRole = "USER"
	TeamRoleAdmin TeamRole = "ADMIN"
)

// IsValid returns true if r is one of the allowed constants.
func (r TeamRole) IsValid() bool {
	s := strings.ToUpper(string(r))
	return s == string(TeamRoleUser) || s == string(TeamRoleAdmin)
}

// UnmarshalJSON implements strict validation for TeamRole.
func (r *TeamRole) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	tr := TeamRole(strings.ToUpper(strings.TrimSpace(s)))
	if !tr.IsValid() {
		return fmt.Errorf("invalid team role: %q (allowed: 'USER','ADMIN')", s)
	}
	*r = tr
	return nil
}

// Team owns clients. Membership lives in team_members.
type Team struct {
	ID          string    `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name" json:"teamname"`
	Description string    `gorm:"column:description" json:"desc"`
	OwnerID     string    `gorm:"column:owner_id" json:"ownerId"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"-"`
}

func (Team) TableName() string { return "teams" }

// TeamPatch carries the fields of a partial team update. Nil fields are left
// untouched.
type TeamPatch struct {
	Name        *string
	Description *string
}

// TeamMember links a user to a team.
type TeamMember struct {
	TeamID string   `gorm:"column:team_id;primaryKey"`
	UserID string   `gorm:"column:user_id;primaryKey"`
	Role   TeamRole `gorm:"column:role"`
}

func (TeamMember) TableName() string { return "team_members" }
