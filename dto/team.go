package dto

import "github.com/misha1235000/SpikeServer/models"

// CreateTeamRequest represents a request to create a team owned by the caller.
type CreateTeamRequest struct {
	Name        string `json:"teamname" binding:"required"`
	Description string `json:"desc"`
}

// UpdateTeamRequest carries the team fields to change. Absent fields are kept.
type UpdateTeamRequest struct {
	Name        *string `json:"teamname"`
	Description *string `json:"desc"`
}

// TeamMemberRequest enrolls a user. Role defaults to USER.
type TeamMemberRequest struct {
	UserID string          `json:"userId" binding:"required"`
	Role   models.TeamRole `json:"role"`
}
