package dto

import "github.com/misha1235000/SpikeServer/models"

// CreateScopeRequest represents a request to create a scope owned by the
// client with the given audience id.
type CreateScopeRequest struct {
	Value            string   `json:"value" binding:"required"`
	AudienceID       string   `json:"audienceId" binding:"required"`
	PermittedClients []string `json:"permittedClients"`
	Description      string   `json:"description"`
	Type             string   `json:"type"`
}

// UpdateScopeRequest replaces a scope's permitted clients.
type UpdateScopeRequest struct {
	PermittedClients []string `json:"permittedClients" binding:"required"`
}

// ScopeResponse is a scope decorated with its owning client and the
// clients it is granted to.
type ScopeResponse struct {
	models.Scope
	Client                  *ScopeOwner  `json:"client,omitempty"`
	PermittedClientsDetails []ScopeOwner `json:"permittedClientsDetails"`
}

// ScopeOwner is the display projection of a client on a scope.
type ScopeOwner struct {
	ClientID    string       `json:"clientId"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Team        *models.Team `json:"team,omitempty"`
}
