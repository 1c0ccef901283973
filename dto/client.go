package dto

import "github.com/misha1235000/SpikeServer/models"

// RegisterClientRequest represents a request to register a client.
type RegisterClientRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	HostURIs     []string `json:"hostUris" binding:"required"`
	RedirectURIs []string `json:"redirectUris"`
}

// UpdateClientRequest represents a partial client update. Nil fields are left untouched.
type UpdateClientRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	HostURIs     []string `json:"hostUris"`
	RedirectURIs []string `json:"redirectUris"`
}

// FullClientInformation is returned right after register, read, update and reset.
// Token is the client's management credential and is never serialized.
type FullClientInformation struct {
	ClientID     string       `json:"clientId,omitempty"`
	Name         string       `json:"name,omitempty"`
	HostURIs     []string     `json:"hostUris,omitempty"`
	Token        string       `json:"-"`
	RedirectURIs []string     `json:"redirectUris,omitempty"`
	Secret       string       `json:"secret,omitempty"`
	AudienceID   string       `json:"audienceId,omitempty"`
	Description  string       `json:"description,omitempty"`
	Team         *models.Team `json:"team,omitempty"`
}

// Information converts the view back to the authority shape.
func (f FullClientInformation) Information() ClientInformation {
	return ClientInformation{
		ID:                f.ClientID,
		Secret:            f.Secret,
		Name:              f.Name,
		AudienceID:        f.AudienceID,
		RedirectURIs:      f.RedirectURIs,
		HostURIs:          f.HostURIs,
		RegistrationToken: f.Token,
	}
}

// ClientResponse represents a client in API responses.
// Token is intentionally excluded.
type ClientResponse struct {
	ClientID    string   `json:"clientId"`
	AudienceID  string   `json:"audienceId"`
	TeamID      string   `json:"teamId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	HostURIs    []string `json:"hostUris"`
}

// FromClient converts a models.Client to ClientResponse.
func FromClient(c *models.Client) ClientResponse {
	return ClientResponse{
		ClientID:    c.ClientID,
		AudienceID:  c.AudienceID,
		TeamID:      c.TeamID,
		Name:        c.Name,
		Description: c.Description,
		HostURIs:    c.HostURIs,
	}
}

// FromClients converts a slice of models.Client to a slice of ClientResponse.
func FromClients(clients []*models.Client) []ClientResponse {
	responses := make([]ClientResponse, len(clients))
	for i, c := range clients {
		responses[i] = FromClient(c)
	}
	return responses
}

// ActiveTokensResponse lists the tokens the authority holds for a client.
type ActiveTokensResponse struct {
	ClientID string        `json:"clientId"`
	Tokens   []ActiveToken `json:"tokens"`
}
