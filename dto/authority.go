package dto

// Shapes exchanged with the authorization server.

// ClientBasicInformation is sent when registering a client.
type ClientBasicInformation struct {
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirectUris"`
	HostURIs     []string `json:"hostUri"`
}

// ClientUpdate carries the caller-supplied fields of an update. Empty
// fields are omitted from the request body.
type ClientUpdate struct {
	Name         string   `json:"name,omitempty"`
	RedirectURIs []string `json:"redirectUris,omitempty"`
	HostURIs     []string `json:"hostUri,omitempty"`
}

// ClientInformation is the authority's view of a client.
type ClientInformation struct {
	ID                string   `json:"id,omitempty"`
	Secret            string   `json:"secret,omitempty"`
	Name              string   `json:"name,omitempty"`
	AudienceID        string   `json:"audienceId,omitempty"`
	RedirectURIs      []string `json:"redirectUris,omitempty"`
	HostURIs          []string `json:"hostUri,omitempty"`
	RegistrationToken string   `json:"registrationToken,omitempty"`
}

// ScopeInformation is sent on scope create and update.
type ScopeInformation struct {
	Value            string   `json:"value"`
	AudienceID       string   `json:"audienceId,omitempty"`
	PermittedClients []string `json:"permittedClients"`
	Description      string   `json:"description,omitempty"`
	Type             string   `json:"type,omitempty"`
}

// ActiveToken is one token the authority holds for a client.
type ActiveToken struct {
	AccessToken string `json:"accessToken,omitempty"`
	UserID      string `json:"userId,omitempty"`
	Scope       string `json:"scope,omitempty"`
	Audience    string `json:"audience,omitempty"`
	Grant       string `json:"grantId,omitempty"`
	ExpiresAt   string `json:"expires,omitempty"`
}
