package authority

import (
	"context"
	"net/http"
	"net/url"

	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/errors"
)

type scopeEnvelope struct {
	ScopeInformation any `json:"scopeInformation"`
}

type scopeUpdate struct {
	Value            string   `json:"value"`
	PermittedClients []string `json:"permittedClients"`
}

// CreateScope creates a scope owned by the client whose token is given.
func (g *Gateway) CreateScope(ctx context.Context, info dto.ScopeInformation, clientToken string) error {
	if info.Value == "" {
		return errors.InvalidParameter(errors.CodeInvalidScope, "Scope value is missing.")
	}
	return g.call(ctx, http.MethodPost, g.scopePath, scopeEnvelope{info}, clientToken, ObjectScope, nil)
}

// UpdateScope replaces the permitted clients of the owner's scope named by value.
func (g *Gateway) UpdateScope(ctx context.Context, clientID, value string, permittedClients []string, clientToken string) error {
	if clientID == "" || value == "" {
		return errors.InvalidParameter("", "Scope id or scope information parameter is missing.")
	}
	body := scopeEnvelope{scopeUpdate{Value: value, PermittedClients: permittedClients}}
	return g.call(ctx, http.MethodPut, g.scopePath+"/"+url.PathEscape(clientID), body, clientToken, ObjectScope, nil)
}

// DeleteScope removes the owner's scope named by value.
func (g *Gateway) DeleteScope(ctx context.Context, clientID, value, clientToken string) error {
	if clientID == "" || value == "" {
		return errors.InvalidParameter("", "Scope id parameter is missing.")
	}
	path := g.scopePath + "/" + url.PathEscape(clientID) + "?value=" + url.QueryEscape(value)
	return g.call(ctx, http.MethodDelete, path, nil, clientToken, ObjectScope, nil)
}
