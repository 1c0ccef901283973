// Package authority talks to the external authorization server: the
// client-credentials bearer cache and the client and scope management calls.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/errors"
)

// RegistrarHeader carries the server-level management bearer.
const RegistrarHeader = "Authorization-Registrer"

// GatewayConfig locates the management endpoints.
type GatewayConfig struct {
	BaseURL    string
	ClientPath string // default "/client"
	ScopePath  string // default "/scope"
}

// Gateway performs the client and scope management calls.
type Gateway struct {
	baseURL    string
	clientPath string
	scopePath  string
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGateway returns a Gateway. A nil httpClient uses http.DefaultClient.
func NewGateway(cfg GatewayConfig, tokens TokenSource, httpClient *http.Client, logger *slog.Logger) *Gateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	clientPath := cfg.ClientPath
	if clientPath == "" {
		clientPath = "/client"
	}
	scopePath := cfg.ScopePath
	if scopePath == "" {
		scopePath = "/scope"
	}
	return &Gateway{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientPath: clientPath,
		scopePath:  scopePath,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger,
	}
}

type clientEnvelope struct {
	ClientInformation any `json:"clientInformation"`
}

// RegisterClient registers a new client. The authority assigns id, secret and audience id.
func (g *Gateway) RegisterClient(ctx context.Context, info dto.ClientBasicInformation) (*dto.ClientInformation, error) {
	var out dto.ClientInformation
	if err := g.call(ctx, http.MethodPost, g.clientPath, clientEnvelope{info}, "", ObjectClient, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReadClientInformation reads a client using its management token.
func (g *Gateway) ReadClientInformation(ctx context.Context, clientID, clientToken string) (*dto.ClientInformation, error) {
	if clientID == "" {
		return nil, errors.InvalidParameter("", "Client id parameter is missing.")
	}
	var out dto.ClientInformation
	if err := g.call(ctx, http.MethodGet, g.clientURLPath(clientID), nil, clientToken, ObjectClient, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateClientInformation sends the supplied fields of a client.
func (g *Gateway) UpdateClientInformation(ctx context.Context, clientID string, update dto.ClientUpdate, clientToken string) (*dto.ClientInformation, error) {
	if clientID == "" {
		return nil, errors.InvalidParameter("", "Client id parameter is missing.")
	}
	var out dto.ClientInformation
	if err := g.call(ctx, http.MethodPut, g.clientURLPath(clientID), clientEnvelope{update}, clientToken, ObjectClient, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetClientCredentials asks the authority to rotate the client id and secret.
func (g *Gateway) ResetClientCredentials(ctx context.Context, clientID, clientToken string) (*dto.ClientInformation, error) {
	if clientID == "" {
		return nil, errors.InvalidParameter("", "Client id parameter is missing.")
	}
	var out dto.ClientInformation
	if err := g.call(ctx, http.MethodPatch, g.clientURLPath(clientID), struct{}{}, clientToken, ObjectClient, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteClient removes a client. Success is 204.
func (g *Gateway) DeleteClient(ctx context.Context, clientID, clientToken string) error {
	if clientID == "" {
		return errors.InvalidParameter("", "Client id parameter is missing.")
	}
	return g.call(ctx, http.MethodDelete, g.clientURLPath(clientID), nil, clientToken, ObjectClient, nil)
}

// GetClientActiveTokens lists the tokens currently issued to a client.
func (g *Gateway) GetClientActiveTokens(ctx context.Context, clientID, clientToken string) ([]dto.ActiveToken, error) {
	if clientID == "" {
		return nil, errors.InvalidParameter("", "Client id parameter is missing.")
	}
	var out []dto.ActiveToken
	if err := g.call(ctx, http.MethodGet, g.clientURLPath(clientID)+"/tokens", nil, clientToken, ObjectClient, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []dto.ActiveToken{}
	}
	return out, nil
}

func (g *Gateway) clientURLPath(clientID string) string {
	return g.clientPath + "/" + url.PathEscape(clientID)
}

// call performs one authenticated management request and maps the response.
func (g *Gateway) call(ctx context.Context, method, path string, body any, clientToken string, obj ObjectType, v any) error {
	resp, err := g.do(ctx, method, path, body, clientToken)
	if err != nil {
		return err
	}
	if err := ParseResponse(resp, obj, v); err != nil {
		g.logger.Info("authority call failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"error", err,
		)
		return err
	}
	return nil
}

// do builds and sends the request. The registrar header always carries the
// cached bearer; Authorization carries the client's own token when one is given.
func (g *Gateway) do(ctx context.Context, method, path string, body any, clientToken string) (*http.Response, error) {
	bearer, err := g.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(RegistrarHeader, bearer)
	if clientToken != "" {
		req.Header.Set("Authorization", clientToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.Internal("failed to send request", err)
	}
	return resp, nil
}
