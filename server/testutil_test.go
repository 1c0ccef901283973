package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/misha1235000/SpikeServer/dto"
	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
	"github.com/misha1235000/SpikeServer/utils/slogx"
)

var testSecret = []byte("test-key")

// signToken issues an HS256 token the middleware accepts.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func teamToken(t *testing.T) string {
	return signToken(t, jwt.MapClaims{"id": "alice", "teamId": "t1"})
}

// fakeClients answers from its fields and records the last query.
type fakeClients struct {
	full      *dto.FullClientInformation
	clients   []*models.Client
	tokens    []dto.ActiveToken
	rows      []models.ClientListing
	hits      []models.ClientSearchResult
	userTeams []string
	err       error

	lastTeam   string
	lastUser   string
	lastQuery  models.FindQuery
	lastLimit  int
	lastSearch string
}

func (f *fakeClients) Register(_ context.Context, teamID string, _ dto.RegisterClientRequest) (*dto.FullClientInformation, error) {
	f.lastTeam = teamID
	return f.full, f.err
}

func (f *fakeClients) Get(_ context.Context, teamID, _ string) (*dto.FullClientInformation, error) {
	f.lastTeam = teamID
	return f.full, f.err
}

func (f *fakeClients) Update(_ context.Context, teamID, _ string, _ dto.UpdateClientRequest) (*dto.FullClientInformation, error) {
	f.lastTeam = teamID
	return f.full, f.err
}

func (f *fakeClients) ResetCredentials(_ context.Context, teamID, _ string) (*dto.FullClientInformation, error) {
	f.lastTeam = teamID
	return f.full, f.err
}

func (f *fakeClients) Delete(_ context.Context, teamID, _ string) error {
	f.lastTeam = teamID
	return f.err
}

func (f *fakeClients) ActiveTokens(_ context.Context, _, _ string) ([]dto.ActiveToken, error) {
	return f.tokens, f.err
}

func (f *fakeClients) ListForTeam(_ context.Context, teamID string) ([]*models.Client, error) {
	f.lastTeam = teamID
	return f.clients, f.err
}

func (f *fakeClients) ListForUser(_ context.Context, userID string) ([]*models.Client, error) {
	f.lastUser = userID
	return f.clients, f.err
}

func (f *fakeClients) UserTeamIDs(_ context.Context, userID string) ([]string, error) {
	f.lastUser = userID
	return f.userTeams, nil
}

func (f *fakeClients) Search(_ context.Context, query string, limit int) ([]models.ClientSearchResult, error) {
	f.lastSearch, f.lastLimit = query, limit
	if query == "" {
		return nil, errors.InvalidParameter(errors.CodeInvalidName, "A name to search for is required.")
	}
	return f.hits, f.err
}

func (f *fakeClients) Find(_ context.Context, q models.FindQuery) ([]models.ClientListing, error) {
	f.lastQuery = q
	return f.rows, f.err
}

type fakeScopes struct {
	scope     *dto.ScopeResponse
	scopes    []dto.ScopeResponse
	groups    []models.PermittedGroup
	err       error
	creator   string
	permitted []string
	lastQuery models.PermittedQuery
}

func (f *fakeScopes) ListForUser(_ context.Context, _ string) ([]dto.ScopeResponse, error) {
	return f.scopes, f.err
}

func (f *fakeScopes) ListForClient(_ context.Context, _, _ string) ([]dto.ScopeResponse, error) {
	return f.scopes, f.err
}

func (f *fakeScopes) Get(_ context.Context, _ string) (*dto.ScopeResponse, error) {
	return f.scope, f.err
}

func (f *fakeScopes) Create(_ context.Context, _, creator string, _ dto.CreateScopeRequest) (*dto.ScopeResponse, error) {
	f.creator = creator
	return f.scope, f.err
}

func (f *fakeScopes) Update(_ context.Context, _, _ string, permitted []string) (*dto.ScopeResponse, error) {
	f.permitted = permitted
	return f.scope, f.err
}

func (f *fakeScopes) Delete(_ context.Context, _, _ string) error {
	return f.err
}

func (f *fakeScopes) Permitted(_ context.Context, q models.PermittedQuery) ([]models.PermittedGroup, error) {
	f.lastQuery = q
	return f.groups, f.err
}

type fakeTeams struct {
	team  *models.Team
	teams []*models.Team
	err   error

	lastUser   string
	lastTeam   string
	lastMember string
	lastCreate dto.CreateTeamRequest
	lastUpdate dto.UpdateTeamRequest
	lastAdd    dto.TeamMemberRequest
}

func (f *fakeTeams) ListForUser(_ context.Context, userID string) ([]*models.Team, error) {
	f.lastUser = userID
	return f.teams, f.err
}

func (f *fakeTeams) Get(_ context.Context, teamID string) (*models.Team, error) {
	f.lastTeam = teamID
	return f.team, f.err
}

func (f *fakeTeams) Create(_ context.Context, userID string, req dto.CreateTeamRequest) (*models.Team, error) {
	f.lastUser, f.lastCreate = userID, req
	return f.team, f.err
}

func (f *fakeTeams) Update(_ context.Context, userID, teamID string, req dto.UpdateTeamRequest) (*models.Team, error) {
	f.lastUser, f.lastTeam, f.lastUpdate = userID, teamID, req
	return f.team, f.err
}

func (f *fakeTeams) Delete(_ context.Context, userID, teamID string) error {
	f.lastUser, f.lastTeam = userID, teamID
	return f.err
}

func (f *fakeTeams) AddMember(_ context.Context, userID, teamID string, req dto.TeamMemberRequest) error {
	f.lastUser, f.lastTeam, f.lastAdd = userID, teamID, req
	return f.err
}

func (f *fakeTeams) RemoveMember(_ context.Context, userID, teamID, memberID string) error {
	f.lastUser, f.lastTeam, f.lastMember = userID, teamID, memberID
	return f.err
}

// newTestAPI serves the engine over httptest and returns an expecter for it.
func newTestAPI(t *testing.T, clients *fakeClients, scopes *fakeScopes) (*httpexpect.Expect, *Server) {
	return newTestAPIWithTeams(t, clients, scopes, nil)
}

func newTestAPIWithTeams(t *testing.T, clients *fakeClients, scopes *fakeScopes, teams *fakeTeams) (*httpexpect.Expect, *Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := NewServer(clients, scopes, testSecret, slogx.Discard())
	if teams != nil {
		s.Teams = teams
	}
	ts := httptest.NewServer(NewGinEngine(s))
	t.Cleanup(ts.Close)
	return httpexpect.Default(t, ts.URL), s
}
