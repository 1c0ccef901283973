package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/misha1235000/SpikeServer/errors"
	"github.com/misha1235000/SpikeServer/models"
)

func newClient(id, team, name string) *models.Client {
	return &models.Client{
		ClientID:   id,
		AudienceID: "aud-" + id,
		TeamID:     team,
		Name:       name,
		HostURIs:   []string{"https://" + strings.ToLower(id) + ".example.com"},
		Token:      "token-" + id,
	}
}

func seedClients(t *testing.T, cs *ClientStore, clients ...*models.Client) {
	t.Helper()
	for _, c := range clients {
		_, err := cs.Create(context.Background(), c)
		require.NoError(t, err)
	}
}

func TestClientStoreCRUD(t *testing.T) {
	db := testMongoDB(t)
	cs := NewClientStore(db)
	ctx := context.Background()

	created, err := cs.Create(ctx, newClient("c1", "t1", "Dashboard"))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultClientDescription, created.Description)

	got, err := cs.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "aud-c1", got.AudienceID)
	assert.Equal(t, "token-c1", got.Token)

	byAud, err := cs.FindByAudienceID(ctx, "aud-c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", byAud.ClientID)

	var raw bson.M
	require.NoError(t, db.Collection(ClientsCollection).FindOne(ctx, bson.D{{Key: "clientId", Value: "c1"}}).Decode(&raw))
	assert.NotContains(t, raw, "secret")

	updated, err := cs.Update(ctx, "c1", models.ClientPatch{Description: models.StringPtr("Ops board")})
	require.NoError(t, err)
	assert.Equal(t, "Ops board", updated.Description)
	assert.Equal(t, "Dashboard", updated.Name, "absent fields stay untouched")

	_, err = cs.Update(ctx, "missing", models.ClientPatch{Name: models.StringPtr("Nope")})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	require.NoError(t, cs.Delete(ctx, "c1"))
	_, err = cs.FindByID(ctx, "c1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.True(t, errors.Is(cs.Delete(ctx, "c1"), errors.ErrNotFound))
}

func TestClientStoreUniqueness(t *testing.T) {
	db := testMongoDB(t)
	cs := NewClientStore(db)
	ctx := context.Background()
	seedClients(t, cs, newClient("c1", "t1", "Alpha"))

	dupID := newClient("c1", "t1", "Other")
	dupID.AudienceID, dupID.Token, dupID.HostURIs = "aud-x", "tok-x", []string{"https://x.com"}
	_, err := cs.Create(ctx, dupID)
	assert.True(t, errors.Is(err, errors.ErrDuplicateUnique), "clientId: %v", err)

	dupHost := newClient("c2", "t1", "Beta")
	dupHost.HostURIs = []string{"https://c1.example.com"}
	_, err = cs.Create(ctx, dupHost)
	assert.True(t, errors.Is(err, errors.ErrDuplicateUnique), "hostUris: %v", err)

	seedClients(t, cs, newClient("c3", "t1", "Gamma"))
	_, err = cs.Update(ctx, "c3", models.ClientPatch{Token: models.StringPtr("token-c1")})
	assert.True(t, errors.Is(err, errors.ErrDuplicateUnique), "token: %v", err)
}

func TestClientStoreLookups(t *testing.T) {
	db := testMongoDB(t)
	cs := NewClientStore(db)
	ctx := context.Background()
	seedClients(t, cs,
		newClient("c1", "t1", "Zeta"),
		newClient("c2", "t1", "Alpha"),
		newClient("c3", "t2", "Dashboard"),
	)

	byIDs, err := cs.FindByIDs(ctx, []string{"c1", "c3", "nope"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	team, err := cs.FindByTeamID(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, team, 2)
	assert.Equal(t, "Alpha", team[0].Name)

	teams, err := cs.FindByTeamIDs(ctx, []string{"t1", "t2"})
	require.NoError(t, err)
	assert.Len(t, teams, 3)

	hits, err := cs.SearchByName(ctx, "dashbaord", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "c3", hits[0].ClientID)
	assert.Equal(t, "t2", hits[0].TeamID)

	short, err := cs.SearchByName(ctx, "z", 10)
	require.NoError(t, err)
	require.Len(t, short, 1)
	assert.Equal(t, "Zeta", short[0].Name)
}

// seedGraph builds four clients and three scopes:
// A(t1) owns s1 -> [B, C]; D(t1) owns s2 -> [B]; B(t1) owns s3 -> [A, C, D]; C is in t2.
func seedGraph(t *testing.T, cs *ClientStore, ss *ScopeStore) {
	t.Helper()
	seedClients(t, cs,
		newClient("A", "t1", "Alpha"),
		newClient("B", "t1", "Bravo"),
		newClient("C", "t2", "Charlie"),
		newClient("D", "t1", "Delta"),
	)
	ctx := context.Background()
	for _, sc := range []*models.Scope{
		{Value: "s1", AudienceID: "aud-A", PermittedClients: []string{"B", "C"}},
		{Value: "s2", AudienceID: "aud-D", PermittedClients: []string{"B"}},
		{Value: "s3", AudienceID: "aud-B", PermittedClients: []string{"A", "C", "D"}},
	} {
		_, err := ss.Create(ctx, sc)
		require.NoError(t, err)
	}
}

func clientIDs(rows []models.ClientListing) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ClientID
	}
	return out
}

func TestClientStoreFindRanking(t *testing.T) {
	db := testMongoDB(t)
	cs := NewClientStore(db)
	ss := NewScopeStore(db, cs)
	seedGraph(t, cs, ss)
	ctx := context.Background()

	rows, err := cs.Find(ctx, models.FindQuery{Limit: 100, Skip: -5, Sort: models.SortUsage, Desc: true, Teams: []string{"t1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D", "A", "C"}, clientIDs(rows))
	assert.Equal(t, 2, rows[0].Usage)

	rows, err = cs.Find(ctx, models.FindQuery{Sort: models.SortUsage, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "D", "C"}, clientIDs(rows))
	assert.Equal(t, 3, rows[0].Usage)

	rows, err = cs.Find(ctx, models.FindQuery{Sort: models.SortPopularity, Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "D", "C"}, clientIDs(rows))
	assert.Equal(t, 3, rows[0].Popularity)
	require.Len(t, rows[0].Scopes, 1)
	assert.Equal(t, "s3", rows[0].Scopes[0].Value)

	rows, err = cs.Find(ctx, models.FindQuery{Sort: models.SortName})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, clientIDs(rows))

	rows, err = cs.Find(ctx, models.FindQuery{Sort: models.SortDate, Desc: true, Limit: 2, Skip: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, clientIDs(rows))
}

func TestScopeStoreLifecycle(t *testing.T) {
	db := testMongoDB(t)
	cs := NewClientStore(db)
	ss := NewScopeStore(db, cs)
	ctx := context.Background()
	seedClients(t, cs, newClient("c1", "t1", "Owner"), newClient("c2", "t1", "Consumer"))

	_, err := ss.Create(ctx, &models.Scope{Value: "read", AudienceID: "aud-missing"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = ss.Create(ctx, &models.Scope{Value: "read", AudienceID: "aud-c1", PermittedClients: []string{"c2", "ghost"}})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	sc, err := ss.Create(ctx, &models.Scope{Value: "read", AudienceID: "aud-c1", PermittedClients: []string{"c2", "c2"}})
	require.NoError(t, err)
	assert.Equal(t, models.ScopePrivate, sc.Type)
	assert.Equal(t, models.DefaultScopeDescription, sc.Description)
	assert.Equal(t, []string{"c2"}, sc.PermittedClients)

	_, err = ss.Create(ctx, &models.Scope{Value: "read", AudienceID: "aud-c1"})
	assert.True(t, errors.Is(err, errors.ErrDuplicateUnique))

	// a missing permitted client leaves the document untouched
	_, err = ss.Update(ctx, "aud-c1", "read", []string{"c1", "c2-missing"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	unchanged, err := ss.FindByID(ctx, sc.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, unchanged.PermittedClients)

	replaced, err := ss.Update(ctx, "aud-c1", "read", []string{"c1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, replaced.PermittedClients, "update replaces, never merges")

	byName, err := ss.FindByAudienceIDAndValue(ctx, "aud-c1", "read")
	require.NoError(t, err)
	assert.Equal(t, sc.ID, byName.ID)

	n, err := ss.CountByAudienceID(ctx, "aud-c1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, ss.Delete(ctx, sc.ID.Hex()))
	assert.True(t, errors.Is(ss.Delete(ctx, sc.ID.Hex()), errors.ErrNotFound))
	_, err = ss.FindByID(ctx, "not-hex")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestScopeStoreFindPermitted(t *testing.T) {
	db := testMongoDB(t)
	cs := NewClientStore(db)
	ss := NewScopeStore(db, cs)
	seedGraph(t, cs, ss)
	ctx := context.Background()

	groups, err := ss.FindPermitted(ctx, models.PermittedQuery{ClientID: "B", Sort: models.SortName})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Alpha", groups[0].Name)
	assert.Equal(t, "A", groups[0].ClientID)
	assert.Equal(t, "Delta", groups[1].Name)
	require.Len(t, groups[0].Scopes, 1)
	assert.Equal(t, "s1", groups[0].Scopes[0].Value)

	groups, err = ss.FindPermitted(ctx, models.PermittedQuery{ClientID: "B", Sort: models.SortPopularity, Desc: true})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "aud-A", groups[0].AudienceID)
	assert.Equal(t, 2, groups[0].Popularity)

	groups, err = ss.FindPermitted(ctx, models.PermittedQuery{ClientID: "C", Sort: models.SortUsage, Desc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Usage)
}
