package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/misha1235000/SpikeServer/models"
)

func TestClampLimitAndSkip(t *testing.T) {
	limits := map[int]int{-3: 50, 0: 50, 1: 1, 25: 25, 50: 50, 51: 50, 100: 50}
	for in, want := range limits {
		assert.Equal(t, want, ClampLimit(in), "limit %d", in)
	}
	skips := map[int]int{-5: 0, 0: 0, 7: 7}
	for in, want := range skips {
		assert.Equal(t, want, ClampSkip(in), "skip %d", in)
	}
}

func operators(p mongo.Pipeline) []string {
	ops := make([]string, 0, len(p))
	for _, st := range p {
		ops = append(ops, st[0].Key)
	}
	return ops
}

func stageValue(t *testing.T, p mongo.Pipeline, op string) bson.D {
	t.Helper()
	for _, st := range p {
		if st[0].Key == op {
			d, ok := st[0].Value.(bson.D)
			if ok {
				return d
			}
			return bson.D{{Key: op, Value: st[0].Value}}
		}
	}
	t.Fatalf("stage %s not found in %v", op, operators(p))
	return nil
}

func lookup(d bson.D, key string) any {
	for _, e := range d {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

func TestClientListingUsageRestrictedToTeams(t *testing.T) {
	p := clientListingPipeline(models.FindQuery{Limit: 100, Skip: -5, Sort: models.SortUsage, Desc: true, Teams: []string{"t1"}})

	ops := operators(p)
	assert.Equal(t, []string{"$lookup", "$addFields", "$lookup", "$addFields", "$sort", "$skip", "$limit", "$project"}, ops)

	// paginate after sort, clamped
	for _, st := range p {
		switch st[0].Key {
		case "$skip":
			assert.Equal(t, int64(0), st[0].Value)
		case "$limit":
			assert.Equal(t, int64(50), st[0].Value)
		}
	}

	sort := stageValue(t, p, "$sort")
	assert.Equal(t, bson.D{{Key: "usage", Value: -1}, {Key: "_id", Value: -1}}, sort)

	// the usage lookup is nested and filters on the allowed teams
	nested := p[2][0].Value.(bson.D)
	assert.Equal(t, ClientsCollection, lookup(nested, "from"))
	inner := lookup(nested, "pipeline").(bson.A)
	require.Len(t, inner, 3)
	teamMatch := inner[1].(bson.D)[0].Value.(bson.D)
	assert.Equal(t, "teamId", teamMatch[0].Key)
	assert.Equal(t, bson.D{{Key: "$in", Value: []string{"t1"}}}, teamMatch[0].Value)
}

func TestClientListingUsageWithoutTeams(t *testing.T) {
	p := clientListingPipeline(models.FindQuery{Sort: models.SortUsage})
	nested := p[2][0].Value.(bson.D)
	inner := lookup(nested, "pipeline").(bson.A)
	assert.Len(t, inner, 2, "no team filter when teams is empty")
}

func TestClientListingPerSortKey(t *testing.T) {
	tests := []struct {
		sort models.SortKey
		desc bool
		ops  []string
		want bson.D
	}{
		{models.SortName, false, []string{"$lookup", "$sort", "$skip", "$limit", "$project"}, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: -1}}},
		{models.SortDate, true, []string{"$lookup", "$sort", "$skip", "$limit", "$project"}, bson.D{{Key: "_id", Value: -1}}},
		{models.SortPopularity, true, []string{"$lookup", "$addFields", "$sort", "$skip", "$limit", "$project"}, bson.D{{Key: "popularity", Value: -1}, {Key: "_id", Value: -1}}},
		{"bogus", false, []string{"$lookup", "$sort", "$skip", "$limit", "$project"}, bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: -1}}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			p := clientListingPipeline(models.FindQuery{Sort: tt.sort, Desc: tt.desc, Limit: 10, Skip: 20})
			assert.Equal(t, tt.ops, operators(p))
			assert.Equal(t, tt.want, stageValue(t, p, "$sort"))
		})
	}
}

func TestPermittedPipeline(t *testing.T) {
	p := permittedPipeline(models.PermittedQuery{ClientID: "c1", Sort: models.SortUsage, Desc: true, Limit: 0, Skip: -1})

	assert.Equal(t, []string{"$match", "$group", "$lookup", "$unwind", "$addFields", "$sort", "$skip", "$limit", "$project"}, operators(p))
	match := stageValue(t, p, "$match")
	assert.Equal(t, bson.D{{Key: "permittedClients", Value: "c1"}}, match)
	assert.Equal(t, bson.D{{Key: "usage", Value: -1}, {Key: "client._id", Value: -1}}, stageValue(t, p, "$sort"))

	for _, st := range p {
		if st[0].Key == "$limit" {
			assert.Equal(t, int64(50), st[0].Value)
		}
	}

	name := permittedPipeline(models.PermittedQuery{ClientID: "c1", Sort: models.SortName})
	assert.Equal(t, bson.D{{Key: "client.name", Value: 1}, {Key: "client._id", Value: -1}}, stageValue(t, name, "$sort"))
}
