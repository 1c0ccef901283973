package store

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/misha1235000/SpikeServer/models"
)

const (
	DefaultLimit = 50
	MaxLimit     = 50
)

// ClampLimit keeps a page size inside (0, MaxLimit]; anything else yields DefaultLimit.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// ClampSkip keeps an offset non-negative.
func ClampSkip(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Named slots of a listing pipeline, in execution order. Teams live in the
// relational directory, so joining the owning team happens after the
// aggregation returns.
const (
	stageMatch        = "match"
	stageJoinScopes   = "join-scopes"
	stageDeriveMetric = "derive-metric"
	stageSort         = "sort"
	stagePaginate     = "paginate"
	stageProject      = "project"
)

var stageOrder = []string{stageMatch, stageJoinScopes, stageDeriveMetric, stageSort, stagePaginate, stageProject}

// listing is a fixed sequence of named slots. Each slot holds zero or more
// aggregation stages; Build concatenates them in stageOrder.
type listing struct {
	slots map[string][]bson.D
}

func newListing() *listing {
	return &listing{slots: make(map[string][]bson.D, len(stageOrder))}
}

func (l *listing) set(name string, stages ...bson.D) *listing {
	l.slots[name] = stages
	return l
}

func (l *listing) Build() mongo.Pipeline {
	var p mongo.Pipeline
	for _, name := range stageOrder {
		p = append(p, l.slots[name]...)
	}
	return p
}

func direction(desc bool) int {
	if desc {
		return -1
	}
	return 1
}

func paginate(limit, skip int) []bson.D {
	return []bson.D{
		{{Key: "$skip", Value: int64(ClampSkip(skip))}},
		{{Key: "$limit", Value: int64(ClampLimit(limit))}},
	}
}

// sortBy orders on field and breaks ties on idField, newest first.
func sortBy(field, idField string, dir int) bson.D {
	if field == idField {
		return bson.D{{Key: "$sort", Value: bson.D{{Key: idField, Value: dir}}}}
	}
	return bson.D{{Key: "$sort", Value: bson.D{{Key: field, Value: dir}, {Key: idField, Value: -1}}}}
}

// metricFunc builds the derive-metric slot and names the field to sort on.
type metricFunc func(q models.FindQuery) (stages []bson.D, sortField string)

var clientMetrics = map[models.SortKey]metricFunc{
	models.SortName:       func(models.FindQuery) ([]bson.D, string) { return nil, "name" },
	models.SortDate:       func(models.FindQuery) ([]bson.D, string) { return nil, "_id" },
	models.SortPopularity: clientPopularity,
	models.SortUsage:      clientUsage,
}

// popularity = sum over the client's scopes of |permittedClients|.
func popularitySum(input string) bson.D {
	return bson.D{{Key: "$reduce", Value: bson.D{
		{Key: "input", Value: input},
		{Key: "initialValue", Value: 0},
		{Key: "in", Value: bson.D{{Key: "$add", Value: bson.A{
			"$$value",
			bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$$this.permittedClients", bson.A{}}}}}},
		}}}},
	}}}
}

func clientPopularity(models.FindQuery) ([]bson.D, string) {
	return []bson.D{
		{{Key: "$addFields", Value: bson.D{{Key: "popularity", Value: popularitySum("$scopes")}}}},
	}, "popularity"
}

// clientUsage counts the distinct other clients named in this client's
// scopes. Visibility is applied inside the nested lookup, before counting:
// with teams set, only clients of those teams count.
func clientUsage(q models.FindQuery) ([]bson.D, string) {
	inner := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{"$clientId", "$$permitted"}}},
			bson.D{{Key: "$ne", Value: bson.A{"$clientId", "$$self"}}},
		}}}}}}},
	}
	if len(q.Teams) > 0 {
		inner = append(inner, bson.D{{Key: "$match", Value: bson.D{{Key: "teamId", Value: bson.D{{Key: "$in", Value: q.Teams}}}}}})
	}
	inner = append(inner, bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 1}}}})

	return []bson.D{
		{{Key: "$addFields", Value: bson.D{{Key: "_permitted", Value: bson.D{{Key: "$reduce", Value: bson.D{
			{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$scopes.permittedClients", bson.A{}}}}},
			{Key: "initialValue", Value: bson.A{}},
			{Key: "in", Value: bson.D{{Key: "$setUnion", Value: bson.A{"$$value", "$$this"}}}},
		}}}}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ClientsCollection},
			{Key: "let", Value: bson.D{{Key: "permitted", Value: "$_permitted"}, {Key: "self", Value: "$clientId"}}},
			{Key: "pipeline", Value: inner},
			{Key: "as", Value: "_consumers"},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "usage", Value: bson.D{{Key: "$size", Value: "$_consumers"}}}}}},
	}, "usage"
}

// clientListingPipeline builds the aggregate client listing.
func clientListingPipeline(q models.FindQuery) mongo.Pipeline {
	metric, ok := clientMetrics[q.Sort]
	if !ok {
		metric = clientMetrics[models.SortName]
	}
	derive, field := metric(q)

	return newListing().
		set(stageJoinScopes, bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ScopesCollection},
			{Key: "localField", Value: "audienceId"},
			{Key: "foreignField", Value: "audienceId"},
			{Key: "as", Value: "scopes"},
		}}}).
		set(stageDeriveMetric, derive...).
		set(stageSort, sortBy(field, "_id", direction(q.Desc))).
		set(stagePaginate, paginate(q.Limit, q.Skip)...).
		set(stageProject, bson.D{{Key: "$project", Value: bson.D{
			{Key: "clientId", Value: 1},
			{Key: "audienceId", Value: 1},
			{Key: "name", Value: 1},
			{Key: "description", Value: 1},
			{Key: "teamId", Value: 1},
			{Key: "scopes.value", Value: 1},
			{Key: "scopes.description", Value: 1},
			{Key: "scopes.type", Value: 1},
			{Key: "popularity", Value: 1},
			{Key: "usage", Value: 1},
		}}}).
		Build()
}

type permittedMetricFunc func(clientID string) (stages []bson.D, sortField string)

var permittedMetrics = map[models.SortKey]permittedMetricFunc{
	models.SortName: func(string) ([]bson.D, string) { return nil, "client.name" },
	models.SortDate: func(string) ([]bson.D, string) { return nil, "client._id" },
	models.SortPopularity: func(string) ([]bson.D, string) {
		return []bson.D{
			{{Key: "$addFields", Value: bson.D{{Key: "popularity", Value: popularitySum("$scopes")}}}},
		}, "popularity"
	},
	// usage = number of the group's scopes that include the queried client.
	models.SortUsage: func(clientID string) ([]bson.D, string) {
		return []bson.D{
			{{Key: "$addFields", Value: bson.D{{Key: "usage", Value: bson.D{{Key: "$reduce", Value: bson.D{
				{Key: "input", Value: "$scopes"},
				{Key: "initialValue", Value: 0},
				{Key: "in", Value: bson.D{{Key: "$add", Value: bson.A{
					"$$value",
					bson.D{{Key: "$cond", Value: bson.D{
						{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{clientID, bson.D{{Key: "$ifNull", Value: bson.A{"$$this.permittedClients", bson.A{}}}}}}}},
						{Key: "then", Value: 1},
						{Key: "else", Value: 0},
					}}},
				}}}},
			}}}}}}},
		}, "usage"
	},
}

// permittedPipeline builds the reverse index: scopes granting clientID,
// grouped by owning audience and joined back to the owner.
func permittedPipeline(q models.PermittedQuery) mongo.Pipeline {
	metric, ok := permittedMetrics[q.Sort]
	if !ok {
		metric = permittedMetrics[models.SortName]
	}
	derive, field := metric(q.ClientID)

	return newListing().
		set(stageMatch,
			bson.D{{Key: "$match", Value: bson.D{{Key: "permittedClients", Value: q.ClientID}}}},
			bson.D{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$audienceId"},
				{Key: "scopes", Value: bson.D{{Key: "$push", Value: bson.D{
					{Key: "value", Value: "$value"},
					{Key: "type", Value: "$type"},
					{Key: "description", Value: "$description"},
					{Key: "permittedClients", Value: "$permittedClients"},
				}}}},
			}}},
		).
		set(stageJoinScopes,
			bson.D{{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: ClientsCollection},
				{Key: "localField", Value: "_id"},
				{Key: "foreignField", Value: "audienceId"},
				{Key: "as", Value: "client"},
			}}},
			bson.D{{Key: "$unwind", Value: "$client"}},
		).
		set(stageDeriveMetric, derive...).
		set(stageSort, sortBy(field, "client._id", direction(q.Desc))).
		set(stagePaginate, paginate(q.Limit, q.Skip)...).
		set(stageProject, bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "audienceId", Value: "$_id"},
			{Key: "clientId", Value: "$client.clientId"},
			{Key: "name", Value: "$client.name"},
			{Key: "description", Value: "$client.description"},
			{Key: "teamId", Value: "$client.teamId"},
			{Key: "scopes", Value: bson.D{{Key: "$map", Value: bson.D{
				{Key: "input", Value: "$scopes"},
				{Key: "as", Value: "s"},
				{Key: "in", Value: bson.D{
					{Key: "value", Value: "$$s.value"},
					{Key: "description", Value: "$$s.description"},
					{Key: "type", Value: "$$s.type"},
				}},
			}}}},
			{Key: "popularity", Value: 1},
			{Key: "usage", Value: 1},
		}}}).
		Build()
}
