package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SortKey selects the ranking of a catalog listing.
type SortKey string

const (
	SortName       SortKey = "name"
	SortDate       SortKey = "date"
	SortPopularity SortKey = "popularity"
	SortUsage      SortKey = "usage"
)

// ParseSortKey maps a query value to a SortKey, defaulting to SortName.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortDate:
		return SortDate
	case SortPopularity:
		return SortPopularity
	case SortUsage:
		return SortUsage
	default:
		return SortName
	}
}

// FindQuery drives the aggregate client listing. Teams restricts which
// clients count towards the usage metric.
type FindQuery struct {
	Limit int
	Skip  int
	Sort  SortKey
	Desc  bool
	Teams []string
}

// PermittedQuery drives the reverse scope index for one client.
type PermittedQuery struct {
	ClientID string
	Sort     SortKey
	Desc     bool
	Limit    int
	Skip     int
}

// ClientListing is one row of the aggregate client listing.
type ClientListing struct {
	ID          primitive.ObjectID `bson:"_id" json:"-"`
	ClientID    string             `bson:"clientId" json:"clientId"`
	AudienceID  string             `bson:"audienceId" json:"audienceId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	TeamID      string             `bson:"teamId" json:"-"`
	Team        *Team              `bson:"-" json:"team,omitempty"`
	Scopes      []ScopeSummary     `bson:"scopes" json:"scopes"`
	Popularity  int                `bson:"popularity,omitempty" json:"popularity"`
	Usage       int                `bson:"usage,omitempty" json:"usage"`
}

// ScopeSummary is the projection of a scope embedded in listings.
type ScopeSummary struct {
	Value       string    `bson:"value" json:"value"`
	Description string    `bson:"description" json:"description"`
	Type        ScopeType `bson:"type" json:"type"`
}

// PermittedGroup is one row of the reverse scope index: the scopes of a
// single owning client that the queried client may use.
type PermittedGroup struct {
	AudienceID  string         `bson:"audienceId" json:"audienceId"`
	ClientID    string         `bson:"clientId" json:"clientId"`
	Name        string         `bson:"name" json:"name"`
	Description string         `bson:"description" json:"description"`
	TeamID      string         `bson:"teamId" json:"-"`
	Team        *Team          `bson:"-" json:"team,omitempty"`
	Scopes      []ScopeSummary `bson:"scopes" json:"scopes"`
	Popularity  int            `bson:"popularity,omitempty" json:"popularity"`
	Usage       int            `bson:"usage,omitempty" json:"usage"`
}

// ClientSearchResult is the bounded projection returned by name search.
type ClientSearchResult struct {
	ClientID    string `bson:"clientId" json:"clientId"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	TeamID      string `bson:"teamId" json:"-"`
	Team        *Team  `bson:"-" json:"team,omitempty"`
	Score       int    `bson:"score" json:"-"`
}
