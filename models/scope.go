package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultScopeDescription is stored when a scope is created without one.
const DefaultScopeDescription = "No description provided"

// ScopeType controls whether a scope is listed for every team.
type ScopeType string

const (
	ScopePublic  ScopeType = "PUBLIC"
	ScopePrivate ScopeType = "PRIVATE"
)

// ParseScopeType returns the scope type named by s, PRIVATE when s is empty or unknown.
func ParseScopeType(s string) ScopeType {
	if strings.EqualFold(s, string(ScopePublic)) {
		return ScopePublic
	}
	return ScopePrivate
}

// Scope is a permission owned by the client whose audience id it carries.
// PermittedClients holds client ids.
type Scope struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Value            string             `bson:"value" json:"value"`
	AudienceID       string             `bson:"audienceId" json:"audienceId"`
	PermittedClients []string           `bson:"permittedClients" json:"permittedClients"`
	Creator          string             `bson:"creator" json:"creator"`
	Description      string             `bson:"description" json:"description"`
	Type             ScopeType          `bson:"type" json:"type"`
}

// Dedupe returns ids without duplicates or empty entries, keeping first occurrence order.
func Dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
