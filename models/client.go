package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultClientDescription is stored when a client is registered without one.
const DefaultClientDescription = "No description provided."

// Client is the local mirror of a client registered at the authority.
// The authority-issued secret is never part of it.
type Client struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ClientID    string             `bson:"clientId" json:"clientId"`
	AudienceID  string             `bson:"audienceId" json:"audienceId"`
	TeamID      string             `bson:"teamId" json:"teamId"`
	Name        string             `bson:"name" json:"name"`
	NameFuzzy   []string           `bson:"nameFuzzy,omitempty" json:"-"`
	Description string             `bson:"description" json:"description"`
	HostURIs    []string           `bson:"hostUris" json:"hostUris"`
	Token       string             `bson:"token" json:"-"`
}

// ClientPatch carries the fields of a partial client update. A nil field is
// absent and must leave the stored value untouched.
type ClientPatch struct {
	ClientID    *string
	AudienceID  *string
	Name        *string
	Description *string
	HostURIs    []string
	Token       *string
}

// Empty reports whether no field is present.
func (p ClientPatch) Empty() bool {
	return p.ClientID == nil && p.AudienceID == nil && p.Name == nil &&
		p.Description == nil && p.HostURIs == nil && p.Token == nil
}

// Apply copies the present fields onto c.
func (p ClientPatch) Apply(c *Client) {
	if p.ClientID != nil {
		c.ClientID = *p.ClientID
	}
	if p.AudienceID != nil {
		c.AudienceID = *p.AudienceID
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.HostURIs != nil {
		c.HostURIs = append([]string(nil), p.HostURIs...)
	}
	if p.Token != nil {
		c.Token = *p.Token
	}
}

// StringPtr returns a pointer to s, nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
