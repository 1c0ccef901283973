package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	valkey "github.com/valkey-io/valkey-go"
	"golang.org/x/oauth2"
)

// ValkeyTokenStore shares the management bearer between replicas through
// Valkey (Redis-compatible).
type ValkeyTokenStore struct {
	client valkey.Client
	prefix string
	key    string
}

// NewValkeyTokenStore creates a Valkey-backed bearer store. The key is
// derived from credentialID so distinct credentials never collide.
// addr example: "127.0.0.1:6379"; prefix helps namespace keys.
func NewValkeyTokenStore(addr, prefix, credentialID string) (*ValkeyTokenStore, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	return newValkeyTokenStore(cli, prefix, credentialID), nil
}

func newValkeyTokenStore(cli valkey.Client, prefix, credentialID string) *ValkeyTokenStore {
	if prefix == "" {
		prefix = "spike:"
	}
	return &ValkeyTokenStore{client: cli, prefix: prefix, key: prefix + "bearer:" + credentialHash(credentialID)}
}

// credentialHash returns a stable hex sha256 for a credential id.
func credentialHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

// Load returns the stored bearer, nil when none is stored.
func (ts *ValkeyTokenStore) Load(ctx context.Context) (*oauth2.Token, error) {
	raw, err := ts.client.Do(ctx, ts.client.B().Get().Key(ts.key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Save stores tok until it expires. Already expired tokens are not stored.
func (ts *ValkeyTokenStore) Save(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil {
		return nil
	}
	jv, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if tok.Expiry.IsZero() {
		return ts.client.Do(ctx, ts.client.B().Set().Key(ts.key).Value(string(jv)).Build()).Error()
	}
	ttl := time.Until(tok.Expiry)
	if ttl <= time.Second {
		return nil
	}
	return ts.client.Do(ctx, ts.client.B().Set().Key(ts.key).Value(string(jv)).Ex(ttl).Build()).Error()
}

func (ts *ValkeyTokenStore) Close() { ts.client.Close() }
