package authority

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// TokenSource hands out the bearer used on management calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenStore shares a bearer between replicas. Load returns nil, nil when
// nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, tok *oauth2.Token) error
}

// Credentials configures the client-credentials grant.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scope        string
	Audience     string
}

// TokenCache holds one client-credentials bearer and reissues it only when
// the held token is absent or expired. Concurrent refreshes are collapsed.
type TokenCache struct {
	conf       *clientcredentials.Config
	store      TokenStore
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token *oauth2.Token
	group singleflight.Group
}

// TokenCacheOption customizes a TokenCache.
type TokenCacheOption func(*TokenCache)

// WithTokenStore mirrors the bearer into a shared store.
func WithTokenStore(s TokenStore) TokenCacheOption {
	return func(c *TokenCache) { c.store = s }
}

// WithHTTPClient sets the client used for the grant exchange.
func WithHTTPClient(hc *http.Client) TokenCacheOption {
	return func(c *TokenCache) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) TokenCacheOption {
	return func(c *TokenCache) { c.logger = l }
}

// NewTokenCache builds a cache for the client-credentials bearer of creds.
func NewTokenCache(creds Credentials, opts ...TokenCacheOption) *TokenCache {
	conf := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL,
		Scopes:       strings.Fields(creds.Scope),
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	if creds.Audience != "" {
		conf.EndpointParams = url.Values{"audience": {creds.Audience}}
	}
	c := &TokenCache{conf: conf, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the held bearer, exchanging a new one first if needed.
// A failed exchange is returned unchanged and nothing is retried.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	if tok := c.current(); tok.Valid() {
		return tok.AccessToken, nil
	}
	v, err, _ := c.group.Do("token", func() (any, error) {
		if tok := c.current(); tok.Valid() {
			return tok, nil
		}
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(*oauth2.Token).AccessToken, nil
}

func (c *TokenCache) current() *oauth2.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *TokenCache) set(tok *oauth2.Token) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *TokenCache) refresh(ctx context.Context) (*oauth2.Token, error) {
	if c.store != nil {
		shared, err := c.store.Load(ctx)
		if err != nil {
			c.logger.Warn("token store load failed", "error", err)
		} else if shared.Valid() {
			c.set(shared)
			return shared, nil
		}
	}

	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	tok, err := c.conf.Token(ctx)
	if err != nil {
		c.logger.Info("client credentials exchange failed", "token_url", c.conf.TokenURL, "error", err)
		return nil, err
	}
	c.set(tok)

	if c.store != nil {
		if err := c.store.Save(ctx, tok); err != nil {
			c.logger.Warn("token store save failed", "error", err)
		}
	}
	return tok, nil
}
