package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppConfig defines application configuration loaded from files and environment.
type AppConfig struct {
	Env       string          `koanf:"env"`
	Server    HTTPConfig      `koanf:"server"`
	Authority AuthorityConfig `koanf:"authority"`
	Mongo     MongoConfig     `koanf:"mongo"`
	Database  DatabaseConfig  `koanf:"database"`
	Valkey    ValkeyConfig    `koanf:"valkey"`
	Auth      AuthConfig      `koanf:"auth"`
	Log       LogConfig       `koanf:"log"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// AuthorityConfig points at the authorization server and carries the
// credentials this service registers clients with.
type AuthorityConfig struct {
	BaseURL      string `koanf:"base_url"`
	TokenURL     string `koanf:"token_url"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	Scope        string `koanf:"scope"`
	Audience     string `koanf:"audience"`
	ClientPath   string `koanf:"client_path"`
	ScopePath    string `koanf:"scope_path"`
	TLSInsecure  bool   `koanf:"tls_insecure"`
}

type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type DatabaseConfig struct {
	Teams DSNConfig `koanf:"teams"`
}

type DSNConfig struct {
	DSN string `koanf:"dsn"`
}

// ValkeyConfig enables the shared bearer token store when Addr is set.
type ValkeyConfig struct {
	Addr   string `koanf:"addr"`
	Prefix string `koanf:"prefix"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// envKey maps SPIKE_AUTHORITY__CLIENT_ID to authority.client_id.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "SPIKE_")), "__", ".")
}

// LoadConfig reads configuration. Loading order:
// 1) config/config.yaml (optional)
// 2) config/config.<APP_ENV>.yaml (optional), APP_ENV defaults to "local"
// 3) Environment variables with prefix SPIKE_ mapped using __ as nested separator, e.g. SPIKE_MONGO__URI
//
// Files are only read when APP_CONFIG_FILES is truthy, which keeps tests isolated.
func LoadConfig() (*AppConfig, error) {
	k := koanf.New(".")
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}
	loadFiles := strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "1") || strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "true")

	envName := os.Getenv("APP_ENV")
	if envName == "" {
		envName = "local"
	}
	if loadFiles {
		for _, name := range []string{"config.yaml", "config." + envName + ".yaml"} {
			path := filepath.Join(configDir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}
	if err := k.Load(env.Provider("SPIKE_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var c AppConfig
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if c.Env == "" {
		c.Env = envName
	}
	c.applyDefaults()
	return &c, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Authority.ClientPath == "" {
		c.Authority.ClientPath = "/client"
	}
	if c.Authority.ScopePath == "" {
		c.Authority.ScopePath = "/scope"
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "spike"
	}
	if c.Valkey.Prefix == "" {
		c.Valkey.Prefix = "spike:"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// TeamsDSN returns the effective DSN for the team directory (config first, then env fallback to MIGRATE_DSN).
func (c *AppConfig) TeamsDSN() string {
	if c != nil && c.Database.Teams.DSN != "" {
		return strings.TrimSpace(c.Database.Teams.DSN)
	}
	return strings.TrimSpace(os.Getenv("MIGRATE_DSN"))
}

// Validate reports the settings serve cannot run without.
func (c *AppConfig) Validate() error {
	var missing []string
	if c.Authority.BaseURL == "" {
		missing = append(missing, "authority.base_url")
	}
	if c.Authority.TokenURL == "" {
		missing = append(missing, "authority.token_url")
	}
	if c.Authority.ClientID == "" {
		missing = append(missing, "authority.client_id")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwt_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
