package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/misha1235000/SpikeServer/authority"
	"github.com/misha1235000/SpikeServer/manage"
	"github.com/misha1235000/SpikeServer/migrate"
	"github.com/misha1235000/SpikeServer/seed"
	"github.com/misha1235000/SpikeServer/server"
	"github.com/misha1235000/SpikeServer/store"
	"github.com/misha1235000/SpikeServer/utils/slogx"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the management API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := server.LoadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg *server.AppConfig) error {
	logger := slogx.New(slogx.Config{
		Service: "spike",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})

	mongoClient, err := store.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	db := mongoClient.Database(cfg.Mongo.Database)
	if err := store.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	clients := store.NewClientStore(db)
	scopes := store.NewScopeStore(db, clients)

	checks := map[string]server.HealthCheck{
		"mongo": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
	}

	var (
		teams       manage.TeamDirectory
		teamManager *manage.TeamManager
	)
	if dsn := cfg.TeamsDSN(); dsn != "" {
		if err := migrate.RunFromEnv(dsn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
		if err != nil {
			return fmt.Errorf("open team directory: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		teamStore := store.NewTeamStore(gdb)
		if _, err := seed.RunFromEnv(ctx, teamStore); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		teams = teamStore
		teamManager = manage.NewTeamManager(teamStore, clients, logger)
		checks["teams"] = sqlDB.PingContext
	} else {
		logger.Warn("no team directory configured, listings will not be decorated and team routes are off")
	}

	httpClient := http.DefaultClient
	if cfg.Authority.TLSInsecure {
		logger.Warn("authority TLS verification disabled")
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for lab authorities
		httpClient = &http.Client{Transport: tr}
	}

	tokenOpts := []authority.TokenCacheOption{
		authority.WithHTTPClient(httpClient),
		authority.WithLogger(logger),
	}
	if cfg.Valkey.Addr != "" {
		shared, err := store.NewValkeyTokenStore(cfg.Valkey.Addr, cfg.Valkey.Prefix, cfg.Authority.ClientID)
		if err != nil {
			return fmt.Errorf("connect valkey: %w", err)
		}
		defer shared.Close()
		tokenOpts = append(tokenOpts, authority.WithTokenStore(shared))
	}
	tokens := authority.NewTokenCache(authority.Credentials{
		ClientID:     cfg.Authority.ClientID,
		ClientSecret: cfg.Authority.ClientSecret,
		TokenURL:     cfg.Authority.TokenURL,
		Scope:        cfg.Authority.Scope,
		Audience:     cfg.Authority.Audience,
	}, tokenOpts...)
	gateway := authority.NewGateway(authority.GatewayConfig{
		BaseURL:    cfg.Authority.BaseURL,
		ClientPath: cfg.Authority.ClientPath,
		ScopePath:  cfg.Authority.ScopePath,
	}, tokens, httpClient, logger)

	srv := server.NewServer(
		manage.NewClientManager(gateway, clients, scopes, teams, logger),
		manage.NewScopeManager(gateway, scopes, clients, teams, logger),
		[]byte(cfg.Auth.JWTSecret),
		logger,
	)
	srv.Checks = checks
	if teamManager != nil {
		srv.Teams = teamManager
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewGinEngine(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

