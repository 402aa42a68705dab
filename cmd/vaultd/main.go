// Command vaultd serves the time-locked message vault over HTTP.
//
// @title                      Time Vault API
// @version                    1.0
// @description                Write-once messages that unlock at a fixed delivery instant.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	_ "github.com/tbourn/go-time-vault/docs"
	"github.com/tbourn/go-time-vault/internal/attachments"
	"github.com/tbourn/go-time-vault/internal/clock"
	"github.com/tbourn/go-time-vault/internal/config"
	httpapi "github.com/tbourn/go-time-vault/internal/http"
	"github.com/tbourn/go-time-vault/internal/http/handlers"
	"github.com/tbourn/go-time-vault/internal/identity"
	"github.com/tbourn/go-time-vault/internal/observability"
	"github.com/tbourn/go-time-vault/internal/repo"
	"github.com/tbourn/go-time-vault/internal/services"
	"github.com/tbourn/go-time-vault/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownGrace = 15 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("vaultd stopped")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver,
		attribute.String("vault.delivery_at", cfg.Vault.DeliveryAt.Format(time.RFC3339)),
	)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Message store
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return err
	}
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	if err := repo.EnableTracing(db); err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	msgs, err := repo.NewMessages(ctx, db, nil)
	if err != nil {
		return err
	}

	// Attachment store
	store, opener, closeStore, err := openAttachments(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := identity.New(cfg.Auth.Mode, cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		return err
	}

	vault := &services.VaultService{
		Messages:           msgs,
		Attachments:        store,
		Clock:              clock.New(cfg.Vault.DeliveryAt),
		Timeout:            cfg.Vault.StoreTimeout,
		MaxTextRunes:       cfg.Vault.MaxTextRunes,
		MaxAttachmentBytes: cfg.Attachments.MaxBytes,
		AllowedTypes:       cfg.Attachments.AllowedTypes,
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Vault: vault, Files: opener, Identity: provider}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", ver).
			Time("delivery_at", cfg.Vault.DeliveryAt).
			Str("attachments", cfg.Attachments.Backend).
			Str("auth", cfg.Auth.Mode).
			Msg("vaultd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}

// openAttachments builds the configured attachment backend. With the "none"
// backend both the store and the opener are nil, which disables attachments.
func openAttachments(ctx context.Context, cfg config.Config) (attachments.Store, handlers.AttachmentOpener, func(), error) {
	noop := func() {}
	switch cfg.Attachments.Backend {
	case config.BackendDisk:
		d, err := attachments.NewDisk(cfg.Attachments.Dir, cfg.Attachments.BaseURL)
		if err != nil {
			return nil, nil, noop, err
		}
		return d, d, noop, nil
	case config.BackendGridFS:
		g, client, err := attachments.ConnectGridFS(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Bucket, cfg.Attachments.BaseURL)
		if err != nil {
			return nil, nil, noop, err
		}
		return g, g, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}, nil
	default:
		return nil, nil, noop, nil
	}
}
