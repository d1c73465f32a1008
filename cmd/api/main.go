package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/helix/epe-server/internal/config"
	"github.com/helix/epe-server/internal/dbmigrate"
	"github.com/helix/epe-server/internal/httpserver"
	"github.com/helix/epe-server/internal/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	for _, w := range cfg.Warnings {
		log.Warn("config", "detail", w)
	}
	printStartupBanner(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrationsOnStartup {
		target, err := dbmigrate.SelectTarget(cfg, true)
		if err != nil {
			log.Fatal("startup migrations", "error", err)
		}

		log.Info("startup migrations", "command", "up", "using", target.Source)
		if err := dbmigrate.Run(ctx, "up", target.URL, ""); err != nil {
			log.Fatal("startup migrations failed", "error", err)
		}
		log.Info("startup migrations completed")
	}

	validateProductionConfig(log, cfg)

	server, err := httpserver.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("server init failed", "error", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		_ = server.Close()
		if err != nil {
			log.Fatal("server stopped", "error", err)
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", "error", err)
	}
	log.Info("server stopped")
}

// printStartupBanner logs a one-time summary of the resolved configuration.
// Secrets are reported only as "set" / "not set".
func printStartupBanner(log *logger.Logger, cfg *config.Config) {
	log.Info("EPE API starting",
		"env", cfg.Env,
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"plan_timezone", cfg.PlanLocation().String(),
	)
	log.Info("database",
		"runtime_url", describeDBURL(cfg.DatabaseURL, cfg.DatabaseURLPooled),
		"pooled", setOrNot(cfg.DatabaseURLPooled),
		"direct", setOrNot(cfg.DatabaseURLDirect),
		"sqlite_path", nonEmptyOrDash(cfg.SQLitePath),
		"migrations_on_startup", cfg.RunMigrationsOnStartup,
	)
	log.Info("catalog cache",
		"redis_url", setOrNot(cfg.RedisURL),
		"ttl", cfg.CatalogCacheTTL.String(),
	)
	log.Info("auth",
		"auth_mode", cfg.AuthMode,
		"auth_required", cfg.AuthRequired,
		"jwt_secret", secretStatus(cfg.JWTSecret, "change_me"),
		"jwt_issuer", cfg.JWTIssuer,
	)
	log.Info("blob", "blob_mode", cfg.Blob.Mode)
	if cfg.Blob.Mode != config.BlobModeLocal {
		log.Info("s3", "summary", cfg.Blob.S3.DiagnosticsSummary())
	}
}

// validateProductionConfig performs fatal checks that only matter in non-local envs.
func validateProductionConfig(log *logger.Logger, cfg *config.Config) {
	if cfg.Blob.Mode == config.BlobModeS3 {
		if missing := cfg.Blob.S3.MissingRequired(); len(missing) > 0 {
			log.Fatal("BLOB_MODE is 's3' but S3 config is incomplete", "missing", strings.Join(missing, ", "))
		}
	}

	if !cfg.IsProduction() {
		return
	}
	if cfg.AuthRequired && cfg.JWTSecret == "change_me" {
		log.Fatal("JWT_SECRET must not be 'change_me' with AUTH_REQUIRED=1", "env", cfg.Env)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("no DATABASE_URL configured", "env", cfg.Env)
	}
}

// ---- helpers (no secrets) ----

func setOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

func secretStatus(v, insecureDefault string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "not set"
	}
	if v == insecureDefault {
		return fmt.Sprintf("set (DEFAULT, insecure '%s')", insecureDefault)
	}
	return "set (custom)"
}

func describeDBURL(runtime, pooled string) string {
	if runtime == "" {
		return "not set (sqlite or in-memory storage)"
	}
	if pooled != "" && runtime == pooled {
		return "set (via DATABASE_URL_POOLED)"
	}
	return "set"
}
