package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/helix/epe-server/internal/catalog"
	"github.com/helix/epe-server/internal/config"
	"github.com/helix/epe-server/internal/logger"
	"github.com/helix/epe-server/internal/storage"
	"github.com/helix/epe-server/internal/storage/postgres"
	"github.com/helix/epe-server/internal/storage/sqlite"
)

func main() {
	file := flag.String("file", "", "YAML catalog to load (default: bundled catalog)")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	f := catalog.Default()
	source := "bundled"
	if *file != "" {
		r, err := os.Open(*file)
		if err != nil {
			log.Fatal("open catalog", "file", *file, "error", err)
		}
		f, err = catalog.Decode(r)
		r.Close()
		if err != nil {
			log.Fatal("decode catalog", "file", *file, "error", err)
		}
		source = *file
	}

	store, kind, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal("open storage", "error", err)
	}
	defer store.Close()

	var cache catalog.Cache
	if cfg.RedisURL != "" {
		rc, err := catalog.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, cached snapshot will expire on its own", "error", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	svc := catalog.NewService(store, cache, cfg.CatalogCacheTTL, log)
	recipes, exercises, err := svc.Seed(ctx, f)
	if err != nil {
		log.Fatal("seed failed", "error", err)
	}
	log.Info("seed completed", "source", source, "storage", kind, "recipes", recipes, "exercises", exercises)
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, string, error) {
	switch {
	case cfg.DatabaseURL != "":
		s, err := postgres.New(ctx, cfg.DatabaseURL)
		return s, "postgres", err
	case cfg.SQLitePath != "":
		s, err := sqlite.New(ctx, cfg.SQLitePath)
		return s, "sqlite", err
	default:
		return nil, "", fmt.Errorf("set DATABASE_URL or SQLITE_PATH; in-memory storage is seeded at API startup")
	}
}
