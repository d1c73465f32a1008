package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/helix/epe-server/internal/config"
	"github.com/helix/epe-server/internal/dbmigrate"
	"github.com/helix/epe-server/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/migrate [up|status|down] [migrations-dir]")
		os.Exit(2)
	}

	cfg := config.Load()
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	command := os.Args[1]
	switch command {
	case "up", "status", "down":
	default:
		log.Fatal("unsupported command (allowed: up, status, down)", "command", command)
	}

	// optional on-disk directory; the embedded migrations are used otherwise
	dir := ""
	if len(os.Args) > 2 {
		dir = os.Args[2]
	}

	target, err := dbmigrate.SelectTarget(cfg, false)
	if err != nil {
		log.Fatal("select database", "error", err)
	}
	if target.Warning != "" {
		log.Warn("migrate", "detail", target.Warning)
	}
	log.Info("migrate", "command", command, "using", target.Source)

	if err := dbmigrate.Run(context.Background(), command, target.URL, dir); err != nil {
		log.Fatal("migrate failed", "command", command, "error", err)
	}

	log.Info("migrate completed", "command", command)
}
