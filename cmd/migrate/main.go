package main

import (
	"context"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/noah-isme/course-eval-api/migrations"
	"github.com/noah-isme/course-eval-api/pkg/config"
	"github.com/noah-isme/course-eval-api/pkg/database"
	"github.com/noah-isme/course-eval-api/pkg/logger"
)

// Usage: migrate [up|down|status|redo|reset|version] [args...]
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	command := "up"
	var args []string
	if len(os.Args) > 1 {
		command = os.Args[1]
		args = os.Args[2:]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logr.Sugar().Fatalw("set migration dialect", "error", err)
	}

	// Embedded files live at the FS root; MIGRATIONS_DIR only matters when the base FS is cleared.
	dir := "."
	if cfg.Migrations.Dir != "" && cfg.Migrations.Dir != "migrations" {
		goose.SetBaseFS(nil)
		dir = cfg.Migrations.Dir
	}

	logr.Sugar().Infow("running migrations", "command", command, "dir", dir)
	if err := goose.RunContext(ctx, command, db.DB, dir, args...); err != nil {
		logr.Sugar().Fatalw("migration failed", "command", command, "error", err)
	}
}
