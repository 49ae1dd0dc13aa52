package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/learnlingo-api/pkg/config"
	"github.com/noah-isme/learnlingo-api/pkg/database"
	"github.com/noah-isme/learnlingo-api/pkg/logger"
)

const usage = `usage: migrate [-dir path] <up|status|version>`

func main() {
	dir := flag.String("dir", "", "migrations directory (defaults to the embedded set)")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	path := *dir
	if path == "" {
		path = cfg.Database.MigrationsPath
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	migrator, err := database.NewMigrator(db.DB, path, logr)
	if err != nil {
		logr.Fatal("failed to init migrator", zap.Error(err))
	}

	ctx := context.Background()
	switch flag.Arg(0) {
	case "up":
		err = migrator.Up(ctx)
	case "status":
		err = migrator.Status(ctx)
	case "version":
		var version int64
		version, err = migrator.Version(ctx)
		if err == nil {
			fmt.Println(version)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logr.Fatal("migration command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
}
