// Command storage-init prepares a deployment: it migrates the database,
// creates the domain events queue and seeds the bootstrap admin.
package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"taskmanager-api/auth"
	"taskmanager-api/config"
	"taskmanager-api/domain"
	"taskmanager-api/events"
	"taskmanager-api/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	configPath := flag.String("config", os.Getenv("TASKMANAGER_CONFIG"), "path to a YAML config file")
	flag.Parse()
	log.Info("storage init starting")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.ConnectionString)
	if err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	defer store.Close()

	if cfg.Events.ConnectionString != "" {
		sink, err := events.NewQueueSink(cfg.Events.ConnectionString, cfg.Events.Queue)
		if err != nil {
			log.Fatalf("create queue client: %v", err)
		}
		if err := sink.EnsureQueue(ctx); err != nil {
			log.Fatalf("create queue: %v", err)
		}
	} else {
		log.Info("no events connection string, queue not created")
	}

	if cfg.Bootstrap.Enabled() {
		users := domain.NewUserService(store, auth.NewBcryptHasher(cfg.Auth.BcryptCost))
		created, err := users.EnsureAdmin(ctx, domain.UserCreate{
			FirstName: "System",
			LastName:  "Administrator",
			Login:     cfg.Bootstrap.AdminLogin,
			Email:     cfg.Bootstrap.AdminEmail,
			Password:  cfg.Bootstrap.AdminPassword,
		})
		if err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		log.WithFields(log.Fields{"login": cfg.Bootstrap.AdminLogin, "created": created}).Info("admin checked")
	}

	log.Info("storage init complete")
}
