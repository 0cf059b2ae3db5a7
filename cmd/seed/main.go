package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-recipe-api/config"
	"github.com/oksasatya/go-recipe-api/internal/application"
	pginfra "github.com/oksasatya/go-recipe-api/internal/infrastructure/postgres"
	"github.com/oksasatya/go-recipe-api/pkg/helpers"
)

// seed creates the superuser named by SEED_SUPERUSER_EMAIL and
// SEED_SUPERUSER_PASSWORD. Re-running it against an existing account is a
// no-op.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	if cfg.SeedSuperuserPassword == "" {
		log.Fatal("SEED_SUPERUSER_PASSWORD is required")
	}

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	store := pginfra.NewStore(pool)
	svc := application.NewUserService(store.Users(), nil, nil, logger, nil, cfg.AppName)
	u, err := svc.CreateSuperuser(ctx, cfg.SeedSuperuserEmail, cfg.SeedSuperuserPassword)
	if errors.Is(err, application.ErrEmailTaken) {
		fmt.Printf("superuser %s already exists\n", application.NormalizeEmail(cfg.SeedSuperuserEmail))
		return
	}
	if err != nil {
		log.Fatalf("failed to seed superuser: %v", err)
	}
	fmt.Printf("seeded superuser: id=%s email=%s\n", u.ID, u.Email)
}
