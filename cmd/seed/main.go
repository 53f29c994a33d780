// Command seed migrates the schema and creates the roles and admin account.
package main

import (
	"context"
	"flag"
	"os"

	"invoicepay/internal/config"
	"invoicepay/internal/db"
	"invoicepay/internal/observability"
	"invoicepay/internal/repository"
	"invoicepay/internal/security"
	"invoicepay/internal/service"
)

func main() {
	reset := flag.Bool("reset", false, "drop all tables before migrating")
	flag.Parse()

	cfg := config.Load()
	logger := observability.NewLogger("invoicepay-seed", cfg.Env)
	logger.Info("starting seed")

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if *reset {
		if err := db.Reset(gormDB); err != nil {
			logger.Warn("failed to drop tables", "err", err)
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}
	logger.Info("database migrations completed")

	seeder := service.NewSeeder(
		repository.NewUserRepository(gormDB),
		repository.NewRoleRepository(gormDB),
		security.NewBcryptHasher(cfg.BcryptCost),
		logger,
	)
	if err := seeder.Seed(context.Background(), cfg.Admin); err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}
	logger.Info("seed completed successfully")
}
