package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/wholesale-backend/internal/accounts"
	"github.com/angelmondragon/wholesale-backend/internal/catalog"
	"github.com/angelmondragon/wholesale-backend/pkg/auth"
	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	printTokens := flag.Bool("tokens", true, "print access tokens for the seeded accounts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to seed a prod environment")
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	seeder := newSeeder(accounts.NewRepository(dbClient.DB()), catalog.NewRepository(dbClient.DB()))
	result, err := seeder.Run(ctx)
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"accounts": len(result.Accounts),
		"products": len(result.Products),
	}), "seed complete")

	if !*printTokens {
		return
	}
	now := time.Now()
	for _, account := range result.Accounts {
		token, err := auth.MintAccessToken(cfg.JWT, now, auth.AccessTokenPayload{
			AccountID: account.ID,
			Role:      account.Role,
		})
		if err != nil {
			logg.Error(ctx, "failed to mint token", err)
			os.Exit(1)
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", account.Email, account.Role, account.Status, token)
	}
}
