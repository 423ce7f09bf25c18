package main

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/adapter/password"
	"github.com/YelzhanWeb/cafe/internal/adapter/postgres"
	"github.com/YelzhanWeb/cafe/internal/app/catalog"
	"github.com/YelzhanWeb/cafe/internal/app/seed"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			lgr := logger.New("migrate", debug)
			defer lgr.Sync()

			ctx, stop := signalContext()
			defer stop()

			db, err := connectDB(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			lgr.Info("migration_completed", "Database schema is up to date", "startup", nil)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var (
		menuFile  string
		demoUsers int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the menu, demo accounts and gift cards into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if menuFile == "" {
				menuFile = cfg.Catalog.SeedFile
			}
			lgr := logger.New("seed", debug)
			defer lgr.Sync()

			ctx, stop := signalContext()
			defer stop()

			db, err := connectDB(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			products := catalog.NewService(postgres.NewProductRepository(db), lgr, cfg.Catalog.CacheTTL)
			if err := seedMenu(ctx, products, menuFile, true); err != nil {
				return err
			}

			seeder := seed.NewSeeder(
				postgres.NewUserRepository(db),
				postgres.NewGiftCardRepository(db),
				password.NewBcryptHasher(bcrypt.DefaultCost),
				lgr,
			)

			users, err := seeder.MockUsers(ctx)
			if err != nil {
				return err
			}
			cards, err := seeder.GiftCards(ctx)
			if err != nil {
				return err
			}

			var demo int
			if demoUsers > 0 {
				bar := progressbar.Default(int64(demoUsers), "demo users")
				demo, err = seeder.DemoUsers(ctx, demoUsers, func() { bar.Add(1) })
				if err != nil {
					return err
				}
			}

			lgr.Info("seed_completed", "Seed data loaded", "startup", map[string]interface{}{
				"mock_users": users,
				"gift_cards": cards,
				"demo_users": demo,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&menuFile, "menu", "", "menu YAML file (defaults to catalog.seed_file)")
	cmd.Flags().IntVar(&demoUsers, "demo-users", 0, "number of generated customer accounts")
	return cmd
}

func seedMenu(ctx context.Context, products *catalog.Service, path string, showProgress bool) error {
	menu, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	progress := func() {}
	if showProgress {
		bar := progressbar.Default(int64(len(menu)), "menu")
		progress = func() { bar.Add(1) }
	}
	return products.Import(ctx, menu, progress)
}
