// Package main provides a CLI tool for migrating and seeding the database.
package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"opserp/db"
	"opserp/internal/core/security"
	"opserp/internal/core/types"
	"opserp/internal/domain/access"
	"opserp/internal/domain/stock"
	"opserp/internal/infrastructure/storage/postgres"
	"opserp/internal/infrastructure/storage/postgres/access_repo"
	"opserp/internal/infrastructure/storage/postgres/stock_repo"
	"opserp/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	if err := postgres.Migrate(ctx, pool, db.Migrations, "migrations"); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}

	adminEmail := os.Getenv("ADMIN_ACTOR_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@opserp.local"
	}

	repo := access_repo.New(txManager)
	registry := access.NewRegistry(repo, txManager)
	if err := registry.Seed(ctx, access.DefaultCatalog(adminEmail)); err != nil {
		log.Fatalw("failed to seed access catalog", "error", err)
	}
	log.Infow("access catalog seeded", "admin", adminEmail)

	admin, err := repo.GetActorByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalw("failed to load admin actor", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		capability, err := registry.ResolveCapability(ctx, admin.ID)
		if err != nil {
			log.Fatalw("failed to resolve admin capability", "error", err)
		}
		if err := seedDemoStock(ctx, stock.NewLedger(stock_repo.New(txManager), txManager), capability, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	secret := os.Getenv("JWT_SECRET")
	if secret != "" {
		token, expiresAt, err := access.NewTokenService(access.DefaultTokenConfig(secret)).Issue(admin)
		if err != nil {
			log.Fatalw("failed to issue admin token", "error", err)
		}
		fmt.Printf("admin token (expires %s):\n%s\n", expiresAt.Format("2006-01-02 15:04:05"), token)
	}

	log.Info("seeding completed successfully")
}

func seedDemoStock(ctx context.Context, ledger *stock.Ledger, c *security.Capability, log *logger.Logger) error {
	project := "obra-demo"
	items := []stock.ItemSpec{
		{Name: "Cimento CP-II 50kg", TotalQuantity: 120, UnitValue: types.MustMoney("38.90"), ProjectRef: &project},
		{Name: "Vergalhão CA-50 10mm", TotalQuantity: 300, UnitValue: types.MustMoney("54.20"), ProjectRef: &project},
		{Name: "Tijolo cerâmico 8 furos", TotalQuantity: 5000, UnitValue: types.MustMoney("0.85")},
	}

	existing, err := ledger.ListItems(ctx, c, stock.ItemFilter{Limit: 500})
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, it := range existing {
		known[it.Name] = true
	}

	for _, spec := range items {
		if known[spec.Name] {
			continue
		}
		item, err := ledger.UpsertItem(ctx, c, spec)
		if err != nil {
			return fmt.Errorf("create item %q: %w", spec.Name, err)
		}
		log.Infow("created demo stock item", "item_id", item.ID, "name", item.Name)
	}
	return nil
}
