// Command seed populates the catalog database with categories and
// generated products. It writes through the service layer so every product
// gets its search vector derived exactly as the API would.
//
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/event"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/migrations"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/logger"
)

// seedConfig holds the knobs of a seed run.
type seedConfig struct {
	Products int    `env:"SEED_PRODUCTS" envDefault:"1000"`
	Sellers  int    `env:"SEED_SELLERS" envDefault:"20"`
	Seed     uint64 `env:"SEED_RANDOM" envDefault:"42"`
}

type categoryDef struct {
	name     string
	children []string
}

var categoryTree = []categoryDef{
	{name: "Fashion", children: []string{"Bags", "Wallets", "Shoes", "Scarves"}},
	{name: "Home & Kitchen", children: []string{"Cookware", "Lighting", "Textiles"}},
	{name: "Electronics", children: []string{"Audio", "Cameras", "Accessories"}},
	{name: "Sports & Outdoors", children: []string{"Camping", "Cycling"}},
	{name: "Books"},
}

var (
	adjectives = []string{"Classic", "Slim", "Vintage", "Compact", "Handmade", "Premium", "Everyday", "Travel", "Minimal", "Rugged"}
	materials  = []string{"Leather", "Canvas", "Wool", "Cotton", "Steel", "Bamboo", "Linen", "Suede", "Ceramic", "Oak"}
	nouns      = []string{"Wallet", "Tote", "Backpack", "Lamp", "Kettle", "Speaker", "Scarf", "Boots", "Tent", "Bottle"}
	details    = []string{
		"stitched by hand in small batches",
		"with a water resistant finish",
		"sized for daily carry",
		"built to last for years",
		"in a range of seasonal colours",
		"with a lifetime repair promise",
	}
)

func main() {
	log := logger.New("catalog-seed", "info")
	if err := run(log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var seed seedConfig
	if err := pkgconfig.Load(&seed); err != nil {
		return fmt.Errorf("load seed config: %w", err)
	}
	if seed.Products < 0 || seed.Sellers < 1 {
		return fmt.Errorf("SEED_PRODUCTS must be >= 0 and SEED_SELLERS >= 1")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return err
	}

	products := postgres.NewProductRepository(pool)
	categories := postgres.NewCategoryRepository(pool)
	events := event.NewProducer(nil, log)
	catalogSvc := service.NewCatalogService(products, log)
	categorySvc := service.NewCategoryService(categories, nil, nil, events, log)
	productSvc := service.NewProductService(products, categorySvc, catalogSvc, events, log)

	leaves, err := seedCategories(ctx, categorySvc, log)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(seed.Seed, seed.Seed^0x9e3779b97f4a7c15)) // #nosec G404 -- reproducible fixture data
	start := time.Now()
	for i := 0; i < seed.Products; i++ {
		input := randomProduct(rng, leaves)
		sellerID := int64(rng.IntN(seed.Sellers) + 1)
		if _, err := productSvc.CreateProduct(ctx, sellerID, input); err != nil {
			return fmt.Errorf("create product %d: %w", i, err)
		}
		if (i+1)%500 == 0 {
			log.Info("products seeded", slog.Int("count", i+1))
		}
	}

	log.Info("seed complete",
		slog.Int("categories", len(leaves)),
		slog.Int("products", seed.Products),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// seedCategories creates the category tree and returns the ids products
// may be placed in.
func seedCategories(ctx context.Context, svc *service.CategoryService, log *slog.Logger) ([]int64, error) {
	var leaves []int64
	for _, def := range categoryTree {
		root, err := svc.CreateCategory(ctx, &domain.CreateCategoryInput{Name: def.name})
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", def.name, err)
		}
		log.Info("category created", slog.Int64("id", root.ID), slog.String("slug", root.Slug))
		if len(def.children) == 0 {
			leaves = append(leaves, root.ID)
			continue
		}
		for _, name := range def.children {
			child, err := svc.CreateCategory(ctx, &domain.CreateCategoryInput{Name: name, ParentID: &root.ID})
			if err != nil {
				return nil, fmt.Errorf("create category %q: %w", name, err)
			}
			leaves = append(leaves, child.ID)
		}
	}
	return leaves, nil
}

func randomProduct(rng *rand.Rand, categoryIDs []int64) *domain.CreateProductInput {
	material := pick(rng, materials)
	noun := pick(rng, nouns)
	name := fmt.Sprintf("%s %s %s", pick(rng, adjectives), material, noun)
	description := fmt.Sprintf("A %s %s %s.", strings.ToLower(material), strings.ToLower(noun), pick(rng, details))

	cents := 499 + rng.IntN(49500)
	return &domain.CreateProductInput{
		Name:        name,
		Description: description,
		Price:       decimal.New(int64(cents), -2),
		Stock:       rng.IntN(60),
		CategoryID:  categoryIDs[rng.IntN(len(categoryIDs))],
	}
}

func pick(rng *rand.Rand, xs []string) string {
	return xs[rng.IntN(len(xs))]
}
