package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/shopfront/internal/store"
)

// Seeds a development database: the admin account, a small catalog, one
// carrier with a rate table, and two coupons. Reruns are no-ops thanks to
// ON CONFLICT guards.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := store.Migrate(dbURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	seedAdmin(ctx, pool)
	seedCatalog(ctx, pool)
	seedShipping(ctx, pool)
	seedCoupons(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool) {
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO admin_users (username, password_hash)
		VALUES ('admin', $1)
		ON CONFLICT (username) DO NOTHING`, hash)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}
	log.Println("Seeded admin user")
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
		INSERT INTO categories (name, slug)
		VALUES ('Outdoor', 'outdoor'), ('Accessories', 'accessories')
		ON CONFLICT (slug) DO NOTHING`)
	if err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	products := []struct {
		name   string
		sku    string
		price  int64
		length float64
		width  float64
		height float64
		weight float64
	}{
		{"Trail Pack 30L", "PACK-30", 7999, 30, 20, 15, 2},
		{"Camp Lantern", "LANT-01", 4999, 12, 12, 18, 0.6},
		{"Titanium Mug", "MUG-TI", 2499, 9, 9, 11, 0.15},
	}
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (name, sku, price, images, category_id, stock, length, width, height, actual_weight, status)
			SELECT $1, $2, $3, '{}', c.id, 25, $4, $5, $6, $7, 'active'
			FROM categories c WHERE c.slug = 'outdoor'
			ON CONFLICT (sku) DO NOTHING`,
			p.name, p.sku, p.price, p.length, p.width, p.height, p.weight)
		if err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.sku, err)
		}
	}
	log.Println("Seeded catalog")
}

func seedShipping(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
		INSERT INTO shipping_carriers (name, is_active)
		SELECT 'DHL Express', TRUE
		WHERE NOT EXISTS (SELECT 1 FROM shipping_carriers WHERE name = 'DHL Express')`)
	if err != nil {
		log.Fatalf("Failed to seed carrier: %v", err)
	}

	bands := []struct {
		min, max float64
		price    int64
	}{
		{0, 5, 1299},
		{5.01, 10, 2499},
		{10.01, 20, 3999},
	}
	for _, b := range bands {
		_, err := pool.Exec(ctx, `
			INSERT INTO shipping_rates (carrier_id, weight_type, min_weight, max_weight, price)
			SELECT c.id, 'actual', $1, $2, $3
			FROM shipping_carriers c
			WHERE c.name = 'DHL Express'
			AND NOT EXISTS (
				SELECT 1 FROM shipping_rates r
				WHERE r.carrier_id = c.id AND r.min_weight = $1 AND r.max_weight = $2
			)`, b.min, b.max, b.price)
		if err != nil {
			log.Fatalf("Failed to seed rate band: %v", err)
		}
	}
	log.Println("Seeded shipping")
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
		INSERT INTO coupons (code, discount_type, discount_value, is_active)
		VALUES
			('SAVE10', 'percentage', 1000, TRUE),
			('WELCOME20', 'fixed', 2000, TRUE)
		ON CONFLICT (code) DO NOTHING`)
	if err != nil {
		log.Fatalf("Failed to seed coupons: %v", err)
	}
	log.Println("Seeded coupons")
}
