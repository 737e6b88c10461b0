package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sawahraya/backend-beras/internal/catalog"
	"github.com/sawahraya/backend-beras/internal/pricing"
	"github.com/sawahraya/backend-beras/internal/store"
)

func money(v int64) *pricing.Money {
	m := pricing.Money(v)
	return &m
}

func riceCatalog() []catalog.Product {
	return []catalog.Product{
		{
			ID:             "beras-premium-jasmine",
			Name:           "Beras Premium Jasmine",
			Description:    "Beras wangi pulen, cocok untuk nasi sehari-hari.",
			BasePricePerKg: 200,
			HasTierPricing: true,
			Tier2to4Price:  money(190),
			Tier5to9Price:  money(180),
			Tier10UpPrice:  money(170),
		},
		{
			ID:             "beras-merah-organik",
			Name:           "Beras Merah Organik",
			Description:    "Beras merah tanpa pestisida dari petani lokal.",
			BasePricePerKg: 260,
			HasTierPricing: true,
			Tier5to9Price:  money(245),
			Tier10UpPrice:  money(230),
		},
		{
			ID:             "beras-ketan-putih",
			Name:           "Beras Ketan Putih",
			Description:    "Ketan putih untuk kue dan jajanan tradisional.",
			BasePricePerKg: 220,
		},
		{
			ID:             "beras-hitam",
			Name:           "Beras Hitam",
			Description:    "Beras hitam kaya antioksidan.",
			BasePricePerKg: 320,
			HasTierPricing: true,
			Tier2to4Price:  money(310),
		},
		{
			ID:             "beras-pandan-wangi",
			Name:           "Beras Pandan Wangi",
			Description:    "Aroma pandan alami, tekstur pulen.",
			BasePricePerKg: 240,
			HasTierPricing: true,
			Tier2to4Price:  money(232),
			Tier5to9Price:  money(224),
			Tier10UpPrice:  money(215),
		},
	}
}

func main() {
	dryRun := flag.Bool("dry-run", false, "seed into an in-memory store and report, without touching the database")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var target store.Store
	if *dryRun {
		target = store.NewMem()
	} else {
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			log.Fatal("DATABASE_URL is not set")
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			log.Fatalf("Failed to open DB: %v", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("Failed to ping DB: %v", err)
		}
		pg := store.NewPG(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		target = pg
	}

	svc := &catalog.Service{Store: target}
	seeded := 0
	for _, p := range riceCatalog() {
		if _, err := svc.Upsert(ctx, p); err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.ID, err)
		}
		seeded++
	}
	log.Printf("Seeded %d rice products", seeded)
}
