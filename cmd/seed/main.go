package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flashmart/order-service/internal/domain"
	mongoRepo "github.com/flashmart/order-service/internal/infrastructure/mongodb"
	"github.com/flashmart/order-service/pkg/mongodb"
)

// Catalog seeding tool: creates inventory ledgers with initial stock from a
// YAML file. Existing SKUs are left untouched.

var (
	mongoURI = flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName   = flag.String("db", "flashmart_orders", "Database name")
	file     = flag.String("file", "seed.yaml", "Seed file path")
	dryRun   = flag.Bool("dry-run", false, "Parse and report without writing")
)

type seedEntry struct {
	SKU         string `yaml:"sku"`
	ProductName string `yaml:"productName"`
	InitialQty  int    `yaml:"initialQty"`
}

type seedFile struct {
	Ledgers []seedEntry `yaml:"ledgers"`
}

func main() {
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read seed file %s: %v", *file, err)
	}

	var seeds seedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		log.Fatalf("Failed to parse seed file %s: %v", *file, err)
	}
	if len(seeds.Ledgers) == 0 {
		log.Fatalf("Seed file %s contains no ledgers", *file)
	}
	log.Printf("Loaded %d ledger entries from %s", len(seeds.Ledgers), *file)

	if *dryRun {
		for _, entry := range seeds.Ledgers {
			log.Printf("Would seed %s (%s) with %d units", entry.SKU, entry.ProductName, entry.InitialQty)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientConfig := mongodb.DefaultConfig()
	clientConfig.URI = *mongoURI
	clientConfig.Database = *dbName

	client, err := mongodb.NewClient(ctx, clientConfig)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Close(context.Background())
	log.Println("Connected to MongoDB")

	ledgers := mongoRepo.NewLedgerRepository(client.Database())

	created, skipped := 0, 0
	for _, entry := range seeds.Ledgers {
		existing, err := ledgers.FindBySKU(ctx, entry.SKU)
		if err != nil {
			log.Fatalf("Failed to check %s: %v", entry.SKU, err)
		}
		if existing != nil {
			log.Printf("Skipping %s, ledger already exists", entry.SKU)
			skipped++
			continue
		}

		ledger, err := domain.NewInventoryLedger(entry.SKU, entry.ProductName, entry.InitialQty)
		if err != nil {
			log.Fatalf("Invalid seed entry %s: %v", entry.SKU, err)
		}
		if err := ledgers.Insert(ctx, ledger); err != nil {
			log.Fatalf("Failed to seed %s: %v", entry.SKU, err)
		}
		log.Printf("Seeded %s with %d units", entry.SKU, entry.InitialQty)
		created++
	}

	log.Printf("Seeding complete: %d created, %d skipped", created, skipped)
}
