package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/flashmart/order-service/internal/domain"
)

const ledgerCollection = "inventory_ledgers"

// LedgerRepository persists inventory ledgers with a version-checked save.
// The version filter on the update is what turns concurrent writers into
// ErrVersionConflict instead of lost updates.
type LedgerRepository struct {
	collection *mongo.Collection
}

// NewLedgerRepository creates a LedgerRepository on db
func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	repo := &LedgerRepository{collection: db.Collection(ledgerCollection)}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *LedgerRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sku", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Insert creates the ledger row, failing if the SKU already has one
func (r *LedgerRepository) Insert(ctx context.Context, ledger *domain.InventoryLedger) error {
	if _, err := r.collection.InsertOne(ctx, ledger); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("ledger for %s already exists", ledger.SKU)
		}
		return fmt.Errorf("failed to insert ledger for %s: %w", ledger.SKU, err)
	}
	return nil
}

// Save writes the ledger only if the stored row still carries the version it
// was loaded with, bumping the version on success.
func (r *LedgerRepository) Save(ctx context.Context, ledger *domain.InventoryLedger) error {
	loadedVersion := ledger.Version
	now := time.Now().UTC()

	filter := bson.M{"sku": ledger.SKU, "version": loadedVersion}
	update := bson.M{"$set": bson.M{
		"actualQty":   ledger.ActualQty,
		"reservedQty": ledger.ReservedQty,
		"productName": ledger.ProductName,
		"version":     loadedVersion + 1,
		"updatedAt":   now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save ledger for %s: %w", ledger.SKU, err)
	}

	if result.MatchedCount == 0 {
		// Missing row and stale version both match nothing; distinguish them.
		count, err := r.collection.CountDocuments(ctx, bson.M{"sku": ledger.SKU})
		if err != nil {
			return fmt.Errorf("failed to check ledger for %s: %w", ledger.SKU, err)
		}
		if count == 0 {
			return fmt.Errorf("ledger for %s does not exist", ledger.SKU)
		}
		return domain.ErrVersionConflict
	}

	ledger.Version = loadedVersion + 1
	ledger.UpdatedAt = now
	return nil
}

// FindBySKU loads one ledger; (nil, nil) when the SKU has none
func (r *LedgerRepository) FindBySKU(ctx context.Context, sku string) (*domain.InventoryLedger, error) {
	var ledger domain.InventoryLedger
	err := r.collection.FindOne(ctx, bson.M{"sku": sku}).Decode(&ledger)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find ledger for %s: %w", sku, err)
	}
	return &ledger, nil
}
