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

const orderCollection = "orders"

// OrderRepository persists orders with their items embedded, under the same
// version-checked save discipline as the ledgers.
type OrderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository creates an OrderRepository on db
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	repo := &OrderRepository{collection: db.Collection(orderCollection)}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *OrderRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Insert creates the order row with its items
func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("order %s already exists", order.OrderID)
		}
		return fmt.Errorf("failed to insert order %s: %w", order.OrderID, err)
	}
	return nil
}

// Save writes the order only if the stored row still carries the loaded
// version, bumping it on success.
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	loadedVersion := order.Version
	now := time.Now().UTC()

	filter := bson.M{"orderId": order.OrderID, "version": loadedVersion}
	update := bson.M{"$set": bson.M{
		"status":           order.Status,
		"paymentReference": order.PaymentReference,
		"version":          loadedVersion + 1,
		"updatedAt":        now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.OrderID, err)
	}

	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"orderId": order.OrderID})
		if err != nil {
			return fmt.Errorf("failed to check order %s: %w", order.OrderID, err)
		}
		if count == 0 {
			return fmt.Errorf("order %s does not exist", order.OrderID)
		}
		return domain.ErrVersionConflict
	}

	order.Version = loadedVersion + 1
	order.UpdatedAt = now
	return nil
}

// FindByID loads one order with its items; (nil, nil) when absent
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find order %s: %w", orderID, err)
	}
	return &order, nil
}

// FindByUserID lists a user's orders, newest first
func (r *OrderRepository) FindByUserID(ctx context.Context, userID string, pagination domain.Pagination) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"userId": userID}, pagination)
}

// FindByStatus lists orders in one lifecycle state, newest first
func (r *OrderRepository) FindByStatus(ctx context.Context, status domain.Status, pagination domain.Pagination) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"status": status}, pagination)
}

// CountByUserID counts all of a user's orders
func (r *OrderRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, bson.M{"userId": userID})
}

// CountByStatus counts orders in one lifecycle state
func (r *OrderRepository) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	return r.count(ctx, bson.M{"status": status})
}

func (r *OrderRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M, pagination domain.Pagination) ([]*domain.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}
