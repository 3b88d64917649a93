package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
	pkgmongo "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/mongodb"
)

// OrderRepository implements domain.OrderRepository
type OrderRepository struct {
	orders *mongo.Collection
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if _, err := r.orders.InsertOne(ctx, order); err != nil {
		if pkgmongo.IsDuplicateKey(err) {
			return domain.ErrDuplicateSale
		}
		return fmt.Errorf("failed to insert order %s: %w", order.ID, err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if pkgmongo.IsNoDocuments(err) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order %s: %w", id, err)
	}
	return &order, nil
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]*domain.Order, error) {
	cursor, err := r.orders.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) FindByStatus(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error) {
	filter := bson.M{}
	if status != nil {
		filter["status"] = *status
	}
	return r.find(ctx, filter, append(pkgmongo.SortDescending("timestamp"), bson.E{Key: "_id", Value: 1}))
}

func (r *OrderRepository) FindCompletedInRange(ctx context.Context, start, end time.Time) ([]*domain.Order, error) {
	filter := bson.M{
		"status":      domain.OrderStatusCompleted,
		"completedAt": bson.M{"$gte": start, "$lt": end},
	}
	return r.find(ctx, filter, pkgmongo.SortAscending("completedAt"))
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	result, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	if result.MatchedCount == 1 {
		return nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrInvalidStatusChange
}

// DeleteOpen removes the order only while it is not completed
func (r *OrderRepository) DeleteOpen(ctx context.Context, id string) error {
	result, err := r.orders.DeleteOne(ctx, bson.M{
		"_id":    id,
		"status": bson.M{"$ne": domain.OrderStatusCompleted},
	})
	if err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	if result.DeletedCount == 1 {
		return nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrOrderAlreadyCompleted
}

func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.orders.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}
