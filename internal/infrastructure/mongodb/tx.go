package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
	pkgmongo "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/mongodb"
)

// mongoTx runs every call on the session context handed to the closure, so
// reads come from the transaction snapshot and writes commit together
type mongoTx struct {
	s *Store
}

func (t *mongoTx) GetItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := t.s.inventory.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if pkgmongo.IsNoDocuments(err) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read item %s: %w", id, err)
	}
	return &item, nil
}

func (t *mongoTx) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := t.s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if pkgmongo.IsNoDocuments(err) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order %s: %w", id, err)
	}
	return &order, nil
}

func (t *mongoTx) SetItemQuantity(ctx context.Context, id string, quantity int, at time.Time) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	result, err := t.s.inventory.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"quantity": quantity, "updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to update quantity of %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (t *mongoTx) AppendHistory(ctx context.Context, entry *domain.HistoryEntry) error {
	if _, err := t.s.history.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append history for %s: %w", entry.ItemID, err)
	}
	return nil
}

func (t *mongoTx) CompleteOrder(ctx context.Context, id string, completedAt time.Time) error {
	result, err := t.s.orders.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": domain.OrderStatusCompleted}},
		bson.M{"$set": bson.M{"status": domain.OrderStatusCompleted, "completedAt": completedAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to complete order %s: %w", id, err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	if _, err := t.GetOrder(ctx, id); err != nil {
		return err
	}
	return domain.ErrOrderAlreadyCompleted
}

func (t *mongoTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	if _, err := t.s.orders.InsertOne(ctx, order); err != nil {
		if pkgmongo.IsDuplicateKey(err) {
			return domain.ErrDuplicateSale
		}
		return fmt.Errorf("failed to create order %s: %w", order.ID, err)
	}
	return nil
}

func (t *mongoTx) Publish(ctx context.Context, events ...domain.DomainEvent) error {
	return t.s.recorder.Record(ctx, events...)
}
