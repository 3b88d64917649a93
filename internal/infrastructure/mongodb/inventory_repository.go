package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
	pkgmongo "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/mongodb"
)

// InventoryRepository implements domain.InventoryRepository
type InventoryRepository struct {
	items   *mongo.Collection
	history *mongo.Collection
}

// Upsert merges the supplied fields; fields left nil keep their stored value
// and default to zero on insert
func (r *InventoryRepository) Upsert(ctx context.Context, id string, fields domain.ItemFields) (*domain.InventoryItem, error) {
	zeroMoney := domain.ZeroMoney(domain.DefaultCurrency)
	set := bson.M{}
	onInsert := bson.M{
		"name":          "",
		"quantity":      0,
		"minStockAlert": 0,
		"purchasePrice": zeroMoney,
		"salePrice":     zeroMoney,
	}

	if fields.Name != nil {
		set["name"] = *fields.Name
		delete(onInsert, "name")
	}
	if fields.Quantity != nil {
		set["quantity"] = *fields.Quantity
		delete(onInsert, "quantity")
	}
	if fields.MinStockAlert != nil {
		set["minStockAlert"] = *fields.MinStockAlert
		delete(onInsert, "minStockAlert")
	}
	if fields.PurchasePrice != nil {
		set["purchasePrice"] = *fields.PurchasePrice
		delete(onInsert, "purchasePrice")
	}
	if fields.SalePrice != nil {
		set["salePrice"] = *fields.SalePrice
		delete(onInsert, "salePrice")
	}

	update := pkgmongo.BuildUpdateWithTimestamp(set)
	if len(onInsert) > 0 {
		update["$setOnInsert"] = onInsert
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var item domain.InventoryItem
	if err := r.items.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to save inventory item %s: %w", id, err)
	}
	return &item, nil
}

func (r *InventoryRepository) FindByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := r.items.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if pkgmongo.IsNoDocuments(err) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory item %s: %w", id, err)
	}
	return &item, nil
}

// FindAll sorts by name under a case-insensitive collation
func (r *InventoryRepository) FindAll(ctx context.Context) ([]*domain.InventoryItem, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetCollation(&options.Collation{Locale: "en", Strength: 2})

	cursor, err := r.items.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*domain.InventoryItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode inventory: %w", err)
	}
	return items, nil
}

// AppendHistory treats a duplicate entry id as an already applied write
func (r *InventoryRepository) AppendHistory(ctx context.Context, entry *domain.HistoryEntry) error {
	_, err := r.history.InsertOne(ctx, entry)
	if err != nil && !pkgmongo.IsDuplicateKey(err) {
		return fmt.Errorf("failed to append history for %s: %w", entry.ItemID, err)
	}
	return nil
}

func (r *InventoryRepository) FindHistory(ctx context.Context, itemID string) ([]*domain.HistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.history.Find(ctx, bson.M{"itemId": itemID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find history for %s: %w", itemID, err)
	}
	defer cursor.Close(ctx)

	entries := make([]*domain.HistoryEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return entries, nil
}

// DeleteHistoryPage deletes at most limit history entries of one item
func (r *InventoryRepository) DeleteHistoryPage(ctx context.Context, itemID string, limit int) (int, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetLimit(int64(limit))

	cursor, err := r.history.Find(ctx, bson.M{"itemId": itemID}, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to page history for %s: %w", itemID, err)
	}

	var page []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &page); err != nil {
		return 0, fmt.Errorf("failed to decode history page: %w", err)
	}
	if len(page) == 0 {
		return 0, nil
	}

	ids := make(bson.A, len(page))
	for i, p := range page {
		ids[i] = p.ID
	}
	result, err := r.history.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete history page for %s: %w", itemID, err)
	}
	return int(result.DeletedCount), nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.items.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete inventory item %s: %w", id, err)
	}
	return nil
}
