package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"albaranes-api/internal/domain"
)

// StorageRepository persiste referencias a archivos subidos al gateway.
type StorageRepository interface {
	Create(ctx context.Context, item domain.StorageItem) error
	GetByID(ctx context.Context, id string) (domain.StorageItem, error)
	List(ctx context.Context) ([]domain.StorageItem, error)
	UpdateURL(ctx context.Context, id, url string) error
	Delete(ctx context.Context, id string) error
}

type MongoStorageRepository struct {
	col *mongo.Collection
}

func NewMongoStorageRepository(database *mongo.Database) *MongoStorageRepository {
	return &MongoStorageRepository{col: database.Collection("storage")}
}

func (r *MongoStorageRepository) Create(ctx context.Context, item domain.StorageItem) error {
	_, err := r.col.InsertOne(ctx, item)
	return mapMongoError(err)
}

func (r *MongoStorageRepository) GetByID(ctx context.Context, id string) (domain.StorageItem, error) {
	var item domain.StorageItem
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	return item, mapMongoError(err)
}

func (r *MongoStorageRepository) List(ctx context.Context) ([]domain.StorageItem, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, mapMongoError(err)
	}
	defer cur.Close(ctx)

	var items []domain.StorageItem
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoStorageRepository) UpdateURL(ctx context.Context, id, url string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"url": url, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return mapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoStorageRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
