package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"albaranes-api/internal/domain"
)

// ClientRepository persiste clientes; todas las consultas filtran por el
// propietario, de modo que la propiedad se arbitra en la base de datos.
type ClientRepository interface {
	Create(ctx context.Context, client domain.Client) error
	GetByID(ctx context.Context, id, userID string) (domain.Client, error)
	ListByUser(ctx context.Context, userID string, archived bool) ([]domain.Client, error)
	UpdateFields(ctx context.Context, id, userID string, fields map[string]any) error
	Delete(ctx context.Context, id, userID string) error
}

type MongoClientRepository struct {
	col *mongo.Collection
}

func NewMongoClientRepository(database *mongo.Database) *MongoClientRepository {
	return &MongoClientRepository{col: database.Collection("clients")}
}

func (r *MongoClientRepository) Create(ctx context.Context, client domain.Client) error {
	_, err := r.col.InsertOne(ctx, client)
	return mapMongoError(err)
}

func (r *MongoClientRepository) GetByID(ctx context.Context, id, userID string) (domain.Client, error) {
	var client domain.Client
	err := r.col.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&client)
	return client, mapMongoError(err)
}

func (r *MongoClientRepository) ListByUser(ctx context.Context, userID string, archived bool) ([]domain.Client, error) {
	cur, err := r.col.Find(ctx, bson.M{"userId": userID, "archived": archived})
	if err != nil {
		return nil, mapMongoError(err)
	}
	defer cur.Close(ctx)

	var clients []domain.Client
	if err := cur.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *MongoClientRepository) UpdateFields(ctx context.Context, id, userID string, fields map[string]any) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, bson.M{"$set": set})
	if err != nil {
		return mapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoClientRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
