package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"albaranes-api/internal/domain"
)

// DeliveryNoteRepository persiste albaranes. DeleteUnsigned sólo borra si el
// albarán sigue sin firmar: el filtro condicional hace la comprobación
// atómica en el propio documento.
type DeliveryNoteRepository interface {
	Create(ctx context.Context, note domain.DeliveryNote) error
	GetByID(ctx context.Context, id, userID string) (domain.DeliveryNote, error)
	ListByUser(ctx context.Context, userID string) ([]domain.DeliveryNote, error)
	UpdateFields(ctx context.Context, id, userID string, fields map[string]any) error
	DeleteUnsigned(ctx context.Context, id, userID string) error
}

type MongoDeliveryNoteRepository struct {
	col *mongo.Collection
}

func NewMongoDeliveryNoteRepository(database *mongo.Database) *MongoDeliveryNoteRepository {
	return &MongoDeliveryNoteRepository{col: database.Collection("deliverynotes")}
}

func (r *MongoDeliveryNoteRepository) Create(ctx context.Context, note domain.DeliveryNote) error {
	_, err := r.col.InsertOne(ctx, note)
	return mapMongoError(err)
}

func (r *MongoDeliveryNoteRepository) GetByID(ctx context.Context, id, userID string) (domain.DeliveryNote, error) {
	var note domain.DeliveryNote
	err := r.col.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&note)
	return note, mapMongoError(err)
}

func (r *MongoDeliveryNoteRepository) ListByUser(ctx context.Context, userID string) ([]domain.DeliveryNote, error) {
	cur, err := r.col.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, mapMongoError(err)
	}
	defer cur.Close(ctx)

	var notes []domain.DeliveryNote
	if err := cur.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *MongoDeliveryNoteRepository) UpdateFields(ctx context.Context, id, userID string, fields map[string]any) error {
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

func (r *MongoDeliveryNoteRepository) DeleteUnsigned(ctx context.Context, id, userID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID, "isSigned": false})
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
