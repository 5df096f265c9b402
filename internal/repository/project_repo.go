package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"albaranes-api/internal/domain"
)

// ProjectRepository persiste proyectos con el mismo filtrado por propietario
// que ClientRepository.
type ProjectRepository interface {
	Create(ctx context.Context, project domain.Project) error
	GetByID(ctx context.Context, id, userID string) (domain.Project, error)
	ListByUser(ctx context.Context, userID string, archived bool) ([]domain.Project, error)
	UpdateFields(ctx context.Context, id, userID string, fields map[string]any) error
	Delete(ctx context.Context, id, userID string) error
}

type MongoProjectRepository struct {
	col *mongo.Collection
}

func NewMongoProjectRepository(database *mongo.Database) *MongoProjectRepository {
	return &MongoProjectRepository{col: database.Collection("projects")}
}

func (r *MongoProjectRepository) Create(ctx context.Context, project domain.Project) error {
	_, err := r.col.InsertOne(ctx, project)
	return mapMongoError(err)
}

func (r *MongoProjectRepository) GetByID(ctx context.Context, id, userID string) (domain.Project, error) {
	var project domain.Project
	err := r.col.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&project)
	return project, mapMongoError(err)
}

func (r *MongoProjectRepository) ListByUser(ctx context.Context, userID string, archived bool) ([]domain.Project, error) {
	cur, err := r.col.Find(ctx, bson.M{"userId": userID, "archived": archived})
	if err != nil {
		return nil, mapMongoError(err)
	}
	defer cur.Close(ctx)

	var projects []domain.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *MongoProjectRepository) UpdateFields(ctx context.Context, id, userID string, fields map[string]any) error {
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

func (r *MongoProjectRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
