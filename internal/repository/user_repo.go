package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"albaranes-api/internal/domain"
)

// UserRepository define el contrato de persistencia para cuentas.
// Las lecturas normales excluyen los campos de secretos; las variantes
// WithSecrets los incluyen para los flujos que comparan hashes.
type UserRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByIDWithSecrets(ctx context.Context, id string) (domain.Account, error)
	GetByEmailWithSecrets(ctx context.Context, email string) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// Campos que nunca se proyectan por defecto.
var secretFields = []string{
	"passwordHash",
	"emailVerificationCodeHash",
	"emailVerificationCodeSentAt",
	"inviteTokenHash",
	"inviteSentAt",
	"passwordRecoveryCodeHash",
	"passwordRecoveryCodeSentAt",
}

// MongoUserRepository implementa UserRepository sobre una colección de Mongo.
type MongoUserRepository struct {
	col *mongo.Collection
}

func NewMongoUserRepository(database *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{col: database.Collection("users")}
}

func withoutSecrets() *options.FindOneOptions {
	projection := bson.M{}
	for _, field := range secretFields {
		projection[field] = 0
	}
	return options.FindOne().SetProjection(projection)
}

func (r *MongoUserRepository) Create(ctx context.Context, account domain.Account) error {
	_, err := r.col.InsertOne(ctx, account)
	return mapMongoError(err)
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	var account domain.Account
	err := r.col.FindOne(ctx, bson.M{"_id": id}, withoutSecrets()).Decode(&account)
	return account, mapMongoError(err)
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	var account domain.Account
	err := r.col.FindOne(ctx, bson.M{"email": email}, withoutSecrets()).Decode(&account)
	return account, mapMongoError(err)
}

func (r *MongoUserRepository) GetByIDWithSecrets(ctx context.Context, id string) (domain.Account, error) {
	var account domain.Account
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	return account, mapMongoError(err)
}

func (r *MongoUserRepository) GetByEmailWithSecrets(ctx context.Context, email string) (domain.Account, error) {
	var account domain.Account
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&account)
	return account, mapMongoError(err)
}

func (r *MongoUserRepository) List(ctx context.Context) ([]domain.Account, error) {
	projection := bson.M{}
	for _, field := range secretFields {
		projection[field] = 0
	}
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, mapMongoError(err)
	}
	defer cur.Close(ctx)

	var accounts []domain.Account
	if err := cur.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// UpdateFields aplica un $set atómico sobre el documento y refresca updatedAt.
func (r *MongoUserRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return mapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
