package mongo

import (
	"context"
	"errors"
	"time"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	tokenCollectionName       = "tokens"
	legacyTokenCollectionName = "tokens_legado"
)

// mongoTokenRepository implements repository.TokenRepository using MongoDB.
type mongoTokenRepository struct {
	collection *mongo.Collection
}

// NewMongoTokenRepository creates a new instance of mongoTokenRepository.
func NewMongoTokenRepository(db *mongo.Database) repository.TokenRepository {
	return &mongoTokenRepository{
		collection: db.Collection(tokenCollectionName),
	}
}

// Create inserts a new token ledger entry.
func (r *mongoTokenRepository) Create(ctx context.Context, token *domain.Token) (primitive.ObjectID, error) {
	if token.Quantity < 1 {
		return primitive.NilObjectID, errors.New("token quantity must be at least 1")
	}

	token.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	token.CreatedAt = now
	token.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, token)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a token by its ObjectID.
func (r *mongoTokenRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Token, error) {
	var token domain.Token
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&token)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// GetValidByTrainerID returns active, unexpired tokens for a trainer,
// soonest-expiring first so consumption drains them in expiry order.
func (r *mongoTokenRepository) GetValidByTrainerID(ctx context.Context, trainerID primitive.ObjectID, now time.Time) ([]domain.Token, error) {
	filter := bson.M{
		"personalId":     trainerID,
		"ativo":          true,
		"dataVencimento": bson.M{"$gt": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "dataVencimento", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tokens []domain.Token
	if err = cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// GetByTrainerID returns every token of a trainer regardless of validity.
func (r *mongoTokenRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Token, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"personalId": trainerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tokens []domain.Token
	if err = cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// ExistsByLegacyID reports whether a legacy record was already migrated.
func (r *mongoTokenRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"legadoId": legacyID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureTokenIndexes creates necessary indexes for the token ledger.
func EnsureTokenIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "personalId", Value: 1}, {Key: "ativo", Value: 1}, {Key: "dataVencimento", Value: 1}},
			Options: options.Index(),
		},
		{
			// Sparse unique: only migrated tokens carry legadoId, and each
			// legacy record converts at most once.
			Keys:    bson.D{{Key: "legadoId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}

// mongoLegacyTokenRepository reads the pre-migration token collection.
type mongoLegacyTokenRepository struct {
	collection *mongo.Collection
}

// NewMongoLegacyTokenRepository creates a reader over the legacy collection.
func NewMongoLegacyTokenRepository(db *mongo.Database) repository.LegacyTokenRepository {
	return &mongoLegacyTokenRepository{
		collection: db.Collection(legacyTokenCollectionName),
	}
}

// ListAll returns every legacy token document.
func (r *mongoLegacyTokenRepository) ListAll(ctx context.Context) ([]domain.LegacyToken, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tokens []domain.LegacyToken
	if err = cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}
