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

const tokenAssignmentCollectionName = "token_assignments"

// mongoTokenAssignmentRepository implements repository.TokenAssignmentRepository using MongoDB.
type mongoTokenAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoTokenAssignmentRepository creates a new instance of mongoTokenAssignmentRepository.
func NewMongoTokenAssignmentRepository(db *mongo.Database) repository.TokenAssignmentRepository {
	return &mongoTokenAssignmentRepository{
		collection: db.Collection(tokenAssignmentCollectionName),
	}
}

// Create inserts the consumption record. The unique index on alunoId turns a
// concurrent double-activation of the same student into ErrDuplicate.
func (r *mongoTokenAssignmentRepository) Create(ctx context.Context, assignment *domain.TokenAssignment) (primitive.ObjectID, error) {
	assignment.ID = primitive.NewObjectID()
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, assignment)
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

// GetByStudentID retrieves the consumption record for one student.
func (r *mongoTokenAssignmentRepository) GetByStudentID(ctx context.Context, studentID primitive.ObjectID) (*domain.TokenAssignment, error) {
	var assignment domain.TokenAssignment
	err := r.collection.FindOne(ctx, bson.M{"alunoId": studentID}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// DeleteByStudentID frees the student's slot. Deleting a non-existent record
// is a no-op, which makes slot release idempotent.
func (r *mongoTokenAssignmentRepository) DeleteByStudentID(ctx context.Context, studentID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"alunoId": studentID})
	return err
}

// CountTokenConsumed counts avulso assignments referencing any of the given tokens.
func (r *mongoTokenAssignmentRepository) CountTokenConsumed(ctx context.Context, tokenIDs []primitive.ObjectID) (int64, error) {
	if len(tokenIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{
		"tipo":    domain.SourceToken,
		"tokenId": bson.M{"$in": tokenIDs},
	}
	return r.collection.CountDocuments(ctx, filter)
}

// ListByTrainerID returns all consumption records of a trainer.
func (r *mongoTokenAssignmentRepository) ListByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TokenAssignment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"personalId": trainerID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []domain.TokenAssignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// EnsureTokenAssignmentIndexes creates necessary indexes for consumption records.
func EnsureTokenAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One consumption record per student, enforced by the store.
			Keys:    bson.D{{Key: "alunoId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "personalId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "tokenId", Value: 1}, {Key: "tipo", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
