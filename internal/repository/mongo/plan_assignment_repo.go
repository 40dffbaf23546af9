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

const planAssignmentCollectionName = "planos_personal"

// mongoPlanAssignmentRepository implements repository.PlanAssignmentRepository using MongoDB.
type mongoPlanAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanAssignmentRepository creates a new instance of mongoPlanAssignmentRepository.
func NewMongoPlanAssignmentRepository(db *mongo.Database) repository.PlanAssignmentRepository {
	return &mongoPlanAssignmentRepository{
		collection: db.Collection(planAssignmentCollectionName),
	}
}

// Create inserts a new plan assignment.
func (r *mongoPlanAssignmentRepository) Create(ctx context.Context, assignment *domain.PlanAssignment) (primitive.ObjectID, error) {
	if !assignment.ExpiryDate.After(assignment.StartDate) {
		return primitive.NilObjectID, errors.New("assignment expiry date must be after start date")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetCurrentByTrainerID returns the trainer's active, unexpired assignment.
// Sorting by dataVencimento descending makes the latest expiry win when more
// than one qualifies (should not normally occur).
func (r *mongoPlanAssignmentRepository) GetCurrentByTrainerID(ctx context.Context, trainerID primitive.ObjectID, now time.Time) (*domain.PlanAssignment, error) {
	filter := bson.M{
		"personalId":     trainerID,
		"ativo":          true,
		"dataVencimento": bson.M{"$gt": now},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "dataVencimento", Value: -1}})

	var assignment domain.PlanAssignment
	err := r.collection.FindOne(ctx, filter, opts).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByTrainerID returns the trainer's full assignment history, newest first.
func (r *mongoPlanAssignmentRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.PlanAssignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dataInicio", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"personalId": trainerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []domain.PlanAssignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// DeactivateCurrent clears the active flag on all of the trainer's assignments.
func (r *mongoPlanAssignmentRepository) DeactivateCurrent(ctx context.Context, trainerID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"personalId": trainerID, "ativo": true},
		bson.M{"$set": bson.M{"ativo": false, "updatedAt": time.Now().UTC()}},
	)
	return err
}

// ListCurrent returns every active, unexpired assignment in the system.
func (r *mongoPlanAssignmentRepository) ListCurrent(ctx context.Context, now time.Time) ([]domain.PlanAssignment, error) {
	filter := bson.M{
		"ativo":          true,
		"dataVencimento": bson.M{"$gt": now},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []domain.PlanAssignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// FindExpiring returns active assignments expiring within [from, to].
// Used by the expiry notifier sweep.
func (r *mongoPlanAssignmentRepository) FindExpiring(ctx context.Context, from, to time.Time) ([]domain.PlanAssignment, error) {
	filter := bson.M{
		"ativo":          true,
		"dataVencimento": bson.M{"$gte": from, "$lte": to},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []domain.PlanAssignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// EnsurePlanAssignmentIndexes creates necessary indexes for plan assignments.
func EnsurePlanAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "personalId", Value: 1}, {Key: "ativo", Value: 1}, {Key: "dataVencimento", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "ativo", Value: 1}, {Key: "dataVencimento", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
