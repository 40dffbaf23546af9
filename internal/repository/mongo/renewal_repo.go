package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const renewalCollectionName = "solicitacoes_renovacao"

// renewalDoc is the raw stored shape: canonical fields plus the legacy
// aliases older documents still carry. Normalization into the canonical
// domain.RenewalRequest happens here, at the I/O edge, and nowhere else.
type renewalDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	TrainerID   *primitive.ObjectID  `bson:"personalId,omitempty"`
	PlanID      *primitive.ObjectID  `bson:"planoId,omitempty"`
	Status      string               `bson:"status"`
	Notes       string               `bson:"observacoes,omitempty"`
	PaymentLink string               `bson:"paymentLink,omitempty"`
	Proof       *domain.PaymentProof `bson:"proof,omitempty"`
	AdminID     *primitive.ObjectID  `bson:"adminId,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt,omitempty"`
	UpdatedAt   time.Time            `bson:"updatedAt,omitempty"`
	ProcessedAt *time.Time           `bson:"processedAt,omitempty"`

	// Legacy aliases
	LegacyTrainerID  *primitive.ObjectID `bson:"personalTrainerId,omitempty"`
	LegacyPlanID     *primitive.ObjectID `bson:"planIdRequested,omitempty"`
	LegacyProofURL   string              `bson:"paymentProofUrl,omitempty"`
	LegacyRequested  *time.Time          `bson:"requestedAt,omitempty"`
}

// toDomain resolves the dual shape into one canonical record.
func (d *renewalDoc) toDomain() (*domain.RenewalRequest, error) {
	status, ok := domain.NormalizeRenewalStatus(d.Status)
	if !ok {
		return nil, fmt.Errorf("renewal %s: unknown status %q", d.ID.Hex(), d.Status)
	}

	req := &domain.RenewalRequest{
		ID:          d.ID,
		PlanID:      d.PlanID,
		Status:      status,
		Notes:       d.Notes,
		PaymentLink: d.PaymentLink,
		Proof:       d.Proof,
		AdminID:     d.AdminID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		ProcessedAt: d.ProcessedAt,
	}

	switch {
	case d.TrainerID != nil:
		req.TrainerID = *d.TrainerID
	case d.LegacyTrainerID != nil:
		req.TrainerID = *d.LegacyTrainerID
	default:
		return nil, fmt.Errorf("renewal %s: missing trainer reference", d.ID.Hex())
	}

	if req.PlanID == nil && d.LegacyPlanID != nil {
		req.PlanID = d.LegacyPlanID
	}
	if req.Proof == nil && d.LegacyProofURL != "" {
		req.Proof = &domain.PaymentProof{Kind: domain.ProofLink, URL: d.LegacyProofURL}
	}
	if req.CreatedAt.IsZero() && d.LegacyRequested != nil {
		req.CreatedAt = *d.LegacyRequested
	}
	return req, nil
}

// fromDomain writes the canonical record plus the legacy aliases kept in sync
// for older consumers still reading the old field names.
func fromDomain(req *domain.RenewalRequest) bson.M {
	doc := bson.M{
		"personalId":        req.TrainerID,
		"personalTrainerId": req.TrainerID,
		"status":            req.Status,
		"createdAt":         req.CreatedAt,
		"requestedAt":       req.CreatedAt,
		"updatedAt":         req.UpdatedAt,
	}
	if req.PlanID != nil {
		doc["planoId"] = req.PlanID
		doc["planIdRequested"] = req.PlanID
	}
	if req.Notes != "" {
		doc["observacoes"] = req.Notes
	}
	if req.PaymentLink != "" {
		doc["paymentLink"] = req.PaymentLink
	}
	if req.Proof != nil {
		doc["proof"] = req.Proof
		if req.Proof.Kind == domain.ProofLink {
			doc["paymentProofUrl"] = req.Proof.URL
		}
	}
	if req.AdminID != nil {
		doc["adminId"] = req.AdminID
	}
	if req.ProcessedAt != nil {
		doc["processedAt"] = req.ProcessedAt
	}
	return doc
}

// mongoRenewalRepository implements repository.RenewalRepository using MongoDB.
type mongoRenewalRepository struct {
	collection *mongo.Collection
}

// NewMongoRenewalRepository creates a new instance of mongoRenewalRepository.
func NewMongoRenewalRepository(db *mongo.Database) repository.RenewalRepository {
	return &mongoRenewalRepository{
		collection: db.Collection(renewalCollectionName),
	}
}

// Create inserts a new renewal request.
func (r *mongoRenewalRepository) Create(ctx context.Context, request *domain.RenewalRequest) (primitive.ObjectID, error) {
	request.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now

	doc := fromDomain(request)
	doc["_id"] = request.ID

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return primitive.NilObjectID, err
	}
	return request.ID, nil
}

// GetByID retrieves one renewal request, normalizing legacy fields.
func (r *mongoRenewalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.RenewalRequest, error) {
	var doc renewalDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain()
}

// Update replaces the request document, keeping legacy aliases in sync.
func (r *mongoRenewalRepository) Update(ctx context.Context, request *domain.RenewalRequest) error {
	request.UpdatedAt = time.Now().UTC()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": request.ID},
		bson.M{"$set": fromDomain(request)},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByTrainerID returns a trainer's requests, newest first. The filter
// matches either field name so legacy documents are not lost.
func (r *mongoRenewalRepository) ListByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.RenewalRequest, error) {
	filter := bson.M{"$or": []bson.M{
		{"personalId": trainerID},
		{"personalTrainerId": trainerID},
	}}
	return r.list(ctx, filter)
}

// ListByStatus returns requests in the given canonical status, including
// documents stored under the legacy uppercase alias.
func (r *mongoRenewalRepository) ListByStatus(ctx context.Context, status domain.RenewalStatus) ([]domain.RenewalRequest, error) {
	aliases := []string{string(status)}
	switch status {
	case domain.RenewalPending:
		aliases = append(aliases, "PENDING")
	case domain.RenewalApproved:
		aliases = append(aliases, "APPROVED", "FULFILLED")
	case domain.RenewalRejected:
		aliases = append(aliases, "REJECTED")
	}
	return r.list(ctx, bson.M{"status": bson.M{"$in": aliases}})
}

func (r *mongoRenewalRepository) list(ctx context.Context, filter bson.M) ([]domain.RenewalRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []domain.RenewalRequest
	for cursor.Next(ctx) {
		var doc renewalDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		req, err := doc.toDomain()
		if err != nil {
			// Skip unreadable legacy documents rather than failing the list.
			continue
		}
		requests = append(requests, *req)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// EnsureRenewalIndexes creates necessary indexes for renewal requests.
func EnsureRenewalIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "personalId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
