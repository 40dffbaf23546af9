package repository

import (
	"context"
	"time"

	"gestorfit/personal-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetStudentsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	CountActiveStudents(ctx context.Context, trainerID primitive.ObjectID) (int64, error)
	SetStudentStatus(ctx context.Context, studentID, trainerID primitive.ObjectID, status domain.StudentStatus) error
}

// PlanRepository defines the interface for the admin-managed plan catalog.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	List(ctx context.Context, onlyActive bool) ([]domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan) error
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) error
	// FindActiveFree returns an active free-tier plan, used for the automatic
	// grant on trainer registration.
	FindActiveFree(ctx context.Context) (*domain.Plan, error)
}

// PlanAssignmentRepository manages trainer/plan bindings.
type PlanAssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.PlanAssignment) (primitive.ObjectID, error)
	// GetCurrentByTrainerID returns the trainer's active, unexpired assignment.
	// If several qualify, the one with the latest expiry date wins.
	GetCurrentByTrainerID(ctx context.Context, trainerID primitive.ObjectID, now time.Time) (*domain.PlanAssignment, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.PlanAssignment, error)
	// DeactivateCurrent clears the active flag on all of the trainer's
	// assignments, before a new one becomes current.
	DeactivateCurrent(ctx context.Context, trainerID primitive.ObjectID) error
	// ListCurrent returns every active, unexpired assignment in the system.
	ListCurrent(ctx context.Context, now time.Time) ([]domain.PlanAssignment, error)
	// FindExpiring returns active assignments whose expiry date falls in [from, to].
	FindExpiring(ctx context.Context, from, to time.Time) ([]domain.PlanAssignment, error)
}

// TokenRepository manages the supplementary slot-grant ledger.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.Token) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Token, error)
	// GetValidByTrainerID returns active tokens whose expiry is after now,
	// soonest-expiring first.
	GetValidByTrainerID(ctx context.Context, trainerID primitive.ObjectID, now time.Time) ([]domain.Token, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Token, error)
	ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error)
}

// TokenAssignmentRepository manages slot consumption records.
type TokenAssignmentRepository interface {
	// Create inserts the consumption record. Returns ErrDuplicate if the
	// student already has one (unique index on alunoId).
	Create(ctx context.Context, assignment *domain.TokenAssignment) (primitive.ObjectID, error)
	GetByStudentID(ctx context.Context, studentID primitive.ObjectID) (*domain.TokenAssignment, error)
	// DeleteByStudentID frees the student's slot. No-op if none exists.
	DeleteByStudentID(ctx context.Context, studentID primitive.ObjectID) error
	// CountTokenConsumed counts avulso assignments referencing any of the
	// given tokens.
	CountTokenConsumed(ctx context.Context, tokenIDs []primitive.ObjectID) (int64, error)
	ListByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TokenAssignment, error)
}

// LegacyTokenRepository reads the pre-migration token collection.
type LegacyTokenRepository interface {
	ListAll(ctx context.Context) ([]domain.LegacyToken, error)
}

// RenewalRepository manages renewal requests.
type RenewalRepository interface {
	Create(ctx context.Context, request *domain.RenewalRequest) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.RenewalRequest, error)
	Update(ctx context.Context, request *domain.RenewalRequest) error
	ListByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.RenewalRequest, error)
	ListByStatus(ctx context.Context, status domain.RenewalStatus) ([]domain.RenewalRequest, error)
}

// NotificationRepository persists fire-and-forget notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) (primitive.ObjectID, error)
	ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID) error
}
