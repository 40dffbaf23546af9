package service

import (
	"context"
	"testing"
	"time"

	"gestorfit/personal-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type migrationFixture struct {
	svc             *migrationService
	legacyRepo      *memLegacyRepo
	tokenRepo       *memTokenRepo
	assignmentRepo  *memAssignmentRepo
	consumptionRepo *memConsumptionRepo
	userRepo        *memUserRepo
	now             time.Time
}

func newMigrationFixture(t *testing.T) *migrationFixture {
	t.Helper()
	f := &migrationFixture{
		legacyRepo:      &memLegacyRepo{},
		tokenRepo:       newMemTokenRepo(),
		assignmentRepo:  newMemAssignmentRepo(),
		consumptionRepo: newMemConsumptionRepo(),
		userRepo:        newMemUserRepo(),
		now:             time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	svc := NewMigrationService(f.legacyRepo, f.tokenRepo, f.assignmentRepo, f.consumptionRepo, f.userRepo)
	f.svc = svc.(*migrationService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func TestMigrationConvertsLegacyTokens(t *testing.T) {
	f := newMigrationFixture(t)
	trainerID := primitive.NewObjectID()

	f.legacyRepo.tokens = []domain.LegacyToken{
		{ID: primitive.NewObjectID(), TrainerID: trainerID, Quantity: 3, ExpiryDate: f.now.AddDate(0, 1, 0)},
		{ID: primitive.NewObjectID(), TrainerID: trainerID, Quantity: 2, ExpiryDate: f.now.AddDate(0, 0, -10)},
	}

	report, err := f.svc.RunCompleteMigration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.TokensMigrated)
	assert.Empty(t, report.TotalErrors)

	tokens, err := f.tokenRepo.GetByTrainerID(context.Background(), trainerID)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	for _, token := range tokens {
		assert.NotEmpty(t, token.LegacyID)
		// An already-lapsed legacy token is preserved but inactive.
		assert.Equal(t, token.ExpiryDate.After(f.now), token.Active)
	}
}

func TestMigrationSecondRunReportsZeros(t *testing.T) {
	f := newMigrationFixture(t)
	trainerID := primitive.NewObjectID()
	f.legacyRepo.tokens = []domain.LegacyToken{
		{ID: primitive.NewObjectID(), TrainerID: trainerID, Quantity: 1, ExpiryDate: f.now.AddDate(0, 1, 0)},
	}

	first, err := f.svc.RunCompleteMigration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.TokensMigrated)

	second, err := f.svc.RunCompleteMigration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.TokensMigrated)
	assert.Equal(t, 0, second.PlanTokensGenerated)
	assert.Empty(t, second.TotalErrors)
}

func TestMigrationCollectsPerRecordErrors(t *testing.T) {
	f := newMigrationFixture(t)
	trainerID := primitive.NewObjectID()
	f.legacyRepo.tokens = []domain.LegacyToken{
		{ID: primitive.NewObjectID(), TrainerID: trainerID, Quantity: 1}, // zero expiry, unconvertible
		{ID: primitive.NewObjectID(), TrainerID: trainerID, Quantity: 1, ExpiryDate: f.now.AddDate(0, 1, 0)},
	}

	report, err := f.svc.RunCompleteMigration(context.Background())
	require.NoError(t, err)
	// The bad record does not abort the run.
	assert.Equal(t, 1, report.TokensMigrated)
	require.Len(t, report.TotalErrors, 1)
	assert.Contains(t, report.TotalErrors[0], "sem data de validade")
}

func TestMigrationStudentBoundTokenCreatesConsumption(t *testing.T) {
	f := newMigrationFixture(t)
	trainerID := primitive.NewObjectID()
	studentID := primitive.NewObjectID()
	f.legacyRepo.tokens = []domain.LegacyToken{
		{ID: primitive.NewObjectID(), TrainerID: trainerID, StudentID: &studentID, Quantity: 1, ExpiryDate: f.now.AddDate(0, 1, 0)},
	}

	report, err := f.svc.RunCompleteMigration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.TokensMigrated)

	record, err := f.consumptionRepo.GetByStudentID(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceToken, record.Type)
	assert.Equal(t, trainerID, record.TrainerID)
	require.NotNil(t, record.TokenID)
}

func TestMigrationDefaultsQuantityToOne(t *testing.T) {
	f := newMigrationFixture(t)
	trainerID := primitive.NewObjectID()
	f.legacyRepo.tokens = []domain.LegacyToken{
		{ID: primitive.NewObjectID(), TrainerID: trainerID, ExpiryDate: f.now.AddDate(0, 1, 0)}, // quantity 0
	}

	_, err := f.svc.RunCompleteMigration(context.Background())
	require.NoError(t, err)

	tokens, err := f.tokenRepo.GetByTrainerID(context.Background(), trainerID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, 1, tokens[0].Quantity)
}

func TestMigrationGeneratesPlanConsumptionRecords(t *testing.T) {
	f := newMigrationFixture(t)
	trainerID := primitive.NewObjectID()

	active := f.userRepo.addStudent(trainerID, domain.StudentActive)
	f.userRepo.addStudent(trainerID, domain.StudentInactive)

	assignment := &domain.PlanAssignment{
		TrainerID:  trainerID,
		PlanID:     primitive.NewObjectID(),
		StartDate:  f.now.AddDate(0, 0, -10),
		ExpiryDate: f.now.AddDate(0, 0, 20),
		Active:     true,
	}
	_, err := f.assignmentRepo.Create(context.Background(), assignment)
	require.NoError(t, err)

	report, err := f.svc.RunCompleteMigration(context.Background())
	require.NoError(t, err)
	// Only the active student gets a plan slot record.
	assert.Equal(t, 1, report.PlanTokensGenerated)

	record, err := f.consumptionRepo.GetByStudentID(context.Background(), active)
	require.NoError(t, err)
	assert.Equal(t, domain.SourcePlan, record.Type)
	assert.Equal(t, assignment.ExpiryDate, record.ValidUntil)

	// Re-run: the record already exists, nothing new is generated.
	report, err = f.svc.RunCompleteMigration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.PlanTokensGenerated)
}
