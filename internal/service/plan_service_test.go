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

func newPlanFixture(t *testing.T) (PlanService, *memUserRepo, *memPlanRepo, *memAssignmentRepo, *memTokenRepo) {
	t.Helper()
	userRepo := newMemUserRepo()
	planRepo := newMemPlanRepo()
	assignmentRepo := newMemAssignmentRepo()
	tokenRepo := newMemTokenRepo()
	svc := NewPlanService(planRepo, assignmentRepo, tokenRepo, userRepo)
	return svc, userRepo, planRepo, assignmentRepo, tokenRepo
}

func seedTrainer(t *testing.T, userRepo *memUserRepo) primitive.ObjectID {
	t.Helper()
	id, err := userRepo.Create(context.Background(), &domain.User{
		Name:  "Personal",
		Email: "personal-" + primitive.NewObjectID().Hex() + "@test.local",
		Role:  domain.RoleTrainer,
	})
	require.NoError(t, err)
	return id
}

func TestCreatePlanValidation(t *testing.T) {
	svc, _, _, _, _ := newPlanFixture(t)

	cases := []struct {
		name string
		plan domain.Plan
	}{
		{"missing name", domain.Plan{DurationDays: 30, Kind: domain.PlanPaid}},
		{"negative limit", domain.Plan{Name: "x", StudentLimit: -1, DurationDays: 30, Kind: domain.PlanPaid}},
		{"negative price", domain.Plan{Name: "x", Price: -1, DurationDays: 30, Kind: domain.PlanPaid}},
		{"zero duration", domain.Plan{Name: "x", Kind: domain.PlanPaid}},
		{"bad kind", domain.Plan{Name: "x", DurationDays: 30, Kind: "trial"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePlan(context.Background(), &tc.plan)
			appErr, ok := domain.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, 400, appErr.Status)
		})
	}
}

func TestCreatePlanDuplicateName(t *testing.T) {
	svc, _, _, _, _ := newPlanFixture(t)

	plan := domain.Plan{Name: "Básico", DurationDays: 30, Kind: domain.PlanPaid, Active: true}
	_, err := svc.CreatePlan(context.Background(), &plan)
	require.NoError(t, err)

	clone := domain.Plan{Name: "Básico", DurationDays: 60, Kind: domain.PlanPaid, Active: true}
	_, err = svc.CreatePlan(context.Background(), &clone)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)
}

func TestAssignPlanReplacesCurrent(t *testing.T) {
	svc, userRepo, planRepo, assignmentRepo, _ := newPlanFixture(t)
	adminID := primitive.NewObjectID()
	trainerID := seedTrainer(t, userRepo)

	oldPlan, err := svc.CreatePlan(context.Background(), &domain.Plan{
		Name: "Antigo", StudentLimit: 3, DurationDays: 30, Kind: domain.PlanPaid, Active: true,
	})
	require.NoError(t, err)
	newPlan, err := svc.CreatePlan(context.Background(), &domain.Plan{
		Name: "Novo", StudentLimit: 10, DurationDays: 90, Kind: domain.PlanPaid, Active: true,
	})
	require.NoError(t, err)

	_, err = svc.AssignPlan(context.Background(), adminID, trainerID, oldPlan.ID, "inicial")
	require.NoError(t, err)
	assignment, err := svc.AssignPlan(context.Background(), adminID, trainerID, newPlan.ID, "upgrade")
	require.NoError(t, err)
	require.NotNil(t, assignment.AssignedByAdminID)
	assert.Equal(t, adminID, *assignment.AssignedByAdminID)

	current, err := assignmentRepo.GetCurrentByTrainerID(context.Background(), trainerID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, newPlan.ID, current.PlanID)

	// Inactive plans cannot be assigned.
	require.NoError(t, planRepo.SetActive(context.Background(), oldPlan.ID, false))
	_, err = svc.AssignPlan(context.Background(), adminID, trainerID, oldPlan.ID, "downgrade")
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)
}

func TestAssignPlanRejectsNonTrainer(t *testing.T) {
	svc, userRepo, _, _, _ := newPlanFixture(t)
	adminID := primitive.NewObjectID()

	studentID := userRepo.addStudent(primitive.NewObjectID(), domain.StudentInactive)
	plan, err := svc.CreatePlan(context.Background(), &domain.Plan{
		Name: "Básico", DurationDays: 30, Kind: domain.PlanPaid, Active: true,
	})
	require.NoError(t, err)

	_, err = svc.AssignPlan(context.Background(), adminID, studentID, plan.ID, "")
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)
}

func TestGrantTokenValidation(t *testing.T) {
	svc, userRepo, _, _, tokenRepo := newPlanFixture(t)
	adminID := primitive.NewObjectID()
	trainerID := seedTrainer(t, userRepo)
	future := time.Now().AddDate(0, 1, 0)

	_, err := svc.GrantToken(context.Background(), adminID, trainerID, 0, future, "")
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Status)

	_, err = svc.GrantToken(context.Background(), adminID, trainerID, 2, time.Now().AddDate(0, 0, -1), "")
	_, ok = domain.AsAppError(err)
	require.True(t, ok)

	token, err := svc.GrantToken(context.Background(), adminID, trainerID, 2, future, "cortesia")
	require.NoError(t, err)
	assert.True(t, token.Active)
	assert.Equal(t, 2, token.Quantity)

	tokens, err := tokenRepo.GetByTrainerID(context.Background(), trainerID)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestGetTokenAndLedger(t *testing.T) {
	svc, userRepo, _, _, _ := newPlanFixture(t)
	adminID := primitive.NewObjectID()
	trainerID := seedTrainer(t, userRepo)

	granted, err := svc.GrantToken(context.Background(), adminID, trainerID, 3, time.Now().AddDate(0, 1, 0), "cortesia")
	require.NoError(t, err)

	token, err := svc.GetToken(context.Background(), granted.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, token.Quantity)
	assert.Equal(t, trainerID, token.TrainerID)

	_, err = svc.GetToken(context.Background(), primitive.NewObjectID())
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Status)

	ledger, err := svc.ListTokens(context.Background(), trainerID)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)

	ledger, err = svc.ListTokens(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, ledger)
	assert.NotNil(t, ledger)
}
