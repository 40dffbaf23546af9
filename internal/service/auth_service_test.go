package service

import (
	"context"
	"testing"
	"time"

	"gestorfit/personal-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (AuthService, *memUserRepo, *memPlanRepo, *memAssignmentRepo) {
	t.Helper()
	userRepo := newMemUserRepo()
	planRepo := newMemPlanRepo()
	assignmentRepo := newMemAssignmentRepo()
	svc := NewAuthService(userRepo, planRepo, assignmentRepo, "test-secret", time.Hour)
	return svc, userRepo, planRepo, assignmentRepo
}

func TestRegisterTrainerGetsFreeTier(t *testing.T) {
	svc, _, planRepo, assignmentRepo := newAuthFixture(t)

	freeID, err := planRepo.Create(context.Background(), &domain.Plan{
		Name:         "Gratuito",
		StudentLimit: 3,
		DurationDays: 365,
		Kind:         domain.PlanFree,
		Active:       true,
	})
	require.NoError(t, err)

	trainer, err := svc.Register(context.Background(), "Maria", "maria@test.local", "senha-segura", domain.RoleTrainer)
	require.NoError(t, err)
	assert.Empty(t, trainer.PasswordHash)

	current, err := assignmentRepo.GetCurrentByTrainerID(context.Background(), trainer.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, freeID, current.PlanID)
	assert.Nil(t, current.AssignedByAdminID)
}

func TestRegisterTrainerWithoutFreePlanStillSucceeds(t *testing.T) {
	svc, _, _, assignmentRepo := newAuthFixture(t)

	trainer, err := svc.Register(context.Background(), "Maria", "maria@test.local", "senha-segura", domain.RoleTrainer)
	require.NoError(t, err)

	_, err = assignmentRepo.GetCurrentByTrainerID(context.Background(), trainer.ID, time.Now())
	assert.Error(t, err)
}

func TestRegisterStudentGetsNoPlan(t *testing.T) {
	svc, _, planRepo, assignmentRepo := newAuthFixture(t)
	_, err := planRepo.Create(context.Background(), &domain.Plan{
		Name: "Gratuito", StudentLimit: 3, DurationDays: 365, Kind: domain.PlanFree, Active: true,
	})
	require.NoError(t, err)

	student, err := svc.Register(context.Background(), "José", "jose@test.local", "senha-segura", domain.RoleStudent)
	require.NoError(t, err)

	_, err = assignmentRepo.GetCurrentByTrainerID(context.Background(), student.ID, time.Now())
	assert.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), "Maria", "maria@test.local", "senha-segura", domain.RoleTrainer)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Outra", "maria@test.local", "senha-segura", domain.RoleTrainer)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), "Maria", "maria@test.local", "senha-segura", domain.RoleTrainer)
	require.NoError(t, err)

	token, user, err := svc.Login(context.Background(), "maria@test.local", "senha-segura")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, domain.RoleTrainer, user.Role)
	assert.Empty(t, user.PasswordHash)

	_, _, err = svc.Login(context.Background(), "maria@test.local", "senha-errada")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(context.Background(), "ninguem@test.local", "senha-segura")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
