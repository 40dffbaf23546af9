package service

import (
	"context"
	"testing"

	"gestorfit/personal-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStudentFixture(t *testing.T) (*entitlementFixture, StudentService) {
	t.Helper()
	f := newEntitlementFixture(t)
	return f, NewStudentService(f.userRepo, f.svc)
}

func TestAddStudentStartsInactive(t *testing.T) {
	f, students := newStudentFixture(t)

	student, err := students.AddStudent(context.Background(), f.trainerID, "João", "joao@test.local", "senha-segura")
	require.NoError(t, err)
	assert.Equal(t, domain.StudentInactive, student.Status)
	assert.Equal(t, domain.RoleStudent, student.Role)
	require.NotNil(t, student.TrainerID)
	assert.Equal(t, f.trainerID, *student.TrainerID)
	assert.Empty(t, student.PasswordHash)

	// Registration alone occupies no slot.
	count, err := f.userRepo.CountActiveStudents(context.Background(), f.trainerID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAddStudentDuplicateEmail(t *testing.T) {
	f, students := newStudentFixture(t)

	_, err := students.AddStudent(context.Background(), f.trainerID, "João", "joao@test.local", "senha-segura")
	require.NoError(t, err)

	_, err = students.AddStudent(context.Background(), f.trainerID, "Outro", "joao@test.local", "senha-segura")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestActivateStudentConsumesSlot(t *testing.T) {
	f, students := newStudentFixture(t)
	f.givePlan(t, 1)

	studentID := f.userRepo.addStudent(f.trainerID, domain.StudentInactive)
	student, err := students.ActivateStudent(context.Background(), f.trainerID, studentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StudentActive, student.Status)

	record, err := f.consumptionRepo.GetByStudentID(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, domain.SourcePlan, record.Type)
}

func TestActivateStudentBeyondCapacity(t *testing.T) {
	f, students := newStudentFixture(t)
	f.givePlan(t, 1)
	f.activeStudents(t, 1)

	studentID := f.userRepo.addStudent(f.trainerID, domain.StudentInactive)
	_, err := students.ActivateStudent(context.Background(), f.trainerID, studentID)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 422, appErr.Status)

	// The student must remain inactive.
	student, err := f.userRepo.GetByID(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StudentInactive, student.Status)
}

func TestActivateStudentAlreadyActiveIsNoOp(t *testing.T) {
	f, students := newStudentFixture(t)
	f.givePlan(t, 1)

	studentID := f.userRepo.addStudent(f.trainerID, domain.StudentInactive)
	_, err := students.ActivateStudent(context.Background(), f.trainerID, studentID)
	require.NoError(t, err)

	// A second activation neither errors nor consumes another slot.
	student, err := students.ActivateStudent(context.Background(), f.trainerID, studentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StudentActive, student.Status)
}

func TestDeactivateStudentFreesSlot(t *testing.T) {
	f, students := newStudentFixture(t)
	f.givePlan(t, 1)

	studentID := f.userRepo.addStudent(f.trainerID, domain.StudentInactive)
	_, err := students.ActivateStudent(context.Background(), f.trainerID, studentID)
	require.NoError(t, err)

	student, err := students.DeactivateStudent(context.Background(), f.trainerID, studentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StudentInactive, student.Status)

	// The freed slot can go to another student.
	other := f.userRepo.addStudent(f.trainerID, domain.StudentInactive)
	_, err = students.ActivateStudent(context.Background(), f.trainerID, other)
	require.NoError(t, err)
}

func TestStudentOwnershipEnforced(t *testing.T) {
	f, students := newStudentFixture(t)
	f.givePlan(t, 5)

	foreign := f.userRepo.addStudent(primitive.NewObjectID(), domain.StudentInactive)
	_, err := students.ActivateStudent(context.Background(), f.trainerID, foreign)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Status)
}
