package service

import (
	"context"
	"errors"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// StudentService manages a trainer's roster. Activation and deactivation are
// the mutations the slot evaluator gates.
type StudentService interface {
	AddStudent(ctx context.Context, trainerID primitive.ObjectID, name, email, password string) (*domain.User, error)
	ListStudents(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	ActivateStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.User, error)
	DeactivateStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.User, error)
}

type studentService struct {
	userRepo    repository.UserRepository
	entitlement EntitlementService
}

// NewStudentService creates a new instance of studentService.
func NewStudentService(userRepo repository.UserRepository, entitlement EntitlementService) StudentService {
	return &studentService{
		userRepo:    userRepo,
		entitlement: entitlement,
	}
}

// AddStudent registers a new student linked to the trainer. New students start
// inactive and occupy no slot until activated.
func (s *studentService) AddStudent(ctx context.Context, trainerID primitive.ObjectID, name, email, password string) (*domain.User, error) {
	if trainerID == primitive.NilObjectID {
		return nil, domain.ErrValidation("personal é obrigatório")
	}
	if name == "" || email == "" || password == "" {
		return nil, domain.ErrValidation("nome, email e senha são obrigatórios")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	student := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleStudent,
		TrainerID:    &trainerID,
		Status:       domain.StudentInactive,
	}

	studentID, err := s.userRepo.Create(ctx, student)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	student.ID = studentID
	student.PasswordHash = ""
	return student, nil
}

// ListStudents returns the trainer's roster.
func (s *studentService) ListStudents(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	students, err := s.userRepo.GetStudentsByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	for i := range students {
		students[i].PasswordHash = ""
	}
	return students, nil
}

// ActivateStudent consumes a slot for the student and flips their status.
// The slot check happens inside ConsumeSlot; SlotUnavailable and
// DuplicateAssignment surface unchanged to the handler.
func (s *studentService) ActivateStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.User, error) {
	student, err := s.ownedStudent(ctx, trainerID, studentID)
	if err != nil {
		return nil, err
	}
	if student.Status == domain.StudentActive {
		return student, nil
	}

	if _, err := s.entitlement.ConsumeSlot(ctx, trainerID, studentID, domain.SourcePlan); err != nil {
		return nil, err
	}

	if err := s.userRepo.SetStudentStatus(ctx, studentID, trainerID, domain.StudentActive); err != nil {
		// The slot was consumed but the flip failed; release it so the slot
		// is not stranded.
		_ = s.entitlement.ReleaseSlot(ctx, studentID)
		return nil, err
	}

	student.Status = domain.StudentActive
	return student, nil
}

// DeactivateStudent flips the status and releases the slot.
func (s *studentService) DeactivateStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.User, error) {
	student, err := s.ownedStudent(ctx, trainerID, studentID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetStudentStatus(ctx, studentID, trainerID, domain.StudentInactive); err != nil {
		return nil, err
	}
	if err := s.entitlement.ReleaseSlot(ctx, studentID); err != nil {
		return nil, err
	}

	student.Status = domain.StudentInactive
	return student, nil
}

// ownedStudent loads the student and verifies trainer ownership.
func (s *studentService) ownedStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.User, error) {
	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("aluno não encontrado")
		}
		return nil, err
	}
	if !student.IsStudent() || student.TrainerID == nil || *student.TrainerID != trainerID {
		return nil, domain.ErrNotFound("aluno não encontrado")
	}
	student.PasswordHash = ""
	return student, nil
}
