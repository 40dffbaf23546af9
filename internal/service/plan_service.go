package service

import (
	"context"
	"errors"
	"time"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanService owns the admin side of the entitlement data: the plan catalog,
// plan assignments and token grants.
type PlanService interface {
	CreatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, plan *domain.Plan) error
	SetPlanActive(ctx context.Context, planID primitive.ObjectID, active bool) error
	ListPlans(ctx context.Context, onlyActive bool) ([]domain.Plan, error)
	AssignPlan(ctx context.Context, adminID, trainerID, planID primitive.ObjectID, reason string) (*domain.PlanAssignment, error)
	GrantToken(ctx context.Context, adminID, trainerID primitive.ObjectID, quantity int, expiry time.Time, reason string) (*domain.Token, error)
	GetToken(ctx context.Context, tokenID primitive.ObjectID) (*domain.Token, error)
	ListTokens(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Token, error)
}

type planService struct {
	planRepo       repository.PlanRepository
	assignmentRepo repository.PlanAssignmentRepository
	tokenRepo      repository.TokenRepository
	userRepo       repository.UserRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	assignmentRepo repository.PlanAssignmentRepository,
	tokenRepo repository.TokenRepository,
	userRepo repository.UserRepository,
) PlanService {
	return &planService{
		planRepo:       planRepo,
		assignmentRepo: assignmentRepo,
		tokenRepo:      tokenRepo,
		userRepo:       userRepo,
	}
}

func validatePlan(plan *domain.Plan) error {
	switch {
	case plan.Name == "":
		return domain.ErrValidation("nome do plano é obrigatório")
	case plan.StudentLimit < 0:
		return domain.ErrValidation("limite de alunos não pode ser negativo")
	case plan.Price < 0:
		return domain.ErrValidation("preço não pode ser negativo")
	case plan.DurationDays < 1:
		return domain.ErrValidation("duração deve ser de pelo menos 1 dia")
	case plan.Kind != domain.PlanFree && plan.Kind != domain.PlanPaid:
		return domain.ErrValidation("tipo de plano inválido")
	}
	return nil
}

// CreatePlan adds a plan to the catalog.
func (s *planService) CreatePlan(ctx context.Context, plan *domain.Plan) (*domain.Plan, error) {
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrValidation("já existe um plano com este nome")
		}
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

// UpdatePlan edits a catalog entry.
func (s *planService) UpdatePlan(ctx context.Context, plan *domain.Plan) error {
	if err := validatePlan(plan); err != nil {
		return err
	}
	err := s.planRepo.Update(ctx, plan)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrNotFound("plano não encontrado")
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return domain.ErrValidation("já existe um plano com este nome")
	}
	return err
}

// SetPlanActive toggles the catalog flag.
func (s *planService) SetPlanActive(ctx context.Context, planID primitive.ObjectID, active bool) error {
	err := s.planRepo.SetActive(ctx, planID, active)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrNotFound("plano não encontrado")
	}
	return err
}

// ListPlans returns the catalog.
func (s *planService) ListPlans(ctx context.Context, onlyActive bool) ([]domain.Plan, error) {
	return s.planRepo.List(ctx, onlyActive)
}

// AssignPlan binds a trainer to a plan starting now, deactivating whatever
// assignment was current before.
func (s *planService) AssignPlan(ctx context.Context, adminID, trainerID, planID primitive.ObjectID, reason string) (*domain.PlanAssignment, error) {
	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("personal não encontrado")
		}
		return nil, err
	}
	if !trainer.IsTrainer() {
		return nil, domain.ErrValidation("usuário não é um personal")
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("plano não encontrado")
		}
		return nil, err
	}
	if !plan.Active {
		return nil, domain.ErrValidation("plano está inativo")
	}

	if err := s.assignmentRepo.DeactivateCurrent(ctx, trainerID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	assignment := &domain.PlanAssignment{
		TrainerID:         trainerID,
		PlanID:            planID,
		StartDate:         now,
		ExpiryDate:        now.AddDate(0, 0, plan.DurationDays),
		Active:            true,
		AssignedByAdminID: &adminID,
		Reason:            reason,
	}
	if _, err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// GrantToken adds a supplementary slot grant to the trainer's ledger.
func (s *planService) GrantToken(ctx context.Context, adminID, trainerID primitive.ObjectID, quantity int, expiry time.Time, reason string) (*domain.Token, error) {
	if quantity < 1 {
		return nil, domain.ErrValidation("quantidade deve ser no mínimo 1")
	}
	if !expiry.After(time.Now()) {
		return nil, domain.ErrValidation("data de vencimento deve estar no futuro")
	}

	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("personal não encontrado")
		}
		return nil, err
	}
	if !trainer.IsTrainer() {
		return nil, domain.ErrValidation("usuário não é um personal")
	}

	token := &domain.Token{
		TrainerID:        trainerID,
		Quantity:         quantity,
		ExpiryDate:       expiry.UTC(),
		Active:           true,
		Reason:           reason,
		GrantedByAdminID: adminID,
	}
	if _, err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// GetToken returns one ledger entry for the admin token-detail view.
func (s *planService) GetToken(ctx context.Context, tokenID primitive.ObjectID) (*domain.Token, error) {
	token, err := s.tokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("token não encontrado")
		}
		return nil, err
	}
	return token, nil
}

// ListTokens returns a trainer's whole ledger, valid and lapsed alike.
func (s *planService) ListTokens(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Token, error) {
	tokens, err := s.tokenRepo.GetByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if tokens == nil {
		tokens = []domain.Token{}
	}
	return tokens, nil
}
