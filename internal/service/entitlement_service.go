package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SlotBreakdown details where a trainer's capacity comes from, for UI display.
type SlotBreakdown struct {
	PlanLimit       int `json:"planLimit"`       // studentLimit of the current plan, 0 without one
	TokenCapacity   int `json:"tokenCapacity"`   // sum of quantity over valid tokens
	TokenConsumed   int `json:"tokenConsumed"`   // avulso slots already in use
	TokensAvailable int `json:"tokensAvailable"` // TokenCapacity - TokenConsumed, floored at 0
}

// SlotAvailability is the slot evaluator's verdict.
type SlotAvailability struct {
	Allowed            bool           `json:"allowed"`
	AvailableSlots     int            `json:"availableSlots"`
	CurrentLimit       int            `json:"currentLimit"`
	ActiveStudentCount int            `json:"activeStudentCount"`
	Message            string         `json:"message,omitempty"`
	Details            *SlotBreakdown `json:"details,omitempty"`
}

// PlanStatus is the trainer's "meu plano" snapshot.
type PlanStatus struct {
	Plan            *domain.Plan           `json:"plano,omitempty"`
	Assignment      *domain.PlanAssignment `json:"atribuicao,omitempty"`
	Tokens          []domain.Token         `json:"tokens"`
	CurrentLimit    int                    `json:"limiteAtual"`
	TokensAvailable int                    `json:"tokensDisponiveis"`
	ActiveStudents  int                    `json:"alunosAtivos"`
	AvailableSlots  int                    `json:"vagasDisponiveis"`
	UsagePercent    float64                `json:"percentualUso"`
}

// EntitlementService is the slot-management core: it decides whether a trainer
// may activate more students and owns the consumption records tying slots to
// students.
type EntitlementService interface {
	CanActivate(ctx context.Context, trainerID primitive.ObjectID, requested int) (*SlotAvailability, error)
	ConsumeSlot(ctx context.Context, trainerID, studentID primitive.ObjectID, preferred domain.SlotSource) (*domain.TokenAssignment, error)
	ReleaseSlot(ctx context.Context, studentID primitive.ObjectID) error
	GetStudentAssignment(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.TokenAssignment, error)
	AdminGetStudentAssignment(ctx context.Context, studentID primitive.ObjectID) (*domain.TokenAssignment, error)
	ListAssignments(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TokenAssignment, error)
	GetPlanStatus(ctx context.Context, trainerID primitive.ObjectID) (*PlanStatus, error)
}

type entitlementService struct {
	planRepo        repository.PlanRepository
	assignmentRepo  repository.PlanAssignmentRepository
	tokenRepo       repository.TokenRepository
	consumptionRepo repository.TokenAssignmentRepository
	userRepo        repository.UserRepository
	now             func() time.Time
}

// NewEntitlementService creates the slot evaluator.
func NewEntitlementService(
	planRepo repository.PlanRepository,
	assignmentRepo repository.PlanAssignmentRepository,
	tokenRepo repository.TokenRepository,
	consumptionRepo repository.TokenAssignmentRepository,
	userRepo repository.UserRepository,
) EntitlementService {
	return &entitlementService{
		planRepo:        planRepo,
		assignmentRepo:  assignmentRepo,
		tokenRepo:       tokenRepo,
		consumptionRepo: consumptionRepo,
		userRepo:        userRepo,
		now:             time.Now,
	}
}

// capacity gathers the live inputs of the evaluator: current plan limit,
// valid tokens and their remaining capacity, and the active student count.
// Everything is re-derived at call time; nothing is cached, so an expired or
// deactivated plan/token contributes zero the moment it lapses.
func (s *entitlementService) capacity(ctx context.Context, trainerID primitive.ObjectID) (*domain.PlanAssignment, *domain.Plan, []domain.Token, *SlotBreakdown, int, error) {
	now := s.now()

	var plan *domain.Plan
	assignment, err := s.assignmentRepo.GetCurrentByTrainerID(ctx, trainerID, now)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil, nil, 0, err
	}

	planLimit := 0
	if assignment != nil {
		plan, err = s.planRepo.GetByID(ctx, assignment.PlanID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, nil, nil, nil, 0, err
		}
		if plan != nil {
			planLimit = plan.StudentLimit
		}
	}

	tokens, err := s.tokenRepo.GetValidByTrainerID(ctx, trainerID, now)
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}

	tokenCapacity := 0
	tokenIDs := make([]primitive.ObjectID, 0, len(tokens))
	for _, t := range tokens {
		tokenCapacity += t.Quantity
		tokenIDs = append(tokenIDs, t.ID)
	}

	consumed, err := s.consumptionRepo.CountTokenConsumed(ctx, tokenIDs)
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}

	tokensAvailable := tokenCapacity - int(consumed)
	if tokensAvailable < 0 {
		tokensAvailable = 0
	}

	activeCount, err := s.userRepo.CountActiveStudents(ctx, trainerID)
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}

	breakdown := &SlotBreakdown{
		PlanLimit:       planLimit,
		TokenCapacity:   tokenCapacity,
		TokenConsumed:   int(consumed),
		TokensAvailable: tokensAvailable,
	}
	return assignment, plan, tokens, breakdown, int(activeCount), nil
}

// CanActivate computes whether the trainer may activate `requested` more
// students. Pure read, no side effects. Callers must invoke it before any
// activation mutation; the check and the mutation are deliberately not one
// atomic step (see ConsumeSlot).
func (s *entitlementService) CanActivate(ctx context.Context, trainerID primitive.ObjectID, requested int) (*SlotAvailability, error) {
	if requested < 1 {
		return nil, domain.ErrValidation("quantidade deve ser no mínimo 1")
	}

	_, _, _, breakdown, activeCount, err := s.capacity(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	totalLimit := breakdown.PlanLimit + breakdown.TokensAvailable
	available := totalLimit - activeCount
	if available < 0 {
		available = 0
	}

	result := &SlotAvailability{
		Allowed:            available >= requested,
		AvailableSlots:     available,
		CurrentLimit:       breakdown.PlanLimit,
		ActiveStudentCount: activeCount,
		Details:            breakdown,
	}
	if !result.Allowed {
		result.Message = fmt.Sprintf(
			"Limite de alunos insuficiente: %d vaga(s) disponível(is) para %d solicitada(s). Plano: %d vaga(s), tokens: %d vaga(s), alunos ativos: %d.",
			available, requested, breakdown.PlanLimit, breakdown.TokensAvailable, activeCount,
		)
	}
	return result, nil
}

// ConsumeSlot creates exactly one consumption record for the student, sourced
// from the plan or from a token according to availability and preference.
//
// The evaluator check and the insert below are two separate storage
// operations. Two concurrent activations for different students can both pass
// the check and overshoot the limit; this is accepted for human-paced
// administrative traffic. The unique index on alunoId does make concurrent
// double-activation of the SAME student safe.
func (s *entitlementService) ConsumeSlot(ctx context.Context, trainerID, studentID primitive.ObjectID, preferred domain.SlotSource) (*domain.TokenAssignment, error) {
	if trainerID == primitive.NilObjectID || studentID == primitive.NilObjectID {
		return nil, domain.ErrValidation("personal e aluno são obrigatórios")
	}

	if _, err := s.consumptionRepo.GetByStudentID(ctx, studentID); err == nil {
		return nil, domain.ErrDuplicateAssignment("aluno já possui uma vaga atribuída")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	assignment, _, tokens, breakdown, activeCount, err := s.capacity(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	totalLimit := breakdown.PlanLimit + breakdown.TokensAvailable
	if totalLimit-activeCount < 1 {
		msg := fmt.Sprintf(
			"Sem vagas disponíveis: plano %d, tokens %d, alunos ativos %d.",
			breakdown.PlanLimit, breakdown.TokensAvailable, activeCount,
		)
		return nil, domain.ErrSlotUnavailable(msg, breakdown)
	}

	record := &domain.TokenAssignment{
		StudentID:  studentID,
		TrainerID:  trainerID,
		AssignedAt: s.now().UTC(),
	}

	// Plan slots are preferred unless the caller asks for a token or the plan
	// is already saturated. Plan saturation is approximated by comparing the
	// plan limit with the students not covered by tokens.
	planStudents := activeCount - breakdown.TokenConsumed
	usePlan := preferred != domain.SourceToken && assignment != nil && planStudents < breakdown.PlanLimit

	if usePlan {
		record.Type = domain.SourcePlan
		record.ValidUntil = assignment.ExpiryDate
	} else {
		token := s.pickToken(ctx, tokens)
		if token == nil {
			// Preference could not be honored; fall back to the plan if it
			// still has room.
			if assignment != nil && planStudents < breakdown.PlanLimit {
				record.Type = domain.SourcePlan
				record.ValidUntil = assignment.ExpiryDate
			} else {
				return nil, domain.ErrSlotUnavailable("Nenhum token com capacidade disponível.", breakdown)
			}
		} else {
			record.Type = domain.SourceToken
			record.TokenID = &token.ID
			record.ValidUntil = token.ExpiryDate
		}
	}

	if _, err := s.consumptionRepo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrDuplicateAssignment("aluno já possui uma vaga atribuída")
		}
		return nil, err
	}
	return record, nil
}

// pickToken returns the soonest-expiring token that still has free capacity.
// Tokens arrive sorted by expiry from the repository.
func (s *entitlementService) pickToken(ctx context.Context, tokens []domain.Token) *domain.Token {
	for i := range tokens {
		used, err := s.consumptionRepo.CountTokenConsumed(ctx, []primitive.ObjectID{tokens[i].ID})
		if err != nil {
			continue
		}
		if int(used) < tokens[i].Quantity {
			return &tokens[i]
		}
	}
	return nil
}

// ReleaseSlot frees the student's slot. Idempotent: releasing a student
// without a consumption record is a no-op.
func (s *entitlementService) ReleaseSlot(ctx context.Context, studentID primitive.ObjectID) error {
	if studentID == primitive.NilObjectID {
		return domain.ErrValidation("aluno é obrigatório")
	}
	return s.consumptionRepo.DeleteByStudentID(ctx, studentID)
}

// GetStudentAssignment returns the consumption record for one student, scoped
// to the requesting trainer's own students.
func (s *entitlementService) GetStudentAssignment(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.TokenAssignment, error) {
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

	record, err := s.consumptionRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("aluno não possui vaga atribuída")
		}
		return nil, err
	}
	return record, nil
}

// AdminGetStudentAssignment returns the consumption record for any student,
// without the trainer ownership scope. Role enforcement happens at the route.
func (s *entitlementService) AdminGetStudentAssignment(ctx context.Context, studentID primitive.ObjectID) (*domain.TokenAssignment, error) {
	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("aluno não encontrado")
		}
		return nil, err
	}
	if !student.IsStudent() {
		return nil, domain.ErrNotFound("aluno não encontrado")
	}

	record, err := s.consumptionRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("aluno não possui vaga atribuída")
		}
		return nil, err
	}
	return record, nil
}

// ListAssignments returns every consumption record under the trainer, for the
// roster slot overview.
func (s *entitlementService) ListAssignments(ctx context.Context, trainerID primitive.ObjectID) ([]domain.TokenAssignment, error) {
	records, err := s.consumptionRepo.ListByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.TokenAssignment{}
	}
	return records, nil
}

// GetPlanStatus builds the trainer's plan snapshot for the meu-plano endpoint.
func (s *entitlementService) GetPlanStatus(ctx context.Context, trainerID primitive.ObjectID) (*PlanStatus, error) {
	assignment, plan, tokens, breakdown, activeCount, err := s.capacity(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	totalLimit := breakdown.PlanLimit + breakdown.TokensAvailable
	available := totalLimit - activeCount
	if available < 0 {
		available = 0
	}

	usage := 0.0
	if totalLimit > 0 {
		usage = float64(activeCount) / float64(totalLimit) * 100
	}

	if tokens == nil {
		tokens = []domain.Token{}
	}
	return &PlanStatus{
		Plan:            plan,
		Assignment:      assignment,
		Tokens:          tokens,
		CurrentLimit:    breakdown.PlanLimit,
		TokensAvailable: breakdown.TokensAvailable,
		ActiveStudents:  activeCount,
		AvailableSlots:  available,
		UsagePercent:    usage,
	}, nil
}
