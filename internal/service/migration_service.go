package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/repository"
)

// MigrationReport summarizes one migration run. A second run over already
// migrated data reports zeros.
type MigrationReport struct {
	TokensMigrated      int      `json:"tokensMigrated"`
	PlanTokensGenerated int      `json:"planTokensGenerated"`
	TotalErrors         []string `json:"totalErrors"`
}

// MigrationService converts legacy token records into the current plan+token
// model. Safe to re-run: conversions are keyed on the legacy record id and on
// the per-student uniqueness of consumption records.
type MigrationService interface {
	RunCompleteMigration(ctx context.Context) (*MigrationReport, error)
}

type migrationService struct {
	legacyRepo      repository.LegacyTokenRepository
	tokenRepo       repository.TokenRepository
	assignmentRepo  repository.PlanAssignmentRepository
	consumptionRepo repository.TokenAssignmentRepository
	userRepo        repository.UserRepository
	now             func() time.Time
}

// NewMigrationService creates a new instance of migrationService.
func NewMigrationService(
	legacyRepo repository.LegacyTokenRepository,
	tokenRepo repository.TokenRepository,
	assignmentRepo repository.PlanAssignmentRepository,
	consumptionRepo repository.TokenAssignmentRepository,
	userRepo repository.UserRepository,
) MigrationService {
	return &migrationService{
		legacyRepo:      legacyRepo,
		tokenRepo:       tokenRepo,
		assignmentRepo:  assignmentRepo,
		consumptionRepo: consumptionRepo,
		userRepo:        userRepo,
		now:             time.Now,
	}
}

// RunCompleteMigration performs the whole batch. Per-record failures are
// collected into the report instead of aborting; only unrecoverable
// conditions (a dead store) fail the run as a whole.
func (s *migrationService) RunCompleteMigration(ctx context.Context) (*MigrationReport, error) {
	report := &MigrationReport{TotalErrors: []string{}}

	if err := s.migrateLegacyTokens(ctx, report); err != nil {
		return nil, err
	}
	if err := s.generatePlanTokens(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// migrateLegacyTokens converts each legacy token document into a Token ledger
// entry, skipping documents already converted (legadoId match).
func (s *migrationService) migrateLegacyTokens(ctx context.Context, report *MigrationReport) error {
	legacy, err := s.legacyRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing legacy tokens: %w", err)
	}

	for _, old := range legacy {
		legacyID := old.ID.Hex()

		exists, err := s.tokenRepo.ExistsByLegacyID(ctx, legacyID)
		if err != nil {
			report.TotalErrors = append(report.TotalErrors,
				fmt.Sprintf("token legado %s: falha ao verificar migração: %v", legacyID, err))
			continue
		}
		if exists {
			continue
		}

		if old.ExpiryDate.IsZero() {
			report.TotalErrors = append(report.TotalErrors,
				fmt.Sprintf("token legado %s: sem data de validade", legacyID))
			continue
		}

		quantity := old.Quantity
		if quantity < 1 {
			quantity = 1
		}

		token := &domain.Token{
			TrainerID:        old.TrainerID,
			Quantity:         quantity,
			ExpiryDate:       old.ExpiryDate,
			Active:           old.ExpiryDate.After(s.now()),
			Reason:           old.Reason,
			GrantedByAdminID: old.GrantedByAdminID,
			LegacyID:         legacyID,
		}

		tokenID, err := s.tokenRepo.Create(ctx, token)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// Concurrent run already converted this record.
				continue
			}
			report.TotalErrors = append(report.TotalErrors,
				fmt.Sprintf("token legado %s: falha ao converter: %v", legacyID, err))
			continue
		}
		report.TokensMigrated++

		// A legacy token bound to a specific student becomes a consumption
		// record; the unique index keeps this idempotent too.
		if old.StudentID != nil {
			record := &domain.TokenAssignment{
				TokenID:    &tokenID,
				StudentID:  *old.StudentID,
				TrainerID:  old.TrainerID,
				Type:       domain.SourceToken,
				ValidUntil: old.ExpiryDate,
				AssignedAt: s.now().UTC(),
			}
			if _, err := s.consumptionRepo.Create(ctx, record); err != nil && !errors.Is(err, repository.ErrDuplicate) {
				report.TotalErrors = append(report.TotalErrors,
					fmt.Sprintf("token legado %s: falha ao vincular aluno %s: %v", legacyID, old.StudentID.Hex(), err))
			}
		}
	}
	return nil
}

// generatePlanTokens materializes plan-level entitlements: every active
// student under a current plan assignment gets a tipo=plano consumption
// record if they have none yet.
func (s *migrationService) generatePlanTokens(ctx context.Context, report *MigrationReport) error {
	assignments, err := s.assignmentRepo.ListCurrent(ctx, s.now())
	if err != nil {
		return fmt.Errorf("listing current plan assignments: %w", err)
	}

	for _, assignment := range assignments {
		students, err := s.userRepo.GetStudentsByTrainerID(ctx, assignment.TrainerID)
		if err != nil {
			report.TotalErrors = append(report.TotalErrors,
				fmt.Sprintf("personal %s: falha ao listar alunos: %v", assignment.TrainerID.Hex(), err))
			continue
		}

		for _, student := range students {
			if student.Status != domain.StudentActive {
				continue
			}

			if _, err := s.consumptionRepo.GetByStudentID(ctx, student.ID); err == nil {
				continue
			} else if !errors.Is(err, repository.ErrNotFound) {
				report.TotalErrors = append(report.TotalErrors,
					fmt.Sprintf("aluno %s: falha ao verificar vaga: %v", student.ID.Hex(), err))
				continue
			}

			record := &domain.TokenAssignment{
				StudentID:  student.ID,
				TrainerID:  assignment.TrainerID,
				Type:       domain.SourcePlan,
				ValidUntil: assignment.ExpiryDate,
				AssignedAt: s.now().UTC(),
			}
			if _, err := s.consumptionRepo.Create(ctx, record); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					continue
				}
				report.TotalErrors = append(report.TotalErrors,
					fmt.Sprintf("aluno %s: falha ao gerar vaga de plano: %v", student.ID.Hex(), err))
				continue
			}
			report.PlanTokensGenerated++
		}
	}
	return nil
}
