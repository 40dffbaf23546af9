package api

import (
	"fmt"
	"net/http"
	"time"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler exposes plan catalog management, plan assignment, token grants
// and the legacy data migration to admins.
type AdminHandler struct {
	planService      service.PlanService
	migrationService service.MigrationService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(planService service.PlanService, migrationService service.MigrationService) *AdminHandler {
	return &AdminHandler{planService: planService, migrationService: migrationService}
}

// --- DTOs ---

type PlanRequest struct {
	Name         string          `json:"nome" binding:"required"`
	Description  string          `json:"descricao"`
	StudentLimit int             `json:"limiteAlunos" binding:"min=0"`
	Price        float64         `json:"preco" binding:"min=0"`
	DurationDays int             `json:"duracaoDias" binding:"required,min=1"`
	Kind         domain.PlanKind `json:"tipo" binding:"required,oneof=free paid"`
	Active       *bool           `json:"ativo"`
}

type AssignPlanRequest struct {
	TrainerID string `json:"personalId" binding:"required"`
	PlanID    string `json:"planoId" binding:"required"`
	Reason    string `json:"motivo"`
}

type GrantTokenRequest struct {
	TrainerID string    `json:"personalId" binding:"required"`
	Quantity  int       `json:"quantidade" binding:"required,min=1"`
	Expiry    time.Time `json:"dataVencimento" binding:"required"`
	Reason    string    `json:"motivo"`
}

func (r *PlanRequest) toDomain() *domain.Plan {
	plan := &domain.Plan{
		Name:         r.Name,
		Description:  r.Description,
		StudentLimit: r.StudentLimit,
		Price:        r.Price,
		DurationDays: r.DurationDays,
		Kind:         r.Kind,
		Active:       true,
	}
	if r.Active != nil {
		plan.Active = *r.Active
	}
	return plan
}

// --- Plan catalog ---

// CreatePlan adds a plan to the catalog.
func (h *AdminHandler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// UpdatePlan edits a catalog entry.
func (h *AdminHandler) UpdatePlan(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do plano inválido")
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	plan := req.toDomain()
	plan.ID = planID
	if err := h.planService.UpdatePlan(c.Request.Context(), plan); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ListPlans returns the catalog. ?ativo=true narrows to active plans.
func (h *AdminHandler) ListPlans(c *gin.Context) {
	onlyActive := c.Query("ativo") == "true"

	plans, err := h.planService.ListPlans(c.Request.Context(), onlyActive)
	if err != nil {
		respondError(c, err)
		return
	}
	if plans == nil {
		plans = []domain.Plan{}
	}
	c.JSON(http.StatusOK, plans)
}

// DeactivatePlan hides a plan from new assignments without deleting it.
func (h *AdminHandler) DeactivatePlan(c *gin.Context) {
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do plano inválido")
		return
	}

	if err := h.planService.SetPlanActive(c.Request.Context(), planID, false); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sucesso": true, "mensagem": "Plano desativado"})
}

// --- Assignments and tokens ---

// AssignPlan binds a trainer to a plan starting now.
func (h *AdminHandler) AssignPlan(c *gin.Context) {
	var req AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	adminID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do administrador inválido no token")
		return
	}

	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido")
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do plano inválido")
		return
	}

	assignment, err := h.planService.AssignPlan(c.Request.Context(), adminID, trainerID, planID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// GrantToken adds a supplementary slot grant to a trainer's ledger.
func (h *AdminHandler) GrantToken(c *gin.Context) {
	var req GrantTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	adminID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do administrador inválido no token")
		return
	}

	trainerID, err := primitive.ObjectIDFromHex(req.TrainerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido")
		return
	}

	token, err := h.planService.GrantToken(c.Request.Context(), adminID, trainerID, req.Quantity, req.Expiry, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, token)
}

// GetToken returns one ledger entry.
func (h *AdminHandler) GetToken(c *gin.Context) {
	tokenID, err := primitive.ObjectIDFromHex(c.Param("tokenId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do token inválido")
		return
	}

	token, err := h.planService.GetToken(c.Request.Context(), tokenID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// ListTrainerTokens returns a trainer's whole token ledger, lapsed included.
func (h *AdminHandler) ListTrainerTokens(c *gin.Context) {
	trainerID, err := primitive.ObjectIDFromHex(c.Param("trainerId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido")
		return
	}

	tokens, err := h.planService.ListTokens(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// --- Migration ---

// RunMigration converts legacy token records into the current model and
// returns the per-record report. Safe to call more than once.
func (h *AdminHandler) RunMigration(c *gin.Context) {
	report, err := h.migrationService.RunCompleteMigration(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
