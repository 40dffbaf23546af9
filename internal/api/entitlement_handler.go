package api

import (
	"net/http"
	"strconv"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntitlementHandler exposes the slot evaluator to trainers.
type EntitlementHandler struct {
	entitlementService service.EntitlementService
}

// NewEntitlementHandler creates a new EntitlementHandler.
func NewEntitlementHandler(entitlementService service.EntitlementService) *EntitlementHandler {
	return &EntitlementHandler{entitlementService: entitlementService}
}

// CanActivate answers GET /api/personal/can-activate/:quantidade with the
// evaluator's verdict. Read-only; the actual activation happens on the
// student routes.
func (h *EntitlementHandler) CanActivate(c *gin.Context) {
	trainerID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido no token")
		return
	}

	quantity, err := strconv.Atoi(c.Param("quantidade"))
	if err != nil || quantity < 1 {
		abortWithError(c, http.StatusBadRequest, "Quantidade deve ser um inteiro positivo")
		return
	}

	verdict, err := h.entitlementService.CanActivate(c.Request.Context(), trainerID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, verdict)
}

// MyPlan answers GET /api/personal/meu-plano with the trainer's current plan
// snapshot: plan, assignment, tokens, usage percentage and available slots.
func (h *EntitlementHandler) MyPlan(c *gin.Context) {
	trainerID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido no token")
		return
	}

	status, err := h.entitlementService.GetPlanStatus(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// StudentAssignment answers GET /api/tokens/student/:studentId with the
// student's consumption record. Trainers only see their own students; admins
// see any student.
func (h *EntitlementHandler) StudentAssignment(c *gin.Context) {
	callerID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do usuário inválido no token")
		return
	}

	studentID, err := primitive.ObjectIDFromHex(c.Param("studentId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do aluno inválido")
		return
	}

	role, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Role do usuário ausente no contexto")
		return
	}

	var assignment *domain.TokenAssignment
	if role == domain.RoleAdmin {
		assignment, err = h.entitlementService.AdminGetStudentAssignment(c.Request.Context(), studentID)
	} else {
		assignment, err = h.entitlementService.GetStudentAssignment(c.Request.Context(), callerID, studentID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assignment)
}

// ListAssignments answers GET /api/personal/vagas with every consumption
// record under the trainer, plan and token sourced alike.
func (h *EntitlementHandler) ListAssignments(c *gin.Context) {
	trainerID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido no token")
		return
	}

	records, err := h.entitlementService.ListAssignments(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}
