package api

import (
	"fmt"
	"net/http"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RenewalHandler exposes the renewal workflow: trainers open requests and
// submit proofs, admins drive link/approve/reject.
type RenewalHandler struct {
	renewalService service.RenewalService
}

// NewRenewalHandler creates a new RenewalHandler.
func NewRenewalHandler(renewalService service.RenewalService) *RenewalHandler {
	return &RenewalHandler{renewalService: renewalService}
}

// --- DTOs ---

type CreateRenewalRequest struct {
	PlanID string `json:"planoId" binding:"required"`
	Notes  string `json:"observacoes"`
}

type ProofLinkRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type ProofUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ProofConfirmRequest struct {
	FileID      string `json:"fileId" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
}

type PaymentLinkRequest struct {
	Link string `json:"link" binding:"required,url"`
}

type RejectRequest struct {
	Note string `json:"observacao"`
}

// --- Trainer endpoints ---

// Create opens a renewal request for the authenticated trainer.
func (h *RenewalHandler) Create(c *gin.Context) {
	var req CreateRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	trainerID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido no token")
		return
	}

	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do plano inválido")
		return
	}

	request, err := h.renewalService.CreateRequest(c.Request.Context(), trainerID, &planID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// ListMine lists the trainer's own requests.
func (h *RenewalHandler) ListMine(c *gin.Context) {
	trainerID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do personal inválido no token")
		return
	}

	requests, err := h.renewalService.ListByTrainer(c.Request.Context(), trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	if requests == nil {
		requests = []domain.RenewalRequest{}
	}
	c.JSON(http.StatusOK, requests)
}

// SubmitProofLink attaches a proof-of-payment URL.
func (h *RenewalHandler) SubmitProofLink(c *gin.Context) {
	var req ProofLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	trainerID, requestID, ok := h.trainerAndRequest(c)
	if !ok {
		return
	}

	request, err := h.renewalService.SubmitProofLink(c.Request.Context(), trainerID, requestID, req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// RequestProofUpload returns a presigned PUT URL for the proof file.
func (h *RenewalHandler) RequestProofUpload(c *gin.Context) {
	var req ProofUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	trainerID, requestID, ok := h.trainerAndRequest(c)
	if !ok {
		return
	}

	upload, err := h.renewalService.RequestProofUpload(c.Request.Context(), trainerID, requestID, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// ConfirmProofUpload records the uploaded file as the request's proof.
func (h *RenewalHandler) ConfirmProofUpload(c *gin.Context) {
	var req ProofConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	trainerID, requestID, ok := h.trainerAndRequest(c)
	if !ok {
		return
	}

	request, err := h.renewalService.ConfirmProofUpload(c.Request.Context(), trainerID, requestID,
		req.FileID, req.Filename, req.ContentType, req.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// --- Admin endpoints ---

// ListByStatus lists requests in one status (default pending) for admins.
func (h *RenewalHandler) ListByStatus(c *gin.Context) {
	status := c.DefaultQuery("status", string(domain.RenewalPending))

	requests, err := h.renewalService.ListByStatus(c.Request.Context(), domain.RenewalStatus(status))
	if err != nil {
		respondError(c, err)
		return
	}
	if requests == nil {
		requests = []domain.RenewalRequest{}
	}
	c.JSON(http.StatusOK, requests)
}

// ProofDownload hands the reviewing admin a viewable URL for the submitted
// proof: the pasted link, or a presigned GET for an uploaded file.
func (h *RenewalHandler) ProofDownload(c *gin.Context) {
	requestID, err := primitive.ObjectIDFromHex(c.Param("requestId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador da solicitação inválido")
		return
	}

	download, err := h.renewalService.ProofDownload(c.Request.Context(), requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, download)
}

// AttachPaymentLink moves a pending request to payment_link_sent.
func (h *RenewalHandler) AttachPaymentLink(c *gin.Context) {
	var req PaymentLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	adminID, requestID, ok := h.trainerAndRequest(c)
	if !ok {
		return
	}

	request, err := h.renewalService.AttachPaymentLink(c.Request.Context(), adminID, requestID, req.Link)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// Approve confirms the payment and activates the requested plan.
func (h *RenewalHandler) Approve(c *gin.Context) {
	adminID, requestID, ok := h.trainerAndRequest(c)
	if !ok {
		return
	}

	request, err := h.renewalService.Approve(c.Request.Context(), adminID, requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// Reject closes the request without touching the plan.
func (h *RenewalHandler) Reject(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Erro de validação: %v", err))
		return
	}

	adminID, requestID, ok := h.trainerAndRequest(c)
	if !ok {
		return
	}

	request, err := h.renewalService.Reject(c.Request.Context(), adminID, requestID, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// trainerAndRequest resolves the caller id and the :requestId path param.
func (h *RenewalHandler) trainerAndRequest(c *gin.Context) (primitive.ObjectID, primitive.ObjectID, bool) {
	callerID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador do usuário inválido no token")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	requestID, err := primitive.ObjectIDFromHex(c.Param("requestId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Identificador da solicitação inválido")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return callerID, requestID, true
}
