package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/repository"
	"gestorfit/personal-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProofUploadURL is the presigned upload handed to the trainer for a
// proof-of-payment file. The trainer PUTs the file to UploadURL and then
// confirms with the same object key.
type ProofUploadURL struct {
	UploadURL string `json:"uploadUrl"`
	FileID    string `json:"fileId"`
}

// ProofDownloadURL points at the submitted proof: the pasted link itself, or a
// presigned GET for an uploaded file.
type ProofDownloadURL struct {
	URL string `json:"url"`
}

// RenewalService drives the renewal request state machine:
// pending -> payment_link_sent -> payment_proof_uploaded -> approved|rejected.
type RenewalService interface {
	CreateRequest(ctx context.Context, trainerID primitive.ObjectID, planID *primitive.ObjectID, notes string) (*domain.RenewalRequest, error)
	GetRequest(ctx context.Context, trainerID, requestID primitive.ObjectID) (*domain.RenewalRequest, error)
	ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.RenewalRequest, error)
	ListByStatus(ctx context.Context, status domain.RenewalStatus) ([]domain.RenewalRequest, error)

	AttachPaymentLink(ctx context.Context, adminID, requestID primitive.ObjectID, link string) (*domain.RenewalRequest, error)
	SubmitProofLink(ctx context.Context, trainerID, requestID primitive.ObjectID, url string) (*domain.RenewalRequest, error)
	RequestProofUpload(ctx context.Context, trainerID, requestID primitive.ObjectID, contentType string) (*ProofUploadURL, error)
	ConfirmProofUpload(ctx context.Context, trainerID, requestID primitive.ObjectID, fileID, filename, contentType string, size int64) (*domain.RenewalRequest, error)
	ProofDownload(ctx context.Context, requestID primitive.ObjectID) (*ProofDownloadURL, error)
	Approve(ctx context.Context, adminID, requestID primitive.ObjectID) (*domain.RenewalRequest, error)
	Reject(ctx context.Context, adminID, requestID primitive.ObjectID, note string) (*domain.RenewalRequest, error)
}

type renewalService struct {
	renewalRepo    repository.RenewalRepository
	planRepo       repository.PlanRepository
	assignmentRepo repository.PlanAssignmentRepository
	fileStorage    storage.FileStorage
	now            func() time.Time
}

// NewRenewalService creates a new instance of renewalService.
func NewRenewalService(
	renewalRepo repository.RenewalRepository,
	planRepo repository.PlanRepository,
	assignmentRepo repository.PlanAssignmentRepository,
	fileStorage storage.FileStorage,
) RenewalService {
	return &renewalService{
		renewalRepo:    renewalRepo,
		planRepo:       planRepo,
		assignmentRepo: assignmentRepo,
		fileStorage:    fileStorage,
		now:            time.Now,
	}
}

// CreateRequest opens a renewal request in pending.
func (s *renewalService) CreateRequest(ctx context.Context, trainerID primitive.ObjectID, planID *primitive.ObjectID, notes string) (*domain.RenewalRequest, error) {
	if trainerID == primitive.NilObjectID {
		return nil, domain.ErrValidation("personal é obrigatório")
	}
	if planID != nil {
		plan, err := s.planRepo.GetByID(ctx, *planID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, domain.ErrNotFound("plano não encontrado")
			}
			return nil, err
		}
		if !plan.Active {
			return nil, domain.ErrValidation("plano está inativo")
		}
	}

	request := &domain.RenewalRequest{
		TrainerID: trainerID,
		PlanID:    planID,
		Status:    domain.RenewalPending,
		Notes:     notes,
	}
	if _, err := s.renewalRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// GetRequest loads one request scoped to its owner.
func (s *renewalService) GetRequest(ctx context.Context, trainerID, requestID primitive.ObjectID) (*domain.RenewalRequest, error) {
	request, err := s.ownedRequest(ctx, trainerID, requestID)
	if err != nil {
		return nil, err
	}
	return request, nil
}

// ListByTrainer lists a trainer's own requests.
func (s *renewalService) ListByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.RenewalRequest, error) {
	return s.renewalRepo.ListByTrainerID(ctx, trainerID)
}

// ListByStatus lists requests for the admin view.
func (s *renewalService) ListByStatus(ctx context.Context, status domain.RenewalStatus) ([]domain.RenewalRequest, error) {
	normalized, ok := domain.NormalizeRenewalStatus(string(status))
	if !ok {
		return nil, domain.ErrValidation("status desconhecido")
	}
	return s.renewalRepo.ListByStatus(ctx, normalized)
}

// AttachPaymentLink moves pending -> payment_link_sent with the admin's link.
func (s *renewalService) AttachPaymentLink(ctx context.Context, adminID, requestID primitive.ObjectID, link string) (*domain.RenewalRequest, error) {
	if link == "" {
		return nil, domain.ErrValidation("link de pagamento é obrigatório")
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(request, domain.RenewalLinkSent); err != nil {
		return nil, err
	}

	request.PaymentLink = link
	request.AdminID = &adminID
	if err := s.renewalRepo.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// SubmitProofLink attaches a proof-of-payment URL and moves the request to
// payment_proof_uploaded. Allowed from any non-terminal state.
func (s *renewalService) SubmitProofLink(ctx context.Context, trainerID, requestID primitive.ObjectID, url string) (*domain.RenewalRequest, error) {
	if url == "" {
		return nil, domain.ErrValidation("url do comprovante é obrigatória")
	}

	request, err := s.ownedRequest(ctx, trainerID, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(request, domain.RenewalProofUploaded); err != nil {
		return nil, err
	}

	s.discardProofFile(ctx, request, "")
	request.Proof = &domain.PaymentProof{
		Kind:       domain.ProofLink,
		URL:        url,
		UploadedAt: s.now().UTC(),
	}
	if err := s.renewalRepo.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// RequestProofUpload hands the trainer a presigned PUT URL for the proof
// file. No state change yet; that happens on confirmation.
func (s *renewalService) RequestProofUpload(ctx context.Context, trainerID, requestID primitive.ObjectID, contentType string) (*ProofUploadURL, error) {
	if contentType == "" {
		return nil, domain.ErrValidation("contentType é obrigatório")
	}

	request, err := s.ownedRequest(ctx, trainerID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status.Terminal() {
		return nil, domain.ErrInvalidStateTransition(
			fmt.Sprintf("solicitação já %s não aceita comprovante", request.Status))
	}

	ext := ""
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		ext = parts[1]
	}
	objectKey := path.Join("comprovantes", trainerID.Hex(), requestID.Hex(),
		fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &ProofUploadURL{UploadURL: uploadURL, FileID: objectKey}, nil
}

// ConfirmProofUpload records the uploaded file as the request's proof and
// moves it to payment_proof_uploaded.
func (s *renewalService) ConfirmProofUpload(ctx context.Context, trainerID, requestID primitive.ObjectID, fileID, filename, contentType string, size int64) (*domain.RenewalRequest, error) {
	if fileID == "" {
		return nil, domain.ErrValidation("fileId é obrigatório")
	}

	request, err := s.ownedRequest(ctx, trainerID, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(request, domain.RenewalProofUploaded); err != nil {
		return nil, err
	}

	s.discardProofFile(ctx, request, fileID)
	request.Proof = &domain.PaymentProof{
		Kind:        domain.ProofFile,
		FileID:      fileID,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		UploadedAt:  s.now().UTC(),
	}
	if err := s.renewalRepo.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// ProofDownload resolves the submitted proof into a viewable URL for the
// admin review screen: link proofs come back as-is, file proofs as a
// presigned GET on the stored object.
func (s *renewalService) ProofDownload(ctx context.Context, requestID primitive.ObjectID) (*ProofDownloadURL, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Proof == nil {
		return nil, domain.ErrNotFound("solicitação não possui comprovante")
	}

	switch request.Proof.Kind {
	case domain.ProofLink:
		return &ProofDownloadURL{URL: request.Proof.URL}, nil
	case domain.ProofFile:
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, request.Proof.FileID, storage.DefaultPresignedURLExpiry)
		if err != nil {
			return nil, err
		}
		return &ProofDownloadURL{URL: url}, nil
	}
	return nil, domain.ErrInternal("tipo de comprovante desconhecido")
}

// discardProofFile deletes the stored object of a superseded file proof.
// Best effort: a failed delete only logs, the resubmission still proceeds.
func (s *renewalService) discardProofFile(ctx context.Context, request *domain.RenewalRequest, keepFileID string) {
	if request.Proof == nil || request.Proof.Kind != domain.ProofFile || request.Proof.FileID == "" {
		return
	}
	if request.Proof.FileID == keepFileID {
		return
	}
	if err := s.fileStorage.DeleteObject(ctx, request.Proof.FileID); err != nil {
		log.Printf("WARN: failed to delete superseded proof %s for request %s: %v",
			request.Proof.FileID, request.ID.Hex(), err)
	}
}

// Approve confirms the payment. Side effect: the requested plan becomes the
// trainer's current assignment, starting now and running plan.duracaoDias.
func (s *renewalService) Approve(ctx context.Context, adminID, requestID primitive.ObjectID) (*domain.RenewalRequest, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(request, domain.RenewalApproved); err != nil {
		return nil, err
	}
	if request.PlanID == nil {
		return nil, domain.ErrValidation("solicitação sem plano não pode ser aprovada")
	}

	plan, err := s.planRepo.GetByID(ctx, *request.PlanID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("plano solicitado não existe mais")
		}
		return nil, err
	}

	if err := s.assignmentRepo.DeactivateCurrent(ctx, request.TrainerID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	assignment := &domain.PlanAssignment{
		TrainerID:         request.TrainerID,
		PlanID:            plan.ID,
		StartDate:         now,
		ExpiryDate:        now.AddDate(0, 0, plan.DurationDays),
		Active:            true,
		AssignedByAdminID: &adminID,
		Reason:            fmt.Sprintf("renovação aprovada (solicitação %s)", request.ID.Hex()),
	}
	if _, err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}

	processedAt := now
	request.AdminID = &adminID
	request.ProcessedAt = &processedAt
	if err := s.renewalRepo.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Reject closes the request with an optional note. No plan mutation.
func (s *renewalService) Reject(ctx context.Context, adminID, requestID primitive.ObjectID, note string) (*domain.RenewalRequest, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(request, domain.RenewalRejected); err != nil {
		return nil, err
	}

	if note != "" {
		request.Notes = note
	}
	processedAt := s.now().UTC()
	request.AdminID = &adminID
	request.ProcessedAt = &processedAt
	if err := s.renewalRepo.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// transition validates and applies a status change in memory.
func (s *renewalService) transition(request *domain.RenewalRequest, next domain.RenewalStatus) error {
	if !request.Status.CanTransitionTo(next) {
		return domain.ErrInvalidStateTransition(
			fmt.Sprintf("transição de %s para %s não é permitida", request.Status, next))
	}
	request.Status = next
	return nil
}

func (s *renewalService) loadRequest(ctx context.Context, requestID primitive.ObjectID) (*domain.RenewalRequest, error) {
	request, err := s.renewalRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound("solicitação de renovação não encontrada")
		}
		return nil, err
	}
	return request, nil
}

func (s *renewalService) ownedRequest(ctx context.Context, trainerID, requestID primitive.ObjectID) (*domain.RenewalRequest, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.TrainerID != trainerID {
		return nil, domain.ErrNotFound("solicitação de renovação não encontrada")
	}
	return request, nil
}
