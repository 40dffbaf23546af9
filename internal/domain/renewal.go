package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RenewalStatus is the state of a renewal request.
type RenewalStatus string

const (
	RenewalPending       RenewalStatus = "pending"
	RenewalLinkSent      RenewalStatus = "payment_link_sent"
	RenewalProofUploaded RenewalStatus = "payment_proof_uploaded"
	RenewalApproved      RenewalStatus = "approved"
	RenewalRejected      RenewalStatus = "rejected"
)

// NormalizeRenewalStatus maps raw stored values, including the legacy
// uppercase aliases (PENDING, APPROVED, REJECTED, FULFILLED), onto the
// canonical lowercase machine. FULFILLED was the legacy terminal success
// state and maps to approved.
func NormalizeRenewalStatus(raw string) (RenewalStatus, bool) {
	switch RenewalStatus(raw) {
	case RenewalPending, RenewalLinkSent, RenewalProofUploaded, RenewalApproved, RenewalRejected:
		return RenewalStatus(raw), true
	}
	switch strings.ToUpper(raw) {
	case "PENDING":
		return RenewalPending, true
	case "APPROVED", "FULFILLED":
		return RenewalApproved, true
	case "REJECTED":
		return RenewalRejected, true
	}
	return "", false
}

// Terminal reports whether no further transitions are allowed.
func (s RenewalStatus) Terminal() bool {
	return s == RenewalApproved || s == RenewalRejected
}

// CanTransitionTo implements the renewal state machine:
//
//	pending -> payment_link_sent
//	any non-terminal -> payment_proof_uploaded
//	payment_proof_uploaded -> approved | rejected
func (s RenewalStatus) CanTransitionTo(next RenewalStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case RenewalLinkSent:
		return s == RenewalPending
	case RenewalProofUploaded:
		return true
	case RenewalApproved, RenewalRejected:
		return s == RenewalProofUploaded
	}
	return false
}

// ProofKind tags the payment proof variant.
type ProofKind string

const (
	ProofLink ProofKind = "link"
	ProofFile ProofKind = "file"
)

// PaymentProof is either a link the trainer pasted or an uploaded file
// reference (object key in the file store plus metadata).
type PaymentProof struct {
	Kind        ProofKind `bson:"kind" json:"kind"`
	URL         string    `bson:"url,omitempty" json:"url,omitempty"`
	FileID      string    `bson:"fileId,omitempty" json:"fileId,omitempty"`
	Filename    string    `bson:"filename,omitempty" json:"filename,omitempty"`
	ContentType string    `bson:"contentType,omitempty" json:"contentType,omitempty"`
	Size        int64     `bson:"size,omitempty" json:"size,omitempty"`
	UploadedAt  time.Time `bson:"uploadedAt,omitempty" json:"uploadedAt,omitempty"`
}

// RenewalRequest tracks a trainer's request to renew/upgrade a plan through
// proof-of-payment submission to admin approval or rejection. This is the
// canonical shape; legacy field aliases are normalized by the repository on
// read and kept in sync on write for older consumers.
type RenewalRequest struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TrainerID   primitive.ObjectID  `bson:"personalId" json:"personalId"`
	PlanID      *primitive.ObjectID `bson:"planoId,omitempty" json:"planoId,omitempty"`
	Status      RenewalStatus       `bson:"status" json:"status"`
	Notes       string              `bson:"observacoes,omitempty" json:"observacoes,omitempty"`
	PaymentLink string              `bson:"paymentLink,omitempty" json:"paymentLink,omitempty"`
	Proof       *PaymentProof       `bson:"proof,omitempty" json:"proof,omitempty"`
	AdminID     *primitive.ObjectID `bson:"adminId,omitempty" json:"adminId,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
	ProcessedAt *time.Time          `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
}
