package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanAssignment binds a trainer to a plan instance with its own validity window.
// Active is a soft flag: an assignment with Active == true but an expiry date in
// the past contributes zero slots, so every slot computation must combine both.
type PlanAssignment struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TrainerID         primitive.ObjectID  `bson:"personalId" json:"personalId"`
	PlanID            primitive.ObjectID  `bson:"planoId" json:"planoId"`
	StartDate         time.Time           `bson:"dataInicio" json:"dataInicio"`
	ExpiryDate        time.Time           `bson:"dataVencimento" json:"dataVencimento"` // Invariant: > StartDate
	Active            bool                `bson:"ativo" json:"ativo"`
	AssignedByAdminID *primitive.ObjectID `bson:"atribuidoPorAdminId,omitempty" json:"atribuidoPorAdminId,omitempty"` // Absent for automatic free-tier grants
	Reason            string              `bson:"motivo,omitempty" json:"motivo,omitempty"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Expired reports whether the assignment's validity window has closed.
func (a *PlanAssignment) Expired(now time.Time) bool {
	return !a.ExpiryDate.After(now)
}

// IsCurrent reports whether the assignment counts toward the trainer's limit.
func (a *PlanAssignment) IsCurrent(now time.Time) bool {
	return a.Active && !a.Expired(now)
}
