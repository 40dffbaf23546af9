package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SlotSource identifies where a consumed slot came from.
type SlotSource string

const (
	SourcePlan  SlotSource = "plano"
	SourceToken SlotSource = "avulso"
)

// TokenAssignment records that one slot (from the plan or from a token) has
// been consumed by one specific active student. StudentID is unique at the
// storage layer, enforcing at-most-one-active-grant-per-student.
type TokenAssignment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	// TokenID is set only for avulso assignments; plan-sourced slots have no
	// backing token document.
	TokenID    *primitive.ObjectID `bson:"tokenId,omitempty" json:"tokenId,omitempty"`
	StudentID  primitive.ObjectID  `bson:"alunoId" json:"alunoId"` // Unique
	TrainerID  primitive.ObjectID  `bson:"personalId" json:"personalId"`
	Type       SlotSource          `bson:"tipo" json:"tipo"`
	// ValidUntil is informational only: actual validity is re-derived from the
	// plan/token expiry at evaluation time, so a deactivated token cannot keep
	// a stale grant alive.
	ValidUntil time.Time `bson:"validoAte" json:"validoAte"`
	AssignedAt time.Time `bson:"atribuidoEm" json:"atribuidoEm"`
}
