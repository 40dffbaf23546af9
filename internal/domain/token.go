package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token is a supplementary, time-boxed grant of extra student slots,
// independent of the trainer's subscription plan. A trainer may hold
// several tokens at once; each expires on its own date.
type Token struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID        primitive.ObjectID `bson:"personalId" json:"personalId"`
	Quantity         int                `bson:"quantidade" json:"quantidade"` // >= 1
	ExpiryDate       time.Time          `bson:"dataVencimento" json:"dataVencimento"`
	Active           bool               `bson:"ativo" json:"ativo"`
	Reason           string             `bson:"motivo,omitempty" json:"motivo,omitempty"`
	GrantedByAdminID primitive.ObjectID `bson:"concedidoPorAdminId" json:"concedidoPorAdminId"`
	// LegacyID is the stable identifier of the legacy record this token was
	// migrated from. Used by the migration service to stay idempotent.
	LegacyID  string    `bson:"legadoId,omitempty" json:"legadoId,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Valid reports whether the token still contributes slots.
func (t *Token) Valid(now time.Time) bool {
	return t.Active && t.ExpiryDate.After(now)
}

// LegacyToken is the pre-migration token shape kept in its own collection.
// The migration service converts these into Token ledger entries.
type LegacyToken struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty"`
	TrainerID        primitive.ObjectID  `bson:"personalTrainerId"`
	StudentID        *primitive.ObjectID `bson:"alunoId,omitempty"`
	Quantity         int                 `bson:"quantidade,omitempty"`
	ExpiryDate       time.Time           `bson:"validade,omitempty"`
	GrantedByAdminID primitive.ObjectID  `bson:"adminId,omitempty"`
	Reason           string              `bson:"motivo,omitempty"`
}
