package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanKind distinguishes the automatic free tier from paid plans.
type PlanKind string

const (
	PlanFree PlanKind = "free"
	PlanPaid PlanKind = "paid"
)

// Plan is an admin-managed subscription plan definition.
// Once referenced by an assignment only the Active flag may change.
type Plan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"nome" json:"nome"` // Unique
	Description  string             `bson:"descricao,omitempty" json:"descricao,omitempty"`
	StudentLimit int                `bson:"limiteAlunos" json:"limiteAlunos"` // >= 0
	Price        float64            `bson:"preco" json:"preco"`               // >= 0
	DurationDays int                `bson:"duracaoDias" json:"duracaoDias"`   // >= 1
	Kind         PlanKind           `bson:"tipo" json:"tipo"`
	Active       bool               `bson:"ativo" json:"ativo"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
