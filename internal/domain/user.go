package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "personal"
	RoleStudent Role = "aluno"
)

// StudentStatus tracks whether a student currently occupies a slot.
type StudentStatus string

const (
	StudentActive   StudentStatus = "ativo"
	StudentInactive StudentStatus = "inativo"
)

// User represents a user in the system (Admin, Trainer or Student).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"nome" json:"nome"`
	Email        string             `bson:"email" json:"email"` // Should be unique
	PasswordHash string             `bson:"senhaHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Student-specific ---
	// The trainer managing this student. Only students with Status == ativo
	// count against the trainer's slot limit.
	TrainerID *primitive.ObjectID `bson:"personalId,omitempty" json:"personalId,omitempty"`
	Status    StudentStatus       `bson:"status,omitempty" json:"status,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
