package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is a fire-and-forget message to a user. No lifecycle beyond
// read/unread.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Message   string             `bson:"mensagem" json:"mensagem"`
	Read      bool               `bson:"lida" json:"lida"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
