package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Section is an administrative department section that originates
// outgoing documents.
type Section struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code        string             `bson:"code" json:"code" validate:"required,min=2,max=20"`
	Name        string             `bson:"name" json:"name" validate:"required,min=2,max=100"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      string             `bson:"status" json:"status" validate:"required,oneof=active inactive"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
