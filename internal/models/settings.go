package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WhatsAppSettings holds the gateway credentials used for dispatching.
// A single document exists per deployment.
type WhatsAppSettings struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InstanceID     string             `bson:"instance_id" json:"instanceId" validate:"required"`
	APIToken       string             `bson:"api_token" json:"-"`
	SenderNumber   string             `bson:"sender_number" json:"senderNumber" validate:"required"`
	Connected      bool               `bson:"connected" json:"connected"`
	LastVerifiedAt *time.Time         `bson:"last_verified_at,omitempty" json:"lastVerifiedAt,omitempty"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}
