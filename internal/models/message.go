package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message kinds
const (
	MessageKindSingle = "single"
	MessageKindBulk   = "bulk"
)

// Message statuses
const (
	MessageStatusSent     = "sent"
	MessageStatusFailed   = "failed"
	MessageStatusRejected = "rejected" // blocked before any network attempt
)

// MessageLog records one dispatch attempt to one recipient.
type MessageLog struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           string             `bson:"user_id" json:"userId"`
	SectionCode      string             `bson:"section_code" json:"sectionCode"`
	Recipient        string             `bson:"recipient" json:"recipient"`
	Documents        []string           `bson:"documents" json:"documents"`
	ScheduleDate     string             `bson:"schedule_date,omitempty" json:"scheduleDate,omitempty"`
	ScheduleTime     string             `bson:"schedule_time,omitempty" json:"scheduleTime,omitempty"`
	Kind             string             `bson:"kind" json:"kind"`
	Status           string             `bson:"status" json:"status"`
	Error            string             `bson:"error,omitempty" json:"error,omitempty"`
	GatewayMessageID string             `bson:"gateway_message_id,omitempty" json:"gatewayMessageId,omitempty"`
	Timestamp        time.Time          `bson:"timestamp" json:"timestamp"`
}

// BulkReport carries the aggregate outcome of a bulk dispatch.
type BulkReport struct {
	SuccessCount int `json:"successCount"`
	FailedCount  int `json:"failedCount"`
	TotalNumbers int `json:"totalNumbers"`
}
