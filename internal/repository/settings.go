package repository

import (
	"context"
	"errors"
	"time"

	"dispatch-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SettingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{
		collection: db.Collection("whatsapp_settings"),
	}
}

// Get returns the single settings document for this deployment.
func (r *SettingsRepository) Get() (*models.WhatsAppSettings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var settings models.WhatsAppSettings
	err := r.collection.FindOne(ctx, bson.M{}).Decode(&settings)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("whatsapp settings not configured")
		}
		return nil, err
	}

	return &settings, nil
}

// Upsert replaces the settings document, creating it on first save.
func (r *SettingsRepository) Upsert(settings *models.WhatsAppSettings) (*models.WhatsAppSettings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	settings.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"instance_id":      settings.InstanceID,
			"api_token":        settings.APIToken,
			"sender_number":    settings.SenderNumber,
			"connected":        settings.Connected,
			"last_verified_at": settings.LastVerifiedAt,
			"updated_at":       settings.UpdatedAt,
		},
	}

	result := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var updated models.WhatsAppSettings
	if err := result.Decode(&updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// SetConnected flips the connected flag, recording the verification time
// when the gateway confirmed the credentials.
func (r *SettingsRepository) SetConnected(connected bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	set := bson.M{
		"connected":  connected,
		"updated_at": time.Now(),
	}
	if connected {
		set["last_verified_at"] = time.Now()
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{}, bson.M{"$set": set})
	return err
}
