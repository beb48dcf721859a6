package services

import (
	"context"
	"errors"
	"time"

	"dispatch-backend/internal/models"
	"dispatch-backend/internal/whatsapp"
	"dispatch-backend/pkg/apierrors"
)

// Gateway is the slice of the WhatsApp client the services need. Tests
// substitute a fake.
type Gateway interface {
	SendMessage(ctx context.Context, creds whatsapp.Credentials, msg whatsapp.SingleMessage) (*whatsapp.SendResult, error)
	SendBulk(ctx context.Context, creds whatsapp.Credentials, msg whatsapp.BulkMessage) (*whatsapp.BulkResult, error)
	CheckConnection(ctx context.Context, creds whatsapp.Credentials) error
}

// SettingsStore is the settings persistence surface used by services.
type SettingsStore interface {
	Get() (*models.WhatsAppSettings, error)
	Upsert(settings *models.WhatsAppSettings) (*models.WhatsAppSettings, error)
	SetConnected(connected bool) error
}

type SettingsService struct {
	settingsRepo SettingsStore
	gateway      Gateway
}

func NewSettingsService(settingsRepo SettingsStore, gateway Gateway) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		gateway:      gateway,
	}
}

type UpdateSettingsRequest struct {
	InstanceID   string `json:"instanceId" validate:"required"`
	APIToken     string `json:"apiToken" validate:"required"`
	SenderNumber string `json:"senderNumber" validate:"required,e164"`
}

func (s *SettingsService) GetSettings() (*models.WhatsAppSettings, error) {
	return s.settingsRepo.Get()
}

// UpdateSettings stores new gateway credentials and immediately verifies
// them against the gateway. Saving succeeds even when verification fails;
// the connected flag records the outcome.
func (s *SettingsService) UpdateSettings(ctx context.Context, req *UpdateSettingsRequest) (*models.WhatsAppSettings, error) {
	settings := &models.WhatsAppSettings{
		InstanceID:   req.InstanceID,
		APIToken:     req.APIToken,
		SenderNumber: req.SenderNumber,
	}

	saved, err := s.settingsRepo.Upsert(settings)
	if err != nil {
		return nil, err
	}

	if err := s.verifyConnection(ctx, saved); err == nil {
		saved.Connected = true
		now := time.Now()
		saved.LastVerifiedAt = &now
	} else {
		saved.Connected = false
	}

	return saved, nil
}

// TestConnection checks the stored credentials against the gateway and
// updates the connected flag.
func (s *SettingsService) TestConnection(ctx context.Context) error {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		return errors.New("whatsapp settings not configured")
	}

	return s.verifyConnection(ctx, settings)
}

func (s *SettingsService) verifyConnection(ctx context.Context, settings *models.WhatsAppSettings) error {
	creds := whatsapp.Credentials{
		InstanceID:   settings.InstanceID,
		APIToken:     settings.APIToken,
		SenderNumber: settings.SenderNumber,
	}

	err := s.gateway.CheckConnection(ctx, creds)
	if err != nil {
		s.settingsRepo.SetConnected(false)
		if apierrors.KindOf(err) == apierrors.KindAuthentication {
			return apierrors.New(apierrors.KindAuthentication, "gateway rejected the stored credentials")
		}
		return err
	}

	return s.settingsRepo.SetConnected(true)
}
