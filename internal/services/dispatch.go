package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	"dispatch-backend/internal/models"
	"dispatch-backend/internal/whatsapp"
	"dispatch-backend/pkg/apierrors"
	"dispatch-backend/pkg/resilience"
)

// MessageStore is the log persistence surface used by the dispatch
// service. Tests substitute a fake.
type MessageStore interface {
	Create(entry *models.MessageLog) (*models.MessageLog, error)
}

// LogNotifier pushes new log entries to connected consoles. Optional.
type LogNotifier interface {
	BroadcastLog(entry *models.MessageLog)
}

// DispatchConfig tunes the resilience envelope around the gateway.
// Defaults match the console's production quotas; tests shrink the
// windows.
type DispatchConfig struct {
	SendLimit  int
	SendWindow time.Duration
	BulkLimit  int
	BulkWindow time.Duration

	BreakerThreshold int
	BreakerReset     time.Duration

	SingleRetryAttempts int
	BulkRetryAttempts   int
	RetryBaseDelay      time.Duration
}

func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		SendLimit:  5,
		SendWindow: 30 * time.Second,
		BulkLimit:  3,
		BulkWindow: 60 * time.Second,

		BreakerThreshold: 5,
		BreakerReset:     30 * time.Second,

		SingleRetryAttempts: 3,
		BulkRetryAttempts:   2,
		RetryBaseDelay:      time.Second,
	}
}

// DispatchService composes the rate limiter, circuit breaker and retry
// utilities around the WhatsApp gateway client. Single and bulk sends
// carry separate per-user quotas but share one breaker, since both talk
// to the same downstream.
type DispatchService struct {
	gateway      Gateway
	settingsRepo SettingsStore
	messageRepo  MessageStore
	notifier     LogNotifier

	config      DispatchConfig
	sendLimiter *resilience.RateLimiter
	bulkLimiter *resilience.RateLimiter
	breaker     *resilience.CircuitBreaker
}

func NewDispatchService(gateway Gateway, settingsRepo SettingsStore, messageRepo MessageStore, notifier LogNotifier, config DispatchConfig) *DispatchService {
	return &DispatchService{
		gateway:      gateway,
		settingsRepo: settingsRepo,
		messageRepo:  messageRepo,
		notifier:     notifier,
		config:       config,
		sendLimiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
			MaxRequests: config.SendLimit,
			Window:      config.SendWindow,
		}),
		bulkLimiter: resilience.NewRateLimiter(resilience.RateLimiterConfig{
			MaxRequests: config.BulkLimit,
			Window:      config.BulkWindow,
		}),
		breaker: resilience.NewCircuitBreaker(config.BreakerThreshold, config.BreakerReset),
	}
}

type SendRequest struct {
	Recipient    string `validate:"required"`
	SectionCode  string `validate:"required"`
	ScheduleDate string
	ScheduleTime string
	Documents    []whatsapp.Document `validate:"required,min=1"`
}

type BulkRequest struct {
	SectionCode  string `validate:"required"`
	ScheduleDate string
	ScheduleTime string
	Recipients   io.Reader           // CSV payload
	Documents    []whatsapp.Document `validate:"required,min=1"`
}

// Send dispatches documents to a single recipient. The per-user quota is
// checked before any network I/O; a rejection costs nothing downstream.
func (s *DispatchService) Send(ctx context.Context, userID string, req *SendRequest) (*models.MessageLog, error) {
	uid := limiterID(userID)

	if !s.sendLimiter.Allow(uid, "send_message") {
		err := rateLimitError(s.sendLimiter.RemainingTime(uid, "send_message"))
		s.logDispatch(uid, req.SectionCode, req.Recipient, documentNames(req.Documents), req.ScheduleDate, req.ScheduleTime,
			models.MessageKindSingle, models.MessageStatusRejected, err.Error(), "")
		return nil, err
	}

	creds, err := s.credentials()
	if err != nil {
		return nil, err
	}

	msg := whatsapp.SingleMessage{
		Recipient:    req.Recipient,
		SectionCode:  req.SectionCode,
		ScheduleDate: req.ScheduleDate,
		ScheduleTime: req.ScheduleTime,
		Documents:    req.Documents,
	}

	var result *whatsapp.SendResult
	err = resilience.RetryWithBackoff(ctx, func(ctx context.Context) error {
		return s.breaker.Execute(ctx, func(ctx context.Context) error {
			var sendErr error
			result, sendErr = s.gateway.SendMessage(ctx, creds, msg)
			return sendErr
		})
	}, s.config.SingleRetryAttempts, s.config.RetryBaseDelay)

	if err != nil {
		err = s.translateGatewayError(err)
		s.logDispatch(uid, req.SectionCode, req.Recipient, documentNames(req.Documents), req.ScheduleDate, req.ScheduleTime,
			models.MessageKindSingle, models.MessageStatusFailed, err.Error(), "")
		return nil, err
	}

	entry := s.logDispatch(uid, req.SectionCode, req.Recipient, documentNames(req.Documents), req.ScheduleDate, req.ScheduleTime,
		models.MessageKindSingle, models.MessageStatusSent, "", result.MessageID)
	return entry, nil
}

// SendBulk parses the CSV recipient list and dispatches documents to all
// of them in one gateway call.
func (s *DispatchService) SendBulk(ctx context.Context, userID string, req *BulkRequest) (*models.BulkReport, error) {
	uid := limiterID(userID)

	if !s.bulkLimiter.Allow(uid, "file-upload") {
		err := rateLimitError(s.bulkLimiter.RemainingTime(uid, "file-upload"))
		s.logDispatch(uid, req.SectionCode, "", documentNames(req.Documents), req.ScheduleDate, req.ScheduleTime,
			models.MessageKindBulk, models.MessageStatusRejected, err.Error(), "")
		return nil, err
	}

	recipients, err := ParseRecipients(req.Recipients)
	if err != nil {
		return nil, err
	}

	creds, err := s.credentials()
	if err != nil {
		return nil, err
	}

	msg := whatsapp.BulkMessage{
		SectionCode:  req.SectionCode,
		Recipients:   recipients,
		Documents:    req.Documents,
		ScheduleDate: req.ScheduleDate,
		ScheduleTime: req.ScheduleTime,
	}

	var result *whatsapp.BulkResult
	err = resilience.RetryWithBackoff(ctx, func(ctx context.Context) error {
		return s.breaker.Execute(ctx, func(ctx context.Context) error {
			var sendErr error
			result, sendErr = s.gateway.SendBulk(ctx, creds, msg)
			return sendErr
		})
	}, s.config.BulkRetryAttempts, s.config.RetryBaseDelay)

	if err != nil {
		err = s.translateGatewayError(err)
		for _, recipient := range recipients {
			s.logDispatch(uid, req.SectionCode, recipient, documentNames(req.Documents), req.ScheduleDate, req.ScheduleTime,
				models.MessageKindBulk, models.MessageStatusFailed, err.Error(), "")
		}
		return nil, err
	}

	for _, recipient := range recipients {
		s.logDispatch(uid, req.SectionCode, recipient, documentNames(req.Documents), req.ScheduleDate, req.ScheduleTime,
			models.MessageKindBulk, models.MessageStatusSent, "", "")
	}

	return &models.BulkReport{
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
		TotalNumbers: result.TotalNumbers,
	}, nil
}

// RemainingSends reports how many single sends the user has left in the
// current window.
func (s *DispatchService) RemainingSends(userID string) int {
	return s.sendLimiter.RemainingRequests(limiterID(userID), "send_message")
}

// BreakerState exposes the shared breaker state for the health endpoint.
func (s *DispatchService) BreakerState() resilience.State {
	return s.breaker.GetState()
}

func limiterID(userID string) string {
	if userID == "" {
		return "anonymous"
	}
	return userID
}

// rateLimitError reports the wait rounded up to whole seconds.
func rateLimitError(remaining time.Duration) *apierrors.Error {
	seconds := int(math.Ceil(remaining.Seconds()))
	return apierrors.New(apierrors.KindRateLimit,
		fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", seconds))
}

func (s *DispatchService) credentials() (whatsapp.Credentials, error) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		return whatsapp.Credentials{}, apierrors.New(apierrors.KindValidation, "WhatsApp gateway is not configured")
	}

	return whatsapp.Credentials{
		InstanceID:   settings.InstanceID,
		APIToken:     settings.APIToken,
		SenderNumber: settings.SenderNumber,
	}, nil
}

// translateGatewayError maps infrastructure failures onto user-facing
// errors. A 401 from the gateway flips the stored credentials to
// disconnected so the admin console prompts for reconnection.
func (s *DispatchService) translateGatewayError(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return apierrors.Wrap(apierrors.KindServer, "Service temporarily unavailable. Please try again later", err)
	}

	if apierrors.KindOf(err) == apierrors.KindAuthentication {
		s.settingsRepo.SetConnected(false)
	}

	return err
}

func (s *DispatchService) logDispatch(userID, sectionCode, recipient string, documents []string, scheduleDate, scheduleTime, kind, status, errText, gatewayID string) *models.MessageLog {
	entry := &models.MessageLog{
		UserID:           userID,
		SectionCode:      sectionCode,
		Recipient:        recipient,
		Documents:        documents,
		ScheduleDate:     scheduleDate,
		ScheduleTime:     scheduleTime,
		Kind:             kind,
		Status:           status,
		Error:            errText,
		GatewayMessageID: gatewayID,
		Timestamp:        time.Now(),
	}

	stored, err := s.messageRepo.Create(entry)
	if err != nil {
		// Logging must never fail the dispatch itself
		stored = entry
	}

	if s.notifier != nil {
		s.notifier.BroadcastLog(stored)
	}

	return stored
}

func documentNames(documents []whatsapp.Document) []string {
	names := make([]string, 0, len(documents))
	for _, doc := range documents {
		names = append(names, doc.Name)
	}
	return names
}

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ParseRecipients extracts phone numbers from a CSV payload. Any cell
// that looks like a phone number counts, which tolerates header rows and
// extra columns. Duplicates are dropped, order is preserved.
func ParseRecipients(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	seen := make(map[string]bool)
	var recipients []string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apierrors.Wrap(apierrors.KindValidation, "Could not parse the recipient CSV file", err)
		}

		for _, field := range record {
			number := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(field))
			if !phonePattern.MatchString(number) {
				continue
			}
			if seen[number] {
				continue
			}
			seen[number] = true
			recipients = append(recipients, number)
		}
	}

	if len(recipients) == 0 {
		return nil, apierrors.New(apierrors.KindValidation, "No valid recipient numbers found in the CSV file")
	}

	return recipients, nil
}
