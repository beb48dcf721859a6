package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"dispatch-backend/pkg/apierrors"
)

// Credentials identify one gateway instance. They come from the stored
// WhatsApp settings, not from this package.
type Credentials struct {
	InstanceID   string
	APIToken     string
	SenderNumber string
}

// Document is one uploaded file to attach to a dispatch.
type Document struct {
	Name    string
	Content []byte
}

// SingleMessage is a dispatch of one or more documents to one recipient.
type SingleMessage struct {
	Recipient    string
	SectionCode  string
	ScheduleDate string
	ScheduleTime string
	Documents    []Document
}

// BulkMessage is a dispatch of documents to a list of recipients parsed
// from CSV.
type BulkMessage struct {
	SectionCode  string
	Recipients   []string
	Documents    []Document
	ScheduleDate string
	ScheduleTime string
}

// SendResult is the gateway's acknowledgement of a single send.
type SendResult struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// BulkResult carries the gateway's aggregate counts for a bulk send.
type BulkResult struct {
	SuccessCount int `json:"successCount"`
	FailedCount  int `json:"failedCount"`
	TotalNumbers int `json:"totalNumbers"`
}

// gatewayError is the error envelope the gateway returns on non-2xx.
type gatewayError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Client is a thin HTTP client for the WhatsApp gateway. It owns no
// retry or rate-limit policy; the dispatch service composes those
// around it.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SendMessage dispatches documents to a single recipient.
func (c *Client) SendMessage(ctx context.Context, creds Credentials, msg SingleMessage) (*SendResult, error) {
	body, contentType, err := buildMultipart(map[string]string{
		"recipient":    msg.Recipient,
		"sectionCode":  msg.SectionCode,
		"scheduleDate": msg.ScheduleDate,
		"scheduleTime": msg.ScheduleTime,
		"instanceId":   creds.InstanceID,
		"sender":       creds.SenderNumber,
	}, msg.Documents)
	if err != nil {
		return nil, err
	}

	var result SendResult
	if err := c.post(ctx, "/api/v1/messages/send", creds, body, contentType, &result); err != nil {
		return nil, err
	}

	if result.Status == "failed" {
		return nil, apierrors.New(apierrors.KindDelivery, "Message was not delivered")
	}

	return &result, nil
}

// SendBulk dispatches documents to every recipient in one gateway call.
// The gateway reports aggregate counts; partial failure is not an error.
func (c *Client) SendBulk(ctx context.Context, creds Credentials, msg BulkMessage) (*BulkResult, error) {
	body, contentType, err := buildMultipart(map[string]string{
		"sectionCode":  msg.SectionCode,
		"recipients":   strings.Join(msg.Recipients, ","),
		"scheduleDate": msg.ScheduleDate,
		"scheduleTime": msg.ScheduleTime,
		"instanceId":   creds.InstanceID,
		"sender":       creds.SenderNumber,
	}, msg.Documents)
	if err != nil {
		return nil, err
	}

	var result BulkResult
	if err := c.post(ctx, "/api/v1/messages/send-bulk", creds, body, contentType, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// CheckConnection verifies the credentials against the gateway.
func (c *Client) CheckConnection(ctx context.Context, creds Credentials) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/instance/status", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIToken)
	req.Header.Set("X-Instance-ID", creds.InstanceID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierrors.Wrap(apierrors.KindNetwork, "Could not reach WhatsApp gateway", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyResponse(resp)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, creds Credentials, body *bytes.Buffer, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+creds.APIToken)
	req.Header.Set("X-Instance-ID", creds.InstanceID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response received at all
		return apierrors.Wrap(apierrors.KindNetwork, "Could not reach WhatsApp gateway", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierrors.Wrap(apierrors.KindUnknown, "Unexpected gateway response", err)
	}

	return nil
}

// classifyResponse funnels every non-2xx gateway response through the
// central status classifier.
func classifyResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var ge gatewayError
	message := ""
	if err := json.Unmarshal(raw, &ge); err == nil {
		message = ge.Message
	}

	apiErr := apierrors.FromStatus(resp.StatusCode, message)
	apiErr.Err = fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	return apiErr
}

func buildMultipart(fields map[string]string, documents []Document) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}

	for _, doc := range documents {
		part, err := writer.CreateFormFile("documents", doc.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(doc.Content); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}
