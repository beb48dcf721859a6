package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dispatch-backend/pkg/apierrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{
	InstanceID:   "inst-1",
	APIToken:     "token-1",
	SenderNumber: "+15550001111",
}

func testMessage() SingleMessage {
	return SingleMessage{
		Recipient:    "+15552223333",
		SectionCode:  "REV",
		ScheduleDate: "2026-09-01",
		ScheduleTime: "10:30",
		Documents:    []Document{{Name: "order.pdf", Content: []byte("%PDF-1.4")}},
	}
}

func TestSendMessage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/messages/send", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "inst-1", r.Header.Get("X-Instance-ID"))

		err := r.ParseMultipartForm(1 << 20)
		require.NoError(t, err)
		assert.Equal(t, "+15552223333", r.FormValue("recipient"))
		assert.Equal(t, "REV", r.FormValue("sectionCode"))
		require.Len(t, r.MultipartForm.File["documents"], 1)
		assert.Equal(t, "order.pdf", r.MultipartForm.File["documents"][0].Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messageId":"wa-123","status":"sent"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.SendMessage(context.Background(), testCreds, testMessage())

	require.NoError(t, err)
	assert.Equal(t, "wa-123", result.MessageID)
	assert.Equal(t, "sent", result.Status)
}

func TestSendMessage_DeliveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messageId":"wa-124","status":"failed"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.SendMessage(context.Background(), testCreds, testMessage())

	require.Error(t, err)
	assert.Equal(t, apierrors.KindDelivery, apierrors.KindOf(err))
}

func TestSendMessage_ErrorClassification(t *testing.T) {
	tests := []struct {
		status   int
		expected apierrors.Kind
	}{
		{http.StatusBadRequest, apierrors.KindValidation},
		{http.StatusUnauthorized, apierrors.KindAuthentication},
		{http.StatusForbidden, apierrors.KindAuthorization},
		{http.StatusNotFound, apierrors.KindNotFound},
		{http.StatusTooManyRequests, apierrors.KindRateLimit},
		{http.StatusInternalServerError, apierrors.KindServer},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"success":false,"message":"gateway says no"}`))
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second)
			_, err := client.SendMessage(context.Background(), testCreds, testMessage())

			require.Error(t, err)
			assert.Equal(t, tt.expected, apierrors.KindOf(err))

			var apiErr *apierrors.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, "gateway says no", apiErr.Message)
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestSendMessage_NetworkError(t *testing.T) {
	// Point at a closed server so the request never gets a response
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.SendMessage(context.Background(), testCreds, testMessage())

	require.Error(t, err)
	assert.Equal(t, apierrors.KindNetwork, apierrors.KindOf(err))
}

func TestSendBulk_AggregateCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/messages/send-bulk", r.URL.Path)

		err := r.ParseMultipartForm(1 << 20)
		require.NoError(t, err)
		assert.Equal(t, "+15550000001,+15550000002,+15550000003", r.FormValue("recipients"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"successCount":2,"failedCount":1,"totalNumbers":3}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.SendBulk(context.Background(), testCreds, BulkMessage{
		SectionCode: "REV",
		Recipients:  []string{"+15550000001", "+15550000002", "+15550000003"},
		Documents:   []Document{{Name: "circular.pdf", Content: []byte("%PDF-1.4")}},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 3, result.TotalNumbers)
}

func TestCheckConnection(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/instance/status", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second)
		assert.NoError(t, client.CheckConnection(context.Background(), testCreds))
	})

	t.Run("bad credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, 5*time.Second)
		err := client.CheckConnection(context.Background(), testCreds)
		require.Error(t, err)
		assert.Equal(t, apierrors.KindAuthentication, apierrors.KindOf(err))
	})
}
