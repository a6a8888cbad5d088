package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"

	"glowRoutineAPI/internal/store"
	"glowRoutineAPI/services"
)

var (
	webhookSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("clerk-signing-key"))
	otherSecret   = "whsec_" + base64.StdEncoding.EncodeToString([]byte("other"))
)

func newWebhookHandler(t *testing.T, docs store.DocumentStore) (*WebhookHandler, *services.RoutineService) {
	t.Helper()

	routineService := services.NewRoutineService(docs)
	progressService := services.NewProgressService(docs, time.UTC)
	h, err := NewWebhookHandler(routineService, progressService, webhookSecret)
	require.NoError(t, err)
	return h, routineService
}

// signedWebhook signs body the way Clerk does. The signature header carries
// a decoy entry first, as it does during secret rotation.
func signedWebhook(t *testing.T, body string, at time.Time, secret string) *http.Request {
	t.Helper()

	signer, err := svix.NewWebhook(secret)
	require.NoError(t, err)
	id := "msg_1"
	sig, err := signer.Sign(id, at, []byte(body))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/clerk", bytes.NewBufferString(body))
	req.Header.Set("svix-id", id)
	req.Header.Set("svix-timestamp", strconv.FormatInt(at.Unix(), 10))
	req.Header.Set("svix-signature", "v1,bogus "+sig)
	return req
}

func TestWebhook_UserCreatedOnboards(t *testing.T) {
	docs := store.NewMemoryStore()
	h, routines := newWebhookHandler(t, docs)

	rec := httptest.NewRecorder()
	h.HandleClerkWebhook(rec, signedWebhook(t, `{"type":"user.created","data":{"id":"user_42"}}`, time.Now(), webhookSecret))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := routines.GetRoutines(context.Background(), "user_42")
	require.NotNil(t, data)
	assert.NotEmpty(t, data.DailyRoutine)

	var ledger map[string]any
	found, err := docs.Get(context.Background(), store.CollectionProgress, "user_42", &ledger)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestWebhook_RejectsBadSignatures(t *testing.T) {
	now := time.Now()
	body := `{"type":"user.created","data":{"id":"user_42"}}`

	tampered := signedWebhook(t, body, now, webhookSecret)
	tampered.Body = http.NoBody

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"wrong key", signedWebhook(t, body, now, otherSecret)},
		{"stale timestamp", signedWebhook(t, body, now.Add(-time.Hour), webhookSecret)},
		{"future timestamp", signedWebhook(t, body, now.Add(time.Hour), webhookSecret)},
		{"tampered body", tampered},
		{"missing headers", httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/clerk", bytes.NewBufferString(body))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newWebhookHandler(t, store.NewMemoryStore())
			rec := httptest.NewRecorder()
			h.HandleClerkWebhook(rec, tt.req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	docs := store.NewMemoryStore()
	h, routines := newWebhookHandler(t, docs)

	rec := httptest.NewRecorder()
	h.HandleClerkWebhook(rec, signedWebhook(t, `{"type":"user.updated","data":{"id":"user_42"}}`, time.Now(), webhookSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, routines.GetRoutines(context.Background(), "user_42"))
}

func TestWebhook_StoreFailure(t *testing.T) {
	h, _ := newWebhookHandler(t, brokenStore{})

	rec := httptest.NewRecorder()
	h.HandleClerkWebhook(rec, signedWebhook(t, `{"type":"user.created","data":{"id":"user_42"}}`, time.Now(), webhookSecret))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNewWebhookHandler_InvalidSecret(t *testing.T) {
	_, err := NewWebhookHandler(nil, nil, "whsec_!!!")
	assert.Error(t, err)
	_, err = NewWebhookHandler(nil, nil, "whsec_")
	assert.Error(t, err)
	_, err = NewWebhookHandler(nil, nil, "")
	assert.Error(t, err)
}
