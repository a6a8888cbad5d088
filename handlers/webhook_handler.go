package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	svix "github.com/svix/svix-webhooks/go"

	"glowRoutineAPI/services"
)

const maxWebhookBody = int64(65536)

type clerkWebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WebhookHandler onboards users announced by Clerk: their routine document
// is seeded with the defaults and an empty progress ledger is created.
type WebhookHandler struct {
	routineService  *services.RoutineService
	progressService *services.ProgressService
	verifier        *svix.Webhook
}

// NewWebhookHandler accepts the signing secret in the "whsec_<base64>" form
// shown by the Clerk dashboard.
func NewWebhookHandler(routineService *services.RoutineService, progressService *services.ProgressService, secret string) (*WebhookHandler, error) {
	if strings.TrimPrefix(strings.TrimSpace(secret), "whsec_") == "" {
		return nil, fmt.Errorf("webhook secret is empty")
	}
	verifier, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook secret: %w", err)
	}
	return &WebhookHandler{
		routineService:  routineService,
		progressService: progressService,
		verifier:        verifier,
	}, nil
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	// Verify rejects missing svix headers, stale timestamps and bad signatures.
	if err := h.verifier.Verify(body, r.Header); err != nil {
		log.Printf("Invalid webhook signature: %v", err)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event clerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		http.Error(w, "Error parsing webhook", http.StatusBadRequest)
		return
	}

	log.Printf("Received webhook event: %s", event.Type)

	switch event.Type {
	case "user.created":
		if err := h.handleUserCreated(r.Context(), event.Data); err != nil {
			log.Printf("Error handling user.created: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}
	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

func (h *WebhookHandler) handleUserCreated(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	if userData.ID == "" {
		return fmt.Errorf("user.created without an id")
	}

	imported, err := h.routineService.CheckAndAutoImport(ctx, userData.ID)
	if err != nil {
		return fmt.Errorf("failed to seed routines: %w", err)
	}
	if h.progressService.GetProgressData(ctx, userData.ID) == nil {
		return fmt.Errorf("failed to create progress document: %w", services.ErrPersistence)
	}

	log.Printf("Onboarded user %s (default routines imported: %t)", userData.ID, imported)
	return nil
}
