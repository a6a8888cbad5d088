package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"glowRoutineAPI/internal/metrics"
	"glowRoutineAPI/internal/notification"
)

// NotificationService is the notification capability used by the reminder
// scheduler and the ledger. Every delivery targets one user: push goes to the
// devices that user registered, and the fallback banner lands in that user's
// feed only.
type NotificationService struct {
	mu         sync.RWMutex
	devices    map[string]map[string]notification.DeviceToken
	owners     map[string]string
	banners    *notification.BannerFeed
	dispatcher *NotificationDispatcher
}

func NewNotificationService(banners *notification.BannerFeed) *NotificationService {
	return &NotificationService{
		devices: make(map[string]map[string]notification.DeviceToken),
		owners:  make(map[string]string),
		banners: banners,
	}
}

// SetPushProvider enables the push channel. Call Stop to release the workers.
func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatcher != nil {
		s.dispatcher.Stop()
	}
	s.dispatcher = NewNotificationDispatcher(provider, s.showBanner)
}

// RegisterDevice attaches a token to userID. A token already registered by
// another user moves to userID, since the device changed hands.
func (s *NotificationService) RegisterDevice(userID string, req notification.RegisterDeviceRequest) (notification.DeviceToken, error) {
	if userID == "" {
		return notification.DeviceToken{}, ErrNotAuthenticated
	}
	if err := req.Validate(); err != nil {
		return notification.DeviceToken{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	token := notification.DeviceToken{
		UserID:       userID,
		Token:        req.Token,
		Platform:     req.Platform,
		RegisteredAt: time.Now(),
	}

	s.mu.Lock()
	if prev, ok := s.owners[req.Token]; ok && prev != userID {
		s.removeLocked(prev, req.Token)
	}
	if s.devices[userID] == nil {
		s.devices[userID] = make(map[string]notification.DeviceToken)
	}
	s.devices[userID][req.Token] = token
	s.owners[req.Token] = userID
	s.mu.Unlock()

	log.Printf("Registered %s device for user %s", req.Platform, userID)
	return token, nil
}

// UnregisterDevice removes one of userID's tokens. Tokens owned by other
// users are left alone.
func (s *NotificationService) UnregisterDevice(userID, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owners[token] != userID {
		return false
	}
	s.removeLocked(userID, token)
	return true
}

func (s *NotificationService) removeLocked(userID, token string) {
	delete(s.devices[userID], token)
	if len(s.devices[userID]) == 0 {
		delete(s.devices, userID)
	}
	delete(s.owners, token)
}

func (s *NotificationService) Devices(userID string) []notification.DeviceToken {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]notification.DeviceToken, 0, len(s.devices[userID]))
	for _, d := range s.devices[userID] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })
	return out
}

// Show delivers a notification to userID on the best available channel.
// Transport failures are absorbed by falling back to a banner, so it only
// fails on a cancelled context or a missing user.
func (s *NotificationService) Show(ctx context.Context, userID, title, body string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID == "" {
		return ErrNotAuthenticated
	}

	notif := &notification.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      notificationType(data),
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: time.Now(),
	}

	s.mu.RLock()
	dispatcher := s.dispatcher
	s.mu.RUnlock()
	tokens := s.Devices(userID)

	if dispatcher != nil && len(tokens) > 0 {
		dispatcher.Dispatch(notif, tokens)
		return nil
	}

	s.showBanner(notif)
	return nil
}

// Toast posts a short confirmation banner for userID.
func (s *NotificationService) Toast(userID, message string) {
	if userID == "" {
		return
	}
	s.banners.Push(userID, "", message, map[string]any{"type": string(notification.TypeConfirmation)})
	metrics.NotificationsDelivered.WithLabelValues("toast").Inc()
}

func (s *NotificationService) Banners(userID string) []notification.Banner {
	return s.banners.Active(userID)
}

// PruneBanners drops expired banners of every user.
func (s *NotificationService) PruneBanners() int {
	return s.banners.PruneExpired()
}

func (s *NotificationService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatcher != nil {
		s.dispatcher.Stop()
		s.dispatcher = nil
	}
}

func (s *NotificationService) showBanner(n *notification.Notification) {
	s.banners.Push(n.UserID, n.Title, n.Body, n.Data)
	metrics.NotificationsDelivered.WithLabelValues("banner").Inc()
}

func notificationType(data map[string]any) notification.NotificationType {
	if t, ok := data["type"].(string); ok && t != "" {
		return notification.NotificationType(t)
	}
	if _, ok := data["reminderId"]; ok {
		return notification.TypeReminder
	}
	return notification.TypeConfirmation
}
