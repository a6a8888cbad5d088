package notification

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	TypeReminder     NotificationType = "reminder"
	TypeAchievement  NotificationType = "achievement"
	TypeConfirmation NotificationType = "confirmation"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Data      map[string]any   `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type DeviceToken struct {
	UserID       string    `json:"user_id"`
	Token        string    `json:"token"`
	Platform     string    `json:"platform"`
	RegisteredAt time.Time `json:"registered_at"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// ValidPlatform accepts the FCM platforms and sms.
func ValidPlatform(p string) bool {
	switch p {
	case "ios", "android", "web", PlatformSMS:
		return true
	}
	return false
}

// Validate checks the platform, and for sms that the token is a phone number.
func (r RegisterDeviceRequest) Validate() error {
	if r.Token == "" {
		return fmt.Errorf("token is required")
	}
	if !ValidPlatform(r.Platform) {
		return fmt.Errorf("unsupported platform %q", r.Platform)
	}
	if r.Platform == PlatformSMS && !ValidPhoneNumber(r.Token) {
		return fmt.Errorf("sms token must be an E.164 phone number")
	}
	return nil
}
