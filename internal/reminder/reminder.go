package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeMorning Type = "morning"
	TypeEvening Type = "evening"
	TypeCustom  Type = "custom"
)

// MaxAge is how long a reminder survives in storage, fired or not.
const MaxAge = 24 * time.Hour

// keySeparator joins the base storage key and the user id.
const keySeparator = ":"

// StorageKey is the key one user's reminder list is stored under.
func StorageKey(baseKey, userID string) string {
	return baseKey + keySeparator + userID
}

// KeyPrefix is the prefix shared by every user's StorageKey.
func KeyPrefix(baseKey string) string {
	return baseKey + keySeparator
}

// UserFromKey reverses StorageKey. It reports false for keys of another base
// or without a user id.
func UserFromKey(baseKey, key string) (string, bool) {
	userID, ok := strings.CutPrefix(key, KeyPrefix(baseKey))
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

var defaultTitles = map[Type]string{
	TypeMorning: "🌅 Morning routine",
	TypeEvening: "🌙 Night routine",
	TypeCustom:  "⏰ Reminder",
}

func (t Type) Valid() bool {
	_, ok := defaultTitles[t]
	return ok
}

// DefaultTitle returns the label used when a reminder is created without one.
func (t Type) DefaultTitle() string {
	return defaultTitles[t]
}

type Reminder struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Type      Type   `json:"type"`
	When      int64  `json:"when"`
	Fired     bool   `json:"fired"`
	CreatedAt int64  `json:"createdAt"`
}

// New builds an unfired reminder. An empty title falls back to the type label.
func New(t Type, when int64, title string, now time.Time) Reminder {
	if title == "" {
		title = t.DefaultTitle()
	}
	return Reminder{
		ID:        "reminder-" + uuid.NewString(),
		Title:     title,
		Type:      t,
		When:      when,
		Fired:     false,
		CreatedAt: now.UnixMilli(),
	}
}

func (r Reminder) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("reminder id is required")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("invalid reminder type %q", r.Type)
	}
	if r.When <= 0 {
		return fmt.Errorf("reminder time must be a positive unix millisecond timestamp")
	}
	return nil
}

// Expired reports whether the reminder is older than MaxAge at now.
func (r Reminder) Expired(now time.Time) bool {
	return now.UnixMilli()-r.CreatedAt >= MaxAge.Milliseconds()
}

// Pending reports whether the reminder still needs a timer at now.
func (r Reminder) Pending(now time.Time) bool {
	return !r.Fired && r.When > now.UnixMilli()
}

// TimeUntil renders the remaining time the way the reminder list shows it.
func TimeUntil(when int64, now time.Time) string {
	diff := when - now.UnixMilli()
	if diff <= 0 {
		return "expired"
	}
	minutes := diff / 1000 / 60
	hours := minutes / 60
	days := hours / 24
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}
