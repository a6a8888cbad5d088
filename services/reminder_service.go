package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"glowRoutineAPI/internal/metrics"
	"glowRoutineAPI/internal/reminder"
	"glowRoutineAPI/internal/store"
)

const DefaultSnoozeMinutes = 5

// ReminderNotifier is the notification capability the scheduler fires into.
// Every call names the user the notification is for.
type ReminderNotifier interface {
	Show(ctx context.Context, userID, title, body string, data map[string]any) error
	Toast(userID, message string)
}

type armedTimer struct {
	timer *time.Timer
}

// ReminderScheduler owns one user's persisted reminder list and the
// in-process timers derived from it. The timer table starts empty and is
// rebuilt by InitReminders on every process start.
type ReminderScheduler struct {
	kv       store.KeyValueStore
	key      string
	userID   string
	notifier ReminderNotifier
	now      func() time.Time

	// listMu serializes read-modify-write cycles on the persisted list. It is
	// always taken before mu.
	listMu sync.Mutex

	mu     sync.Mutex
	timers map[string]*armedTimer
}

// NewReminderScheduler keeps userID's reminders under
// reminder.StorageKey(baseKey, userID).
func NewReminderScheduler(kv store.KeyValueStore, baseKey, userID string, notifier ReminderNotifier) *ReminderScheduler {
	return &ReminderScheduler{
		kv:       kv,
		key:      reminder.StorageKey(baseKey, userID),
		userID:   userID,
		notifier: notifier,
		now:      time.Now,
		timers:   make(map[string]*armedTimer),
	}
}

func (s *ReminderScheduler) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ReminderScheduler) UserID() string {
	return s.userID
}

// CreateReminder builds an unsaved reminder. Nothing is persisted or armed.
func (s *ReminderScheduler) CreateReminder(t reminder.Type, when int64, title string) reminder.Reminder {
	return reminder.New(t, when, title, s.now())
}

func (s *ReminderScheduler) AddReminder(ctx context.Context, r reminder.Reminder) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	s.listMu.Lock()
	defer s.listMu.Unlock()

	list := s.load(ctx)
	list = append(list, r)
	if err := s.save(ctx, list); err != nil {
		return err
	}

	s.ScheduleReminder(r)

	minutes := int(math.Ceil(float64(r.When-s.now().UnixMilli()) / 1000 / 60))
	s.notifier.Toast(s.userID, fmt.Sprintf("✅ Reminder scheduled in %d minutes", minutes))
	log.Printf("Reminder %s scheduled for %s", r.ID, time.UnixMilli(r.When).Format(time.RFC3339))
	return nil
}

// ScheduleReminder arms a timer for r, replacing any timer already armed for
// the same id. It returns false without arming when r is fired or due.
func (s *ReminderScheduler) ScheduleReminder(r reminder.Reminder) bool {
	remaining := time.Duration(r.When-s.now().UnixMilli()) * time.Millisecond
	if remaining <= 0 || r.Fired {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[r.ID]; ok {
		prev.timer.Stop()
	} else {
		metrics.RemindersArmed.Inc()
	}

	entry := &armedTimer{}
	entry.timer = time.AfterFunc(remaining, func() { s.onTimer(r, entry) })
	s.timers[r.ID] = entry
	return true
}

func (s *ReminderScheduler) onTimer(r reminder.Reminder, entry *armedTimer) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.fire(ctx, r, entry); err != nil {
		log.Printf("Reminder %s fired with errors: %v", r.ID, err)
	}
}

// FireReminder marks the persisted copy fired, clears the timer and shows the
// notification. Firing again re-sends the notification without another write.
func (s *ReminderScheduler) FireReminder(ctx context.Context, r reminder.Reminder) error {
	return s.fire(ctx, r, nil)
}

// fire with a non-nil entry only proceeds while entry is still the timer
// armed for r, so a callback superseded by a re-arm, delete or Close is dropped.
func (s *ReminderScheduler) fire(ctx context.Context, r reminder.Reminder, entry *armedTimer) error {
	var persistErr error

	s.listMu.Lock()
	if entry != nil && !s.owns(r.ID, entry) {
		s.listMu.Unlock()
		return nil
	}

	list := s.load(ctx)
	if idx := indexOf(list, r.ID); idx >= 0 && !list[idx].Fired {
		list[idx].Fired = true
		persistErr = s.save(ctx, list)
	}
	s.clearTimer(r.ID)
	s.listMu.Unlock()

	metrics.RemindersFired.WithLabelValues(string(r.Type)).Inc()

	showErr := s.notifier.Show(ctx, s.userID, "⏰ Skincare reminder", r.Title, map[string]any{"reminderId": r.ID})
	return errors.Join(persistErr, showErr)
}

func (s *ReminderScheduler) owns(id string, entry *armedTimer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[id] == entry
}

// SnoozeReminder pushes a reminder minutes into the future and re-arms it.
// An unknown id is a no-op.
func (s *ReminderScheduler) SnoozeReminder(ctx context.Context, id string, minutes int) error {
	if minutes <= 0 {
		minutes = DefaultSnoozeMinutes
	}

	s.listMu.Lock()
	defer s.listMu.Unlock()

	list := s.load(ctx)
	idx := indexOf(list, id)
	if idx < 0 {
		return nil
	}

	list[idx].When = s.now().Add(time.Duration(minutes) * time.Minute).UnixMilli()
	list[idx].Fired = false
	if err := s.save(ctx, list); err != nil {
		return err
	}

	s.ScheduleReminder(list[idx])
	s.notifier.Toast(s.userID, fmt.Sprintf("💤 Snoozed %d minutes", minutes))
	return nil
}

// DeleteReminder removes a reminder and its timer. An unknown id is a no-op.
func (s *ReminderScheduler) DeleteReminder(ctx context.Context, id string) error {
	s.listMu.Lock()
	defer s.listMu.Unlock()

	list := s.load(ctx)
	idx := indexOf(list, id)
	if idx < 0 {
		s.clearTimer(id)
		return nil
	}

	list = append(list[:idx], list[idx+1:]...)
	if err := s.save(ctx, list); err != nil {
		return err
	}

	s.clearTimer(id)
	s.notifier.Toast(s.userID, "🗑️ Reminder deleted")
	return nil
}

// InitReminders prunes stale entries and arms every unfired future reminder.
// It returns the number of timers armed.
func (s *ReminderScheduler) InitReminders(ctx context.Context) (int, error) {
	s.listMu.Lock()
	defer s.listMu.Unlock()

	list, err := s.prune(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	armed := 0
	for _, r := range list {
		if r.Pending(now) && s.ScheduleReminder(r) {
			armed++
		}
	}

	log.Printf("Reminders initialized for user %s: %d stored, %d armed", s.userID, len(list), armed)
	return armed, nil
}

// PruneExpired drops reminders created more than 24 hours ago, fired or not.
func (s *ReminderScheduler) PruneExpired(ctx context.Context) (int, error) {
	s.listMu.Lock()
	defer s.listMu.Unlock()

	before := len(s.load(ctx))
	list, err := s.prune(ctx)
	if err != nil {
		return 0, err
	}
	return before - len(list), nil
}

func (s *ReminderScheduler) prune(ctx context.Context) ([]reminder.Reminder, error) {
	list := s.load(ctx)
	now := s.now()

	kept := make([]reminder.Reminder, 0, len(list))
	var dropped []string
	for _, r := range list {
		if r.Expired(now) {
			dropped = append(dropped, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	if len(dropped) == 0 {
		return kept, nil
	}

	if err := s.save(ctx, kept); err != nil {
		return nil, err
	}
	for _, id := range dropped {
		s.clearTimer(id)
	}

	metrics.RemindersPruned.Add(float64(len(dropped)))
	log.Printf("Pruned %d expired reminders for user %s", len(dropped), s.userID)
	return kept, nil
}

func (s *ReminderScheduler) ListReminders(ctx context.Context) []reminder.Reminder {
	s.listMu.Lock()
	defer s.listMu.Unlock()
	return s.load(ctx)
}

// IsArmed reports whether a timer is currently armed for id.
func (s *ReminderScheduler) IsArmed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

func (s *ReminderScheduler) ArmedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close stops every armed timer and leaves the table empty.
func (s *ReminderScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, entry := range s.timers {
		entry.timer.Stop()
		delete(s.timers, id)
		metrics.RemindersArmed.Dec()
	}
}

func (s *ReminderScheduler) clearTimer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.timers[id]; ok {
		entry.timer.Stop()
		delete(s.timers, id)
		metrics.RemindersArmed.Dec()
	}
}

// load never fails: a missing or unreadable list is treated as empty.
func (s *ReminderScheduler) load(ctx context.Context) []reminder.Reminder {
	raw, found, err := s.kv.Read(ctx, s.key)
	if err != nil {
		log.Printf("Error loading reminders: %v", err)
		return []reminder.Reminder{}
	}
	if !found || raw == "" {
		return []reminder.Reminder{}
	}

	var list []reminder.Reminder
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		log.Printf("Error decoding reminders: %v", err)
		return []reminder.Reminder{}
	}
	if list == nil {
		list = []reminder.Reminder{}
	}
	return list
}

func (s *ReminderScheduler) save(ctx context.Context, list []reminder.Reminder) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("%w: failed to encode reminders: %w", ErrPersistence, err)
	}
	if err := s.kv.Write(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("%w: failed to save reminders: %w", ErrPersistence, err)
	}
	return nil
}

func indexOf(list []reminder.Reminder, id string) int {
	for i, r := range list {
		if r.ID == id {
			return i
		}
	}
	return -1
}
