package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"glowRoutineAPI/internal/reminder"
	"glowRoutineAPI/internal/store"
)

// ReminderManager hands out one ReminderScheduler per user. Each scheduler
// keeps its list under its own storage key and its own timer table, so users
// never see, arm or delete each other's reminders.
type ReminderManager struct {
	kv       store.KeyValueStore
	baseKey  string
	notifier ReminderNotifier
	now      func() time.Time

	mu         sync.Mutex
	schedulers map[string]*ReminderScheduler
}

func NewReminderManager(kv store.KeyValueStore, baseKey string, notifier ReminderNotifier) *ReminderManager {
	return &ReminderManager{
		kv:         kv,
		baseKey:    baseKey,
		notifier:   notifier,
		now:        time.Now,
		schedulers: make(map[string]*ReminderScheduler),
	}
}

// SetClock must be called before the first For.
func (m *ReminderManager) SetClock(now func() time.Time) {
	m.now = now
}

// For returns userID's scheduler, creating it on first use. Schedulers live
// until Close; they only exist for users that stored or changed reminders.
func (m *ReminderManager) For(userID string) (*ReminderScheduler, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.schedulers[userID]
	if !ok {
		s = NewReminderScheduler(m.kv, m.baseKey, userID, m.notifier)
		s.SetClock(m.now)
		m.schedulers[userID] = s
	}
	return s, nil
}

func (m *ReminderManager) lookup(userID string) (*ReminderScheduler, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedulers[userID]
	return s, ok
}

// ListReminders reads userID's list without creating a scheduler.
func (m *ReminderManager) ListReminders(ctx context.Context, userID string) ([]reminder.Reminder, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if s, ok := m.lookup(userID); ok {
		return s.ListReminders(ctx), nil
	}
	return NewReminderScheduler(m.kv, m.baseKey, userID, m.notifier).ListReminders(ctx), nil
}

// IsArmed reports whether userID has a timer armed for id.
func (m *ReminderManager) IsArmed(userID, id string) bool {
	s, ok := m.lookup(userID)
	return ok && s.IsArmed(id)
}

// Users lists the users with a stored reminder list.
func (m *ReminderManager) Users(ctx context.Context) ([]string, error) {
	keys, err := m.kv.Keys(ctx, reminder.KeyPrefix(m.baseKey))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list reminder owners: %w", ErrPersistence, err)
	}

	users := make([]string, 0, len(keys))
	for _, key := range keys {
		if userID, ok := reminder.UserFromKey(m.baseKey, key); ok {
			users = append(users, userID)
		}
	}
	return users, nil
}

// InitReminders prunes and re-arms the stored reminders of every user. A
// failing user does not stop the others; their errors are joined.
func (m *ReminderManager) InitReminders(ctx context.Context) (int, error) {
	return m.eachUser(ctx, (*ReminderScheduler).InitReminders)
}

// PruneExpired garbage collects every user's list and returns the number of
// reminders removed.
func (m *ReminderManager) PruneExpired(ctx context.Context) (int, error) {
	return m.eachUser(ctx, (*ReminderScheduler).PruneExpired)
}

func (m *ReminderManager) eachUser(ctx context.Context, op func(*ReminderScheduler, context.Context) (int, error)) (int, error) {
	users, err := m.Users(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	var errs []error
	for _, userID := range users {
		s, err := m.For(userID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		n, err := op(s, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}

// ArmedCount is the number of timers armed across all users.
func (m *ReminderManager) ArmedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, s := range m.schedulers {
		total += s.ArmedCount()
	}
	return total
}

// Close stops every user's timers.
func (m *ReminderManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, s := range m.schedulers {
		s.Close()
		delete(m.schedulers, userID)
	}
}
