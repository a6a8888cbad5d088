package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glowRoutineAPI/internal/metrics"
	"glowRoutineAPI/internal/reminder"
)

const (
	testRemindersKey = "skincareReminders_v2"
	testReminderUser = "user-1"
)

var reminderNow = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, fixedClock bool) (*ReminderScheduler, *flakyKV, *fakeNotifier) {
	t.Helper()
	kv := newFlakyKV()
	notifier := &fakeNotifier{}
	s := NewReminderScheduler(kv, testRemindersKey, testReminderUser, notifier)
	if fixedClock {
		s.SetClock(func() time.Time { return reminderNow })
	}
	t.Cleanup(s.Close)
	return s, kv, notifier
}

func seedReminders(t *testing.T, kv *flakyKV, list []reminder.Reminder) {
	t.Helper()
	raw, err := json.Marshal(list)
	require.NoError(t, err)
	require.NoError(t, kv.MemoryKV.Write(context.Background(), reminder.StorageKey(testRemindersKey, testReminderUser), string(raw)))
}

func TestCreateReminder(t *testing.T) {
	s, kv, _ := newTestScheduler(t, true)
	when := reminderNow.Add(time.Hour).UnixMilli()

	r := s.CreateReminder(reminder.TypeMorning, when, "")
	assert.Regexp(t, `^reminder-`, r.ID)
	assert.Equal(t, "🌅 Morning routine", r.Title)
	assert.False(t, r.Fired)
	assert.Equal(t, reminderNow.UnixMilli(), r.CreatedAt)

	custom := s.CreateReminder(reminder.TypeCustom, when, "Sunscreen")
	assert.Equal(t, "Sunscreen", custom.Title)
	assert.NotEqual(t, r.ID, custom.ID)

	assert.Equal(t, 0, kv.writeCount())
	assert.Empty(t, s.ListReminders(context.Background()))
}

func TestAddReminder(t *testing.T) {
	s, _, notifier := newTestScheduler(t, true)
	ctx := context.Background()

	r := s.CreateReminder(reminder.TypeEvening, reminderNow.Add(10*time.Minute).UnixMilli(), "")
	require.NoError(t, s.AddReminder(ctx, r))

	list := s.ListReminders(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, r, list[0])
	assert.True(t, s.IsArmed(r.ID))
	assert.Equal(t, []string{"✅ Reminder scheduled in 10 minutes"}, notifier.Toasts())
	assert.Equal(t, []string{testReminderUser}, notifier.ToastOwners())
}

func TestAddReminder_Validation(t *testing.T) {
	s, kv, _ := newTestScheduler(t, true)

	r := s.CreateReminder(reminder.Type("weekly"), reminderNow.Add(time.Hour).UnixMilli(), "x")
	err := s.AddReminder(context.Background(), r)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, kv.writeCount())
	assert.False(t, s.IsArmed(r.ID))
}

func TestAddReminder_PersistenceFailure(t *testing.T) {
	s, kv, notifier := newTestScheduler(t, true)
	kv.failSet = true

	r := s.CreateReminder(reminder.TypeCustom, reminderNow.Add(time.Hour).UnixMilli(), "")
	err := s.AddReminder(context.Background(), r)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.False(t, s.IsArmed(r.ID))
	assert.Empty(t, notifier.Toasts())
}

func TestScheduleReminder_PastOrFiredIsNoop(t *testing.T) {
	s, _, notifier := newTestScheduler(t, true)

	past := s.CreateReminder(reminder.TypeCustom, reminderNow.Add(-time.Minute).UnixMilli(), "")
	assert.False(t, s.ScheduleReminder(past))
	assert.False(t, s.IsArmed(past.ID))

	fired := s.CreateReminder(reminder.TypeCustom, reminderNow.Add(time.Hour).UnixMilli(), "")
	fired.Fired = true
	assert.False(t, s.ScheduleReminder(fired))

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, notifier.Shown())
}

func TestScheduleReminder_Fires(t *testing.T) {
	s, _, notifier := newTestScheduler(t, false)
	ctx := context.Background()

	r := s.CreateReminder(reminder.TypeMorning, time.Now().Add(50*time.Millisecond).UnixMilli(), "Cleanser")
	require.NoError(t, s.AddReminder(ctx, r))

	require.Eventually(t, func() bool { return len(notifier.Shown()) == 1 }, 2*time.Second, 10*time.Millisecond)

	got := notifier.Shown()[0]
	assert.Equal(t, testReminderUser, got.UserID)
	assert.Equal(t, "⏰ Skincare reminder", got.Title)
	assert.Equal(t, "Cleanser", got.Body)
	assert.Equal(t, map[string]any{"reminderId": r.ID}, got.Data)

	assert.Eventually(t, func() bool { return !s.IsArmed(r.ID) }, time.Second, 10*time.Millisecond)
	list := s.ListReminders(ctx)
	require.Len(t, list, 1)
	assert.True(t, list[0].Fired)
}

func TestScheduleReminder_RearmReplacesTimer(t *testing.T) {
	s, _, notifier := newTestScheduler(t, false)

	r := s.CreateReminder(reminder.TypeCustom, time.Now().Add(40*time.Millisecond).UnixMilli(), "")
	require.True(t, s.ScheduleReminder(r))

	r.When = time.Now().Add(time.Hour).UnixMilli()
	require.True(t, s.ScheduleReminder(r))

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, notifier.Shown())
	assert.Equal(t, 1, s.ArmedCount())
}

func TestFireReminder_Idempotent(t *testing.T) {
	s, kv, notifier := newTestScheduler(t, true)
	ctx := context.Background()

	r := s.CreateReminder(reminder.TypeCustom, reminderNow.Add(time.Hour).UnixMilli(), "")
	require.NoError(t, s.AddReminder(ctx, r))
	writes := kv.writeCount()

	require.NoError(t, s.FireReminder(ctx, r))
	require.NoError(t, s.FireReminder(ctx, r))

	assert.Len(t, notifier.Shown(), 2)
	assert.Equal(t, writes+1, kv.writeCount())
	assert.False(t, s.IsArmed(r.ID))
}

func TestSnoozeReminder(t *testing.T) {
	s, kv, notifier := newTestScheduler(t, true)
	ctx := context.Background()

	r := s.CreateReminder(reminder.TypeEvening, reminderNow.Add(time.Minute).UnixMilli(), "")
	r.Fired = true
	seedReminders(t, kv, []reminder.Reminder{r})

	require.NoError(t, s.SnoozeReminder(ctx, r.ID, 0))

	list := s.ListReminders(ctx)
	require.Len(t, list, 1)
	assert.False(t, list[0].Fired)
	assert.Equal(t, reminderNow.Add(5*time.Minute).UnixMilli(), list[0].When)
	assert.True(t, s.IsArmed(r.ID))
	assert.Equal(t, []string{"💤 Snoozed 5 minutes"}, notifier.Toasts())

	require.NoError(t, s.SnoozeReminder(ctx, r.ID, 15))
	assert.Equal(t, reminderNow.Add(15*time.Minute).UnixMilli(), s.ListReminders(ctx)[0].When)
	assert.Equal(t, 1, s.ArmedCount())
}

func TestSnoozeReminder_UnknownIDIsNoop(t *testing.T) {
	s, kv, notifier := newTestScheduler(t, true)

	require.NoError(t, s.SnoozeReminder(context.Background(), "reminder-missing", 10))
	assert.Equal(t, 0, kv.writeCount())
	assert.Empty(t, notifier.Toasts())
	assert.Equal(t, 0, s.ArmedCount())
}

func TestDeleteReminder(t *testing.T) {
	s, kv, notifier := newTestScheduler(t, true)
	ctx := context.Background()

	keep := s.CreateReminder(reminder.TypeMorning, reminderNow.Add(time.Hour).UnixMilli(), "")
	drop := s.CreateReminder(reminder.TypeEvening, reminderNow.Add(2*time.Hour).UnixMilli(), "")
	require.NoError(t, s.AddReminder(ctx, keep))
	require.NoError(t, s.AddReminder(ctx, drop))

	require.NoError(t, s.DeleteReminder(ctx, drop.ID))

	list := s.ListReminders(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
	assert.False(t, s.IsArmed(drop.ID))
	assert.True(t, s.IsArmed(keep.ID))
	assert.Contains(t, notifier.Toasts(), "🗑️ Reminder deleted")

	writes := kv.writeCount()
	require.NoError(t, s.DeleteReminder(ctx, drop.ID))
	assert.Equal(t, writes, kv.writeCount())
}

func TestInitReminders(t *testing.T) {
	s, kv, _ := newTestScheduler(t, true)
	ctx := context.Background()
	created := reminderNow.Add(-time.Hour).UnixMilli()

	stale := reminder.Reminder{ID: "reminder-stale", Title: "old", Type: reminder.TypeCustom,
		When: reminderNow.Add(time.Hour).UnixMilli(), CreatedAt: reminderNow.Add(-25 * time.Hour).UnixMilli()}
	fired := reminder.Reminder{ID: "reminder-fired", Title: "done", Type: reminder.TypeMorning,
		When: reminderNow.Add(time.Hour).UnixMilli(), Fired: true, CreatedAt: created}
	pending := reminder.Reminder{ID: "reminder-pending", Title: "soon", Type: reminder.TypeEvening,
		When: reminderNow.Add(time.Hour).UnixMilli(), CreatedAt: created}
	past := reminder.Reminder{ID: "reminder-past", Title: "missed", Type: reminder.TypeCustom,
		When: reminderNow.Add(-time.Minute).UnixMilli(), CreatedAt: created}
	seedReminders(t, kv, []reminder.Reminder{stale, fired, pending, past})

	armed, err := s.InitReminders(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, armed)
	assert.True(t, s.IsArmed(pending.ID))
	assert.False(t, s.IsArmed(stale.ID))
	assert.Equal(t, 1, kv.writeCount())

	ids := make([]string, 0, 3)
	for _, r := range s.ListReminders(ctx) {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{fired.ID, pending.ID, past.ID}, ids)
}

func TestInitReminders_NothingStaleDoesNotWrite(t *testing.T) {
	s, kv, _ := newTestScheduler(t, true)

	pending := reminder.Reminder{ID: "reminder-pending", Title: "soon", Type: reminder.TypeEvening,
		When: reminderNow.Add(time.Hour).UnixMilli(), CreatedAt: reminderNow.UnixMilli()}
	seedReminders(t, kv, []reminder.Reminder{pending})

	armed, err := s.InitReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, armed)
	assert.Equal(t, 0, kv.writeCount())
}

func TestLoad_CorruptOrUnreadableIsEmpty(t *testing.T) {
	s, kv, _ := newTestScheduler(t, true)
	ctx := context.Background()

	require.NoError(t, kv.MemoryKV.Write(ctx, reminder.StorageKey(testRemindersKey, testReminderUser), "{not json"))
	assert.Empty(t, s.ListReminders(ctx))

	armed, err := s.InitReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, armed)

	kv.failRead = true
	assert.Empty(t, s.ListReminders(ctx))
}

func TestPruneExpired(t *testing.T) {
	s, kv, _ := newTestScheduler(t, true)

	old := reminder.Reminder{ID: "reminder-old", Type: reminder.TypeCustom, Title: "x",
		When: reminderNow.Add(time.Hour).UnixMilli(), CreatedAt: reminderNow.Add(-24 * time.Hour).UnixMilli()}
	fresh := reminder.Reminder{ID: "reminder-fresh", Type: reminder.TypeCustom, Title: "y",
		When: reminderNow.Add(time.Hour).UnixMilli(), CreatedAt: reminderNow.UnixMilli()}
	seedReminders(t, kv, []reminder.Reminder{old, fresh})
	require.True(t, s.ScheduleReminder(old))

	removed, err := s.PruneExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, s.IsArmed(old.ID))
	assert.Len(t, s.ListReminders(context.Background()), 1)
}

func TestClose_EmptiesTimerTable(t *testing.T) {
	s, _, notifier := newTestScheduler(t, false)

	for i := 0; i < 3; i++ {
		r := s.CreateReminder(reminder.TypeCustom, time.Now().Add(60*time.Millisecond).UnixMilli(), "")
		require.True(t, s.ScheduleReminder(r))
	}
	require.Equal(t, 3, s.ArmedCount())

	s.Close()
	assert.Equal(t, 0, s.ArmedCount())

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, notifier.Shown())
}

func TestClose_ReleasesOnlyOwnTimersFromGauge(t *testing.T) {
	other, _, _ := newTestScheduler(t, false)
	require.True(t, other.ScheduleReminder(other.CreateReminder(reminder.TypeCustom, time.Now().Add(time.Hour).UnixMilli(), "")))

	s, _, _ := newTestScheduler(t, false)
	before := armedGauge(t)
	for i := 0; i < 2; i++ {
		require.True(t, s.ScheduleReminder(s.CreateReminder(reminder.TypeCustom, time.Now().Add(time.Hour).UnixMilli(), "")))
	}
	assert.Equal(t, before+2, armedGauge(t))

	s.Close()
	assert.Equal(t, before, armedGauge(t))
	assert.Equal(t, 1, other.ArmedCount())
}

func armedGauge(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.RemindersArmed.Write(&m))
	return m.GetGauge().GetValue()
}
