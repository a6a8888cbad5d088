package reminder

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_DefaultsTitleFromType(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	r := New(TypeMorning, now.UnixMilli()+60_000, "", now)
	assert.True(t, strings.HasPrefix(r.ID, "reminder-"))
	assert.Equal(t, "🌅 Morning routine", r.Title)
	assert.False(t, r.Fired)
	assert.Equal(t, now.UnixMilli(), r.CreatedAt)

	assert.Equal(t, "🌙 Night routine", New(TypeEvening, 1, "", now).Title)
	assert.Equal(t, "⏰ Reminder", New(TypeCustom, 1, "", now).Title)
	assert.Equal(t, "Sunscreen", New(TypeCustom, 1, "Sunscreen", now).Title)
}

func TestNew_UniqueIDs(t *testing.T) {
	now := time.Now()
	a := New(TypeCustom, 1, "", now)
	b := New(TypeCustom, 1, "", now)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestValidate(t *testing.T) {
	now := time.Now()
	assert.NoError(t, New(TypeCustom, now.UnixMilli(), "", now).Validate())

	bad := New(Type("weekly"), now.UnixMilli(), "", now)
	assert.Error(t, bad.Validate())

	zero := New(TypeCustom, 0, "", now)
	assert.Error(t, zero.Validate())
}

func TestExpiredAndPending(t *testing.T) {
	created := time.UnixMilli(1_700_000_000_000)
	r := New(TypeCustom, created.Add(time.Hour).UnixMilli(), "", created)

	assert.False(t, r.Expired(created.Add(23*time.Hour)))
	assert.True(t, r.Expired(created.Add(24*time.Hour)))

	assert.True(t, r.Pending(created))
	assert.False(t, r.Pending(created.Add(2*time.Hour)))
	r.Fired = true
	assert.False(t, r.Pending(created))
}

func TestTimeUntil(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	assert.Equal(t, "expired", TimeUntil(now.UnixMilli(), now))
	assert.Equal(t, "45m", TimeUntil(now.Add(45*time.Minute).UnixMilli(), now))
	assert.Equal(t, "2h 5m", TimeUntil(now.Add(125*time.Minute).UnixMilli(), now))
	assert.Equal(t, "1d 3h", TimeUntil(now.Add(27*time.Hour).UnixMilli(), now))
}

func TestStorageKey(t *testing.T) {
	key := StorageKey("skincareReminders_v2", "user_2abc")
	assert.Equal(t, "skincareReminders_v2:user_2abc", key)

	userID, ok := UserFromKey("skincareReminders_v2", key)
	assert.True(t, ok)
	assert.Equal(t, "user_2abc", userID)

	_, ok = UserFromKey("skincareReminders_v2", "skincareReminders_v2")
	assert.False(t, ok)
	_, ok = UserFromKey("skincareReminders_v2", "skincareReminders_v2:")
	assert.False(t, ok)
	_, ok = UserFromKey("skincareReminders_v2", "otherKey:user_2abc")
	assert.False(t, ok)
}
