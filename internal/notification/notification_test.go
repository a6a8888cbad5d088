package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBannerFeed_ExpiresAndOrders(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	feed := NewBannerFeed(10, 3*time.Second)
	feed.now = func() time.Time { return now }

	feed.Push("user-1", "", "first", nil)
	now = now.Add(2 * time.Second)
	feed.Push("user-1", "", "second", nil)

	active := feed.Active("user-1")
	require.Len(t, active, 2)
	assert.Equal(t, "second", active[0].Message)

	now = now.Add(2 * time.Second)
	active = feed.Active("user-1")
	require.Len(t, active, 1)
	assert.Equal(t, "second", active[0].Message)
}

func TestBannerFeed_Capacity(t *testing.T) {
	feed := NewBannerFeed(2, time.Minute)
	feed.Push("user-1", "", "a", nil)
	feed.Push("user-1", "", "b", nil)
	feed.Push("user-1", "", "c", nil)

	active := feed.Active("user-1")
	require.Len(t, active, 2)
	assert.Equal(t, "c", active[0].Message)
	assert.Equal(t, "b", active[1].Message)
}

func TestBannerFeed_ScopedPerUser(t *testing.T) {
	feed := NewBannerFeed(10, time.Minute)
	aliceCh, cancelAlice := feed.Subscribe("alice", 4)
	defer cancelAlice()
	bobCh, cancelBob := feed.Subscribe("bob", 4)
	defer cancelBob()

	feed.Push("alice", "", "for alice", nil)

	require.Len(t, feed.Active("alice"), 1)
	assert.Empty(t, feed.Active("bob"))

	b := <-aliceCh
	assert.Equal(t, "for alice", b.Message)
	select {
	case got := <-bobCh:
		t.Fatalf("bob received %q", got.Message)
	default:
	}
}

func TestBannerFeed_PruneExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	feed := NewBannerFeed(10, time.Second)
	feed.now = func() time.Time { return now }

	feed.Push("alice", "", "a", nil)
	feed.Push("bob", "", "b", nil)
	now = now.Add(500 * time.Millisecond)
	feed.Push("bob", "", "c", nil)
	require.Equal(t, 2, feed.Users())

	now = now.Add(700 * time.Millisecond)
	assert.Equal(t, 2, feed.PruneExpired())
	assert.Equal(t, 1, feed.Users())
	require.Len(t, feed.Active("bob"), 1)

	now = now.Add(time.Second)
	assert.Empty(t, feed.Active("bob"))
	assert.Equal(t, 0, feed.Users())
}

func TestBannerFeed_Subscribe(t *testing.T) {
	feed := NewBannerFeed(10, time.Minute)
	ch, cancel := feed.Subscribe("user-1", 1)

	feed.Push("user-1", "", "first", nil)
	feed.Push("user-1", "", "dropped", nil)

	b := <-ch
	assert.Equal(t, "first", b.Message)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	feed.Push("user-1", "", "after cancel", nil)
	assert.Len(t, feed.Active("user-1"), 3)
}

func TestBuildMessage_PerPlatform(t *testing.T) {
	data := map[string]string{"reminderId": "r1"}

	web := buildMessage(DeviceToken{Token: "w", Platform: "web"}, "T", "B", data)
	require.NotNil(t, web.Webpush)
	assert.Equal(t, "skincare-reminder", web.Webpush.Notification.Tag)
	assert.Nil(t, web.Android)

	ios := buildMessage(DeviceToken{Token: "i", Platform: "ios"}, "T", "B", data)
	require.NotNil(t, ios.APNS)

	android := buildMessage(DeviceToken{Token: "a", Platform: "android"}, "T", "B", data)
	require.NotNil(t, android.Android)
	assert.Equal(t, "high", android.Android.Priority)
	assert.Equal(t, "r1", android.Data["reminderId"])
}

func TestValidPlatform(t *testing.T) {
	assert.True(t, ValidPlatform("web"))
	assert.False(t, ValidPlatform("desktop"))
}
