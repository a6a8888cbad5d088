package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Banner is a transient in-app message, the fallback when no push channel
// is available.
type Banner struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// BannerFeed keeps a bounded list of banners per user. Banners expire after
// a fixed TTL and are only visible to the user they were pushed for.
type BannerFeed struct {
	mu       sync.Mutex
	banners  map[string][]Banner
	capacity int
	ttl      time.Duration
	now      func() time.Time

	nextSub int
	subs    map[string]map[int]chan Banner
}

func NewBannerFeed(capacity int, ttl time.Duration) *BannerFeed {
	if capacity <= 0 {
		capacity = 50
	}
	return &BannerFeed{
		banners:  make(map[string][]Banner),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		subs:     make(map[string]map[int]chan Banner),
	}
}

func (f *BannerFeed) Push(userID, title, message string, data map[string]any) Banner {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	b := Banner{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(f.ttl),
	}

	list := append(unexpired(f.banners[userID], now), b)
	if len(list) > f.capacity {
		list = list[len(list)-f.capacity:]
	}
	f.banners[userID] = list

	for _, ch := range f.subs[userID] {
		select {
		case ch <- b:
		default:
			// slow subscriber; it can catch up through Active
		}
	}
	return b
}

// Subscribe returns a channel receiving every banner pushed for userID after
// the call. The returned func unsubscribes and closes the channel.
func (f *BannerFeed) Subscribe(userID string, buffer int) (<-chan Banner, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextSub
	f.nextSub++
	ch := make(chan Banner, buffer)
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[int]chan Banner)
	}
	f.subs[userID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[userID], id)
			if len(f.subs[userID]) == 0 {
				delete(f.subs, userID)
			}
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Active returns the user's unexpired banners, newest first.
func (f *BannerFeed) Active(userID string) []Banner {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := unexpired(f.banners[userID], f.now())
	if len(kept) == 0 {
		delete(f.banners, userID)
	} else {
		f.banners[userID] = kept
	}

	out := make([]Banner, len(kept))
	for i, b := range kept {
		out[len(kept)-1-i] = b
	}
	return out
}

// PruneExpired drops expired banners of every user and forgets users left
// with none. It returns the number of banners dropped.
func (f *BannerFeed) PruneExpired() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	dropped := 0
	for userID, list := range f.banners {
		kept := unexpired(list, now)
		dropped += len(list) - len(kept)
		if len(kept) == 0 {
			delete(f.banners, userID)
			continue
		}
		f.banners[userID] = kept
	}
	return dropped
}

// Users reports how many users currently hold banners.
func (f *BannerFeed) Users() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.banners)
}

func unexpired(list []Banner, now time.Time) []Banner {
	kept := list[:0]
	for _, b := range list {
		if now.Before(b.ExpiresAt) {
			kept = append(kept, b)
		}
	}
	return kept
}
