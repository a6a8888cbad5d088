package services

import (
	"context"
	"errors"
	"sync"

	"glowRoutineAPI/internal/store"
)

var errBackend = errors.New("backend unavailable")

// flakyStore wraps a MemoryStore, counts writes and can be told to fail.
type flakyStore struct {
	*store.MemoryStore

	mu      sync.Mutex
	failGet bool
	failSet bool
	sets    int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore()}
}

func (s *flakyStore) Get(ctx context.Context, collection, id string, dst any) (bool, error) {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return false, errBackend
	}
	return s.MemoryStore.Get(ctx, collection, id, dst)
}

func (s *flakyStore) Set(ctx context.Context, collection, id string, doc any) error {
	s.mu.Lock()
	fail := s.failSet
	if !fail {
		s.sets++
	}
	s.mu.Unlock()
	if fail {
		return errBackend
	}
	return s.MemoryStore.Set(ctx, collection, id, doc)
}

func (s *flakyStore) setFailures(get, set bool) {
	s.mu.Lock()
	s.failGet, s.failSet = get, set
	s.mu.Unlock()
}

func (s *flakyStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

type flakyKV struct {
	*store.MemoryKV

	mu       sync.Mutex
	failRead bool
	failSet  bool
	failKeys bool
	writes   int
}

func newFlakyKV() *flakyKV {
	return &flakyKV{MemoryKV: store.NewMemoryKV()}
}

func (kv *flakyKV) Read(ctx context.Context, key string) (string, bool, error) {
	kv.mu.Lock()
	fail := kv.failRead
	kv.mu.Unlock()
	if fail {
		return "", false, errBackend
	}
	return kv.MemoryKV.Read(ctx, key)
}

func (kv *flakyKV) Write(ctx context.Context, key, value string) error {
	kv.mu.Lock()
	fail := kv.failSet
	if !fail {
		kv.writes++
	}
	kv.mu.Unlock()
	if fail {
		return errBackend
	}
	return kv.MemoryKV.Write(ctx, key, value)
}

func (kv *flakyKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	kv.mu.Lock()
	fail := kv.failKeys
	kv.mu.Unlock()
	if fail {
		return nil, errBackend
	}
	return kv.MemoryKV.Keys(ctx, prefix)
}

func (kv *flakyKV) writeCount() int {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.writes
}

type shown struct {
	UserID string
	Title  string
	Body   string
	Data   map[string]any
}

type fakeNotifier struct {
	mu          sync.Mutex
	shown       []shown
	toasts      []string
	toastOwners []string
}

func (n *fakeNotifier) Show(ctx context.Context, userID, title, body string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shown = append(n.shown, shown{UserID: userID, Title: title, Body: body, Data: data})
	return nil
}

func (n *fakeNotifier) Toast(userID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, message)
	n.toastOwners = append(n.toastOwners, userID)
}

func (n *fakeNotifier) ToastOwners() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.toastOwners...)
}

func (n *fakeNotifier) Shown() []shown {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]shown(nil), n.shown...)
}

func (n *fakeNotifier) Toasts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.toasts...)
}
