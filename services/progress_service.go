package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"glowRoutineAPI/internal/achievement"
	"glowRoutineAPI/internal/calendar"
	"glowRoutineAPI/internal/metrics"
	"glowRoutineAPI/internal/progress"
	"glowRoutineAPI/internal/stats"
	"glowRoutineAPI/internal/store"
	"glowRoutineAPI/utils"
)

type ProgressService struct {
	store    store.DocumentStore
	loc      *time.Location
	now      func() time.Time
	notifier utils.Notifier

	mu    sync.Mutex
	users map[string]*userLock
}

// userLock is dropped from the map once nobody holds or waits on it.
type userLock struct {
	sync.Mutex
	refs int
}

type AchievementsResponse struct {
	Achievements []*achievement.AchievementWithStatus `json:"achievements"`
	Challenge    achievement.Challenge                `json:"challenge"`
	Stats        achievement.UserStats                `json:"stats"`
}

func NewProgressService(docs store.DocumentStore, loc *time.Location) *ProgressService {
	if loc == nil {
		loc = time.Local
	}
	return &ProgressService{
		store: docs,
		loc:   loc,
		now:   time.Now,
		users: make(map[string]*userLock),
	}
}

// SetNotifier enables achievement announcements after successful mutations.
func (s *ProgressService) SetNotifier(n utils.Notifier) {
	s.notifier = n
}

func (s *ProgressService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ProgressService) clock() time.Time {
	return s.now().In(s.loc)
}

// lockUser serializes mutations for one user inside this process.
func (s *ProgressService) lockUser(userID string) func() {
	s.mu.Lock()
	l, ok := s.users[userID]
	if !ok {
		l = &userLock{}
		s.users[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.users, userID)
		}
		s.mu.Unlock()
	}
}

func (s *ProgressService) lockedUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *ProgressService) MarkComplete(ctx context.Context, userID, date string, slot progress.Slot) (*progress.ProgressData, error) {
	return s.complete(ctx, "mark_complete", userID, date, []progress.Slot{slot})
}

// RegisterManualCompletion completes several slots of one day in a single
// write. Slots repeated in the input count once.
func (s *ProgressService) RegisterManualCompletion(ctx context.Context, userID, date string, slots []progress.Slot) (*progress.ProgressData, error) {
	return s.complete(ctx, "manual_completion", userID, date, slots)
}

func (s *ProgressService) complete(ctx context.Context, op, userID, date string, slots []progress.Slot) (*progress.ProgressData, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: at least one slot is required", ErrValidation)
	}
	if err := validateCompletion(date, slots...); err != nil {
		return nil, err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	data, err := s.load(ctx, userID)
	if err != nil {
		s.recordError(op, err)
		return nil, err
	}
	before := achievement.StatsFromProgress(data)

	now := s.clock()
	var marked []progress.Slot
	seen := make(map[progress.Slot]bool, len(slots))
	for _, slot := range slots {
		if seen[slot] {
			continue
		}
		seen[slot] = true
		if data.Complete(date, slot, now.UnixMilli()) {
			marked = append(marked, slot)
		}
	}
	data.LastCompletedDate = date
	data.Recompute(now, true)

	if err := s.save(ctx, userID, data); err != nil {
		s.recordError(op, err)
		return nil, err
	}

	for _, slot := range marked {
		metrics.CompletionsMarked.WithLabelValues(string(slot)).Inc()
	}
	s.announce(userID, before, data)

	return data, nil
}

// RemoveCompletion tombstones a completed slot. Nothing is written when the
// slot is not currently completed. LongestStreak is kept as is.
func (s *ProgressService) RemoveCompletion(ctx context.Context, userID, date string, slot progress.Slot) (*progress.ProgressData, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if err := validateCompletion(date, slot); err != nil {
		return nil, err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	data, err := s.load(ctx, userID)
	if err != nil {
		s.recordError("remove_completion", err)
		return nil, err
	}

	now := s.clock()
	if !data.Uncomplete(date, slot, now.UnixMilli()) {
		return data, nil
	}
	data.Recompute(now, false)

	if err := s.save(ctx, userID, data); err != nil {
		s.recordError("remove_completion", err)
		return nil, err
	}

	metrics.CompletionsRemoved.WithLabelValues(string(slot)).Inc()
	return data, nil
}

// IsCompleted never fails; any problem reads as not completed.
func (s *ProgressService) IsCompleted(ctx context.Context, userID, date string, slot progress.Slot) bool {
	if userID == "" || !slot.Valid() {
		return false
	}

	data := progress.New()
	found, err := s.store.Get(ctx, store.CollectionProgress, userID, data)
	if err != nil {
		log.Printf("IsCompleted: failed to read progress for user %s: %v", userID, err)
		return false
	}
	if !found {
		return false
	}
	return data.IsCompleted(date, slot)
}

// GetProgressData returns the user's document, creating the zeroed one on
// first access. It returns nil on any failure.
func (s *ProgressService) GetProgressData(ctx context.Context, userID string) *progress.ProgressData {
	if userID == "" {
		return nil
	}

	data, err := s.load(ctx, userID)
	if err != nil {
		log.Printf("GetProgressData: %v", err)
		return nil
	}
	return data
}

// GetStreak recomputes the streak from stored completions as of now.
func (s *ProgressService) GetStreak(ctx context.Context, userID string) (progress.Streak, error) {
	if userID == "" {
		return progress.Streak{}, ErrNotAuthenticated
	}

	data := s.GetProgressData(ctx, userID)
	if data == nil {
		return progress.Streak{Current: 0, Dates: []string{}}, nil
	}
	return progress.CalculateStreak(data.Completions, s.clock()), nil
}

func (s *ProgressService) GetAchievements(ctx context.Context, userID string) (*AchievementsResponse, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	data := s.GetProgressData(ctx, userID)
	if data == nil {
		data = progress.New()
	}
	stats := achievement.StatsFromProgress(data)

	return &AchievementsResponse{
		Achievements: achievement.WithStatus(stats),
		Challenge:    achievement.CurrentChallenge(stats.CurrentStreak),
		Stats:        stats,
	}, nil
}

// GetCalendar returns one month of slot completions.
func (s *ProgressService) GetCalendar(ctx context.Context, userID string, year, month int) (*calendar.CalendarResponse, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	data := s.GetProgressData(ctx, userID)
	if data == nil {
		return nil, fmt.Errorf("%w: progress unavailable for user %s", ErrPersistence, userID)
	}

	resp, err := calendar.Build(data.Completions, year, month, progress.LogicalToday(s.clock()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return resp, nil
}

type StatsResponse struct {
	Summary stats.UserStats   `json:"summary"`
	Periods []*stats.DaysStat `json:"periods"`
}

func (s *ProgressService) GetStats(ctx context.Context, userID string) (*StatsResponse, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	data := s.GetProgressData(ctx, userID)
	if data == nil {
		return nil, fmt.Errorf("%w: progress unavailable for user %s", ErrPersistence, userID)
	}

	today := progress.LogicalToday(s.clock())
	periods := stats.Periods(data.Completions, today)
	userStats := achievement.StatsFromProgress(data)

	return &StatsResponse{
		Summary: stats.UserStats{
			TodayStatus:        data.Completions[today.Format(progress.DateLayout)].Qualifies(),
			DaysThisWeek:       periods[0].DaysCompleted,
			DaysThisMonth:      periods[1].DaysCompleted,
			DaysThisYear:       periods[2].DaysCompleted,
			TotalDaysCompleted: userStats.TotalDaysCompleted,
			TotalCompletions:   data.TotalCompletions,
			CurrentStreak:      progress.CalculateStreak(data.Completions, s.clock()).Current,
			LongestStreak:      data.LongestStreak,
			AchievementsCount:  len(achievement.Unlocked(userStats)),
		},
		Periods: periods,
	}, nil
}

// load reads the document, persisting a zeroed one when absent.
func (s *ProgressService) load(ctx context.Context, userID string) (*progress.ProgressData, error) {
	data := progress.New()
	found, err := s.store.Get(ctx, store.CollectionProgress, userID, data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read progress for user %s: %w", ErrPersistence, userID, err)
	}
	if found {
		if data.Completions == nil {
			data.Completions = make(map[string]progress.DayCompletions)
		}
		return data, nil
	}

	data = progress.New()
	if err := s.save(ctx, userID, data); err != nil {
		return nil, err
	}
	log.Printf("Created progress document for user %s", userID)
	return data, nil
}

func (s *ProgressService) save(ctx context.Context, userID string, data *progress.ProgressData) error {
	if err := s.store.Set(ctx, store.CollectionProgress, userID, data); err != nil {
		return fmt.Errorf("%w: failed to save progress for user %s: %w", ErrPersistence, userID, err)
	}
	return nil
}

func (s *ProgressService) announce(userID string, before achievement.UserStats, after *progress.ProgressData) {
	if s.notifier == nil {
		return
	}
	unlocked := achievement.CheckNew(achievement.StatsFromProgress(after), achievement.IDs(achievement.Unlocked(before)))
	if len(unlocked) == 0 {
		return
	}
	go utils.AchievementsUnlocked(s.notifier, userID, unlocked)
}

func (s *ProgressService) recordError(op string, err error) {
	kind := "other"
	if errors.Is(err, ErrPersistence) {
		kind = "persistence"
	}
	metrics.LedgerErrors.WithLabelValues(op, kind).Inc()
	log.Printf("Progress %s failed: %v", op, err)
}

func validateCompletion(date string, slots ...progress.Slot) error {
	if _, err := progress.ParseDate(date); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	for _, slot := range slots {
		if _, err := progress.ParseSlot(string(slot)); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	return nil
}
