package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"glowRoutineAPI/internal/progress"
	"glowRoutineAPI/internal/routine"
	"glowRoutineAPI/internal/store"
)

type RoutineService struct {
	store store.DocumentStore
	now   func() time.Time
	loc   *time.Location
}

type TonightResponse struct {
	Weekday  string            `json:"weekday"`
	Lactic   bool              `json:"lactic"`
	Products []routine.Product `json:"products"`
}

func NewRoutineService(docs store.DocumentStore) *RoutineService {
	return &RoutineService{store: docs, now: time.Now, loc: time.Local}
}

// SetLocation sets the timezone the nightly weekday is resolved in.
func (s *RoutineService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// GetRoutines returns nil when the user has no document or the read fails.
func (s *RoutineService) GetRoutines(ctx context.Context, userID string) *routine.RoutineData {
	if userID == "" {
		return nil
	}

	data := &routine.RoutineData{}
	found, err := s.store.Get(ctx, store.CollectionRoutines, userID, data)
	if err != nil {
		log.Printf("GetRoutines: failed to read routines for user %s: %v", userID, err)
		return nil
	}
	if !found {
		return nil
	}
	return data
}

func (s *RoutineService) SaveRoutines(ctx context.Context, userID string, data *routine.RoutineData) (*routine.RoutineData, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	if data == nil {
		return nil, fmt.Errorf("%w: routine data is required", ErrValidation)
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	data.LastUpdated = s.now().UnixMilli()
	if err := s.store.Set(ctx, store.CollectionRoutines, userID, data); err != nil {
		return nil, fmt.Errorf("%w: failed to save routines for user %s: %w", ErrPersistence, userID, err)
	}
	return data, nil
}

// CheckAndAutoImport seeds the default routines for a user without a
// routine document. It reports whether an import happened.
func (s *RoutineService) CheckAndAutoImport(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrNotAuthenticated
	}

	found, err := s.store.Get(ctx, store.CollectionRoutines, userID, &routine.RoutineData{})
	if err != nil {
		return false, fmt.Errorf("%w: failed to read routines for user %s: %w", ErrPersistence, userID, err)
	}
	if found {
		return false, nil
	}

	if _, err := s.SaveRoutines(ctx, userID, routine.Defaults(s.now())); err != nil {
		return false, err
	}
	log.Printf("Auto-imported default routines for user %s", userID)
	return true, nil
}

// MigrateDefaultRoutines imports the defaults on request and refuses to
// overwrite a document that already has products.
func (s *RoutineService) MigrateDefaultRoutines(ctx context.Context, userID string) (*routine.RoutineData, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	existing := &routine.RoutineData{}
	found, err := s.store.Get(ctx, store.CollectionRoutines, userID, existing)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read routines for user %s: %w", ErrPersistence, userID, err)
	}
	if found && existing.HasProducts() {
		return nil, ErrRoutinesExist
	}

	return s.SaveRoutines(ctx, userID, routine.Defaults(s.now()))
}

// GetTonight returns the night products for the logical current day, so a
// routine done after midnight still follows the previous evening's plan.
// Users without a readable routine document get the defaults.
func (s *RoutineService) GetTonight(ctx context.Context, userID string) (*TonightResponse, error) {
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	now := s.now().In(s.loc)
	data := s.GetRoutines(ctx, userID)
	if data == nil {
		data = routine.Defaults(now)
	}

	day := progress.LogicalToday(now).Weekday()
	products := data.ForNight(day)
	if products == nil {
		products = []routine.Product{}
	}

	return &TonightResponse{
		Weekday:  day.String(),
		Lactic:   routine.IsLacticNight(day),
		Products: products,
	}, nil
}

func (s *RoutineService) EmptyRoutineData() *routine.RoutineData {
	return routine.NewEmpty(s.now())
}
