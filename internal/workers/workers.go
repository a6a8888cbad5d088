package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// ReminderPruner is the slice of the reminder scheduler the sweep needs.
type ReminderPruner interface {
	PruneExpired(ctx context.Context) (int, error)
}

// BannerPruner drops in-app banners whose TTL has passed.
type BannerPruner interface {
	PruneBanners() int
}

// Sweeper runs periodic housekeeping jobs on a cron schedule.
type Sweeper struct {
	cron *cron.Cron
}

func NewSweeper() *Sweeper {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	return &Sweeper{cron: c}
}

// AddReminderSweep garbage collects reminders older than 24 hours on
// schedule, e.g. "@every 1h" or "0 * * * *".
func (s *Sweeper) AddReminderSweep(schedule string, pruner ReminderPruner) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		removed, err := pruner.PruneExpired(ctx)
		if err != nil {
			log.Printf("Reminder sweep failed: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("Reminder sweep removed %d expired reminders", removed)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder sweep schedule %q: %w", schedule, err)
	}
	return nil
}

// AddBannerSweep evicts expired banners of users that are no longer polling,
// so idle users do not keep their feed in memory.
func (s *Sweeper) AddBannerSweep(schedule string, pruner BannerPruner) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if removed := pruner.PruneBanners(); removed > 0 {
			log.Printf("Banner sweep removed %d expired banners", removed)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid banner sweep schedule %q: %w", schedule, err)
	}
	return nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
