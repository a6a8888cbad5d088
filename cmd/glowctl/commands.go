package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"glowRoutineAPI/internal/achievement"
	"glowRoutineAPI/internal/progress"
	"glowRoutineAPI/internal/reminder"
	"glowRoutineAPI/internal/routine"
	"glowRoutineAPI/internal/store"
	"glowRoutineAPI/services"
)

type appContext struct {
	out    io.Writer
	dbPath string
	key    string
	loc    *time.Location
	now    func() time.Time
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// printNotifier writes toasts to the terminal; glowctl never arms timers.
type printNotifier struct {
	out io.Writer
}

func (n printNotifier) Show(ctx context.Context, userID, title, body string, data map[string]any) error {
	fmt.Fprintf(n.out, "%s: %s\n", title, body)
	return nil
}

func (n printNotifier) Toast(userID, message string) {
	fmt.Fprintln(n.out, message)
}

func (a *appContext) openReminders() (*services.ReminderManager, func(), error) {
	kv, err := store.NewSQLiteKV(a.dbPath)
	if err != nil {
		return nil, nil, err
	}
	manager := services.NewReminderManager(kv, a.key, printNotifier{out: a.out})
	manager.SetClock(a.now)
	return manager, func() {
		manager.Close()
		kv.Close()
	}, nil
}

// reminderUsers is user when set, otherwise everyone with a stored list.
func reminderUsers(ctx context.Context, manager *services.ReminderManager, user string) ([]string, error) {
	if user != "" {
		return []string{user}, nil
	}
	return manager.Users(ctx)
}

type RemindersListCmd struct {
	User        string `help:"Only this user's reminders. Defaults to every user."`
	PendingOnly bool   `help:"Show only reminders that have not fired yet."`
}

func (c *RemindersListCmd) Run(app *appContext) error {
	manager, closeFn, err := app.openReminders()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := context.Background()
	users, err := reminderUsers(ctx, manager, c.User)
	if err != nil {
		return err
	}

	now := app.now()
	printed := false
	for _, userID := range users {
		list, err := manager.ListReminders(ctx, userID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			continue
		}

		printed = true
		fmt.Fprintf(app.out, "Reminders for %s:\n", userID)
		for _, r := range list {
			if c.PendingOnly && !r.Pending(now) {
				continue
			}
			status := "pending"
			switch {
			case r.Fired:
				status = "fired"
			case !r.Pending(now):
				status = "due"
			}
			when := time.UnixMilli(r.When).In(app.loc).Format("2006-01-02 15:04")
			fmt.Fprintf(app.out, "  [%s] %s %s - %s (%s, %s)\n",
				status, r.ID, r.Type, r.Title, when, reminder.TimeUntil(r.When, now))
		}
	}

	if !printed {
		fmt.Fprintln(app.out, "No reminders found")
	}
	return nil
}

type RemindersPruneCmd struct {
	User string `help:"Only prune this user's list. Defaults to every user."`
}

func (c *RemindersPruneCmd) Run(app *appContext) error {
	manager, closeFn, err := app.openReminders()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := context.Background()
	var n int
	if c.User == "" {
		n, err = manager.PruneExpired(ctx)
	} else {
		var scheduler *services.ReminderScheduler
		if scheduler, err = manager.For(c.User); err == nil {
			n, err = scheduler.PruneExpired(ctx)
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(app.out, "Pruned %d reminders\n", n)
	return nil
}

type StreakCmd struct {
	File string `arg:"" help:"Progress document exported as JSON." type:"existingfile"`
	At   string `help:"Evaluate as of this RFC 3339 time instead of now."`
}

func (c *StreakCmd) Run(app *appContext) error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("read progress document: %w", err)
	}
	data := progress.New()
	if err := json.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("parse progress document: %w", err)
	}

	now := app.now()
	if c.At != "" {
		if now, err = time.Parse(time.RFC3339, c.At); err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	streak := progress.CalculateStreak(data.Completions, now.In(app.loc))
	stats := achievement.StatsFromProgress(data)

	fmt.Fprintf(app.out, "Current streak: %d\n", streak.Current)
	fmt.Fprintf(app.out, "Longest streak: %d\n", max(data.LongestStreak, streak.Current))
	fmt.Fprintf(app.out, "Total completions: %d\n", data.TotalCompletions)
	for _, a := range achievement.Unlocked(stats) {
		fmt.Fprintf(app.out, "  %s %s\n", a.Icon, a.Name)
	}
	return nil
}

type RoutinesCatalogCmd struct{}

func (c *RoutinesCatalogCmd) Run(app *appContext) error {
	enc := json.NewEncoder(app.out)
	enc.SetIndent("", "  ")
	return enc.Encode(routine.DefaultCatalog())
}
