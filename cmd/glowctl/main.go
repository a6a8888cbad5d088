// Command glowctl inspects the local reminder database and exported progress
// documents.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
)

var CLI struct {
	Version  kong.VersionFlag
	DB       string `help:"Reminders database path." type:"path" default:"reminders.db" env:"REMINDERS_DB_PATH"`
	Key      string `help:"Base storage key. Each user's list is stored under <key>:<user>." default:"skincareReminders_v2" env:"REMINDERS_STORAGE_KEY"`
	Timezone string `help:"Timezone for local dates." default:"Local" env:"APP_TIMEZONE"`

	Reminders struct {
		List  RemindersListCmd  `cmd:"" help:"List stored reminders."`
		Prune RemindersPruneCmd `cmd:"" help:"Drop reminders older than 24 hours."`
	} `cmd:"" help:"Manage the reminder database."`
	Streak   StreakCmd   `cmd:"" help:"Compute streak and achievements from an exported progress document."`
	Routines struct {
		Catalog RoutinesCatalogCmd `cmd:"" help:"Print the built-in product catalog."`
	} `cmd:"" help:"Inspect routine content."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("glowctl"),
		kong.Description("Admin tool for the glow routine API"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	loc, err := loadLocation(CLI.Timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app := &appContext{
		out:    os.Stdout,
		dbPath: CLI.DB,
		key:    CLI.Key,
		loc:    loc,
		now:    time.Now,
	}

	if err := ctx.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
