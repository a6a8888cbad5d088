package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"glowRoutineAPI/internal/achievement"
	"glowRoutineAPI/internal/notification"
)

// Notifier is the one method the trigger needs from the notification service.
type Notifier interface {
	Show(ctx context.Context, userID, title, body string, data map[string]any) error
}

// AchievementsUnlocked announces every achievement in unlocked. It runs
// detached from the request, so failures are only logged.
func AchievementsUnlocked(notifier Notifier, userID string, unlocked []achievement.Achievement) {
	if notifier == nil || len(unlocked) == 0 {
		return
	}

	bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, a := range unlocked {
		title := fmt.Sprintf("%s Achievement unlocked!", a.Icon)
		data := map[string]any{
			"type":          string(notification.TypeAchievement),
			"achievementId": a.ID,
			"rarity":        string(a.Rarity),
		}

		if err := notifier.Show(bgCtx, userID, title, a.Name, data); err != nil {
			log.Printf("Failed to announce achievement %s for user %s: %v", a.ID, userID, err)
		}
	}
}
