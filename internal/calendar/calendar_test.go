package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glowRoutineAPI/internal/progress"
)

func TestBuild(t *testing.T) {
	done := &progress.CompletionRecord{Completed: true, Timestamp: 1}
	undone := &progress.CompletionRecord{Completed: false, Timestamp: 2}
	completions := map[string]progress.DayCompletions{
		"2024-02-01": {Morning: done, Night: done},
		"2024-02-10": {Night: done},
		"2024-02-11": {Morning: undone},
		"2024-03-01": {Morning: done},
	}
	today := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)

	resp, err := Build(completions, 2024, 2, today)
	require.NoError(t, err)

	require.Len(t, resp.Days, 29, "2024 is a leap year")
	assert.Equal(t, 2, resp.CompletedDays)
	assert.Equal(t, 1, resp.PerfectDays)

	assert.Equal(t, "2024-02-01", resp.Days[0].Date)
	assert.True(t, resp.Days[0].Morning)
	assert.True(t, resp.Days[0].Night)

	tenth := resp.Days[9]
	assert.Equal(t, "2024-02-10", tenth.Date)
	assert.True(t, tenth.IsToday)
	assert.True(t, tenth.Completed)
	assert.False(t, tenth.Morning)

	assert.False(t, resp.Days[10].Completed, "tombstones do not count")
}

func TestBuild_InvalidInput(t *testing.T) {
	_, err := Build(nil, 2024, 13, time.Now())
	assert.Error(t, err)

	_, err = Build(nil, 12, 1, time.Now())
	assert.Error(t, err)
}
