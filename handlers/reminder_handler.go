package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"glowRoutineAPI/internal/reminder"
	"glowRoutineAPI/middleware"
	"glowRoutineAPI/services"
)

type ReminderHandler struct {
	reminders *services.ReminderManager
}

func NewReminderHandler(reminders *services.ReminderManager) *ReminderHandler {
	return &ReminderHandler{
		reminders: reminders,
	}
}

type createReminderRequest struct {
	Type  reminder.Type `json:"type"`
	When  int64         `json:"when"`
	Title string        `json:"title"`
}

type reminderView struct {
	reminder.Reminder
	TimeUntil string `json:"timeUntil"`
	Armed     bool   `json:"armed"`
}

func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)
	list, err := h.reminders.ListReminders(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	now := time.Now()
	views := make([]reminderView, 0, len(list))
	for _, rem := range list {
		views = append(views, reminderView{
			Reminder:  rem,
			TimeUntil: reminder.TimeUntil(rem.When, now),
			Armed:     h.reminders.IsArmed(userID, rem.ID),
		})
	}

	respondWithJSON(w, http.StatusOK, views)
}

func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	scheduler, ok := h.scheduler(w, r)
	if !ok {
		return
	}

	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rem := scheduler.CreateReminder(req.Type, req.When, req.Title)
	if err := scheduler.AddReminder(ctx, rem); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, rem)
}

// SnoozeReminder and DeleteReminder only look in the caller's own list, so
// an id that belongs to someone else is a silent no-op.
func (h *ReminderHandler) SnoozeReminder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	scheduler, ok := h.scheduler(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]

	minutes := 0
	if raw := r.URL.Query().Get("minutes"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'minutes' must be an integer")
			return
		}
		minutes = m
	}

	if err := scheduler.SnoozeReminder(ctx, id, minutes); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Reminder snoozed"})
}

func (h *ReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	scheduler, ok := h.scheduler(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]

	if err := scheduler.DeleteReminder(ctx, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Reminder deleted"})
}

func (h *ReminderHandler) scheduler(w http.ResponseWriter, r *http.Request) (*services.ReminderScheduler, bool) {
	userID, _ := middleware.GetUserID(r.Context())
	scheduler, err := h.reminders.For(userID)
	if err != nil {
		respondWithServiceError(w, err)
		return nil, false
	}
	return scheduler, true
}
