package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"glowRoutineAPI/internal/progress"
	"glowRoutineAPI/middleware"
	"glowRoutineAPI/services"
)

type ProgressHandler struct {
	progressService *services.ProgressService
}

func NewProgressHandler(progressService *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
	}
}

type completionRequest struct {
	Date string        `json:"date"`
	Slot progress.Slot `json:"slot"`
}

type manualCompletionRequest struct {
	Date  string          `json:"date"`
	Slots []progress.Slot `json:"slots"`
}

func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	data := h.progressService.GetProgressData(ctx, userID)
	if data == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Progress unavailable, please retry")
		return
	}

	respondWithJSON(w, http.StatusOK, data)
}

func (h *ProgressHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)

	streak, err := h.progressService.GetStreak(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, streak)
}

func (h *ProgressHandler) IsCompleted(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	date := r.URL.Query().Get("date")
	slot := r.URL.Query().Get("slot")
	if date == "" || slot == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameters 'date' and 'slot' are required")
		return
	}

	completed := h.progressService.IsCompleted(ctx, userID, date, progress.Slot(slot))

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"date":      date,
		"slot":      slot,
		"completed": completed,
	})
}

func (h *ProgressHandler) MarkComplete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	data, err := h.progressService.MarkComplete(ctx, userID, req.Date, req.Slot)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, data)
}

func (h *ProgressHandler) RemoveCompletion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)

	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	data, err := h.progressService.RemoveCompletion(ctx, userID, req.Date, req.Slot)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, data)
}

func (h *ProgressHandler) RegisterManualCompletion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)

	var req manualCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	data, err := h.progressService.RegisterManualCompletion(ctx, userID, req.Date, req.Slots)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, data)
}

func (h *ProgressHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)

	achievements, err := h.progressService.GetAchievements(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, achievements)
}

func (h *ProgressHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)

	year := r.URL.Query().Get("year")
	month := r.URL.Query().Get("month")

	if year == "" || month == "" {
		respondWithError(w, http.StatusBadRequest, "year and month are required")
		return
	}

	var yearInt, monthInt int
	if _, err := fmt.Sscanf(year, "%d", &yearInt); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid year format")
		return
	}
	if _, err := fmt.Sscanf(month, "%d", &monthInt); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid month format")
		return
	}

	calendar, err := h.progressService.GetCalendar(ctx, userID, yearInt, monthInt)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, calendar)
}

func (h *ProgressHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)

	stats, err := h.progressService.GetStats(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
