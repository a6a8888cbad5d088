package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"glowRoutineAPI/internal/routine"
	"glowRoutineAPI/middleware"
	"glowRoutineAPI/services"
)

type RoutineHandler struct {
	routineService *services.RoutineService
}

func NewRoutineHandler(routineService *services.RoutineService) *RoutineHandler {
	return &RoutineHandler{
		routineService: routineService,
	}
}

// GetRoutines seeds the defaults on first access, then returns the user's
// routines. An unreadable document is served as an empty routine.
func (h *RoutineHandler) GetRoutines(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if _, err := h.routineService.CheckAndAutoImport(ctx, userID); err != nil {
		log.Printf("GetRoutines: auto import for user %s failed: %v", userID, err)
	}

	data := h.routineService.GetRoutines(ctx, userID)
	if data == nil {
		data = h.routineService.EmptyRoutineData()
	}

	respondWithJSON(w, http.StatusOK, data)
}

func (h *RoutineHandler) SaveRoutines(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)

	var req routine.RoutineData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	saved, err := h.routineService.SaveRoutines(ctx, userID, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, saved)
}

func (h *RoutineHandler) ImportDefaults(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)

	data, err := h.routineService.MigrateDefaultRoutines(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, data)
}

func (h *RoutineHandler) GetDefaults(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, routine.Defaults(time.Now()))
}

func (h *RoutineHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, routine.DefaultCatalog())
}

func (h *RoutineHandler) GetTonight(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, _ := middleware.GetUserID(ctx)

	tonight, err := h.routineService.GetTonight(ctx, userID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, tonight)
}
