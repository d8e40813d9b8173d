package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"adulting-backend/internal/middleware"
	"adulting-backend/internal/models"
	"adulting-backend/internal/repository"

	"github.com/go-chi/chi/v5"
)

// Planner documents are keyed by user and "YYYY-MM-DD" day strings.
const plannerDateLayout = "2006-01-02"

type PlannerHandler struct {
	plannerRepo *repository.PlannerRepo
}

func NewPlannerHandler(plannerRepo *repository.PlannerRepo) *PlannerHandler {
	return &PlannerHandler{
		plannerRepo: plannerRepo,
	}
}

func plannerDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(plannerDateLayout, date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return "", false
	}
	return date, true
}

// --- GET /planner/{date} ---
// A day with no saved planner comes back empty, not as an error.

func (h *PlannerHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	date, ok := plannerDate(w, r)
	if !ok {
		return
	}

	planner, err := h.plannerRepo.FindByDate(r.Context(), userID, date)
	if err != nil {
		log.Printf("Error fetching planner: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, planner)
}

// --- PUT /planner/{date}/meals ---

func (h *PlannerHandler) SetMeals(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	date, ok := plannerDate(w, r)
	if !ok {
		return
	}

	var meals models.DayMeals
	if err := json.NewDecoder(r.Body).Decode(&meals); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.plannerRepo.SetMeals(r.Context(), userID, date, meals); err != nil {
		log.Printf("Error saving meals: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save meals"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "meals saved"})
}

// --- PUT /planner/{date}/tasks ---

type SetTasksRequest struct {
	Tasks []models.TaskItem `json:"tasks"`
}

func (h *PlannerHandler) SetTasks(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	date, ok := plannerDate(w, r)
	if !ok {
		return
	}

	var req SetTasksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.plannerRepo.SetTasks(r.Context(), userID, date, req.Tasks); err != nil {
		log.Printf("Error saving tasks: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save tasks"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "tasks saved"})
}

// --- PATCH /planner/{date}/tasks/{index} ---
// Tasks have positional identity inside the document, so a toggle reads
// the day, flips one entry and writes the whole array back.

func (h *PlannerHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	date, ok := plannerDate(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task index"})
		return
	}

	planner, err := h.plannerRepo.FindByDate(r.Context(), userID, date)
	if err != nil {
		log.Printf("Error fetching planner: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if index >= len(planner.Tasks) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	planner.Tasks[index].IsComplete = !planner.Tasks[index].IsComplete

	if err := h.plannerRepo.SetTasks(r.Context(), userID, date, planner.Tasks); err != nil {
		log.Printf("Error saving tasks: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save tasks"})
		return
	}

	writeJSON(w, http.StatusOK, planner)
}
