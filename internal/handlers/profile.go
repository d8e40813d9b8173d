package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"adulting-backend/internal/analytics"
	"adulting-backend/internal/domain"
	"adulting-backend/internal/googleauth"
	"adulting-backend/internal/middleware"
	"adulting-backend/internal/models"
	"adulting-backend/internal/onboarding"
	"adulting-backend/internal/profile"
)

type ProfileHandler struct {
	profileSvc *profile.Service
	google     *googleauth.Service
	tracker    analytics.Tracker
}

func NewProfileHandler(profileSvc *profile.Service, google *googleauth.Service, tracker analytics.Tracker) *ProfileHandler {
	return &ProfileHandler{
		profileSvc: profileSvc,
		google:     google,
		tracker:    tracker,
	}
}

// load fetches the signed-in user's profile or writes the error response.
func (h *ProfileHandler) load(w http.ResponseWriter, r *http.Request) *models.UserProfile {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return nil
	}

	p, err := h.profileSvc.Load(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return nil
		}
		log.Printf("Error loading profile: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return nil
	}
	return p
}

type profileResponse struct {
	Profile            *models.UserProfile `json:"profile"`
	OnboardingComplete bool                `json:"onboarding_complete"`
}

// --- GET /profile ---
// Call times come back in the profile's own timezone, converted once at
// load, not per render.

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p := h.load(w, r)
	if p == nil {
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Profile:            p,
		OnboardingComplete: p.OnboardingComplete(),
	})
}

// --- PATCH /profile ---

type UpdateContactRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
}

func (h *ProfileHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	p := h.load(w, r)
	if p == nil {
		return
	}

	var req UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.profileSvc.UpdateContact(r.Context(), p, req.Name, req.PhoneNumber, req.Email); err != nil {
		log.Printf("Error updating contact info: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update profile"})
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Profile:            p,
		OnboardingComplete: p.OnboardingComplete(),
	})
}

// --- PUT /profile/schedule ---
// Local wall-clock times in; both UTC fields persisted in one write.

type UpdateScheduleRequest struct {
	MorningCallTime string `json:"morning_call_time"`
	EveningCallTime string `json:"evening_call_time"`
}

func (h *ProfileHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	p := h.load(w, r)
	if p == nil {
		return
	}

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.profileSvc.UpdateSchedule(r.Context(), p, req.MorningCallTime, req.EveningCallTime); err != nil {
		if errors.Is(err, domain.ErrUnknownTimezone) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "profile timezone is invalid"})
			return
		}
		log.Printf("Error updating call schedule: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update call schedule"})
		return
	}

	go h.track(r, analytics.EventScheduleUpdated, map[string]interface{}{
		"timezone": p.Timezone,
	})

	writeJSON(w, http.StatusOK, profileResponse{
		Profile:            p,
		OnboardingComplete: p.OnboardingComplete(),
	})
}

// --- PATCH /profile/timezone ---

type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone"`
}

func (h *ProfileHandler) UpdateTimezone(w http.ResponseWriter, r *http.Request) {
	p := h.load(w, r)
	if p == nil {
		return
	}

	var req UpdateTimezoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.profileSvc.UpdateTimezone(r.Context(), p, req.Timezone); err != nil {
		if errors.Is(err, domain.ErrUnknownTimezone) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "not a valid IANA timezone"})
			return
		}
		log.Printf("Error updating timezone: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update timezone"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"timezone": p.Timezone})
}

// --- POST /profile/streak ---

func (h *ProfileHandler) IncrementStreak(w http.ResponseWriter, r *http.Request) {
	p := h.load(w, r)
	if p == nil {
		return
	}

	if err := h.profileSvc.IncrementStreak(r.Context(), p); err != nil {
		log.Printf("Error incrementing streak: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update streak"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"call_streak": p.CallStreak})
}

// --- DELETE /profile/streak ---

func (h *ProfileHandler) ResetStreak(w http.ResponseWriter, r *http.Request) {
	p := h.load(w, r)
	if p == nil {
		return
	}

	if err := h.profileSvc.ResetStreak(r.Context(), p); err != nil {
		log.Printf("Error resetting streak: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update streak"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"call_streak": p.CallStreak})
}

// --- PATCH /profile/calls ---

type SetCallsEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *ProfileHandler) SetCallsEnabled(w http.ResponseWriter, r *http.Request) {
	p := h.load(w, r)
	if p == nil {
		return
	}

	var req SetCallsEnabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.profileSvc.SetCallsEnabled(r.Context(), p, req.Enabled); err != nil {
		log.Printf("Error toggling calls: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update calls setting"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"calls_enabled": p.CallsEnabled})
}

// --- POST /onboarding/complete ---
// Runs the whole onboarding flow server-side in one shot: validates each
// step the way the app does, then persists contact info and schedule.

type CompleteOnboardingRequest struct {
	Name            string `json:"name"`
	PhoneNumber     string `json:"phone_number"`
	Email           string `json:"email"`
	MorningCallTime string `json:"morning_call_time"`
	EveningCallTime string `json:"evening_call_time"`
}

func (h *ProfileHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	p := h.load(w, r)
	if p == nil {
		return
	}

	var req CompleteOnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	flow := onboarding.NewFlow(h.profileSvc, p)
	flow.Name = req.Name
	flow.PhoneNumber = req.PhoneNumber
	flow.Email = req.Email
	if req.MorningCallTime != "" {
		flow.MorningCallTime = req.MorningCallTime
	}
	if req.EveningCallTime != "" {
		flow.EveningCallTime = req.EveningCallTime
	}

	for flow.Step() != onboarding.StepSchedule {
		if err := flow.Next(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	if err := flow.Finish(r.Context()); err != nil {
		log.Printf("Error completing onboarding: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save profile"})
		return
	}

	go h.track(r, analytics.EventOnboardingComplete, map[string]interface{}{"steps_completed": 3})

	writeJSON(w, http.StatusOK, profileResponse{
		Profile:            p,
		OnboardingComplete: p.OnboardingComplete(),
	})
}

// --- GET /profile/watch ---
// Live profile snapshots as server-sent events: the current state first,
// then one event per store update, each already localized. The stream
// ends when the client disconnects; clients resubscribe to restart it.

func (h *ProfileHandler) WatchProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	snapshots, err := h.profileSvc.Watch(r.Context(), userID)
	if err != nil {
		log.Printf("Error opening profile stream: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to open profile stream"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for snapshot := range snapshots {
		payload, err := json.Marshal(profileResponse{
			Profile:            snapshot,
			OnboardingComplete: snapshot.OnboardingComplete(),
		})
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

// --- GET /calendar/events ---
// Reads the user's primary Google calendar with the stored access token.

func (h *ProfileHandler) GetCalendarEvents(w http.ResponseWriter, r *http.Request) {
	p := h.load(w, r)
	if p == nil {
		return
	}

	if h.google == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "google sign-in is not configured"})
		return
	}

	events, err := h.google.FetchCalendarEvents(r.Context(), p.GoogleAccessToken)
	if err != nil {
		if errors.Is(err, domain.ErrMissingCredential) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no google account linked"})
			return
		}
		log.Printf("Error fetching calendar events: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch calendar events"})
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// track fires an analytics event from a background goroutine; the request
// context may already be done by the time it runs, so it uses its own.
func (h *ProfileHandler) track(r *http.Request, event string, props map[string]interface{}) {
	if h.tracker == nil {
		return
	}
	userID := middleware.GetUserID(r.Context())
	if err := h.tracker.Capture(context.Background(), userID, event, props); err != nil {
		log.Printf("Error capturing analytics event %s: %v", event, err)
	}
}
