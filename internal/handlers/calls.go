package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"adulting-backend/internal/analytics"
	"adulting-backend/internal/middleware"
	"adulting-backend/internal/profile"
	"adulting-backend/internal/voice"
)

type CallsHandler struct {
	voiceClient *voice.Client
	sessions    *voice.SessionRegistry
	profileSvc  *profile.Service
	tracker     analytics.Tracker
}

func NewCallsHandler(voiceClient *voice.Client, sessions *voice.SessionRegistry, profileSvc *profile.Service, tracker analytics.Tracker) *CallsHandler {
	return &CallsHandler{
		voiceClient: voiceClient,
		sessions:    sessions,
		profileSvc:  profileSvc,
		tracker:     tracker,
	}
}

// --- POST /calls/start ---

func (h *CallsHandler) StartCall(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	p, err := h.profileSvc.Load(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}
	if !p.CallsEnabled {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "calls are disabled for this profile"})
		return
	}

	callID, err := h.voiceClient.StartCall(r.Context(), map[string]string{
		"user_id":   userID,
		"user_name": p.Name,
		"call_type": "immediate",
	})
	if err != nil {
		log.Printf("Error starting call: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to start call"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"call_id": callID})
}

// --- POST /calls/stop ---

type StopCallRequest struct {
	CallID string `json:"call_id"`
}

func (h *CallsHandler) StopCall(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req StopCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CallID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "call_id is required"})
		return
	}

	if err := h.voiceClient.StopCall(r.Context(), req.CallID); err != nil {
		log.Printf("Error stopping call: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to stop call"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "call stopped"})
}

// --- GET /calls/session ---

func (h *CallsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	writeJSON(w, http.StatusOK, h.sessions.Get(userID))
}

// --- POST /webhooks/vapi ---
// Vapi posts call lifecycle events here. Events only move display flags;
// the one side effect is the streak bump when a call completes for a
// profile with calls enabled.

type VapiWebhookEvent struct {
	Event  string `json:"event"`
	UserID string `json:"user_id"`
	CallID string `json:"call_id"`
}

func (h *CallsHandler) VapiWebhook(w http.ResponseWriter, r *http.Request) {
	var event VapiWebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if event.Event == "" || event.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "event and user_id are required"})
		return
	}

	callEnded := h.sessions.Apply(event.UserID, event.Event, event.CallID)

	switch event.Event {
	case voice.EventCallStarted:
		go h.capture(event.UserID, analytics.EventCallStarted, map[string]interface{}{"call_id": event.CallID})
	case voice.EventCallEnded:
		if callEnded {
			h.bumpStreak(r.Context(), event.UserID)
		}
		go h.capture(event.UserID, analytics.EventCallEnded, map[string]interface{}{"call_id": event.CallID})
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// bumpStreak increments the streak after a completed call, when the
// profile still has calls enabled.
func (h *CallsHandler) bumpStreak(ctx context.Context, userID string) {
	p, err := h.profileSvc.Load(ctx, userID)
	if err != nil {
		log.Printf("Error loading profile for streak update: %v", err)
		return
	}
	if !p.CallsEnabled {
		return
	}
	if err := h.profileSvc.IncrementStreak(ctx, p); err != nil {
		log.Printf("Error incrementing streak: %v", err)
	}
}

func (h *CallsHandler) capture(userID, event string, props map[string]interface{}) {
	if h.tracker == nil {
		return
	}
	if err := h.tracker.Capture(context.Background(), userID, event, props); err != nil {
		log.Printf("Error capturing analytics event %s: %v", event, err)
	}
}
