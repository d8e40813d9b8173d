package voice

import "sync"

// Event kinds delivered by the Vapi webhook.
const (
	EventCallStarted        = "call-started"
	EventCallEnded          = "call-ended"
	EventTranscriptReceived = "transcript-received"
	EventSpeechStarted      = "speech-started"
	EventSpeechStopped      = "speech-stopped"
)

// Session is the per-user display state derived from call events. Only
// these booleans cross into the app; no business logic reads transcript
// content.
type Session struct {
	CallActive        bool   `json:"call_active"`
	UserSpeaking      bool   `json:"user_speaking"`
	AssistantSpeaking bool   `json:"assistant_speaking"`
	CallID            string `json:"call_id,omitempty"`
}

// SessionRegistry maps webhook events onto per-user session flags.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Get returns a copy of the user's session state; a user with no events
// yet gets the zero state.
func (r *SessionRegistry) Get(userID string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		return *s
	}
	return Session{}
}

// Apply folds one webhook event into the user's session and reports
// whether the event ended a call (the caller bumps the streak on that).
func (r *SessionRegistry) Apply(userID, event, callID string) (callEnded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		s = &Session{}
		r.sessions[userID] = s
	}

	switch event {
	case EventCallStarted:
		s.CallActive = true
		s.CallID = callID
	case EventCallEnded:
		ended := s.CallActive
		*s = Session{}
		return ended
	case EventTranscriptReceived:
		s.UserSpeaking = true
	case EventSpeechStarted:
		s.AssistantSpeaking = true
		s.UserSpeaking = false
	case EventSpeechStopped:
		s.AssistantSpeaking = false
	}
	return false
}
