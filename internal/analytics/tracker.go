package analytics

import "context"

// Tracker captures product analytics events. Emission is fire-and-forget:
// callers invoke it from background goroutines, never await the result in
// a request path, and never let a tracking failure affect control flow.
type Tracker interface {
	Capture(ctx context.Context, userID, event string, properties map[string]interface{}) error
}

// Event names shared with the mobile client.
const (
	EventSignIn             = "user_sign_in"
	EventSignOut            = "user_sign_out"
	EventOnboardingComplete = "onboarding_complete"
	EventScheduleUpdated    = "schedule_updated"
	EventCallStarted        = "call_started"
	EventCallEnded          = "call_ended"
	EventError              = "error_occurred"
)
