package analytics

import (
	"context"
	"log"
)

// LogTracker implements Tracker by writing events to the server log.
// Used in development and whenever no analytics backend is configured.
type LogTracker struct{}

func NewLogTracker() *LogTracker {
	return &LogTracker{}
}

func (t *LogTracker) Capture(_ context.Context, userID, event string, properties map[string]interface{}) error {
	log.Printf("📊 [analytics] %s user=%s props=%v", event, userID, properties)
	return nil
}
