package models

import (
	"strings"
	"time"
)

// UserProfile is the per-account document in the users collection. The
// document id is the opaque account id minted at first sign-in.
//
// MorningCallTime and EveningCallTime are wall-clock "h:mm a" strings with
// no date component. They are stored in UTC and must be converted to the
// profile's timezone before display, and back to UTC after an edit.
type UserProfile struct {
	ID              string    `bson:"_id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	PhoneNumber     string    `bson:"phoneNumber" json:"phone_number"`
	Email           string    `bson:"email" json:"email"`
	CallStreak      int       `bson:"callStreak" json:"call_streak"`
	MorningCallTime string    `bson:"morningCallTime" json:"morning_call_time"`
	EveningCallTime string    `bson:"eveningCallTime" json:"evening_call_time"`
	Timezone        string    `bson:"timezone,omitempty" json:"timezone"`
	CreatedAt       time.Time `bson:"createdAt" json:"created_at"`
	CallsEnabled    bool      `bson:"callsEnabled" json:"calls_enabled"`

	// Present only after a linked Google sign-in.
	GoogleAccessToken  string `bson:"googleAccessToken,omitempty" json:"-"`
	GoogleRefreshToken string `bson:"googleRefreshToken,omitempty" json:"-"`
	GoogleEmail        string `bson:"googleEmail,omitempty" json:"google_email,omitempty"`
}

// OnboardingComplete reports whether the profile has everything onboarding
// collects: name, email, phone number and both call times. The navigation
// layer routes to profile setup whenever this is false, so it is evaluated
// fresh on every profile change rather than cached.
func (p *UserProfile) OnboardingComplete() bool {
	required := []string{p.Name, p.Email, p.PhoneNumber, p.MorningCallTime, p.EveningCallTime}
	for _, field := range required {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}
