package onboarding

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"adulting-backend/internal/models"
	"adulting-backend/internal/profile"
)

// Step is one screen of the onboarding flow.
type Step int

const (
	StepName Step = iota
	StepContactInfo
	StepSchedule
	StepComplete
)

var (
	ErrNameRequired = errors.New("please enter your name")
	ErrInvalidEmail = errors.New("please enter a valid email address")
	ErrFlowComplete = errors.New("onboarding already completed")
	ErrNotAtEnd     = errors.New("onboarding steps are not finished")
)

var emailPattern = regexp.MustCompile(`^[A-Z0-9a-z._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Flow walks a new user through name, contact info and call schedule, one
// step at a time with forward validation. Nothing is persisted until
// Finish, which runs the contact update then the schedule update; a
// finished flow cannot be reopened — later edits go through the profile
// screen instead.
type Flow struct {
	svc     *profile.Service
	profile *models.UserProfile
	step    Step

	Name        string
	PhoneNumber string
	Email       string

	// Local wall-clock times in the profile's zone.
	MorningCallTime string
	EveningCallTime string
}

func NewFlow(svc *profile.Service, p *models.UserProfile) *Flow {
	return &Flow{
		svc:     svc,
		profile: p,
		// Default call times shown before the user touches the pickers.
		MorningCallTime: "8:00 AM",
		EveningCallTime: "9:00 PM",
	}
}

func (f *Flow) Step() Step {
	return f.step
}

// Next validates the current step and advances to the following one.
func (f *Flow) Next() error {
	switch f.step {
	case StepName:
		if strings.TrimSpace(f.Name) == "" {
			return ErrNameRequired
		}
		f.step = StepContactInfo
	case StepContactInfo:
		// Phone is optional; email is validated only when provided.
		if f.Email != "" && !emailPattern.MatchString(f.Email) {
			return ErrInvalidEmail
		}
		f.step = StepSchedule
	case StepSchedule:
		return ErrNotAtEnd // the last step finishes, it does not advance
	case StepComplete:
		return ErrFlowComplete
	}
	return nil
}

// Back moves one step backward. It reports false on the first step and
// after completion, where there is nothing to go back to.
func (f *Flow) Back() bool {
	if f.step == StepName || f.step == StepComplete {
		return false
	}
	f.step--
	return true
}

// Finish persists everything the flow collected: the contact fields
// first, then the call schedule. A failed write leaves the flow on the
// schedule step so the user can retry; success is terminal.
func (f *Flow) Finish(ctx context.Context) error {
	switch f.step {
	case StepComplete:
		return ErrFlowComplete
	case StepName, StepContactInfo:
		return ErrNotAtEnd
	}

	if err := f.svc.UpdateContact(ctx, f.profile, &f.Name, &f.PhoneNumber, &f.Email); err != nil {
		return err
	}
	if err := f.svc.UpdateSchedule(ctx, f.profile, f.MorningCallTime, f.EveningCallTime); err != nil {
		return err
	}

	f.step = StepComplete
	return nil
}
