package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"adulting-backend/internal/models"
	"adulting-backend/internal/profile"
	"adulting-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flowStore is a minimal in-memory profile.Store for flow tests.
type flowStore struct {
	scheduleWrites int
	contactWrites  int
	failContact    bool
	failSchedule   bool
}

func (s *flowStore) FindByID(context.Context, string) (*models.UserProfile, error) {
	return nil, nil
}

func (s *flowStore) FindOrCreate(context.Context, string, string, string) (*models.UserProfile, error) {
	return nil, nil
}

func (s *flowStore) UpdateContact(_ context.Context, _ string, _, _, _ *string) error {
	if s.failContact {
		return errors.New("write rejected")
	}
	s.contactWrites++
	return nil
}

func (s *flowStore) UpdateCallSchedule(_ context.Context, _, _, _ string) error {
	if s.failSchedule {
		return errors.New("write rejected")
	}
	s.scheduleWrites++
	return nil
}

func (s *flowStore) UpdateTimezone(context.Context, string, string) error     { return nil }
func (s *flowStore) IncrementStreak(context.Context, string) error            { return nil }
func (s *flowStore) ResetStreak(context.Context, string) error                { return nil }
func (s *flowStore) SetCallsEnabled(context.Context, string, bool) error      { return nil }
func (s *flowStore) SetGoogleCredentials(context.Context, string, string, string, string) error {
	return nil
}

func (s *flowStore) Watch(context.Context, string) (<-chan *models.UserProfile, error) {
	return nil, nil
}

func newFlow(store *flowStore) (*Flow, *models.UserProfile) {
	instant, _ := time.Parse(time.RFC3339, "2025-07-10T12:00:00Z")
	svc := profile.NewService(store, "America/New_York").
		WithConverter(timeutil.Converter{Now: func() time.Time { return instant }})
	p := &models.UserProfile{ID: "u1", Timezone: "America/New_York"}
	return NewFlow(svc, p), p
}

func TestFlow_HappyPath(t *testing.T) {
	store := &flowStore{}
	flow, p := newFlow(store)

	assert.Equal(t, StepName, flow.Step())

	flow.Name = "Alex"
	require.NoError(t, flow.Next())
	assert.Equal(t, StepContactInfo, flow.Step())

	flow.PhoneNumber = "+1 555 123 4567"
	flow.Email = "alex@example.com"
	require.NoError(t, flow.Next())
	assert.Equal(t, StepSchedule, flow.Step())

	flow.MorningCallTime = "7:30 AM"
	flow.EveningCallTime = "10:00 PM"
	require.NoError(t, flow.Finish(context.Background()))
	assert.Equal(t, StepComplete, flow.Step())

	assert.Equal(t, 1, store.contactWrites)
	assert.Equal(t, 1, store.scheduleWrites)

	// The profile now passes the onboarding gate, with local times intact.
	assert.True(t, p.OnboardingComplete())
	assert.Equal(t, "7:30 AM", p.MorningCallTime)
	assert.Equal(t, "10:00 PM", p.EveningCallTime)
}

func TestFlow_ValidationBlocksNext(t *testing.T) {
	flow, _ := newFlow(&flowStore{})

	assert.ErrorIs(t, flow.Next(), ErrNameRequired)
	flow.Name = "   "
	assert.ErrorIs(t, flow.Next(), ErrNameRequired)

	flow.Name = "Alex"
	require.NoError(t, flow.Next())

	flow.Email = "not-an-email"
	assert.ErrorIs(t, flow.Next(), ErrInvalidEmail)

	// Email is optional; empty passes.
	flow.Email = ""
	require.NoError(t, flow.Next())
}

func TestFlow_BackNavigation(t *testing.T) {
	flow, _ := newFlow(&flowStore{})

	assert.False(t, flow.Back(), "cannot go back from the first step")

	flow.Name = "Alex"
	require.NoError(t, flow.Next())
	require.NoError(t, flow.Next())
	assert.Equal(t, StepSchedule, flow.Step())

	assert.True(t, flow.Back())
	assert.Equal(t, StepContactInfo, flow.Step())
	assert.True(t, flow.Back())
	assert.Equal(t, StepName, flow.Step())
}

func TestFlow_FinishOnlyFromScheduleStep(t *testing.T) {
	flow, _ := newFlow(&flowStore{})

	assert.ErrorIs(t, flow.Finish(context.Background()), ErrNotAtEnd)
}

func TestFlow_CompleteIsTerminal(t *testing.T) {
	store := &flowStore{}
	flow, _ := newFlow(store)

	flow.Name = "Alex"
	flow.PhoneNumber = "555"
	flow.Email = "alex@example.com"
	require.NoError(t, flow.Next())
	require.NoError(t, flow.Next())
	require.NoError(t, flow.Finish(context.Background()))

	assert.ErrorIs(t, flow.Next(), ErrFlowComplete)
	assert.ErrorIs(t, flow.Finish(context.Background()), ErrFlowComplete)
	assert.False(t, flow.Back())
}

func TestFlow_FailedFinishStaysRetryable(t *testing.T) {
	store := &flowStore{failSchedule: true}
	flow, p := newFlow(store)

	flow.Name = "Alex"
	flow.PhoneNumber = "555"
	flow.Email = "alex@example.com"
	require.NoError(t, flow.Next())
	require.NoError(t, flow.Next())

	err := flow.Finish(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepSchedule, flow.Step(), "flow stays on the schedule step for retry")
	assert.Equal(t, "", p.MorningCallTime, "schedule fields untouched after a failed write")

	store.failSchedule = false
	require.NoError(t, flow.Finish(context.Background()))
	assert.Equal(t, StepComplete, flow.Step())
}
