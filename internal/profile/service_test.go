package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"adulting-backend/internal/domain"
	"adulting-backend/internal/models"
	"adulting-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records calls and can be told to fail writes.
type fakeStore struct {
	profiles map[string]*models.UserProfile
	writeErr error

	scheduleCalls []scheduleCall
	googleCalls   int
	watchCh       chan *models.UserProfile
}

type scheduleCall struct {
	morningUTC string
	eveningUTC string
}

func newFakeStore(profiles ...*models.UserProfile) *fakeStore {
	s := &fakeStore{profiles: map[string]*models.UserProfile{}}
	for _, p := range profiles {
		copied := *p
		s.profiles[p.ID] = &copied
	}
	return s
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*models.UserProfile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) FindOrCreate(_ context.Context, id, email, timezone string) (*models.UserProfile, error) {
	for _, p := range s.profiles {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	created := &models.UserProfile{
		ID:              id,
		Email:           email,
		MorningCallTime: "8:00 AM",
		EveningCallTime: "9:00 PM",
		Timezone:        timezone,
		CreatedAt:       time.Now(),
		CallsEnabled:    true,
	}
	s.profiles[id] = created
	copied := *created
	return &copied, nil
}

func (s *fakeStore) UpdateContact(_ context.Context, id string, name, phoneNumber, email *string) error {
	return s.writeErr
}

func (s *fakeStore) UpdateCallSchedule(_ context.Context, id, morningUTC, eveningUTC string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.scheduleCalls = append(s.scheduleCalls, scheduleCall{morningUTC, eveningUTC})
	if p, ok := s.profiles[id]; ok {
		p.MorningCallTime = morningUTC
		p.EveningCallTime = eveningUTC
	}
	return nil
}

func (s *fakeStore) UpdateTimezone(_ context.Context, id, timezone string) error { return s.writeErr }
func (s *fakeStore) IncrementStreak(_ context.Context, id string) error          { return s.writeErr }
func (s *fakeStore) ResetStreak(_ context.Context, id string) error              { return s.writeErr }
func (s *fakeStore) SetCallsEnabled(_ context.Context, id string, enabled bool) error {
	return s.writeErr
}

func (s *fakeStore) SetGoogleCredentials(_ context.Context, id, accessToken, refreshToken, email string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.googleCalls++
	return nil
}

func (s *fakeStore) Watch(_ context.Context, id string) (<-chan *models.UserProfile, error) {
	s.watchCh = make(chan *models.UserProfile, 4)
	return s.watchCh, nil
}

func winterService(store Store) *Service {
	instant, _ := time.Parse(time.RFC3339, "2025-01-15T12:00:00Z")
	return NewService(store, "America/Los_Angeles").
		WithConverter(timeutil.Converter{Now: func() time.Time { return instant }})
}

func summerService(store Store) *Service {
	instant, _ := time.Parse(time.RFC3339, "2025-07-10T12:00:00Z")
	return NewService(store, "America/Los_Angeles").
		WithConverter(timeutil.Converter{Now: func() time.Time { return instant }})
}

func TestLoad_LocalizesStoredUTC(t *testing.T) {
	store := newFakeStore(&models.UserProfile{
		ID:              "u1",
		Timezone:        "America/Los_Angeles",
		MorningCallTime: "4:00 PM", // UTC
		EveningCallTime: "5:00 AM", // UTC
	})
	svc := winterService(store)

	p, err := svc.Load(context.Background(), "u1")
	require.NoError(t, err)

	// Pacific standard time is UTC-8.
	assert.Equal(t, "8:00 AM", p.MorningCallTime)
	assert.Equal(t, "9:00 PM", p.EveningCallTime)
}

func TestLoad_FallsBackToDefaultZone(t *testing.T) {
	// Profiles written before the timezone field existed have no zone.
	store := newFakeStore(&models.UserProfile{
		ID:              "u1",
		MorningCallTime: "4:00 PM",
		EveningCallTime: "5:00 AM",
	})
	svc := winterService(store)

	p, err := svc.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "8:00 AM", p.MorningCallTime)
}

func TestLoad_NotFound(t *testing.T) {
	svc := winterService(newFakeStore())

	_, err := svc.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestUpdateSchedule_ConvertsToUTCKeepsLocalInMemory(t *testing.T) {
	store := newFakeStore(&models.UserProfile{ID: "u1", Timezone: "America/New_York"})
	svc := summerService(store)

	p := &models.UserProfile{ID: "u1", Timezone: "America/New_York"}
	err := svc.UpdateSchedule(context.Background(), p, "7:30 AM", "10:00 PM")
	require.NoError(t, err)

	// One write carrying both UTC fields (eastern daylight time, UTC-4).
	require.Len(t, store.scheduleCalls, 1)
	assert.Equal(t, "11:30 AM", store.scheduleCalls[0].morningUTC)
	assert.Equal(t, "2:00 AM", store.scheduleCalls[0].eveningUTC)

	// The in-memory profile shows what the user entered, not UTC.
	assert.Equal(t, "7:30 AM", p.MorningCallTime)
	assert.Equal(t, "10:00 PM", p.EveningCallTime)
}

func TestUpdateSchedule_StoreFailureLeavesProfileUntouched(t *testing.T) {
	store := newFakeStore()
	store.writeErr = errors.New("network down")
	svc := summerService(store)

	p := &models.UserProfile{
		ID:              "u1",
		Timezone:        "America/New_York",
		MorningCallTime: "8:00 AM",
		EveningCallTime: "9:00 PM",
	}
	err := svc.UpdateSchedule(context.Background(), p, "7:30 AM", "10:00 PM")
	assert.ErrorIs(t, err, domain.ErrStoreWrite)

	assert.Equal(t, "8:00 AM", p.MorningCallTime)
	assert.Equal(t, "9:00 PM", p.EveningCallTime)
}

func TestUpdateSchedule_UnresolvableZone(t *testing.T) {
	svc := summerService(newFakeStore())

	p := &models.UserProfile{ID: "u1", Timezone: "Not/AZone"}
	err := svc.UpdateSchedule(context.Background(), p, "7:30 AM", "10:00 PM")
	assert.ErrorIs(t, err, domain.ErrUnknownTimezone)
}

func TestSignIn_CreatesProfileWithDefaults(t *testing.T) {
	store := newFakeStore()
	svc := winterService(store)

	p, err := svc.SignIn(context.Background(), "u1", "new@example.com")
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", p.Email)
	assert.Empty(t, p.Name)
	assert.True(t, p.CallsEnabled)
	assert.False(t, p.OnboardingComplete())
	// Defaults are stored in UTC and handed back localized (UTC-8).
	assert.Equal(t, "12:00 AM", p.MorningCallTime)
	assert.Equal(t, "1:00 PM", p.EveningCallTime)
}

func TestStreakMutations(t *testing.T) {
	store := newFakeStore()
	svc := winterService(store)
	p := &models.UserProfile{ID: "u1", CallStreak: 3}

	require.NoError(t, svc.IncrementStreak(context.Background(), p))
	assert.Equal(t, 4, p.CallStreak)

	require.NoError(t, svc.ResetStreak(context.Background(), p))
	assert.Equal(t, 0, p.CallStreak)

	store.writeErr = errors.New("write rejected")
	p.CallStreak = 2
	assert.ErrorIs(t, svc.IncrementStreak(context.Background(), p), domain.ErrStoreWrite)
	assert.Equal(t, 2, p.CallStreak)
}

func TestLinkGoogle_MissingCredentialAbortsBeforeStore(t *testing.T) {
	store := newFakeStore()
	svc := winterService(store)
	p := &models.UserProfile{ID: "u1"}

	err := svc.LinkGoogle(context.Background(), p, "", "refresh", "g@example.com")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Zero(t, store.googleCalls)

	err = svc.LinkGoogle(context.Background(), p, "access", "refresh", "")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	assert.Zero(t, store.googleCalls)

	require.NoError(t, svc.LinkGoogle(context.Background(), p, "access", "refresh", "g@example.com"))
	assert.Equal(t, 1, store.googleCalls)
	assert.Equal(t, "g@example.com", p.GoogleEmail)
}

func TestWatch_LocalizesEachSnapshot(t *testing.T) {
	store := newFakeStore()
	svc := winterService(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out, err := svc.Watch(ctx, "u1")
	require.NoError(t, err)

	store.watchCh <- &models.UserProfile{
		ID:              "u1",
		Timezone:        "America/Los_Angeles",
		MorningCallTime: "4:00 PM",
	}
	store.watchCh <- &models.UserProfile{
		ID:              "u1",
		Timezone:        "America/Los_Angeles",
		MorningCallTime: "5:00 PM",
	}
	close(store.watchCh)

	first := <-out
	assert.Equal(t, "8:00 AM", first.MorningCallTime)
	second := <-out
	assert.Equal(t, "9:00 AM", second.MorningCallTime)

	_, open := <-out
	assert.False(t, open, "stream should close when the store stream ends")
}
