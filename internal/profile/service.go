package profile

import (
	"context"
	"fmt"

	"adulting-backend/internal/domain"
	"adulting-backend/internal/models"
	"adulting-backend/internal/timeutil"
)

// Store is the slice of profile persistence the service needs. The Mongo
// repository implements it in production; tests swap in a fake.
type Store interface {
	FindByID(ctx context.Context, id string) (*models.UserProfile, error)
	FindOrCreate(ctx context.Context, id, email, timezone string) (*models.UserProfile, error)
	UpdateContact(ctx context.Context, id string, name, phoneNumber, email *string) error
	UpdateCallSchedule(ctx context.Context, id, morningUTC, eveningUTC string) error
	UpdateTimezone(ctx context.Context, id, timezone string) error
	IncrementStreak(ctx context.Context, id string) error
	ResetStreak(ctx context.Context, id string) error
	SetCallsEnabled(ctx context.Context, id string, enabled bool) error
	SetGoogleCredentials(ctx context.Context, id, accessToken, refreshToken, email string) error
	Watch(ctx context.Context, id string) (<-chan *models.UserProfile, error)
}

// Service owns every profile mutation and the UTC/local call-time
// reconciliation around them. Call times live in the store as UTC
// wall-clock strings; everything handed out of this service carries them
// in the profile's own timezone, and everything written goes through one
// conversion at the store boundary.
type Service struct {
	store       Store
	conv        timeutil.Converter
	defaultZone string
}

func NewService(store Store, defaultZone string) *Service {
	return &Service{store: store, defaultZone: defaultZone}
}

// WithConverter overrides the converter's clock, for tests that need a
// fixed date.
func (s *Service) WithConverter(conv timeutil.Converter) *Service {
	s.conv = conv
	return s
}

// zone resolves the timezone used for display. Profiles written before
// the timezone field existed fall back to the configured default.
func (s *Service) zone(p *models.UserProfile) string {
	if p.Timezone == "" {
		return s.defaultZone
	}
	return p.Timezone
}

// localize converts the stored UTC call times into the profile's zone.
// Done once per load or snapshot, never per consumer access.
func (s *Service) localize(p *models.UserProfile) *models.UserProfile {
	zone := s.zone(p)
	p.MorningCallTime = s.conv.FromUTC(p.MorningCallTime, zone)
	p.EveningCallTime = s.conv.FromUTC(p.EveningCallTime, zone)
	return p
}

// Load fetches one profile with call times already localized.
func (s *Service) Load(ctx context.Context, id string) (*models.UserProfile, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreRead, err)
	}
	if p == nil {
		return nil, domain.ErrProfileNotFound
	}
	return s.localize(p), nil
}

// SignIn returns the profile for a sign-in email, creating a fresh one
// (empty contact fields, default schedule) on first sign-in.
func (s *Service) SignIn(ctx context.Context, id, email string) (*models.UserProfile, error) {
	p, err := s.store.FindOrCreate(ctx, id, email, s.defaultZone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	return s.localize(p), nil
}

// UpdateSchedule converts the user's local call times to UTC and persists
// both in a single store write. On success the in-memory profile keeps the
// local strings the user entered, never the UTC ones; on failure it is
// left exactly as it was and the error is surfaced without retry.
func (s *Service) UpdateSchedule(ctx context.Context, p *models.UserProfile, morningLocal, eveningLocal string) error {
	zone := s.zone(p)
	if !timeutil.ValidZone(zone) {
		return domain.ErrUnknownTimezone
	}

	morningUTC := s.conv.ToUTC(morningLocal, zone)
	eveningUTC := s.conv.ToUTC(eveningLocal, zone)

	if err := s.store.UpdateCallSchedule(ctx, p.ID, morningUTC, eveningUTC); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}

	p.MorningCallTime = morningLocal
	p.EveningCallTime = eveningLocal
	return nil
}

// UpdateContact persists the provided fields (nil means unchanged) and
// applies them to the in-memory profile only after the write succeeds.
func (s *Service) UpdateContact(ctx context.Context, p *models.UserProfile, name, phoneNumber, email *string) error {
	if err := s.store.UpdateContact(ctx, p.ID, name, phoneNumber, email); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	if name != nil {
		p.Name = *name
	}
	if phoneNumber != nil {
		p.PhoneNumber = *phoneNumber
	}
	if email != nil {
		p.Email = *email
	}
	return nil
}

// UpdateTimezone changes the profile's zone. The stored UTC call times are
// untouched; they simply render in the new zone from the next load on.
func (s *Service) UpdateTimezone(ctx context.Context, p *models.UserProfile, timezone string) error {
	if !timeutil.ValidZone(timezone) {
		return domain.ErrUnknownTimezone
	}
	if err := s.store.UpdateTimezone(ctx, p.ID, timezone); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	p.Timezone = timezone
	return nil
}

// IncrementStreak bumps the call streak by exactly one.
func (s *Service) IncrementStreak(ctx context.Context, p *models.UserProfile) error {
	if err := s.store.IncrementStreak(ctx, p.ID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	p.CallStreak++
	return nil
}

// ResetStreak sets the call streak back to zero.
func (s *Service) ResetStreak(ctx context.Context, p *models.UserProfile) error {
	if err := s.store.ResetStreak(ctx, p.ID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	p.CallStreak = 0
	return nil
}

// SetCallsEnabled toggles whether scheduled calls fire for this profile.
func (s *Service) SetCallsEnabled(ctx context.Context, p *models.UserProfile, enabled bool) error {
	if err := s.store.SetCallsEnabled(ctx, p.ID, enabled); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	p.CallsEnabled = enabled
	return nil
}

// LinkGoogle stores the credential set from a completed Google sign-in.
// An incomplete credential set aborts before anything reaches the store.
func (s *Service) LinkGoogle(ctx context.Context, p *models.UserProfile, accessToken, refreshToken, email string) error {
	if accessToken == "" || email == "" {
		return domain.ErrMissingCredential
	}
	if err := s.store.SetGoogleCredentials(ctx, p.ID, accessToken, refreshToken, email); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreWrite, err)
	}
	p.GoogleAccessToken = accessToken
	p.GoogleRefreshToken = refreshToken
	p.GoogleEmail = email
	return nil
}

// Watch delivers localized snapshots of the profile: the current state
// first, then one per store update, each treated as the authoritative
// latest state. The channel closes when ctx is cancelled or the
// underlying stream ends; resubscribe by calling Watch again.
func (s *Service) Watch(ctx context.Context, id string) (<-chan *models.UserProfile, error) {
	raw, err := s.store.Watch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreRead, err)
	}

	out := make(chan *models.UserProfile)
	go func() {
		defer close(out)
		for snapshot := range raw {
			select {
			case out <- s.localize(snapshot):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
