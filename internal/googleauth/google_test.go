package googleauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adulting-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewService(Config{ClientID: "client-id", ClientSecret: "secret", RedirectURI: "http://localhost/cb"})
	s.tokenURL = srv.URL
	s.calendarURL = srv.URL
	return s
}

func idToken(t *testing.T, email, audience, iss string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    iss,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:         email,
		EmailVerified: true,
	})
	signed, err := token.SignedString([]byte("any-key"))
	require.NoError(t, err)
	return signed
}

func TestExchange_Success(t *testing.T) {
	s := testService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "the-code", r.Form.Get("code"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-123",
			"refresh_token": "refresh-456",
			"id_token":      idToken(t, "g@example.com", "client-id", "https://accounts.google.com", time.Now().Add(time.Hour)),
			"expires_in":    3600,
			"token_type":    "Bearer",
		})
	})

	creds, err := s.Exchange(context.Background(), "the-code")
	require.NoError(t, err)

	assert.Equal(t, "access-123", creds.AccessToken)
	assert.Equal(t, "refresh-456", creds.RefreshToken)
	assert.Equal(t, "g@example.com", creds.Email)
}

func TestExchange_EmptyCode(t *testing.T) {
	s := NewService(Config{ClientID: "client-id"})

	_, err := s.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestExchange_RejectedCode(t *testing.T) {
	s := testService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})

	_, err := s.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, domain.ErrAuthFailed)
}

func TestExchange_MissingAccessToken(t *testing.T) {
	s := testService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id_token": idToken(t, "g@example.com", "client-id", "https://accounts.google.com", time.Now().Add(time.Hour)),
		})
	})

	_, err := s.Exchange(context.Background(), "the-code")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestExchange_BadIDToken(t *testing.T) {
	cases := []struct {
		name string
		tok  func(t *testing.T) string
	}{
		{"wrong issuer", func(t *testing.T) string {
			return idToken(t, "g@example.com", "client-id", "https://evil.example.com", time.Now().Add(time.Hour))
		}},
		{"wrong audience", func(t *testing.T) string {
			return idToken(t, "g@example.com", "other-client", "https://accounts.google.com", time.Now().Add(time.Hour))
		}},
		{"expired", func(t *testing.T) string {
			return idToken(t, "g@example.com", "client-id", "https://accounts.google.com", time.Now().Add(-time.Hour))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := testService(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]interface{}{
					"access_token": "access-123",
					"id_token":     tc.tok(t),
				})
			})

			_, err := s.Exchange(context.Background(), "the-code")
			assert.ErrorIs(t, err, domain.ErrAuthFailed)
		})
	}
}

func TestFetchCalendarEvents(t *testing.T) {
	s := testService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []interface{}{map[string]interface{}{"summary": "Dentist"}},
		})
	})

	events, err := s.FetchCalendarEvents(context.Background(), "access-123")
	require.NoError(t, err)
	assert.Contains(t, events, "items")
}

func TestFetchCalendarEvents_NoToken(t *testing.T) {
	s := NewService(Config{})

	_, err := s.FetchCalendarEvents(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}
