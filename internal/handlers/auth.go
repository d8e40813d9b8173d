package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"adulting-backend/internal/analytics"
	"adulting-backend/internal/domain"
	"adulting-backend/internal/googleauth"
	"adulting-backend/internal/middleware"
	"adulting-backend/internal/models"
	"adulting-backend/internal/profile"
	"adulting-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
)

type AuthHandler struct {
	tokenRepo  *repository.AuthTokenRepo
	profileSvc *profile.Service
	google     *googleauth.Service
	tracker    analytics.Tracker
	jwtSecret  string
	jwtTTL     time.Duration
}

func NewAuthHandler(tokenRepo *repository.AuthTokenRepo, profileSvc *profile.Service, google *googleauth.Service, tracker analytics.Tracker, jwtSecret string, jwtTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		tokenRepo:  tokenRepo,
		profileSvc: profileSvc,
		google:     google,
		tracker:    tracker,
		jwtSecret:  jwtSecret,
		jwtTTL:     jwtTTL,
	}
}

// --- Request / Response types ---

type RequestLoginRequest struct {
	Email string `json:"email"`
}

type VerifyResponse struct {
	Token              string              `json:"token"`
	Profile            *models.UserProfile `json:"profile"`
	OnboardingComplete bool                `json:"onboarding_complete"`
}

type GoogleSignInRequest struct {
	Code string `json:"code"`
}

// --- POST /auth/request ---

func (h *AuthHandler) RequestLogin(w http.ResponseWriter, r *http.Request) {
	var req RequestLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	// Rate limiting: max 5 requests per email in 10 minutes
	count, err := h.tokenRepo.CountRecentByEmail(r.Context(), req.Email, 10*time.Minute)
	if err != nil {
		log.Printf("Error checking rate limit: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if count >= 5 {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many login requests, please try again later"})
		return
	}

	tokenValue := uuid.New().String()

	authToken := &models.AuthToken{
		Email:     req.Email,
		Token:     tokenValue,
		ExpiresAt: time.Now().Add(15 * time.Minute),
		IsUsed:    false,
	}
	if err := h.tokenRepo.Create(r.Context(), authToken); err != nil {
		log.Printf("Error creating auth token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create login token"})
		return
	}

	// Mail clients strip custom URL schemes, so the email links to our
	// HTTPS redirect page which then opens the adulting:// deep link.
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	emailLink := fmt.Sprintf("%s/auth/redirect?token=%s", baseURL, tokenValue)

	if err := sendLoginEmail(req.Email, emailLink); err != nil {
		log.Printf("Error sending email: %v", err)
		// Don't fail the request — token is created, email sending is best-effort
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "login link generated (email delivery may be delayed)",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "login link sent to your email",
	})
}

// --- GET /auth/verify ---

func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	tokenValue := r.URL.Query().Get("token")
	if tokenValue == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token is required"})
		return
	}

	authToken, err := h.tokenRepo.FindByToken(r.Context(), tokenValue)
	if err != nil {
		log.Printf("Error finding token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if authToken == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}

	if authToken.IsExpired() {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token has expired"})
		return
	}

	if authToken.IsUsed {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token has already been used"})
		return
	}

	if err := h.tokenRepo.MarkUsed(r.Context(), tokenValue); err != nil {
		log.Printf("Error marking token as used: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// First sign-in creates a fresh profile with default call times.
	userProfile, err := h.profileSvc.SignIn(r.Context(), uuid.New().String(), authToken.Email)
	if err != nil {
		log.Printf("Error signing in user: %v", err)
		go h.track(analytics.EventError, "", map[string]interface{}{"stage": "sign_in"})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userProfile.ID,
		"email":   userProfile.Email,
		"exp":     time.Now().Add(h.jwtTTL).Unix(),
		"iat":     time.Now().Unix(),
	})

	tokenString, err := jwtToken.SignedString([]byte(h.jwtSecret))
	if err != nil {
		log.Printf("Error signing JWT: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	go h.track(analytics.EventSignIn, userProfile.ID, map[string]interface{}{"method": "magic_link"})

	writeJSON(w, http.StatusOK, VerifyResponse{
		Token:              tokenString,
		Profile:            userProfile,
		OnboardingComplete: userProfile.OnboardingComplete(),
	})
}

// --- POST /auth/google ---
// Links a Google account (calendar scopes) to the signed-in profile. The
// exchange aborts before any store write when the credential set comes
// back incomplete.

func (h *AuthHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if h.google == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "google sign-in is not configured"})
		return
	}

	var req GoogleSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	creds, err := h.google.Exchange(r.Context(), req.Code)
	if err != nil {
		log.Printf("Error exchanging Google code: %v", err)
		status := http.StatusUnauthorized
		if errors.Is(err, domain.ErrMissingCredential) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": "google sign-in failed"})
		return
	}

	userProfile, err := h.profileSvc.Load(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
		return
	}

	if err := h.profileSvc.LinkGoogle(r.Context(), userProfile, creds.AccessToken, creds.RefreshToken, creds.Email); err != nil {
		log.Printf("Error linking Google account: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to link google account"})
		return
	}

	go h.track(analytics.EventSignIn, userID, map[string]interface{}{"method": "google"})

	writeJSON(w, http.StatusOK, map[string]string{
		"message":      "google account linked",
		"google_email": creds.Email,
	})
}

// --- GET /auth/redirect ---
// Clicked from the email; serves an HTML page that opens the app via the
// adulting:// deep link, with a fallback button.

func (h *AuthHandler) RedirectToApp(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusBadRequest)
		return
	}

	deepLink := fmt.Sprintf("adulting://login?token=%s", token)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>Opening Adulting...</title>
	<style>
		body { font-family: -apple-system, sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0; background: #0b0b0f; }
		.card { text-align: center; padding: 40px; background: #17171d; border-radius: 16px; box-shadow: 0 4px 24px rgba(0,0,0,0.4); max-width: 400px; }
		h1 { color: #fff; font-size: 24px; }
		p { color: #9a9aa5; font-size: 16px; line-height: 1.5; }
		.btn { display: inline-block; background: #3b82f6; color: white; padding: 14px 32px; border-radius: 10px; text-decoration: none; font-weight: 600; font-size: 16px; margin-top: 16px; }
		.btn:hover { background: #2563eb; }
		.spinner { width: 40px; height: 40px; border: 4px solid #2a2a33; border-top: 4px solid #3b82f6; border-radius: 50%%; animation: spin 1s linear infinite; margin: 0 auto 20px; }
		@keyframes spin { to { transform: rotate(360deg); } }
	</style>
</head>
<body>
	<div class="card">
		<div class="spinner"></div>
		<h1>Opening Adulting...</h1>
		<p>You should be redirected to the app automatically.</p>
		<p>If nothing happens, tap the button below:</p>
		<a href="%s" class="btn">Open Adulting</a>
	</div>
	<script>
		window.location.href = "%s";
	</script>
</body>
</html>`, deepLink, deepLink)
}

// --- Helpers ---

func (h *AuthHandler) track(event, userID string, props map[string]interface{}) {
	if h.tracker == nil {
		return
	}
	if err := h.tracker.Capture(context.Background(), userID, event, props); err != nil {
		log.Printf("Error capturing analytics event %s: %v", event, err)
	}
}

func sendLoginEmail(to, link string) error {
	apiKey := os.Getenv("RESEND_API_KEY")
	fromEmail := os.Getenv("FROM_EMAIL")

	if apiKey == "" {
		log.Println("⚠️  RESEND_API_KEY not set, skipping email send")
		log.Printf("📧 [Dev Mode] Login link for %s: %s", to, link)
		return nil
	}

	client := resend.NewClient(apiKey)

	params := &resend.SendEmailRequest{
		From:    fromEmail,
		To:      []string{to},
		Subject: "Your Adulting Login Link",
		Html: fmt.Sprintf(`
			<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
				<h2 style="color: #333;">Welcome back to Adulting ☀️</h2>
				<p>Tap the button below to log in and pick up your daily calls:</p>
				<a href="%s" style="display: inline-block; background: #3b82f6; color: white; padding: 12px 24px; border-radius: 8px; text-decoration: none; font-weight: 600;">
					Open Adulting
				</a>
				<p style="color: #888; font-size: 14px; margin-top: 16px;">
					This link expires in 15 minutes and can only be used once.
				</p>
				<p style="color: #aaa; font-size: 12px;">
					If you didn't request this, you can safely ignore this email.
				</p>
			</div>
		`, link),
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Printf("📧 Email sent successfully (ID: %s)", sent.Id)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
