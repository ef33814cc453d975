package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName    = "picklecup_session"
	SessionExpiry = 24 * time.Hour
)

// Auth handles admin authentication. Any of the configured passwords unlocks
// the admin pages; only their bcrypt hashes are kept in memory.
type Auth struct {
	hashes   [][]byte
	sessions map[string]time.Time
	mu       sync.RWMutex
	now      func() time.Time
}

// New hashes the given passwords with bcrypt's default cost.
func New(passwords ...string) (*Auth, error) {
	return NewWithCost(bcrypt.DefaultCost, passwords...)
}

// NewWithCost is New with an explicit bcrypt cost.
func NewWithCost(cost int, passwords ...string) (*Auth, error) {
	a := &Auth{
		sessions: make(map[string]time.Time),
		now:      time.Now,
	}
	for _, pw := range passwords {
		if pw == "" {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
		if err != nil {
			return nil, err
		}
		a.hashes = append(a.hashes, hash)
	}
	if len(a.hashes) == 0 {
		return nil, errors.New("at least one admin password is required")
	}
	return a, nil
}

// Login validates the password and returns a session token if valid
func (a *Auth) Login(password string) (string, bool) {
	if !a.matches(password) {
		return "", false
	}

	token := generateToken()
	a.mu.Lock()
	a.pruneLocked()
	a.sessions[token] = a.now().Add(SessionExpiry)
	a.mu.Unlock()

	return token, true
}

func (a *Auth) matches(password string) bool {
	if password == "" {
		return false
	}
	for _, hash := range a.hashes {
		if bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil {
			return true
		}
	}
	return false
}

// pruneLocked drops expired sessions. Caller holds a.mu.
func (a *Auth) pruneLocked() {
	now := a.now()
	for token, expiry := range a.sessions {
		if now.After(expiry) {
			delete(a.sessions, token)
		}
	}
}

// Logout invalidates a session token
func (a *Auth) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// ValidateSession checks if a session token is valid
func (a *Auth) ValidateSession(token string) bool {
	a.mu.RLock()
	expiry, exists := a.sessions[token]
	a.mu.RUnlock()

	if !exists {
		return false
	}

	if a.now().After(expiry) {
		a.mu.Lock()
		delete(a.sessions, token)
		a.mu.Unlock()
		return false
	}

	return true
}

// IsAuthenticated reports whether the request carries a valid session cookie.
func (a *Auth) IsAuthenticated(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return a.ValidateSession(cookie.Value)
}

// RequireAuth middleware for admin pages (redirects to login)
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.IsAuthenticated(r) {
			next.ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, "/admin/login", http.StatusFound)
	})
}

// RequireAuthAPI middleware for API endpoints (returns 401)
func (a *Auth) RequireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.IsAuthenticated(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Chưa đăng nhập quản trị"}`))
	})
}

func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func generateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
