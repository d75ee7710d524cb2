// Package auth hashes passwords, issues and verifies session tokens, and
// carries them in the auth_token cookie.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goaltrackr/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordCost is the bcrypt work factor.
	PasswordCost = 10

	// SessionCookieName names the cookie carrying the session token.
	SessionCookieName = "auth_token"

	// SessionTTL bounds both the token expiry and the cookie Max-Age.
	SessionTTL = 7 * 24 * time.Hour
)

// Claims are the token claims binding a user's id, name and email.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity returns the caller described by the claims.
func (c Claims) Identity() types.Identity {
	return types.Identity{ID: c.Subject, Name: c.Name, Email: c.Email}
}

// HashPassword returns a salted bcrypt hash of the plaintext.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Manager issues and verifies session tokens and manages the session cookie.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewManager builds a Manager. secure sets the cookie Secure flag and should
// be on in production.
func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// IssueToken signs a token for the identity that expires after the session TTL.
func (m *Manager) IssueToken(identity types.Identity) (string, error) {
	if strings.TrimSpace(identity.ID) == "" {
		return "", errors.New("missing subject")
	}

	now := m.now()
	claims := Claims{
		Name:  identity.Name,
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// VerifyToken validates the signature and expiry of tokenString. Any failure
// yields ok == false.
func (m *Manager) VerifyToken(tokenString string) (types.Identity, bool) {
	if strings.TrimSpace(tokenString) == "" {
		return types.Identity{}, false
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return types.Identity{}, false
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return types.Identity{}, false
	}
	return claims.Identity(), true
}

// AttachSession sets the session cookie carrying token.
func (m *Manager) AttachSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, m.cookie(token, int(m.ttl.Seconds())))
}

// ClearSession expires the session cookie immediately.
func (m *Manager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1))
}

// Identify returns the caller identified by the request's session cookie.
// A missing cookie and an invalid token are reported the same way.
func (m *Manager) Identify(r *http.Request) (types.Identity, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return types.Identity{}, false
	}
	return m.VerifyToken(cookie.Value)
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
