package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Session/JWT primitives =====

type AuthConfig struct {
	HMACSecret   []byte
	CookieName   string
	CookieDomain string
	SecureCookie bool
	TTL          time.Duration
}

type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(secret string, secure bool, domain string, ttl time.Duration) *AuthManager {
	return &AuthManager{cfg: AuthConfig{
		HMACSecret:   []byte(secret),
		CookieName:   "member_session",
		CookieDomain: domain, // "" is fine for a host-only cookie
		SecureCookie: secure, // true in prod (TLS)
		TTL:          ttl,
	}}
}

// MemberClaims binds the JWT to one portal session. Subject carries the
// portal session ID so dashboard handlers can load the mocked profile.
type MemberClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (a *AuthManager) Mint(w http.ResponseWriter, sessionID string) (string, error) {
	now := time.Now()
	claims := MemberClaims{
		Role: "member",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
			Subject:   sessionID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.cfg.HMACSecret)
	if err != nil {
		return "", err
	}

	c := &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   int(a.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
	http.SetCookie(w, c)
	return signed, nil
}

func (a *AuthManager) Clear(w http.ResponseWriter) {
	c := &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
	http.SetCookie(w, c)
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*MemberClaims, error) {
	// Authorization: Bearer <jwt>
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
	}
	// Cookie
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, errors.New("missing token")
}

func (a *AuthManager) parse(tok string) (*MemberClaims, error) {
	claims := &MemberClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
