package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"starforge-server/internal/shared/config"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const sessionContextKey contextKey = "session_id"

const sessionCookieName = "session_token"

type sessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// SessionID returns the editor session id attached to the request context.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey).(string)
	return id
}

// Session identifies the browser's editor session via a signed cookie.
// A missing or invalid token starts a fresh session transparently; the
// editor has no accounts, the token only scopes persisted snapshots.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With("middleware", "session")

		sessionID := ""
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			claims, err := validateSessionToken(cookie.Value)
			if err != nil {
				logger.Debug("Invalid session token, issuing new session", "error", err)
			} else {
				sessionID = claims.SessionID
			}
		}

		if sessionID == "" {
			var err error
			sessionID, err = newSessionID()
			if err != nil {
				logger.Error("Failed to generate session id", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			token, err := signSessionToken(sessionID)
			if err != nil {
				logger.Error("Failed to sign session token", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			setSessionCookie(w, token)
			logger.Debug("New editor session issued", "session_id", sessionID)
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func signSessionToken(sessionID string) (string, error) {
	cfg := config.GlobalConfig.Session

	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.TokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   fmt.Sprintf("session_%s", sessionID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

func validateSessionToken(tokenString string) (*sessionClaims, error) {
	cfg := config.GlobalConfig.Session

	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*sessionClaims); ok && token.Valid && claims.SessionID != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid session token")
}

func setSessionCookie(w http.ResponseWriter, token string) {
	cfg := config.GlobalConfig

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   cookieDomain(cfg.Frontend.URL),
		MaxAge:   int(cfg.Session.TokenExpiration.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.CookieSecure,
		SameSite: parseSameSite(cfg.Session.CookieSameSite),
	})
}

func cookieDomain(frontendURL string) string {
	parsedURL, err := url.Parse(frontendURL)
	if err != nil || parsedURL.Host == "" {
		return ""
	}

	host := strings.Split(parsedURL.Host, ":")[0]
	if host == "localhost" || host == "127.0.0.1" {
		return ""
	}

	return host
}

func parseSameSite(sameSiteStr string) http.SameSite {
	switch sameSiteStr {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
