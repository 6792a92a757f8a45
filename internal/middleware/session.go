package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bogobit/community-server-go/internal/model"
	"github.com/bogobit/community-server-go/internal/service"
)

const (
	SessionCookie = "session"
	SessionMaxAge = 24 * time.Hour
)

type contextKey string

const (
	IdentityContextKey     contextKey = "identity"
	SessionTokenContextKey contextKey = "sessionToken"
)

func GetIdentity(ctx context.Context) model.Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(model.Identity); ok {
		return identity
	}
	return model.Guest()
}

func GetSessionToken(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenContextKey).(string); ok {
		return token
	}
	return ""
}

// SessionMiddleware resolves the session cookie into a typed identity on
// every request. Guests pass through as guests; a storage error is a hard
// failure so that no protected operation can mistake it for "guest is fine".
type SessionMiddleware struct {
	sessions *service.SessionService
}

func NewSessionMiddleware(sessions *service.SessionService) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			token = cookie.Value
		}

		identity := model.Guest()
		if token != "" {
			var err error
			identity, err = m.sessions.Resolve(r.Context(), token, true)
			if err != nil {
				log.Error().Err(err).Msg("session middleware: identity resolution failed")
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "Session validation failed",
				})
				return
			}
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, IdentityContextKey, identity)
		ctx = context.WithValue(ctx, SessionTokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects guests. Must sit below SessionMiddleware.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r.Context()).IsAuthenticated() {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
