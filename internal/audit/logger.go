package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bogobit/community-server-go/internal/httputil"
)

type EventType string

const (
	EventLoginSuccess   EventType = "login_success"
	EventLoginFailure   EventType = "login_failure"
	EventLoginLocked    EventType = "login_locked"
	EventLogout         EventType = "logout"
	EventRegister       EventType = "register"
	EventSessionCreate  EventType = "session_create"
	EventSessionDestroy EventType = "session_destroy"
	EventChatConnect    EventType = "chat_connect"
	EventChatReject     EventType = "chat_reject"
	EventPasswordChange EventType = "password_change"
	EventEmailChange    EventType = "email_change"
	EventProfileChange  EventType = "profile_change"
	EventRateLimitHit   EventType = "rate_limit_exceeded"
	EventCSRFFailure    EventType = "csrf_failure"
)

type Event struct {
	Type      EventType
	UserID    int64
	Username  string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.UserID != 0 {
		logger = logger.With().Int64("user_id", event.UserID).Logger()
	}
	if event.Username != "" {
		logger = logger.With().Str("username", event.Username).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("security audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = httputil.ClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}
