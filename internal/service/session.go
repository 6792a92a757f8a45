package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/bogobit/community-server-go/internal/errors"
	"github.com/bogobit/community-server-go/internal/model"
	"github.com/bogobit/community-server-go/internal/repository"
	"github.com/bogobit/community-server-go/internal/util"
)

// SessionPayload carries the opaque session-scoped extras.
type SessionPayload struct {
	VisitCount int    `json:"visitCount"`
	LoginTime  string `json:"loginTime,omitempty"`
}

// SessionService is the session store plus the identity resolver over it.
// Tokens are stored keyed-hashed; the raw token only lives in the client's
// cookie and in hub connection entries.
type SessionService struct {
	sessionRepo repository.SessionRepository
	hub         Hub
	secret      string
	ttl         time.Duration
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	hub Hub,
	secret string,
	ttl time.Duration,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		hub:         hub,
		secret:      secret,
		ttl:         ttl,
	}
}

func (s *SessionService) hashToken(token string) string {
	return util.HmacSHA256(s.secret, token)
}

// Create issues a fresh token and persists the session record. A storage
// failure means no session exists; the caller must treat it as not logged in.
func (s *SessionService) Create(ctx context.Context, user *model.User, payload SessionPayload) (string, error) {
	token, err := util.GenerateToken()
	if err != nil {
		return "", apperrors.Internal("failed to generate session token").WithCause(err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", apperrors.Internal("failed to encode session payload").WithCause(err)
	}
	payloadJSON := json.RawMessage(raw)

	_, err = s.sessionRepo.Create(ctx, model.CreateSessionParams{
		TokenHash:   s.hashToken(token),
		UserID:      &user.ID,
		DisplayName: user.DisplayName,
		NameColor:   user.NameColor,
		Payload:     &payloadJSON,
		ExpiresAt:   time.Now().Add(s.ttl),
	})
	if err != nil {
		return "", apperrors.Database(err)
	}

	log.Info().Int64("userId", user.ID).Msg("session created")

	return token, nil
}

// Load returns the session record for a raw token, nil when absent or
// expired.
func (s *SessionService) Load(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}
	session, err := s.sessionRepo.FindValidByTokenHash(ctx, s.hashToken(token))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return session, nil
}

// Resolve turns a token into a typed identity. With refresh set, an
// authenticated hit also slides the expiry forward; read-only callers pass
// false and leave the record untouched. A storage error is returned as-is:
// callers that required authentication must fail closed, never fall back to
// guest.
func (s *SessionService) Resolve(ctx context.Context, token string, refresh bool) (model.Identity, error) {
	session, err := s.Load(ctx, token)
	if err != nil {
		return model.Guest(), err
	}
	if session == nil || session.UserID == nil {
		return model.Guest(), nil
	}

	if refresh {
		if err := s.sessionRepo.Touch(ctx, session.TokenHash, time.Now().Add(s.ttl)); err != nil {
			// The identity is still valid; losing one expiry refresh only
			// shortens the session.
			log.Warn().Err(err).Msg("failed to refresh session expiry")
		}
	}

	return model.Authenticated(*session.UserID, session.DisplayName, session.NameColor), nil
}

// BumpVisitCount increments the visit counter in the session payload.
// Best-effort; a lost increment is not worth failing a page load over.
func (s *SessionService) BumpVisitCount(ctx context.Context, token string) (int, error) {
	session, err := s.Load(ctx, token)
	if err != nil {
		return 0, err
	}
	if session == nil {
		return 0, nil
	}

	var payload SessionPayload
	if session.Payload != nil {
		if err := json.Unmarshal(*session.Payload, &payload); err != nil {
			log.Warn().Err(err).Msg("unreadable session payload, resetting")
			payload = SessionPayload{}
		}
	}
	payload.VisitCount++

	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, apperrors.Internal("failed to encode session payload").WithCause(err)
	}
	payloadJSON := json.RawMessage(raw)

	err = s.sessionRepo.Update(ctx, session.TokenHash, model.UpdateSessionParams{
		DisplayName: session.DisplayName,
		NameColor:   session.NameColor,
		Payload:     &payloadJSON,
		ExpiresAt:   time.Now().Add(s.ttl),
	})
	if err != nil {
		return 0, apperrors.Database(err)
	}

	return payload.VisitCount, nil
}

// Destroy removes the session and drops any live chat connection bound to
// the token. Idempotent.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, s.hashToken(token)); err != nil {
		return apperrors.Database(err)
	}
	s.hub.DisconnectToken(token)

	log.Info().Msg("session destroyed")

	return nil
}
