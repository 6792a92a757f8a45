package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bogobit/community-server-go/internal/chat"
	"github.com/bogobit/community-server-go/internal/config"
	apperrors "github.com/bogobit/community-server-go/internal/errors"
	"github.com/bogobit/community-server-go/internal/model"
	"github.com/bogobit/community-server-go/internal/repository"
)

// ChatService fronts the broadcast hub: it authenticates connects, persists
// accepted messages and hands them to the hub for fan-out.
type ChatService struct {
	messages repository.ChatMessageRepository
	sessions *SessionService
	hub      Hub

	// sendMu serializes persist-then-publish. The insert under this lock is
	// the ordering point: broadcast order is exactly persistence order.
	sendMu sync.Mutex
}

func NewChatService(
	messages repository.ChatMessageRepository,
	sessions *SessionService,
	hub Hub,
) *ChatService {
	return &ChatService{
		messages: messages,
		sessions: sessions,
		hub:      hub,
	}
}

// Connect performs the handshake: resolve the session, reject guests before
// any connection entry exists, then register with the hub. Handshake-time
// resolution refreshes the sliding expiry.
func (s *ChatService) Connect(ctx context.Context, token string) (*chat.Client, model.Identity, error) {
	identity, err := s.sessions.Resolve(ctx, token, true)
	if err != nil {
		// Fail closed: a storage error never downgrades to guest.
		return nil, model.Guest(), err
	}
	if !identity.IsAuthenticated() {
		return nil, model.Guest(), apperrors.Unauthorized("Authentication required")
	}

	client := s.hub.Subscribe(token, identity.UserID)
	return client, identity, nil
}

func (s *ChatService) Disconnect(client *chat.Client) {
	s.hub.Unsubscribe(client)
}

// Send validates and persists one message, then broadcasts the persisted
// record. The sender's identity is re-resolved on every send; a session
// destroyed after connect stops being able to post immediately.
func (s *ChatService) Send(ctx context.Context, token, text string) (*model.BroadcastMessage, error) {
	identity, err := s.sessions.Resolve(ctx, token, false)
	if err != nil {
		return nil, err
	}
	if !identity.IsAuthenticated() {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ValidationError("Message cannot be empty")
	}
	if len(text) > config.ChatMaxMessageLength {
		return nil, apperrors.InvalidInput("message", "too long")
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	msg, err := s.messages.Create(ctx, model.CreateChatMessageParams{
		UserID: identity.UserID,
		Text:   text,
	})
	if err != nil {
		// Nothing was broadcast; the failure stays with this sender.
		return nil, apperrors.Database(err)
	}

	if err := s.hub.Publish(ctx, chat.Event{
		Type: chat.EventTypeMessage,
		Data: msg.ToEventData(),
	}); err != nil {
		// The message is persisted and will appear in history; only the
		// live fan-out was lost.
		log.Error().Err(err).Int64("messageId", msg.ID).Msg("failed to publish chat message")
	}

	log.Debug().Int64("messageId", msg.ID).Int64("userId", identity.UserID).Msg("chat message sent")

	return msg, nil
}

// History is an ordinary read against the message store, ordered by id.
// beforeID of zero means the newest page.
func (s *ChatService) History(ctx context.Context, beforeID int64, limit int) ([]model.BroadcastMessage, error) {
	if limit <= 0 || limit > config.ChatHistoryPageSize {
		limit = config.ChatHistoryPageSize
	}

	var (
		msgs []model.BroadcastMessage
		err  error
	)
	if beforeID > 0 {
		msgs, err = s.messages.FindBefore(ctx, beforeID, limit)
	} else {
		msgs, err = s.messages.FindRecent(ctx, limit)
	}
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return msgs, nil
}
