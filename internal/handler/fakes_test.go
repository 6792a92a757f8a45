package handler

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bogobit/community-server-go/internal/chat"
	"github.com/bogobit/community-server-go/internal/model"
	"github.com/bogobit/community-server-go/internal/repository"
)

// Func-field fakes; nil fields mean "not found, no error".

type fakeUserRepo struct {
	findByUsername func(username string) (*model.User, error)
	touchedIDs     []int64
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if f.findByUsername == nil {
		return nil, nil
	}
	return f.findByUsername(username)
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) FindByDisplayName(ctx context.Context, displayName string) (*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	return &model.User{
		ID:          1,
		Username:    params.Username,
		Email:       params.Email,
		DisplayName: params.DisplayName,
		NameColor:   params.NameColor,
	}, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	return nil
}

func (f *fakeUserRepo) UpdateEmail(ctx context.Context, id int64, email string) error {
	return nil
}

func (f *fakeUserRepo) UpdateDisplayName(ctx context.Context, id int64, displayName string) error {
	return nil
}

func (f *fakeUserRepo) UpdateNameColor(ctx context.Context, id int64, nameColor string) error {
	return nil
}

func (f *fakeUserRepo) TouchLastLogin(ctx context.Context, id int64) error {
	f.touchedIDs = append(f.touchedIDs, id)
	return nil
}

func (f *fakeUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository { return f }

// fakeSessionRepo keeps created sessions in memory keyed by token hash.
type fakeSessionRepo struct {
	sessions map[string]*model.Session
	findErr  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionRepo) FindValidByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.sessions[tokenHash], nil
}

func (f *fakeSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	session := &model.Session{
		TokenHash:   params.TokenHash,
		UserID:      params.UserID,
		DisplayName: params.DisplayName,
		NameColor:   params.NameColor,
		Payload:     params.Payload,
		ExpiresAt:   params.ExpiresAt,
	}
	f.sessions[params.TokenHash] = session
	return session, nil
}

func (f *fakeSessionRepo) Update(ctx context.Context, tokenHash string, params model.UpdateSessionParams) error {
	if session, ok := f.sessions[tokenHash]; ok {
		session.DisplayName = params.DisplayName
		session.NameColor = params.NameColor
		session.Payload = params.Payload
		session.ExpiresAt = params.ExpiresAt
	}
	return nil
}

func (f *fakeSessionRepo) Touch(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	if session, ok := f.sessions[tokenHash]; ok {
		session.ExpiresAt = expiresAt
	}
	return nil
}

func (f *fakeSessionRepo) UpdateProfile(ctx context.Context, tokenHash, displayName, nameColor string) error {
	return nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, tokenHash string) error {
	delete(f.sessions, tokenHash)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository { return f }

// fakeAttemptRepo counts failures per (clientAddr, username) key, the same
// aggregation the real table does.
type fakeAttemptRepo struct {
	attempts []model.LoginAttempt
	failures map[string]int
}

func attemptKey(clientAddr, username string) string {
	return clientAddr + "/" + username
}

func (f *fakeAttemptRepo) Create(ctx context.Context, clientAddr, username string, succeeded bool) (*model.LoginAttempt, error) {
	attempt := model.LoginAttempt{
		ClientAddr: clientAddr,
		Username:   username,
		Succeeded:  succeeded,
	}
	f.attempts = append(f.attempts, attempt)
	if f.failures == nil {
		f.failures = make(map[string]int)
	}
	if succeeded {
		f.failures[attemptKey(clientAddr, username)] = 0
	} else {
		f.failures[attemptKey(clientAddr, username)]++
	}
	return &attempt, nil
}

func (f *fakeAttemptRepo) CountRecentFailures(ctx context.Context, clientAddr, username string, since time.Time) (int, error) {
	return f.failures[attemptKey(clientAddr, username)], nil
}

func (f *fakeAttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// fakeMessageRepo appends created messages with increasing ids.
type fakeMessageRepo struct {
	messages []model.BroadcastMessage
}

func (f *fakeMessageRepo) Create(ctx context.Context, params model.CreateChatMessageParams) (*model.BroadcastMessage, error) {
	msg := model.BroadcastMessage{
		ID:        int64(len(f.messages) + 1),
		Text:      params.Text,
		CreatedAt: time.Now(),
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeMessageRepo) FindByID(ctx context.Context, id int64) (*model.BroadcastMessage, error) {
	return nil, nil
}

func (f *fakeMessageRepo) FindRecent(ctx context.Context, limit int) ([]model.BroadcastMessage, error) {
	if len(f.messages) > limit {
		return f.messages[len(f.messages)-limit:], nil
	}
	return f.messages, nil
}

func (f *fakeMessageRepo) FindBefore(ctx context.Context, beforeID int64, limit int) ([]model.BroadcastMessage, error) {
	var out []model.BroadcastMessage
	for _, m := range f.messages {
		if m.ID < beforeID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) Count(ctx context.Context) (int, error) {
	return len(f.messages), nil
}

// fakeCommentRepo stores comments newest-first like the real query does.
type fakeCommentRepo struct {
	comments []model.CommentWithAuthor
}

func (f *fakeCommentRepo) Create(ctx context.Context, userID int64, text string) (*model.Comment, error) {
	comment := &model.Comment{
		ID:        int64(len(f.comments) + 1),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	f.comments = append([]model.CommentWithAuthor{{
		ID:        comment.ID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}}, f.comments...)
	return comment, nil
}

func (f *fakeCommentRepo) FindPage(ctx context.Context, viewerID int64, limit, offset int) ([]model.CommentWithAuthor, error) {
	if offset >= len(f.comments) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.comments) {
		end = len(f.comments)
	}
	return f.comments[offset:end], nil
}

func (f *fakeCommentRepo) Count(ctx context.Context) (int, error) {
	return len(f.comments), nil
}

func (f *fakeCommentRepo) FindVote(ctx context.Context, userID, commentID int64) (*int, error) {
	return nil, nil
}

func (f *fakeCommentRepo) UpsertVote(ctx context.Context, userID, commentID int64, vote int) error {
	return nil
}

func (f *fakeCommentRepo) DeleteVote(ctx context.Context, userID, commentID int64) error {
	return nil
}

func (f *fakeCommentRepo) Exists(ctx context.Context, commentID int64) (bool, error) {
	return false, nil
}

func (f *fakeCommentRepo) WithTx(tx *sqlx.Tx) repository.CommentRepository { return f }

// fakeHub records published events and hands out inert clients.
type fakeHub struct {
	published    []chat.Event
	disconnected []string
}

func (f *fakeHub) Subscribe(sessionToken string, userID int64) *chat.Client {
	return &chat.Client{
		ID:           "test-connection",
		SessionToken: sessionToken,
		UserID:       userID,
		Events:       make(chan chat.Event, 8),
		Done:         make(chan struct{}),
	}
}

func (f *fakeHub) Unsubscribe(client *chat.Client) {}

func (f *fakeHub) DisconnectToken(sessionToken string) {
	f.disconnected = append(f.disconnected, sessionToken)
}

func (f *fakeHub) Publish(ctx context.Context, event chat.Event) error {
	f.published = append(f.published, event)
	return nil
}
