package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/bogobit/community-server-go/internal/chat"
	"github.com/bogobit/community-server-go/internal/model"
	"github.com/bogobit/community-server-go/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByDisplayName(ctx context.Context, displayName string) (*model.User, error) {
	args := m.Called(ctx, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateEmail(ctx context.Context, id int64, email string) error {
	args := m.Called(ctx, id, email)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateDisplayName(ctx context.Context, id int64, displayName string) error {
	args := m.Called(ctx, id, displayName)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateNameColor(ctx context.Context, id int64, nameColor string) error {
	args := m.Called(ctx, id, nameColor)
	return args.Error(0)
}

func (m *mockUserRepo) TouchLastLogin(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository {
	return m
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindValidByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Update(ctx context.Context, tokenHash string, params model.UpdateSessionParams) error {
	args := m.Called(ctx, tokenHash, params)
	return args.Error(0)
}

func (m *mockSessionRepo) Touch(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockSessionRepo) UpdateProfile(ctx context.Context, tokenHash, displayName, nameColor string) error {
	args := m.Called(ctx, tokenHash, displayName, nameColor)
	return args.Error(0)
}

func (m *mockSessionRepo) Delete(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return m
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(ctx context.Context, params model.CreateChatMessageParams) (*model.BroadcastMessage, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BroadcastMessage), args.Error(1)
}

func (m *mockMessageRepo) FindByID(ctx context.Context, id int64) (*model.BroadcastMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BroadcastMessage), args.Error(1)
}

func (m *mockMessageRepo) FindRecent(ctx context.Context, limit int) ([]model.BroadcastMessage, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BroadcastMessage), args.Error(1)
}

func (m *mockMessageRepo) FindBefore(ctx context.Context, beforeID int64, limit int) ([]model.BroadcastMessage, error) {
	args := m.Called(ctx, beforeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BroadcastMessage), args.Error(1)
}

func (m *mockMessageRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockAttemptRepo struct {
	mock.Mock
}

func (m *mockAttemptRepo) Create(ctx context.Context, clientAddr, username string, succeeded bool) (*model.LoginAttempt, error) {
	args := m.Called(ctx, clientAddr, username, succeeded)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoginAttempt), args.Error(1)
}

func (m *mockAttemptRepo) CountRecentFailures(ctx context.Context, clientAddr, username string, since time.Time) (int, error) {
	args := m.Called(ctx, clientAddr, username, since)
	return args.Int(0), args.Error(1)
}

func (m *mockAttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockCommentRepo struct {
	mock.Mock
}

func (m *mockCommentRepo) Create(ctx context.Context, userID int64, text string) (*model.Comment, error) {
	args := m.Called(ctx, userID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *mockCommentRepo) FindPage(ctx context.Context, viewerID int64, limit, offset int) ([]model.CommentWithAuthor, error) {
	args := m.Called(ctx, viewerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CommentWithAuthor), args.Error(1)
}

func (m *mockCommentRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockCommentRepo) FindVote(ctx context.Context, userID, commentID int64) (*int, error) {
	args := m.Called(ctx, userID, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int), args.Error(1)
}

func (m *mockCommentRepo) UpsertVote(ctx context.Context, userID, commentID int64, vote int) error {
	args := m.Called(ctx, userID, commentID, vote)
	return args.Error(0)
}

func (m *mockCommentRepo) DeleteVote(ctx context.Context, userID, commentID int64) error {
	args := m.Called(ctx, userID, commentID)
	return args.Error(0)
}

func (m *mockCommentRepo) Exists(ctx context.Context, commentID int64) (bool, error) {
	args := m.Called(ctx, commentID)
	return args.Bool(0), args.Error(1)
}

func (m *mockCommentRepo) WithTx(tx *sqlx.Tx) repository.CommentRepository {
	return m
}

type mockHub struct {
	mock.Mock
}

func (m *mockHub) Subscribe(sessionToken string, userID int64) *chat.Client {
	args := m.Called(sessionToken, userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*chat.Client)
}

func (m *mockHub) Unsubscribe(client *chat.Client) {
	m.Called(client)
}

func (m *mockHub) DisconnectToken(sessionToken string) {
	m.Called(sessionToken)
}

func (m *mockHub) Publish(ctx context.Context, event chat.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
