package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/bogobit/community-server-go/internal/errors"
	"github.com/bogobit/community-server-go/internal/model"
	"github.com/bogobit/community-server-go/internal/repository"
	"github.com/bogobit/community-server-go/internal/util"
)

type AuthService struct {
	userRepo repository.UserRepository
	sessions *SessionService
	guard    *LoginGuard
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessions *SessionService,
	guard *LoginGuard,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		guard:    guard,
	}
}

// Login orchestrates the guard check, credential verification, attempt
// recording and session creation. The guard gate comes first: a locked key
// short-circuits without touching the password-verification path.
func (s *AuthService) Login(ctx context.Context, clientAddr, username, password string) (string, error) {
	if username == "" {
		return "", apperrors.MissingRequired("username")
	}
	if password == "" {
		s.guard.RecordAttempt(ctx, clientAddr, username, false)
		return "", apperrors.MissingRequired("password")
	}
	if !util.IsValidName(username) {
		return "", apperrors.InvalidInput("username", "must be alphanumeric characters or underscores only")
	}

	locked, err := s.guard.IsLocked(ctx, clientAddr, username)
	if err != nil {
		// The guard is best-effort; if its storage is down the user lookup
		// below is about to fail anyway for a shared database.
		log.Warn().Err(err).Str("username", username).Msg("login guard check failed")
	}
	if locked {
		log.Info().
			Str("clientAddr", clientAddr).
			Str("username", username).
			Msg("login attempt on locked account")
		return "", apperrors.AccountLocked()
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if user == nil {
		s.guard.RecordAttempt(ctx, clientAddr, username, false)
		return "", apperrors.AuthenticationFailed()
	}

	if !util.CheckPasswordHash(password, user.PasswordHash) {
		s.guard.RecordAttempt(ctx, clientAddr, username, false)
		return "", apperrors.AuthenticationFailed()
	}

	s.guard.RecordAttempt(ctx, clientAddr, username, true)

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int64("userId", user.ID).Msg("failed to update last login")
	}

	token, err := s.sessions.Create(ctx, user, SessionPayload{
		LoginTime: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}

	log.Info().Int64("userId", user.ID).Str("username", username).Msg("user logged in")

	return token, nil
}

type RegisterParams struct {
	Username    string
	Password    string
	Email       string
	DisplayName string
}

func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	params.Email = strings.ToLower(params.Email)

	if params.Username == "" || params.Password == "" || params.Email == "" || params.DisplayName == "" {
		return nil, apperrors.ValidationError("Missing one or more input fields")
	}
	if !util.IsValidName(params.Username) {
		return nil, apperrors.InvalidInput("username", "must be alphanumeric characters or underscores only")
	}
	if !util.IsValidEmail(params.Email) {
		return nil, apperrors.InvalidInput("email", "must be a valid email address")
	}
	if !util.IsValidName(params.DisplayName) {
		return nil, apperrors.InvalidInput("display name", "must be alphanumeric characters or underscores only")
	}
	if problems := util.ValidatePassword(params.Password); len(problems) > 0 {
		return nil, apperrors.ValidationError(strings.Join(problems, ", "))
	}

	if existing, err := s.userRepo.FindByUsername(ctx, params.Username); err != nil {
		return nil, apperrors.Database(err)
	} else if existing != nil {
		return nil, apperrors.AlreadyExists("Username")
	}
	if existing, err := s.userRepo.FindByEmail(ctx, params.Email); err != nil {
		return nil, apperrors.Database(err)
	} else if existing != nil {
		return nil, apperrors.AlreadyExists("Email")
	}
	if existing, err := s.userRepo.FindByDisplayName(ctx, params.DisplayName); err != nil {
		return nil, apperrors.Database(err)
	} else if existing != nil {
		return nil, apperrors.AlreadyExists("Display name")
	}

	passwordHash, err := util.HashPassword(params.Password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password").WithCause(err)
	}

	user, err := s.userRepo.Create(ctx, model.CreateUserParams{
		Username:     params.Username,
		PasswordHash: passwordHash,
		Email:        params.Email,
		DisplayName:  params.DisplayName,
		NameColor:    "000000",
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Int64("userId", user.ID).Str("username", user.Username).Msg("user registered")

	return user, nil
}

// Logout destroys the session; the store takes care of dropping any live
// chat connection bound to it.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}
