package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/bogobit/community-server-go/internal/database"
	apperrors "github.com/bogobit/community-server-go/internal/errors"
	"github.com/bogobit/community-server-go/internal/repository"
	"github.com/bogobit/community-server-go/internal/util"
)

// ProfileService handles profile-field changes. Changes to denormalized
// fields (display name, name color) update the user row and the live
// session record in one transaction, so a chat broadcast never sees a
// half-applied rename.
type ProfileService struct {
	db          *database.DB
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	sessions    *SessionService
	secret      string
}

func NewProfileService(
	db *database.DB,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	sessions *SessionService,
	secret string,
) *ProfileService {
	return &ProfileService{
		db:          db,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		sessions:    sessions,
		secret:      secret,
	}
}

// ChangePassword verifies the old password, applies the new one and then
// destroys the session, forcing a fresh login (and dropping any live chat
// connection on the way).
func (s *ProfileService) ChangePassword(ctx context.Context, token string, userID int64, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperrors.ValidationError("Missing old or new password")
	}
	if oldPassword == newPassword {
		return apperrors.ValidationError("New password must be different from old password")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		return apperrors.NotFound("User")
	}

	if !util.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return apperrors.Unauthorized("Old password is incorrect")
	}
	if problems := util.ValidatePassword(newPassword); len(problems) > 0 {
		return apperrors.ValidationError(strings.Join(problems, ", "))
	}

	passwordHash, err := util.HashPassword(newPassword)
	if err != nil {
		return apperrors.Internal("failed to hash password").WithCause(err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, passwordHash); err != nil {
		return apperrors.Database(err)
	}

	log.Info().Int64("userId", userID).Msg("password changed")

	return s.sessions.Destroy(ctx, token)
}

func (s *ProfileService) ChangeEmail(ctx context.Context, userID int64, oldEmail, newEmail, password string) error {
	oldEmail = strings.ToLower(oldEmail)
	newEmail = strings.ToLower(newEmail)

	if oldEmail == "" || newEmail == "" || password == "" {
		return apperrors.ValidationError("Missing one or more fields")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		return apperrors.NotFound("User")
	}

	if !util.CheckPasswordHash(password, user.PasswordHash) {
		return apperrors.Unauthorized("Password is incorrect")
	}
	if oldEmail != user.Email {
		return apperrors.ValidationError("Old email does not match current email")
	}
	if oldEmail == newEmail {
		return apperrors.ValidationError("New email must be different from old email")
	}
	if !util.IsValidEmail(newEmail) {
		return apperrors.InvalidInput("email", "must be a valid email address")
	}
	if existing, err := s.userRepo.FindByEmail(ctx, newEmail); err != nil {
		return apperrors.Database(err)
	} else if existing != nil {
		return apperrors.AlreadyExists("Email")
	}

	if err := s.userRepo.UpdateEmail(ctx, userID, newEmail); err != nil {
		return apperrors.Database(err)
	}

	log.Info().Int64("userId", userID).Msg("email changed")

	return nil
}

func (s *ProfileService) ChangeDisplayName(ctx context.Context, token string, userID int64, oldDisplay, newDisplay string) error {
	if oldDisplay == "" || newDisplay == "" {
		return apperrors.ValidationError("Missing old or new display name")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		return apperrors.NotFound("User")
	}

	if oldDisplay != user.DisplayName {
		return apperrors.ValidationError("Old display name does not match current display name")
	}
	if oldDisplay == newDisplay {
		return apperrors.ValidationError("New display name must be different from old display name")
	}
	if !util.IsValidName(newDisplay) {
		return apperrors.InvalidInput("display name", "must be alphanumeric characters or underscores only")
	}
	if existing, err := s.userRepo.FindByDisplayName(ctx, newDisplay); err != nil {
		return apperrors.Database(err)
	} else if existing != nil {
		return apperrors.AlreadyExists("Display name")
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.userRepo.WithTx(tx).UpdateDisplayName(ctx, userID, newDisplay); err != nil {
			return err
		}
		return s.sessionRepo.WithTx(tx).UpdateProfile(
			ctx, util.HmacSHA256(s.secret, token), newDisplay, user.NameColor,
		)
	})
	if err != nil {
		return apperrors.Database(err)
	}

	log.Info().Int64("userId", userID).Msg("display name changed")

	return nil
}

func (s *ProfileService) ChangeNameColor(ctx context.Context, token string, userID int64, nameColor string) error {
	if !util.IsValidNameColor(nameColor) {
		return apperrors.InvalidInput("color", "must be a hex color code without the # symbol")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		return apperrors.NotFound("User")
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.userRepo.WithTx(tx).UpdateNameColor(ctx, userID, nameColor); err != nil {
			return err
		}
		return s.sessionRepo.WithTx(tx).UpdateProfile(
			ctx, util.HmacSHA256(s.secret, token), user.DisplayName, nameColor,
		)
	})
	if err != nil {
		return apperrors.Database(err)
	}

	log.Info().Int64("userId", userID).Msg("name color changed")

	return nil
}
