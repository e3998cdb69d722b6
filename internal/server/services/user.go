// Package services contains server-side business logic. This file implements
// UserService, which handles signup, login, session verification and
// profile picture updates.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/chatauth/internal/common"
	"github.com/dmitrijs2005/chatauth/internal/dbx"
	"github.com/dmitrijs2005/chatauth/internal/logging"
	"github.com/dmitrijs2005/chatauth/internal/server/auth"
	"github.com/dmitrijs2005/chatauth/internal/server/models"
	"github.com/dmitrijs2005/chatauth/internal/server/repositories/repomanager"
	"github.com/samber/oops"
)

// bcrypt ignores everything past this many bytes.
const maxPasswordBytes = 72

const welcomeTimeout = 30 * time.Second

// nonSpace matches one character that is neither whitespace nor '@'. RE2's
// \s is ASCII-only, so vertical tab, Unicode separators and BOM are listed.
const nonSpace = `[^\s\v\p{Z}\x{FEFF}@]`

var emailRegex = regexp.MustCompile(`^` + nonSpace + `+@` + nonSpace + `+\.` + nonSpace + `+$`)

// WelcomeNotifier hands a freshly registered user to the email pipeline.
type WelcomeNotifier interface {
	NotifyWelcome(ctx context.Context, user models.PublicUser) error
}

// AvatarUploader stores an avatar payload and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, payload string) (string, error)
}

// SignupInput is the user-supplied part of a registration.
type SignupInput struct {
	FullName string
	Email    string
	Password string
}

// Session is an authenticated identity with the token that proves it.
type Session struct {
	User      models.PublicUser
	Token     string
	ExpiresAt time.Time
}

// UserService provides authentication-related operations:
// - Signup: validate, create the user, start a session, send a welcome email
// - Login: verify credentials and start a session
// - Authenticate: resolve a session token to its user
// - UpdateProfile: upload a new avatar and store its URL
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	tokens      *auth.TokenIssuer
	uploader    AvatarUploader
	notifier    WelcomeNotifier
	log         logging.Logger

	notifications sync.WaitGroup
}

// NewUserService wires a UserService. A nil notifier disables welcome emails.
func NewUserService(
	db *sql.DB,
	m repomanager.RepositoryManager,
	hasher auth.PasswordHasher,
	tokens *auth.TokenIssuer,
	uploader AvatarUploader,
	notifier WelcomeNotifier,
	log logging.Logger,
) *UserService {
	if log == nil {
		log = logging.Nop()
	}
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		uploader:    uploader,
		notifier:    notifier,
		log:         log.With("module", "users"),
	}
}

// Signup registers a new user and opens a session for it. Inputs are
// checked in a fixed order and nothing is stored unless all checks pass.
// The email lookup and the insert share one transaction.
// The welcome email goes out in the background once the session exists;
// its failure never fails the signup.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	if in.FullName == "" || in.Email == "" || in.Password == "" {
		return nil, common.ErrMissingFields
	}
	if utf8.RuneCountInString(in.Password) < common.MinPasswordLength {
		return nil, common.ErrPasswordTooShort
	}
	if !emailRegex.MatchString(in.Email) {
		return nil, common.ErrInvalidEmailFormat
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, common.ErrPasswordTooLong
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByEmail(ctx, in.Email)
		switch {
		case err == nil:
			return common.ErrEmailAlreadyInUse
		case !errors.Is(err, common.ErrorNotFound):
			return storeFailure("lookup email", err)
		}

		// The unique index on email settles a race between two signups that
		// both passed the lookup above.
		user, err = repo.Create(ctx, &models.User{
			FullName:     in.FullName,
			Email:        in.Email,
			PasswordHash: hash,
		})
		if err != nil {
			if errors.Is(err, common.ErrEmailAlreadyInUse) {
				return common.ErrEmailAlreadyInUse
			}
			return storeFailure("create user", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrEmailAlreadyInUse) || errors.Is(err, common.ErrStoreFailed) {
			return nil, err
		}
		return nil, storeFailure("signup transaction", err)
	}

	session, err := s.openSession(user)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user signed up", "user_id", user.ID)
	s.notifyWelcome(ctx, session.User)

	return session, nil
}

// Login checks the credentials and opens a session. An unknown email and a
// wrong password produce the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, common.ErrMissingFields
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, storeFailure("lookup email", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "stored password hash is unusable", "user_id", user.ID, "error", err)
		return nil, common.ErrInvalidCredentials
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	return s.openSession(user)
}

// Authenticate resolves a session token to the user it was issued for.
// The returned user never carries a password hash.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrUnauthenticated
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrIdentityNotFound
		}
		return nil, storeFailure("load user", err)
	}
	return user, nil
}

// UpdateProfile uploads avatar and points the user's profile picture at it.
func (s *UserService) UpdateProfile(ctx context.Context, userID, avatar string) (*models.PublicUser, error) {
	if avatar == "" {
		return nil, common.ErrMissingAvatar
	}

	url, err := s.uploader.Upload(ctx, avatar)
	if err != nil {
		if common.KindOf(err) == common.KindValidation || errors.Is(err, common.ErrUploadFailed) {
			return nil, err
		}
		return nil, oops.Code("UPLOAD_FAILED").With("user_id", userID).Wrap(fmt.Errorf("%w: %w", common.ErrUploadFailed, err))
	}

	user, err := s.repomanager.Users(s.db).UpdateProfilePic(ctx, userID, url)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrIdentityNotFound
		}
		return nil, storeFailure("update profile pic", err)
	}

	s.log.Info(ctx, "profile picture updated", "user_id", userID)

	public := user.Public()
	return &public, nil
}

// Wait blocks until welcome notifications already started have finished.
func (s *UserService) Wait() {
	s.notifications.Wait()
}

func (s *UserService) openSession(user *models.User) (*Session, error) {
	token, expires, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("user_id", user.ID).Wrap(err)
	}
	return &Session{User: user.Public(), Token: token, ExpiresAt: expires}, nil
}

// notifyWelcome runs the notifier detached from the request so a client
// hanging up does not cancel it. Errors and panics are logged and dropped.
func (s *UserService) notifyWelcome(ctx context.Context, user models.PublicUser) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), welcomeTimeout)

	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error(ctx, "welcome notifier panicked", "user_id", user.ID, "panic", r)
			}
		}()

		if err := s.notifier.NotifyWelcome(ctx, user); err != nil {
			s.log.Error(ctx, "welcome email not sent", "user_id", user.ID, "error", err)
		}
	}()
}

func storeFailure(op string, err error) error {
	return oops.Code("STORE_FAILED").In("users").With("op", op).Wrap(fmt.Errorf("%w: %w", common.ErrStoreFailed, err))
}
