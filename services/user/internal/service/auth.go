package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/mosgim/platform/pkg/events"
	pkg_hash "github.com/mosgim/platform/pkg/hash"
	"github.com/mosgim/platform/pkg/logging"
	"github.com/mosgim/platform/pkg/tokens"
	"github.com/mosgim/platform/services/user/internal/models"
	"github.com/mosgim/platform/services/user/internal/repo"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
	Events events.Publisher

	// adminConfigured caches "some admin exists" once observed; the store
	// stays the authority.
	adminConfigured atomic.Bool
}

func New(r *repo.GormRepo, issuer *tokens.Issuer, pub events.Publisher) *AuthService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &AuthService{Repo: r, Tokens: issuer, Events: pub}
}

type TokenResult struct {
	UserID   uint
	Username string
	Token    string
}

func (s *AuthService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	username, email = strings.TrimSpace(username), strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrValidation
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{Username: username, Email: email, PasswordHash: pwHash}
	var isAdmin bool
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		exists, err := tx.UserExists(ctx, username, email)
		if err != nil {
			return err
		}
		if exists {
			return ErrUserExists
		}

		roleName, err := s.registrationRole(ctx, tx)
		if err != nil {
			return err
		}
		role, err := s.roleByName(ctx, tx, roleName)
		if err != nil {
			return err
		}
		user.RoleID = role.ID
		isAdmin = roleName == models.RoleAdmin

		if err := tx.CreateUser(ctx, &user); err != nil {
			if errors.Is(err, repo.ErrUserAlreadyExist) {
				return ErrUserExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrUserExists) {
			l.Error("register_error", "status", 500, "error", err)
		}
		return nil, err
	}

	if isAdmin {
		s.adminConfigured.Store(true)
		l.Info("bootstrap_admin_granted", "user_id", user.ID)
	}
	s.publish(ctx, events.TypeUserRegistered, user.ID, user.Username)
	return &user, nil
}

func (s *AuthService) checkCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.Repo.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login hands back the user's stored token while it is still valid and
// replaces it otherwise.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.checkCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
		}
		return nil, err
	}

	var token string
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		stored, err := tx.FindTokenByUserID(ctx, user.ID)
		switch {
		case err == nil:
			if uid, verr := s.Tokens.Validate(stored.Token); verr == nil && uid == user.ID {
				token = stored.Token
				return nil
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		token, err = s.replaceTokens(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, events.TypeUserLoggedIn, user.ID, user.Username)
	return &TokenResult{UserID: user.ID, Username: user.Username, Token: token}, nil
}

// RefreshToken revokes every token of the user and issues exactly one new one.
func (s *AuthService) RefreshToken(ctx context.Context, username, password string) (*TokenResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh", "username", username)

	user, err := s.checkCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			l.Warn("refresh_failed", "status", 401, "reason", "invalid username or password")
		}
		return nil, err
	}

	var token string
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		token, err = s.replaceTokens(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, events.TypeTokenRefreshed, user.ID, user.Username)
	return &TokenResult{UserID: user.ID, Username: user.Username, Token: token}, nil
}

func (s *AuthService) replaceTokens(ctx context.Context, tx *repo.GormRepo, userID uint) (string, error) {
	if _, err := tx.DeleteUserTokens(ctx, userID); err != nil {
		return "", fmt.Errorf("delete tokens: %w", err)
	}
	token, err := s.Tokens.Issue(userID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if _, err := tx.CreateToken(ctx, userID, token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// authorize accepts a token only when its signature is valid and it is
// still present in the store.
func (s *AuthService) authorize(ctx context.Context, token string) (uint, error) {
	uid, err := s.Tokens.Validate(token)
	if err != nil {
		return 0, ErrInvalidToken
	}
	stored, err := s.Repo.FindToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrInvalidToken
		}
		return 0, err
	}
	if stored.UserID != uid {
		return 0, ErrInvalidToken
	}
	return uid, nil
}

func (s *AuthService) VerifyToken(ctx context.Context, token string) (uint, error) {
	return s.authorize(ctx, token)
}

// Logout revokes every token of the owner of token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	uid, err := s.authorize(ctx, token)
	if err != nil {
		return err
	}

	var username string
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		owner, err := tx.FindUserByToken(ctx, token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		username = owner.Username
		_, err = tx.DeleteUserTokens(ctx, owner.ID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidToken) {
			logging.FromContext(ctx).Error("logout_failed", "status", 500, "user_id", uid, "error", err)
		}
		return err
	}
	s.publish(ctx, events.TypeUserLoggedOut, uid, username)
	return nil
}

// CheckAccess reports whether the owner of token was granted serviceName.
func (s *AuthService) CheckAccess(ctx context.Context, serviceName, token string) (bool, error) {
	uid, err := s.authorize(ctx, token)
	if err != nil {
		return false, err
	}
	if _, err := s.Repo.GetUserById(ctx, uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return s.HasAccess(ctx, uid, serviceName)
}

func (s *AuthService) publish(ctx context.Context, typ string, userID uint, username string) {
	ev := events.UserEvent{Type: typ, UserID: userID, Username: username, At: time.Now().UTC()}
	if err := s.Events.PublishEvent(ctx, strconv.FormatUint(uint64(userID), 10), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "type", typ, "user_id", userID, "error", err)
	}
}
