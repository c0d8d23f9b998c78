package identity

//go:generate mockgen -source=identity_service.go -destination=mocks/mock_identity_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string, admin bool) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

type Service struct {
	repo       UserRepository
	tokens     *TokenManager
	bcryptCost int
	// principals caches the principal of each user ID seen in a valid token.
	principals *cache.Cache
	logger     *slog.Logger
}

func NewService(repo UserRepository, tokens *TokenManager, bcryptCost int, cacheTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		principals: cache.New(cacheTTL, 5*cacheTTL),
		logger:     slog.Default().With("component", "identity"),
	}
}

// Register creates an account. The first account ever registered becomes an
// administrator.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	user, err := s.createUser(ctx, username, password, false)

	if err != nil {
		return User{}, err
	}

	s.logger.Info("user registered", "id", user.ID, "admin", user.IsAdmin)

	return user, nil
}

// CreateUser lets an administrator open an account, optionally with admin
// rights.
func (s *Service) CreateUser(ctx context.Context, username, password string, admin bool) (User, error) {
	user, err := s.createUser(ctx, username, password, admin)

	if err != nil {
		return User{}, err
	}

	s.logger.Info("user created", "id", user.ID, "admin", user.IsAdmin)

	return user, nil
}

func (s *Service) createUser(ctx context.Context, username, password string, admin bool) (User, error) {
	username = strings.TrimSpace(username)

	if !validUsername(username) || utf8.RuneCountInString(password) < 6 {
		return User{}, ErrInvalidUser
	}

	hash, err := hashPassword(password, s.bcryptCost)

	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.CreateUser(ctx, username, hash, admin)
}

func validUsername(username string) bool {
	length := utf8.RuneCountInString(username)
	return length >= 3 && length <= 50
}

func (s *Service) Login(ctx context.Context, username, password string) (Token, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))

	if errors.Is(err, ErrUserNotFound) {
		return Token{}, ErrInvalidCredentials
	}

	if err != nil {
		return Token{}, err
	}

	if !verifyPassword(user.PasswordHash, password) {
		return Token{}, ErrInvalidCredentials
	}

	return s.tokens.Issue(user)
}

// Authenticate resolves an access token to the principal of its subject. The
// admin flag comes from the stored user rather than the token, so a
// revocation applies once the cached entry expires.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	claims, err := s.tokens.Parse(accessToken)

	if err != nil {
		return Principal{}, err
	}

	if cached, found := s.principals.Get(claims.Subject); found {
		return cached.(Principal), nil
	}

	user, err := s.repo.GetUserByID(ctx, claims.Subject)

	if errors.Is(err, ErrUserNotFound) {
		return Principal{}, ErrInvalidToken
	}

	if err != nil {
		return Principal{}, fmt.Errorf("failed to load user of token: %w", err)
	}

	principal := user.Principal()
	s.principals.Set(claims.Subject, principal, cache.DefaultExpiration)

	return principal, nil
}

func (s *Service) UserExists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetUserByID(ctx, id)

	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.GetUserByUsername(ctx, username)
}

func (s *Service) ListUsers(ctx context.Context, skip, limit int) ([]User, error) {
	if skip < 0 {
		skip = 0
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return s.repo.ListUsers(ctx, skip, limit)
}

func (s *Service) UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error) {
	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)

		if !validUsername(username) {
			return User{}, ErrInvalidUser
		}

		patch.Username = &username
	}

	user, err := s.repo.UpdateUser(ctx, id, patch)

	if err != nil {
		return User{}, err
	}

	s.principals.Delete(id)
	s.logger.Info("user updated", "id", id, "admin", user.IsAdmin)

	return user, nil
}

func (s *Service) SetAdmin(ctx context.Context, id string, admin bool) (User, error) {
	return s.UpdateUser(ctx, id, UserPatch{IsAdmin: &admin})
}

func (s *Service) DeleteUser(ctx context.Context, principal Principal, id string) error {
	if principal.UserID == id {
		return ErrSelfDelete
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.principals.Delete(id)
	s.logger.Info("user deleted", "id", id)

	return nil
}
