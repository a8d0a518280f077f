package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"crm/internal/auth"
	apperrors "crm/internal/errors"
	"crm/internal/model"
	"crm/internal/repository"
)

const (
	// TokenType is the scheme clients must use with the access token.
	TokenType = "Bearer"
	// LogoutMessage is returned by every successful logout.
	LogoutMessage = "Logged out successfully"
)

// RegisterParams is the validated input of a registration. An empty Role means USER.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      model.Role
}

// RegisteredUser is the public view of a freshly created account.
type RegisteredUser struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

// UserSummary is embedded in the login response.
type UserSummary struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      model.Role `json:"role"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
	TokenType    string      `json:"tokenType"`
	User         UserSummary `json:"user"`
}

// Profile is the public view of an account.
type Profile struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        model.Role `json:"role"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// LogoutResult is returned by logout.
type LogoutResult struct {
	Message string `json:"message"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, params RegisterParams) (*RegisteredUser, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) (*LogoutResult, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// TokenIssuer signs token pairs and verifies refresh tokens.
type TokenIssuer interface {
	GeneratePair(ctx context.Context, id auth.Identity) (*auth.TokenPair, error)
	VerifyRefresh(token string) (*auth.Claims, error)
	AccessTTL() time.Duration
}

type authService struct {
	users   repository.UserRepository
	tokens  TokenIssuer
	hasher  auth.CredentialHasher
	clock   auth.Clock
	lockout auth.LockoutPolicy
	logger  *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	tokens TokenIssuer,
	hasher auth.CredentialHasher,
	clock auth.Clock,
	logger *slog.Logger,
) AuthService {
	if clock == nil {
		clock = auth.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		clock:   clock,
		lockout: auth.DefaultLockoutPolicy(),
		logger:  logger.With("component", "auth"),
	}
}

// Register creates a new account with hashed password.
func (s *authService) Register(ctx context.Context, params RegisterParams) (*RegisteredUser, error) {
	_, err := s.users.FindByEmail(ctx, params.Email)
	if err == nil {
		return nil, apperrors.ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	role := params.Role
	if role == "" {
		role = model.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	hashedPassword, err := s.hasher.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &model.User{
		ID:           uuid.New(),
		Email:        params.Email,
		PasswordHash: hashedPassword,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "new user registered", "user_id", user.ID, "email", user.Email)

	return &RegisteredUser{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}, nil
}

// Login authenticates a user and returns a fresh token pair. The stored refresh token
// hash is overwritten, which invalidates any refresh token issued before.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn the same bcrypt time as a real check so response latency does not
			// reveal whether the email exists.
			s.hasher.VerifyPassword(password, s.dummyPasswordHash())
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := s.clock.Now()
	if err := s.lockout.Check(user.LockedUntil, now); err != nil {
		s.logger.WarnContext(ctx, "login refused for locked account", "user_id", user.ID)
		return nil, err
	}

	if !s.hasher.VerifyPassword(password, user.PasswordHash) {
		var next auth.LockoutState
		err := s.users.UpdateLocked(ctx, user.ID, func(current *model.User) model.CredentialUpdate {
			next = s.lockout.RecordFailure(auth.LockoutState{
				FailedAttempts: current.FailedAttempts,
				LockedUntil:    current.LockedUntil,
			}, now)
			return model.CredentialUpdate{
				FailedAttempts: &next.FailedAttempts,
				LockedUntil:    next.LockedUntil,
			}
		})
		if err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		if next.FailedAttempts == s.lockout.MaxFailedAttempts {
			s.logger.WarnContext(ctx, "account locked", "user_id", user.ID, "failed_attempts", next.FailedAttempts)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}

	reset := s.lockout.RecordSuccess(now)
	upd := model.CredentialUpdate{
		FailedAttempts:   &reset.FailedAttempts,
		ClearLockedUntil: reset.LockedUntil == nil,
		LastLoginAt:      reset.LastLoginAt,
	}
	if err := s.users.Update(ctx, user.ID, upd); err != nil {
		return nil, fmt.Errorf("reset failed attempts: %w", err)
	}

	pair, err := s.rotate(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL() / time.Second),
		TokenType:    TokenType,
		User: UserSummary{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      user.Role,
		},
	}, nil
}

// RefreshTokens exchanges a refresh token for a new pair. Only the most recently issued
// refresh token of a user is accepted; every failure reads as ErrInvalidRefreshToken.
func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive || user.RefreshTokenHash == nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	if !s.hasher.VerifyToken(refreshToken, *user.RefreshTokenHash) {
		s.logger.WarnContext(ctx, "rotated-out refresh token presented", "user_id", user.ID)
		return nil, apperrors.ErrInvalidRefreshToken
	}

	return s.rotate(ctx, user)
}

// Logout revokes the user's refresh token. Calling it again is a no-op.
func (s *authService) Logout(ctx context.Context, userID uuid.UUID) (*LogoutResult, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInactiveUser
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.users.Update(ctx, userID, model.CredentialUpdate{ClearRefreshToken: true}); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out", "user_id", userID)

	return &LogoutResult{Message: LogoutMessage}, nil
}

// GetCurrentUser returns the profile of an authenticated user. A valid access token is
// not enough: the account must still exist and be active.
func (s *authService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInactiveUser
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.ErrInactiveUser
	}
	p := profileOf(user)
	return &p, nil
}

// rotate issues a new pair and stores the hash of its refresh token in place of the
// previous one. Tokens are signed before anything is written.
func (s *authService) rotate(ctx context.Context, user *model.User) (*auth.TokenPair, error) {
	pair, err := s.tokens.GeneratePair(ctx, auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	hash, err := s.hasher.HashToken(pair.RefreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user.ID, model.CredentialUpdate{RefreshTokenHash: &hash}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

func (s *authService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.HashPassword(uuid.NewString())
		if err != nil {
			s.logger.Error("compute dummy password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func profileOf(u *model.User) Profile {
	return Profile{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
