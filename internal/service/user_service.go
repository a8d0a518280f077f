package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"crm/internal/cache"
	apperrors "crm/internal/errors"
	"crm/internal/model"
	"crm/internal/repository"
)

const (
	userCacheTTL = 5 * time.Minute

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// UserPage is one page of the user listing.
type UserPage struct {
	Items      []Profile `json:"items"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalItems int64     `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
	HasNext    bool      `json:"hasNextPage"`
	HasPrev    bool      `json:"hasPrevPage"`
}

// UserService exposes administrative operations on accounts.
type UserService interface {
	ListUsers(ctx context.Context, page, limit int) (*UserPage, error)
	GetUser(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetUserByEmail(ctx context.Context, email string) (*Profile, error)
	// SetActive and Unlock act on behalf of a caller with role actor, which must rank
	// at least as high as the target account.
	SetActive(ctx context.Context, actor model.Role, id uuid.UUID, active bool) (*Profile, error)
	Unlock(ctx context.Context, actor model.Role, id uuid.UUID) (*Profile, error)
}

type userService struct {
	repo   repository.UserRepository
	cache  *cache.Client
	logger *slog.Logger
}

// NewUserService builds a UserService with repository and cache. A nil cache disables caching.
func NewUserService(repo repository.UserRepository, cache *cache.Client, logger *slog.Logger) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{repo: repo, cache: cache, logger: logger.With("component", "users")}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	users, total, err := s.repo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	items := make([]Profile, 0, len(users))
	for i := range users {
		items = append(items, profileOf(&users[i]))
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &UserPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

// GetUser reads through the cache. Only the public profile is cached.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*Profile, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached Profile
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}

	p := profileOf(user)
	if payload, err := json.Marshal(p); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return &p, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*Profile, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err)
	}
	p := profileOf(user)
	return &p, nil
}

// SetActive enables or disables an account. A disabled account also loses its refresh token.
func (s *userService) SetActive(ctx context.Context, actor model.Role, id uuid.UUID, active bool) (*Profile, error) {
	upd := model.CredentialUpdate{IsActive: &active}
	if !active {
		upd.ClearRefreshToken = true
	}
	if err := s.update(ctx, actor, id, upd); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account status changed", "user_id", id, "active", active)
	return s.GetUser(ctx, id)
}

// Unlock clears the failed-login counter and any lock.
func (s *userService) Unlock(ctx context.Context, actor model.Role, id uuid.UUID) (*Profile, error) {
	zero := 0
	if err := s.update(ctx, actor, id, model.CredentialUpdate{FailedAttempts: &zero, ClearLockedUntil: true}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "account unlocked", "user_id", id)
	return s.GetUser(ctx, id)
}

func (s *userService) update(ctx context.Context, actor model.Role, id uuid.UUID, upd model.CredentialUpdate) error {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound(err)
	}
	if !actor.AtLeast(target.Role) {
		s.logger.WarnContext(ctx, "change refused for higher-ranked account", "user_id", id, "actor_role", actor, "target_role", target.Role)
		return apperrors.ErrForbidden
	}
	if err := s.repo.Update(ctx, id, upd); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrUserNotFound
	}
	return fmt.Errorf("find user: %w", err)
}
