package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"crm/internal/auth"
	apperrors "crm/internal/errors"
	"crm/internal/model"
	"crm/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id uuid.UUID, upd model.CredentialUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLocked(ctx context.Context, id uuid.UUID, fn func(*model.User) model.CredentialUpdate) error {
	args := m.Called(ctx, id, fn)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

// memoryUserStore keeps users in memory and applies updates the way the SQL store does.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[uuid.UUID]*model.User)}
}

func (s *memoryUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memoryUserStore) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memoryUserStore) Update(_ context.Context, id uuid.UUID, upd model.CredentialUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		upd.Apply(u)
	}
	return nil
}

func (s *memoryUserStore) UpdateLocked(_ context.Context, id uuid.UUID, fn func(*model.User) model.CredentialUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *u
	fn(&cp).Apply(u)
	return nil
}

func (s *memoryUserStore) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.User
	for _, u := range s.users {
		all = append(all, *u)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (s *memoryUserStore) get(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := s.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const (
	alicePassword = "StrongP@ss1!"
	aliceEmail    = "alice@example.com"
)

type authFixture struct {
	svc    AuthService
	store  *memoryUserStore
	clock  *fixedClock
	tokens *auth.JWTService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHasher(t *testing.T) *auth.BcryptHasher {
	t.Helper()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	clock := &fixedClock{now: time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)}
	tokens := auth.NewJWTService(auth.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	}, clock)
	store := newMemoryUserStore()
	return &authFixture{
		svc:    NewAuthService(store, tokens, testHasher(t), clock, discardLogger()),
		store:  store,
		clock:  clock,
		tokens: tokens,
	}
}

func (f *authFixture) registerAlice(t *testing.T) *RegisteredUser {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterParams{
		Email:     aliceEmail,
		Password:  alicePassword,
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		params        RegisterParams
		existing      bool
		expectedRole  model.Role
		expectedError error
	}{
		{
			name:         "successful registration",
			params:       RegisterParams{Email: aliceEmail, Password: alicePassword, FirstName: "Alice", LastName: "Smith"},
			expectedRole: model.RoleUser,
		},
		{
			name:         "explicit role",
			params:       RegisterParams{Email: aliceEmail, Password: alicePassword, FirstName: "Alice", LastName: "Smith", Role: model.RoleAdmin},
			expectedRole: model.RoleAdmin,
		},
		{
			name:          "email already registered",
			params:        RegisterParams{Email: aliceEmail, Password: alicePassword, FirstName: "Alice", LastName: "Smith"},
			existing:      true,
			expectedError: apperrors.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			if tt.existing {
				f.registerAlice(t)
			}

			user, err := f.svc.Register(context.Background(), tt.params)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, user.ID)
			assert.Equal(t, tt.params.Email, user.Email)
			assert.Equal(t, tt.expectedRole, user.Role)
			assert.Equal(t, f.clock.Now(), user.CreatedAt)

			stored := f.store.get(t, tt.params.Email)
			assert.True(t, stored.IsActive)
			assert.Zero(t, stored.FailedAttempts)
			assert.Nil(t, stored.LockedUntil)
			assert.Nil(t, stored.RefreshTokenHash)
			assert.NotEqual(t, tt.params.Password, stored.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(tt.params.Password)))
		})
	}
}

func TestAuthService_RegisterRejectsUnknownRole(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(context.Background(), RegisterParams{
		Email: aliceEmail, Password: alicePassword, FirstName: "A", LastName: "S", Role: "ROOT",
	})
	assert.Error(t, err)
}

func TestAuthService_RegisterDuplicateRace(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, aliceEmail).Return(nil, repository.ErrNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(repository.ErrDuplicateEmail)

	svc := NewAuthService(repo, auth.NewJWTService(auth.JWTConfig{AccessSecret: "a", RefreshSecret: "b"}, nil), testHasher(t), nil, discardLogger())
	_, err := svc.Register(context.Background(), RegisterParams{Email: aliceEmail, Password: alicePassword, FirstName: "A", LastName: "S"})

	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
	repo.AssertExpectations(t)
}

func TestAuthService_LoginScenario(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.registerAlice(t)

	res, err := f.svc.Login(context.Background(), aliceEmail, alicePassword)
	require.NoError(t, err)

	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, registered.ID, res.User.ID)
	assert.Equal(t, model.RoleUser, res.User.Role)

	claims, err := f.tokens.VerifyAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID.String(), claims.Subject)
	assert.Equal(t, aliceEmail, claims.Email)

	stored := f.store.get(t, aliceEmail)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, f.clock.Now(), *stored.LastLoginAt)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.NotEqual(t, res.RefreshToken, *stored.RefreshTokenHash)
}

func TestAuthService_LoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		setup    func(t *testing.T, f *authFixture)
	}{
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: alicePassword,
		},
		{
			name:     "wrong password",
			email:    aliceEmail,
			password: "WrongP@ss1!",
		},
		{
			name:     "inactive account with correct password",
			email:    aliceEmail,
			password: alicePassword,
			setup: func(t *testing.T, f *authFixture) {
				inactive := false
				u := f.store.get(t, aliceEmail)
				require.NoError(t, f.store.Update(context.Background(), u.ID, model.CredentialUpdate{IsActive: &inactive}))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			f.registerAlice(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			res, err := f.svc.Login(context.Background(), tt.email, tt.password)

			assert.Nil(t, res)
			assert.Equal(t, apperrors.ErrInvalidCredentials, err)
			assert.Equal(t, "Invalid credentials", err.Error())
			assert.Nil(t, f.store.get(t, aliceEmail).RefreshTokenHash)
		})
	}
}

func TestAuthService_LockoutAfterFiveFailures(t *testing.T) {
	f := newAuthFixture(t)
	f.registerAlice(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		f.clock.Advance(time.Second)
		_, err := f.svc.Login(ctx, aliceEmail, "WrongP@ss1!")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "attempt %d", i)
		assert.Equal(t, i, f.store.get(t, aliceEmail).FailedAttempts)
	}
	fifthFailureAt := f.clock.Now()

	stored := f.store.get(t, aliceEmail)
	require.NotNil(t, stored.LockedUntil)
	assert.Equal(t, fifthFailureAt.Add(15*time.Minute), *stored.LockedUntil)

	// The correct password no longer helps while the lock holds.
	f.clock.Advance(time.Minute)
	_, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.ErrorIs(t, err, apperrors.ErrAccountLocked)
	var locked *apperrors.AccountLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, 14, locked.Minutes())
	assert.Equal(t, "Account is locked. Try again in 14 minutes", err.Error())

	// Refusals during the lock do not extend it.
	assert.Equal(t, fifthFailureAt.Add(15*time.Minute), *f.store.get(t, aliceEmail).LockedUntil)
	assert.Equal(t, 5, f.store.get(t, aliceEmail).FailedAttempts)

	f.clock.Advance(14 * time.Minute)
	res, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
}

// staleReadStore holds every FindByEmail caller until all of them have read the
// same snapshot, which forces the worst interleaving for concurrent failures.
type staleReadStore struct {
	*memoryUserStore
	arrived sync.WaitGroup
	release chan struct{}
}

func (s *staleReadStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.memoryUserStore.FindByEmail(ctx, email)
	s.arrived.Done()
	<-s.release
	return u, err
}

func TestAuthService_ConcurrentFailuresAllCount(t *testing.T) {
	f := newAuthFixture(t)
	f.registerAlice(t)

	const attempts = 50
	store := &staleReadStore{memoryUserStore: f.store, release: make(chan struct{})}
	store.arrived.Add(attempts)
	svc := NewAuthService(store, f.tokens, testHasher(t), f.clock, discardLogger())

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Login(context.Background(), aliceEmail, "WrongP@ss1!")
			errs <- err
		}()
	}
	store.arrived.Wait()
	close(store.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}

	stored := f.store.get(t, aliceEmail)
	assert.Equal(t, attempts, stored.FailedAttempts)
	require.NotNil(t, stored.LockedUntil)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), *stored.LockedUntil)

	_, err := f.svc.Login(context.Background(), aliceEmail, alicePassword)
	assert.ErrorIs(t, err, apperrors.ErrAccountLocked)
}

func TestAuthService_SuccessfulLoginResetsLockout(t *testing.T) {
	tests := []struct {
		name        string
		attempts    int
		lockedUntil func(now time.Time) *time.Time
	}{
		{name: "clean state", attempts: 0},
		{name: "some failures", attempts: 3},
		{
			name:     "expired lock",
			attempts: 5,
			lockedUntil: func(now time.Time) *time.Time {
				t := now.Add(-time.Second)
				return &t
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			u := f.registerAlice(t)

			upd := model.CredentialUpdate{FailedAttempts: &tt.attempts}
			if tt.lockedUntil != nil {
				upd.LockedUntil = tt.lockedUntil(f.clock.Now())
			}
			require.NoError(t, f.store.Update(context.Background(), u.ID, upd))

			_, err := f.svc.Login(context.Background(), aliceEmail, alicePassword)
			require.NoError(t, err)

			stored := f.store.get(t, aliceEmail)
			assert.Zero(t, stored.FailedAttempts)
			assert.Nil(t, stored.LockedUntil)
		})
	}
}

func TestAuthService_RefreshRotation(t *testing.T) {
	f := newAuthFixture(t)
	f.registerAlice(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)

	pair, err := f.svc.RefreshTokens(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)
	assert.NotEqual(t, login.AccessToken, pair.AccessToken)

	_, err = f.svc.RefreshTokens(ctx, login.RefreshToken)
	assert.Equal(t, apperrors.ErrInvalidRefreshToken, err)

	next, err := f.svc.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)
}

func TestAuthService_LoginInvalidatesEarlierRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	f.registerAlice(t)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)

	_, err = f.svc.RefreshTokens(ctx, first.RefreshToken)
	assert.Equal(t, apperrors.ErrInvalidRefreshToken, err)
}

func TestAuthService_RefreshRejects(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T, f *authFixture, login *LoginResult) string
	}{
		{
			name: "garbage",
			token: func(t *testing.T, f *authFixture, login *LoginResult) string {
				return "garbage"
			},
		},
		{
			name: "access token used as refresh token",
			token: func(t *testing.T, f *authFixture, login *LoginResult) string {
				return login.AccessToken
			},
		},
		{
			name: "expired",
			token: func(t *testing.T, f *authFixture, login *LoginResult) string {
				f.clock.Advance(8 * 24 * time.Hour)
				return login.RefreshToken
			},
		},
		{
			name: "deactivated user",
			token: func(t *testing.T, f *authFixture, login *LoginResult) string {
				inactive := false
				require.NoError(t, f.store.Update(context.Background(), login.User.ID, model.CredentialUpdate{IsActive: &inactive}))
				return login.RefreshToken
			},
		},
		{
			name: "valid signature for a user that does not exist",
			token: func(t *testing.T, f *authFixture, login *LoginResult) string {
				pair, err := f.tokens.GeneratePair(context.Background(), auth.Identity{UserID: uuid.New(), Email: "ghost@example.com", Role: model.RoleUser})
				require.NoError(t, err)
				return pair.RefreshToken
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			f.registerAlice(t)
			login, err := f.svc.Login(context.Background(), aliceEmail, alicePassword)
			require.NoError(t, err)

			pair, err := f.svc.RefreshTokens(context.Background(), tt.token(t, f, login))
			assert.Nil(t, pair)
			assert.Equal(t, apperrors.ErrInvalidRefreshToken, err)
		})
	}
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	u := f.registerAlice(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)
	rotated, err := f.svc.RefreshTokens(ctx, login.RefreshToken)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		res, err := f.svc.Logout(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Logged out successfully", res.Message)
	}
	assert.Nil(t, f.store.get(t, aliceEmail).RefreshTokenHash)

	for _, token := range []string{login.RefreshToken, rotated.RefreshToken} {
		_, err := f.svc.RefreshTokens(ctx, token)
		assert.Equal(t, apperrors.ErrInvalidRefreshToken, err)
	}
}

func TestAuthService_LogoutUnknownUser(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Logout(context.Background(), uuid.New())
	assert.Equal(t, apperrors.ErrInactiveUser, err)
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	f := newAuthFixture(t)
	u := f.registerAlice(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, aliceEmail, alicePassword)
	require.NoError(t, err)

	profile, err := f.svc.GetCurrentUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, aliceEmail, profile.Email)
	assert.Equal(t, "Alice", profile.FirstName)
	assert.True(t, profile.IsActive)
	require.NotNil(t, profile.LastLoginAt)

	inactive := false
	require.NoError(t, f.store.Update(ctx, u.ID, model.CredentialUpdate{IsActive: &inactive}))

	// The access token is still cryptographically valid.
	_, err = f.tokens.VerifyAccess(login.AccessToken)
	require.NoError(t, err)

	profile, err = f.svc.GetCurrentUser(ctx, u.ID)
	assert.Nil(t, profile)
	assert.Equal(t, apperrors.ErrInactiveUser, err)

	_, err = f.svc.GetCurrentUser(ctx, uuid.New())
	assert.Equal(t, apperrors.ErrInactiveUser, err)
}

func TestAuthService_StoreErrorsPropagate(t *testing.T) {
	storeErr := errors.New("connection refused")
	hasher := testHasher(t)
	hash, err := hasher.HashPassword(alicePassword)
	require.NoError(t, err)
	userID := uuid.New()

	activeUser := func() *model.User {
		return &model.User{ID: userID, Email: aliceEmail, PasswordHash: hash, Role: model.RoleUser, IsActive: true}
	}

	tests := []struct {
		name  string
		setup func(m *MockUserRepository)
		call  func(svc AuthService) error
	}{
		{
			name: "login lookup",
			setup: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, aliceEmail).Return(nil, storeErr)
			},
			call: func(svc AuthService) error {
				_, err := svc.Login(context.Background(), aliceEmail, alicePassword)
				return err
			},
		},
		{
			name: "recording a failed attempt",
			setup: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, aliceEmail).Return(activeUser(), nil)
				m.On("UpdateLocked", mock.Anything, userID, mock.Anything).Return(storeErr)
			},
			call: func(svc AuthService) error {
				_, err := svc.Login(context.Background(), aliceEmail, "WrongP@ss1!")
				return err
			},
		},
		{
			name: "storing the refresh token hash",
			setup: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, aliceEmail).Return(activeUser(), nil)
				m.On("Update", mock.Anything, userID, mock.MatchedBy(func(u model.CredentialUpdate) bool {
					return u.RefreshTokenHash == nil
				})).Return(nil)
				m.On("Update", mock.Anything, userID, mock.MatchedBy(func(u model.CredentialUpdate) bool {
					return u.RefreshTokenHash != nil
				})).Return(storeErr)
			},
			call: func(svc AuthService) error {
				_, err := svc.Login(context.Background(), aliceEmail, alicePassword)
				return err
			},
		},
		{
			name: "logout",
			setup: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, userID).Return(activeUser(), nil)
				m.On("Update", mock.Anything, userID, model.CredentialUpdate{ClearRefreshToken: true}).Return(storeErr)
			},
			call: func(svc AuthService) error {
				_, err := svc.Logout(context.Background(), userID)
				return err
			},
		},
		{
			name: "current user",
			setup: func(m *MockUserRepository) {
				m.On("FindByID", mock.Anything, userID).Return(nil, storeErr)
			},
			call: func(svc AuthService) error {
				_, err := svc.GetCurrentUser(context.Background(), userID)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.setup(repo)
			tokens := auth.NewJWTService(auth.JWTConfig{AccessSecret: "a", RefreshSecret: "b"}, nil)
			svc := NewAuthService(repo, tokens, hasher, nil, discardLogger())

			err := tt.call(svc)
			assert.ErrorIs(t, err, storeErr)
			repo.AssertExpectations(t)
		})
	}
}
