package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/magabrotheeeer/user-account-service/internal/lib/jwt"
	"github.com/magabrotheeeer/user-account-service/internal/lib/password"
	"github.com/magabrotheeeer/user-account-service/internal/models"
	services "github.com/magabrotheeeer/user-account-service/internal/services/user"
	"github.com/magabrotheeeer/user-account-service/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) EmailTaken(ctx context.Context, email, exceptUID string) (bool, error) {
	args := m.Called(ctx, email, exceptUID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepoMock) UpdateUser(ctx context.Context, userUID string, upd models.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, userUID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) DeleteUserByEmail(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

// Мок для Cache
type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// Мок для EventPublisher
type EventsMock struct {
	mock.Mock
}

func (m *EventsMock) Publish(routingKey string, event any) error {
	args := m.Called(routingKey, event)
	return args.Error(0)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userUID string) (string, error) {
	args := m.Called(userUID)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) GenerateRefreshedToken(userUID string) (string, error) {
	args := m.Called(userUID)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.Claims), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(repo *UserRepoMock, cache *CacheMock, events *EventsMock, maker *JwtMakerMock) *services.UserService {
	return services.NewUserService(repo, cache, events, maker, newNoopLogger())
}

func mustHash(t *testing.T, raw string) string {
	t.Helper()
	hash, err := password.GetHash(raw)
	require.NoError(t, err)
	return hash
}

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock, c *CacheMock, e *EventsMock, j *JwtMakerMock)
		wantUID    string
		wantToken  string
		wantErr    error
	}{
		{
			name: "success",
			setupMocks: func(r *UserRepoMock, c *CacheMock, e *EventsMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "a@x.com").
					Return(nil, repository.ErrUserNotFound).Once()
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Username == "ann" && u.Email == "a@x.com" &&
						u.PasswordHash != "" && u.PasswordHash != "secret123"
				})).Return(&models.User{
					UID:      "user-uid-123",
					Username: "ann",
					Email:    "a@x.com",
				}, nil).Once()
				j.On("GenerateToken", "user-uid-123").Return("tok", nil).Once()
				c.On("Set", "user:user-uid-123", mock.Anything, mock.Anything).Return(nil).Once()
				e.On("Publish", services.EventRegistered, mock.Anything).Return(nil).Once()
			},
			wantUID:   "user-uid-123",
			wantToken: "tok",
		},
		{
			name: "email already registered",
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *EventsMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "a@x.com").
					Return(&models.User{UID: "other", Email: "a@x.com"}, nil).Once()
			},
			wantErr: services.ErrUserExists,
		},
		{
			name: "storage failure on lookup",
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *EventsMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "a@x.com").
					Return(nil, errors.New("connection refused")).Once()
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			cache := new(CacheMock)
			events := new(EventsMock)
			maker := new(JwtMakerMock)
			tt.setupMocks(repo, cache, events, maker)

			svc := newService(repo, cache, events, maker)
			uid, token, err := svc.Register(context.Background(), "ann", "a@x.com", "secret123")

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, uid)
				assert.Equal(t, tt.wantToken, token)
			}
			repo.AssertExpectations(t)
			maker.AssertExpectations(t)
		})
	}
}

// В кеш при регистрации попадает запись из базы, включая назначенные ею
// отметки времени, а не собранная из входных данных.
func TestUserService_Register_CachesStoredRecord(t *testing.T) {
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stored := &models.User{
		UID:          "user-uid-123",
		Username:     "ann",
		Email:        "a@x.com",
		PasswordHash: "hash",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	repo := new(UserRepoMock)
	cache := new(CacheMock)
	events := new(EventsMock)
	maker := new(JwtMakerMock)

	repo.On("GetUserByEmail", mock.Anything, "a@x.com").
		Return(nil, repository.ErrUserNotFound).Once()
	repo.On("CreateUser", mock.Anything, mock.Anything).Return(stored, nil).Once()
	maker.On("GenerateToken", "user-uid-123").Return("tok", nil).Once()
	cache.On("Set", "user:user-uid-123", mock.MatchedBy(func(u *models.User) bool {
		return u.UID == "user-uid-123" &&
			u.CreatedAt.Equal(createdAt) && u.UpdatedAt.Equal(createdAt)
	}), mock.Anything).Return(nil).Once()
	events.On("Publish", services.EventRegistered, mock.Anything).Return(nil).Once()

	svc := newService(repo, cache, events, maker)
	uid, _, err := svc.Register(context.Background(), "ann", "a@x.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "user-uid-123", uid)
	cache.AssertExpectations(t)
}

func TestUserService_Authenticate(t *testing.T) {
	hash := mustHash(t, "secret123")
	stored := &models.User{
		UID:          "user-uid-123",
		Username:     "ann",
		Email:        "a@x.com",
		PasswordHash: hash,
	}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock)
		wantErr    error
	}{
		{
			name:     "valid credentials",
			email:    "a@x.com",
			password: "secret123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "a@x.com").Return(stored, nil).Once()
			},
		},
		{
			name:     "wrong password",
			email:    "a@x.com",
			password: "wrongpass",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "a@x.com").Return(stored, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "nonexistent email",
			email:    "nobody@x.com",
			password: "secret123",
			setupMocks: func(r *UserRepoMock) {
				r.On("GetUserByEmail", mock.Anything, "nobody@x.com").
					Return(nil, repository.ErrUserNotFound).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			tt.setupMocks(repo)
			svc := newService(repo, new(CacheMock), new(EventsMock), new(JwtMakerMock))

			user, err := svc.Authenticate(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, stored, user)
			}
			repo.AssertExpectations(t)
		})
	}
}

// Неверный пароль и несуществующий email дают неразличимую ошибку.
func TestUserService_Authenticate_IndistinguishableFailures(t *testing.T) {
	hash := mustHash(t, "secret123")

	repo := new(UserRepoMock)
	repo.On("GetUserByEmail", mock.Anything, "a@x.com").
		Return(&models.User{UID: "u1", Email: "a@x.com", PasswordHash: hash}, nil).Once()
	repo.On("GetUserByEmail", mock.Anything, "missing@x.com").
		Return(nil, repository.ErrUserNotFound).Once()

	svc := newService(repo, new(CacheMock), new(EventsMock), new(JwtMakerMock))

	_, errWrongPass := svc.Authenticate(context.Background(), "a@x.com", "badpass")
	_, errNoUser := svc.Authenticate(context.Background(), "missing@x.com", "secret123")

	require.Error(t, errWrongPass)
	require.Error(t, errNoUser)
	assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
}

func TestUserService_Get(t *testing.T) {
	stored := &models.User{UID: "user-uid-123", Username: "ann", Email: "a@x.com"}

	t.Run("cache miss falls back to repository", func(t *testing.T) {
		repo := new(UserRepoMock)
		cache := new(CacheMock)
		cache.On("Get", "user:user-uid-123", mock.Anything).Return(false, nil).Once()
		repo.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
		cache.On("Set", "user:user-uid-123", stored, mock.Anything).Return(nil).Once()

		svc := newService(repo, cache, new(EventsMock), new(JwtMakerMock))
		user, err := svc.Get(context.Background(), "user-uid-123")

		require.NoError(t, err)
		assert.Equal(t, stored, user)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(UserRepoMock)
		cache := new(CacheMock)
		cache.On("Get", "user:missing", mock.Anything).Return(false, nil).Once()
		repo.On("GetUserByUID", mock.Anything, "missing").
			Return(nil, repository.ErrUserNotFound).Once()

		svc := newService(repo, cache, new(EventsMock), new(JwtMakerMock))
		user, err := svc.Get(context.Background(), "missing")

		require.ErrorIs(t, err, services.ErrUserNotFound)
		assert.Nil(t, user)
	})
}

func TestUserService_Update(t *testing.T) {
	currentHash := mustHash(t, "oldpassword")
	stored := &models.User{
		UID:          "user-uid-123",
		Username:     "ann",
		Email:        "a@x.com",
		PasswordHash: currentHash,
	}

	tests := []struct {
		name       string
		callerUID  string
		req        services.UpdateRequest
		setupMocks func(r *UserRepoMock, c *CacheMock, j *JwtMakerMock)
		wantErr    error
		wantToken  string
	}{
		{
			name:      "rename user",
			callerUID: "user-uid-123",
			req:       services.UpdateRequest{Username: "annette"},
			setupMocks: func(r *UserRepoMock, c *CacheMock, _ *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
				r.On("UpdateUser", mock.Anything, "user-uid-123",
					mock.MatchedBy(func(u models.UserUpdate) bool {
						return u.Username != nil && *u.Username == "annette" &&
							u.Email == nil && u.PasswordHash == nil
					})).Return(&models.User{UID: "user-uid-123", Username: "annette", Email: "a@x.com"}, nil).Once()
				c.On("Invalidate", "user:user-uid-123").Return(nil).Once()
			},
		},
		{
			name:      "email change issues refreshed token",
			callerUID: "user-uid-123",
			req:       services.UpdateRequest{Email: "new@x.com"},
			setupMocks: func(r *UserRepoMock, c *CacheMock, j *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
				r.On("EmailTaken", mock.Anything, "new@x.com", "user-uid-123").Return(false, nil).Once()
				r.On("UpdateUser", mock.Anything, "user-uid-123", mock.Anything).
					Return(&models.User{UID: "user-uid-123", Username: "ann", Email: "new@x.com"}, nil).Once()
				c.On("Invalidate", "user:user-uid-123").Return(nil).Once()
				j.On("GenerateRefreshedToken", "user-uid-123").Return("fresh-tok", nil).Once()
			},
			wantToken: "fresh-tok",
		},
		{
			name:      "not the owner",
			callerUID: "someone-else",
			req:       services.UpdateRequest{Username: "annette"},
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
			},
			wantErr: services.ErrNotOwner,
		},
		{
			name:      "user not found",
			callerUID: "user-uid-123",
			req:       services.UpdateRequest{Username: "annette"},
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").
					Return(nil, repository.ErrUserNotFound).Once()
			},
			wantErr: services.ErrUserNotFound,
		},
		{
			name:      "username too short",
			callerUID: "user-uid-123",
			req:       services.UpdateRequest{Username: "an"},
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
			},
			wantErr: services.ErrUsernameTooShort,
		},
		{
			name:      "invalid email format",
			callerUID: "user-uid-123",
			req:       services.UpdateRequest{Email: "not-an-email"},
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
			},
			wantErr: services.ErrInvalidEmail,
		},
		{
			name:      "email taken by another user",
			callerUID: "user-uid-123",
			req:       services.UpdateRequest{Email: "taken@x.com"},
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
				r.On("EmailTaken", mock.Anything, "taken@x.com", "user-uid-123").Return(true, nil).Once()
			},
			wantErr: services.ErrEmailTaken,
		},
		{
			name:      "password change without current password",
			callerUID: "user-uid-123",
			req:       services.UpdateRequest{Password: "newpassword1"},
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
			},
			wantErr: services.ErrCurrentPasswordRequired,
		},
		{
			name:      "password change with wrong current password",
			callerUID: "user-uid-123",
			req:       services.UpdateRequest{Password: "newpassword1", CurrentPassword: "nottheone"},
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
			},
			wantErr: services.ErrWrongPassword,
		},
		{
			name:      "new password too short",
			callerUID: "user-uid-123",
			req:       services.UpdateRequest{Password: "short", CurrentPassword: "oldpassword"},
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
			},
			wantErr: services.ErrPasswordTooShort,
		},
		{
			name:      "no effective changes",
			callerUID: "user-uid-123",
			req:       services.UpdateRequest{Username: "ann", Email: "a@x.com"},
			setupMocks: func(r *UserRepoMock, _ *CacheMock, _ *JwtMakerMock) {
				r.On("GetUserByUID", mock.Anything, "user-uid-123").Return(stored, nil).Once()
			},
			wantErr: services.ErrNoUpdates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			cache := new(CacheMock)
			maker := new(JwtMakerMock)
			tt.setupMocks(repo, cache, maker)

			svc := newService(repo, cache, new(EventsMock), maker)
			updated, token, err := svc.Update(context.Background(), tt.callerUID, "user-uid-123", tt.req)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, updated)
			} else {
				require.NoError(t, err)
				require.NotNil(t, updated)
				assert.Equal(t, tt.wantToken, token)
			}
			repo.AssertExpectations(t)
			maker.AssertExpectations(t)
		})
	}
}

func TestUserService_Delete(t *testing.T) {
	stored := &models.User{UID: "user-uid-123", Username: "ann", Email: "a@x.com"}

	t.Run("success", func(t *testing.T) {
		repo := new(UserRepoMock)
		cache := new(CacheMock)
		events := new(EventsMock)
		repo.On("GetUserByEmail", mock.Anything, "a@x.com").Return(stored, nil).Once()
		repo.On("DeleteUserByEmail", mock.Anything, "a@x.com").Return(int64(1), nil).Once()
		cache.On("Invalidate", "user:user-uid-123").Return(nil).Once()
		events.On("Publish", services.EventDeleted, mock.Anything).Return(nil).Once()

		svc := newService(repo, cache, events, new(JwtMakerMock))
		err := svc.Delete(context.Background(), "a@x.com")

		require.NoError(t, err)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByEmail", mock.Anything, "missing@x.com").
			Return(nil, repository.ErrUserNotFound).Once()

		svc := newService(repo, new(CacheMock), new(EventsMock), new(JwtMakerMock))
		err := svc.Delete(context.Background(), "missing@x.com")

		require.ErrorIs(t, err, services.ErrUserNotFound)
	})

	t.Run("publish failure does not fail the operation", func(t *testing.T) {
		repo := new(UserRepoMock)
		cache := new(CacheMock)
		events := new(EventsMock)
		repo.On("GetUserByEmail", mock.Anything, "a@x.com").Return(stored, nil).Once()
		repo.On("DeleteUserByEmail", mock.Anything, "a@x.com").Return(int64(1), nil).Once()
		cache.On("Invalidate", "user:user-uid-123").Return(nil).Once()
		events.On("Publish", services.EventDeleted, mock.Anything).
			Return(errors.New("broker unavailable")).Once()

		svc := newService(repo, cache, events, new(JwtMakerMock))
		err := svc.Delete(context.Background(), "a@x.com")

		require.NoError(t, err)
	})
}
