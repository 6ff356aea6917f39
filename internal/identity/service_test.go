package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/identity"
	"golang.org/x/crypto/bcrypt"
)

type MockIdentityRepository struct {
	mock.Mock
}

func (m *MockIdentityRepository) Create(ctx context.Context, u *identity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockIdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockIdentityRepository) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockIdentityRepository) List(ctx context.Context) ([]identity.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockIdentityRepository) Update(ctx context.Context, u *identity.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockIdentityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockIdentityRepository) TouchSignIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockIdentityRepository) CreateSession(ctx context.Context, token, accountID uuid.UUID, expiresAt time.Time) error {
	return m.Called(ctx, token, accountID, expiresAt).Error(0)
}

func (m *MockIdentityRepository) GetSessionUser(ctx context.Context, token uuid.UUID, now time.Time) (*identity.User, error) {
	args := m.Called(ctx, token, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockIdentityRepository) DeleteSessions(ctx context.Context, accountID uuid.UUID) error {
	return m.Called(ctx, accountID).Error(0)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestProvider_SignIn(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	accountID := uuid.Must(uuid.NewV4())
	hash := mustHash(t, "secret-pass")

	tests := []struct {
		name     string
		email    string
		password string
		setup    func(m *MockIdentityRepository)
		wantKind apperr.Kind
	}{
		{
			name:     "missing_password",
			email:    "ops@example.com",
			wantKind: apperr.KindValidation,
		},
		{
			name:     "unknown_email",
			email:    "ghost@example.com",
			password: "secret-pass",
			setup: func(m *MockIdentityRepository) {
				m.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, identity.ErrNotFound).Once()
			},
			wantKind: apperr.KindUnauthorized,
		},
		{
			name:     "wrong_password",
			email:    "ops@example.com",
			password: "nope",
			setup: func(m *MockIdentityRepository) {
				m.On("GetByEmail", mock.Anything, "ops@example.com").
					Return(&identity.User{ID: accountID, PasswordHash: hash, Role: identity.RoleOperation}, nil).Once()
			},
			wantKind: apperr.KindUnauthorized,
		},
		{
			name:     "disabled_account",
			email:    "ops@example.com",
			password: "secret-pass",
			setup: func(m *MockIdentityRepository) {
				m.On("GetByEmail", mock.Anything, "ops@example.com").
					Return(&identity.User{ID: accountID, PasswordHash: hash, Disabled: true}, nil).Once()
			},
			wantKind: apperr.KindUnauthorized,
		},
		{
			name:     "store_failure",
			email:    "ops@example.com",
			password: "secret-pass",
			setup: func(m *MockIdentityRepository) {
				m.On("GetByEmail", mock.Anything, "ops@example.com").Return(nil, errors.New("connection refused")).Once()
			},
			wantKind: apperr.KindInternal,
		},
		{
			name:     "success",
			email:    "ops@example.com",
			password: "secret-pass",
			setup: func(m *MockIdentityRepository) {
				m.On("GetByEmail", mock.Anything, "ops@example.com").
					Return(&identity.User{ID: accountID, PasswordHash: hash, Role: identity.RoleOperation}, nil).Once()
				m.On("CreateSession", mock.Anything, mock.AnythingOfType("uuid.UUID"), accountID, now.Add(time.Hour)).Return(nil).Once()
				m.On("TouchSignIn", mock.Anything, accountID, now).Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockIdentityRepository)
			if tt.setup != nil {
				tt.setup(mockRepo)
			}
			provider := identity.NewService(mockRepo, time.Hour)
			identity.SetClock(provider, func() time.Time { return now })

			session, err := provider.SignIn(context.Background(), tt.email, tt.password)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, session.AccessToken)
				assert.Equal(t, "bearer", session.TokenType)
				assert.Equal(t, 3600, session.ExpiresIn)
				assert.Equal(t, now.Add(time.Hour), session.ExpiresAt)
				require.NotNil(t, session.User.LastSignInAt)
				assert.Equal(t, now, *session.User.LastSignInAt)
			}
			mockRepo.AssertNotCalled(t, "DeleteSessions", mock.Anything, mock.Anything)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProvider_GetUser(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	token := uuid.Must(uuid.NewV4())
	user := &identity.User{ID: uuid.Must(uuid.NewV4()), Role: identity.RoleAdmin}

	t.Run("malformed_token", func(t *testing.T) {
		mockRepo := new(MockIdentityRepository)
		_, err := identity.NewService(mockRepo, time.Hour).GetUser(context.Background(), "not-a-token")
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
		mockRepo.AssertNotCalled(t, "GetSessionUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired_session", func(t *testing.T) {
		mockRepo := new(MockIdentityRepository)
		mockRepo.On("GetSessionUser", mock.Anything, token, now).Return(nil, identity.ErrSessionExpired).Once()
		provider := identity.NewService(mockRepo, time.Hour)
		identity.SetClock(provider, func() time.Time { return now })

		_, err := provider.GetUser(context.Background(), token.String())
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	})

	t.Run("valid_session", func(t *testing.T) {
		mockRepo := new(MockIdentityRepository)
		mockRepo.On("GetSessionUser", mock.Anything, token, now).Return(user, nil).Once()
		provider := identity.NewService(mockRepo, time.Hour)
		identity.SetClock(provider, func() time.Time { return now })

		got, err := provider.GetUser(context.Background(), " "+token.String()+" ")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})
}

func TestProvider_Refresh(t *testing.T) {
	provider := identity.NewService(new(MockIdentityRepository), time.Hour)

	_, err := provider.Refresh(context.Background(), "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = provider.Refresh(context.Background(), "rt-123")
	assert.Equal(t, apperr.KindNotImplemented, apperr.KindOf(err))
	assert.Equal(t, 501, apperr.HTTPStatus(apperr.KindOf(err)))
}

func TestProvider_CreateUser(t *testing.T) {
	t.Run("hashes_password_and_normalizes_email", func(t *testing.T) {
		mockRepo := new(MockIdentityRepository)
		var stored *identity.User
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*identity.User) }).
			Return(nil).Once()

		created, err := identity.NewService(mockRepo, time.Hour).CreateUser(context.Background(), identity.CreateUserInput{
			Email:    "  Driver@Example.com ",
			Password: "plain-text",
			Role:     identity.RoleDriver,
		})
		require.NoError(t, err)
		assert.Equal(t, "driver@example.com", created.Email)
		assert.Equal(t, identity.RoleDriver, created.Role)
		require.NotNil(t, stored)
		assert.NotEqual(t, "plain-text", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("plain-text")))
	})

	t.Run("defaults_role_to_user", func(t *testing.T) {
		mockRepo := new(MockIdentityRepository)
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil).Once()

		created, err := identity.NewService(mockRepo, time.Hour).CreateUser(context.Background(), identity.CreateUserInput{
			Email:    "a@example.com",
			Password: "x",
		})
		require.NoError(t, err)
		assert.Equal(t, identity.RoleUser, created.Role)
	})

	invalid := []struct {
		name  string
		input identity.CreateUserInput
	}{
		{name: "empty_password", input: identity.CreateUserInput{Email: "a@example.com"}},
		{name: "empty_email", input: identity.CreateUserInput{Password: "x"}},
		{name: "unknown_role", input: identity.CreateUserInput{Email: "a@example.com", Password: "x", Role: "superuser"}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := new(MockIdentityRepository)
			_, err := identity.NewService(mockRepo, time.Hour).CreateUser(context.Background(), tc.input)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("duplicate_email", func(t *testing.T) {
		mockRepo := new(MockIdentityRepository)
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(identity.ErrEmailExists).Once()

		_, err := identity.NewService(mockRepo, time.Hour).CreateUser(context.Background(), identity.CreateUserInput{
			Email:    "taken@example.com",
			Password: "x",
		})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestProvider_UpsertUser_UpdatesExistingAccount(t *testing.T) {
	existing := &identity.User{ID: uuid.Must(uuid.NewV4()), Email: "root@example.com", Role: identity.RoleUser}

	mockRepo := new(MockIdentityRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(identity.ErrEmailExists).Once()
	mockRepo.On("GetByEmail", mock.Anything, "root@example.com").Return(existing, nil).Once()
	mockRepo.On("GetByID", mock.Anything, existing.ID).Return(existing, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *identity.User) bool {
		return u.ID == existing.ID && u.Role == identity.RoleAdmin
	})).Return(nil).Once()

	user, created, err := identity.NewService(mockRepo, time.Hour).UpsertUser(context.Background(), identity.CreateUserInput{
		Email:    "root@example.com",
		Password: "new-pass",
		Role:     identity.RoleAdmin,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, identity.RoleAdmin, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-pass")))
	mockRepo.AssertExpectations(t)
}

func TestProvider_UpdateUser(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	t.Run("not_found", func(t *testing.T) {
		mockRepo := new(MockIdentityRepository)
		mockRepo.On("GetByID", mock.Anything, id).Return(nil, identity.ErrNotFound).Once()

		_, err := identity.NewService(mockRepo, time.Hour).UpdateUser(context.Background(), id, identity.UpdateUserInput{})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("disabling_drops_sessions", func(t *testing.T) {
		mockRepo := new(MockIdentityRepository)
		mockRepo.On("GetByID", mock.Anything, id).Return(&identity.User{ID: id, Role: identity.RoleDriver}, nil).Once()
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil).Once()
		mockRepo.On("DeleteSessions", mock.Anything, id).Return(nil).Once()

		disabled := true
		user, err := identity.NewService(mockRepo, time.Hour).UpdateUser(context.Background(), id, identity.UpdateUserInput{Disabled: &disabled})
		require.NoError(t, err)
		assert.True(t, user.Disabled)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects_unknown_role", func(t *testing.T) {
		mockRepo := new(MockIdentityRepository)
		mockRepo.On("GetByID", mock.Anything, id).Return(&identity.User{ID: id, Role: identity.RoleDriver}, nil).Once()

		role := identity.Role("root")
		_, err := identity.NewService(mockRepo, time.Hour).UpdateUser(context.Background(), id, identity.UpdateUserInput{Role: &role})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestProvider_DeleteUser(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	mockRepo := new(MockIdentityRepository)
	mockRepo.On("Delete", mock.Anything, id).Return(identity.ErrNotFound).Once()
	err := identity.NewService(mockRepo, time.Hour).DeleteUser(context.Background(), id)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	mockRepo = new(MockIdentityRepository)
	mockRepo.On("Delete", mock.Anything, id).Return(nil).Once()
	assert.NoError(t, identity.NewService(mockRepo, time.Hour).DeleteUser(context.Background(), id))
}
