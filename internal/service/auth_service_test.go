package service

import (
	"context"
	"errors"
	"html"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicepay/internal/auth"
	"invoicepay/internal/config"
	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/model"
	"invoicepay/internal/repository/memory"
	"invoicepay/internal/security"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
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

func (m *MockUserRepository) AddToRole(ctx context.Context, user *model.User, roleName string) error {
	args := m.Called(ctx, user, roleName)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockRoleRepository is a mock implementation of RoleRepository.
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) EnsureRole(ctx context.Context, name string) (*model.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

// recordingSender captures outbound mail.
type recordingSender struct {
	err  error
	sent []sentMail
}

type sentMail struct {
	To, Subject, Body string
}

func (r *recordingSender) Send(ctx context.Context, recipient, subject, htmlBody string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMail{To: recipient, Subject: subject, Body: htmlBody})
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func testJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret: "test-secret", Issuer: "invoicepay-test", Audience: "invoicepay-api", TTL: time.Hour,
	})
}

type authFixture struct {
	svc    AuthService
	users  *memory.UserRepository
	mailer *recordingSender
	clock  *fakeClock
	tokens *auth.JWTService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:  memory.NewUserRepository(),
		mailer: &recordingSender{},
		clock:  &fakeClock{now: time.Now()},
	}
	f.tokens = testJWT().WithClock(f.clock.Now)
	f.svc = NewAuthService(AuthDependencies{
		Users:   f.users,
		Roles:   f.users,
		Hasher:  security.NewBcryptHasher(4),
		Lockout: security.DefaultLockoutPolicy(),
		Tokens:  f.tokens,
		Mailer:  f.mailer,
		Now:     f.clock.Now,
	})
	return f
}

var linkPattern = regexp.MustCompile(`href="([^"]+)"`)

func (f *authFixture) lastLink(t *testing.T) *url.URL {
	t.Helper()
	require.NotEmpty(t, f.mailer.sent)
	m := linkPattern.FindStringSubmatch(f.mailer.sent[len(f.mailer.sent)-1].Body)
	require.Len(t, m, 2)
	u, err := url.Parse(html.UnescapeString(m[1]))
	require.NoError(t, err)
	return u
}

func (f *authFixture) registerConfirmed(t *testing.T, email, password string) *model.User {
	t.Helper()
	ctx := context.Background()
	user, err := f.svc.Register(ctx, RegisterInput{Name: "Test User", Email: email, Password: password})
	require.NoError(t, err)
	require.NoError(t, f.svc.RequestVerification(ctx, email, "http://localhost"))
	link := f.lastLink(t)
	require.NoError(t, f.svc.ConfirmEmail(ctx, email, link.Query().Get("token")))
	return user
}

var errRoleStoreDown = errors.New("role store down")

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name           string
		input          RegisterInput
		setupMock      func(*MockUserRepository, *MockRoleRepository)
		expectedError  error
		wantValidation bool
	}{
		{
			name:  "successful registration",
			input: RegisterInput{Name: "Test User", Email: "test@example.com", Password: "Aa123456"},
			setupMock: func(m *MockUserRepository, r *MockRoleRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, apperrors.ErrUserNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				r.On("EnsureRole", mock.Anything, model.RoleCustomer).Return(&model.Role{ID: 1, Name: model.RoleCustomer}, nil)
				m.On("AddToRole", mock.Anything, mock.AnythingOfType("*model.User"), model.RoleCustomer).Return(nil)
			},
		},
		{
			name:  "email already registered",
			input: RegisterInput{Name: "Existing", Email: "existing@example.com", Password: "Aa123456"},
			setupMock: func(m *MockUserRepository, r *MockRoleRepository) {
				m.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: apperrors.ErrEmailAlreadyRegistered,
		},
		{
			name:  "lost race on unique index",
			input: RegisterInput{Name: "Racer", Email: "race@example.com", Password: "Aa123456"},
			setupMock: func(m *MockUserRepository, r *MockRoleRepository) {
				m.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, apperrors.ErrUserNotFound)
				r.On("EnsureRole", mock.Anything, model.RoleCustomer).Return(&model.Role{ID: 1, Name: model.RoleCustomer}, nil)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(apperrors.ErrEmailAlreadyRegistered)
			},
			expectedError: apperrors.ErrEmailAlreadyRegistered,
		},
		{
			name:  "role store unavailable creates no user",
			input: RegisterInput{Name: "Early", Email: "early@example.com", Password: "Aa123456"},
			setupMock: func(m *MockUserRepository, r *MockRoleRepository) {
				m.On("FindByEmail", mock.Anything, "early@example.com").Return(nil, apperrors.ErrUserNotFound)
				r.On("EnsureRole", mock.Anything, model.RoleCustomer).Return(nil, errRoleStoreDown)
			},
			expectedError: errRoleStoreDown,
		},
		{
			name:           "weak password",
			input:          RegisterInput{Name: "Weak", Email: "weak@example.com", Password: "password"},
			setupMock:      func(m *MockUserRepository, r *MockRoleRepository) {},
			wantValidation: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockRoles := new(MockRoleRepository)
			tt.setupMock(mockRepo, mockRoles)

			svc := NewAuthService(AuthDependencies{
				Users:  mockRepo,
				Roles:  mockRoles,
				Hasher: security.NewBcryptHasher(4),
				Tokens: testJWT(),
				Mailer: &recordingSender{},
			})
			user, err := svc.Register(context.Background(), tt.input)

			switch {
			case tt.wantValidation:
				var validation *apperrors.ValidationError
				require.True(t, errors.As(err, &validation))
				assert.Equal(t, "User registration failed", validation.Message)
				assert.NotEmpty(t, validation.Details)
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				assert.NotEmpty(t, user.SecurityStamp)
				assert.False(t, user.EmailConfirmed)
			}

			mockRepo.AssertExpectations(t)
			mockRoles.AssertExpectations(t)
			if errors.Is(tt.expectedError, errRoleStoreDown) {
				mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAuthService_Register_DuplicateLeavesSingleRecord(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "Aa123456"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, RegisterInput{Name: "B", Email: "A@X.com", Password: "Aa123456"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyRegistered)

	users, err := f.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "unknown email",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, apperrors.ErrUserNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name: "unconfirmed email",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: uuid.New(), Email: "a@x.com"}, nil)
			},
			expectedError: apperrors.ErrEmailNotVerified,
		},
		{
			name: "locked out beats unconfirmed",
			setupMock: func(m *MockUserRepository) {
				end := time.Now().Add(time.Minute)
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: uuid.New(), Email: "a@x.com", LockoutEnd: &end}, nil)
			},
			expectedError: apperrors.ErrAccountLocked,
		},
		{
			name: "store failure",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("connection reset"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := NewAuthService(AuthDependencies{
				Users:  mockRepo,
				Hasher: security.NewBcryptHasher(4),
				Tokens: testJWT(),
			})
			result, err := svc.Login(context.Background(), "a@x.com", "Aa123456")

			require.Error(t, err)
			assert.Nil(t, result)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginIssuesToken(t *testing.T) {
	f := newAuthFixture(t)
	user := f.registerConfirmed(t, "a@x.com", "Aa123456")

	result, err := f.svc.Login(context.Background(), "A@x.com", "Aa123456")
	require.NoError(t, err)

	claims, err := f.tokens.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, model.RoleCustomer, claims.Role)
	assert.Equal(t, result.User.SecurityStamp, claims.Stamp)
}

func TestAuthService_Lockout(t *testing.T) {
	f := newAuthFixture(t)
	f.registerConfirmed(t, "a@x.com", "Aa123456")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Login(ctx, "a@x.com", "wrong-password")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "attempt %d", i+1)
	}

	_, err := f.svc.Login(ctx, "a@x.com", "Aa123456")
	assert.ErrorIs(t, err, apperrors.ErrAccountLocked)

	f.clock.now = f.clock.now.Add(14 * time.Minute)
	_, err = f.svc.Login(ctx, "a@x.com", "Aa123456")
	assert.ErrorIs(t, err, apperrors.ErrAccountLocked)

	f.clock.now = f.clock.now.Add(2 * time.Minute)
	result, err := f.svc.Login(ctx, "a@x.com", "Aa123456")
	require.NoError(t, err)
	assert.Equal(t, 0, result.User.AccessFailedCount)
	assert.Nil(t, result.User.LockoutEnd)
}

func TestAuthService_SuccessResetsFailureCounter(t *testing.T) {
	f := newAuthFixture(t)
	f.registerConfirmed(t, "a@x.com", "Aa123456")
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := f.svc.Login(ctx, "a@x.com", "nope")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}
	_, err := f.svc.Login(ctx, "a@x.com", "Aa123456")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := f.svc.Login(ctx, "a@x.com", "nope")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	}
	_, err = f.svc.Login(ctx, "a@x.com", "Aa123456")
	assert.NoError(t, err)
}

func TestAuthService_RequestVerification(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@x.com", Password: "Aa123456"})
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestVerification(ctx, "a@x.com", "https://api.example.com"))

	require.Len(t, f.mailer.sent, 1)
	sent := f.mailer.sent[0]
	assert.Equal(t, "a@x.com", sent.To)
	assert.Equal(t, "Verify Your Email", sent.Subject)
	assert.Contains(t, sent.Body, "valid for 12 hours")

	link := f.lastLink(t)
	assert.Equal(t, "https", link.Scheme)
	assert.Equal(t, "api.example.com", link.Host)
	assert.Equal(t, "/api/auth/confirm-email", link.Path)
	assert.Equal(t, "a@x.com", link.Query().Get("email"))
	assert.NotEmpty(t, link.Query().Get("token"))

	assert.ErrorIs(t, f.svc.RequestVerification(ctx, "nobody@x.com", "https://api.example.com"), apperrors.ErrUserNotFound)
}

func TestAuthService_RequestVerification_DeliveryFailure(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@x.com", Password: "Aa123456"})
	require.NoError(t, err)

	f.mailer.err = errors.New("smtp: 421 service not available")
	err = f.svc.RequestVerification(ctx, "a@x.com", "http://localhost")

	assert.ErrorIs(t, err, apperrors.ErrEmailDelivery)
}

func TestAuthService_ConfirmEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@x.com", Password: "Aa123456"})
	require.NoError(t, err)
	require.NoError(t, f.svc.RequestVerification(ctx, "a@x.com", "http://localhost"))
	token := f.lastLink(t).Query().Get("token")

	assert.ErrorIs(t, f.svc.ConfirmEmail(ctx, "a@x.com", "tampered"+token), apperrors.ErrInvalidVerificationToken)
	assert.ErrorIs(t, f.svc.ConfirmEmail(ctx, "nobody@x.com", token), apperrors.ErrUserNotFound)

	require.NoError(t, f.svc.ConfirmEmail(ctx, "a@x.com", token))
	assert.ErrorIs(t, f.svc.ConfirmEmail(ctx, "a@x.com", token), apperrors.ErrEmailAlreadyVerified)
	assert.ErrorIs(t, f.svc.RequestVerification(ctx, "a@x.com", "http://localhost"), apperrors.ErrEmailAlreadyVerified)
}

func TestAuthService_ConfirmEmail_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterInput{Name: "Ada", Email: "a@x.com", Password: "Aa123456"})
	require.NoError(t, err)
	require.NoError(t, f.svc.RequestVerification(ctx, "a@x.com", "http://localhost"))
	token := f.lastLink(t).Query().Get("token")

	f.clock.now = f.clock.now.Add(12*time.Hour + time.Minute)

	assert.ErrorIs(t, f.svc.ConfirmEmail(ctx, "a@x.com", token), apperrors.ErrInvalidVerificationToken)
	user, err := f.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, user.EmailConfirmed)
}

func TestAuthService_Profile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	unconfirmed, err := f.svc.Register(ctx, RegisterInput{Name: "U", Email: "u@x.com", Password: "Aa123456"})
	require.NoError(t, err)
	_, err = f.svc.Profile(ctx, unconfirmed.ID)
	assert.ErrorIs(t, err, apperrors.ErrEmailNotVerified)

	confirmed := f.registerConfirmed(t, "c@x.com", "Aa123456")
	profile, err := f.svc.Profile(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", profile.Email)

	_, err = f.svc.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestBuildConfirmationLink(t *testing.T) {
	link := BuildConfirmationLink("https://api.example.com", "a+b@x.com", "tok/en=")
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "a+b@x.com", u.Query().Get("email"))
	assert.Equal(t, "tok/en=", u.Query().Get("token"))
}
