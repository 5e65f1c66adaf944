package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	"github.com/alittlebroken/ecommerce/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByGoogleSubject(ctx context.Context, subject string) (*model.User, error) {
	args := m.Called(ctx, subject)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindAll(ctx context.Context) ([]model.User, error) {
	panic("not used in auth tests")
}

func (m *UserRepoMock) Update(ctx context.Context, userID int64, upd repository.UserUpdate) error {
	panic("not used in auth tests")
}

func (m *UserRepoMock) TouchLastLogin(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepoMock) Delete(ctx context.Context, userID int64) error {
	panic("not used in auth tests")
}

type HasherMock struct{ mock.Mock }

func (m *HasherMock) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

type VerifierMock struct{ mock.Mock }

func (m *VerifierMock) Verify(hash string, plain string) bool {
	args := m.Called(hash, plain)
	return args.Bool(0)
}

type IssuerMock struct{ mock.Mock }

func (m *IssuerMock) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	args := m.Called(userID, role, now)
	exp, _ := args.Get(1).(time.Time)
	return args.String(0), exp, args.Error(2)
}

type VerifierExternalMock struct{ mock.Mock }

func (m *VerifierExternalMock) Verify(ctx context.Context, idToken string) (ExternalIdentity, error) {
	args := m.Called(ctx, idToken)
	id, _ := args.Get(0).(ExternalIdentity)
	return id, args.Error(1)
}

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// =====================
// Register
// =====================

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(UserRepoMock)
	hasher := new(HasherMock)
	uc := NewRegisterUserUsecase(repo, hasher, &testClock{t: testNow})

	repo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, repository.ErrUserNotFound)
	hasher.On("Hash", "password123").Return("hashed", nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "new@example.com" &&
			u.PasswordHash == "hashed" &&
			u.Role == model.RoleCustomer &&
			u.IsEnabled
	})).Return(nil)

	out, err := uc.Execute(ctx, RegisterUserInput{
		Email:    "new@example.com",
		Password: "password123",
		Forename: "Ada",
		Surname:  "Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, out.User.Role)
	//平文パスワードは保持しない
	assert.Equal(t, "hashed", out.User.PasswordHash)
	repo.AssertExpectations(t)
}

func TestRegister_InvalidEmail(t *testing.T) {
	uc := NewRegisterUserUsecase(new(UserRepoMock), new(HasherMock), &testClock{t: testNow})

	_, err := uc.Execute(context.Background(), RegisterUserInput{Email: "not-an-email", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)
}

func TestRegister_ShortPassword(t *testing.T) {
	uc := NewRegisterUserUsecase(new(UserRepoMock), new(HasherMock), &testClock{t: testNow})

	_, err := uc.Execute(context.Background(), RegisterUserInput{Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := new(UserRepoMock)
	uc := NewRegisterUserUsecase(repo, new(HasherMock), &testClock{t: testNow})

	repo.On("FindByEmail", mock.Anything, "taken@example.com").
		Return(&model.User{ID: 1, Email: "taken@example.com"}, nil)

	_, err := uc.Execute(ctx, RegisterUserInput{Email: "taken@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestRegister_DuplicateEmailRace(t *testing.T) {
	ctx := context.Background()
	repo := new(UserRepoMock)
	hasher := new(HasherMock)
	uc := NewRegisterUserUsecase(repo, hasher, &testClock{t: testNow})

	//事前チェックの時点では未登録だが、INSERTで先を越されている
	repo.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, repository.ErrUserNotFound)
	hasher.On("Hash", "password123").Return("hashed", nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateEmail)

	_, err := uc.Execute(ctx, RegisterUserInput{Email: "race@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

// =====================
// Login
// =====================

func enabledUser() *model.User {
	return &model.User{
		ID:           1,
		Email:        "a@example.com",
		PasswordHash: "hashed",
		Role:         model.RoleCustomer,
		IsEnabled:    true,
	}
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	repo := new(UserRepoMock)
	verifier := new(VerifierMock)
	issuer := new(IssuerMock)
	uc := NewLoginUsecase(repo, verifier, issuer, &testClock{t: testNow})

	repo.On("FindByEmail", mock.Anything, "a@example.com").Return(enabledUser(), nil)
	verifier.On("Verify", "hashed", "password123").Return(true)
	issuer.On("Issue", int64(1), model.RoleCustomer, testNow).
		Return("token123", testNow.Add(15*time.Minute), nil)
	repo.On("TouchLastLogin", mock.Anything, int64(1)).Return(nil)

	out, err := uc.Execute(ctx, LoginInput{Email: "a@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "token123", out.AccessToken)
	assert.Equal(t, testNow.Add(15*time.Minute), out.ExpiresAt)
	repo.AssertExpectations(t)
}

func TestLogin_UnknownEmailAndBadPasswordLookAlike(t *testing.T) {
	ctx := context.Background()

	//存在しないemail
	repo := new(UserRepoMock)
	repo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrUserNotFound)
	uc := NewLoginUsecase(repo, new(VerifierMock), new(IssuerMock), &testClock{t: testNow})
	_, errUnknown := uc.Execute(ctx, LoginInput{Email: "nobody@example.com", Password: "password123"})

	//パスワード違い
	repo2 := new(UserRepoMock)
	verifier := new(VerifierMock)
	repo2.On("FindByEmail", mock.Anything, "a@example.com").Return(enabledUser(), nil)
	verifier.On("Verify", "hashed", "wrongpass").Return(false)
	uc2 := NewLoginUsecase(repo2, verifier, new(IssuerMock), &testClock{t: testNow})
	_, errBadPass := uc2.Execute(ctx, LoginInput{Email: "a@example.com", Password: "wrongpass"})

	//どちらも同じエラー（emailの存在を漏らさない）
	assert.ErrorIs(t, errUnknown, ErrUnauthorized)
	assert.ErrorIs(t, errBadPass, ErrUnauthorized)
}

func TestLogin_DisabledAccount(t *testing.T) {
	ctx := context.Background()
	repo := new(UserRepoMock)
	verifier := new(VerifierMock)

	u := enabledUser()
	u.IsEnabled = false
	repo.On("FindByEmail", mock.Anything, "a@example.com").Return(u, nil)
	verifier.On("Verify", "hashed", "password123").Return(true)

	uc := NewLoginUsecase(repo, verifier, new(IssuerMock), &testClock{t: testNow})
	_, err := uc.Execute(ctx, LoginInput{Email: "a@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

// =====================
// Google login
// =====================

func TestGoogleLogin_CreatesAccountForNewSubject(t *testing.T) {
	ctx := context.Background()
	repo := new(UserRepoMock)
	ext := new(VerifierExternalMock)
	issuer := new(IssuerMock)
	uc := NewGoogleLoginUsecase(repo, ext, issuer, &testClock{t: testNow})

	ext.On("Verify", mock.Anything, "idtoken").Return(ExternalIdentity{
		Subject:  "google-sub-1",
		Email:    "g@example.com",
		Forename: "Grace",
		Surname:  "Hopper",
	}, nil)
	repo.On("FindByGoogleSubject", mock.Anything, "google-sub-1").Return(nil, repository.ErrUserNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "g@example.com" &&
			u.GoogleSubject != nil && *u.GoogleSubject == "google-sub-1" &&
			u.Role == model.RoleCustomer
	})).Return(nil)
	issuer.On("Issue", int64(1), model.RoleCustomer, testNow).
		Return("token123", testNow.Add(15*time.Minute), nil)
	repo.On("TouchLastLogin", mock.Anything, int64(1)).Return(nil)

	out, err := uc.Execute(ctx, "idtoken")
	require.NoError(t, err)
	assert.Equal(t, "token123", out.AccessToken)
	repo.AssertExpectations(t)
}

func TestGoogleLogin_InvalidToken(t *testing.T) {
	ctx := context.Background()
	ext := new(VerifierExternalMock)
	ext.On("Verify", mock.Anything, "bad").Return(ExternalIdentity{}, ErrInvalidExternalToken)

	uc := NewGoogleLoginUsecase(new(UserRepoMock), ext, new(IssuerMock), &testClock{t: testNow})
	_, err := uc.Execute(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidExternalToken)
}
