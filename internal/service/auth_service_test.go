package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type mockAuditRepo struct {
	logs []*models.AuditLog
	err  error
}

func (m *mockAuditRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockAuditRepo) actions() []string {
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

type mockAuthRepo struct {
	userByEmail         *models.User
	userByID            *models.User
	created             []*models.User
	findByEmailErr      error
	findByIDErr         error
	refreshTokens       map[string]*models.RefreshToken
	refreshTokenErr     error
	createRefreshErr    error
	revokeRefreshErr    error
	revokeUserTokensErr error
	updatePasswordErr   error
	lastLoginUpdated    bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if m.userByID != nil {
		return m.userByID, nil
	}
	if m.userByEmail != nil {
		return m.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	m.created = append(m.created, user)
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	if m.userByEmail != nil && m.userByEmail.ID == id {
		m.userByEmail.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return m.revokeUserTokensErr
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.createRefreshErr != nil {
		return m.createRefreshErr
	}
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if m.refreshTokenErr != nil {
		return nil, m.refreshTokenErr
	}
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	if m.revokeRefreshErr != nil {
		return m.revokeRefreshErr
	}
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func newTestAuthService(repo *mockAuthRepo, audit *mockAuditRepo) *AuthService {
	return NewAuthService(repo, audit, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: time.Hour * 24,
		Issuer:             "lms-api",
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "user@example.com", PasswordHash: string(password), Active: true, Role: models.RoleAdmin}}
	audit := &mockAuditRepo{}
	svc := newTestAuthService(repo, audit)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.True(t, repo.lastLoginUpdated)
	assert.NotEmpty(t, repo.refreshTokens)
	assert.Equal(t, []string{models.AuditActionLogin}, audit.actions())
}

func TestAuthServiceLoginInactive(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "user@example.com", PasswordHash: string(password), Active: false}}
	svc := newTestAuthService(repo, &mockAuditRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", PasswordHash: string(password), Active: true}}
	svc := newTestAuthService(repo, &mockAuditRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceRegister(t *testing.T) {
	repo := &mockAuthRepo{}
	audit := &mockAuditRepo{}
	svc := newTestAuthService(repo, audit)

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "New@Example.com",
		FullName: "New Instructor",
		Password: "secret123",
		Role:     models.RoleInstructor,
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "new@example.com", repo.created[0].Email)
	assert.True(t, repo.created[0].Active)
	assert.Equal(t, models.RoleInstructor, res.User.Role)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, []string{models.AuditActionRegister}, audit.actions())
}

func TestAuthServiceRegisterRejectsAdminRole(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{}, &mockAuditRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "a@example.com", FullName: "A", Password: "secret123", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "a@example.com"}}
	svc := newTestAuthService(repo, &mockAuditRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "a@example.com", FullName: "A", Password: "secret123", Role: models.RoleStudent})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, repo.created)
}

func TestAuthServiceRefreshToken(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: make(map[string]*models.RefreshToken)}
	user := &models.User{ID: "u1", Email: "user@example.com", PasswordHash: "hash", Active: true, Role: models.RoleAdmin}
	repo.userByEmail = user
	repo.userByID = user
	token := &models.RefreshToken{ID: "rt1", UserID: user.ID, Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	repo.refreshTokens[token.Token] = token

	svc := newTestAuthService(repo, &mockAuditRepo{})

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["token"].Revoked)
}

func TestAuthServiceRefreshTokenExpired(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		"old": {ID: "rt1", UserID: "u1", Token: "old", ExpiresAt: time.Now().Add(-time.Minute)},
	}}
	svc := newTestAuthService(repo, &mockAuditRepo{})

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceLogout(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		"tok": {ID: "rt1", UserID: "u1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	audit := &mockAuditRepo{}
	svc := newTestAuthService(repo, audit)

	err := svc.Logout(context.Background(), "tok", "u2", models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Logout(context.Background(), "tok", "u1", models.RequestMeta{IP: "10.0.0.1"}))
	assert.True(t, repo.refreshTokens["tok"].Revoked)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "10.0.0.1", audit.logs[0].IPAddress)
}

func TestAuthServiceChangePassword(t *testing.T) {
	oldHash, _ := bcrypt.GenerateFromPassword([]byte("old"), bcrypt.MinCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", PasswordHash: string(oldHash), Active: true}}
	svc := newTestAuthService(repo, &mockAuditRepo{})

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "old", NewPassword: "newpassword"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, string(oldHash), repo.userByEmail.PasswordHash)
}

func TestAuthServiceAuditFailureIsNotFatal(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", PasswordHash: string(password), Active: true}}
	svc := newTestAuthService(repo, &mockAuditRepo{err: errors.New("db down")})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	assert.NoError(t, err)
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{}, &mockAuditRepo{})
	user := &models.User{ID: "u1", Email: "user@example.com", Role: models.RoleInstructor}
	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleInstructor, claims.Role)

	_, err = svc.ValidateToken(token + "x")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
