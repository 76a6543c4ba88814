package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
)

type mockUserRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []models.AuditLog
	revokedIDs    []string
	created       []*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:         make(map[string]*models.User),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "usr-new"
	m.users[user.Email] = user
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (m *mockUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revokedIDs = append(m.revokedIDs, id)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

func hashSecret(t *testing.T, secret string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthFixture(t *testing.T, users *mockUserRepo, children *mockChildReader) *AuthService {
	t.Helper()
	if children == nil {
		children = &mockChildReader{}
	}
	return NewAuthService(users, children, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "famquest-test",
	})
}

func TestLoginSuccess(t *testing.T) {
	users := newMockUserRepo()
	users.users["parent@example.com"] = &models.User{
		ID:           "usr-1",
		Email:        "parent@example.com",
		PasswordHash: hashSecret(t, "password123"),
		FullName:     "Parent One",
		Role:         models.RoleParent,
		Active:       true,
	}
	svc := newAuthFixture(t, users, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "parent@example.com",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleParent, resp.User.Role)
	assert.Len(t, users.refreshTokens, 1)
	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, users.auditLogs[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "usr-1", claims.UserID)
	assert.Equal(t, models.RoleParent, claims.Role)
}

func TestLoginInvalidPassword(t *testing.T) {
	users := newMockUserRepo()
	users.users["parent@example.com"] = &models.User{
		ID:           "usr-1",
		Email:        "parent@example.com",
		PasswordHash: hashSecret(t, "password123"),
		Role:         models.RoleParent,
		Active:       true,
	}
	svc := newAuthFixture(t, users, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "parent@example.com",
		Password: "wrong-password",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.refreshTokens)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc := newAuthFixture(t, newMockUserRepo(), nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	users := newMockUserRepo()
	users.users["parent@example.com"] = &models.User{
		ID:           "usr-1",
		Email:        "parent@example.com",
		PasswordHash: hashSecret(t, "password123"),
		Role:         models.RoleParent,
		Active:       false,
	}
	svc := newAuthFixture(t, users, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "parent@example.com",
		Password: "password123",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newMockUserRepo()
	users.users["parent@example.com"] = &models.User{ID: "usr-1", Email: "parent@example.com"}
	svc := newAuthFixture(t, users, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "parent@example.com",
		Password: "password123",
		FullName: "Parent Two",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.created)
}

func TestChildLoginSuccess(t *testing.T) {
	const childID = "2c3584ce-9d17-4e0e-8bbe-2ff21a0df05c"
	users := newMockUserRepo()
	children := &mockChildReader{children: map[string]models.Child{
		childID: {
			ID:       childID,
			ParentID: "usr-1",
			Name:     "Emma",
			PINHash:  hashSecret(t, "1234"),
			Active:   true,
		},
	}}
	svc := newAuthFixture(t, users, children)

	resp, err := svc.ChildLogin(context.Background(), models.ChildLoginRequest{
		ChildID: childID,
		PIN:     "1234",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	// Child sessions are access-token only.
	assert.Empty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleChild, resp.User.Role)
	assert.Equal(t, childID, resp.User.ChildID)
	assert.Equal(t, "usr-1", resp.User.ID)
	require.Len(t, users.auditLogs, 1)
	assert.Equal(t, models.AuditActionChildLogin, users.auditLogs[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleChild, claims.Role)
	assert.Equal(t, childID, claims.ChildID)
	assert.Equal(t, "usr-1", claims.ParentID)
	assert.Equal(t, "usr-1", claims.UserID)
}

func TestChildLoginWrongPIN(t *testing.T) {
	const childID = "2c3584ce-9d17-4e0e-8bbe-2ff21a0df05c"
	children := &mockChildReader{children: map[string]models.Child{
		childID: {ID: childID, ParentID: "usr-1", PINHash: hashSecret(t, "1234")},
	}}
	svc := newAuthFixture(t, newMockUserRepo(), children)

	_, err := svc.ChildLogin(context.Background(), models.ChildLoginRequest{
		ChildID: childID,
		PIN:     "9999",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidPIN.Code, appErrors.FromError(err).Code)
}

func TestChildLoginUnknownProfileSameError(t *testing.T) {
	svc := newAuthFixture(t, newMockUserRepo(), &mockChildReader{})

	_, err := svc.ChildLogin(context.Background(), models.ChildLoginRequest{
		ChildID: "2c3584ce-9d17-4e0e-8bbe-2ff21a0df05c",
		PIN:     "1234",
	})

	require.Error(t, err)
	// Unknown profile and wrong PIN are indistinguishable to the caller.
	assert.Equal(t, appErrors.ErrInvalidPIN.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	users := newMockUserRepo()
	users.users["parent@example.com"] = &models.User{
		ID:     "usr-1",
		Email:  "parent@example.com",
		Role:   models.RoleParent,
		Active: true,
	}
	users.refreshTokens["old-token"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "usr-1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := newAuthFixture(t, users, nil)

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Contains(t, users.revokedIDs, "rt-1")
}

func TestRefreshTokenExpired(t *testing.T) {
	users := newMockUserRepo()
	users.refreshTokens["old-token"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "usr-1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	svc := newAuthFixture(t, users, nil)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutForeignTokenRejected(t *testing.T) {
	users := newMockUserRepo()
	users.refreshTokens["token-a"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "usr-1",
		Token:     "token-a",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := newAuthFixture(t, users, nil)

	err := svc.Logout(context.Background(), "token-a", "usr-2", models.LoginRequest{})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.revokedIDs)
}
