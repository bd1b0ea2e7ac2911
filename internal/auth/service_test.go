package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadlane/threadlane-backend/internal/users"
	pkgauth "github.com/threadlane/threadlane-backend/pkg/auth"
	"github.com/threadlane/threadlane-backend/pkg/auth/session"
	"github.com/threadlane/threadlane-backend/pkg/config"
	"github.com/threadlane/threadlane-backend/pkg/db/models"
	pkgerrors "github.com/threadlane/threadlane-backend/pkg/errors"
	"github.com/threadlane/threadlane-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "threadlane-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

type stubUserStore struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
	logins  map[uuid.UUID]time.Time
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
		logins:  map[uuid.UUID]time.Time{},
	}
}

func (s *stubUserStore) add(user *models.User) {
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
}

func (s *stubUserStore) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if _, exists := s.byEmail[dto.Email]; exists {
		return nil, errors.New(`duplicate key value violates unique constraint "idx_users_email"`)
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.add(user)
	return user, nil
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.logins[id] = at
	return nil
}

type stubSessions struct {
	refreshByID map[string]string
	revoked     []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{refreshByID: map[string]string{}}
}

func (s *stubSessions) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.refreshByID[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.refreshByID[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.refreshByID, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	s.refreshByID[newID] = token
	return newID, token, nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	delete(s.refreshByID, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubCartMerger struct {
	merged map[string]uuid.UUID
	err    error
}

func newStubCartMerger() *stubCartMerger {
	return &stubCartMerger{merged: map[string]uuid.UUID{}}
}

func (s *stubCartMerger) MergeIntoUser(_ context.Context, sessionToken string, userID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.merged[sessionToken] = userID
	return nil
}

type authFixture struct {
	service  Service
	users    *stubUserStore
	sessions *stubSessions
	carts    *stubCartMerger
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	fx := &authFixture{
		users:    newStubUserStore(),
		sessions: newStubSessions(),
		carts:    newStubCartMerger(),
	}
	svc, err := NewService(ServiceParams{
		Users:    fx.users,
		Sessions: fx.sessions,
		Carts:    fx.carts,
		JWT:      testJWTConfig(),
		Password: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	fx.service = svc
	return fx
}

func (fx *authFixture) seedUser(t *testing.T, email, password string, active bool) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Asha",
		LastName:     "Rao",
		IsActive:     active,
	}
	fx.users.add(user)
	return user
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	if err == nil {
		t.Fatal("expected an error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected a typed error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, typed.Code(), err)
	}
}

func TestRegisterCreatesAccountAndSignsIn(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	token := "sess-" + uuid.NewString()

	resp, err := fx.service.Register(context.Background(), RegisterRequest{
		Email:     "  Asha@Example.com ",
		Password:  "correct horse battery",
		FirstName: "Asha",
		LastName:  "Rao",
	}, &token)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "asha@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.User.Email)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected an access/refresh pair")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Fatalf("token user %s does not match %s", claims.UserID, resp.User.ID)
	}
	if got := fx.carts.merged[token]; got != resp.User.ID {
		t.Fatalf("expected session cart merged into %s, got %s", resp.User.ID, got)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	fx.seedUser(t, "asha@example.com", "whatever123", true)

	_, err := fx.service.Register(context.Background(), RegisterRequest{
		Email:     "asha@example.com",
		Password:  "correct horse battery",
		FirstName: "Asha",
		LastName:  "Rao",
	}, nil)
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestLoginVerifiesCredentials(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	user := fx.seedUser(t, "asha@example.com", "correct horse battery", true)

	resp, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "ASHA@example.com",
		Password: "correct horse battery",
	}, nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, resp.User.ID)
	}
	if _, ok := fx.users.logins[user.ID]; !ok {
		t.Fatal("expected last login to be recorded")
	}
	if resp.User.LastLoginAt == nil {
		t.Fatal("expected last login on the response")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	fx.seedUser(t, "asha@example.com", "correct horse battery", true)

	cases := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "asha@example.com", Password: "incorrect"}},
		{"unknown email", LoginRequest{Email: "none@example.com", Password: "correct horse battery"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.service.Login(context.Background(), tc.req, nil)
			assertCode(t, err, pkgerrors.CodeUnauthorized)
			typed := pkgerrors.As(err)
			if !strings.Contains(typed.Error(), invalidCredentialsMessage) {
				t.Fatalf("expected the generic credentials message, got %v", err)
			}
		})
	}
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	fx.seedUser(t, "asha@example.com", "correct horse battery", false)

	_, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "asha@example.com",
		Password: "correct horse battery",
	}, nil)
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginMergesSessionCart(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	user := fx.seedUser(t, "asha@example.com", "correct horse battery", true)
	token := "sess-" + uuid.NewString()

	_, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "asha@example.com",
		Password: "correct horse battery",
	}, &token)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := fx.carts.merged[token]; got != user.ID {
		t.Fatalf("expected cart merged into %s, got %s", user.ID, got)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	user := fx.seedUser(t, "asha@example.com", "correct horse battery", true)

	resp, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "asha@example.com",
		Password: "correct horse battery",
	}, nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := fx.service.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == resp.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), rotated.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, claims.UserID)
	}

	// The old refresh token is single-use.
	_, err = fx.service.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	user := fx.seedUser(t, "asha@example.com", "correct horse battery", true)

	accessID := session.NewAccessID()
	expired, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now().Add(-2*time.Hour), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint expired token: %v", err)
	}
	refresh, err := fx.sessions.Generate(context.Background(), accessID)
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	rotated, err := fx.service.Refresh(context.Background(), RefreshRequest{
		AccessToken:  expired,
		RefreshToken: refresh,
	})
	if err != nil {
		t.Fatalf("refresh with expired access token: %v", err)
	}
	if rotated.AccessToken == "" {
		t.Fatal("expected a fresh access token")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	fx.seedUser(t, "asha@example.com", "correct horse battery", true)

	resp, err := fx.service.Login(context.Background(), LoginRequest{
		Email:    "asha@example.com",
		Password: "correct horse battery",
	}, nil)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := fx.service.Logout(context.Background(), resp.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(fx.sessions.revoked) != 1 {
		t.Fatalf("expected one revoked session, got %d", len(fx.sessions.revoked))
	}

	_, err = fx.service.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}
