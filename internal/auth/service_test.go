package auth

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/email"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
)

type fakeEmailSender struct {
	sent []email.Message
}

func (f *fakeEmailSender) Send(_ context.Context, msg email.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.JobSeekerProfile{}, &models.UserSession{}, &models.Media{}))
	return db
}

func newTestAuthService(t *testing.T) (Service, *fakeEmailSender, *testClock, *SessionRepository) {
	t.Helper()
	db := setupAuthTestDB(t)
	sender := &fakeEmailSender{}
	clock := &testClock{now: time.Now().Truncate(time.Second)}
	sessionRepo := NewSessionRepository(db)

	svc, err := NewService(ServiceParams{
		UserRepo:    users.NewRepository(db),
		SessionRepo: sessionRepo,
		JWT: config.JWTConfig{
			Secret:                 "test-secret",
			Issuer:                 "koor-test",
			AccessTokenTTLMinutes:  60,
			RefreshTokenTTLMinutes: 43200,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		OTP:    config.OTPConfig{FreshnessWindow: 5 * time.Minute, RequestWindow: time.Minute, RequestLimit: 3},
		Email:  sender,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:    clock.Now,
	})
	require.NoError(t, err)
	return svc, sender, clock, sessionRepo
}

func registerSeeker(t *testing.T, svc Service, emailAddr string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterParams{
		Email:    emailAddr,
		Password: "secret-password",
		Role:     enums.RoleJobSeeker,
		Name:     "Test Seeker",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterRequiresIdentifier(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), RegisterParams{
		Password: "secret-password",
		Role:     enums.RoleJobSeeker,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	registerSeeker(t, svc, "dup@example.com")

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "DUP@example.com",
		Password: "another-password",
		Role:     enums.RoleEmployer,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestRegisterSendsVerificationOTP(t *testing.T) {
	svc, sender, _, _ := newTestAuthService(t)
	registerSeeker(t, svc, "otp@example.com")

	require.Len(t, sender.sent, 1)
	require.Equal(t, "otp@example.com", sender.sent[0].To)
}

func TestLoginAndValidateAccess(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	user := registerSeeker(t, svc, "login@example.com")

	pair, err := svc.Login(context.Background(), LoginParams{
		Identifier: "login@example.com",
		Password:   "secret-password",
		Role:       enums.RoleJobSeeker,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, got, err := svc.ValidateAccess(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, pair.SessionID, claims.SessionID)
}

func TestLoginWrongRoleIsForbidden(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	registerSeeker(t, svc, "role@example.com")

	_, err := svc.Login(context.Background(), LoginParams{
		Identifier: "role@example.com",
		Password:   "secret-password",
		Role:       enums.RoleEmployer,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	require.Equal(t, pkgerrors.PermissionDeniedMessage, typed.Message())
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	registerSeeker(t, svc, "pw@example.com")

	_, err := svc.Login(context.Background(), LoginParams{
		Identifier: "pw@example.com",
		Password:   "not-the-password",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestLogoutRevokesAccessImmediately(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	registerSeeker(t, svc, "logout@example.com")

	pair, err := svc.Login(context.Background(), LoginParams{
		Identifier: "logout@example.com",
		Password:   "secret-password",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.SessionID))

	_, _, err = svc.ValidateAccess(context.Background(), pair.AccessToken)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestRefreshMintsNewAccessToken(t *testing.T) {
	svc, _, clock, _ := newTestAuthService(t)
	registerSeeker(t, svc, "refresh@example.com")

	pair, err := svc.Login(context.Background(), LoginParams{
		Identifier: "refresh@example.com",
		Password:   "secret-password",
	})
	require.NoError(t, err)

	clock.now = clock.now.Add(30 * time.Minute)
	refreshed, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Equal(t, pair.SessionID, refreshed.SessionID)

	_, _, err = svc.ValidateAccess(context.Background(), refreshed.AccessToken)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	registerSeeker(t, svc, "wrongkind@example.com")

	pair, err := svc.Login(context.Background(), LoginParams{
		Identifier: "wrongkind@example.com",
		Password:   "secret-password",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), pair.AccessToken)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestVerifyOTPMarksVerified(t *testing.T) {
	svc, sender, _, _ := newTestAuthService(t)
	registerSeeker(t, svc, "verify@example.com")
	require.Len(t, sender.sent, 1)

	code := extractCode(sender.sent[0].HTML)
	require.Len(t, code, 4)

	require.NoError(t, svc.VerifyOTP(context.Background(), "verify@example.com", code))

	pair, err := svc.Login(context.Background(), LoginParams{
		Identifier: "verify@example.com",
		Password:   "secret-password",
	})
	require.NoError(t, err)
	require.True(t, pair.User.IsVerified)
}

func TestVerifyOTPExpired(t *testing.T) {
	svc, sender, clock, _ := newTestAuthService(t)
	registerSeeker(t, svc, "stale@example.com")
	code := extractCode(sender.sent[0].HTML)

	clock.now = clock.now.Add(6 * time.Minute)
	err := svc.VerifyOTP(context.Background(), "stale@example.com", code)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestResetPasswordEndsAllSessions(t *testing.T) {
	svc, sender, _, _ := newTestAuthService(t)
	registerSeeker(t, svc, "reset@example.com")

	pair, err := svc.Login(context.Background(), LoginParams{
		Identifier: "reset@example.com",
		Password:   "secret-password",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SendOTP(context.Background(), "reset@example.com"))
	code := extractCode(sender.sent[len(sender.sent)-1].HTML)

	require.NoError(t, svc.ResetPassword(context.Background(), "reset@example.com", code, "brand-new-password"))

	_, _, err = svc.ValidateAccess(context.Background(), pair.AccessToken)
	require.Error(t, err)

	_, err = svc.Login(context.Background(), LoginParams{
		Identifier: "reset@example.com",
		Password:   "brand-new-password",
	})
	require.NoError(t, err)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	user := registerSeeker(t, svc, "change@example.com")

	err := svc.ChangePassword(context.Background(), user.ID, "wrong-password", "next-password")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, "secret-password", "next-password"))
	_, err = svc.Login(context.Background(), LoginParams{
		Identifier: "change@example.com",
		Password:   "next-password",
	})
	require.NoError(t, err)
}

// extractCode pulls the 4-digit code from the OTP email body.
func extractCode(html string) string {
	start := strings.Index(html, "<strong>")
	end := strings.Index(html, "</strong>")
	if start < 0 || end < 0 {
		return ""
	}
	return html[start+len("<strong>") : end]
}
