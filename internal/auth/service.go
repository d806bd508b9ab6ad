package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/users"
	pkgauth "github.com/koor-works/koor-backend/pkg/auth"
	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/email"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/security"
)

// RateLimiter is the slice of the redis client the auth flows consume.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ServiceParams groups dependencies for the auth service.
type ServiceParams struct {
	UserRepo    *users.Repository
	SessionRepo *SessionRepository
	JWT         config.JWTConfig
	Password    config.PasswordConfig
	OTP         config.OTPConfig
	RateLimit   config.AuthRateLimitConfig
	Limiter     RateLimiter
	Email       email.Sender
	Logger      *logger.Logger
	Now         func() time.Time
}

// RegisterParams carries a signup request. Exactly one of Email and
// MobileNumber may be empty.
type RegisterParams struct {
	Email        string
	MobileNumber string
	CountryCode  string
	Password     string
	Role         enums.Role
	Name         string
	IPAddress    string
}

// LoginParams carries a credential check. Identifier is an email or a
// mobile number; Role, when set, must match the account's role.
type LoginParams struct {
	Identifier string
	Password   string
	Role       enums.Role
	IPAddress  string
	UserAgent  string
}

// TokenPair is the minted credential set returned on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	SessionID    uuid.UUID
	User         *models.User
}

// Service exposes registration, login, sessions, OTP and password flows.
type Service interface {
	Register(ctx context.Context, params RegisterParams) (*models.User, error)
	Login(ctx context.Context, params LoginParams) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	ValidateAccess(ctx context.Context, token string) (*pkgauth.TokenClaims, *models.User, error)
	SendOTP(ctx context.Context, identifier string) error
	VerifyOTP(ctx context.Context, identifier, otp string) error
	ResetPassword(ctx context.Context, identifier, otp, newPassword string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}

type service struct {
	userRepo    *users.Repository
	sessionRepo *SessionRepository
	jwt         config.JWTConfig
	password    config.PasswordConfig
	otp         config.OTPConfig
	rateLimit   config.AuthRateLimitConfig
	limiter     RateLimiter
	email       email.Sender
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the auth service with the required dependencies. Limiter
// and Email may be nil in tests; the related checks are skipped.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.SessionRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session repo is required")
	}
	if params.JWT.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jwt secret is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		userRepo:    params.UserRepo,
		sessionRepo: params.SessionRepo,
		jwt:         params.JWT,
		password:    params.Password,
		otp:         params.OTP,
		rateLimit:   params.RateLimit,
		limiter:     params.Limiter,
		email:       params.Email,
		logg:        params.Logger,
		now:         now,
	}, nil
}

func (s *service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	emailAddr := users.NormalizeEmail(params.Email)
	mobile := strings.TrimSpace(params.MobileNumber)
	if emailAddr == "" && mobile == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email or mobile number is required").WithField("email")
	}
	if params.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required").WithField("password")
	}
	if !params.Role.IsValid() || params.Role == enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role").WithField("role")
	}

	if err := s.allow(ctx, "register:"+params.IPAddress, int64(s.rateLimit.RegisterLimit), s.rateLimit.RegisterWindow); err != nil {
		return nil, err
	}

	if emailAddr != "" {
		if _, err := s.userRepo.FindByEmail(ctx, emailAddr); err == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists").WithField("email")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
		}
	}
	if mobile != "" {
		if _, err := s.userRepo.FindByMobile(ctx, mobile); err == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this mobile number already exists").WithField("mobile_number")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check mobile number")
		}
	}

	hash, err := security.HashPassword(params.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		PasswordHash: hash,
		Role:         params.Role,
		Source:       enums.AccountSourceApp,
		Name:         strings.TrimSpace(params.Name),
	}
	if emailAddr != "" {
		user.Email = &emailAddr
	}
	if mobile != "" {
		user.MobileNumber = &mobile
		if cc := strings.TrimSpace(params.CountryCode); cc != "" {
			user.CountryCode = &cc
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	ctx = s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(ctx, "user registered")

	if user.Email != nil {
		if err := s.issueOTP(ctx, user); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "sending verification otp failed")
		}
	}
	return user, nil
}

func (s *service) Login(ctx context.Context, params LoginParams) (*TokenPair, error) {
	identifier := strings.TrimSpace(params.Identifier)
	if identifier == "" || params.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier and password are required")
	}

	if err := s.allow(ctx, "login:id:"+strings.ToLower(identifier), int64(s.rateLimit.LoginIdentityLimit), s.rateLimit.LoginWindow); err != nil {
		return nil, err
	}
	if params.IPAddress != "" {
		if err := s.allow(ctx, "login:ip:"+params.IPAddress, int64(s.rateLimit.LoginIPLimit), s.rateLimit.LoginWindow); err != nil {
			return nil, err
		}
	}

	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if params.Role.IsValid() && user.Role != params.Role {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}

	ok, err := security.VerifyPassword(params.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	return s.openSession(ctx, user, params.IPAddress, params.UserAgent)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := pkgauth.ParseToken(s.jwt, refreshToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token")
	}
	if claims.TokenType != pkgauth.TokenTypeRefresh {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token required")
	}

	session, err := s.activeSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "user no longer exists")
	}

	access, err := pkgauth.MintToken(s.jwt, s.now(), pkgauth.TokenTypeAccess, pkgauth.TokenPayload{
		UserID:    user.ID,
		SessionID: session.ID,
		Role:      user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: refreshToken, SessionID: session.ID, User: user}, nil
}

func (s *service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if sessionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.sessionRepo.Expire(ctx, sessionID, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire session")
	}
	return nil
}

func (s *service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.sessionRepo.ExpireAllForUser(ctx, userID, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire sessions")
	}
	return nil
}

// ValidateAccess parses the access token and re-checks the session row, so a
// revoked session fails immediately even with an unexpired JWT.
func (s *service) ValidateAccess(ctx context.Context, token string) (*pkgauth.TokenClaims, *models.User, error) {
	claims, err := pkgauth.ParseToken(s.jwt, token)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	if claims.TokenType != pkgauth.TokenTypeAccess {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "access token required")
	}

	if _, err := s.activeSession(ctx, claims.SessionID); err != nil {
		return nil, nil, err
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "user no longer exists")
	}
	if !user.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
	}
	return claims, user, nil
}

func (s *service) SendOTP(ctx context.Context, identifier string) error {
	if err := s.allow(ctx, "otp:"+strings.ToLower(strings.TrimSpace(identifier)), int64(s.otp.RequestLimit), s.otp.RequestWindow); err != nil {
		return err
	}
	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	return s.issueOTP(ctx, user)
}

func (s *service) VerifyOTP(ctx context.Context, identifier, otp string) error {
	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	if err := s.checkOTP(user, otp); err != nil {
		return err
	}

	user.OTP = nil
	user.OTPCreatedAt = nil
	user.IsVerified = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark verified")
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, identifier, otp, newPassword string) error {
	if newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "password is required").WithField("password")
	}
	user, err := s.findByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	if err := s.checkOTP(user, otp); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = hash
	user.OTP = nil
	user.OTPCreatedAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}

	// Every open session dies with the old credential.
	return s.LogoutAll(ctx, user.ID)
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "password is required").WithField("new_password")
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
	}

	ok, err := security.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil || !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect").WithField("old_password")
	}

	hash, err := security.HashPassword(newPassword, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}
	return s.LogoutAll(ctx, user.ID)
}

func (s *service) openSession(ctx context.Context, user *models.User, ip, userAgent string) (*TokenPair, error) {
	now := s.now()
	expireAt := now.Add(s.jwt.RefreshTokenTTL())
	session := &models.UserSession{
		UserID:    user.ID,
		IPAddress: ip,
		UserAgent: userAgent,
		ExpireAt:  &expireAt,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	payload := pkgauth.TokenPayload{UserID: user.ID, SessionID: session.ID, Role: user.Role}
	access, err := pkgauth.MintToken(s.jwt, now, pkgauth.TokenTypeAccess, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := pkgauth.MintToken(s.jwt, now, pkgauth.TokenTypeRefresh, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint refresh token")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "session opened")
	return &TokenPair{AccessToken: access, RefreshToken: refresh, SessionID: session.ID, User: user}, nil
}

func (s *service) activeSession(ctx context.Context, id uuid.UUID) (*models.UserSession, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session is no longer valid")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if !session.Active(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session is no longer valid")
	}
	return session, nil
}

func (s *service) findByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier is required")
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.FindByEmail(ctx, identifier)
	} else {
		user, err = s.userRepo.FindByMobile(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return user, nil
}

func (s *service) issueOTP(ctx context.Context, user *models.User) error {
	code, err := security.GenerateOTP()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	now := s.now()
	user.OTP = &code
	user.OTPCreatedAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}

	if s.email != nil && user.Email != nil {
		msg := email.Message{
			To:      *user.Email,
			Subject: "Your verification code",
			HTML:    fmt.Sprintf("<p>Your one-time code is <strong>%s</strong>. It expires in %d minutes.</p>", code, int(s.otp.FreshnessWindow.Minutes())),
		}
		if err := s.email.Send(ctx, msg); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send otp email")
		}
	}
	return nil
}

func (s *service) checkOTP(user *models.User, otp string) error {
	if user.OTP == nil || user.OTPCreatedAt == nil || *user.OTP != strings.TrimSpace(otp) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid code").WithField("otp")
	}
	if s.now().Sub(*user.OTPCreatedAt) > s.otp.FreshnessWindow {
		return pkgerrors.New(pkgerrors.CodeValidation, "code has expired").WithField("otp")
	}
	return nil
}

func (s *service) allow(ctx context.Context, scope string, limit int64, window time.Duration) error {
	if s.limiter == nil || limit <= 0 || window <= 0 {
		return nil
	}
	ok, _, err := s.limiter.FixedWindowAllow(ctx, scope, limit, window)
	if err != nil {
		// Redis trouble should not lock everyone out.
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "rate limiter unavailable")
		return nil
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	}
	return nil
}
