// internal/service/auth/auth.go
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"whispr-service/internal/domain/auth"
	"whispr-service/internal/domain/user"
	"whispr-service/internal/pkg/apierror"
	"whispr-service/internal/pkg/jwt"
	"whispr-service/internal/pkg/otp"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Fixed policy windows. These are deliberately not runtime-configurable.
const (
	maxLoginAttempts  = 5
	restrictionWindow = 30 * time.Minute
	otpTTL            = 5 * time.Minute
	maxOTPRequests    = 5
	resetTokenTTL     = 5 * time.Minute
)

func resetTokenKey(token string) string { return "reset:" + token }

// Service ties account lookup, the lockout/OTP rules and token minting
// together for every authentication surface.
type Service struct {
	users       UserStore
	resetTokens ResetTokenStore
	mail        Mailer
	jwt         *jwt.Manager
	rdb         *redis.Client
	logger      *zap.Logger

	bcryptCost int
	devMode    bool

	now func() time.Time
}

func NewService(
	users UserStore,
	resetTokens ResetTokenStore,
	mail Mailer,
	manager *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
	bcryptCost int,
	devMode bool,
) *Service {
	return &Service{
		users:       users,
		resetTokens: resetTokens,
		mail:        mail,
		jwt:         manager,
		rdb:         rdb,
		logger:      logger,
		bcryptCost:  bcryptCost,
		devMode:     devMode,
		now:         time.Now,
	}
}

// WithClock replaces the service clock. Used by tests to move time.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ========== Registration ==========

func (s *Service) Register(ctx context.Context, req *auth.RegisterRequest) (*auth.AuthResponse, error) {
	if taken, err := s.users.ExistsByEmail(ctx, req.Email); err != nil {
		s.logger.Error("email existence check failed", zap.Error(err))
		return nil, apierror.Internal()
	} else if taken {
		return nil, apierror.Duplicate("An account with this email already exists.")
	}
	if taken, err := s.users.ExistsByUsername(ctx, req.Username); err != nil {
		s.logger.Error("username existence check failed", zap.Error(err))
		return nil, apierror.Internal()
	} else if taken {
		return nil, apierror.Duplicate("This username is already taken.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return nil, apierror.Internal()
	}

	now := s.now()
	code := otp.Generate()
	account := &user.Account{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     nullString(req.Email),
		Phone:     nullString(req.Phone),
		Password:  string(hash),
		Role:      user.RoleUser,
		Status:    user.StatusActive,
		Verified:  false,
		Auth: user.AuthState{
			OneTimeCode:     code,
			ExpiresAt:       nullTime(now.Add(otpTTL)),
			LatestRequestAt: nullTime(now),
			RequestCount:    1,
			AuthType:        user.AuthTypeCreateAccount,
		},
	}
	if err := s.users.Create(ctx, account); err != nil {
		s.logger.Error("account creation failed", zap.String("username", req.Username), zap.Error(err))
		return nil, apierror.Internal()
	}

	s.mail.SendOTP(ctx, req.Email, account.FullName(), code, user.AuthTypeCreateAccount)
	s.logger.Info("account registered",
		zap.Int64("authId", account.ID),
		zap.String("username", account.Username),
	)

	resp := auth.NewAuthResponse(http.StatusCreated, "Account created. Please verify your email to continue.")
	s.echoOTP(resp, code)
	return resp, nil
}

// ========== Login surfaces ==========

// Login authenticates by username or phone. Deleted and never-registered
// accounts answer exactly like a wrong password.
func (s *Service) Login(ctx context.Context, req *auth.LoginRequest) (*auth.AuthResponse, error) {
	var (
		account *user.Account
		err     error
	)
	switch {
	case req.Username != "":
		account, err = s.users.FindByUsername(ctx, req.Username)
	case req.Phone != "":
		account, err = s.users.FindByPhone(ctx, req.Phone)
	default:
		return nil, apierror.BadRequest("Username or phone is required.")
	}
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.InvalidCredentials()
		}
		s.logger.Error("account lookup failed", zap.Error(err))
		return nil, apierror.Internal()
	}

	return s.handleLogin(ctx, account, req.Password, req.DeviceToken)
}

// AdminLogin looks up by email across every lifecycle status and requires
// the admin role before any lockout state is consulted, so a non-admin
// with correct credentials learns nothing about restrictions.
func (s *Service) AdminLogin(ctx context.Context, req *auth.AdminLoginRequest) (*auth.AuthResponse, error) {
	account, err := s.users.FindByEmailAnyStatus(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.InvalidCredentials()
		}
		s.logger.Error("admin lookup failed", zap.Error(err))
		return nil, apierror.Internal()
	}
	if account.Role != user.RoleAdmin {
		return nil, apierror.NotAuthorized("You are not authorized to access this resource.")
	}
	if account.Status == user.StatusDeleted {
		return nil, apierror.InvalidCredentials()
	}

	return s.handleLogin(ctx, account, req.Password, "")
}

// SocialLogin authenticates by the stable provider identifier. There is no
// password surface here, so none of the lockout rules apply.
func (s *Service) SocialLogin(ctx context.Context, req *auth.SocialLoginRequest) (*auth.AuthResponse, error) {
	account, err := s.users.FindByAppID(ctx, req.AppID)
	if err == nil {
		if err := s.users.UpdateDeviceToken(ctx, account.ID, req.DeviceToken); err != nil {
			s.logger.Error("device token update failed", zap.Int64("authId", account.ID), zap.Error(err))
			return nil, apierror.Internal()
		}
		account.DeviceToken = nullString(req.DeviceToken)
		return s.authenticated(account, http.StatusOK, fmt.Sprintf("Welcome back, %s!", account.FullName()))
	}
	if !errors.Is(err, apierror.ErrNotFound) {
		s.logger.Error("social lookup failed", zap.Error(err))
		return nil, apierror.Internal()
	}

	account, err = s.users.CreateSocial(ctx, req.AppID, req.DeviceToken)
	if err != nil {
		if errors.Is(err, apierror.ErrDuplicateEntry) {
			return nil, apierror.Duplicate("An account with this identity already exists.")
		}
		s.logger.Error("social account creation failed", zap.Error(err))
		return nil, apierror.Internal()
	}
	s.logger.Info("social account created", zap.Int64("authId", account.ID))

	return s.authenticated(account, http.StatusCreated, fmt.Sprintf("Welcome, %s!", account.FullName()))
}

// handleLogin applies the lockout and verification rules to a looked-up
// account. Restriction expiry is evaluated here by wall clock; nothing
// sweeps restrictions in the background.
func (s *Service) handleLogin(ctx context.Context, account *user.Account, password, deviceToken string) (*auth.AuthResponse, error) {
	now := s.now()

	if account.Restricted(now) {
		remaining := remainingMinutes(account.Auth.RestrictionLeftAt.Time, now)
		return nil, apierror.AccountRestricted(remaining)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)) != nil {
		until := now.Add(restrictionWindow)
		if err := s.users.RecordFailedLogin(ctx, account.ID, maxLoginAttempts, until); err != nil {
			s.logger.Error("failed login bookkeeping failed", zap.Int64("authId", account.ID), zap.Error(err))
		}
		if account.Auth.WrongLoginAttempts+1 >= maxLoginAttempts {
			s.logger.Warn("account restricted after repeated failures",
				zap.Int64("authId", account.ID),
				zap.Time("until", until),
			)
			return nil, apierror.AccountRestricted(remainingMinutes(until, now))
		}
		return nil, apierror.InvalidCredentials()
	}

	if !account.Verified {
		code := otp.Generate()
		if err := s.users.SetOTP(ctx, account.ID, code, now.Add(otpTTL), user.AuthTypeCreateAccount, 1, false); err != nil {
			s.logger.Error("otp issuance failed", zap.Int64("authId", account.ID), zap.Error(err))
			return nil, apierror.Internal()
		}
		s.mail.SendOTP(ctx, account.Email.String, account.FullName(), code, user.AuthTypeCreateAccount)

		resp := auth.NewAuthResponse(http.StatusProxyAuthRequired, "Please verify your account to continue.")
		s.echoOTP(resp, code)
		return resp, nil
	}

	if err := s.users.RecordSuccessfulLogin(ctx, account.ID, deviceToken); err != nil {
		s.logger.Error("successful login bookkeeping failed", zap.Int64("authId", account.ID), zap.Error(err))
		return nil, apierror.Internal()
	}
	// Admin logins carry no device token; keep whatever is stored.
	if deviceToken != "" {
		account.DeviceToken = nullString(deviceToken)
	}

	return s.authenticated(account, http.StatusOK, fmt.Sprintf("Welcome back, %s!", account.FullName()))
}

// ========== OTP verification and resend ==========

// VerifyAccount checks the submitted code. On an unverified account it
// completes registration and issues tokens; on a verified account it arms
// a password reset and answers with a one-time reset capability instead.
func (s *Service) VerifyAccount(ctx context.Context, req *auth.VerifyAccountRequest) (*auth.AuthResponse, error) {
	account, err := s.users.FindByEmailNotDeleted(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.BadRequest("No account found with this email, please register first.")
		}
		s.logger.Error("account lookup failed", zap.Error(err))
		return nil, apierror.Internal()
	}

	if account.Auth.OneTimeCode == "" || !otp.Equal(req.OneTimeCode, account.Auth.OneTimeCode) {
		return nil, apierror.OtpInvalid()
	}
	if !account.Auth.ExpiresAt.Valid || s.now().After(account.Auth.ExpiresAt.Time) {
		return nil, apierror.OtpExpired()
	}

	if !account.Verified {
		if err := s.users.MarkVerified(ctx, account.ID); err != nil {
			s.logger.Error("verification update failed", zap.Int64("authId", account.ID), zap.Error(err))
			return nil, apierror.Internal()
		}
		account.Verified = true
		s.logger.Info("account verified", zap.Int64("authId", account.ID))
		return s.authenticated(account, http.StatusOK, "Account verified successfully.")
	}

	// Already verified: this verification authorizes a password reset.
	if err := s.users.SetResetPending(ctx, account.ID); err != nil {
		s.logger.Error("reset arming failed", zap.Int64("authId", account.ID), zap.Error(err))
		return nil, apierror.Internal()
	}

	token := &auth.ResetToken{
		UserID:    account.ID,
		Token:     otp.CapabilityToken(),
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.resetTokens.Create(ctx, token); err != nil {
		s.logger.Error("reset token creation failed", zap.Int64("authId", account.ID), zap.Error(err))
		return nil, apierror.Internal()
	}
	if s.rdb != nil {
		// Best effort cache so the reset endpoint can reject unknown tokens
		// without a store round trip.
		if err := s.rdb.Set(ctx, resetTokenKey(token.Token), account.ID, resetTokenTTL).Err(); err != nil {
			s.logger.Warn("reset token cache write failed", zap.Error(err))
		}
	}

	resp := auth.NewAuthResponse(http.StatusOK, "OTP verified. You can now reset your password.")
	resp.Token = token.Token
	return resp, nil
}

// ForgotPassword issues a reset OTP to a known account.
func (s *Service) ForgotPassword(ctx context.Context, req *auth.ForgotPasswordRequest) (*auth.AuthResponse, error) {
	var (
		account *user.Account
		err     error
	)
	switch {
	case req.Email != "":
		account, err = s.users.FindByEmailActive(ctx, req.Email)
	case req.Phone != "":
		account, err = s.users.FindByPhone(ctx, req.Phone)
	default:
		return nil, apierror.BadRequest("Email or phone is required.")
	}
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("We could not find an account with those details.")
		}
		s.logger.Error("account lookup failed", zap.Error(err))
		return nil, apierror.Internal()
	}

	code := otp.Generate()
	if err := s.users.SetOTP(ctx, account.ID, code, s.now().Add(otpTTL), user.AuthTypeResetPassword, 1, true); err != nil {
		s.logger.Error("otp issuance failed", zap.Int64("authId", account.ID), zap.Error(err))
		return nil, apierror.Internal()
	}
	s.mail.SendOTP(ctx, account.Email.String, account.FullName(), code, user.AuthTypeResetPassword)

	resp := auth.NewAuthResponse(http.StatusOK, "An OTP has been sent to your email.")
	s.echoOTP(resp, code)
	return resp, nil
}

// ResendOTP issues a fresh code for the flow already in progress. The
// request counter never decays with time; only verify and reset clear it.
func (s *Service) ResendOTP(ctx context.Context, req *auth.ResendOTPRequest) (*auth.AuthResponse, error) {
	account, err := s.users.FindByEmailNotDeleted(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("We could not find an account with that email.")
		}
		s.logger.Error("account lookup failed", zap.Error(err))
		return nil, apierror.Internal()
	}

	if account.Auth.RequestCount >= maxOTPRequests {
		return nil, apierror.RequestLimitExceeded()
	}

	code := otp.Generate()
	if err := s.users.BumpOTP(ctx, account.ID, code, s.now().Add(otpTTL)); err != nil {
		s.logger.Error("otp reissue failed", zap.Int64("authId", account.ID), zap.Error(err))
		return nil, apierror.Internal()
	}
	s.mail.SendOTP(ctx, account.Email.String, account.FullName(), code, user.AuthType(req.AuthType))

	resp := auth.NewAuthResponse(http.StatusOK, "A new OTP has been sent to your email.")
	s.echoOTP(resp, code)
	return resp, nil
}

// ========== Password lifecycle ==========

// ResetPassword consumes a reset capability and stores the new password.
// The capability is deleted on consumption, so replaying it finds nothing.
func (s *Service) ResetPassword(ctx context.Context, token string, req *auth.ResetPasswordRequest) (*auth.AuthResponse, error) {
	if req.NewPassword != req.ConfirmPassword {
		return nil, apierror.BadRequest("Passwords do not match.")
	}

	// Fast path: a definitive cache miss means the token was never issued
	// (or already consumed), so unknown tokens bounce without touching the
	// store. A cache error falls through to the store instead.
	if s.rdb != nil {
		switch err := s.rdb.Get(ctx, resetTokenKey(token)).Err(); {
		case errors.Is(err, redis.Nil):
			return nil, apierror.New(http.StatusForbidden, apierror.ErrTokenInvalid, "Invalid or expired reset token.")
		case err != nil:
			s.logger.Warn("reset token cache read failed", zap.Error(err))
		}
	}

	t, err := s.resetTokens.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.New(http.StatusForbidden, apierror.ErrTokenInvalid, "Invalid or expired reset token.")
		}
		s.logger.Error("reset token consumption failed", zap.Error(err))
		return nil, apierror.Internal()
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, resetTokenKey(token)).Err(); err != nil {
			s.logger.Warn("reset token cache delete failed", zap.Error(err))
		}
	}
	if t.Expired(s.now()) {
		return nil, apierror.New(http.StatusUnauthorized, apierror.ErrTokenExpired, "Reset token has expired.")
	}

	account, err := s.users.FindByID(ctx, t.UserID)
	if err != nil {
		s.logger.Error("account lookup failed", zap.Int64("authId", t.UserID), zap.Error(err))
		return nil, apierror.Internal()
	}
	if !account.Auth.ResetPassword {
		return nil, apierror.NotAuthorized("No password reset is pending for this account.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return nil, apierror.Internal()
	}
	if err := s.users.ResetPassword(ctx, account.ID, string(hash)); err != nil {
		s.logger.Error("password reset failed", zap.Int64("authId", account.ID), zap.Error(err))
		return nil, apierror.Internal()
	}
	s.mail.SendPasswordChanged(ctx, account.Email.String, account.FullName())
	s.logger.Info("password reset", zap.Int64("authId", account.ID))

	return auth.NewAuthResponse(http.StatusOK, "Password reset successfully."), nil
}

// ChangePassword rotates the password for an authenticated account.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req *auth.ChangePasswordRequest) (*auth.AuthResponse, error) {
	account, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error("account lookup failed", zap.Int64("authId", userID), zap.Error(err))
		return nil, apierror.Internal()
	}
	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.CurrentPassword)) != nil {
		return nil, apierror.InvalidCredentials()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return nil, apierror.Internal()
	}
	if err := s.users.UpdatePassword(ctx, account.ID, string(hash)); err != nil {
		s.logger.Error("password update failed", zap.Int64("authId", account.ID), zap.Error(err))
		return nil, apierror.Internal()
	}
	s.mail.SendPasswordChanged(ctx, account.Email.String, account.FullName())

	return auth.NewAuthResponse(http.StatusOK, "Password changed successfully."), nil
}

// ========== Tokens ==========

// RefreshToken re-mints an access token from a valid refresh token. The
// refresh token itself is never re-issued here.
func (s *Service) RefreshToken(ctx context.Context, req *auth.RefreshTokenRequest) (*auth.AuthResponse, error) {
	claims, err := s.jwt.Verifier.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, err
	}

	access, err := s.jwt.Generator.AccessToken(claims.Identity())
	if err != nil {
		s.logger.Error("access token minting failed", zap.Int64("authId", claims.AuthID), zap.Error(err))
		return nil, apierror.Internal()
	}

	resp := auth.NewAuthResponse(http.StatusOK, "Token refreshed.")
	resp.Role = claims.Role
	resp.AccessToken = access
	return resp, nil
}

// ========== Account lifecycle ==========

// DeleteAccount soft-deletes after a password confirmation. The row stays
// so audits keep their referent; every regular lookup excludes it.
func (s *Service) DeleteAccount(ctx context.Context, userID int64, req *auth.DeleteAccountRequest) (*auth.AuthResponse, error) {
	account, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Error("account lookup failed", zap.Int64("authId", userID), zap.Error(err))
		return nil, apierror.Internal()
	}
	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)) != nil {
		return nil, apierror.InvalidCredentials()
	}

	if err := s.users.SetStatus(ctx, account.ID, user.StatusDeleted); err != nil {
		s.logger.Error("account deletion failed", zap.Int64("authId", account.ID), zap.Error(err))
		return nil, apierror.Internal()
	}
	s.logger.Info("account deleted", zap.Int64("authId", account.ID))

	return auth.NewAuthResponse(http.StatusOK, "Account deleted."), nil
}

// ========== Helpers ==========

// authenticated mints the token pair for a fully authenticated account and
// builds the success envelope.
func (s *Service) authenticated(account *user.Account, status int, message string) (*auth.AuthResponse, error) {
	access, refresh, err := s.jwt.Generator.TokenPair(jwt.Identity{
		AuthID:      account.ID,
		Role:        string(account.Role),
		Name:        account.FullName(),
		Email:       account.Email.String,
		Profile:     account.Profile.String,
		DeviceToken: account.DeviceToken.String,
	})
	if err != nil {
		s.logger.Error("token pair minting failed", zap.Int64("authId", account.ID), zap.Error(err))
		return nil, apierror.Internal()
	}

	resp := auth.NewAuthResponse(status, message)
	resp.Role = string(account.Role)
	resp.AccessToken = access
	resp.RefreshToken = refresh
	return resp, nil
}

// echoOTP appends the code to the response message in development mode so
// flows can be exercised without a mailbox. Gated off in production.
func (s *Service) echoOTP(resp *auth.AuthResponse, code string) {
	if s.devMode {
		resp.Message = fmt.Sprintf("%s [dev otp: %s]", resp.Message, code)
	}
}

func remainingMinutes(until, now time.Time) int {
	d := until.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}
