package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	domauth "whispr-service/internal/domain/auth"
	"whispr-service/internal/domain/user"
	"whispr-service/internal/pkg/apierror"
	"whispr-service/internal/pkg/jwt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

// ========== Stub ports ==========

type stubUserStore struct {
	nextID   int64
	accounts map[int64]*user.Account
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{nextID: 1, accounts: make(map[int64]*user.Account)}
}

func (s *stubUserStore) add(a *user.Account) *user.Account {
	if a.ID == 0 {
		a.ID = s.nextID
		s.nextID++
	}
	s.accounts[a.ID] = a
	return a
}

func (s *stubUserStore) find(match func(*user.Account) bool) (*user.Account, error) {
	for _, a := range s.accounts {
		if match(a) {
			return a, nil
		}
	}
	return nil, apierror.ErrNotFound
}

func loginVisible(a *user.Account) bool {
	return a.Status == user.StatusActive || a.Status == user.StatusRestricted
}

func (s *stubUserStore) FindByUsername(_ context.Context, username string) (*user.Account, error) {
	return s.find(func(a *user.Account) bool {
		return strings.EqualFold(a.Username, username) && loginVisible(a)
	})
}

func (s *stubUserStore) FindByPhone(_ context.Context, phone string) (*user.Account, error) {
	return s.find(func(a *user.Account) bool {
		return a.Phone.String == phone && loginVisible(a)
	})
}

func (s *stubUserStore) FindByEmailAnyStatus(_ context.Context, email string) (*user.Account, error) {
	return s.find(func(a *user.Account) bool {
		return strings.EqualFold(a.Email.String, email)
	})
}

func (s *stubUserStore) FindByEmailNotDeleted(_ context.Context, email string) (*user.Account, error) {
	return s.find(func(a *user.Account) bool {
		return strings.EqualFold(a.Email.String, email) && a.Status != user.StatusDeleted
	})
}

func (s *stubUserStore) FindByEmailActive(_ context.Context, email string) (*user.Account, error) {
	return s.find(func(a *user.Account) bool {
		return strings.EqualFold(a.Email.String, email) && loginVisible(a)
	})
}

func (s *stubUserStore) FindByID(_ context.Context, id int64) (*user.Account, error) {
	if a, ok := s.accounts[id]; ok {
		return a, nil
	}
	return nil, apierror.ErrNotFound
}

func (s *stubUserStore) FindByAppID(_ context.Context, appID string) (*user.Account, error) {
	return s.find(func(a *user.Account) bool {
		return a.AppID.String == appID && loginVisible(a)
	})
}

func (s *stubUserStore) Create(_ context.Context, a *user.Account) error {
	s.add(a)
	return nil
}

func (s *stubUserStore) CreateSocial(_ context.Context, appID, deviceToken string) (*user.Account, error) {
	for _, a := range s.accounts {
		if a.AppID.String == appID && a.Status != user.StatusDeleted {
			return nil, apierror.ErrDuplicateEntry
		}
	}
	a := s.add(&user.Account{
		FirstName:   "",
		Username:    "u_" + appID,
		Password:    appID,
		Role:        user.RoleUser,
		Status:      user.StatusActive,
		Verified:    true,
		AppID:       sql.NullString{String: appID, Valid: true},
		DeviceToken: sql.NullString{String: deviceToken, Valid: deviceToken != ""},
	})
	return a, nil
}

func (s *stubUserStore) RecordFailedLogin(_ context.Context, id int64, maxAttempts int, restrictedUntil time.Time) error {
	a := s.accounts[id]
	a.Auth.WrongLoginAttempts++
	if a.Auth.WrongLoginAttempts >= maxAttempts {
		a.Auth.RestrictionLeftAt = sql.NullTime{Time: restrictedUntil, Valid: true}
		a.Status = user.StatusRestricted
	}
	return nil
}

func (s *stubUserStore) RecordSuccessfulLogin(_ context.Context, id int64, deviceToken string) error {
	a := s.accounts[id]
	if deviceToken != "" {
		a.DeviceToken = sql.NullString{String: deviceToken, Valid: true}
	}
	a.Auth.RestrictionLeftAt = sql.NullTime{}
	a.Auth.WrongLoginAttempts = 0
	if a.Status == user.StatusRestricted {
		a.Status = user.StatusActive
	}
	return nil
}

func (s *stubUserStore) SetOTP(_ context.Context, id int64, code string, expiresAt time.Time, authType user.AuthType, requestCount int, resetPassword bool) error {
	a := s.accounts[id]
	a.Auth.OneTimeCode = code
	a.Auth.ExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}
	a.Auth.RequestCount = requestCount
	a.Auth.AuthType = authType
	a.Auth.ResetPassword = resetPassword
	a.Auth.WrongLoginAttempts = 0
	return nil
}

func (s *stubUserStore) BumpOTP(_ context.Context, id int64, code string, expiresAt time.Time) error {
	a := s.accounts[id]
	a.Auth.OneTimeCode = code
	a.Auth.ExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}
	a.Auth.RequestCount++
	return nil
}

func (s *stubUserStore) MarkVerified(_ context.Context, id int64) error {
	a := s.accounts[id]
	a.Verified = true
	a.Auth.OneTimeCode = ""
	a.Auth.ExpiresAt = sql.NullTime{}
	a.Auth.RequestCount = 0
	a.Auth.AuthType = user.AuthTypeNone
	return nil
}

func (s *stubUserStore) SetResetPending(_ context.Context, id int64) error {
	a := s.accounts[id]
	a.Auth.OneTimeCode = ""
	a.Auth.ExpiresAt = sql.NullTime{}
	a.Auth.RequestCount = 0
	a.Auth.AuthType = user.AuthTypeNone
	a.Auth.ResetPassword = true
	return nil
}

func (s *stubUserStore) ResetPassword(_ context.Context, id int64, passwordHash string) error {
	a := s.accounts[id]
	a.Password = passwordHash
	a.Auth = user.AuthState{}
	return nil
}

func (s *stubUserStore) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	s.accounts[id].Password = passwordHash
	return nil
}

func (s *stubUserStore) UpdateDeviceToken(_ context.Context, id int64, deviceToken string) error {
	s.accounts[id].DeviceToken = sql.NullString{String: deviceToken, Valid: deviceToken != ""}
	return nil
}

func (s *stubUserStore) SetStatus(_ context.Context, id int64, status user.Status) error {
	s.accounts[id].Status = status
	return nil
}

func (s *stubUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := s.FindByEmailNotDeleted(context.Background(), email)
	return err == nil, nil
}

func (s *stubUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, a := range s.accounts {
		if strings.EqualFold(a.Username, username) && a.Status != user.StatusDeleted {
			return true, nil
		}
	}
	return false, nil
}

type stubResetTokenStore struct {
	nextID   int64
	consumed int
	tokens   map[string]*domauth.ResetToken
}

func newStubResetTokenStore() *stubResetTokenStore {
	return &stubResetTokenStore{nextID: 1, tokens: make(map[string]*domauth.ResetToken)}
}

func (s *stubResetTokenStore) Create(_ context.Context, t *domauth.ResetToken) error {
	t.ID = s.nextID
	s.nextID++
	s.tokens[t.Token] = t
	return nil
}

func (s *stubResetTokenStore) Consume(_ context.Context, token string) (*domauth.ResetToken, error) {
	s.consumed++
	t, ok := s.tokens[token]
	if !ok {
		return nil, apierror.ErrNotFound
	}
	delete(s.tokens, token)
	return t, nil
}

type sentMail struct {
	To       string
	Code     string
	AuthType user.AuthType
}

type stubMailer struct {
	otps    []sentMail
	changed []string
}

func (m *stubMailer) SendOTP(_ context.Context, to, _, code string, authType user.AuthType) {
	m.otps = append(m.otps, sentMail{To: to, Code: code, AuthType: authType})
}

func (m *stubMailer) SendPasswordChanged(_ context.Context, to, _ string) {
	m.changed = append(m.changed, to)
}

// ========== Fixture ==========

type fixture struct {
	svc    *Service
	users  *stubUserStore
	resets *stubResetTokenStore
	mail   *stubMailer
	jwt    *jwt.Manager
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	manager, err := jwt.NewManager(jwt.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		Issuer:        "whispr",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	f := &fixture{
		users:  newStubUserStore(),
		resets: newStubResetTokenStore(),
		mail:   &stubMailer{},
		jwt:    manager,
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.users, f.resets, f.mail, manager, nil, zaptest.NewLogger(t), bcrypt.MinCost, false)
	f.svc.WithClock(func() time.Time { return f.now })
	return f
}

// newRedisFixture backs the service with a real client over miniredis so
// the reset-token cache paths run.
func newRedisFixture(t *testing.T) (*fixture, *miniredis.Miniredis) {
	t.Helper()
	f := newFixture(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	f.svc.rdb = rdb
	return f, mr
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func (f *fixture) verifiedAccount(t *testing.T, username, email, password string) *user.Account {
	t.Helper()
	return f.users.add(&user.Account{
		FirstName: "Ada",
		LastName:  "Mwangi",
		Username:  username,
		Email:     sql.NullString{String: email, Valid: true},
		Password:  hashPassword(t, password),
		Role:      user.RoleUser,
		Status:    user.StatusActive,
		Verified:  true,
	})
}

// ========== Login ==========

func TestLoginUnverifiedRequiresVerification(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	a.Verified = false
	a.Auth.WrongLoginAttempts = 3

	resp, err := f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "ada", Password: "hunter2pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Status != http.StatusProxyAuthRequired {
		t.Fatalf("status = %d, want %d", resp.Status, http.StatusProxyAuthRequired)
	}
	if resp.AccessToken != "" || resp.RefreshToken != "" {
		t.Fatal("no tokens may be issued before verification")
	}
	if a.Auth.OneTimeCode == "" {
		t.Fatal("expected a fresh otp on the account")
	}
	if a.Auth.WrongLoginAttempts != 0 {
		t.Fatalf("wrongLoginAttempts = %d, want 0", a.Auth.WrongLoginAttempts)
	}
	if got := a.Auth.ExpiresAt.Time; !got.Equal(f.now.Add(5 * time.Minute)) {
		t.Fatalf("otp expiry = %v, want %v", got, f.now.Add(5*time.Minute))
	}
	if len(f.mail.otps) != 1 || f.mail.otps[0].Code != a.Auth.OneTimeCode {
		t.Fatalf("otp email not dispatched: %+v", f.mail.otps)
	}
}

func TestLoginFifthFailureRestricts(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	a.Auth.WrongLoginAttempts = 4

	_, err := f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "ada", Password: "wrong"})
	if !errors.Is(err, apierror.ErrAccountRestricted) {
		t.Fatalf("err = %v, want account restricted", err)
	}
	if a.Status != user.StatusRestricted {
		t.Fatalf("status = %s, want restricted", a.Status)
	}
	if got := a.Auth.RestrictionLeftAt.Time; !got.Equal(f.now.Add(30 * time.Minute)) {
		t.Fatalf("restriction expiry = %v, want %v", got, f.now.Add(30*time.Minute))
	}
	if !strings.Contains(apierror.MessageOf(err), "30 minutes") {
		t.Fatalf("message %q should report remaining minutes", apierror.MessageOf(err))
	}
}

func TestLoginSequentialFailuresEscalate(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")

	for i := 1; i <= 4; i++ {
		_, err := f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "ada", Password: "wrong"})
		if !errors.Is(err, apierror.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: err = %v, want invalid credentials", i, err)
		}
		if a.Auth.WrongLoginAttempts != i {
			t.Fatalf("attempt %d: counter = %d", i, a.Auth.WrongLoginAttempts)
		}
	}

	_, err := f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "ada", Password: "wrong"})
	if !errors.Is(err, apierror.ErrAccountRestricted) {
		t.Fatalf("fifth attempt: err = %v, want account restricted", err)
	}

	// Even the correct password is now rejected until the window lapses.
	_, err = f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "ada", Password: "hunter2pass"})
	if !errors.Is(err, apierror.ErrAccountRestricted) {
		t.Fatalf("while restricted: err = %v, want account restricted", err)
	}
	if a.Auth.WrongLoginAttempts != 5 {
		t.Fatalf("counter moved during restriction: %d", a.Auth.WrongLoginAttempts)
	}
}

func TestLoginAfterRestrictionExpires(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	a.Status = user.StatusRestricted
	a.Auth.WrongLoginAttempts = 5
	a.Auth.RestrictionLeftAt = sql.NullTime{Time: f.now.Add(-time.Minute), Valid: true}

	resp, err := f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "ada", Password: "hunter2pass", DeviceToken: "dev-1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Status)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a token pair")
	}
	if !strings.Contains(resp.Message, "Ada") {
		t.Fatalf("greeting %q should carry the name", resp.Message)
	}
	if a.Status != user.StatusActive {
		t.Fatalf("status = %s, want active", a.Status)
	}
	if a.Auth.WrongLoginAttempts != 0 || a.Auth.RestrictionLeftAt.Valid {
		t.Fatal("lockout state should be cleared")
	}
	if a.DeviceToken.String != "dev-1" {
		t.Fatalf("device token = %q", a.DeviceToken.String)
	}
}

func TestLoginDeletedAccountLooksLikeWrongPassword(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	a.Status = user.StatusDeleted

	_, err := f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "ada", Password: "hunter2pass"})
	if !errors.Is(err, apierror.ErrInvalidCredentials) {
		t.Fatalf("deleted: err = %v", err)
	}

	_, err2 := f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "nobody", Password: "hunter2pass"})
	if !errors.Is(err2, apierror.ErrInvalidCredentials) {
		t.Fatalf("unknown: err = %v", err2)
	}
	if apierror.MessageOf(err) != apierror.MessageOf(err2) {
		t.Fatal("deleted and unknown accounts must be indistinguishable")
	}
}

func TestAdminLoginRejectsNonAdmin(t *testing.T) {
	f := newFixture(t)
	f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")

	resp, err := f.svc.AdminLogin(context.Background(), &domauth.AdminLoginRequest{Email: "ada@example.com", Password: "hunter2pass"})
	if !errors.Is(err, apierror.ErrNotAuthorized) {
		t.Fatalf("err = %v, want not authorized", err)
	}
	if resp != nil {
		t.Fatal("no response payload on rejection")
	}
}

func TestAdminLoginSucceeds(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "root", "admin@example.com", "sup3rsecret")
	a.Role = user.RoleAdmin

	resp, err := f.svc.AdminLogin(context.Background(), &domauth.AdminLoginRequest{Email: "admin@example.com", Password: "sup3rsecret"})
	if err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	if resp.Role != "admin" || resp.AccessToken == "" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestAdminLoginKeepsDeviceToken(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "root", "admin@example.com", "sup3rsecret")
	a.Role = user.RoleAdmin
	a.DeviceToken = sql.NullString{String: "dev-9", Valid: true}

	if _, err := f.svc.AdminLogin(context.Background(), &domauth.AdminLoginRequest{Email: "admin@example.com", Password: "sup3rsecret"}); err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	if a.DeviceToken.String != "dev-9" {
		t.Fatalf("device token = %q, want dev-9 preserved", a.DeviceToken.String)
	}
}

func TestSocialLoginCreatesThenReuses(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.SocialLogin(context.Background(), &domauth.SocialLoginRequest{AppID: "gg-123", DeviceToken: "dev-1"})
	if err != nil {
		t.Fatalf("SocialLogin: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.Status)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a token pair on first social login")
	}
	a, err := f.users.FindByAppID(context.Background(), "gg-123")
	if err != nil {
		t.Fatalf("FindByAppID: %v", err)
	}
	if !a.Verified || a.Status != user.StatusActive {
		t.Fatalf("social account = %+v", a)
	}

	resp2, err := f.svc.SocialLogin(context.Background(), &domauth.SocialLoginRequest{AppID: "gg-123", DeviceToken: "dev-2"})
	if err != nil {
		t.Fatalf("second SocialLogin: %v", err)
	}
	if resp2.Status != http.StatusOK {
		t.Fatalf("second status = %d, want 200", resp2.Status)
	}
	if a.DeviceToken.String != "dev-2" {
		t.Fatalf("device token = %q, want dev-2", a.DeviceToken.String)
	}
}

// ========== OTP verification ==========

func TestVerifyAccountRejectsWrongAndExpiredDistinctly(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	a.Verified = false
	a.Auth.OneTimeCode = "123456"
	a.Auth.ExpiresAt = sql.NullTime{Time: f.now.Add(5 * time.Minute), Valid: true}

	_, err := f.svc.VerifyAccount(context.Background(), &domauth.VerifyAccountRequest{Email: "ada@example.com", OneTimeCode: "654321"})
	if !errors.Is(err, apierror.ErrOtpInvalid) {
		t.Fatalf("wrong code: err = %v", err)
	}

	f.now = f.now.Add(6 * time.Minute)
	_, err = f.svc.VerifyAccount(context.Background(), &domauth.VerifyAccountRequest{Email: "ada@example.com", OneTimeCode: "123456"})
	if !errors.Is(err, apierror.ErrOtpExpired) {
		t.Fatalf("expired code: err = %v", err)
	}
}

func TestVerifyAccountCompletesRegistration(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	a.Verified = false
	a.Auth.OneTimeCode = "123456"
	a.Auth.ExpiresAt = sql.NullTime{Time: f.now.Add(5 * time.Minute), Valid: true}

	resp, err := f.svc.VerifyAccount(context.Background(), &domauth.VerifyAccountRequest{Email: "ada@example.com", OneTimeCode: "123456"})
	if err != nil {
		t.Fatalf("VerifyAccount: %v", err)
	}
	if !a.Verified {
		t.Fatal("account should be verified")
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected a token pair for the new account")
	}
	if resp.Token != "" {
		t.Fatal("no reset capability on the registration path")
	}
	if a.Auth.OneTimeCode != "" {
		t.Fatal("otp should be retired after use")
	}
}

func TestVerifyAccountArmsPasswordReset(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	a.Auth.OneTimeCode = "123456"
	a.Auth.ExpiresAt = sql.NullTime{Time: f.now.Add(5 * time.Minute), Valid: true}
	a.Auth.AuthType = user.AuthTypeResetPassword

	resp, err := f.svc.VerifyAccount(context.Background(), &domauth.VerifyAccountRequest{Email: "ada@example.com", OneTimeCode: "123456"})
	if err != nil {
		t.Fatalf("VerifyAccount: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a reset capability token")
	}
	if resp.AccessToken != "" || resp.RefreshToken != "" {
		t.Fatal("no access tokens on the reset path")
	}
	if !a.Auth.ResetPassword {
		t.Fatal("reset flag should be armed")
	}
	if a.Auth.OneTimeCode != "" {
		t.Fatal("otp fields should be cleared")
	}
	stored, ok := f.resets.tokens[resp.Token]
	if !ok {
		t.Fatal("reset token not persisted")
	}
	if !stored.ExpiresAt.Equal(f.now.Add(5 * time.Minute)) {
		t.Fatalf("reset token expiry = %v", stored.ExpiresAt)
	}
}

// ========== Forgot password ==========

func TestForgotPasswordIssuesResetOTP(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")

	resp, err := f.svc.ForgotPassword(context.Background(), &domauth.ForgotPasswordRequest{Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	if a.Auth.AuthType != user.AuthTypeResetPassword || a.Auth.RequestCount != 1 {
		t.Fatalf("auth state = %+v", a.Auth)
	}
	if !a.Auth.ResetPassword {
		t.Fatal("reset flag should be armed when the reset otp is issued")
	}
	if len(f.mail.otps) != 1 || f.mail.otps[0].AuthType != user.AuthTypeResetPassword {
		t.Fatalf("otp emails = %+v", f.mail.otps)
	}
}

// ========== Resend ==========

func TestResendOTPStopsAtLimit(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	a.Auth.OneTimeCode = "123456"
	a.Auth.RequestCount = 4

	resp, err := f.svc.ResendOTP(context.Background(), &domauth.ResendOTPRequest{Email: "ada@example.com", AuthType: "resetPassword"})
	if err != nil {
		t.Fatalf("ResendOTP: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	if a.Auth.RequestCount != 5 {
		t.Fatalf("requestCount = %d, want 5", a.Auth.RequestCount)
	}
	fifth := a.Auth.OneTimeCode

	_, err = f.svc.ResendOTP(context.Background(), &domauth.ResendOTPRequest{Email: "ada@example.com", AuthType: "resetPassword"})
	if !errors.Is(err, apierror.ErrRequestLimitExceeded) {
		t.Fatalf("err = %v, want request limit exceeded", err)
	}
	if a.Auth.OneTimeCode != fifth || a.Auth.RequestCount != 5 {
		t.Fatal("a sixth code must never be issued in the window")
	}
	if len(f.mail.otps) != 1 {
		t.Fatalf("otp emails sent = %d, want 1", len(f.mail.otps))
	}
}

// ========== Password reset ==========

func (f *fixture) armedReset(t *testing.T, a *user.Account) string {
	t.Helper()
	a.Auth.OneTimeCode = "123456"
	a.Auth.ExpiresAt = sql.NullTime{Time: f.now.Add(5 * time.Minute), Valid: true}
	resp, err := f.svc.VerifyAccount(context.Background(), &domauth.VerifyAccountRequest{Email: a.Email.String, OneTimeCode: "123456"})
	if err != nil {
		t.Fatalf("VerifyAccount: %v", err)
	}
	return resp.Token
}

func TestResetPasswordConsumesToken(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	token := f.armedReset(t, a)

	req := &domauth.ResetPasswordRequest{NewPassword: "n3wpassword", ConfirmPassword: "n3wpassword"}
	resp, err := f.svc.ResetPassword(context.Background(), token, req)
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Password), []byte("n3wpassword")) != nil {
		t.Fatal("new password not stored")
	}
	if a.Auth.ResetPassword {
		t.Fatal("reset flag should be consumed")
	}
	if len(f.mail.changed) != 1 {
		t.Fatalf("password changed emails = %d, want 1", len(f.mail.changed))
	}

	// The capability is single use.
	_, err = f.svc.ResetPassword(context.Background(), token, req)
	if !errors.Is(err, apierror.ErrTokenInvalid) {
		t.Fatalf("replay: err = %v, want token invalid", err)
	}
}

func TestResetPasswordUnknownTokenShortCircuits(t *testing.T) {
	f, mr := newRedisFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	token := f.armedReset(t, a)
	if !mr.Exists(resetTokenKey(token)) {
		t.Fatal("arming should mirror the token into the cache")
	}

	req := &domauth.ResetPasswordRequest{NewPassword: "n3wpassword", ConfirmPassword: "n3wpassword"}
	_, err := f.svc.ResetPassword(context.Background(), "deadbeef", req)
	if !errors.Is(err, apierror.ErrTokenInvalid) {
		t.Fatalf("unknown token: err = %v, want token invalid", err)
	}
	if f.resets.consumed != 0 {
		t.Fatalf("store consume calls = %d, want 0 when the cache answers", f.resets.consumed)
	}

	if _, err := f.svc.ResetPassword(context.Background(), token, req); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if mr.Exists(resetTokenKey(token)) {
		t.Fatal("cache entry should be dropped on consumption")
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	token := f.armedReset(t, a)

	f.now = f.now.Add(10 * time.Minute)
	_, err := f.svc.ResetPassword(context.Background(), token, &domauth.ResetPasswordRequest{
		NewPassword: "n3wpassword", ConfirmPassword: "n3wpassword",
	})
	if !errors.Is(err, apierror.ErrTokenExpired) {
		t.Fatalf("err = %v, want token expired", err)
	}
}

func TestResetPasswordMismatchedConfirmation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ResetPassword(context.Background(), "whatever", &domauth.ResetPasswordRequest{
		NewPassword: "n3wpassword", ConfirmPassword: "different",
	})
	if !errors.Is(err, apierror.ErrBadRequest) {
		t.Fatalf("err = %v, want bad request", err)
	}
}

// ========== Token refresh ==========

func TestRefreshTokenRoundTrip(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	a.Profile = sql.NullString{String: "https://cdn.example.com/p/ada.png", Valid: true}

	login, err := f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "ada", Password: "hunter2pass", DeviceToken: "dev-1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	resp, err := f.svc.RefreshToken(context.Background(), &domauth.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if resp.RefreshToken != "" {
		t.Fatal("refresh must not re-mint a refresh token")
	}

	orig, err := f.jwt.Verifier.VerifyAccessToken(login.AccessToken)
	if err != nil {
		t.Fatalf("verify original: %v", err)
	}
	fresh, err := f.jwt.Verifier.VerifyAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify refreshed: %v", err)
	}
	if orig.Identity() != fresh.Identity() {
		t.Fatalf("identity drifted: %+v vs %+v", orig.Identity(), fresh.Identity())
	}
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	access, err := f.jwt.Generator.AccessToken(jwt.Identity{AuthID: 1, Role: "user"})
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	_, err = f.svc.RefreshToken(context.Background(), &domauth.RefreshTokenRequest{RefreshToken: access})
	if !errors.Is(err, apierror.ErrTokenInvalid) {
		t.Fatalf("err = %v, want token invalid", err)
	}
}

// ========== Registration ==========

func TestRegisterIssuesInitialOTP(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Register(context.Background(), &domauth.RegisterRequest{
		FirstName: "Ada", Username: "ada", Email: "ada@example.com", Password: "hunter2pass",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Fatalf("status = %d", resp.Status)
	}

	a, err := f.users.FindByEmailNotDeleted(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if a.Verified {
		t.Fatal("new accounts start unverified")
	}
	if len(a.Auth.OneTimeCode) != 6 {
		t.Fatalf("otp = %q", a.Auth.OneTimeCode)
	}
	if a.Auth.RequestCount != 1 || a.Auth.AuthType != user.AuthTypeCreateAccount {
		t.Fatalf("auth state = %+v", a.Auth)
	}
	if len(f.mail.otps) != 1 {
		t.Fatalf("otp emails = %d", len(f.mail.otps))
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")

	_, err := f.svc.Register(context.Background(), &domauth.RegisterRequest{
		FirstName: "Eve", Username: "eve", Email: "ada@example.com", Password: "hunter2pass",
	})
	if !errors.Is(err, apierror.ErrDuplicateEntry) {
		t.Fatalf("email dup: err = %v", err)
	}

	_, err = f.svc.Register(context.Background(), &domauth.RegisterRequest{
		FirstName: "Eve", Username: "ADA", Email: "eve@example.com", Password: "hunter2pass",
	})
	if !errors.Is(err, apierror.ErrDuplicateEntry) {
		t.Fatalf("username dup: err = %v", err)
	}
}

// ========== Dev mode ==========

func TestDevModeEchoesOTP(t *testing.T) {
	f := newFixture(t)
	f.svc.devMode = true
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")
	a.Verified = false

	resp, err := f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "ada", Password: "hunter2pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !strings.Contains(resp.Message, a.Auth.OneTimeCode) {
		t.Fatalf("dev response %q should echo the otp", resp.Message)
	}

	f.svc.devMode = false
	a2 := f.verifiedAccount(t, "eve", "eve@example.com", "hunter2pass")
	a2.Verified = false
	resp2, err := f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "eve", Password: "hunter2pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if strings.Contains(resp2.Message, a2.Auth.OneTimeCode) {
		t.Fatalf("production response %q must not echo the otp", resp2.Message)
	}
}

// ========== Account deletion ==========

func TestDeleteAccountSoftDeletes(t *testing.T) {
	f := newFixture(t)
	a := f.verifiedAccount(t, "ada", "ada@example.com", "hunter2pass")

	_, err := f.svc.DeleteAccount(context.Background(), a.ID, &domauth.DeleteAccountRequest{Password: "wrong"})
	if !errors.Is(err, apierror.ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v", err)
	}

	resp, err := f.svc.DeleteAccount(context.Background(), a.ID, &domauth.DeleteAccountRequest{Password: "hunter2pass"})
	if err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d", resp.Status)
	}
	if a.Status != user.StatusDeleted {
		t.Fatalf("status = %s, want deleted", a.Status)
	}

	// The row stays but login cannot see it.
	_, err = f.svc.Login(context.Background(), &domauth.LoginRequest{Username: "ada", Password: "hunter2pass"})
	if !errors.Is(err, apierror.ErrInvalidCredentials) {
		t.Fatalf("post-delete login: err = %v", err)
	}
}
