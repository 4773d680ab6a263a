// Package auth sequences the verification service and the token provider
// into the account flows: registration, two-factor login, refresh and
// password reset. It owns purpose gating — which account states may request
// which OTP purpose — and enforces it both when a code is requested and
// again at the point of consequence, so an account created between request
// and verify cannot slip through.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/planbana/go-api/internal/domain"
	"github.com/planbana/go-api/internal/pkg/id"
	"github.com/planbana/go-api/internal/pkg/phone"
	"github.com/planbana/go-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// UserDirectory is the account directory backing purpose gating and login.
type UserDirectory interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// Verifier is the phone-verification entry point (OTP codes + tickets).
type Verifier interface {
	RequestCode(rawPhone string, purpose domain.Purpose) (string, error)
	VerifyCode(rawPhone string, purpose domain.Purpose, code string) bool
	IssueRegistrationTicket(rawPhone string) (id string, ttlSeconds int, err error)
	ConsumeRegistrationTicket(id, rawPhone string) domain.ConsumeResult
}

// TokenProvider signs and validates session tokens.
type TokenProvider interface {
	SignAccess(subject string, roles []string) (string, error)
	SignRefresh(subject string) (string, error)
	Validate(token string) bool
	Subject(token string) (string, error)
}

// SMSSender delivers OTP codes.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Mailer delivers password-reset links.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// ResetTokenStore persists password-reset link tokens.
type ResetTokenStore interface {
	Put(ctx context.Context, t *domain.PasswordResetToken) error
	Get(ctx context.Context, token string) (*domain.PasswordResetToken, error)
	Delete(ctx context.Context, token string) error
}

// TicketGrant is returned from a successful register-purpose verification.
type TicketGrant struct {
	Ticket    string `json:"registration_ticket"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

// AuthResult carries freshly issued session credentials.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

type Service interface {
	RequestOTP(ctx context.Context, rawPhone string, purpose domain.Purpose) (code string, err error)
	VerifyOTP(ctx context.Context, rawPhone string, purpose domain.Purpose, code string) (*TicketGrant, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, rawPhone, password string) (code string, err error)
	LoginVerifyOTP(ctx context.Context, rawPhone, code string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
	RequestPasswordReset(ctx context.Context, rawPhone string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	ResetPasswordWithOTP(ctx context.Context, rawPhone, code, newPassword string) error
}

// ServiceDeps bundles the collaborators for NewService.
type ServiceDeps struct {
	UserRepo  UserDirectory
	Verifier  Verifier
	JWT       TokenProvider
	SMS       SMSSender // optional; codes are only logged when absent
	Mailer    Mailer    // optional
	ResetRepo ResetTokenStore
}

type service struct {
	users     UserDirectory
	verifier  Verifier
	jwt       TokenProvider
	sms       SMSSender
	mailer    Mailer
	resetRepo ResetTokenStore

	now func() time.Time
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:     deps.UserRepo,
		verifier:  deps.Verifier,
		jwt:       deps.JWT,
		sms:       deps.SMS,
		mailer:    deps.Mailer,
		resetRepo: deps.ResetRepo,
		now:       time.Now,
	}
}

// RequestOTP gates the purpose against the account directory, issues (or
// re-issues, within cooldown) a code and sends it by SMS. The code is
// returned so dev deployments can surface it; production transports must
// not serialize it.
func (s *service) RequestOTP(ctx context.Context, rawPhone string, purpose domain.Purpose) (string, error) {
	p := phone.Normalize(rawPhone)
	if p == "" {
		return "", fmt.Errorf("phone is required: %w", domain.ErrBadRequest)
	}
	if err := s.gatePurpose(ctx, p, purpose); err != nil {
		return "", err
	}

	code, err := s.verifier.RequestCode(p, purpose)
	if err != nil {
		return "", err
	}
	s.deliverCode(ctx, p, purpose, code)
	return code, nil
}

// VerifyOTP checks a candidate code. For purpose=register a one-time
// registration ticket is issued; other purposes just report success.
// All OTP failures collapse into one generic message so an attacker cannot
// tell a wrong code from an expired one.
func (s *service) VerifyOTP(ctx context.Context, rawPhone string, purpose domain.Purpose, code string) (*TicketGrant, error) {
	p := phone.Normalize(rawPhone)
	if p == "" || code == "" {
		return nil, fmt.Errorf("phone and otp are required: %w", domain.ErrBadRequest)
	}
	if !s.verifier.VerifyCode(p, purpose, code) {
		return nil, fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest)
	}
	if purpose != domain.PurposeRegister {
		return nil, nil
	}

	// Re-validate gating at the point of consequence: an account may have
	// been created for this phone between request and verify.
	if err := s.gatePurpose(ctx, p, domain.PurposeRegister); err != nil {
		return nil, err
	}
	ticket, ttl, err := s.verifier.IssueRegistrationTicket(p)
	if err != nil {
		return nil, err
	}
	return &TicketGrant{Ticket: ticket, ExpiresIn: ttl}, nil
}

// Register redeems a registration ticket and creates the account. The new
// user is authenticated immediately (auto-login).
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*AuthResult, error) {
	p := phone.Normalize(req.Phone)

	switch r := s.verifier.ConsumeRegistrationTicket(req.RegistrationTicket, p); r {
	case domain.ConsumeOK:
	case domain.ConsumeNotFound:
		return nil, fmt.Errorf("registration ticket not found (server restarted or wrong ticket): %w", domain.ErrBadRequest)
	case domain.ConsumePhoneMismatch:
		return nil, fmt.Errorf("registration ticket does not match phone: %w", domain.ErrBadRequest)
	case domain.ConsumeExpired:
		return nil, fmt.Errorf("registration ticket expired: %w", domain.ErrBadRequest)
	default:
		return nil, fmt.Errorf("phone verification required: %w", domain.ErrBadRequest)
	}

	if exists, err := s.users.ExistsByPhone(ctx, p); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("phone already registered: %w", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:        id.New(),
		Phone:         p,
		PasswordHash:  string(hash),
		DisplayName:   req.DisplayName,
		Roles:         []string{domain.RoleUser},
		Languages:     []string{"English"},
		PhoneVerified: true,
		Enable:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return s.issueSession(u)
}

// Login is the password half of the two-factor login: a correct password
// triggers a login-purpose OTP. Failures are deliberately indistinguishable
// so the endpoint cannot be used to enumerate phones.
func (s *service) Login(ctx context.Context, rawPhone, password string) (string, error) {
	p := phone.Normalize(rawPhone)

	u, err := s.users.GetByPhone(ctx, p)
	if err != nil {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.Enable {
		return "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.PhoneVerified {
		return "", fmt.Errorf("phone not verified: %w", domain.ErrForbidden)
	}

	code, err := s.verifier.RequestCode(p, domain.PurposeLogin)
	if err != nil {
		return "", err
	}
	s.deliverCode(ctx, p, domain.PurposeLogin, code)
	return code, nil
}

// LoginVerifyOTP is the OTP half of the two-factor login.
func (s *service) LoginVerifyOTP(ctx context.Context, rawPhone, code string) (*AuthResult, error) {
	p := phone.Normalize(rawPhone)

	if !s.verifier.VerifyCode(p, domain.PurposeLogin, code) {
		return nil, fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest)
	}
	u, err := s.users.GetByPhone(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return s.issueSession(u)
}

// Refresh exchanges a valid refresh token for a new access token. Roles are
// re-resolved from the account, never taken from the refresh token.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if !s.jwt.Validate(refreshToken) {
		return "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	subject, err := s.jwt.Subject(refreshToken)
	if err != nil {
		return "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.GetByPhone(ctx, subject)
	if err != nil {
		return "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	return s.jwt.SignAccess(u.Phone, u.Roles)
}

// RequestPasswordReset mails a reset link when the account has an e-mail on
// file. The response is identical whether or not the phone exists.
func (s *service) RequestPasswordReset(ctx context.Context, rawPhone string) error {
	p := phone.Normalize(rawPhone)

	u, err := s.users.GetByPhone(ctx, p)
	if err != nil {
		return nil
	}
	tok, err := token.New()
	if err != nil {
		return err
	}
	rt := &domain.PasswordResetToken{
		Token:     tok,
		UserID:    u.UserID,
		ExpiresAt: s.now().Add(resetTokenTTL).Unix(),
	}
	if err := s.resetRepo.Put(ctx, rt); err != nil {
		return err
	}
	if u.Email != nil && s.mailer != nil {
		if err := s.mailer.SendEmail(*u.Email, "Password reset", "Reset link: /reset-password?token="+tok); err != nil {
			slog.Warn("failed to send reset mail", "user_id", u.UserID, "err", err)
		}
	}
	return nil
}

// ResetPassword redeems a mailed reset-link token.
func (s *service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	rt, err := s.resetRepo.Get(ctx, resetToken)
	if err != nil {
		return fmt.Errorf("invalid token: %w", domain.ErrBadRequest)
	}
	if rt.ExpiresAt < s.now().Unix() {
		_ = s.resetRepo.Delete(ctx, resetToken)
		return fmt.Errorf("token expired: %w", domain.ErrBadRequest)
	}
	if err := s.updatePassword(ctx, rt.UserID, newPassword); err != nil {
		return err
	}
	return s.resetRepo.Delete(ctx, resetToken)
}

// ResetPasswordWithOTP resets the password after verifying a reset-purpose
// OTP, for accounts without an e-mail address.
func (s *service) ResetPasswordWithOTP(ctx context.Context, rawPhone, code, newPassword string) error {
	p := phone.Normalize(rawPhone)

	if !s.verifier.VerifyCode(p, domain.PurposeReset, code) {
		return fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest)
	}
	u, err := s.users.GetByPhone(ctx, p)
	if err != nil {
		return fmt.Errorf("invalid or expired OTP: %w", domain.ErrBadRequest)
	}
	return s.updatePassword(ctx, u.UserID, newPassword)
}

// gatePurpose enforces which account states may use each purpose:
// register needs an unclaimed phone, login/reset need an existing account.
func (s *service) gatePurpose(ctx context.Context, normalizedPhone string, purpose domain.Purpose) error {
	exists, err := s.users.ExistsByPhone(ctx, normalizedPhone)
	if err != nil {
		return err
	}
	if purpose == domain.PurposeRegister && exists {
		return fmt.Errorf("phone already registered: %w", domain.ErrConflict)
	}
	if purpose != domain.PurposeRegister && !exists {
		return fmt.Errorf("phone not registered: %w", domain.ErrBadRequest)
	}
	return nil
}

func (s *service) issueSession(u *domain.User) (*AuthResult, error) {
	access, err := s.jwt.SignAccess(u.Phone, u.Roles)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.SignRefresh(u.Phone)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: access, RefreshToken: refresh, User: u}, nil
}

func (s *service) updatePassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", domain.ErrBadRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)})
}

// deliverCode hands the code to the SMS gateway. Delivery is best effort:
// a gateway outage must not break the flow in dev, where the code is
// surfaced in the response anyway.
func (s *service) deliverCode(ctx context.Context, normalizedPhone string, purpose domain.Purpose, code string) {
	if s.sms == nil {
		slog.Info("no SMS sender configured, skipping delivery", "purpose", purpose)
		return
	}
	if err := s.sms.SendSMS(ctx, normalizedPhone, "Your planbana verification code: "+code); err != nil {
		slog.Warn("failed to send OTP SMS", "purpose", purpose, "err", err)
	}
}
