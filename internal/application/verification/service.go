// Package verification is the single entry point for phone verification
// state: requesting and verifying purpose-bound OTP codes, and issuing and
// consuming one-time registration tickets. It owns no policy about which
// phones may request which purpose — that gating lives with the auth
// orchestrator, which can consult the account directory.
package verification

import (
	"github.com/planbana/go-api/internal/domain"
	"github.com/planbana/go-api/internal/pkg/phone"
)

// OTPStore is the keyed OTP state machine (cooldown, TTL, attempt ceiling).
type OTPStore interface {
	Request(phone string, purpose domain.Purpose) (string, error)
	Verify(phone string, purpose domain.Purpose, code string) bool
}

// TicketStore holds one-time registration tickets.
type TicketStore interface {
	Issue(phone string) (string, error)
	Consume(id, phone string) domain.ConsumeResult
}

type Service interface {
	RequestCode(rawPhone string, purpose domain.Purpose) (string, error)
	VerifyCode(rawPhone string, purpose domain.Purpose, code string) bool
	IssueRegistrationTicket(rawPhone string) (id string, ttlSeconds int, err error)
	ConsumeRegistrationTicket(id, rawPhone string) domain.ConsumeResult
}

type service struct {
	otp     OTPStore
	tickets TicketStore
}

func NewService(otp OTPStore, tickets TicketStore) Service {
	return &service{otp: otp, tickets: tickets}
}

func (s *service) RequestCode(rawPhone string, purpose domain.Purpose) (string, error) {
	return s.otp.Request(phone.Normalize(rawPhone), purpose)
}

func (s *service) VerifyCode(rawPhone string, purpose domain.Purpose, code string) bool {
	return s.otp.Verify(phone.Normalize(rawPhone), purpose, code)
}

func (s *service) IssueRegistrationTicket(rawPhone string) (string, int, error) {
	id, err := s.tickets.Issue(phone.Normalize(rawPhone))
	if err != nil {
		return "", 0, err
	}
	return id, int(domain.RegistrationTicketTTL.Seconds()), nil
}

func (s *service) ConsumeRegistrationTicket(id, rawPhone string) domain.ConsumeResult {
	return s.tickets.Consume(id, phone.Normalize(rawPhone))
}
