package memstore

import (
	"sync"
	"time"

	"github.com/planbana/go-api/internal/domain"
	"github.com/planbana/go-api/internal/pkg/token"
)

type ticket struct {
	phone     string
	expiresAt time.Time
}

// TicketStore holds one-time registration tickets proving a phone completed
// OTP verification for registration.
type TicketStore struct {
	mu      sync.Mutex
	tickets map[string]ticket

	now func() time.Time
}

func NewTicketStore() *TicketStore {
	return &TicketStore{
		tickets: make(map[string]ticket),
		now:     time.Now,
	}
}

// Issue creates an unguessable ticket bound to the phone, valid for
// domain.RegistrationTicketTTL.
func (s *TicketStore) Issue(phone string) (string, error) {
	id, err := token.New()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[id] = ticket{phone: phone, expiresAt: s.now().Add(domain.RegistrationTicketTTL)}
	return id, nil
}

// Consume redeems a ticket. The ticket is removed on every outcome except
// NOT_FOUND: a mismatched or expired redemption still burns it, so a captured
// ticket cannot be replayed against other phones.
func (s *TicketStore) Consume(id, phone string) domain.ConsumeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return domain.ConsumeNotFound
	}
	delete(s.tickets, id)

	if t.phone != phone {
		return domain.ConsumePhoneMismatch
	}
	if !s.now().Before(t.expiresAt) {
		return domain.ConsumeExpired
	}
	return domain.ConsumeOK
}

// Sweep drops expired tickets; memory hygiene only.
func (s *TicketStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, t := range s.tickets {
		if !now.Before(t.expiresAt) {
			delete(s.tickets, id)
		}
	}
}
