// Package memstore holds the in-memory verification state: outstanding OTP
// codes and one-time registration tickets. Both stores lose all state on
// process restart, which is intentional — tickets and codes are short-lived
// proofs, not durable records. Entries are removed at the moment invalidity
// is discovered; Sweep exists only for memory hygiene.
package memstore

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/planbana/go-api/internal/domain"
)

type otpEntry struct {
	code      string
	issuedAt  time.Time
	expiresAt time.Time
	attempts  int
}

// OTPStore tracks one outstanding code per (phone, purpose) key.
// All read-modify-write sequences on a key happen under the store mutex,
// so two concurrent verify attempts can never both pass the attempt ceiling.
type OTPStore struct {
	mu      sync.Mutex
	entries map[string]*otpEntry

	now func() time.Time
}

func NewOTPStore() *OTPStore {
	return &OTPStore{
		entries: make(map[string]*otpEntry),
		now:     time.Now,
	}
}

func otpKey(phone string, purpose domain.Purpose) string {
	return phone + "|" + string(purpose)
}

// Request returns the OTP code for the key. Within the resend cooldown the
// existing code is returned untouched (idempotent resend suppression);
// otherwise a fresh 6-digit code replaces whatever was stored, with the
// attempt counter reset.
func (s *OTPStore) Request(phone string, purpose domain.Purpose) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := otpKey(phone, purpose)
	now := s.now()

	if e, ok := s.entries[k]; ok && now.Before(e.issuedAt.Add(domain.OTPResendCooldown)) {
		return e.code, nil
	}

	code, err := sixDigitCode()
	if err != nil {
		return "", err
	}
	s.entries[k] = &otpEntry{
		code:      code,
		issuedAt:  now,
		expiresAt: now.Add(domain.OTPTTL),
		attempts:  0,
	}
	return code, nil
}

// Verify checks a candidate code against the stored entry. The entry is
// deleted on success, on expiry discovery and on attempt exhaustion; a plain
// wrong guess only increments the counter so the ceiling cannot be dodged by
// re-requesting within the cooldown.
func (s *OTPStore) Verify(phone string, purpose domain.Purpose, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := otpKey(phone, purpose)
	e, ok := s.entries[k]
	if !ok {
		return false
	}
	now := s.now()
	if !now.Before(e.expiresAt) {
		delete(s.entries, k)
		return false
	}
	if e.attempts >= domain.OTPMaxAttempts {
		delete(s.entries, k)
		return false
	}
	if e.code != code {
		e.attempts++
		return false
	}
	delete(s.entries, k)
	return true
}

// Sweep drops expired entries. Correctness never depends on it — expiry is
// re-checked on every access — it only bounds memory between restarts.
func (s *OTPStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// sixDigitCode draws a uniformly random zero-padded code in 000000-999999.
func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
