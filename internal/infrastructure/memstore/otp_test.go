package memstore

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/planbana/go-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newOTPStoreAt(clk *fakeClock) *OTPStore {
	s := NewOTPStore()
	s.now = clk.Now
	return s
}

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestRequest_ReturnsSixDigitCode(t *testing.T) {
	s := newOTPStoreAt(newFakeClock())
	code, err := s.Request("5551234", domain.PurposeRegister)
	require.NoError(t, err)
	assert.Regexp(t, sixDigits, code)
}

func TestRequest_CooldownReturnsSameCode(t *testing.T) {
	clk := newFakeClock()
	s := newOTPStoreAt(clk)

	first, err := s.Request("5551234", domain.PurposeRegister)
	require.NoError(t, err)

	clk.Advance(domain.OTPResendCooldown - time.Second)
	second, err := s.Request("5551234", domain.PurposeRegister)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRequest_AfterCooldownReplacesEntryAndResetsAttempts(t *testing.T) {
	clk := newFakeClock()
	s := newOTPStoreAt(clk)

	first, err := s.Request("5551234", domain.PurposeLogin)
	require.NoError(t, err)

	// Burn some attempts against the first code.
	assert.False(t, s.Verify("5551234", domain.PurposeLogin, "000000"))
	assert.False(t, s.Verify("5551234", domain.PurposeLogin, "111111"))

	clk.Advance(domain.OTPResendCooldown + time.Second)
	second, err := s.Request("5551234", domain.PurposeLogin)
	require.NoError(t, err)

	// The new entry starts at attempts=0, so the full ceiling is available
	// again and the second code verifies.
	for i := 0; i < domain.OTPMaxAttempts-1; i++ {
		assert.False(t, s.Verify("5551234", domain.PurposeLogin, "999998"))
	}
	assert.True(t, s.Verify("5551234", domain.PurposeLogin, second))
	_ = first
}

func TestVerify_SucceedsAtMostOnce(t *testing.T) {
	s := newOTPStoreAt(newFakeClock())
	code, err := s.Request("5551234", domain.PurposeRegister)
	require.NoError(t, err)

	assert.True(t, s.Verify("5551234", domain.PurposeRegister, code))
	assert.False(t, s.Verify("5551234", domain.PurposeRegister, code), "code must not be reusable")
}

func TestVerify_MissingEntry(t *testing.T) {
	s := newOTPStoreAt(newFakeClock())
	assert.False(t, s.Verify("5551234", domain.PurposeRegister, "123456"))
}

func TestVerify_PurposesAreIsolated(t *testing.T) {
	s := newOTPStoreAt(newFakeClock())
	code, err := s.Request("5551234", domain.PurposeRegister)
	require.NoError(t, err)

	assert.False(t, s.Verify("5551234", domain.PurposeLogin, code))
	assert.True(t, s.Verify("5551234", domain.PurposeRegister, code))
}

func TestVerify_ExpiredEntryDeleted(t *testing.T) {
	clk := newFakeClock()
	s := newOTPStoreAt(clk)

	code, err := s.Request("5551234", domain.PurposeReset)
	require.NoError(t, err)

	clk.Advance(domain.OTPTTL + time.Second)
	assert.False(t, s.Verify("5551234", domain.PurposeReset, code))

	// Entry is gone: a new request after the cooldown window issues a fresh entry.
	_, ok := s.entries[otpKey("5551234", domain.PurposeReset)]
	assert.False(t, ok)
}

func TestVerify_AttemptCeiling(t *testing.T) {
	s := newOTPStoreAt(newFakeClock())
	code, err := s.Request("5551234", domain.PurposeLogin)
	require.NoError(t, err)

	for i := 0; i < domain.OTPMaxAttempts; i++ {
		assert.False(t, s.Verify("5551234", domain.PurposeLogin, "wrong!"))
	}
	// 6th attempt fails even with the correct code, and the entry is gone.
	assert.False(t, s.Verify("5551234", domain.PurposeLogin, code))
	_, ok := s.entries[otpKey("5551234", domain.PurposeLogin)]
	assert.False(t, ok)

	// A fresh request starts over with attempts=0.
	fresh, err := s.Request("5551234", domain.PurposeLogin)
	require.NoError(t, err)
	assert.True(t, s.Verify("5551234", domain.PurposeLogin, fresh))
}

func TestVerify_ConcurrentAttemptsOnlyOneSucceeds(t *testing.T) {
	s := newOTPStoreAt(newFakeClock())
	code, err := s.Request("5551234", domain.PurposeLogin)
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.Verify("5551234", domain.PurposeLogin, code)
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent verify may pass")
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	clk := newFakeClock()
	s := newOTPStoreAt(clk)

	_, err := s.Request("1111111", domain.PurposeRegister)
	require.NoError(t, err)

	clk.Advance(domain.OTPTTL + time.Second)
	live, err := s.Request("2222222", domain.PurposeRegister)
	require.NoError(t, err)

	s.Sweep()

	assert.Len(t, s.entries, 1)
	assert.True(t, s.Verify("2222222", domain.PurposeRegister, live))
}
