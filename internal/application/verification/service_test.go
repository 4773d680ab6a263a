package verification

import (
	"testing"

	"github.com/planbana/go-api/internal/domain"
	"github.com/planbana/go-api/internal/infrastructure/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() Service {
	return NewService(memstore.NewOTPStore(), memstore.NewTicketStore())
}

func TestRequestAndVerify_NormalizesPhone(t *testing.T) {
	svc := newTestService()

	code, err := svc.RequestCode("+1 (555) 1234", domain.PurposeRegister)
	require.NoError(t, err)

	// Differently formatted renderings of the same number address the same entry.
	assert.True(t, svc.VerifyCode("15551234", domain.PurposeRegister, code))
}

func TestRequestCode_CooldownIsPerNormalizedKey(t *testing.T) {
	svc := newTestService()

	a, err := svc.RequestCode("555 1234", domain.PurposeLogin)
	require.NoError(t, err)
	b, err := svc.RequestCode("5551234", domain.PurposeLogin)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRegistrationTicket_RoundTrip(t *testing.T) {
	svc := newTestService()

	id, ttl, err := svc.IssueRegistrationTicket("555-1234")
	require.NoError(t, err)
	assert.Equal(t, 86400, ttl)

	assert.Equal(t, domain.ConsumeOK, svc.ConsumeRegistrationTicket(id, "5551234"))
	assert.Equal(t, domain.ConsumeNotFound, svc.ConsumeRegistrationTicket(id, "5551234"))
}

func TestRegistrationTicket_MismatchBurns(t *testing.T) {
	svc := newTestService()

	id, _, err := svc.IssueRegistrationTicket("5551234")
	require.NoError(t, err)

	assert.Equal(t, domain.ConsumePhoneMismatch, svc.ConsumeRegistrationTicket(id, "9999999"))
	assert.Equal(t, domain.ConsumeNotFound, svc.ConsumeRegistrationTicket(id, "5551234"))
}
