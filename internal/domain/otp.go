package domain

import (
	"fmt"
	"strings"
	"time"
)

// Purpose is the intent an OTP is requested under. It is a closed set;
// anything else is rejected at the boundary.
type Purpose string

const (
	PurposeRegister Purpose = "register"
	PurposeLogin    Purpose = "login"
	PurposeReset    Purpose = "reset"
)

// ParsePurpose normalizes and validates a raw purpose string.
func ParsePurpose(raw string) (Purpose, error) {
	switch p := Purpose(strings.ToLower(strings.TrimSpace(raw))); p {
	case PurposeRegister, PurposeLogin, PurposeReset:
		return p, nil
	default:
		return "", fmt.Errorf("purpose must be one of: register, login, reset: %w", ErrBadRequest)
	}
}

// OTP and registration-ticket lifecycle parameters. Fixed by design, not
// configuration: clients depend on the cooldown and attempt ceiling.
const (
	OTPTTL                = 5 * time.Minute
	OTPResendCooldown     = 30 * time.Second
	OTPMaxAttempts        = 5
	RegistrationTicketTTL = 24 * time.Hour
)

// ConsumeResult is the terminal outcome of redeeming a registration ticket.
type ConsumeResult int

const (
	ConsumeOK ConsumeResult = iota
	ConsumeNotFound
	ConsumePhoneMismatch
	ConsumeExpired
)

func (r ConsumeResult) String() string {
	switch r {
	case ConsumeOK:
		return "OK"
	case ConsumeNotFound:
		return "NOT_FOUND"
	case ConsumePhoneMismatch:
		return "PHONE_MISMATCH"
	case ConsumeExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}
