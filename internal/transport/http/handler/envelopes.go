package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/planbana/go-api/internal/application/auth"
	"github.com/planbana/go-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	// DevOTP carries the plaintext code in dev deployments only.
	DevOTP string `json:"dev_otp,omitempty"`
}

// TicketEnvelope is returned from a successful register-purpose verification.
type TicketEnvelope struct {
	Message            string `json:"message"`
	RegistrationTicket string `json:"registration_ticket"`
	ExpiresIn          int    `json:"expires_in_seconds"`
}

// AuthEnvelope wraps responses that establish a session.
type AuthEnvelope struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	User         *SafeUser `json:"user,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// SafeUser is the public projection of an account.
type SafeUser struct {
	ID            string   `json:"id"`
	Phone         string   `json:"phone"`
	Email         *string  `json:"email,omitempty"`
	DisplayName   string   `json:"display_name"`
	Bio           string   `json:"bio,omitempty"`
	AvatarURL     string   `json:"avatar_url,omitempty"`
	Roles         []string `json:"roles"`
	Languages     []string `json:"languages"`
	City          string   `json:"city,omitempty"`
	PhoneVerified bool     `json:"phone_verified"`
	EmailVerified bool     `json:"email_verified"`
}

func toSafeUser(u *domain.User) *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		ID:            u.UserID,
		Phone:         u.Phone,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		Bio:           u.Bio,
		AvatarURL:     u.AvatarURL,
		Roles:         u.Roles,
		Languages:     u.Languages,
		City:          u.City,
		PhoneVerified: u.PhoneVerified,
		EmailVerified: u.EmailVerified,
	}
}

func authEnvelope(res *auth.AuthResult) AuthEnvelope {
	return AuthEnvelope{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         toSafeUser(res.User),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinels to status codes. Unrecognized errors are
// reported as a bare 500 without the underlying message.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
