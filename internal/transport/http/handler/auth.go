package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/planbana/go-api/internal/application/auth"
	"github.com/planbana/go-api/internal/config"
	"github.com/planbana/go-api/internal/domain"
	"github.com/planbana/go-api/internal/pkg/validate"
	"github.com/planbana/go-api/internal/transport/http/middleware"
)

// AuthHandler exposes the verification and session endpoints.
type AuthHandler struct {
	svc       auth.Service
	accessTTL time.Duration
	devMode   bool
}

func NewAuthHandler(svc auth.Service, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		svc:       svc,
		accessTTL: cfg.AccessTokenTTL,
		devMode:   cfg.IsDev(),
	}
}

type otpRequest struct {
	Phone   string `json:"phone" validate:"required"`
	Purpose string `json:"purpose" validate:"required"`
}

type otpVerifyRequest struct {
	Phone   string `json:"phone" validate:"required"`
	Purpose string `json:"purpose" validate:"required"`
	OTP     string `json:"otp" validate:"required"`
}

type loginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginVerifyRequest struct {
	Phone string `json:"phone" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type passwordResetRequest struct {
	Phone string `json:"phone" validate:"required"`
}

// resetPasswordRequest serves both reset paths: a mailed link token, or a
// reset-purpose OTP against the phone.
type resetPasswordRequest struct {
	Token       string `json:"token"`
	Phone       string `json:"phone"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// RequestOTP issues (or re-issues) a purpose-bound code for the phone.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	purpose, err := domain.ParsePurpose(req.Purpose)
	if err != nil {
		httpError(w, err)
		return
	}
	code, err := h.svc.RequestOTP(r.Context(), req.Phone, purpose)
	if err != nil {
		httpError(w, err)
		return
	}
	resp := MessageEnvelope{Message: "OTP sent"}
	if h.devMode {
		resp.DevOTP = code
	}
	writeJSON(w, http.StatusOK, resp)
}

// VerifyOTP checks a code. register-purpose success carries a one-time
// registration ticket.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	purpose, err := domain.ParsePurpose(req.Purpose)
	if err != nil {
		httpError(w, err)
		return
	}
	grant, err := h.svc.VerifyOTP(r.Context(), req.Phone, purpose, req.OTP)
	if err != nil {
		httpError(w, err)
		return
	}
	if grant == nil {
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "phone verified"})
		return
	}
	writeJSON(w, http.StatusOK, TicketEnvelope{
		Message:            "phone verified",
		RegistrationTicket: grant.Ticket,
		ExpiresIn:          grant.ExpiresIn,
	})
}

// Register redeems a registration ticket into a new, logged-in account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	h.setAccessCookie(w, res.AccessToken)
	writeJSON(w, http.StatusCreated, authEnvelope(res))
}

// Login verifies the password and triggers the login OTP.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	code, err := h.svc.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	resp := MessageEnvelope{Message: "OTP sent"}
	if h.devMode {
		resp.DevOTP = code
	}
	writeJSON(w, http.StatusOK, resp)
}

// LoginVerifyOTP completes the two-factor login.
func (h *AuthHandler) LoginVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req loginVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.svc.LoginVerifyOTP(r.Context(), req.Phone, req.OTP)
	if err != nil {
		httpError(w, err)
		return
	}
	h.setAccessCookie(w, res.AccessToken)
	writeJSON(w, http.StatusOK, authEnvelope(res))
}

// Refresh exchanges a refresh token for a fresh access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	access, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpError(w, err)
		return
	}
	h.setAccessCookie(w, access)
	writeJSON(w, http.StatusOK, AuthEnvelope{AccessToken: access})
}

// Logout clears the access cookie. Tokens are stateless, so the client must
// also discard its copies; the server keeps no session to revoke.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.clearAccessCookie(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

// RequestPasswordReset responds identically whether or not the phone is
// registered.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), req.Phone); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "if the phone is registered, reset instructions were sent"})
}

// ResetPassword sets a new password via either a mailed link token or a
// reset-purpose OTP.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var err error
	switch {
	case req.Token != "":
		err = h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword)
	case req.Phone != "" && req.OTP != "":
		err = h.svc.ResetPasswordWithOTP(r.Context(), req.Phone, req.OTP, req.NewPassword)
	default:
		writeError(w, http.StatusBadRequest, "token or phone+otp required")
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password updated"})
}

func (h *AuthHandler) setAccessCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
