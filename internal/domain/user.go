package domain

import "time"

// Role names embedded in the access-token roles claim.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	UserID        string    `json:"id" dynamodbav:"user_id"`
	Phone         string    `json:"phone" dynamodbav:"phone"`
	Email         *string   `json:"email,omitempty" dynamodbav:"email"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	DisplayName   string    `json:"display_name" dynamodbav:"display_name"`
	Bio           string    `json:"bio,omitempty" dynamodbav:"bio"`
	AvatarURL     string    `json:"avatar_url,omitempty" dynamodbav:"avatar_url"`
	Roles         []string  `json:"roles" dynamodbav:"roles"`
	Languages     []string  `json:"languages" dynamodbav:"languages"`
	City          string    `json:"city,omitempty" dynamodbav:"city"`
	PhoneVerified bool      `json:"phone_verified" dynamodbav:"phone_verified"`
	EmailVerified bool      `json:"email_verified" dynamodbav:"email_verified"`
	Enable        bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PasswordResetToken is an e-mail reset link token.
// PK: token. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type PasswordResetToken struct {
	Token     string `json:"-" dynamodbav:"token"`
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

type RegisterRequest struct {
	Phone              string `json:"phone" validate:"required"`
	Password           string `json:"password" validate:"required,min=8,max=72"`
	DisplayName        string `json:"display_name" validate:"required"`
	RegistrationTicket string `json:"registration_ticket" validate:"required"`
}

type UpdateUserRequest struct {
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	Languages   *[]string `json:"languages"`
	City        *string   `json:"city"`
	Email       *string   `json:"email" validate:"omitempty,email"`
}
