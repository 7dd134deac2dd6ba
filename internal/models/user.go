package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"not null"`
	Email             string    `json:"email" gorm:"uniqueIndex;not null"` // exact match, case preserved
	Password          string    `json:"-" gorm:"not null"`                 // bcrypt hash, never serialized
	ProfilePicture    *string   `json:"profilePicture"`
	ProfilePictureRef *string   `json:"-"` // blob store reference for ProfilePicture
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UserCompact is the author/favouriter view embedded in post responses.
type UserCompact struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profilePicture"`
}

func (u User) ToCompact() UserCompact {
	return UserCompact{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
	}
}

type RegisterRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	ProfilePicture string `json:"profilePicture,omitempty" validate:"omitempty,datauri"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// UpdateProfileRequest carries a partial profile edit; nil fields are left untouched.
type UpdateProfileRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1"`
	ProfilePicture *string `json:"profilePicture,omitempty" validate:"omitempty,datauri"`
}

// Identity is the claim set carried by a session token.
type Identity struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// JwtCustomClaims is the signed token payload: the identity snapshot taken at login.
type JwtCustomClaims struct {
	Identity
	jwt.RegisteredClaims
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Identity
	Token string `json:"token"`
}
