// Package models holds the persistence-level data structures of accountd.
package models

import "time"

// User is the persisted account record. PasswordHash and RefreshToken must
// never leave the server; use Public when building API responses.
type User struct {
	ID           string
	Username     string
	Fullname     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	RefreshToken string // empty when no session is active
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the sanitized client-facing view of a User. It carries
// neither the password hash nor the stored refresh token.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns the sanitized view of the user.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Fullname:  u.Fullname,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
