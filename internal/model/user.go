package model

import "time"

// RoleAdmin is the only role allowed on the admin surface.
const RoleAdmin = "ADMIN"

// User is an admin account stored in the `users` table. Handlers build
// their own response shapes, so no json tags here.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (ADMIN).
//  IsActive     – inactive accounts cannot log in.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken models a row in `refresh_tokens`. Only the SHA-256 hash of
// the raw token is persisted.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
