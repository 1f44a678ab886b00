package domain

import "time"

// AdminUser is an administrator identity. PasswordHash is an Argon2id PHC
// string; the plaintext is never stored or logged.
type AdminUser struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}
