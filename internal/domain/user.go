package domain

import "time"

// User represents an account that can sign in and author blogs.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	ProfileImage string
	CreatedAt    time.Time
}
