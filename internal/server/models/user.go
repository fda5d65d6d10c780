package models

import "time"

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Nickname     string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
