package domain

import "time"

// Account represents a schedule-app user able to authenticate against the service.
// The auth core owns Password and Otp; everything else belongs to the CRUD layer.
type Account struct {
	ID          int64
	Username    string
	FullName    string
	Email       string
	Password    string
	IsActive    bool
	Gender      *bool
	BirthDate   *time.Time
	Otp         string
	AvatarURL   string
	PhoneNumber string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
