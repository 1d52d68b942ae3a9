package service

import "time"

// TokenPair is the result of a credential login. RefreshToken is empty on
// flows that issue access tokens only.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterInput carries the self-service registration form. Role is the
// optional role code; empty means USER.
type RegisterInput struct {
	Username    string
	Password    string
	FullName    string
	Email       string
	PhoneNumber string
	AvatarURL   string
	Gender      *bool
	BirthDate   *time.Time
	Role        string
}

// IntrospectResult reports whether a presented access token is currently
// usable. For invalid tokens only Active is meaningful.
type IntrospectResult struct {
	Active    bool
	Subject   string
	AccountID int64
	Scope     string
	ExpiresAt time.Time
}

// SendOTPResult identifies the account a reset code was delivered to. Callers
// pass AccountID back on the check and change-password steps.
type SendOTPResult struct {
	AccountID int64
	Email     string
}

// UniqueCheckInput holds the candidate values to probe for availability.
// Empty fields are skipped.
type UniqueCheckInput struct {
	Username    string
	Email       string
	PhoneNumber string
}

// UniqueCheck reports per-field availability; true means the value is free.
type UniqueCheck struct {
	Username    bool
	Email       bool
	PhoneNumber bool
}
