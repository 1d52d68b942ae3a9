package domain

import "errors"

var (
	// ErrUserNotFound signals that no account matches the given identifier.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthenticated covers bad passwords, inactive accounts, and refresh token mismatches.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUsernameExists signals a registration conflict on username.
	ErrUsernameExists = errors.New("username already exists")
	// ErrEmailExists signals a registration conflict on email.
	ErrEmailExists = errors.New("email already exists")
	// ErrPhoneExists signals a registration conflict on phone number.
	ErrPhoneExists = errors.New("phone number already exists")
	// ErrOtpInvalid signals an OTP mismatch during password reset.
	ErrOtpInvalid = errors.New("otp invalid")
	// ErrAccountDisabled signals a federated login against a deactivated account.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrFederationFailed wraps any failure talking to the external identity provider.
	ErrFederationFailed = errors.New("oauth2 authentication failed")
	// ErrUpstreamUnavailable wraps transient store or network failures.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrRoleNotFound signals an unknown role code; treated as misconfiguration, not user error.
	ErrRoleNotFound = errors.New("role not found")
)
