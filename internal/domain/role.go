package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of scopes an account may carry. The string code is
// what goes into the JWT scope claim, so values here must stay stable.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole maps a scope code to a known role.
func ParseRole(code string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(code))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrRoleNotFound, code)
	}
}

func (r Role) String() string { return string(r) }
