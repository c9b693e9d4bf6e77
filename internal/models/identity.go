package models

import "strings"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// AuthenticatedUser is the optional signed-in overlay on top of the device
// identity. Token is the bearer credential presented to the order store.
type AuthenticatedUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Token       string `json:"token,omitempty"`
}

// Identity is who the current browsing context acts as. DeviceID is always
// present once provisioned; User is nil for anonymous shoppers.
type Identity struct {
	DeviceID string
	User     *AuthenticatedUser
}

func (i Identity) IsAdmin() bool {
	return i.User != nil && i.User.Role == RoleAdmin
}

// Email returns the signed-in user's normalised email, or "".
func (i Identity) Email() string {
	if i.User == nil {
		return ""
	}
	return NormalizeEmail(i.User.Email)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
