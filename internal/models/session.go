package models

type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps an arbitrary role string from the remote API onto the
// known set, defaulting to RoleUser for unknown non-empty values and
// RoleGuest for empty ones.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleGuest, RoleUser, RoleAdmin:
		return Role(s)
	case "":
		return RoleGuest
	default:
		return RoleUser
	}
}

// User is the profile returned inside login/register responses.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
