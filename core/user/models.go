package user

import "strings"

// Role is the access level of a signed in User.
type Role string

// Roles
const (
	// RoleCoordinator may browse every course of the organization.
	RoleCoordinator Role = "coordinator"
	// RoleUser may only browse the courses they teach or are enrolled in.
	RoleUser Role = "user"
)

var Roles = []Role{RoleCoordinator, RoleUser}

func (r Role) IsCoordinator() bool { return r == RoleCoordinator }

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User is the identity resolved from the Google account that signed in.
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Role    Role   `json:"role"`
}

func (u User) IsCoordinator() bool { return u.Role.IsCoordinator() }

// Initial returns the upper-cased first letter of the User's name, or "?".
func (u User) Initial() string {
	for _, r := range strings.TrimSpace(u.Name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}
