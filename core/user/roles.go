package user

import "github.com/semillerodigital/dashboard/core"

// Allowlist holds the emails granted the coordinator role.
type Allowlist struct {
	emails map[string]struct{}
}

// NewAllowlist builds an Allowlist; emails are matched case-insensitively.
func NewAllowlist(emails ...string) *Allowlist {
	al := &Allowlist{emails: make(map[string]struct{}, len(emails))}
	for _, email := range emails {
		if email = core.CleanString(email, true /* lower */); email != "" {
			al.emails[email] = struct{}{}
		}
	}
	return al
}

func (al *Allowlist) IsCoordinator(email string) bool {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return false
	}
	_, ok := al.emails[email]
	return ok
}

// RoleFor resolves the Role of the given email.
func (al *Allowlist) RoleFor(email string) Role {
	if al.IsCoordinator(email) {
		return RoleCoordinator
	}
	return RoleUser
}

// Resolve returns usr with its Role set from the allowlist.
func (al *Allowlist) Resolve(usr User) User {
	usr.Role = al.RoleFor(usr.Email)
	return usr
}
