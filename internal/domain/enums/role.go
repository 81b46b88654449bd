package enums

import "strings"

type Role string

const (
	RoleJobseeker Role = "jobseeker"
	RoleEmployer  Role = "employer"
)

func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

func (r Role) Valid() bool {
	return r == RoleJobseeker || r == RoleEmployer
}

// Opposite returns the counterpart role of a swipe pair.
func (r Role) Opposite() Role {
	if r == RoleJobseeker {
		return RoleEmployer
	}
	return RoleJobseeker
}
