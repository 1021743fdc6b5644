package rbac

import "strings"

type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleHR       Role = "HR"
	RoleAdmin    Role = "ADMIN"
)

func ParseRole(v string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(v))); r {
	case RoleEmployee, RoleHR, RoleAdmin:
		return r, true
	default:
		return "", false
	}
}

// Roles is the capability set granted to a caller.
type Roles []Role

// ParseRoles keeps the known roles of a token claim and drops the rest.
func ParseRoles(values []string) Roles {
	roles := make(Roles, 0, len(values))
	for _, v := range values {
		r, ok := ParseRole(v)
		if !ok || roles.Has(r) {
			continue
		}
		roles = append(roles, r)
	}
	return roles
}

func (r Roles) Has(role Role) bool {
	for _, granted := range r {
		if granted == role {
			return true
		}
	}
	return false
}

func (r Roles) Strings() []string {
	out := make([]string, len(r))
	for i, role := range r {
		out[i] = string(role)
	}
	return out
}
