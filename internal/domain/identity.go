package domain

// Role — роль вызывающего.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Identity — установленная личность вызывающего.
type Identity struct {
	Subject string
	Role    Role
}

// ParseRole приводит строковое значение к роли; неизвестные значения считаются USER.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// HasAnyRole проверяет, что у вызывающего одна из ролей.
func (i Identity) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}
