package domain

// Role constants define the allowed session roles.
const (
	RoleUser = "user"
)

// ValidRoles returns the set of valid session roles.
func ValidRoles() []string {
	return []string{RoleUser}
}

// IsValidRole checks whether the given role string is a valid session role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}
