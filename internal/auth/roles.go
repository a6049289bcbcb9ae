package auth

import "github.com/sikayetim/backend/internal/domain"

func IsSessionWithRole(s *Session, roles ...domain.UserRole) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

func IsAdmin(s *Session) bool {
	return IsSessionWithRole(s, domain.RoleAdmin)
}

// IsCompany is true only for approved representatives; COMPANY_PENDING does not count.
func IsCompany(s *Session) bool {
	return IsSessionWithRole(s, domain.RoleCompany)
}
