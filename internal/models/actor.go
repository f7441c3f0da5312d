package models

// Role identifies which aggregate an authenticated caller owns
type Role string

const (
	RoleMentor  Role = "mentor"
	RoleStudent Role = "student"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleMentor || r == RoleStudent
}

// Actor is the authenticated caller of a service operation
type Actor struct {
	Role Role
	ID   string
}

// IsMentor reports whether the actor owns a mentor aggregate
func (a Actor) IsMentor() bool { return a.Role == RoleMentor }

// IsStudent reports whether the actor owns a student aggregate
func (a Actor) IsStudent() bool { return a.Role == RoleStudent }
