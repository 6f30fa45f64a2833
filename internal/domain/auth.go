package domain

// UserRole is the role claim carried by an access token.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleStaff UserRole = "staff"
)
