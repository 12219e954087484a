package domain

// Role distinguishes the two kinds of authenticated users.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleDriver  Role = "DRIVER"
)

// Actor is the authenticated identity attached to every command. It is
// supplied by an external auth collaborator; this service only consumes it.
type Actor struct {
	ID   string
	Role Role
}
