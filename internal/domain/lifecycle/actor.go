package lifecycle

import "github.com/google/uuid"

// Role is the marketplace role a caller acts under.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Actor is the resolved identity behind a command.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Client, Provider and Admin build actors.
func Client(id uuid.UUID) Actor   { return Actor{ID: id, Role: RoleClient} }
func Provider(id uuid.UUID) Actor { return Actor{ID: id, Role: RoleProvider} }
func Admin(id uuid.UUID) Actor    { return Actor{ID: id, Role: RoleAdmin} }

// Is reports whether the actor has the role and identity given. A nil id never matches.
func (a Actor) Is(role Role, id *uuid.UUID) bool {
	return a.Role == role && id != nil && *id != uuid.Nil && a.ID == *id
}
