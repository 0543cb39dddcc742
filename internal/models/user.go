package models

import (
	"time"
)

// Role is the closed set of permission classes that gate screen access.
type Role string

const (
	RoleAdminGeneral Role = "admin_general"
	RoleSolicitante  Role = "solicitante"
	RoleAprobador    Role = "aprobador"
	RolePagadorBanca Role = "pagador_banca"
)

// AllRoles lists every valid role, in display order.
var AllRoles = []Role{RoleAdminGeneral, RoleSolicitante, RoleAprobador, RolePagadorBanca}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdminGeneral, RoleSolicitante, RoleAprobador, RolePagadorBanca:
		return true
	}
	return false
}

// User is a user record as served by the upstream API. Blocked is the single
// canonical access flag; upstream aliases are normalized away at the client
// edge and never appear past this type.
type User struct {
	ID                  int64
	Name                string
	Email               string
	Role                Role
	Active              bool
	Blocked             bool
	BlockedUntil        *time.Time // temporary block expiration, if any
	FailedLoginAttempts int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
