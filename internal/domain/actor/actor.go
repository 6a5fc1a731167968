package actor

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidRole = errors.New("invalid role")

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSecurity Role = "security"
	RoleAdmin    Role = "admin"
)

func NewRole(value string) (Role, error) {
	role := Role(value)
	switch role {
	case RoleCustomer, RoleSecurity, RoleAdmin:
		return role, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated identity attached to every operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func New(id uuid.UUID, role Role) Actor {
	return Actor{ID: id, Role: role}
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleSecurity || a.Role == RoleAdmin
}

// Permission predicates. Each operation in the lifecycle evaluates exactly
// one of these instead of comparing role strings inline.

func CanGateVerify(a Actor) bool {
	return a.IsStaff()
}

func CanGateCheckoutVerify(a Actor) bool {
	return a.IsStaff()
}

func CanViewLongStays(a Actor) bool {
	return a.IsStaff()
}

func CanCustomerCheckIn(a Actor, ownerID uuid.UUID) bool {
	return a.ID == ownerID
}

func CanRequestCheckout(a Actor, ownerID uuid.UUID) bool {
	return a.ID == ownerID
}

func CanFinalCheckout(a Actor, ownerID uuid.UUID) bool {
	return a.ID == ownerID
}

func CanCancel(a Actor, ownerID uuid.UUID) bool {
	return a.ID == ownerID || a.Role == RoleAdmin
}

func CanExtend(a Actor, ownerID uuid.UUID) bool {
	return a.ID == ownerID
}

func CanViewReservation(a Actor, ownerID uuid.UUID) bool {
	return a.ID == ownerID || a.IsStaff()
}
