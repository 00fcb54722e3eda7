// Package access holds the authorization policy shared by every service.
package access

import (
	"github.com/angelmondragon/pharmacy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-backend/pkg/errors"
	"github.com/google/uuid"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID
	Role   enums.Role
}

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = Identity{}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != uuid.Nil
}

func (i Identity) IsAdmin() bool {
	return i.IsAuthenticated() && i.Role.IsAdmin()
}

type Resource string

const (
	ResourceCategory    Resource = "category"
	ResourceProduct     Resource = "product"
	ResourceCart        Resource = "cart"
	ResourceAddress     Resource = "address"
	ResourceOrder       Resource = "order"
	ResourceOrderStatus Resource = "order_status"
	ResourceProfile     Resource = "profile"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Target identifies the resource instance being acted on. Owner is the user
// that owns it; uuid.Nil means the resource has no owner or is a collection.
type Target struct {
	Resource Resource
	Owner    uuid.UUID
}

// On builds a Target for a collection or ownerless resource.
func On(resource Resource) Target {
	return Target{Resource: resource}
}

// OwnedBy builds a Target for a user-owned resource instance.
func OwnedBy(resource Resource, owner uuid.UUID) Target {
	return Target{Resource: resource, Owner: owner}
}

// Authorize decides whether identity may perform action on target.
//
// Catalog reads are public; catalog writes and order status changes are admin
// only. Carts, addresses, profiles and orders belong to their owner; admins may
// read any order. An owned resource seen by a non-owner yields NotFound so its
// existence is not revealed.
func Authorize(identity Identity, target Target, action Action) error {
	switch target.Resource {
	case ResourceCategory, ResourceProduct:
		if action == ActionRead || action == ActionList {
			return nil
		}
		return requireAdmin(identity)

	case ResourceOrderStatus:
		return requireAdmin(identity)

	case ResourceOrder:
		if !identity.IsAuthenticated() {
			return unauthenticated()
		}
		switch action {
		case ActionList, ActionCreate:
			return nil
		case ActionRead:
			if identity.IsAdmin() {
				return nil
			}
			return requireOwner(identity, target)
		default:
			return forbidden(target, action)
		}

	case ResourceCart, ResourceAddress, ResourceProfile:
		if !identity.IsAuthenticated() {
			return unauthenticated()
		}
		if action == ActionList || action == ActionCreate {
			return nil
		}
		return requireOwner(identity, target)

	default:
		return forbidden(target, action)
	}
}

func requireAdmin(identity Identity) error {
	if !identity.IsAuthenticated() {
		return unauthenticated()
	}
	if !identity.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "administrator access required")
	}
	return nil
}

func requireOwner(identity Identity, target Target) error {
	if target.Owner == uuid.Nil || target.Owner != identity.UserID {
		return pkgerrors.New(pkgerrors.CodeNotFound, string(target.Resource)+" not found")
	}
	return nil
}

func unauthenticated() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
}

func forbidden(target Target, action Action) error {
	return pkgerrors.New(pkgerrors.CodeForbidden, "action not permitted").
		WithDetails(map[string]any{"resource": target.Resource, "action": action})
}
