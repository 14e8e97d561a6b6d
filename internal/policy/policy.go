// Package policy holds the single table-driven access decision function used
// by the application services. Role checks live here and nowhere else.
package policy

// Role identifies the privilege level carried by an authenticated actor.
type Role string

const (
	// RoleMember is an ordinary lab member.
	RoleMember Role = "member"
	// RoleLabManager administers the zones of a lab.
	RoleLabManager Role = "lab_manager"
	// RoleAdministrator has unrestricted access.
	RoleAdministrator Role = "administrator"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleLabManager, RoleAdministrator:
		return true
	}
	return false
}

// Action enumerates the operations subject to access control.
type Action string

const (
	ActionViewAvailability  Action = "view_availability"
	ActionViewReservations  Action = "view_reservations"
	ActionCreateBooking     Action = "create_booking"
	ActionCreateEvent       Action = "create_event"
	ActionCancelReservation Action = "cancel_reservation"
	ActionUpdateReservation Action = "update_reservation"
	ActionManageZones       Action = "manage_zones"
)

// Actions lists every controlled action, in a stable order for exhaustive tests.
func Actions() []Action {
	return []Action{
		ActionViewAvailability,
		ActionViewReservations,
		ActionCreateBooking,
		ActionCreateEvent,
		ActionCancelReservation,
		ActionUpdateReservation,
		ActionManageZones,
	}
}

// Roles lists every known role, in a stable order for exhaustive tests.
func Roles() []Role {
	return []Role{RoleMember, RoleLabManager, RoleAdministrator}
}

type grant int

const (
	denied grant = iota
	ownerOnly
	anyResource
)

var grants = map[Role]map[Action]grant{
	RoleMember: {
		ActionViewAvailability:  anyResource,
		ActionViewReservations:  ownerOnly,
		ActionCreateBooking:     ownerOnly,
		ActionCreateEvent:       denied,
		ActionCancelReservation: ownerOnly,
		ActionUpdateReservation: ownerOnly,
		ActionManageZones:       denied,
	},
	RoleLabManager: {
		ActionViewAvailability:  anyResource,
		ActionViewReservations:  anyResource,
		ActionCreateBooking:     anyResource,
		ActionCreateEvent:       anyResource,
		ActionCancelReservation: anyResource,
		ActionUpdateReservation: anyResource,
		ActionManageZones:       anyResource,
	},
	RoleAdministrator: {
		ActionViewAvailability:  anyResource,
		ActionViewReservations:  anyResource,
		ActionCreateBooking:     anyResource,
		ActionCreateEvent:       anyResource,
		ActionCancelReservation: anyResource,
		ActionUpdateReservation: anyResource,
		ActionManageZones:       anyResource,
	},
}

// CanPerform decides whether the role may perform the action. isOwner reports
// whether the acting user owns the resource the action targets; for actions
// without a target resource callers pass false. Unknown roles and actions are
// denied.
func CanPerform(role Role, action Action, isOwner bool) bool {
	actions, ok := grants[role]
	if !ok {
		return false
	}
	switch actions[action] {
	case anyResource:
		return true
	case ownerOnly:
		return isOwner
	default:
		return false
	}
}
