package store

import (
	"fmt"

	"github.com/erazemk/arsenal/internal/model"
)

// authorizeCommand allows admins and the commander of any of the given bases.
func authorizeCommand(actor model.Actor, action string, baseIDs ...int64) error {
	if actor.IsAdmin() {
		return nil
	}
	for _, id := range baseIDs {
		if actor.CommandsBase(id) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s requires admin or base commander of the base", ErrUnauthorized, action)
}

// authorizeRegister allows admins, logistics officers, and the base's commander
// to bring new stock onto the books.
func authorizeRegister(actor model.Actor, baseID int64) error {
	switch {
	case actor.IsAdmin(), actor.Role == model.RoleLogisticsOfficer, actor.CommandsBase(baseID):
		return nil
	}
	return fmt.Errorf("%w: registering assets at base %d", ErrUnauthorized, baseID)
}

// authorizeRequest allows any known role to request a transfer, except that a
// base commander may only send stock out of their own base.
func authorizeRequest(actor model.Actor, fromBase int64) error {
	if !model.ValidRole(actor.Role) {
		return fmt.Errorf("%w: unknown role", ErrUnauthorized)
	}
	if actor.Role == model.RoleBaseCommander && !actor.CommandsBase(fromBase) {
		return fmt.Errorf("%w: base commanders may only transfer out of their own base", ErrUnauthorized)
	}
	return nil
}
