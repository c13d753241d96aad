package services

import (
	"github.com/codrzexl/UniHub/internal/models"
)

// Action names a protected mutation.
type Action string

const (
	ActionSolveDoubt  Action = "doubt:solve"
	ActionDeleteDoubt Action = "doubt:delete"
	ActionCreateEvent Action = "event:create"
)

// Can is the single capability check for role- and ownership-gated actions.
// New roles or actions extend the switch without touching call sites.
func Can(user *models.User, action Action, resource interface{}) bool {
	if user == nil {
		return false
	}

	switch action {
	case ActionSolveDoubt, ActionDeleteDoubt:
		doubt, ok := resource.(*models.Doubt)
		return ok && doubt.AskedByID == user.ID
	case ActionCreateEvent:
		return user.Role == models.RoleFaculty
	default:
		return false
	}
}
