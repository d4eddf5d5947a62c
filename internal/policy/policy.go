// Package policy decides which actor may act on a task.
//
// Each rule is a plain predicate over the actor's user ID and the task.
// An empty actor ID never matches.
package policy

import (
	"errors"
	"fmt"

	"taskflow-api/internal/models"
)

// ErrForbidden is returned when the actor fails the rule for an action.
var ErrForbidden = errors.New("this action is unauthorized")

// Action names an operation guarded by a rule.
type Action string

const (
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionAssign Action = "assign"
)

// Rule reports whether actorID may perform an action on task.
type Rule func(actorID string, task *models.Task) bool

func isAssignee(actorID string, task *models.Task) bool {
	return actorID != "" && task.AssigneeID == actorID
}

func isCreator(actorID string, task *models.Task) bool {
	return actorID != "" && task.CreatorID == actorID
}

// CanView: assignee only.
func CanView(actorID string, task *models.Task) bool {
	return isAssignee(actorID, task)
}

// CanUpdate covers field edits and the completion toggle: assignee only.
func CanUpdate(actorID string, task *models.Task) bool {
	return isAssignee(actorID, task)
}

// CanDelete: assignee or creator.
func CanDelete(actorID string, task *models.Task) bool {
	return isAssignee(actorID, task) || isCreator(actorID, task)
}

// CanAssign: creator only.
func CanAssign(actorID string, task *models.Task) bool {
	return isCreator(actorID, task)
}

func isParticipant(actorID string, task *models.Task) bool {
	return isAssignee(actorID, task) || isCreator(actorID, task)
}

// Mode selects the view/update scope.
type Mode string

const (
	// ModeAssignee restricts view and update to the assignee.
	ModeAssignee Mode = "assignee"
	// ModeShared lets the creator view and update as well.
	ModeShared Mode = "shared"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAssignee, ModeShared:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown task policy %q", s)
}

// Policy is a table of rules keyed by action.
type Policy struct {
	mode  Mode
	rules map[Action]Rule
}

// New builds the rule table for mode. Unknown modes fall back to ModeAssignee.
func New(mode Mode) *Policy {
	rules := map[Action]Rule{
		ActionView:   CanView,
		ActionUpdate: CanUpdate,
		ActionDelete: CanDelete,
		ActionAssign: CanAssign,
	}
	if mode == ModeShared {
		rules[ActionView] = isParticipant
		rules[ActionUpdate] = isParticipant
	} else {
		mode = ModeAssignee
	}
	return &Policy{mode: mode, rules: rules}
}

// Mode returns the active view/update scope.
func (p *Policy) Mode() Mode {
	return p.mode
}

// Allows reports whether actorID may perform action on task.
func (p *Policy) Allows(action Action, actorID string, task *models.Task) bool {
	rule, ok := p.rules[action]
	if !ok || task == nil {
		return false
	}
	return rule(actorID, task)
}

// Authorize returns ErrForbidden unless the action is allowed.
func (p *Policy) Authorize(action Action, actorID string, task *models.Task) error {
	if !p.Allows(action, actorID, task) {
		return fmt.Errorf("%s task: %w", action, ErrForbidden)
	}
	return nil
}
