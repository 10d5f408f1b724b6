package services

import (
	"errors"
	"fmt"
)

var (
	ErrOpportunityNotFound  = errors.New("opportunity not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidRole          = errors.New("target role is not recognized")
	ErrUserRoleMismatch     = errors.New("user does not hold the target role")
	ErrUnauthorized         = errors.New("actor is not authorized for this action")
	ErrIncompleteAssessment = errors.New("assessment is missing required sections")
	ErrStaleVersion         = errors.New("version conflict - opportunity was modified by another request")
)

// IllegalTransitionError reports an action attempted from a status/role
// combination not present in the transition table. It always names the
// current status and the attempted action so the boundary can render a
// precise message.
type IllegalTransitionError struct {
	Status string
	Action string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: action %s not allowed from status %s", e.Action, e.Status)
}

// ValidationError reports invalid caller input, naming the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}
