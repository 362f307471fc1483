package support

import (
	"fmt"
	"strings"
)

// Status is a conversation's lifecycle state. Status tabs in the widget are
// keyed 1:1 to these values.
type Status string

const (
	StatusActive   Status = "active"
	StatusResolved Status = "resolved"
	StatusArchived Status = "archived"
)

// Statuses lists all lifecycle states in tab order.
func Statuses() []Status {
	return []Status{StatusActive, StatusResolved, StatusArchived}
}

// transitions is the complete edge set of the lifecycle. There is no
// resolved<->archived edge; both directions pass through active.
var transitions = map[Status][]Status{
	StatusActive:   {StatusResolved, StatusArchived},
	StatusResolved: {StatusActive},
	StatusArchived: {StatusActive},
}

// ParseStatus normalizes and validates a status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case StatusActive, StatusResolved, StatusArchived:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// CanTransition reports whether from -> to is a legal staff-initiated edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns ErrInvalidTransition for any
// edge outside the lifecycle table.
func Transition(from, to Status) error {
	if _, err := ParseStatus(string(from)); err != nil {
		return err
	}
	if _, err := ParseStatus(string(to)); err != nil {
		return err
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
