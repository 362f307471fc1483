package support

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("  Active ")
	require.NoError(t, err)
	require.Equal(t, StatusActive, status)

	_, err = ParseStatus("closed")
	require.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ParseStatus("")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTransitionTable(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusActive, StatusResolved}: true,
		{StatusActive, StatusArchived}: true,
		{StatusResolved, StatusActive}: true,
		{StatusArchived, StatusActive}: true,
	}

	for _, from := range Statuses() {
		for _, to := range Statuses() {
			err := Transition(from, to)
			if allowed[[2]Status{from, to}] {
				require.NoError(t, err, "%s -> %s should be allowed", from, to)
				continue
			}
			require.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s should be rejected", from, to)
		}
	}
}

func TestTransitionNoDirectResolvedArchivedEdge(t *testing.T) {
	require.ErrorIs(t, Transition(StatusResolved, StatusArchived), ErrInvalidTransition)
	require.ErrorIs(t, Transition(StatusArchived, StatusResolved), ErrInvalidTransition)

	// Either direction requires passing back through active.
	require.NoError(t, Transition(StatusResolved, StatusActive))
	require.NoError(t, Transition(StatusActive, StatusArchived))
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	require.ErrorIs(t, Transition(Status("deleted"), StatusActive), ErrInvalidStatus)
	require.ErrorIs(t, Transition(StatusActive, Status("")), ErrInvalidStatus)
}
