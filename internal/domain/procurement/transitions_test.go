package procurement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []Status{StatusRequested, StatusPending, StatusRejected, StatusInTransit, StatusDelivered}
	allowed := map[[2]Status]bool{
		{StatusRequested, StatusPending}:   true,
		{StatusRequested, StatusRejected}:  true,
		{StatusPending, StatusInTransit}:   true,
		{StatusPending, StatusRejected}:    true,
		{StatusInTransit, StatusDelivered}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]Status{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusDelivered} {
		assert.True(t, s.IsTerminal())
		assert.Empty(t, NextStatuses(s))
	}
	assert.False(t, StatusInTransit.IsTerminal())
}
