package callctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCallStartsIdle(t *testing.T) {
	c := NewCall()
	assert.Equal(t, StateIdle, c.State)
}

func TestTransition(t *testing.T) {
	c := NewCall()
	c.Transition(StateSetup)
	assert.Equal(t, StateSetup, c.State)
	c.Transition(StateConnected)
	assert.Equal(t, StateConnected, c.State)
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	c := NewCall()
	r.Put(c)
	require.Equal(t, 1, r.Len())

	got, ok := r.Get(c.ID)
	require.True(t, ok)
	assert.Same(t, c, got)

	r.Remove(c.ID)
	assert.Equal(t, 0, r.Len())
	_, ok = r.Get(c.ID)
	assert.False(t, ok, "Get after Remove should report not found")
}

func TestNewCallWithID(t *testing.T) {
	var guid [16]byte
	for i := range guid {
		guid[i] = byte(i + 1)
	}
	c := NewCallWithID(guid)
	assert.Equal(t, guid, [16]byte(c.ID))
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateIdle:      "idle",
		StateSetup:     "setup",
		StateAlerting:  "alerting",
		StateConnected: "connected",
		StateReleasing: "releasing",
		StateCleared:   "cleared",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}
