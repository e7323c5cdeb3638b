package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSRCTableMapAndResolve(t *testing.T) {
	table := NewSSRCTable()

	_, ok := table.Resolve(100)
	assert.False(t, ok)

	table.Map(100, 7)
	user, ok := table.Resolve(100)
	require.True(t, ok)
	assert.Equal(t, uint64(7), user)
}

func TestSSRCTableRemapRemovesStaleEntry(t *testing.T) {
	table := NewSSRCTable()

	table.Map(100, 7)
	table.Map(200, 7) // reconnect: same user, new SSRC

	_, ok := table.Resolve(100)
	assert.False(t, ok, "frames on the old SSRC are from an unknown speaker now")

	user, ok := table.Resolve(200)
	require.True(t, ok)
	assert.Equal(t, uint64(7), user)

	assert.ElementsMatch(t, []uint32{200}, table.SSRCs())
}

func TestSSRCTableRemapSameSSRCIsNoop(t *testing.T) {
	table := NewSSRCTable()

	table.Map(100, 7)
	table.Map(100, 7)

	user, ok := table.Resolve(100)
	require.True(t, ok)
	assert.Equal(t, uint64(7), user)
	assert.Len(t, table.SSRCs(), 1)
}

func TestSSRCTableMultipleUsers(t *testing.T) {
	table := NewSSRCTable()

	table.Map(100, 7)
	table.Map(200, 8)

	assert.ElementsMatch(t, []uint32{100, 200}, table.SSRCs())

	// An SSRC taken over by another user resolves to the new one.
	table.Map(100, 9)
	user, _ := table.Resolve(100)
	assert.Equal(t, uint64(9), user)
}
