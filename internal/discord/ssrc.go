package discord

import "sync"

// SSRCTable maintains the mapping between RTP synchronization sources and
// Discord user IDs. SSRCs are stable for a speaker's session but not across
// reconnects, so when a user shows up on a new SSRC the stale forward entry
// must go, or the table leaks over long sessions.
type SSRCTable struct {
	mu         sync.RWMutex
	ssrcToUser map[uint32]uint64
	userToSSRC map[uint64]uint32
}

// NewSSRCTable creates an empty table.
func NewSSRCTable() *SSRCTable {
	return &SSRCTable{
		ssrcToUser: make(map[uint32]uint64),
		userToSSRC: make(map[uint64]uint32),
	}
}

// Map records that user is currently transmitting on ssrc. A previous SSRC
// held by the same user is forgotten.
func (t *SSRCTable) Map(ssrc uint32, user uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.userToSSRC[user]; ok && prev != ssrc && t.ssrcToUser[prev] == user {
		delete(t.ssrcToUser, prev)
	}
	t.userToSSRC[user] = ssrc
	t.ssrcToUser[ssrc] = user
}

// Resolve returns the user currently mapped to ssrc.
func (t *SSRCTable) Resolve(ssrc uint32) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	user, ok := t.ssrcToUser[ssrc]
	return user, ok
}

// SSRCs returns every currently mapped SSRC.
func (t *SSRCTable) SSRCs() []uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]uint32, 0, len(t.ssrcToUser))
	for ssrc := range t.ssrcToUser {
		out = append(out, ssrc)
	}
	return out
}
