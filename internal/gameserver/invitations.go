package gameserver

import (
	"sync"
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
)

// invitation is a pending request from one identity to another.
type invitation struct {
	from      string
	to        string
	typ       battle.Type
	expiresAt time.Time
}

type pair struct{ from, to string }

// invitationBook holds pending invitations and per-pair request cooldowns.
// All methods are safe for concurrent use.
type invitationBook struct {
	mu       sync.Mutex
	cooldown time.Duration
	ttl      time.Duration
	pending  map[pair]invitation
	lastSent map[pair]time.Time
}

func newInvitationBook(cooldown, ttl time.Duration) *invitationBook {
	return &invitationBook{
		cooldown: cooldown,
		ttl:      ttl,
		pending:  make(map[pair]invitation),
		lastSent: make(map[pair]time.Time),
	}
}

// offer records an invitation from → to unless the ordered pair is on cooldown.
//
// Postcondition: On success the invitation is pending until now+ttl and the
// pair's cooldown restarts. Otherwise returns a *CooldownError and changes nothing.
func (b *invitationBook) offer(from, to string, typ battle.Type, now time.Time) (invitation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := pair{from, to}
	if last, ok := b.lastSent[key]; ok {
		if wait := b.cooldown - now.Sub(last); wait > 0 {
			return invitation{}, &CooldownError{TargetID: to, Remaining: wait}
		}
	}
	inv := invitation{from: from, to: to, typ: typ, expiresAt: now.Add(b.ttl)}
	b.pending[key] = inv
	b.lastSent[key] = now
	b.prune(now)
	return inv, nil
}

// take consumes the live invitation from → to of type typ.
func (b *invitationBook) take(from, to string, typ battle.Type, now time.Time) (invitation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := pair{from, to}
	inv, ok := b.pending[key]
	if !ok || inv.typ != typ {
		return invitation{}, false
	}
	delete(b.pending, key)
	if !now.Before(inv.expiresAt) {
		return invitation{}, false
	}
	return inv, true
}

// drop removes every pending invitation involving id. Cooldowns are kept.
func (b *invitationBook) drop(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for key := range b.pending {
		if key.from == id || key.to == id {
			delete(b.pending, key)
			n++
		}
	}
	return n
}

// prune forgets expired invitations and elapsed cooldowns.
//
// Precondition: b.mu is held.
func (b *invitationBook) prune(now time.Time) {
	for key, inv := range b.pending {
		if !now.Before(inv.expiresAt) {
			delete(b.pending, key)
		}
	}
	for key, last := range b.lastSent {
		if now.Sub(last) >= b.cooldown {
			delete(b.lastSent, key)
		}
	}
}

func (b *invitationBook) pendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
