package gameserver_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/gameserver"
)

// recorder is a Notifier that keeps every message per recipient.
type recorder struct {
	mu   sync.Mutex
	msgs map[string][]battle.Message
}

func newRecorder() *recorder {
	return &recorder{msgs: make(map[string][]battle.Message)}
}

func (r *recorder) Send(id string, msg battle.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs[id] = append(r.msgs[id], msg)
}

func (r *recorder) ofType(id, typ string) []battle.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []battle.Message
	for _, m := range r.msgs[id] {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) last(t testing.TB, id, typ string) battle.Message {
	t.Helper()
	msgs := r.ofType(id, typ)
	require.NotEmpty(t, msgs, "no %s message for %s", typ, id)
	return msgs[len(msgs)-1]
}

// fakeRosters serves parties from memory and records written-back state.
type fakeRosters struct {
	mu      sync.Mutex
	parties map[string][]battle.RosterEntry
	saved   map[string][]battle.RosterEntry
	saveErr error
	// holds parks LoadActiveRoster for an id until the channel is closed;
	// loading is told which id is parked.
	holds   map[string]chan struct{}
	loading chan string
}

func newFakeRosters() *fakeRosters {
	return &fakeRosters{
		parties: make(map[string][]battle.RosterEntry),
		saved:   make(map[string][]battle.RosterEntry),
	}
}

func (f *fakeRosters) set(id string, entries ...battle.RosterEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parties[id] = entries
}

// hold makes the next loads for id wait until the returned release is called.
func (f *fakeRosters) hold(id string) (loading <-chan string, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holds == nil {
		f.holds = make(map[string]chan struct{})
		f.loading = make(chan string, 4)
	}
	gate := make(chan struct{})
	f.holds[id] = gate
	var once sync.Once
	return f.loading, func() { once.Do(func() { close(gate) }) }
}

func (f *fakeRosters) LoadActiveRoster(ctx context.Context, id string) ([]battle.RosterEntry, error) {
	f.mu.Lock()
	gate := f.holds[id]
	f.mu.Unlock()
	if gate != nil {
		f.loading <- id
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	entries, ok := f.parties[id]
	if !ok {
		return nil, errors.New("trainer has no party")
	}
	out := make([]battle.RosterEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (f *fakeRosters) SaveRosterState(_ context.Context, id string, entries []battle.RosterEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[id] = entries
	return nil
}

func (f *fakeRosters) savedFor(id string) ([]battle.RosterEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.saved[id]
	return e, ok
}

type fakeRecords struct {
	mu      sync.Mutex
	records []battle.Record
	err     error
}

func (f *fakeRecords) SaveBattleRecord(_ context.Context, rec battle.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRecords) all() []battle.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]battle.Record, len(f.records))
	copy(out, f.records)
	return out
}

// fakePresence is both Presence and MovementGate.
type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
	locked map[string]bool
}

func newFakePresence(ids ...string) *fakePresence {
	p := &fakePresence{online: make(map[string]bool), locked: make(map[string]bool)}
	for _, id := range ids {
		p.online[id] = true
	}
	return p
}

func (p *fakePresence) IsOnline(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[id]
}

func (p *fakePresence) DisplayName(id string) string {
	if id == "" {
		return ""
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

func (p *fakePresence) setOnline(id string, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[id] = online
}

func (p *fakePresence) SetMovementLocked(id string, locked bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked[id] = locked
}

func (p *fakePresence) isLocked(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locked[id]
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	coord    *gameserver.Coordinator
	rec      *recorder
	rosters  *fakeRosters
	records  *fakeRecords
	presence *fakePresence
	clock    *fakeClock
	cat      *catalog.Catalog
}

func testSettings() gameserver.Settings {
	return gameserver.Settings{
		Session:        battle.Config{TurnDuration: time.Hour, FleeChance: battle.DefaultFleeChance},
		InviteCooldown: 30 * time.Second,
		InviteTTL:      time.Minute,
		PersistTimeout: time.Second,
		Seed:           1,
	}
}

func newHarness(t testing.TB) *harness {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	conds, err := condition.DefaultRegistry()
	require.NoError(t, err)

	h := &harness{
		rec:      newRecorder(),
		rosters:  newFakeRosters(),
		records:  &fakeRecords{},
		presence: newFakePresence("alice", "bob", "carol"),
		clock:    &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)},
		cat:      cat,
	}
	h.coord, err = gameserver.NewCoordinator(testSettings(), gameserver.Deps{
		Catalog:    cat,
		Conditions: conds,
		Rosters:    h.rosters,
		Records:    h.records,
		Presence:   h.presence,
		Movement:   h.presence,
		Notifier:   h.rec,
		Logger:     zap.NewNop(),
		Now:        h.clock.Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.coord.Shutdown(ctx)
	})
	return h
}

// entry builds a roster entry with IVs of 20 and full PP. hp above the maximum is clamped.
func (h *harness) entry(t testing.TB, slot int, species string, level, hp int, moves ...string) battle.RosterEntry {
	t.Helper()
	e := battle.RosterEntry{
		Slot:      slot,
		Species:   species,
		Level:     level,
		IVs:       combat.Stats{HP: 20, Attack: 20, Defense: 20, SpecialAttack: 20, SpecialDefense: 20, Speed: 20},
		CurrentHP: hp,
	}
	for _, id := range moves {
		m, ok := h.cat.Move(id)
		require.True(t, ok, "move %s", id)
		e.Moves = append(e.Moves, combat.MoveSlot{MoveID: id, PP: m.PP, MaxPP: m.PP})
	}
	return e
}

const full = 999

// lopsided gives alice a charizard that knocks out bob's one-HP rattata with
// its first action.
func (h *harness) lopsided(t testing.TB) {
	t.Helper()
	h.rosters.set("alice", h.entry(t, 0, "charizard", 50, full, "flamethrower"))
	h.rosters.set("bob", h.entry(t, 0, "rattata", 2, 1, "growl"))
}

// even gives alice and bob sturdy parties that survive several turns.
func (h *harness) even(t testing.TB) {
	t.Helper()
	h.rosters.set("alice", h.entry(t, 0, "pikachu", 20, full, "growl", "thunder-shock"))
	h.rosters.set("bob", h.entry(t, 0, "rattata", 20, full, "tail-whip", "tackle"))
}
