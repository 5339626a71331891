package battle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// fixedSrc is a deterministic Source for testing; values are clamped into range.
// fixedSrc{99} makes every roll its maximum: 100-accuracy moves hit, chance
// effects never trigger, damage variance is 100 and coin flips come up tails.
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

func maxRolls() dice.Source { return fixedSrc{val: 99} }

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

func (r *recorder) all(id string) []battle.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]battle.Message, len(r.msgs[id]))
	copy(out, r.msgs[id])
	return out
}

func (r *recorder) ofType(id, typ string) []battle.Message {
	var out []battle.Message
	for _, m := range r.all(id) {
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

func (r *recorder) animations(id string) []battle.AnimationPayload {
	var out []battle.AnimationPayload
	for _, m := range r.ofType(id, battle.MsgBattleAnimation) {
		out = append(out, m.Data.(battle.AnimationPayload))
	}
	return out
}

func testCatalog(t testing.TB) (*catalog.Catalog, *condition.Registry) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	conds, err := condition.DefaultRegistry()
	require.NoError(t, err)
	return cat, conds
}

func testDeps(t testing.TB, src dice.Source, n battle.Notifier) battle.Deps {
	t.Helper()
	cat, conds := testCatalog(t)
	return battle.Deps{
		Catalog:    cat,
		Conditions: conds,
		Roller:     dice.NewLoggedRoller(src, zap.NewNop()),
		Notifier:   n,
		Logger:     zap.NewNop(),
	}
}

// entry builds a roster entry with IVs of 20 at full PP. hp above the maximum is clamped.
func entry(t testing.TB, slot int, species string, level, hp int, moves ...string) battle.RosterEntry {
	t.Helper()
	cat, _ := testCatalog(t)
	e := battle.RosterEntry{
		Slot:      slot,
		Species:   species,
		Level:     level,
		IVs:       combat.Stats{HP: 20, Attack: 20, Defense: 20, SpecialAttack: 20, SpecialDefense: 20, Speed: 20},
		CurrentHP: hp,
	}
	for _, id := range moves {
		m, ok := cat.Move(id)
		require.True(t, ok, "move %s", id)
		e.Moves = append(e.Moves, combat.MoveSlot{MoveID: id, PP: m.PP, MaxPP: m.PP})
	}
	return e
}

const full = 999

func rosters(r map[string][]battle.RosterEntry) battle.RosterLoader {
	return battle.RosterLoaderFunc(func(_ context.Context, id string) ([]battle.RosterEntry, error) {
		entries, ok := r[id]
		if !ok {
			return nil, errors.New("no roster")
		}
		out := make([]battle.RosterEntry, len(entries))
		copy(out, entries)
		return out, nil
	})
}

// startTrainer starts an alice-vs-bob trainer battle with an hour-long turn timer.
func startTrainer(t testing.TB, deps battle.Deps, alice, bob []battle.RosterEntry) *battle.Session {
	t.Helper()
	return startTrainerWith(t, deps, battle.Config{TurnDuration: time.Hour}, alice, bob)
}

func startTrainerWith(t testing.TB, deps battle.Deps, cfg battle.Config, alice, bob []battle.RosterEntry) *battle.Session {
	t.Helper()
	s, err := battle.NewSession("sess-1", battle.TypeTrainer,
		battle.NewParticipant("alice", "Alice"), battle.NewParticipant("bob", "Bob"), cfg, deps)
	require.NoError(t, err)
	require.NoError(t, s.LoadRosters(context.Background(), rosters(map[string][]battle.RosterEntry{
		"alice": alice,
		"bob":   bob,
	})))
	require.NoError(t, s.Start(context.Background()))
	stopOnCleanup(t, s)
	return s
}

func stopOnCleanup(t testing.TB, s *battle.Session) {
	t.Cleanup(func() {
		_ = s.Terminate("test finished")
		<-s.Done()
	})
}

func snapshot(t testing.TB, s *battle.Session) battle.Snapshot {
	t.Helper()
	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func hpOf(snap battle.Snapshot, side, slot int) int {
	return snap.Sides[side].Roster[slot].CurrentHP
}
