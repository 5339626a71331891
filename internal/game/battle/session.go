package battle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/observability"
)

// Type is the kind of battle.
type Type string

const (
	TypeTrainer Type = "trainer"
	TypeWild    Type = "wild"
)

// Valid reports whether t is a known battle type.
func (t Type) Valid() bool {
	return t == TypeTrainer || t == TypeWild
}

const (
	// DefaultTurnDuration is used when Config.TurnDuration is not positive.
	DefaultTurnDuration = 30 * time.Second
	// DefaultFleeChance is the probability that running from a wild battle succeeds.
	DefaultFleeChance = 0.70

	inboxSize = 32
)

// Config holds the per-session tuning knobs.
type Config struct {
	TurnDuration time.Duration
	// FleeChance is in [0, 1]; only wild battles consult it.
	FleeChance float64
}

// Deps are the collaborators a Session needs.
type Deps struct {
	Catalog    *catalog.Catalog
	Conditions *condition.Registry
	// Roller is the session's only source of randomness.
	Roller   *dice.Roller
	Notifier Notifier
	Logger   *zap.Logger
	// OpponentPolicy chooses every action of a synthetic participant.
	// Defaults to RandomMovePolicy.
	OpponentPolicy Policy
	// TimeoutPolicy chooses for real participants whose turn timer expired.
	// Defaults to StrugglePolicy.
	TimeoutPolicy Policy
	// OnEnd is called exactly once, on the session goroutine, when the battle
	// terminates. Defaults to AnnounceEnd.
	OnEnd func(ctx context.Context, s *Session, r Result)
}

type sessionMsg interface{ isSessionMsg() }

type submitMsg struct {
	participantID string
	action        Action
	reply         chan error
}

func (submitMsg) isSessionMsg() {}

type timerMsg struct{ turn int }

func (timerMsg) isSessionMsg() {}

// disconnectMsg with an empty participantID is a server-initiated termination.
type disconnectMsg struct {
	participantID string
	reason        string
}

func (disconnectMsg) isSessionMsg() {}

type forfeitMsg struct {
	participantID string
	reply         chan error
}

func (forfeitMsg) isSessionMsg() {}

type snapshotMsg struct{ reply chan Snapshot }

func (snapshotMsg) isSessionMsg() {}

// SideSnapshot is one participant's state at a point in time.
type SideSnapshot struct {
	ParticipantID string
	ActiveIndex   int
	Ready         bool
	Roster        []RosterEntry
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	SessionID string
	Type      Type
	Turn      int
	Phase     Phase
	Field     combat.Field
	Sides     [2]SideSnapshot
	// Result is set once the session has ended.
	Result *Result
}

// Session is one battle between two participants. Once started, all state is
// owned by a single goroutine that consumes the inbox in arrival order.
type Session struct {
	id           string
	typ          Type
	cfg          Config
	deps         Deps
	participants [2]*Participant
	field        combat.Field
	turn         int
	phase        *fsm.FSM
	resolver     *combat.Resolver
	timer        *combat.TurnTimer
	logger       *zap.Logger

	inbox chan sessionMsg
	done  chan struct{}

	// prep guards the preparation phase. Once started is set the session
	// goroutine owns all state and callers go through the inbox.
	prep    sync.Mutex
	started bool

	startedAt time.Time
	endedAt   time.Time
	result    *Result
	final     Snapshot
}

// NewSession creates a session in the preparation phase.
//
// Precondition: a and b must be distinct participants; deps.Catalog,
// deps.Conditions, deps.Roller and deps.Notifier must be non-nil.
// Postcondition: the session is in PhasePreparation with turn 1.
func NewSession(id string, typ Type, a, b *Participant, cfg Config, deps Deps) (*Session, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("unknown battle type %q", typ)
	}
	if a == nil || b == nil || a.ID == b.ID {
		return nil, errors.New("a battle needs two distinct participants")
	}
	if deps.Catalog == nil || deps.Conditions == nil || deps.Roller == nil || deps.Notifier == nil {
		return nil, errors.New("session dependencies must be non-nil")
	}
	if cfg.TurnDuration <= 0 {
		cfg.TurnDuration = DefaultTurnDuration
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.OpponentPolicy == nil {
		deps.OpponentPolicy = RandomMovePolicy{Rand: deps.Roller}
	}
	if deps.TimeoutPolicy == nil {
		deps.TimeoutPolicy = StrugglePolicy{}
	}
	logger := observability.SessionLogger(deps.Logger, id, string(typ))
	s := &Session{
		id:           id,
		typ:          typ,
		cfg:          cfg,
		deps:         deps,
		participants: [2]*Participant{a, b},
		turn:         1,
		phase:        newPhaseMachine(logger),
		resolver:     combat.NewResolver(deps.Conditions, deps.Roller),
		timer:        combat.NewTurnTimer(),
		logger:       logger,
		inbox:        make(chan sessionMsg, inboxSize),
		done:         make(chan struct{}),
	}
	if s.deps.OnEnd == nil {
		s.deps.OnEnd = func(_ context.Context, s *Session, r Result) { s.AnnounceEnd(r) }
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Type returns the battle type.
func (s *Session) Type() Type { return s.typ }

// ParticipantIDs returns both participant identities in seat order.
func (s *Session) ParticipantIDs() [2]string {
	return [2]string{s.participants[0].ID, s.participants[1].ID}
}

// HasParticipant reports whether id is one of the two participants.
func (s *Session) HasParticipant(id string) bool {
	return s.seat(id) >= 0
}

// Done is closed after the session has ended and its end handler has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) seat(id string) int {
	for i, p := range s.participants {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// SetField sets the battlefield conditions.
//
// Precondition: the session has not been started.
func (s *Session) SetField(f combat.Field) error {
	s.prep.Lock()
	defer s.prep.Unlock()
	if s.started {
		return ErrWrongPhase
	}
	s.field = f
	return nil
}

// LoadRosters fetches the party of every non-synthetic participant from loader.
// Fainted entries are dropped; the first remaining entry becomes active.
//
// Precondition: the session has not been started.
// Postcondition: on success every non-synthetic participant has at least one living combatant.
func (s *Session) LoadRosters(ctx context.Context, loader RosterLoader) error {
	s.prep.Lock()
	defer s.prep.Unlock()
	if s.started {
		return ErrWrongPhase
	}
	for _, p := range s.participants {
		if p.Synthetic {
			continue
		}
		entries, err := loader.LoadActiveRoster(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("loading roster for %s: %w", p.ID, err)
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Slot < entries[j].Slot })
		roster := make([]*combat.Combatant, 0, len(entries))
		slots := make([]int, 0, len(entries))
		for _, e := range entries {
			c, err := BuildCombatant(s.deps.Catalog, s.deps.Conditions, e)
			if err != nil {
				return fmt.Errorf("roster for %s: %w", p.ID, err)
			}
			if !c.Fainted() {
				roster = append(roster, c)
				slots = append(slots, e.Slot)
			}
		}
		if len(roster) == 0 {
			return fmt.Errorf("roster for %s: %w", p.ID, ErrNoLivingCombatant)
		}
		p.Roster = roster
		p.slots = slots
		p.active = 0
	}
	return nil
}

// Start moves the session from preparation to selection, sends battle_start to
// every real participant, arms the turn timer and launches the session goroutine.
// The session runs until it terminates or ctx is cancelled.
//
// Precondition: ctx must outlive the battle; every participant must have a living combatant.
// Postcondition: on success the session is in PhaseSelection at turn 1.
func (s *Session) Start(ctx context.Context) error {
	s.prep.Lock()
	defer s.prep.Unlock()
	if s.started {
		return ErrWrongPhase
	}
	for _, p := range s.participants {
		idx := p.firstLiving()
		if idx < 0 {
			return fmt.Errorf("%s: %w", p.ID, ErrNoLivingCombatant)
		}
		if p.Active() == nil || p.Active().Fainted() {
			p.active = idx
		}
	}
	if err := s.transition(ctx, eventStart); err != nil {
		return err
	}
	s.started = true
	s.startedAt = time.Now()
	s.logger.Info("battle started",
		zap.String("participant_a", s.participants[0].ID),
		zap.String("participant_b", s.participants[1].ID),
		zap.Duration("turn_duration", s.cfg.TurnDuration),
	)
	s.broadcastView(MsgBattleStart, nil)
	s.armTimer()
	go s.loop(ctx)
	return nil
}

// Submit records participantID's action for the current turn. When both
// participants are ready the turn resolves before Submit returns.
//
// Postcondition: returns nil iff the action was accepted.
func (s *Session) Submit(ctx context.Context, participantID string, action Action) error {
	reply := make(chan error, 1)
	err, callErr := call(ctx, s, submitMsg{participantID: participantID, action: action, reply: reply}, reply)
	if callErr != nil {
		return callErr
	}
	return err
}

// Forfeit ends the battle with participantID conceding.
func (s *Session) Forfeit(ctx context.Context, participantID string) error {
	reply := make(chan error, 1)
	err, callErr := call(ctx, s, forfeitMsg{participantID: participantID, reply: reply}, reply)
	if callErr != nil {
		return callErr
	}
	return err
}

// Disconnect ends the battle because participantID dropped. It returns once the
// request is queued; wait on Done for termination.
func (s *Session) Disconnect(participantID string) error {
	return s.post(disconnectMsg{participantID: participantID, reason: "participant disconnected"})
}

// Terminate ends the battle without a winner. It returns once the request is
// queued; wait on Done for termination.
func (s *Session) Terminate(reason string) error {
	return s.post(disconnectMsg{reason: reason})
}

// Snapshot returns a consistent copy of the session's state. After the session
// has ended it returns the final state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	s.prep.Lock()
	if !s.started {
		defer s.prep.Unlock()
		return s.snapshot(), nil
	}
	s.prep.Unlock()
	reply := make(chan Snapshot, 1)
	snap, err := call(ctx, s, snapshotMsg{reply: reply}, reply)
	if errors.Is(err, ErrSessionEnded) {
		return s.final, nil
	}
	return snap, err
}

func (s *Session) post(m sessionMsg) error {
	if s.ended() {
		return ErrSessionEnded
	}
	select {
	case s.inbox <- m:
		return nil
	case <-s.done:
		return ErrSessionEnded
	}
}

// call sends m and waits for its reply. A reply that raced with the session
// ending still wins over ErrSessionEnded.
func call[T any](ctx context.Context, s *Session, m sessionMsg, reply chan T) (T, error) {
	var zero T
	if s.ended() {
		return zero, ErrSessionEnded
	}
	select {
	case s.inbox <- m:
	case <-s.done:
		return zero, ErrSessionEnded
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrSessionEnded
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (s *Session) ended() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.end(ctx, Result{Kind: ResultDisconnect, Reason: "server shutdown"})
			return
		case m := <-s.inbox:
			s.handle(ctx, m)
			if s.result != nil {
				return
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, m sessionMsg) {
	switch msg := m.(type) {
	case submitMsg:
		err := s.submit(msg.participantID, msg.action)
		if err == nil {
			s.resolveIfReady(ctx)
		} else {
			s.logger.Debug("action rejected",
				zap.String("participant_id", msg.participantID),
				zap.String("action", msg.action.Kind.String()),
				zap.Error(err),
			)
		}
		msg.reply <- err
	case timerMsg:
		s.onTimeout(ctx, msg.turn)
	case disconnectMsg:
		s.onDisconnect(ctx, msg)
	case forfeitMsg:
		seat := s.seat(msg.participantID)
		if seat < 0 {
			msg.reply <- ErrNotParticipant
			return
		}
		s.end(ctx, Result{
			Kind:     ResultForfeit,
			WinnerID: s.participants[1-seat].ID,
			LoserID:  msg.participantID,
		})
		msg.reply <- nil
	case snapshotMsg:
		msg.reply <- s.snapshot()
	}
}

func (s *Session) submit(participantID string, a Action) error {
	seat := s.seat(participantID)
	if seat < 0 {
		return ErrNotParticipant
	}
	if !s.phase.Is(string(PhaseSelection)) {
		return ErrWrongPhase
	}
	p := s.participants[seat]
	if p.Ready() {
		return ErrAlreadySubmitted
	}
	if err := s.validate(p, a); err != nil {
		return err
	}
	p.pending = &a
	return nil
}

func (s *Session) validate(p *Participant, a Action) error {
	active := p.Active()
	switch a.Kind {
	case combat.ActionMove:
		if a.MoveID == catalog.StruggleID {
			if active.HasUsableMove() {
				return fmt.Errorf("%w: struggle is only allowed when no move has PP left", ErrInvalidAction)
			}
			return nil
		}
		slot, ok := active.Move(a.MoveID)
		if !ok {
			return fmt.Errorf("%w: %s does not know %q", ErrInvalidAction, active.Name, a.MoveID)
		}
		if !slot.Usable() {
			return fmt.Errorf("%w: %q has no PP left", ErrInvalidAction, a.MoveID)
		}
		return nil
	case combat.ActionSwitch:
		if a.SwitchIndex < 0 || a.SwitchIndex >= len(p.Roster) {
			return fmt.Errorf("%w: no roster slot %d", ErrInvalidAction, a.SwitchIndex)
		}
		return nil
	case combat.ActionRun:
		if s.typ != TypeWild {
			return ErrRunNotAllowed
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown action kind", ErrInvalidAction)
	}
}

// legalize turns a policy's choice into an action the combatant can perform.
// Struggle is always legal as a fallback, even with PP left.
func (s *Session) legalize(p *Participant, a Action) Action {
	if a.Kind == combat.ActionMove && a.MoveID == catalog.StruggleID {
		return a
	}
	if a.Kind == combat.ActionRun && (p.Synthetic || s.typ != TypeWild) {
		return s.fallbackMove(p)
	}
	if s.validate(p, a) != nil {
		return s.fallbackMove(p)
	}
	return a
}

func (s *Session) fallbackMove(p *Participant) Action {
	if usable := p.Active().UsableMoves(); len(usable) > 0 {
		return MoveAction(usable[0])
	}
	return StruggleAction()
}

func (s *Session) situation(seat int) Situation {
	return Situation{
		SessionID: s.id,
		Turn:      s.turn,
		Self:      s.participants[seat].Active(),
		Opponent:  s.participants[1-seat].Active(),
		Catalog:   s.deps.Catalog,
	}
}

// resolveIfReady lets the opponent policy choose for synthetic participants and
// resolves the turn once everyone is ready.
func (s *Session) resolveIfReady(ctx context.Context) {
	for seat, p := range s.participants {
		if p.Synthetic && !p.Ready() {
			a := s.legalize(p, s.deps.OpponentPolicy.Choose(s.situation(seat)))
			p.pending = &a
		}
	}
	for _, p := range s.participants {
		if !p.Ready() {
			return
		}
	}
	s.resolveTurn(ctx)
}

func (s *Session) onTimeout(ctx context.Context, turn int) {
	if turn != s.turn || !s.phase.Is(string(PhaseSelection)) {
		s.logger.Debug("stale turn timer ignored", zap.Int("timer_turn", turn), zap.Int("turn", s.turn))
		return
	}
	for seat, p := range s.participants {
		if p.Ready() {
			continue
		}
		policy := s.deps.TimeoutPolicy
		if p.Synthetic {
			policy = s.deps.OpponentPolicy
		}
		a := s.legalize(p, policy.Choose(s.situation(seat)))
		p.pending = &a
		s.logger.Info("turn timer expired; fallback action applied",
			zap.String("participant_id", p.ID),
			zap.Int("turn", s.turn),
			zap.String("action", a.Kind.String()),
			zap.String("move_id", a.MoveID),
		)
	}
	s.resolveTurn(ctx)
}

func (s *Session) onDisconnect(ctx context.Context, m disconnectMsg) {
	r := Result{Kind: ResultDisconnect, Reason: m.reason}
	if seat := s.seat(m.participantID); seat >= 0 {
		r.LoserID = m.participantID
		r.WinnerID = s.participants[1-seat].ID
	}
	s.end(ctx, r)
}

// resolveTurn executes both pending actions in priority order, then applies
// end-of-turn effects and starts the next turn.
//
// Precondition: every participant has a pending action.
func (s *Session) resolveTurn(ctx context.Context) {
	s.timer.Stop()
	if err := s.transition(ctx, eventResolve); err != nil {
		s.logger.Error("entering processing", zap.Error(err))
		return
	}

	intents := make([]combat.Intent, len(s.participants))
	for i, p := range s.participants {
		intents[i] = combat.Intent{Actor: i, Kind: p.pending.Kind, Speed: p.Active().EffectiveSpeed()}
	}
	order := combat.OrderActions(intents, s.deps.Roller.CoinFlip)

	for _, in := range order {
		p := s.participants[in.Actor]
		opp := s.participants[1-in.Actor]
		a := *p.pending
		switch a.Kind {
		case combat.ActionSwitch:
			s.executeSwitch(p, a)
		case combat.ActionRun:
			if s.executeRun(ctx, p, opp) {
				return
			}
		default:
			s.executeMove(p, opp, a)
		}
		if s.checkTermination(ctx) {
			return
		}
	}

	var log []string
	for _, p := range s.participants {
		if _, msgs := s.resolver.EndOfTurn(p.Active()); len(msgs) > 0 {
			log = append(log, msgs...)
		}
	}
	if s.checkTermination(ctx) {
		return
	}
	for _, p := range s.participants {
		if p.Active().Fainted() {
			prev := p.Active()
			p.active = p.firstLiving()
			prev.SwitchOut()
			log = append(log, fmt.Sprintf("%s sent out %s!", p.Name, p.Active().Name))
		}
	}

	for _, p := range s.participants {
		p.clearPending()
	}
	s.turn++
	if err := s.transition(ctx, eventNext); err != nil {
		s.logger.Error("entering selection", zap.Error(err))
		return
	}
	s.broadcastView(MsgBattleUpdate, log)
	s.armTimer()
}

func (s *Session) executeMove(p, opp *Participant, a Action) {
	move, ok := s.deps.Catalog.Move(a.MoveID)
	if !ok || a.MoveID == catalog.StruggleID {
		move = s.deps.Catalog.Struggle()
	}
	out := s.resolver.UseMove(p.Active(), opp.Active(), move, s.field)
	if len(out.Messages) == 0 {
		return
	}
	s.logger.Debug("move resolved",
		zap.String("participant_id", p.ID),
		zap.String("move_id", out.MoveID),
		zap.Int("damage", out.Damage),
		zap.Float64("effectiveness", out.Effectiveness),
		zap.Bool("missed", out.Missed),
	)
	s.emitAction(p, AnimationPayload{
		Action:        combat.ActionMove.String(),
		MoveID:        out.MoveID,
		MoveName:      out.MoveName,
		Damage:        out.Damage,
		Effectiveness: out.Effectiveness,
		Missed:        out.Missed,
		Recoil:        out.Recoil,
		StageChanges:  out.StageChanges,
		Condition:     out.Condition,
		Messages:      out.Messages,
	})
}

// executeSwitch is a no-op when the requested slot is fainted or already active.
func (s *Session) executeSwitch(p *Participant, a Action) {
	var msgs []string
	target := p.Roster[a.SwitchIndex]
	if a.SwitchIndex == p.active || target.Fainted() {
		msgs = append(msgs, fmt.Sprintf("%s couldn't switch!", p.Name))
	} else {
		prev := p.Active()
		prev.SwitchOut()
		p.active = a.SwitchIndex
		msgs = append(msgs,
			fmt.Sprintf("%s, come back!", prev.Name),
			fmt.Sprintf("%s sent out %s!", p.Name, target.Name),
		)
	}
	idx := p.active
	s.emitAction(p, AnimationPayload{
		Action:      combat.ActionSwitch.String(),
		SwitchIndex: &idx,
		Messages:    msgs,
	})
}

// executeRun reports whether the runner escaped and the session ended.
func (s *Session) executeRun(ctx context.Context, p, opp *Participant) bool {
	threshold := int(math.Round(s.cfg.FleeChance * 100))
	escaped := s.deps.Roller.Percent(threshold)
	msg := "Can't escape!"
	if escaped {
		msg = "Got away safely!"
	}
	s.emitAction(p, AnimationPayload{Action: combat.ActionRun.String(), Messages: []string{msg}})
	if !escaped {
		return false
	}
	s.end(ctx, Result{Kind: ResultFled, WinnerID: opp.ID, LoserID: p.ID})
	return true
}

// checkTermination ends the session when a side has no living combatant.
func (s *Session) checkTermination(ctx context.Context) bool {
	a, b := s.participants[0], s.participants[1]
	switch da, db := a.Defeated(), b.Defeated(); {
	case da && db:
		s.end(ctx, Result{Kind: ResultDraw})
	case da:
		s.end(ctx, Result{Kind: ResultKnockout, WinnerID: b.ID, LoserID: a.ID})
	case db:
		s.end(ctx, Result{Kind: ResultKnockout, WinnerID: a.ID, LoserID: b.ID})
	default:
		return false
	}
	return true
}

// end terminates the session. Only the first call has any effect.
func (s *Session) end(ctx context.Context, r Result) {
	if s.result != nil {
		return
	}
	s.timer.Stop()
	if err := s.transition(ctx, eventEnd); err != nil {
		s.logger.Error("entering ended", zap.Error(err))
	}
	s.result = &r
	s.endedAt = time.Now()
	s.final = s.snapshot()
	s.logger.Info("battle ended",
		zap.String("result", string(r.Kind)),
		zap.String("winner_id", r.WinnerID),
		zap.String("loser_id", r.LoserID),
		zap.String("reason", r.Reason),
		zap.Int("turns", s.turn),
	)
	s.deps.OnEnd(context.WithoutCancel(ctx), s, r)
}

// transition fires a phase event. Phase changes are bookkeeping and must not be
// abandoned because a caller's context was cancelled.
func (s *Session) transition(ctx context.Context, event string) error {
	return s.phase.Event(context.WithoutCancel(ctx), event)
}

func (s *Session) armTimer() {
	turn := s.turn
	s.timer.Arm(s.cfg.TurnDuration, func() {
		select {
		case s.inbox <- timerMsg{turn: turn}:
		case <-s.done:
		}
	})
}

// emitAction sends battle_animation followed by a mirrored battle_update.
func (s *Session) emitAction(p *Participant, payload AnimationPayload) {
	payload.SessionID = s.id
	payload.Turn = s.turn
	payload.ActorID = p.ID
	for _, q := range s.participants {
		if !q.Synthetic {
			s.deps.Notifier.Send(q.ID, Message{Type: MsgBattleAnimation, Data: payload})
		}
	}
	s.broadcastView(MsgBattleUpdate, payload.Messages)
}

func (s *Session) broadcastView(msgType string, log []string) {
	for seat, p := range s.participants {
		if p.Synthetic {
			continue
		}
		s.deps.Notifier.Send(p.ID, Message{Type: msgType, Data: s.View(seat, log)})
	}
}

// View renders the session from the perspective of the participant in seat.
// The opponent's stats, moves and bench are hidden.
func (s *Session) View(seat int, log []string) BattleView {
	return BattleView{
		SessionID:  s.id,
		BattleType: s.typ,
		Turn:       s.turn,
		Phase:      Phase(s.phase.Current()),
		Weather:    s.field.Weather,
		Self:       sideView(s.participants[seat], true),
		Opponent:   sideView(s.participants[1-seat], false),
		Log:        log,
	}
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		Type:      s.typ,
		Turn:      s.turn,
		Phase:     Phase(s.phase.Current()),
		Field:     s.field,
		Result:    s.result,
	}
	for i, p := range s.participants {
		snap.Sides[i] = SideSnapshot{
			ParticipantID: p.ID,
			ActiveIndex:   p.active,
			Ready:         p.Ready(),
			Roster:        s.roster(p),
		}
	}
	return snap
}

func (s *Session) roster(p *Participant) []RosterEntry {
	entries := make([]RosterEntry, len(p.Roster))
	for i, c := range p.Roster {
		entries[i] = SnapshotEntry(p.slot(i), c)
	}
	return entries
}

// AnnounceEnd sends battle_end with the mirrored outcome to every real participant.
//
// Precondition: called from the end handler, on the session goroutine.
func (s *Session) AnnounceEnd(r Result) {
	for _, p := range s.participants {
		if p.Synthetic {
			continue
		}
		s.deps.Notifier.Send(p.ID, Message{Type: MsgBattleEnd, Data: EndPayload{
			SessionID: s.id,
			Result:    r.OutcomeFor(p.ID),
			Kind:      r.Kind,
			WinnerID:  r.WinnerID,
			Turns:     s.turn,
			Message:   EndMessage(r, p.ID),
		}})
	}
}

// BuildRecord summarizes the finished battle.
//
// Precondition: called from the end handler, on the session goroutine.
// Postcondition: the record shares no memory with the session.
func (s *Session) BuildRecord() Record {
	rec := Record{
		SessionID:      s.id,
		BattleType:     s.typ,
		ParticipantIDs: s.ParticipantIDs(),
		Turns:          s.turn,
		Rosters:        make(map[string][]RosterEntry, len(s.participants)),
		StartedAt:      s.startedAt,
		EndedAt:        s.endedAt,
	}
	if s.result != nil {
		rec.Result = *s.result
	}
	for _, p := range s.participants {
		rec.Rosters[p.ID] = s.roster(p)
	}
	return rec
}
