// Package gameserver hosts the battle coordinator: the registry of live battle
// sessions, the invitation handshake, inbound message routing and the cleanup
// that follows every battle.
package gameserver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// DefaultPersistTimeout bounds the writes performed when a battle ends.
const DefaultPersistTimeout = 5 * time.Second

// Settings are the coordinator's tuning knobs.
type Settings struct {
	Session        battle.Config
	InviteCooldown time.Duration
	InviteTTL      time.Duration
	PersistTimeout time.Duration
	// Seed, when non-zero, seeds every session's dice deterministically.
	Seed uint64
}

// SettingsFrom maps the battle configuration section onto Settings.
func SettingsFrom(cfg config.BattleConfig) Settings {
	return Settings{
		Session: battle.Config{
			TurnDuration: cfg.TurnDuration,
			FleeChance:   cfg.FleeChance,
		},
		InviteCooldown: cfg.InviteCooldown,
		InviteTTL:      cfg.InviteTTL,
		PersistTimeout: cfg.PersistTimeout,
		Seed:           cfg.Seed,
	}
}

// Deps are the collaborators a Coordinator needs.
type Deps struct {
	Catalog    *catalog.Catalog
	Conditions *condition.Registry
	Rosters    RosterStore
	Records    RecordStore
	Presence   Presence
	Movement   MovementGate
	Notifier   battle.Notifier
	Logger     *zap.Logger
	// NewOpponentPolicy builds the wild-side policy for a session from the
	// session's roller. nil uses the session default.
	NewOpponentPolicy func(r *dice.Roller) battle.Policy
	// TimeoutPolicy chooses for participants whose turn timer expired. nil uses
	// the session default.
	TimeoutPolicy battle.Policy
	// Now reads the clock for invitations and cooldowns. nil uses time.Now.
	Now func() time.Time
}

// Coordinator owns every live battle session.
//
// The registry maps sessionID → session and participantID → sessionID; both
// maps change together under mu. An identity is claimed for a session id before
// its roster loads, so participants may point at a claim that has no session
// yet. All methods are safe for concurrent use.
type Coordinator struct {
	settings Settings
	deps     Deps
	logger   *zap.Logger
	invites  *invitationBook
	seq      atomic.Uint64

	// runCtx parents every session loop; it outlives the requests that create sessions.
	runCtx    context.Context
	cancelRun context.CancelFunc

	mu           sync.RWMutex
	sessions     map[string]*battle.Session
	participants map[string]string
	claims       map[string]*claim
	closing      bool
}

// claim reserves identities for a session that is still loading rosters.
type claim struct {
	ids  []string
	gone []string // disconnected while loading
}

// NewCoordinator creates a Coordinator.
//
// Precondition: deps.Catalog, deps.Conditions, deps.Rosters, deps.Records,
// deps.Presence, deps.Movement and deps.Notifier must be non-nil.
// Postcondition: Returns a Coordinator with an empty registry.
func NewCoordinator(settings Settings, deps Deps) (*Coordinator, error) {
	if deps.Catalog == nil || deps.Conditions == nil || deps.Rosters == nil || deps.Records == nil ||
		deps.Presence == nil || deps.Movement == nil || deps.Notifier == nil {
		return nil, errors.New("gameserver: coordinator dependencies must be non-nil")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if settings.PersistTimeout <= 0 {
		settings.PersistTimeout = DefaultPersistTimeout
	}
	runCtx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		settings:     settings,
		deps:         deps,
		logger:       deps.Logger,
		invites:      newInvitationBook(settings.InviteCooldown, settings.InviteTTL),
		runCtx:       runCtx,
		cancelRun:    cancel,
		sessions:     make(map[string]*battle.Session),
		participants: make(map[string]string),
		claims:       make(map[string]*claim),
	}, nil
}

// newRoller returns the dice for one session.
func (c *Coordinator) newRoller(sessionID string) *dice.Roller {
	var src dice.Source
	if c.settings.Seed != 0 {
		src = dice.NewSeededSource(c.settings.Seed + c.seq.Add(1) - 1)
	} else {
		src = dice.NewCryptoSource()
	}
	return dice.NewLoggedRoller(src, c.logger.With(zap.String("session_id", sessionID)))
}

func (c *Coordinator) sessionDeps(sessionID string) battle.Deps {
	roller := c.newRoller(sessionID)
	deps := battle.Deps{
		Catalog:       c.deps.Catalog,
		Conditions:    c.deps.Conditions,
		Roller:        roller,
		Notifier:      c.deps.Notifier,
		Logger:        c.logger,
		TimeoutPolicy: c.deps.TimeoutPolicy,
		OnEnd:         c.EndBattle,
	}
	if c.deps.NewOpponentPolicy != nil {
		deps.OpponentPolicy = c.deps.NewOpponentPolicy(roller)
	}
	return deps
}

// busy reports whether id is claimed by a loading or running session.
func (c *Coordinator) busy(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.participants[id]
	return ok
}

// claimFor reserves ids for sessionID. Either every id is claimed or none is.
func (c *Coordinator) claimFor(sessionID string, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return ErrShuttingDown
	}
	for _, id := range ids {
		if _, taken := c.participants[id]; taken {
			return fmt.Errorf("%s: %w", id, ErrAlreadyInBattle)
		}
	}
	for _, id := range ids {
		c.participants[id] = sessionID
	}
	c.claims[sessionID] = &claim{ids: ids}
	return nil
}

// release drops the claim for a session that will not be launched.
func (c *Coordinator) release(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(sessionID)
}

func (c *Coordinator) releaseLocked(sessionID string) {
	cl, ok := c.claims[sessionID]
	if !ok {
		return
	}
	delete(c.claims, sessionID)
	for _, id := range cl.ids {
		if c.participants[id] == sessionID {
			delete(c.participants, id)
		}
	}
}

// SessionFor returns the id of the running session id is battling in.
func (c *Coordinator) SessionFor(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sid, ok := c.participants[id]
	if !ok {
		return "", false
	}
	if _, running := c.sessions[sid]; !running {
		return "", false
	}
	return sid, true
}

// ActiveSessions returns the number of registered sessions.
func (c *Coordinator) ActiveSessions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// InitiateBattle creates and starts a trainer battle between a and b.
//
// Precondition: a and b are distinct authenticated identities.
// Postcondition: On success both identities map to the new running session and
// their movement is locked. On ErrRosterLoad both are sent battle_error and
// nothing is registered. Both identities count as busy from the moment the
// roster load begins; one that disconnects during the load ends the battle
// with a disconnect result as soon as it starts.
func (c *Coordinator) InitiateBattle(ctx context.Context, a, b string, typ battle.Type) (*battle.Session, error) {
	if typ != battle.TypeTrainer {
		return nil, fmt.Errorf("%w: %q battles are started with a wild encounter", ErrInvalidRequest, typ)
	}
	if a == "" || b == "" || a == b {
		return nil, fmt.Errorf("%w: a battle needs two distinct trainers", ErrInvalidRequest)
	}
	if battle.IsSynthetic(a) || battle.IsSynthetic(b) {
		return nil, fmt.Errorf("%w: synthetic identities cannot be challenged", ErrInvalidRequest)
	}

	id := uuid.NewString()
	if err := c.claimFor(id, a, b); err != nil {
		return nil, err
	}
	s, err := battle.NewSession(id, battle.TypeTrainer,
		battle.NewParticipant(a, c.deps.Presence.DisplayName(a)),
		battle.NewParticipant(b, c.deps.Presence.DisplayName(b)),
		c.settings.Session, c.sessionDeps(id))
	if err != nil {
		c.release(id)
		return nil, err
	}
	if err := s.LoadRosters(ctx, c.deps.Rosters); err != nil {
		c.release(id)
		c.rosterFailure(id, []string{a, b}, err)
		return nil, fmt.Errorf("%w: %w", ErrRosterLoad, err)
	}
	if err := c.launch(s); err != nil {
		return nil, err
	}
	return s, nil
}

// InitiateWildBattle creates and starts a battle between participant and a
// generated wild opponent.
//
// Precondition: spec passes WildSpec.Validate.
// Postcondition: On success participant maps to the new running session and
// its movement is locked.
func (c *Coordinator) InitiateWildBattle(ctx context.Context, participant string, spec battle.WildSpec) (*battle.Session, error) {
	if participant == "" || battle.IsSynthetic(participant) {
		return nil, fmt.Errorf("%w: wild encounters need a real trainer", ErrInvalidRequest)
	}
	if err := spec.Validate(c.deps.Catalog); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	id := uuid.NewString()
	if err := c.claimFor(id, participant); err != nil {
		return nil, err
	}
	s, err := battle.NewWildSession(id,
		battle.NewParticipant(participant, c.deps.Presence.DisplayName(participant)),
		spec, c.settings.Session, c.sessionDeps(id))
	if err != nil {
		c.release(id)
		return nil, err
	}
	if err := s.LoadRosters(ctx, c.deps.Rosters); err != nil {
		c.release(id)
		c.rosterFailure(id, []string{participant}, err)
		return nil, fmt.Errorf("%w: %w", ErrRosterLoad, err)
	}
	if err := c.launch(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Coordinator) rosterFailure(sessionID string, ids []string, err error) {
	c.logger.Warn("roster load failed",
		zap.String("session_id", sessionID),
		zap.Strings("participant_ids", ids),
		zap.Error(err),
	)
	for _, id := range ids {
		c.deps.Notifier.Send(id, battle.Message{Type: battle.MsgBattleError, Data: battle.ErrorPayload{
			Error: ErrRosterLoad.Error(),
		}})
	}
}

// launch turns the claim for s into a registered, running session. Anyone who
// disconnected while the rosters loaded is disconnected from the session as
// soon as it starts, so the battle ends with a disconnect result.
func (c *Coordinator) launch(s *battle.Session) error {
	ids := s.ParticipantIDs()

	c.mu.Lock()
	cl, claimed := c.claims[s.ID()]
	if c.closing || !claimed {
		c.releaseLocked(s.ID())
		c.mu.Unlock()
		if !claimed {
			return fmt.Errorf("%s: launched without a claim", s.ID())
		}
		return ErrShuttingDown
	}
	delete(c.claims, s.ID())
	gone := cl.gone
	c.sessions[s.ID()] = s
	for _, id := range ids {
		if !slices.Contains(gone, id) {
			c.participants[id] = s.ID()
		}
	}
	c.mu.Unlock()

	for _, id := range ids {
		if !battle.IsSynthetic(id) && !slices.Contains(gone, id) {
			c.deps.Movement.SetMovementLocked(id, true)
		}
		c.invites.drop(id)
	}

	if err := s.Start(c.runCtx); err != nil {
		c.unregister(s)
		c.unlockMovement(s)
		return fmt.Errorf("starting battle: %w", err)
	}
	c.logger.Info("battle registered",
		zap.String("session_id", s.ID()),
		zap.String("battle_type", string(s.Type())),
		zap.Strings("participant_ids", ids[:]),
	)
	for _, id := range gone {
		c.logger.Info("participant left while the battle was loading",
			zap.String("session_id", s.ID()),
			zap.String("participant_id", id),
		)
		if err := s.Disconnect(id); err != nil && !errors.Is(err, battle.ErrSessionEnded) {
			c.logger.Warn("disconnecting participant", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}
	return nil
}

// unregister removes s and every participant mapping that points at it.
func (c *Coordinator) unregister(s *battle.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.sessions[s.ID()]; ok && cur == s {
		delete(c.sessions, s.ID())
	}
	for _, id := range s.ParticipantIDs() {
		if c.participants[id] == s.ID() {
			delete(c.participants, id)
		}
	}
}

func (c *Coordinator) unlockMovement(s *battle.Session) {
	for _, id := range s.ParticipantIDs() {
		if !battle.IsSynthetic(id) {
			c.deps.Movement.SetMovementLocked(id, false)
		}
	}
}

func (c *Coordinator) lookup(sessionID, participantID string) (*battle.Session, error) {
	c.mu.RLock()
	s, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
	}
	if !s.HasParticipant(participantID) {
		return nil, fmt.Errorf("%s: %w", sessionID, ErrParticipantNotInSession)
	}
	return s, nil
}

// ProcessAction forwards a participant's action to its session.
//
// Postcondition: Returns ErrSessionNotFound for unknown or ended sessions,
// ErrParticipantNotInSession when participantID is not part of the session,
// or the session's validation error.
func (c *Coordinator) ProcessAction(ctx context.Context, sessionID, participantID string, action battle.Action) error {
	s, err := c.lookup(sessionID, participantID)
	if err != nil {
		return err
	}
	if err := s.Submit(ctx, participantID, action); err != nil {
		if errors.Is(err, battle.ErrSessionEnded) {
			return fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
		}
		return err
	}
	return nil
}

// Forfeit concedes participantID's battle; the other side wins.
func (c *Coordinator) Forfeit(ctx context.Context, sessionID, participantID string) error {
	s, err := c.lookup(sessionID, participantID)
	if err != nil {
		return err
	}
	if err := s.Forfeit(ctx, participantID); err != nil {
		if errors.Is(err, battle.ErrSessionEnded) {
			return fmt.Errorf("%s: %w", sessionID, ErrSessionNotFound)
		}
		return err
	}
	return nil
}

// EndBattle finishes a terminated session: persists its record and the real
// participants' final roster state, announces battle_end, unlocks movement and
// removes the registry entries. Sessions call it exactly once from their own
// goroutine.
//
// Postcondition: No registry entry references s. Persistence failures are
// logged and do not prevent the rest of the cleanup.
func (c *Coordinator) EndBattle(ctx context.Context, s *battle.Session, result battle.Result) {
	rec := s.BuildRecord()

	persistCtx, cancel := context.WithTimeout(ctx, c.settings.PersistTimeout)
	defer cancel()

	if err := c.deps.Records.SaveBattleRecord(persistCtx, rec); err != nil {
		c.logger.Error("persisting battle record",
			zap.String("session_id", s.ID()),
			zap.Error(err),
		)
	}
	for _, id := range rec.ParticipantIDs {
		if battle.IsSynthetic(id) {
			continue
		}
		if err := c.deps.Rosters.SaveRosterState(persistCtx, id, rec.Rosters[id]); err != nil {
			c.logger.Error("persisting roster state",
				zap.String("session_id", s.ID()),
				zap.String("trainer_id", id),
				zap.Error(err),
			)
		}
	}

	s.AnnounceEnd(result)
	c.unlockMovement(s)
	c.unregister(s)

	c.logger.Info("battle finished",
		zap.String("session_id", s.ID()),
		zap.String("result", string(result.Kind)),
		zap.String("winner_id", result.WinnerID),
		zap.Int("turns", rec.Turns),
	)
}

// HandleDisconnect cleans up after participantID's connection is lost: pending
// invitations involving it are dropped and its battle, if any, ends with a
// disconnect result.
//
// Postcondition: On return participantID is not mapped to any session.
func (c *Coordinator) HandleDisconnect(ctx context.Context, participantID string) {
	if n := c.invites.drop(participantID); n > 0 {
		c.logger.Debug("dropped invitations", zap.String("participant_id", participantID), zap.Int("count", n))
	}

	c.mu.Lock()
	sid, ok := c.participants[participantID]
	s := c.sessions[sid]
	if cl := c.claims[sid]; ok && s == nil && cl != nil {
		// Still loading rosters: launch ends the battle once it starts.
		cl.gone = append(cl.gone, participantID)
		delete(c.participants, participantID)
	}
	c.mu.Unlock()
	if !ok || s == nil {
		return
	}

	if err := s.Disconnect(participantID); err != nil && !errors.Is(err, battle.ErrSessionEnded) {
		c.logger.Warn("disconnecting participant",
			zap.String("session_id", sid),
			zap.String("participant_id", participantID),
			zap.Error(err),
		)
	}
	select {
	case <-s.Done():
	case <-ctx.Done():
		c.logger.Warn("gave up waiting for disconnected battle",
			zap.String("session_id", sid),
			zap.Error(ctx.Err()),
		)
	}
	c.unregister(s)
}

// Shutdown stops accepting battles, terminates every live session with a
// disconnect result and waits for them to finish. If ctx expires first the
// remaining session loops are cancelled.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closing = true
	live := make([]*battle.Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		live = append(live, s)
	}
	c.mu.Unlock()

	c.logger.Info("terminating battles", zap.Int("count", len(live)))
	for _, s := range live {
		_ = s.Terminate("server shutdown")
	}
	for _, s := range live {
		select {
		case <-s.Done():
		case <-ctx.Done():
			c.cancelRun()
			return fmt.Errorf("waiting for battles to end: %w", ctx.Err())
		}
	}
	c.cancelRun()
	return nil
}
