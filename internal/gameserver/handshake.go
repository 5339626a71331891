package gameserver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
)

// HandleBattleRequest invites target to a battle with from.
//
// Precondition: from is an authenticated identity.
// Postcondition: On success a pending invitation from → target exists, target
// is sent battle_invitation and from is sent battle_request_sent. Otherwise
// returns ErrInvalidRequest, ErrAlreadyInBattle, ErrTargetUnavailable or a
// *CooldownError and nothing is sent.
func (c *Coordinator) HandleBattleRequest(ctx context.Context, from, target string, typ battle.Type) error {
	if typ != battle.TypeTrainer {
		return fmt.Errorf("%w: cannot request a %q battle", ErrInvalidRequest, typ)
	}
	if target == "" || from == target {
		return fmt.Errorf("%w: cannot challenge yourself", ErrInvalidRequest)
	}
	if c.busy(from) {
		return fmt.Errorf("%s: %w", from, ErrAlreadyInBattle)
	}
	if battle.IsSynthetic(target) || !c.deps.Presence.IsOnline(target) || c.busy(target) {
		return fmt.Errorf("%s: %w", target, ErrTargetUnavailable)
	}

	inv, err := c.invites.offer(from, target, typ, c.deps.Now())
	if err != nil {
		return err
	}

	c.deps.Notifier.Send(target, battle.Message{Type: battle.MsgBattleInvitation, Data: battle.InvitationPayload{
		FromID:     from,
		FromName:   c.deps.Presence.DisplayName(from),
		BattleType: typ,
		ExpiresMs:  c.settings.InviteTTL.Milliseconds(),
	}})
	c.deps.Notifier.Send(from, battle.Message{Type: battle.MsgBattleRequestSent, Data: battle.RequestSentPayload{
		TargetID:   target,
		BattleType: typ,
	}})
	c.logger.Debug("battle invitation sent",
		zap.String("from_id", from),
		zap.String("target_id", target),
		zap.Time("expires_at", inv.expiresAt),
	)
	return nil
}

// HandleBattleAccept accepts from's pending invitation to accepter and starts the battle.
//
// Postcondition: The invitation is consumed. Returns ErrNoInvitation when no
// live invitation of typ exists, or any error of InitiateBattle.
func (c *Coordinator) HandleBattleAccept(ctx context.Context, accepter, from string, typ battle.Type) (*battle.Session, error) {
	if _, ok := c.invites.take(from, accepter, typ, c.deps.Now()); !ok {
		return nil, fmt.Errorf("from %s: %w", from, ErrNoInvitation)
	}
	if !c.deps.Presence.IsOnline(from) {
		return nil, fmt.Errorf("%s: %w", from, ErrTargetUnavailable)
	}
	return c.InitiateBattle(ctx, from, accepter, typ)
}
