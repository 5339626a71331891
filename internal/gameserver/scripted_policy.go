package gameserver

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/element"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

// PolicyScope is the scripting scope that holds opponent policy scripts.
const PolicyScope = "policy"

// ScriptedPolicy asks a Lua choose_action hook for the action and falls back
// when the script is missing, fails or returns something malformed. The
// session legalizes whatever comes back, so a script cannot make an illegal move.
type ScriptedPolicy struct {
	Scripts *scripting.Manager
	Scope   string
	// Roller backs engine.dice during the script call; set it to the session's
	// roller so seeded battles replay identically. nil uses the manager's roller.
	Roller   *dice.Roller
	Fallback battle.Policy
	Logger   *zap.Logger
}

// Choose implements battle.Policy.
func (p *ScriptedPolicy) Choose(s battle.Situation) battle.Action {
	scope := p.Scope
	if scope == "" {
		scope = PolicyScope
	}
	d, ok, err := p.Scripts.ChooseWith(scope, situationInfo(s), p.Roller)
	if err != nil && p.Logger != nil {
		p.Logger.Warn("policy script returned a malformed action",
			zap.String("session_id", s.SessionID),
			zap.Int("turn", s.Turn),
			zap.Error(err),
		)
	}
	if err != nil || !ok {
		return p.fallback(s)
	}
	switch d.Kind {
	case "switch":
		return battle.SwitchAction(d.SwitchIndex)
	case "run":
		return battle.RunAction()
	default:
		return battle.MoveAction(d.MoveID)
	}
}

func (p *ScriptedPolicy) fallback(s battle.Situation) battle.Action {
	if p.Fallback == nil {
		return battle.StruggleAction()
	}
	return p.Fallback.Choose(s)
}

// BindCatalog exposes cat and the type chart to scripts through engine.catalog.
func BindCatalog(m *scripting.Manager, cat *catalog.Catalog) {
	m.LookupMove = func(id string) *scripting.MoveInfo {
		mv, ok := cat.Move(id)
		if !ok {
			return nil
		}
		info := moveInfo(mv, combat.MoveSlot{MoveID: id, PP: mv.PP, MaxPP: mv.PP})
		return &info
	}
	m.Effectiveness = func(moveType string, defenders []string) float64 {
		attacking, err := element.Parse(moveType)
		if err != nil {
			return 1
		}
		var defs []element.Type
		for _, d := range defenders {
			if t, err := element.Parse(d); err == nil {
				defs = append(defs, t)
			}
		}
		return element.Effectiveness(attacking, defs...)
	}
}

func situationInfo(s battle.Situation) scripting.SituationInfo {
	return scripting.SituationInfo{
		SessionID: s.SessionID,
		Turn:      s.Turn,
		Self:      combatantInfo(s.Self, s.Catalog),
		Opponent:  combatantInfo(s.Opponent, s.Catalog),
	}
}

func combatantInfo(c *combat.Combatant, cat *catalog.Catalog) scripting.CombatantInfo {
	if c == nil {
		return scripting.CombatantInfo{}
	}
	info := scripting.CombatantInfo{
		Species: c.SpeciesID,
		Name:    c.Name,
		Level:   c.Level,
		HP:      c.CurrentHP,
		MaxHP:   c.MaxHP(),
		Speed:   c.EffectiveSpeed(),
	}
	for _, t := range c.Types {
		if t != element.None {
			info.Types = append(info.Types, string(t))
		}
	}
	if c.Conditions != nil {
		info.Conditions = c.Conditions.IDs()
	}
	for _, slot := range c.Moves {
		if cat == nil {
			info.Moves = append(info.Moves, scripting.MoveInfo{ID: slot.MoveID, PP: slot.PP, MaxPP: slot.MaxPP})
			continue
		}
		if mv, ok := cat.Move(slot.MoveID); ok {
			info.Moves = append(info.Moves, moveInfo(mv, slot))
		}
	}
	return info
}

func moveInfo(mv *catalog.Move, slot combat.MoveSlot) scripting.MoveInfo {
	return scripting.MoveInfo{
		ID:       mv.ID,
		Name:     mv.Name,
		Type:     string(mv.Type),
		Category: string(mv.Category),
		Power:    mv.Power,
		Accuracy: mv.Accuracy,
		PP:       slot.PP,
		MaxPP:    slot.MaxPP,
	}
}
