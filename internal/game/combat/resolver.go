package combat

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/element"
)

// Roller is the subset of *dice.Roller used by move resolution.
type Roller interface {
	Roll(expr dice.Expression) dice.RollResult
	Percent(threshold int) bool
}

// StageChange records one applied stat-stage change.
type StageChange struct {
	Self  bool         `json:"self"`
	Stat  catalog.Stat `json:"stat"`
	Delta int          `json:"delta"`
}

// MoveOutcome records what happened when one move was used.
type MoveOutcome struct {
	MoveID        string
	MoveName      string
	Skipped       bool
	Missed        bool
	Damage        int
	Effectiveness float64
	Recoil        int
	StageChanges  []StageChange
	// Condition is the id of a condition applied by the move, if any.
	Condition       string
	ConditionOnSelf bool
	DefenderFainted bool
	AttackerFainted bool
	Messages        []string
}

func (o *MoveOutcome) say(format string, args ...interface{}) {
	o.Messages = append(o.Messages, fmt.Sprintf(format, args...))
}

// Resolver applies moves and end-of-turn effects using the condition table and a
// source of randomness.
type Resolver struct {
	conditions *condition.Registry
	roller     Roller
}

// NewResolver creates a Resolver.
//
// Precondition: conditions and roller must be non-nil.
func NewResolver(conditions *condition.Registry, roller Roller) *Resolver {
	return &Resolver{conditions: conditions, roller: roller}
}

// UseMove resolves attacker using move against defender.
//
// Order: paralysis check, PP deduction, accuracy check, damage with
// effectiveness, weather and burn, recoil, then the move's effect.
//
// Precondition: attacker, defender and move must be non-nil.
// Postcondition: neither combatant's HP increases; both stay >= 0.
func (r *Resolver) UseMove(attacker, defender *Combatant, move *catalog.Move, field Field) MoveOutcome {
	out := MoveOutcome{MoveID: move.ID, MoveName: move.Name, Effectiveness: 1}
	if attacker.Fainted() {
		out.Skipped = true
		return out
	}

	if skip := condition.SkipChance(attacker.Conditions); skip > 0 && r.roller.Percent(skip) {
		out.Skipped = true
		out.say("%s is paralyzed! It can't move!", attacker.Name)
		return out
	}

	if slot, ok := attacker.Move(move.ID); ok && slot.PP > 0 {
		slot.PP--
	}
	out.say("%s used %s!", attacker.Name, move.Name)

	if defender.Fainted() && move.Damaging() {
		out.Missed = true
		out.say("But there was no target...")
		return out
	}

	if !r.hits(attacker, defender, move) {
		out.Missed = true
		out.say("%s's attack missed!", attacker.Name)
		return out
	}

	if move.Damaging() {
		r.strike(attacker, defender, move, field, &out)
		if out.Effectiveness == 0 {
			return out
		}
	}

	if move.Effect != nil {
		r.applyEffect(attacker, defender, move, &out)
	}

	out.DefenderFainted = defender.Fainted()
	out.AttackerFainted = attacker.Fainted()
	if out.DefenderFainted {
		out.say("%s fainted!", defender.Name)
	}
	if out.AttackerFainted {
		out.say("%s fainted!", attacker.Name)
	}
	return out
}

// hits performs the accuracy check. Moves with accuracy 0 never miss, and
// self-targeted status moves always land.
func (r *Resolver) hits(attacker, defender *Combatant, move *catalog.Move) bool {
	if move.Accuracy == 0 {
		return true
	}
	if !move.Damaging() && move.Effect != nil && move.Effect.Target == catalog.TargetSelf {
		return true
	}
	stage := ClampStage(attacker.Stages.Get(catalog.StatAccuracy) - defender.Stages.Get(catalog.StatEvasion))
	threshold := int(float64(move.Accuracy) * AccuracyMultiplier(stage))
	return r.roller.Percent(threshold)
}

func (r *Resolver) strike(attacker, defender *Combatant, move *catalog.Move, field Field, out *MoveOutcome) {
	eff := element.Effectiveness(move.Type, defender.Types[0], defender.Types[1])
	out.Effectiveness = eff
	if eff == 0 {
		out.say("It doesn't affect %s...", defender.Name)
		return
	}

	var attack, defense int
	if move.Category == catalog.Physical {
		attack = ApplyStage(attacker.Stats.Attack, attacker.Stages.Get(catalog.StatAttack))
		attack = max(1, int(float64(attack)*condition.PhysicalAttackMultiplier(attacker.Conditions)))
		defense = ApplyStage(defender.Stats.Defense, defender.Stages.Get(catalog.StatDefense))
	} else {
		attack = ApplyStage(attacker.Stats.SpecialAttack, attacker.Stages.Get(catalog.StatSpecialAttack))
		defense = ApplyStage(defender.Stats.SpecialDefense, defender.Stages.Get(catalog.StatSpecialDefense))
	}

	random := r.roller.Roll(dice.DamageVariance).Total()
	mult := eff * WeatherMultiplier(field.Weather, move.Type)
	dmg := Damage(attacker.Level, move.Power, attack, defense, random, mult)
	out.Damage = defender.ApplyDamage(dmg)
	if phrase := element.Describe(eff); phrase != "" {
		out.say("%s", phrase)
	}

	if move.RecoilDivisor > 0 {
		recoil := max(1, attacker.MaxHP()/move.RecoilDivisor)
		out.Recoil = attacker.ApplyDamage(recoil)
		out.say("%s is damaged by recoil!", attacker.Name)
	}
}

func (r *Resolver) applyEffect(attacker, defender *Combatant, move *catalog.Move, out *MoveOutcome) {
	eff := move.Effect
	if eff.Chance > 0 && !r.roller.Percent(eff.Chance) {
		return
	}
	target := defender
	self := eff.Target == catalog.TargetSelf
	if self {
		target = attacker
	}
	if target.Fainted() {
		return
	}
	status := !move.Damaging()

	if eff.Stages != 0 {
		applied := target.Stages.Change(eff.Stat, eff.Stages)
		if applied == 0 {
			if status {
				dir := "higher"
				if eff.Stages < 0 {
					dir = "lower"
				}
				out.say("%s's %s won't go any %s!", target.Name, statLabel(eff.Stat), dir)
			}
		} else {
			out.StageChanges = append(out.StageChanges, StageChange{Self: self, Stat: eff.Stat, Delta: applied})
			out.say("%s's %s %s!", target.Name, statLabel(eff.Stat), stageVerb(applied))
		}
	}

	if eff.Condition != "" {
		def, ok := r.conditions.Get(eff.Condition)
		if !ok || def.ImmuneTo(target.Types[0], target.Types[1]) || target.Conditions.Apply(def) != nil {
			if status {
				out.say("But it failed!")
			}
			return
		}
		out.Condition = def.ID
		out.ConditionOnSelf = self
		out.say("%s %s", target.Name, def.Message)
	}
}

// EndOfTurn applies residual condition damage to c and advances its conditions.
//
// Postcondition: c.CurrentHP does not increase.
func (r *Resolver) EndOfTurn(c *Combatant) (int, []string) {
	if c.Fainted() || c.Conditions.Empty() {
		return 0, nil
	}
	c.Conditions.Tick()
	dmg := c.ApplyDamage(condition.ResidualDamage(c.Conditions, c.MaxHP()))
	if dmg == 0 {
		return 0, nil
	}
	msgs := []string{fmt.Sprintf("%s is hurt by its %s!", c.Name, c.Conditions.IDs()[0])}
	if c.Fainted() {
		msgs = append(msgs, fmt.Sprintf("%s fainted!", c.Name))
	}
	return dmg, msgs
}

func statLabel(s catalog.Stat) string {
	switch s {
	case catalog.StatSpecialAttack:
		return "special attack"
	case catalog.StatSpecialDefense:
		return "special defense"
	default:
		return string(s)
	}
}

func stageVerb(delta int) string {
	switch {
	case delta >= 2:
		return "rose sharply"
	case delta > 0:
		return "rose"
	case delta <= -2:
		return "harshly fell"
	default:
		return "fell"
	}
}
