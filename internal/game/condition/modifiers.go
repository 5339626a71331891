package condition

// ResidualDamage returns the end-of-turn damage dealt by all active conditions to a
// combatant with the given max HP.
//
// Postcondition: Returns >= 0; each contributing condition deals at least 1.
func ResidualDamage(s *ActiveSet, maxHP int) int {
	total := 0
	for _, ac := range s.conditions {
		if ac.Def.ResidualDivisor <= 0 {
			continue
		}
		dmg := maxHP / ac.Def.ResidualDivisor
		if dmg < 1 {
			dmg = 1
		}
		total += dmg
	}
	return total
}

// SpeedMultiplier returns the product of all active speed multipliers.
//
// Postcondition: Returns > 0.
func SpeedMultiplier(s *ActiveSet) float64 {
	m := 1.0
	for _, ac := range s.conditions {
		if ac.Def.SpeedMultiplier > 0 {
			m *= ac.Def.SpeedMultiplier
		}
	}
	return m
}

// PhysicalAttackMultiplier returns the product of all active physical-attack multipliers.
//
// Postcondition: Returns > 0.
func PhysicalAttackMultiplier(s *ActiveSet) float64 {
	m := 1.0
	for _, ac := range s.conditions {
		if ac.Def.PhysicalAttackMultiplier > 0 {
			m *= ac.Def.PhysicalAttackMultiplier
		}
	}
	return m
}

// SkipChance returns the highest percent chance among active conditions that the
// combatant cannot act this turn.
//
// Postcondition: Returns within [0, 100].
func SkipChance(s *ActiveSet) int {
	best := 0
	for _, ac := range s.conditions {
		if ac.Def.SkipChance > best {
			best = ac.Def.SkipChance
		}
	}
	return best
}
