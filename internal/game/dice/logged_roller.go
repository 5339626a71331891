package dice

import "go.uber.org/zap"

// Expressions used throughout battle resolution.
var (
	// Percentile is a d100 roll for accuracy checks and flee attempts.
	Percentile = MustParse("d100")
	// DamageVariance is the uniform 85..100 percentage applied to raw damage.
	DamageVariance = MustParse("d16+84")
	// IndividualValue rolls one 0..31 stat variation for a generated combatant.
	IndividualValue = MustParse("d32-1")
	// CoinFlip settles speed ties.
	CoinFlip = MustParse("d2")
)

// Roller wraps a Source and logger to provide logged dice rolling.
// Rolls are logged at debug level as their rendered form plus the total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	if ce := r.logger.Check(zap.DebugLevel, "dice roll"); ce != nil {
		ce.Write(
			zap.Stringer("roll", result),
			zap.Int("total", result.Total()),
		)
	}
	return result
}

// RollExpr parses expr and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// Percent rolls d100 and reports whether the result is at most threshold.
// A threshold >= 100 always succeeds; a threshold <= 0 always fails.
func (r *Roller) Percent(threshold int) bool {
	return r.Roll(Percentile).Total() <= threshold
}

// CoinFlip reports true on heads.
func (r *Roller) CoinFlip() bool {
	face, _ := r.Roll(CoinFlip).Single()
	return face == 1
}

// Intn exposes the underlying Source so the Roller can drive uniform choices.
//
// Precondition: n > 0.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}
