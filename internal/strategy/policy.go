package strategy

import (
	"github.com/shopspring/decimal"

	"InsiderSentinel/internal/model"
)

// Backstop force-closes a position held at least Days trading days whose
// return is below MinReturnPct (or equal to it when Inclusive is set).
type Backstop struct {
	Days         int
	MinReturnPct float64
	Inclusive    bool
	Reason       model.ExitReason
}

// Policy collects every fixed threshold used by entry and exit decisions.
type Policy struct {
	Omega      model.ConvictionTier
	Conviction model.ConvictionTier
	Sprint     model.ConvictionTier

	OmegaMinValue         decimal.Decimal // single executive purchase
	ConvictionMinValue    decimal.Decimal // cluster aggregate
	ConvictionMinInsiders int
	AbsorptionMinValue    decimal.Decimal

	PhaseADays        int
	PhaseCRisePct     float64
	SubMovePct        float64
	ComparableBand    float64 // fractional, 0.2 = ±20%
	InsiderBufferMult float64
	DefaultBufferPct  float64
	DefaultOmegaPct   float64
	OmegaFloorMult    float64

	Backstops []Backstop
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{
		Omega: model.ConvictionTier{
			Name: model.TierOmega, ShockAbsorberMult: 3.0, PatternFloorMult: 4.0,
			ConfirmationDays: 0, ChaseCap: 0.25, SignalValidityDays: 10,
		},
		Conviction: model.ConvictionTier{
			Name: model.TierConviction, ShockAbsorberMult: 2.0, PatternFloorMult: 2.5,
			ConfirmationDays: 1, ChaseCap: 0.15, SignalValidityDays: 15,
		},
		Sprint: model.ConvictionTier{
			Name: model.TierSprint, ShockAbsorberMult: 1.5, PatternFloorMult: 1.2,
			ConfirmationDays: 3, ChaseCap: 0.10, SignalValidityDays: 20,
		},

		OmegaMinValue:         decimal.NewFromInt(25000),
		ConvictionMinValue:    decimal.NewFromInt(10000),
		ConvictionMinInsiders: 2,
		AbsorptionMinValue:    decimal.NewFromInt(5000),

		PhaseADays:        5,
		PhaseCRisePct:     30,
		SubMovePct:        1.0,
		ComparableBand:    0.2,
		InsiderBufferMult: 1.2,
		DefaultBufferPct:  5.0,
		DefaultOmegaPct:   2.5,
		OmegaFloorMult:    4.0,

		Backstops: []Backstop{
			{Days: 30, MinReturnPct: -20, Inclusive: true, Reason: model.ExitBackstop30},
			{Days: 60, MinReturnPct: 5, Reason: model.ExitBackstop60},
			{Days: 90, MinReturnPct: 10, Reason: model.ExitBackstop90},
		},
	}
}

// Tier returns the tier parameters for name, falling back to SPRINT.
func (p Policy) Tier(name model.TierName) model.ConvictionTier {
	switch name {
	case model.TierOmega:
		return p.Omega
	case model.TierConviction:
		return p.Conviction
	default:
		return p.Sprint
	}
}

func (b Backstop) triggered(daysHeld int, returnPct float64) bool {
	if daysHeld < b.Days {
		return false
	}
	if b.Inclusive {
		return returnPct <= b.MinReturnPct
	}
	return returnPct < b.MinReturnPct
}
