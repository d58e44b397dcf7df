package strategy

import (
	"InsiderSentinel/internal/calculator"
	"InsiderSentinel/internal/model"
)

// HistorySource supplies the ticker's historical rises known so far.
type HistorySource interface {
	HistoricalRises() []model.HistoricalRise
}

// ExitEngine manages the ratcheting floor of one open position.
type ExitEngine struct {
	policy  Policy
	pos     *model.Position
	history HistorySource

	buffer    float64
	bufferSet bool
	omega     float64
	omegaSet  bool
}

// NewExitEngine takes ownership of pos. history may be nil.
func NewExitEngine(p Policy, pos *model.Position, history HistorySource) *ExitEngine {
	return &ExitEngine{policy: p, pos: pos, history: history}
}

// Position returns the managed position.
func (e *ExitEngine) Position() *model.Position { return e.pos }

// Update applies one bar after the entry day and reports whether the
// position must close, and why.
func (e *ExitEngine) Update(bar model.PriceBar) (model.ExitReason, bool) {
	pos := e.pos
	price := bar.Close
	pos.DaysHeld++

	if pos.LastClose > 0 && price > 0 {
		chg := (price - pos.LastClose) / pos.LastClose * 100
		switch {
		case chg+eps >= e.policy.SubMovePct:
			pos.UpMoves++
		case chg-eps <= -e.policy.SubMovePct:
			pos.DownMoves++
		}
	}
	if price > 0 {
		pos.LastClose = price
	}
	if price > pos.PeakPrice {
		pos.PeakPrice = price
	}
	if pos.EntryPrice <= 0 {
		return "", false
	}
	pos.CumulativeRise = (pos.PeakPrice - pos.EntryPrice) / pos.EntryPrice * 100
	pos.Phase = e.phase()

	ret := (price - pos.EntryPrice) / pos.EntryPrice * 100
	for _, b := range e.policy.Backstops {
		if b.triggered(pos.DaysHeld, ret) {
			return b.Reason, true
		}
	}

	if candidate := e.candidate(); candidate > pos.FloorPrice {
		pos.FloorPrice = candidate
	}
	if price <= pos.FloorPrice {
		return model.FloorExitReason(pos.Phase), true
	}
	return "", false
}

const eps = 1e-9

func (e *ExitEngine) phase() model.ExitPhase {
	pos := e.pos
	switch {
	case pos.CumulativeRise+eps >= e.policy.PhaseCRisePct:
		return model.ExitPhaseC
	case pos.DaysHeld <= e.policy.PhaseADays:
		return model.ExitPhaseA
	case pos.UpMoves+pos.DownMoves > 0:
		return model.ExitPhaseB
	default:
		return model.ExitPhaseA
	}
}

func (e *ExitEngine) candidate() float64 {
	pos := e.pos
	switch pos.Phase {
	case model.ExitPhaseC:
		return pos.PeakPrice * (1 - e.policy.OmegaFloorMult*e.omegaPct()/100)
	case model.ExitPhaseB:
		return pos.PeakPrice * (1 - e.bufferPct()/100)
	default:
		return pos.PeakPrice - pos.Tier.ShockAbsorberMult*pos.EntryATR
	}
}

func (e *ExitEngine) rises() []model.HistoricalRise {
	if e.history == nil {
		return nil
	}
	return e.history.HistoricalRises()
}

// bufferPct is computed on first use in phase B and then frozen.
func (e *ExitEngine) bufferPct() float64 {
	if e.bufferSet {
		return e.buffer
	}
	e.bufferSet = true
	e.buffer = PhaseBBuffer(e.rises(), e.expectedRise(), e.pos.Tier, e.policy)
	return e.buffer
}

// omegaPct is computed on first use in phase C and then frozen.
func (e *ExitEngine) omegaPct() float64 {
	if e.omegaSet {
		return e.omega
	}
	e.omegaSet = true
	e.omega = PhaseCOmega(e.rises(), e.policy)
	return e.omega
}

func (e *ExitEngine) expectedRise() float64 {
	pos := e.pos
	if pos.TargetPrice > pos.EntryPrice && pos.EntryPrice > 0 {
		return (pos.TargetPrice - pos.EntryPrice) / pos.EntryPrice * 100
	}
	return pos.CumulativeRise
}

// PhaseBBuffer returns the pullback allowance (%) for a rise of the expected
// size, preferring insider-backed comparables.
func PhaseBBuffer(history []model.HistoricalRise, expectedRise float64, tier model.ConvictionTier, p Policy) float64 {
	comparable := calculator.ComparableRises(history, expectedRise, p.ComparableBand)
	insider, insiderOK, plain, plainOK := calculator.AveragePullback(comparable)
	switch {
	case insiderOK:
		return insider * p.InsiderBufferMult
	case plainOK:
		return plain * tier.PatternFloorMult
	default:
		return p.DefaultBufferPct
	}
}

// PhaseCOmega returns the top-quartile deepest pullback, or the cold-start default.
func PhaseCOmega(history []model.HistoricalRise, p Policy) float64 {
	if omega, ok := calculator.TopQuartileDeepestPullback(history); ok {
		return omega
	}
	return p.DefaultOmegaPct
}

// CloseTrade converts a position into its closed trade record.
func CloseTrade(symbol string, pos *model.Position, bar model.PriceBar, reason model.ExitReason) model.ClosedTrade {
	t := model.ClosedTrade{
		Ticker:      symbol,
		EntryDate:   pos.EntryDate,
		EntryPrice:  pos.EntryPrice,
		ExitDate:    bar.Date,
		ExitPrice:   bar.Close,
		DaysHeld:    pos.DaysHeld,
		Reason:      reason,
		Tier:        pos.Tier.Name,
		Scenario:    pos.Scenario,
		TargetPrice: pos.TargetPrice,
	}
	if pos.EntryPrice > 0 {
		t.ReturnPct = (bar.Close - pos.EntryPrice) / pos.EntryPrice * 100
	}
	return t
}
