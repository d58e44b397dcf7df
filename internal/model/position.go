package model

import "time"

// ExitPhase is the active stage of the exit floor.
type ExitPhase string

const (
	ExitPhaseA ExitPhase = "A"
	ExitPhaseB ExitPhase = "B"
	ExitPhaseC ExitPhase = "C"
)

// ExitReason tags why a position was closed.
type ExitReason string

const (
	ExitFloorA     ExitReason = "PHASE_A_FLOOR"
	ExitFloorB     ExitReason = "PHASE_B_FLOOR"
	ExitFloorC     ExitReason = "PHASE_C_FLOOR"
	ExitBackstop30 ExitReason = "BACKSTOP_30D"
	ExitBackstop60 ExitReason = "BACKSTOP_60D"
	ExitBackstop90 ExitReason = "BACKSTOP_90D"
	ExitEndOfData  ExitReason = "END_OF_DATA"
)

// FloorExitReason maps an exit phase to its floor-breach reason.
func FloorExitReason(p ExitPhase) ExitReason {
	switch p {
	case ExitPhaseB:
		return ExitFloorB
	case ExitPhaseC:
		return ExitFloorC
	default:
		return ExitFloorA
	}
}

// Scenario is the entry pattern that opened a position.
type Scenario string

const (
	ScenarioShoppingSpree Scenario = "SHOPPING_SPREE"
	ScenarioAbsorption    Scenario = "ABSORPTION_BUY"
)

// Position is an open long position managed by the exit floor.
type Position struct {
	EntryDate      time.Time
	EntryIndex     int
	EntryPrice     float64
	TargetPrice    float64
	Tier           ConvictionTier
	Scenario       Scenario
	Phase          ExitPhase
	PeakPrice      float64
	FloorPrice     float64
	CumulativeRise float64 // % of peak over entry
	EntryATR       float64
	UpMoves        int // days closing >= 1% above the prior close
	DownMoves      int // days closing >= 1% below the prior close
	LastClose      float64
	DaysHeld       int
}

// ClosedTrade is the outcome of a completed position.
type ClosedTrade struct {
	Ticker      string
	EntryDate   time.Time
	EntryPrice  float64
	ExitDate    time.Time
	ExitPrice   float64
	DaysHeld    int
	ReturnPct   float64
	Reason      ExitReason
	Tier        TierName
	Scenario    Scenario
	TargetPrice float64
}

// TickerResult is the simulator output for one ticker.
type TickerResult struct {
	Symbol string
	Trades []ClosedTrade
	Trends []CompletedTrendEvent
	Err    error
}
