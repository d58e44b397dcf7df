package model

import "time"

// TrendPhase is the phase the detector currently believes the ticker is in.
type TrendPhase string

const (
	PhaseUnknown TrendPhase = "UNKNOWN"
	PhaseRising  TrendPhase = "RISING"
	PhaseFalling TrendPhase = "FALLING"
)

// TrendType labels a completed segment.
type TrendType string

const (
	TrendRise TrendType = "RISE"
	TrendFall TrendType = "FALL"
)

// CompletedTrendEvent is a closed RISE or FALL segment.
type CompletedTrendEvent struct {
	Type       TrendType
	StartDate  time.Time
	StartPrice float64
	EndDate    time.Time
	EndPrice   float64
	PeakDate   time.Time // RISE only
	PeakPrice  float64   // RISE only
	Duration   int       // trading days between start and end
	ChangePct  float64   // growth % for RISE, decline % (positive) for FALL
	Events     []InsiderEvent
	Pullbacks  []float64 // RISE only: depth % of each finished in-rise pullback
}

// InsiderBacked reports whether any insider event was attributed to the segment.
func (e *CompletedTrendEvent) InsiderBacked() bool {
	return len(e.Events) > 0
}

// HistoricalRise is the per-rise pullback summary used by the exit floor.
type HistoricalRise struct {
	GrowthPct      float64 `yaml:"growth_pct" json:"growth_pct"`
	InsiderBacked  bool    `yaml:"insider_backed" json:"insider_backed"`
	AvgPullbackPct float64 `yaml:"avg_pullback_pct" json:"avg_pullback_pct"`
	MaxPullbackPct float64 `yaml:"max_pullback_pct" json:"max_pullback_pct"`
}

// ToHistoricalRise summarises a completed RISE. ok is false for FALL segments.
func (e *CompletedTrendEvent) ToHistoricalRise() (HistoricalRise, bool) {
	if e.Type != TrendRise {
		return HistoricalRise{}, false
	}
	h := HistoricalRise{GrowthPct: e.ChangePct, InsiderBacked: e.InsiderBacked()}
	if len(e.Pullbacks) == 0 {
		return h, true
	}
	sum := 0.0
	for _, p := range e.Pullbacks {
		sum += p
		if p > h.MaxPullbackPct {
			h.MaxPullbackPct = p
		}
	}
	h.AvgPullbackPct = sum / float64(len(e.Pullbacks))
	return h, true
}
