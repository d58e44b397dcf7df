package model

// TierName identifies a conviction tier.
type TierName string

const (
	TierOmega      TierName = "OMEGA"
	TierConviction TierName = "CONVICTION"
	TierSprint     TierName = "SPRINT"
)

// ConvictionTier carries the exit and entry policy for a signal strength.
type ConvictionTier struct {
	Name               TierName
	ShockAbsorberMult  float64 // x ATR(14) below entry/peak in phase A
	PatternFloorMult   float64 // inflation applied to non-insider pullback history
	ConfirmationDays   int     // consecutive up-days required before entry
	ChaseCap           float64 // max fractional premium over average purchase price
	SignalValidityDays int     // trading days a purchase stays actionable
}
