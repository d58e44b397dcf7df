package strategy

import (
	"math"
	"time"

	"InsiderSentinel/internal/model"
	"InsiderSentinel/internal/signal"
)

// Verdict is the outcome of one entry-gate evaluation.
type Verdict string

const (
	VerdictNotReady    Verdict = "not_ready" // preconditions unmet, nothing evaluated
	VerdictWaiting     Verdict = "waiting"   // confirmation days not reached
	VerdictNoSignal    Verdict = "no_signal" // missing ATR or reference price today
	VerdictStale       Verdict = "stale"
	VerdictChaseCapped Verdict = "chase_capped"
	VerdictNoScenario  Verdict = "no_scenario"
	VerdictEntered     Verdict = "entered"
)

// Market is the view of one ticker on the decision day. Bars never extend
// past today.
type Market struct {
	Bars        []model.PriceBar
	Phase       model.TrendPhase
	UpDays      int
	LastFallPct float64
	ATR         float64
	ATROK       bool
}

func (m Market) today() (model.PriceBar, bool) {
	if len(m.Bars) == 0 {
		return model.PriceBar{}, false
	}
	return m.Bars[len(m.Bars)-1], true
}

// Decision is the result of EntryGate.Evaluate.
type Decision struct {
	Verdict  Verdict
	Tier     model.ConvictionTier
	Position *model.Position
}

// EntryGate decides once per day whether a purchase cluster opens a position.
type EntryGate struct {
	policy Policy
}

// NewEntryGate creates a gate bound to policy.
func NewEntryGate(p Policy) *EntryGate {
	return &EntryGate{policy: p}
}

// Evaluate runs the gate for today. The aggregator is cleared after every
// final decision; waiting and no-signal days keep it intact.
func (g *EntryGate) Evaluate(agg *signal.Aggregator, m Market) Decision {
	bar, ok := m.today()
	if !ok || m.Phase != model.PhaseRising || len(agg.FallBucket()) == 0 {
		return Decision{Verdict: VerdictNotReady}
	}
	if bar.Close <= 0 {
		return Decision{Verdict: VerdictNoSignal}
	}

	events := agg.All()
	tier := Classify(events, g.policy)
	d := Decision{Tier: tier}

	if m.UpDays < tier.ConfirmationDays {
		d.Verdict = VerdictWaiting
		return d
	}

	latest, _ := agg.MostRecent()
	if TradingDaysSince(m.Bars, latest) > tier.SignalValidityDays {
		agg.Clear()
		d.Verdict = VerdictStale
		return d
	}

	avg, ok := AveragePurchasePrice(events)
	if !ok {
		d.Verdict = VerdictNoSignal
		return d
	}
	if bar.Close > avg*(1+tier.ChaseCap) {
		agg.Clear()
		d.Verdict = VerdictChaseCapped
		return d
	}

	scenario, target, ok := g.scenario(agg, m, bar.Close)
	if !ok {
		agg.Clear()
		d.Verdict = VerdictNoScenario
		return d
	}
	if !m.ATROK || m.ATR <= 0 {
		d.Verdict = VerdictNoSignal
		return d
	}

	agg.Clear()
	d.Verdict = VerdictEntered
	d.Position = &model.Position{
		EntryDate:   bar.Date,
		EntryIndex:  len(m.Bars) - 1,
		EntryPrice:  bar.Close,
		TargetPrice: target,
		Tier:        tier,
		Scenario:    scenario,
		Phase:       model.ExitPhaseA,
		PeakPrice:   bar.Close,
		FloorPrice:  math.Max(0, bar.Close-tier.ShockAbsorberMult*m.ATR),
		EntryATR:    m.ATR,
		LastClose:   bar.Close,
	}
	return d
}

func (g *EntryGate) scenario(agg *signal.Aggregator, m Market, price float64) (model.Scenario, float64, bool) {
	rise, fall := agg.RiseBucket(), agg.FallBucket()
	if len(rise) > 0 && len(fall) > 0 && agg.SpreePeak() > price {
		return model.ScenarioShoppingSpree, agg.SpreePeak(), true
	}
	if len(rise) == 0 && len(fall) > 0 {
		if Summarize(fall).Aggregate.GreaterThanOrEqual(g.policy.AbsorptionMinValue) {
			return model.ScenarioAbsorption, price * (1 + math.Abs(m.LastFallPct)/100), true
		}
	}
	return "", 0, false
}

// TradingDaysSince counts the bars dated after t.
func TradingDaysSince(bars []model.PriceBar, t time.Time) int {
	n := 0
	for i := len(bars) - 1; i >= 0 && bars[i].Date.After(t); i-- {
		n++
	}
	return n
}

// AveragePurchasePrice is the mean price of purchases with a known price.
func AveragePurchasePrice(events []model.InsiderEvent) (float64, bool) {
	var sum float64
	var n int
	for _, ev := range events {
		if ev.Price > 0 && !ev.Value.IsNegative() {
			sum += ev.Price
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
