package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"InsiderSentinel/internal/model"
	"InsiderSentinel/internal/signal"
)

var start = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func flatBars(n int, price float64) []model.PriceBar {
	bars := make([]model.PriceBar, n)
	for i := range bars {
		bars[i] = model.PriceBar{Date: start.AddDate(0, 0, i), Open: price, High: price, Low: price, Close: price}
	}
	return bars
}

func purchaseOn(date time.Time, name string, value int64, price float64) model.InsiderEvent {
	return model.InsiderEvent{Date: date, Insider: name, Title: "Director", Value: decimal.NewFromInt(value), Price: price}
}

func risingMarket(bars []model.PriceBar, upDays int) Market {
	return Market{Bars: bars, Phase: model.PhaseRising, UpDays: upDays, LastFallPct: 8, ATR: 0.5, ATROK: true}
}

func TestEntryGate_ConvictionFloor(t *testing.T) {
	bars := flatBars(30, 10)
	agg := signal.NewAggregator()
	agg.Add(purchaseOn(bars[27].Date, "A Smith", 3000, 10), model.PhaseFalling)
	agg.Add(purchaseOn(bars[28].Date, "B Jones", 3000, 10), model.PhaseFalling)

	d := NewEntryGate(DefaultPolicy()).Evaluate(agg, risingMarket(bars, 1))
	if d.Verdict != VerdictEntered {
		t.Fatalf("expected entry, got %s", d.Verdict)
	}
	pos := d.Position
	if pos.Tier.Name != model.TierConviction {
		t.Errorf("expected CONVICTION, got %s", pos.Tier.Name)
	}
	if math.Abs(pos.FloorPrice-9.0) > 1e-9 {
		t.Errorf("expected floor 9.00, got %.4f", pos.FloorPrice)
	}
	if pos.Scenario != model.ScenarioAbsorption || math.Abs(pos.TargetPrice-10.8) > 1e-9 {
		t.Errorf("expected absorption target 10.80, got %s %.4f", pos.Scenario, pos.TargetPrice)
	}
	if !agg.Empty() {
		t.Error("buckets must be cleared after entry")
	}
}

func TestEntryGate_Preconditions(t *testing.T) {
	bars := flatBars(30, 10)
	tests := []struct {
		name   string
		phase  model.TrendPhase
		bucket model.TrendPhase
	}{
		{"falling phase", model.PhaseFalling, model.PhaseFalling},
		{"unknown phase", model.PhaseUnknown, model.PhaseFalling},
		{"rise bucket only", model.PhaseRising, model.PhaseRising},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := signal.NewAggregator()
			agg.Add(purchaseOn(bars[28].Date, "A Smith", 50000, 10), tt.bucket)
			m := risingMarket(bars, 5)
			m.Phase = tt.phase
			d := NewEntryGate(DefaultPolicy()).Evaluate(agg, m)
			if d.Verdict != VerdictNotReady || d.Position != nil {
				t.Errorf("expected no evaluation, got %s", d.Verdict)
			}
			if agg.Empty() {
				t.Error("unevaluated buckets must be kept")
			}
		})
	}
}

func TestEntryGate_SprintStaleness(t *testing.T) {
	tests := []struct {
		age     int
		verdict Verdict
	}{
		{21, VerdictStale},
		{20, VerdictEntered},
		{19, VerdictEntered},
	}
	for _, tt := range tests {
		bars := flatBars(40, 10)
		agg := signal.NewAggregator()
		agg.Add(purchaseOn(bars[len(bars)-1-tt.age].Date, "A Smith", 6000, 10), model.PhaseFalling)

		d := NewEntryGate(DefaultPolicy()).Evaluate(agg, risingMarket(bars, 3))
		if d.Tier.Name != model.TierSprint {
			t.Fatalf("expected SPRINT, got %s", d.Tier.Name)
		}
		if d.Verdict != tt.verdict {
			t.Errorf("purchase %d trading days old: expected %s, got %s", tt.age, tt.verdict, d.Verdict)
		}
	}
}

func TestEntryGate_WaitsForConfirmation(t *testing.T) {
	bars := flatBars(30, 10)
	agg := signal.NewAggregator()
	agg.Add(purchaseOn(bars[28].Date, "A Smith", 6000, 10), model.PhaseFalling)

	d := NewEntryGate(DefaultPolicy()).Evaluate(agg, risingMarket(bars, 2))
	if d.Verdict != VerdictWaiting {
		t.Fatalf("expected waiting, got %s", d.Verdict)
	}
	if agg.Empty() {
		t.Error("waiting must keep the buckets")
	}
}

func TestEntryGate_ChaseCap(t *testing.T) {
	bars := flatBars(30, 11.6)
	agg := signal.NewAggregator()
	agg.Add(purchaseOn(bars[28].Date, "A Smith", 6000, 10), model.PhaseFalling)

	d := NewEntryGate(DefaultPolicy()).Evaluate(agg, risingMarket(bars, 3))
	if d.Verdict != VerdictChaseCapped {
		t.Fatalf("expected chase_capped at 16%% over SPRINT cap, got %s", d.Verdict)
	}
	if !agg.Empty() {
		t.Error("rejection must clear the buckets")
	}
}

func TestEntryGate_ShoppingSpree(t *testing.T) {
	bars := flatBars(30, 10)
	agg := signal.NewAggregator()
	agg.Add(purchaseOn(bars[20].Date, "A Smith", 2000, 9.5), model.PhaseFalling)
	agg.Add(purchaseOn(bars[28].Date, "A Smith", 2000, 11), model.PhaseRising)

	d := NewEntryGate(DefaultPolicy()).Evaluate(agg, risingMarket(bars, 3))
	if d.Verdict != VerdictEntered {
		t.Fatalf("expected entry, got %s", d.Verdict)
	}
	if d.Position.Scenario != model.ScenarioShoppingSpree || d.Position.TargetPrice != 11 {
		t.Errorf("expected spree target 11, got %s %.2f", d.Position.Scenario, d.Position.TargetPrice)
	}
}

func TestEntryGate_NoScenarioClearsBuckets(t *testing.T) {
	bars := flatBars(30, 10)
	agg := signal.NewAggregator()
	agg.Add(purchaseOn(bars[28].Date, "A Smith", 1000, 10), model.PhaseFalling)

	d := NewEntryGate(DefaultPolicy()).Evaluate(agg, risingMarket(bars, 3))
	if d.Verdict != VerdictNoScenario {
		t.Fatalf("expected no_scenario below the absorption minimum, got %s", d.Verdict)
	}
	if !agg.Empty() {
		t.Error("one decision per cluster: buckets must be cleared")
	}
}

func TestEntryGate_AbsorptionBeforeAnyFall(t *testing.T) {
	bars := flatBars(30, 10)
	agg := signal.NewAggregator()
	agg.Add(purchaseOn(bars[28].Date, "A Smith", 30000, 10), model.PhaseUnknown)
	m := risingMarket(bars, 3)
	m.LastFallPct = 0

	d := NewEntryGate(DefaultPolicy()).Evaluate(agg, m)
	if d.Verdict != VerdictEntered {
		t.Fatalf("expected entry on the first rise, got %s", d.Verdict)
	}
	if d.Position.Scenario != model.ScenarioAbsorption || d.Position.TargetPrice != 10 {
		t.Errorf("expected absorption target at the close, got %s %.4f", d.Position.Scenario, d.Position.TargetPrice)
	}
}

func TestEntryGate_MissingATR(t *testing.T) {
	bars := flatBars(10, 10)
	agg := signal.NewAggregator()
	agg.Add(purchaseOn(bars[8].Date, "A Smith", 6000, 10), model.PhaseFalling)
	m := risingMarket(bars, 3)
	m.ATROK = false

	d := NewEntryGate(DefaultPolicy()).Evaluate(agg, m)
	if d.Verdict != VerdictNoSignal || d.Position != nil {
		t.Fatalf("expected no_signal without ATR, got %s", d.Verdict)
	}
	if agg.Empty() {
		t.Error("no-signal days must keep the buckets")
	}
}

func TestTradingDaysSince(t *testing.T) {
	bars := flatBars(10, 1)
	if got := TradingDaysSince(bars, bars[9].Date); got != 0 {
		t.Errorf("same day: expected 0, got %d", got)
	}
	if got := TradingDaysSince(bars, bars[2].Date); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if got := TradingDaysSince(bars, start.AddDate(0, 0, -5)); got != 10 {
		t.Errorf("purchase before history: expected 10, got %d", got)
	}
}
