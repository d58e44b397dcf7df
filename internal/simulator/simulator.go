// Package simulator drives one forward pass per ticker through the trend
// detector, purchase aggregator, entry gate and exit floor.
package simulator

import (
	"sort"

	"go.uber.org/zap"

	"InsiderSentinel/internal/calculator"
	"InsiderSentinel/internal/model"
	"InsiderSentinel/internal/signal"
	"InsiderSentinel/internal/strategy"
	"InsiderSentinel/internal/trend"
)

// Observer receives per-ticker decisions, e.g. for metrics.
type Observer interface {
	Decision(symbol string, d strategy.Decision)
	Exit(symbol string, t model.ClosedTrade)
}

type nopObserver struct{}

func (nopObserver) Decision(string, strategy.Decision) {}
func (nopObserver) Exit(string, model.ClosedTrade)     {}

// Simulator replays tickers under a fixed policy. It holds no per-ticker
// state and may be shared between goroutines.
type Simulator struct {
	policy   strategy.Policy
	trend    trend.Policy
	log      *zap.Logger
	observer Observer
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(s *Simulator) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithTrendPolicy overrides the detector thresholds.
func WithTrendPolicy(p trend.Policy) Option {
	return func(s *Simulator) { s.trend = p }
}

// New creates a simulator. A nil logger is replaced with a no-op logger.
func New(p strategy.Policy, log *zap.Logger, opts ...Option) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Simulator{
		policy:   p,
		trend:    trend.DefaultPolicy(),
		log:      log,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// history merges rises completed so far with the precomputed table.
type history struct {
	det   *trend.Detector
	table []model.HistoricalRise
}

func (h history) HistoricalRises() []model.HistoricalRise {
	live := h.det.HistoricalRises()
	out := make([]model.HistoricalRise, 0, len(h.table)+len(live))
	out = append(out, h.table...)
	return append(out, live...)
}

// Run simulates a single ticker.
func (s *Simulator) Run(in model.TickerInput) model.TickerResult {
	res := model.TickerResult{Symbol: in.Symbol}
	log := s.log.With(zap.String("ticker", in.Symbol))

	events := make([]model.InsiderEvent, 0, len(in.Events))
	for _, ev := range in.Events {
		if ev.IsPurchase() {
			events = append(events, ev)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })

	det := trend.NewDetector(s.trend)
	agg := signal.NewAggregator()
	gate := strategy.NewEntryGate(s.policy)
	hist := history{det: det, table: in.History}

	var exit *strategy.ExitEngine
	next := 0
	cur := NewCursor(in.Bars)
	for cur.Next() {
		bar := cur.Today()

		phase := det.Phase()
		for next < len(events) && !events[next].Date.After(bar.Date) {
			det.Observe(events[next])
			agg.Add(events[next], phase)
			next++
		}

		det.Update(bar)

		if exit != nil {
			reason, done := exit.Update(bar)
			if !done {
				continue
			}
			trade := strategy.CloseTrade(in.Symbol, exit.Position(), bar, reason)
			res.Trades = append(res.Trades, trade)
			s.observer.Exit(in.Symbol, trade)
			log.Debug("position closed",
				zap.Time("date", bar.Date),
				zap.String("reason", string(reason)),
				zap.Float64("return_pct", trade.ReturnPct))
			exit = nil
			continue
		}

		agg.PurgeStale(bar.Date)
		if det.Phase() != model.PhaseRising || len(agg.FallBucket()) == 0 {
			continue
		}

		visible := cur.Visible()
		atr, err := calculator.CalculateATR14(visible)
		d := gate.Evaluate(agg, strategy.Market{
			Bars:        visible,
			Phase:       det.Phase(),
			UpDays:      det.ConsecutiveUpDays(),
			LastFallPct: det.LastFallPct(),
			ATR:         atr,
			ATROK:       err == nil,
		})
		s.observer.Decision(in.Symbol, d)
		if d.Position == nil {
			continue
		}
		log.Debug("position opened",
			zap.Time("date", bar.Date),
			zap.String("tier", string(d.Tier.Name)),
			zap.String("scenario", string(d.Position.Scenario)),
			zap.Float64("entry", d.Position.EntryPrice),
			zap.Float64("floor", d.Position.FloorPrice))
		exit = strategy.NewExitEngine(s.policy, d.Position, hist)
	}

	if exit != nil && len(in.Bars) > 0 {
		trade := strategy.CloseTrade(in.Symbol, exit.Position(), in.Bars[len(in.Bars)-1], model.ExitEndOfData)
		res.Trades = append(res.Trades, trade)
		s.observer.Exit(in.Symbol, trade)
	}
	det.Flush()
	res.Trends = det.Completed()
	return res
}
