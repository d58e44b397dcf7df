// Package trend classifies a forward-only daily close stream into alternating
// RISE/FALL segments.
//
// A rise is confirmed by consecutive up-days and backdated to the lowest close
// in a short rolling window. A rise only ends on the dip -> recovery -> second
// dip pattern, so a single red day never flips the phase. The detector sees
// one bar at a time and never reads ahead.
package trend

import (
	"time"

	"InsiderSentinel/internal/model"
)

// eps absorbs float noise when comparing percentage thresholds.
const eps = 1e-9

// Policy holds the detector's fixed thresholds.
type Policy struct {
	WindowSize          int     // rolling window used to backtrack to the local low
	MinAbsChange        float64 // close-to-close change below this is a plateau
	DipPct              float64 // first dip: % below the peak
	SecondDipPct        float64 // second dip: % below the recovery high
	ConfirmDays         int     // consecutive up-days that confirm a rise
	SeasonedConfirmDays int     // used once the ticker has insider-backed rise and fall history
	MinDurationDays     int     // segments shorter than this are never emitted
	MinChangePct        float64 // segments smaller than this are never emitted
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		WindowSize:          4,
		MinAbsChange:        0.005,
		DipPct:              1.0,
		SecondDipPct:        1.0,
		ConfirmDays:         2,
		SeasonedConfirmDays: 3,
		MinDurationDays:     2,
		MinChangePct:        2.0,
	}
}

type move int

const (
	plateau move = iota
	up
	down
)

type barRef struct {
	date  time.Time
	price float64
	index int
}

// Detector is the per-ticker trend state machine. It is not safe for
// concurrent use; each ticker owns its own Detector.
type Detector struct {
	policy Policy

	phase   model.TrendPhase
	index   int
	last    barRef
	hasLast bool
	window  []barRef
	upDays  int

	start barRef // start of the active segment; for a fall, price is the former peak
	peak  barRef

	dipActive    bool
	preDip       barRef
	dipLow       barRef
	inRecovery   bool
	recoveryHigh float64
	drawdown     float64
	pullbacks    []float64

	pending    []model.InsiderEvent
	completed  []model.CompletedTrendEvent
	riseSignal bool
	fallSignal bool
	lastFall   float64
}

// NewDetector creates a detector in the UNKNOWN phase.
func NewDetector(policy Policy) *Detector {
	if policy.WindowSize < 1 {
		policy.WindowSize = 1
	}
	return &Detector{policy: policy, phase: model.PhaseUnknown, index: -1}
}

// Phase returns the current trend phase.
func (d *Detector) Phase() model.TrendPhase { return d.phase }

// ConsecutiveUpDays returns the current run of up-days.
func (d *Detector) ConsecutiveUpDays() int { return d.upDays }

// LastFallPct returns the decline % of the most recently closed fall, emitted
// or not. Zero until a fall has closed.
func (d *Detector) LastFallPct() float64 { return d.lastFall }

// Completed returns the emitted segments in date order.
func (d *Detector) Completed() []model.CompletedTrendEvent {
	out := make([]model.CompletedTrendEvent, len(d.completed))
	copy(out, d.completed)
	return out
}

// HistoricalRises summarises every emitted rise so far.
func (d *Detector) HistoricalRises() []model.HistoricalRise {
	var out []model.HistoricalRise
	for i := range d.completed {
		if h, ok := d.completed[i].ToHistoricalRise(); ok {
			out = append(out, h)
		}
	}
	return out
}

// Observe records an insider event for later attribution to a segment. Events
// must be observed no later than the bar of the same date.
func (d *Detector) Observe(ev model.InsiderEvent) {
	d.pending = append(d.pending, ev)
}

// Update consumes the next bar. It returns the segment completed by this bar, if any.
func (d *Detector) Update(bar model.PriceBar) (model.CompletedTrendEvent, bool) {
	d.index++
	ref := barRef{date: bar.Date, price: bar.Close, index: d.index}

	m := plateau
	if d.hasLast {
		change := ref.price - d.last.price
		switch {
		case change > d.policy.MinAbsChange:
			m = up
		case change < -d.policy.MinAbsChange:
			m = down
		}
	}
	if m == up {
		d.upDays++
	} else {
		d.upDays = 0
	}

	d.window = append(d.window, ref)
	if len(d.window) > d.policy.WindowSize {
		d.window = d.window[len(d.window)-d.policy.WindowSize:]
	}

	var ev model.CompletedTrendEvent
	var emitted bool
	switch d.phase {
	case model.PhaseRising:
		ev, emitted = d.updateRising(ref, m)
	default:
		ev, emitted = d.huntRise(ref)
	}

	d.last = ref
	d.hasLast = true
	return ev, emitted
}

// Flush closes a still-open rise at end of data. A pending first dip ends the
// rise on the bar before it, as a confirmed fall would have.
func (d *Detector) Flush() (model.CompletedTrendEvent, bool) {
	if d.phase != model.PhaseRising || !d.hasLast {
		return model.CompletedTrendEvent{}, false
	}
	end := d.last
	if d.dipActive {
		end = d.preDip
	}
	ev, ok := d.closeRise(end)
	d.phase = model.PhaseUnknown
	d.resetDip()
	return ev, ok
}

func (d *Detector) confirmDays() int {
	if d.riseSignal && d.fallSignal {
		return d.policy.SeasonedConfirmDays
	}
	return d.policy.ConfirmDays
}

func (d *Detector) huntRise(ref barRef) (model.CompletedTrendEvent, bool) {
	if len(d.window) < d.policy.WindowSize || d.upDays < d.confirmDays() {
		return model.CompletedTrendEvent{}, false
	}

	floor := 0
	if d.phase == model.PhaseFalling {
		floor = d.start.index
	}
	low := ref
	for _, w := range d.window {
		if w.index >= floor && w.price < low.price {
			low = w
		}
	}

	var ev model.CompletedTrendEvent
	var emitted bool
	if d.phase == model.PhaseFalling {
		ev, emitted = d.closeFall(low)
	}
	d.beginRise(low)
	return ev, emitted
}

func (d *Detector) beginRise(low barRef) {
	d.phase = model.PhaseRising
	d.start = low
	d.peak = low
	for _, w := range d.window {
		if w.index >= low.index && w.price > d.peak.price {
			d.peak = w
		}
	}
	d.resetDip()
	d.drawdown = 0
	d.pullbacks = nil
	d.dropPendingBefore(low.date)
}

func (d *Detector) updateRising(ref barRef, m move) (model.CompletedTrendEvent, bool) {
	if ref.price > d.peak.price {
		if d.drawdown+eps >= d.policy.DipPct {
			d.pullbacks = append(d.pullbacks, d.drawdown)
		}
		d.peak = ref
		d.drawdown = 0
		d.resetDip()
		return model.CompletedTrendEvent{}, false
	}
	if d.peak.price <= 0 {
		return model.CompletedTrendEvent{}, false
	}

	dd := (d.peak.price - ref.price) / d.peak.price * 100
	if dd > d.drawdown {
		d.drawdown = dd
	}

	if !d.dipActive {
		if m == down && dd+eps >= d.policy.DipPct {
			d.dipActive = true
			d.preDip = d.last
			d.dipLow = ref
		}
		return model.CompletedTrendEvent{}, false
	}

	if !d.inRecovery {
		if m == down {
			if ref.price < d.dipLow.price {
				d.dipLow = ref
			}
			return model.CompletedTrendEvent{}, false
		}
		if ref.price > d.dipLow.price {
			d.inRecovery = true
			d.recoveryHigh = ref.price
		}
		return model.CompletedTrendEvent{}, false
	}

	if m != down {
		if ref.price > d.recoveryHigh {
			d.recoveryHigh = ref.price
		}
		return model.CompletedTrendEvent{}, false
	}
	if ref.price < d.dipLow.price {
		d.dipLow = ref
	}
	if d.recoveryHigh <= 0 {
		return model.CompletedTrendEvent{}, false
	}
	if (d.recoveryHigh-ref.price)/d.recoveryHigh*100+eps < d.policy.SecondDipPct {
		return model.CompletedTrendEvent{}, false
	}

	// Second dip confirms the fall.
	end := d.preDip
	formerPeak := d.peak.price
	ev, emitted := d.closeRise(end)

	d.phase = model.PhaseFalling
	d.start = barRef{date: end.date, price: formerPeak, index: end.index}
	d.resetDip()
	return ev, emitted
}

func (d *Detector) closeRise(end barRef) (model.CompletedTrendEvent, bool) {
	ev := model.CompletedTrendEvent{
		Type:       model.TrendRise,
		StartDate:  d.start.date,
		StartPrice: d.start.price,
		EndDate:    end.date,
		EndPrice:   end.price,
		PeakDate:   d.peak.date,
		PeakPrice:  d.peak.price,
		Duration:   end.index - d.start.index,
	}
	if d.start.price > 0 {
		ev.ChangePct = (d.peak.price - d.start.price) / d.start.price * 100
	}
	ev.Pullbacks = append([]float64(nil), d.pullbacks...)

	// Events after the peak belong to the following fall and stay pending.
	var keep []model.InsiderEvent
	for _, e := range d.pending {
		switch {
		case e.Date.Before(d.start.date):
		case !e.Date.After(d.peak.date):
			ev.Events = append(ev.Events, e)
		default:
			keep = append(keep, e)
		}
	}
	d.pending = keep
	d.pullbacks = nil
	d.drawdown = 0

	if !d.passesGates(ev) {
		return model.CompletedTrendEvent{}, false
	}
	if ev.InsiderBacked() {
		d.riseSignal = true
	}
	d.completed = append(d.completed, ev)
	return ev, true
}

func (d *Detector) closeFall(end barRef) (model.CompletedTrendEvent, bool) {
	ev := model.CompletedTrendEvent{
		Type:       model.TrendFall,
		StartDate:  d.start.date,
		StartPrice: d.start.price,
		EndDate:    end.date,
		EndPrice:   end.price,
		Duration:   end.index - d.start.index,
	}
	if d.start.price > 0 {
		ev.ChangePct = (d.start.price - end.price) / d.start.price * 100
	}
	d.lastFall = ev.ChangePct

	var keep []model.InsiderEvent
	for _, e := range d.pending {
		if e.Date.After(end.date) {
			keep = append(keep, e)
		} else {
			ev.Events = append(ev.Events, e)
		}
	}
	d.pending = keep

	if !d.passesGates(ev) {
		return model.CompletedTrendEvent{}, false
	}
	if ev.InsiderBacked() {
		d.fallSignal = true
	}
	d.completed = append(d.completed, ev)
	return ev, true
}

func (d *Detector) passesGates(ev model.CompletedTrendEvent) bool {
	return ev.Duration >= d.policy.MinDurationDays && ev.ChangePct+eps >= d.policy.MinChangePct
}

func (d *Detector) resetDip() {
	d.dipActive = false
	d.inRecovery = false
	d.recoveryHigh = 0
	d.preDip = barRef{}
	d.dipLow = barRef{}
}

func (d *Detector) dropPendingBefore(t time.Time) {
	keep := d.pending[:0]
	for _, e := range d.pending {
		if !e.Date.Before(t) {
			keep = append(keep, e)
		}
	}
	d.pending = keep
}
