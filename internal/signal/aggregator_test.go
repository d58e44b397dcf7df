package signal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"InsiderSentinel/internal/model"
)

var base = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func purchase(day int, price float64, value int64) model.InsiderEvent {
	return model.InsiderEvent{
		Date:    base.AddDate(0, 0, day),
		Insider: "Jane Doe",
		Title:   "Director",
		Value:   decimal.NewFromInt(value),
		Price:   price,
	}
}

func TestAggregator_BucketsByPhase(t *testing.T) {
	a := NewAggregator()
	a.Add(purchase(0, 10, 5000), model.PhaseRising)
	a.Add(purchase(1, 9, 5000), model.PhaseFalling)
	a.Add(purchase(2, 8, 5000), model.PhaseUnknown)

	if len(a.RiseBucket()) != 1 {
		t.Errorf("expected 1 rise purchase, got %d", len(a.RiseBucket()))
	}
	if len(a.FallBucket()) != 2 {
		t.Errorf("expected 2 fall purchases, got %d", len(a.FallBucket()))
	}
	if a.SpreePeak() != 10 {
		t.Errorf("expected spree peak 10, got %.2f", a.SpreePeak())
	}
	if len(a.All()) != 3 {
		t.Errorf("expected union of 3, got %d", len(a.All()))
	}
}

func TestAggregator_IgnoresSales(t *testing.T) {
	a := NewAggregator()
	if a.Add(purchase(0, 10, -5000), model.PhaseFalling) {
		t.Error("sale should be ignored")
	}
	if !a.Empty() {
		t.Error("expected empty aggregator")
	}
}

func TestAggregator_KeepsUnparsedValueRecords(t *testing.T) {
	a := NewAggregator()
	if !a.Add(purchase(0, 10, 0), model.PhaseFalling) {
		t.Error("zero-valued purchase records are kept")
	}
}

func TestAggregator_PurgeStale(t *testing.T) {
	tests := []struct {
		name    string
		today   int
		cleared bool
	}{
		{"same day", 5, false},
		{"exactly 30 days", 35, false},
		{"31 days", 36, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAggregator()
			a.Add(purchase(0, 10, 5000), model.PhaseFalling)
			a.Add(purchase(5, 11, 5000), model.PhaseRising)
			got := a.PurgeStale(base.AddDate(0, 0, tt.today))
			if got != tt.cleared {
				t.Errorf("expected cleared=%v, got %v", tt.cleared, got)
			}
			if tt.cleared && (!a.Empty() || a.SpreePeak() != 0) {
				t.Error("expected buckets and spree peak reset")
			}
		})
	}
}

func TestAggregator_MostRecent(t *testing.T) {
	a := NewAggregator()
	if _, ok := a.MostRecent(); ok {
		t.Error("expected no date for empty aggregator")
	}
	a.Add(purchase(3, 10, 1), model.PhaseRising)
	a.Add(purchase(1, 10, 1), model.PhaseFalling)
	got, _ := a.MostRecent()
	if !got.Equal(base.AddDate(0, 0, 3)) {
		t.Errorf("unexpected most recent %s", got)
	}
}

func TestAggregator_RiseBucketCarriesIntoNextCycle(t *testing.T) {
	a := NewAggregator()
	a.Add(purchase(0, 12, 4000), model.PhaseRising)
	// The rise ends and a fall begins without any gate decision.
	a.Add(purchase(10, 9, 4000), model.PhaseFalling)

	if a.PurgeStale(base.AddDate(0, 0, 20)) {
		t.Fatal("fresh purchases must not be purged")
	}
	if len(a.RiseBucket()) != 1 || len(a.FallBucket()) != 1 {
		t.Fatalf("expected both buckets populated, got rise=%d fall=%d", len(a.RiseBucket()), len(a.FallBucket()))
	}
	if a.SpreePeak() != 12 {
		t.Errorf("expected spree peak from the earlier rise, got %.2f", a.SpreePeak())
	}
}
