package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"InsiderSentinel/internal/model"
)

func buy(name, title string, value int64) model.InsiderEvent {
	return model.InsiderEvent{
		Date:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Insider: name,
		Title:   title,
		Value:   decimal.NewFromInt(value),
		Price:   10,
	}
}

func TestClassify_OmegaBoundary(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name  string
		value int64
		tier  model.TierName
	}{
		{"large CFO purchase", 1450221, model.TierOmega},
		{"exactly threshold", 25000, model.TierOmega},
		{"one dollar short", 24999, model.TierConviction},
		{"small CFO purchase", 4000, model.TierSprint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify([]model.InsiderEvent{buy("Jane Roe", "Chief Financial Officer", tt.value)}, p)
			if got.Name != tt.tier {
				t.Errorf("value %d: expected %s, got %s", tt.value, tt.tier, got.Name)
			}
		})
	}
}

func TestClassify_Conviction(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name   string
		events []model.InsiderEvent
		tier   model.TierName
	}{
		{"two distinct insiders", []model.InsiderEvent{buy("A Smith", "Director", 1000), buy("B Jones", "Director", 1000)}, model.TierConviction},
		{"same insider twice", []model.InsiderEvent{buy("A Smith", "Director", 1000), buy("a  smith", "Director", 1000)}, model.TierSprint},
		{"aggregate reaches 10k", []model.InsiderEvent{buy("A Smith", "Director", 6000), buy("A Smith", "Director", 4000)}, model.TierConviction},
		{"non-exec large purchase", []model.InsiderEvent{buy("A Smith", "10% Owner", 500000)}, model.TierConviction},
		{"empty cluster", nil, model.TierSprint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.events, p); got.Name != tt.tier {
				t.Errorf("expected %s, got %s", tt.tier, got.Name)
			}
		})
	}
}

func TestClassify_ExcludesUnparsedAndSales(t *testing.T) {
	p := DefaultPolicy()
	events := []model.InsiderEvent{
		buy("A Smith", "CEO", 0),
		buy("B Jones", "CEO", -900000),
	}
	if got := Classify(events, p); got.Name != model.TierSprint {
		t.Errorf("zero and negative values must not add conviction, got %s", got.Name)
	}
}

func TestClassify_TierParameters(t *testing.T) {
	p := DefaultPolicy()
	omega := Classify([]model.InsiderEvent{buy("A", "CEO", 30000)}, p)
	if omega.ShockAbsorberMult != 3.0 || omega.PatternFloorMult != 4.0 || omega.ConfirmationDays != 0 ||
		omega.ChaseCap != 0.25 || omega.SignalValidityDays != 10 {
		t.Errorf("unexpected OMEGA parameters: %+v", omega)
	}
	sprint := Classify(nil, p)
	if sprint.ShockAbsorberMult != 1.5 || sprint.ConfirmationDays != 3 || sprint.SignalValidityDays != 20 {
		t.Errorf("unexpected SPRINT parameters: %+v", sprint)
	}
}

func TestIsExecutiveTitle(t *testing.T) {
	tests := []struct {
		title string
		exec  bool
	}{
		{"Chief Financial Officer", true},
		{"Chief Executive Officer", true},
		{"CEO", true},
		{"Pres, CEO", true},
		{"CFO & Treasurer", true},
		{"Principal Financial Officer", true},
		{"Director", false},
		{"VP, Sales", false},
		{"10% Owner", false},
		{"Chief Operating Officer", false},
	}
	for _, tt := range tests {
		if got := IsExecutiveTitle(tt.title); got != tt.exec {
			t.Errorf("%q: expected %v, got %v", tt.title, tt.exec, got)
		}
	}
}
