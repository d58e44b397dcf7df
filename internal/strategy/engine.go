package strategy

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"InsiderSentinel/internal/model"
)

// Cluster summarises the purchases that count toward conviction.
type Cluster struct {
	Insiders        int
	Aggregate       decimal.Decimal
	MaxExecPurchase decimal.Decimal
}

// Summarize builds a Cluster from raw events. Sales and records with a zero
// (unparsed) value are excluded.
func Summarize(events []model.InsiderEvent) Cluster {
	var c Cluster
	seen := make(map[string]struct{})
	for _, ev := range events {
		if !ev.Value.IsPositive() {
			continue
		}
		c.Aggregate = c.Aggregate.Add(ev.Value)
		if key := ev.InsiderKey(); key != "" {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				c.Insiders++
			}
		}
		if IsExecutiveTitle(ev.Title) && ev.Value.GreaterThan(c.MaxExecPurchase) {
			c.MaxExecPurchase = ev.Value
		}
	}
	return c
}

// tierRules is checked top-down; the first match wins.
var tierRules = []struct {
	Name  model.TierName
	Match func(c Cluster, p Policy) bool
}{
	{model.TierOmega, func(c Cluster, p Policy) bool {
		return c.MaxExecPurchase.GreaterThanOrEqual(p.OmegaMinValue)
	}},
	{model.TierConviction, func(c Cluster, p Policy) bool {
		return c.Insiders >= p.ConvictionMinInsiders || c.Aggregate.GreaterThanOrEqual(p.ConvictionMinValue)
	}},
}

// mapTier maps a cluster to its tier name.
func mapTier(c Cluster, p Policy) model.TierName {
	for _, r := range tierRules {
		if r.Match(c, p) {
			return r.Name
		}
	}
	return model.TierSprint
}

// Classify returns the conviction tier for the union of both purchase buckets.
func Classify(events []model.InsiderEvent, p Policy) model.ConvictionTier {
	return p.Tier(mapTier(Summarize(events), p))
}

var execPhrases = []string{
	"chief executive",
	"chief financial",
	"principal executive",
	"principal financial",
}

var execTokens = map[string]struct{}{"ceo": {}, "cfo": {}}

// IsExecutiveTitle reports whether a filing title is CEO or CFO equivalent.
func IsExecutiveTitle(title string) bool {
	t := strings.ToLower(strings.Join(strings.Fields(title), " "))
	for _, p := range execPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	words := strings.FieldsFunc(t, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if _, ok := execTokens[w]; ok {
			return true
		}
	}
	return false
}
