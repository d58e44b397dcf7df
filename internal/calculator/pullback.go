package calculator

import (
	"math"
	"sort"

	"InsiderSentinel/internal/model"
)

// ComparableRises returns the rises whose growth lies within ±band (fractional)
// of reference, e.g. band 0.2 keeps [0.8*ref, 1.2*ref]. Rises without recorded
// pullbacks carry no information and are skipped.
func ComparableRises(history []model.HistoricalRise, reference, band float64) []model.HistoricalRise {
	if reference <= 0 {
		return nil
	}
	lo := reference * (1 - band)
	hi := reference * (1 + band)
	var out []model.HistoricalRise
	for _, h := range history {
		if h.AvgPullbackPct <= 0 {
			continue
		}
		if h.GrowthPct >= lo && h.GrowthPct <= hi {
			out = append(out, h)
		}
	}
	return out
}

// AveragePullback returns the mean AvgPullbackPct of rises, split by whether
// they were insider-backed. ok flags are false when a group is empty.
func AveragePullback(rises []model.HistoricalRise) (insider float64, insiderOK bool, plain float64, plainOK bool) {
	var insSum, plainSum float64
	var insN, plainN int
	for _, r := range rises {
		if r.InsiderBacked {
			insSum += r.AvgPullbackPct
			insN++
		} else {
			plainSum += r.AvgPullbackPct
			plainN++
		}
	}
	if insN > 0 {
		insider, insiderOK = insSum/float64(insN), true
	}
	if plainN > 0 {
		plain, plainOK = plainSum/float64(plainN), true
	}
	return insider, insiderOK, plain, plainOK
}

// TopQuartileDeepestPullback averages MaxPullbackPct over the top quarter of
// rises ranked by growth (at least one rise). Returns false without usable history.
func TopQuartileDeepestPullback(history []model.HistoricalRise) (float64, bool) {
	usable := make([]model.HistoricalRise, 0, len(history))
	for _, h := range history {
		if h.MaxPullbackPct > 0 {
			usable = append(usable, h)
		}
	}
	if len(usable) == 0 {
		return 0, false
	}
	sort.SliceStable(usable, func(i, j int) bool { return usable[i].GrowthPct > usable[j].GrowthPct })
	n := int(math.Ceil(float64(len(usable)) / 4))
	sum := 0.0
	for _, h := range usable[:n] {
		sum += h.MaxPullbackPct
	}
	return sum / float64(n), true
}
