package analytics

import (
	"math"
	"sort"
)

// ParetoEntry is one ranked category in a Pareto analysis.
type ParetoEntry struct {
	Category   string  `json:"category"`
	Magnitude  float64 `json:"magnitude"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Cumulative float64 `json:"cumulative"`
}

// ParetoRank groups events by category, sums their magnitudes and ranks
// the groups by summed magnitude descending (category label ascending on
// ties, so the order is deterministic). Each entry carries its share of
// the grand total and the running cumulative share; the cumulative is
// computed from the raw magnitude sums, so the last entry lands on
// exactly 100 whenever the total is positive. When every magnitude is
// zero, percentages and cumulatives are all zero rather than NaN.
func ParetoRank[E any](events []E, categoryOf func(E) string, magnitudeOf func(E) float64) []ParetoEntry {
	byCategory := make(map[string]*ParetoEntry)
	for _, e := range events {
		cat := categoryOf(e)
		entry, ok := byCategory[cat]
		if !ok {
			entry = &ParetoEntry{Category: cat}
			byCategory[cat] = entry
		}
		entry.Magnitude += magnitudeOf(e)
		entry.Count++
	}

	ranked := make([]ParetoEntry, 0, len(byCategory))
	total := 0.0
	for _, entry := range byCategory {
		ranked = append(ranked, *entry)
		total += entry.Magnitude
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Magnitude != ranked[j].Magnitude {
			return ranked[i].Magnitude > ranked[j].Magnitude
		}
		return ranked[i].Category < ranked[j].Category
	})

	if total <= 0 {
		return ranked
	}

	running := 0.0
	for i := range ranked {
		running += ranked[i].Magnitude
		ranked[i].Percentage = round2(ranked[i].Magnitude / total * 100)
		ranked[i].Cumulative = round2(running / total * 100)
	}
	return ranked
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
