package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stoppage struct {
	cause   string
	seconds float64
}

func rankStoppages(events []stoppage) []ParetoEntry {
	return ParetoRank(events,
		func(s stoppage) string { return s.cause },
		func(s stoppage) float64 { return s.seconds })
}

func TestParetoRankOrderAndCumulative(t *testing.T) {
	events := []stoppage{
		{"Jam", 20},
		{"Changeover", 50},
		{"Jam", 10},
		{"Sensor", 20},
	}

	got := rankStoppages(events)
	require.Len(t, got, 3)

	assert.Equal(t, "Changeover", got[0].Category)
	assert.Equal(t, 50.0, got[0].Magnitude)
	assert.Equal(t, 50.0, got[0].Percentage)
	assert.Equal(t, 50.0, got[0].Cumulative)

	assert.Equal(t, "Jam", got[1].Category)
	assert.Equal(t, 2, got[1].Count)
	assert.Equal(t, 30.0, got[1].Percentage)
	assert.Equal(t, 80.0, got[1].Cumulative)

	assert.Equal(t, "Sensor", got[2].Category)
	assert.Equal(t, 100.0, got[2].Cumulative, "last cumulative is exactly 100")
}

func TestParetoRankTieBreaksByLabel(t *testing.T) {
	got := rankStoppages([]stoppage{{"Beta", 10}, {"Alpha", 10}})
	require.Len(t, got, 2)

	assert.Equal(t, "Alpha", got[0].Category)
	assert.Equal(t, "Beta", got[1].Category)
}

func TestParetoRankZeroTotal(t *testing.T) {
	got := rankStoppages([]stoppage{{"Jam", 0}, {"Sensor", 0}})
	require.Len(t, got, 2)

	for _, e := range got {
		assert.Equal(t, 0.0, e.Percentage)
		assert.Equal(t, 0.0, e.Cumulative)
	}
}

func TestParetoRankCumulativeAvoidsRoundingDrift(t *testing.T) {
	// Three equal thirds: per-entry rounding gives 33.33 each, but the
	// cumulative is built from raw sums so the tail still reaches 100.
	got := rankStoppages([]stoppage{{"A", 1}, {"B", 1}, {"C", 1}})
	require.Len(t, got, 3)

	assert.Equal(t, 33.33, got[0].Percentage)
	assert.Equal(t, 66.67, got[1].Cumulative)
	assert.Equal(t, 100.0, got[2].Cumulative)
}

func TestParetoRankEmpty(t *testing.T) {
	assert.Empty(t, rankStoppages(nil))
}
