package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type cellEvent struct {
	date  string
	shift int
	value float64
}

func TestBucketByDateAndShiftPreservesTotal(t *testing.T) {
	events := []cellEvent{
		{"2026-08-01", 1, 10},
		{"2026-08-01", 1, 5},
		{"2026-08-01", 2, 7},
		{"2026-08-02", 1, 3},
	}

	got := BucketByDateAndShift(events,
		func(e cellEvent) string { return e.date },
		func(e cellEvent) int { return e.shift },
		func(e cellEvent) float64 { return e.value })

	assert.Equal(t, 15.0, got["2026-08-01"][1])
	assert.Equal(t, 7.0, got["2026-08-01"][2])
	assert.Equal(t, 3.0, got["2026-08-02"][1])

	sum := 0.0
	for _, row := range got {
		for _, v := range row {
			sum += v
		}
	}
	assert.Equal(t, 25.0, sum, "cells account for every input exactly once")
}

func TestMeanBuckets(t *testing.T) {
	m := NewMeanBuckets()
	m.Add("2026-08-01", 1, 80)
	m.Add("2026-08-01", 1, 90)
	m.Add("2026-08-01", 2, 70)

	got := m.Mean()

	assert.Equal(t, 85.0, got["2026-08-01"][1])
	assert.Equal(t, 70.0, got["2026-08-01"][2])
}
