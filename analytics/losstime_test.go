package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"prodstat/database"
)

func dayShift() database.Shift {
	return database.Shift{ID: 1, WorkStart: "08:00", WorkEnd: "17:00", LoadingTimeSec: 28800}
}

func TestDecomposeNarrowsMonotonically(t *testing.T) {
	downtime := []database.DowntimeEvent{
		{Kind: database.DowntimePDT, DurationSec: 600},
		{Kind: database.DowntimeUPDT, DurationSec: 1200},
	}
	planned := []database.PlannedDowntimeEvent{
		{DurationSec: 900, OverPDTDurationSec: 0},
	}

	got := Decompose(dayShift(), downtime, planned)

	assert.Equal(t, 28800, got.ShiftDurationSec)
	assert.Equal(t, 1500, got.PDTSec)
	assert.Equal(t, 1200, got.UPDTSec)
	assert.Equal(t, 28800-1500, got.PlanWorkingSec)
	assert.Equal(t, 28800-1500-1200, got.ActualWorkingSec)
	assert.LessOrEqual(t, got.ActualWorkingSec, got.PlanWorkingSec)
	assert.LessOrEqual(t, got.PlanWorkingSec, got.ShiftDurationSec)
}

func TestDecomposeOverPDTReclassifiesAsUnplanned(t *testing.T) {
	planned := []database.PlannedDowntimeEvent{
		{DurationSec: 1800, OverPDTDurationSec: 300},
	}

	got := Decompose(dayShift(), nil, planned)

	assert.Equal(t, 1800, got.PDTSec, "only the scheduled portion is planned loss")
	assert.Equal(t, 300, got.UPDTSec, "the overrun lands in unplanned loss")
	assert.Equal(t, 300, got.OverPDTSec)
}

func TestDecomposeCountsSmallStops(t *testing.T) {
	downtime := []database.DowntimeEvent{
		{Kind: database.DowntimeUPDT, DurationSec: 299},
		{Kind: database.DowntimeUPDT, DurationSec: 300}, // at the threshold, not small
		{Kind: database.DowntimeUPDT, DurationSec: 60},
		{Kind: database.DowntimePDT, DurationSec: 30}, // planned, never a small stop
	}

	got := Decompose(dayShift(), downtime, nil)

	assert.Equal(t, 2, got.SmallStopFreq)
}

func TestDecomposeFloorsAtZero(t *testing.T) {
	downtime := []database.DowntimeEvent{
		{Kind: database.DowntimePDT, DurationSec: 30000},
		{Kind: database.DowntimeUPDT, DurationSec: 5000},
	}

	got := Decompose(dayShift(), downtime, nil)

	assert.Equal(t, 0, got.PlanWorkingSec)
	assert.Equal(t, 0, got.ActualWorkingSec)
}

func TestDecomposeFallsBackToWorkWindow(t *testing.T) {
	s := database.Shift{WorkStart: "23:00", WorkEnd: "07:00"} // LoadingTimeSec never derived

	got := Decompose(s, nil, nil)

	assert.Equal(t, 8*3600, got.ShiftDurationSec)
}
