package analytics

import "prodstat/database"

// SmallStopThresholdSec separates micro-stoppages from ordinary
// unplanned downtime: UPDT events shorter than this are counted as
// small stops.
const SmallStopThresholdSec = 300

// LossBreakdown decomposes a shift's elapsed time into planned and
// unplanned loss buckets for one production plan.
type LossBreakdown struct {
	ShiftDurationSec int `json:"shift_duration_sec"`
	PlanWorkingSec   int `json:"plan_working_sec"`
	ActualWorkingSec int `json:"actual_working_sec"`
	PDTSec           int `json:"pdt_sec"`
	UPDTSec          int `json:"updt_sec"`
	OverPDTSec       int `json:"over_pdt_sec"`
	SmallStopFreq    int `json:"small_stop_freq"`
}

// Decompose narrows the shift window step by step: planned stoppages
// (standalone PDT events plus planned-downtime occurrences) come off
// first, then unplanned stoppages (UPDT events plus planned-downtime
// overruns, which reclassify from planned to unplanned loss).
//
// Both subtractions floor at zero: downtime logged in excess of the
// shift window degrades to "no working time", never a negative that
// would poison the OEE downstream. So actualWorking <= planWorking <=
// shiftDuration always holds.
func Decompose(shift database.Shift, downtime []database.DowntimeEvent, planned []database.PlannedDowntimeEvent) LossBreakdown {
	shiftDuration := shift.LoadingTimeSec
	if shiftDuration == 0 {
		// Loading time was never derived for this shift; fall back to a
		// break-less estimate from the raw work window.
		shiftDuration = LoadingTimeSeconds(shift.WorkStart, shift.WorkEnd, nil)
	}

	var pdt, updt, overPDT, smallStops int

	for _, e := range planned {
		pdt += e.DurationSec
		overPDT += e.OverPDTDurationSec
	}

	for _, e := range downtime {
		switch e.Kind {
		case database.DowntimePDT:
			pdt += e.DurationSec
		case database.DowntimeUPDT:
			updt += e.DurationSec
			if e.DurationSec < SmallStopThresholdSec {
				smallStops++
			}
		}
	}

	// Overruns of planned events count as unplanned loss.
	updt += overPDT

	planWorking := shiftDuration - pdt
	if planWorking < 0 {
		planWorking = 0
	}
	actualWorking := planWorking - updt
	if actualWorking < 0 {
		actualWorking = 0
	}

	return LossBreakdown{
		ShiftDurationSec: shiftDuration,
		PlanWorkingSec:   planWorking,
		ActualWorkingSec: actualWorking,
		PDTSec:           pdt,
		UPDTSec:          updt,
		OverPDTSec:       overPDT,
		SmallStopFreq:    smallStops,
	}
}
