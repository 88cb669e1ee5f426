package analytics

import "math"

// OEE holds the three OEE factors and their product, all percentages
// in [0,100] rounded to two decimals.
type OEE struct {
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
	Score        float64 `json:"oee"`
}

// ComputeOEE derives Availability x Performance x Quality for a plan.
// Quality comes from the quantities alone; Availability and Performance
// need the loss-time breakdown. A nil breakdown means loss data was
// never computed for the plan and yields zero for both factors -- it is
// never estimated.
func ComputeOEE(plannedQty, actualQty, ngQty int, loss *LossBreakdown) OEE {
	var quality float64
	if actualQty > 0 {
		quality = float64(actualQty-ngQty) / float64(actualQty) * 100
	}

	var availability, performance float64
	if loss != nil {
		total := loss.PlanWorkingSec + loss.PDTSec + loss.UPDTSec
		if total > 0 {
			availability = float64(loss.ActualWorkingSec) / float64(total) * 100
		}
		if loss.ActualWorkingSec > 0 {
			performance = float64(loss.PlanWorkingSec) / float64(loss.ActualWorkingSec) * 100
		}
	}

	availability = roundPct(availability)
	performance = roundPct(performance)
	quality = roundPct(quality)
	score := roundPct(availability * performance * quality / 10000)

	return OEE{
		Availability: availability,
		Performance:  performance,
		Quality:      quality,
		Score:        score,
	}
}

// roundPct rounds to two decimals and clamps into the percentage range.
func roundPct(v float64) float64 {
	v = math.Round(v*100) / 100
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
