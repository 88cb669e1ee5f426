package analytics

// Buckets is a sparse (date -> shift number -> value) matrix, the shape
// every calendar chart in the reporting layer is built from.
type Buckets map[string]map[int]float64

// Add accumulates a value into the (date, shift) cell.
func (b Buckets) Add(date string, shift int, v float64) {
	row, ok := b[date]
	if !ok {
		row = make(map[int]float64)
		b[date] = row
	}
	row[shift] += v
}

// BucketByDateAndShift sums valueOf over events grouped by calendar date
// and shift number. Pure grouping: every event lands in exactly one cell,
// so the sum over all cells reproduces the sum over the input.
func BucketByDateAndShift[E any](events []E, dateOf func(E) string, shiftOf func(E) int, valueOf func(E) float64) Buckets {
	b := make(Buckets)
	for _, e := range events {
		b.Add(dateOf(e), shiftOf(e), valueOf(e))
	}
	return b
}

// MeanBuckets tracks a running sum and count per cell, for values that
// must be averaged rather than summed (per-plan OEE scores, mainly).
type MeanBuckets struct {
	sums   Buckets
	counts map[string]map[int]int
}

// NewMeanBuckets returns an empty mean aggregator.
func NewMeanBuckets() *MeanBuckets {
	return &MeanBuckets{
		sums:   make(Buckets),
		counts: make(map[string]map[int]int),
	}
}

// Add records one observation for the (date, shift) cell.
func (m *MeanBuckets) Add(date string, shift int, v float64) {
	m.sums.Add(date, shift, v)
	row, ok := m.counts[date]
	if !ok {
		row = make(map[int]int)
		m.counts[date] = row
	}
	row[shift]++
}

// Mean divides each cell's sum by its count.
func (m *MeanBuckets) Mean() Buckets {
	out := make(Buckets, len(m.sums))
	for date, row := range m.sums {
		for shift, sum := range row {
			n := m.counts[date][shift]
			if n > 0 {
				out.Add(date, shift, sum/float64(n))
			}
		}
	}
	return out
}
