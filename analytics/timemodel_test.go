package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"prodstat/database"
)

func TestLoadingTimeSeconds(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		end    string
		breaks []BreakWindow
		want   int
	}{
		{
			name:  "day shift no breaks",
			start: "08:00", end: "17:00",
			want: 9 * 3600,
		},
		{
			name:  "day shift with lunch",
			start: "08:00", end: "17:00",
			breaks: []BreakWindow{{Start: "12:00", End: "13:00"}},
			want:   8 * 3600,
		},
		{
			name:  "overnight shift wraps midnight",
			start: "23:00", end: "07:00",
			want: 8 * 3600,
		},
		{
			name:  "overnight with break",
			start: "20:00", end: "05:00",
			breaks: []BreakWindow{{Start: "00:30", End: "01:00"}},
			want:   8*3600 + 1800,
		},
		{
			name:  "multiple breaks",
			start: "06:00", end: "14:30",
			breaks: []BreakWindow{
				{Start: "09:00", End: "09:15"},
				{Start: "12:00", End: "12:45"},
			},
			want: (8*60 + 30 - 60) * 60, // 8h30m window minus 1h of breaks
		},
		{
			name:  "half open break pair is ignored",
			start: "08:00", end: "16:00",
			breaks: []BreakWindow{{Start: "12:00", End: ""}},
			want:   8 * 3600,
		},
		{
			name:  "unparseable break pair is ignored",
			start: "08:00", end: "16:00",
			breaks: []BreakWindow{{Start: "noon", End: "13:00"}},
			want:   8 * 3600,
		},
		{
			name:  "breaks exceeding window floor at zero",
			start: "08:00", end: "09:00",
			breaks: []BreakWindow{{Start: "06:00", End: "12:00"}},
			want:   0,
		},
		{
			name:  "malformed work start",
			start: "8am", end: "17:00",
			want: 0,
		},
		{
			name:  "malformed work end",
			start: "08:00", end: "25:00",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LoadingTimeSeconds(tt.start, tt.end, tt.breaks)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShiftLoadingTime(t *testing.T) {
	s := database.Shift{
		WorkStart:   "22:00",
		WorkEnd:     "06:00",
		Break1Start: "02:00",
		Break1End:   "02:30",
	}
	assert.Equal(t, 7*3600+1800, ShiftLoadingTime(s))
}
