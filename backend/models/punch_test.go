package models

import (
	"testing"
	"time"
)

func at(hour, minute int) *time.Time {
	ts := time.Date(2025, 6, 2, hour, minute, 0, 0, time.Local)
	return &ts
}

func TestComputeTotalHours(t *testing.T) {
	tests := []struct {
		name  string
		punch Punch
		want  *float64
	}{
		{
			name:  "full day with lunch",
			punch: Punch{TimeIn: at(9, 0), TimeOut: at(17, 30), LunchStart: at(12, 0), LunchEnd: at(12, 30)},
			want:  ptr(8.0),
		},
		{
			name:  "no lunch",
			punch: Punch{TimeIn: at(9, 0), TimeOut: at(13, 15)},
			want:  ptr(4.25),
		},
		{
			name:  "half-open lunch is ignored",
			punch: Punch{TimeIn: at(9, 0), TimeOut: at(17, 0), LunchStart: at(12, 0)},
			want:  ptr(8.0),
		},
		{
			name:  "still clocked in",
			punch: Punch{TimeIn: at(9, 0)},
			want:  nil,
		},
		{
			name:  "clock-out before clock-in clamps to zero",
			punch: Punch{TimeIn: at(17, 0), TimeOut: at(9, 0)},
			want:  ptr(0.0),
		},
		{
			name:  "rounds to two decimals",
			punch: Punch{TimeIn: at(9, 0), TimeOut: at(9, 10)},
			want:  ptr(0.17),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.punch.ComputeTotalHours()
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("got %v, want %v", *got, *tt.want)
			}
		})
	}
}

func ptr(f float64) *float64 { return &f }
