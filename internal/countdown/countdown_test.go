package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	target := time.Date(2025, 12, 10, 16, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name string
		now  time.Time
		want Breakdown
	}{
		{
			name: "days ahead",
			now:  target.Add(-(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second)),
			want: Breakdown{Days: 2, Hours: 3, Minutes: 4, Seconds: 5},
		},
		{
			name: "ninety seconds",
			now:  target.Add(-90 * time.Second),
			want: Breakdown{Minutes: 1, Seconds: 30},
		},
		{
			name: "fractional seconds floor",
			now:  target.Add(-1999 * time.Millisecond),
			want: Breakdown{Seconds: 1},
		},
		{
			name: "exactly at target",
			now:  target,
			want: Breakdown{},
		},
		{
			name: "past target",
			now:  target.Add(time.Millisecond),
			want: Breakdown{Started: true, Message: StartedMessage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want.Target = "2025-12-10T16:30:00+01:00"
			assert.Equal(t, tt.want, Remaining(tt.now, target))
		})
	}
}

func TestEventNow(t *testing.T) {
	target := time.Date(2025, 12, 10, 15, 30, 0, 0, time.UTC)
	e := NewEvent(target)
	e.now = func() time.Time { return target.Add(-time.Hour) }

	b := e.Now()
	assert.Equal(t, int64(1), b.Hours)
	assert.False(t, b.Started)
	assert.Equal(t, target, e.Target())
}
