package booking_test

import (
	"testing"
	"time"

	bk "github.com/hanksha/meeting-room-booking-backend/booking"
	"github.com/stretchr/testify/require"
)

func span(from, to int) bk.Interval {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return bk.NewInterval(base.Add(time.Duration(from)*time.Minute), base.Add(time.Duration(to)*time.Minute))
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name     string
		a, b     bk.Interval
		overlaps bool
	}{
		{"touching", span(0, 10), span(10, 20), false},
		{"partial", span(0, 10), span(5, 15), true},
		{"contained", span(0, 60), span(15, 30), true},
		{"identical", span(0, 10), span(0, 10), true},
		{"disjoint", span(0, 10), span(30, 40), false},
		{"one minute shared", span(0, 10), span(9, 20), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.overlaps, bk.Overlaps(tc.a, tc.b))
			require.Equal(t, bk.Overlaps(tc.a, tc.b), bk.Overlaps(tc.b, tc.a))
		})
	}
}

func TestIntervalValid(t *testing.T) {
	require.True(t, span(0, 1).Valid())
	require.False(t, span(1, 1).Valid())
	require.False(t, span(2, 1).Valid())
}

func TestNewIntervalNormalizesToUTC(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	start := time.Date(2024, 1, 1, 5, 0, 0, 0, zone)

	interval := bk.NewInterval(start, start.Add(time.Hour))

	require.Equal(t, time.UTC, interval.Start.Location())
	require.Equal(t, 10, interval.Start.Hour())
	require.True(t, interval.Start.Equal(start))
}
