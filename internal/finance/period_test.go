package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	valid := map[string]Period{
		"7d":   {7, UnitDay},
		"5mo":  {5, UnitMonth},
		"1y":   {1, UnitYear},
		" 2Y ": {2, UnitYear},
	}
	for in, want := range valid {
		got, err := ParsePeriod(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
		require.True(t, got.Valid())
	}
	for _, in := range []string{"", "0d", "7w", "d", "-1y", "1.5y"} {
		_, err := ParsePeriod(in)
		require.Error(t, err, in)
	}
}

func TestYears(t *testing.T) {
	for n := MinDashboardYears; n <= MaxDashboardYears; n++ {
		p, err := Years(n)
		require.NoError(t, err)
		require.Equal(t, Period{n, UnitYear}, p)
	}
	_, err := Years(0)
	require.Error(t, err)
	_, err = Years(8)
	require.Error(t, err)
}

func TestWindowFor(t *testing.T) {
	end := time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC)
	cases := []struct {
		p    Period
		want time.Time
	}{
		{Period{7, UnitDay}, time.Date(2024, 3, 8, 21, 0, 0, 0, time.UTC)},
		{Period{2, UnitMonth}, time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC)},
		{Period{1, UnitYear}, time.Date(2023, 3, 15, 21, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		w := WindowFor(tc.p, end)
		require.Equal(t, tc.want, w.Start, tc.p.String())
		require.Equal(t, end, w.End)
	}
}
