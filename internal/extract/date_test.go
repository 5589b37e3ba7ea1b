package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPageDate(t *testing.T) {
	t.Parallel()

	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	ref := time.Date(2026, 10, 14, 12, 0, 0, 0, chicago)

	testCases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"abbreviated month", "Date: Sunday, Jul. 06\nFlavor: Mint", "2026-07-06", true},
		{"heading", "Date: Today’s Flavors – Tuesday, October 14\n\nFlavor: Butter Pecan", "2026-10-14", true},
		{"next year", "Date: Jan 2", "2027-01-02", true},
		{"earlier this year", "Date: May 1", "2026-05-01", true},
		{"no date line", "Flavor: Mint\nOct 14", "", false},
		{"no month", "Date: tomorrow", "", false},
		{"impossible day", "Date: Feb 30", "", false},
	}
	for _, tc := range testCases {
		got, ok := PageDate(tc.input, ref)
		require.Equal(t, tc.ok, ok, tc.name)
		require.Equal(t, tc.want, got, tc.name)
	}
}
