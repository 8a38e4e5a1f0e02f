package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wristworn/actimetry/internal/metrics"
)

func TestWriteCSV(t *testing.T) {
	table, err := Run(newMemSource(30, 100, func(int) [3]float64 {
		return [3]float64{0, 0, 1}
	}), Options{WindowSize: 1, BatchSize: 1, Metrics: []string{metrics.EN, metrics.ENMO}})
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, table.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4, "header plus one line per window")
	require.Equal(t, "datetime,en,enmo", lines[0])
	require.Equal(t, "2024-03-01 00:00:00.000,1,0", lines[1])
	require.Equal(t, "2024-03-01 00:00:01.000,1,0", lines[2])
}

func TestWriteCSVEmptyTable(t *testing.T) {
	// A recording shorter than one window yields a header-only CSV.
	table, err := Run(newMemSource(5, 100, wobble), Options{WindowSize: 1, BatchSize: 1, Metrics: []string{metrics.EN}})
	require.NoError(t, err)
	require.Empty(t, table.Rows)

	var buf strings.Builder
	require.NoError(t, table.WriteCSV(&buf))
	require.Equal(t, "datetime,en\n", buf.String())
}
