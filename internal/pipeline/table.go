package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/wristworn/actimetry/internal/metrics"
)

// Output column names.
const (
	ColDatetime = "datetime"
	ColEN       = "en"
	ColENMO     = "enmo"
	ColAngleX   = "anglex"
	ColAngleY   = "angley"
	ColAngleZ   = "anglez"
)

// datetimeLayout is the timestamp format used in CSV output.
const datetimeLayout = "2006-01-02 15:04:05.000"

// MetricRow is one output record per window. The metric fields are nil when
// the corresponding metric was not requested. Datetime is the timestamp of
// the window's first sample.
type MetricRow struct {
	Datetime time.Time
	EN       *float64
	ENMO     *float64
	AngleX   *float64
	AngleY   *float64
	AngleZ   *float64
}

// Table is the finished pipeline output: one row per window in chronological
// order, tagged with the run identity and the parameters that produced it.
// A finished table is immutable.
type Table struct {
	RunID   uuid.UUID
	Params  RunParams
	Columns []string
	Rows    []MetricRow
}

// columnsFor returns the output column set for the requested metrics, in
// canonical order.
func columnsFor(opts Options) []string {
	cols := []string{ColDatetime}
	if opts.wants(metrics.EN) {
		cols = append(cols, ColEN)
	}
	if opts.wants(metrics.ENMO) {
		cols = append(cols, ColENMO)
	}
	if opts.wants(metrics.Angles) {
		cols = append(cols, ColAngleX, ColAngleY, ColAngleZ)
	}
	return cols
}

// finalize normalises the accumulated rows. Rows arrive in chunk order, which
// is already chronological; this clamps capacity so the table no longer
// aliases growth buffers.
func (t *Table) finalize() {
	t.Rows = t.Rows[:len(t.Rows):len(t.Rows)]
}

// value returns the named column of a row formatted for CSV output.
func (r *MetricRow) value(column string) (string, error) {
	format := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'g', -1, 64)
	}
	switch column {
	case ColDatetime:
		return r.Datetime.Format(datetimeLayout), nil
	case ColEN:
		return format(r.EN), nil
	case ColENMO:
		return format(r.ENMO), nil
	case ColAngleX:
		return format(r.AngleX), nil
	case ColAngleY:
		return format(r.AngleY), nil
	case ColAngleZ:
		return format(r.AngleZ), nil
	default:
		return "", fmt.Errorf("unknown output column %q", column)
	}
}

// WriteCSV writes the table with a header row to w.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for i := range t.Rows {
		for j, col := range t.Columns {
			v, err := t.Rows[i].value(col)
			if err != nil {
				return err
			}
			record[j] = v
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
