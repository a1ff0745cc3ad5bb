package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteSeriesCSV streams a trajectory as CSV with a time column.
func WriteSeriesCSV(w io.Writer, times []float64, series [][]float64) error {
	if len(times) != len(series) {
		return fmt.Errorf("export: %d times for %d rows", len(times), len(series))
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if len(series) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range series[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, row := range series {
		rec := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	return nil
}

type seriesJSON struct {
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// WriteSeriesJSON streams a trajectory as a single JSON document.
func WriteSeriesJSON(w io.Writer, times []float64, series [][]float64) error {
	if len(times) != len(series) {
		return fmt.Errorf("export: %d times for %d rows", len(times), len(series))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(seriesJSON{Times: times, States: series})
}
