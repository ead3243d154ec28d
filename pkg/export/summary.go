package export

import (
	"encoding/csv"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/solarsched/core/scheduler"
)

var summaryHeader = []string{
	"run_id", "simulation_date", "peak_solar_w", "total_vehicles", "scheduled_vehicles",
	"required_wh", "solar_wh", "consumed_wh", "grid_wh", "solar_unused_wh", "missed",
}

// AppendSummaryCSV appends the summary as one row to path. The header is
// written when the file does not exist yet.
func AppendSummaryCSV(path string, s scheduler.Summary) error {
	_, err := os.Stat(path)
	fresh := errors.Is(err, os.ErrNotExist)
	if err != nil && !fresh {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	if fresh {
		if err := cw.Write(summaryHeader); err != nil {
			_ = f.Close()
			return err
		}
	}
	rec := []string{
		s.RunID,
		s.Date.Format("2006-01-02"),
		formatFloat(s.PeakSolarW),
		strconv.Itoa(s.TotalVehicles),
		strconv.Itoa(s.ScheduledVehicles),
		formatFloat(s.RequiredWh),
		formatFloat(s.SolarWh),
		formatFloat(s.ConsumedWh),
		formatFloat(s.GridWh),
		formatFloat(s.SolarUnusedWh),
		strings.Join(s.Missed, " "),
	}
	if err := cw.Write(rec); err != nil {
		_ = f.Close()
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
