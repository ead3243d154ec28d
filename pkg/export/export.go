package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/solarsched/core/model"
	"github.com/kilianp07/solarsched/core/scheduler"
)

// WriteJSON writes the plot segments of a schedule to w in JSON format.
func WriteJSON(w io.Writer, segments []scheduler.Segment) error {
	enc := json.NewEncoder(w)
	return enc.Encode(segments)
}

// WriteCSV writes the plot segments of a schedule to w in CSV format.
func WriteCSV(w io.Writer, segments []scheduler.Segment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id_user", "start", "end", "power_w", "base_w", "overcharge"}); err != nil {
		return err
	}
	for _, s := range segments {
		rec := []string{
			s.ConsumerID,
			s.Start.Format(time.RFC3339),
			s.End.Format(time.RFC3339),
			formatFloat(s.PowerW),
			formatFloat(s.BaseW),
			strconv.FormatBool(s.Overcharge),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteConsumersCSV writes one row per consumer with its regular and
// overcharge blocks. Absent overcharge leaves the columns empty.
func WriteConsumersCSV(w io.Writer, consumers []model.Consumer) error {
	cw := csv.NewWriter(w)
	header := []string{"id_user", "start", "end", "energy_wh", "overcharge_start", "overcharge_end", "overcharge_wh"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, c := range consumers {
		rec := []string{
			c.ID,
			c.Power.Interval.Start.Format(time.RFC3339),
			c.Power.Interval.End.Format(time.RFC3339),
			formatFloat(c.Power.Energy()),
			"", "", "",
		}
		if op, ok := c.Overpower.Get(); ok {
			rec[4] = op.Interval.Start.Format(time.RFC3339)
			rec[5] = op.Interval.End.Format(time.RFC3339)
			rec[6] = formatFloat(op.Energy())
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTimelineCSV writes the production, usage and overcharge timelines
// of a result, one row per minute.
func WriteTimelineCSV(w io.Writer, res scheduler.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"minute", "time", "production_w", "usage_w", "overcharge_w"}); err != nil {
		return err
	}
	for i := 0; i < model.MinutesPerDay; i++ {
		rec := []string{
			strconv.Itoa(i),
			res.Day.Time(i).Format(time.RFC3339),
			formatFloat(res.Production.At(i)),
			formatFloat(res.Usage.At(i)),
			formatFloat(res.Overpower.At(i)),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
