package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solarsched/app"
	"github.com/kilianp07/solarsched/infra/store"
)

var (
	reportSnapshot string
	reportDays     int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Recompute outcomes of a stored snapshot or list the run history",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportSnapshot, "snapshot", "s", "", "snapshot file (defaults to simulation.snapshot_path)")
	reportCmd.Flags().IntVar(&reportDays, "history", 0, "list stored runs of the last N days instead")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportDays > 0 {
		return runHistory(cmd)
	}
	path := reportSnapshot
	if path == "" {
		path = cfg.Simulation.SnapshotPath
	}
	if path == "" {
		return errors.New("no snapshot given: use --snapshot or simulation.snapshot_path")
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	rep, err := svc.Report(path)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), rep)
}

func runHistory(cmd *cobra.Command) error {
	if cfg.Store.Path == "" {
		return errors.New("store.path is not configured")
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	end := time.Now()
	runs, err := st.Runs(end.AddDate(0, 0, -reportDays), end)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "date\tengine\tvehicles\tgrid kWh\tunused kWh\tmissed\trun")
	for _, r := range runs {
		s := r.Summary
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%.2f\t%.2f\t%d\t%s\n",
			s.Date.Format("2006-01-02"), r.Engine, s.ScheduledVehicles, s.TotalVehicles,
			s.GridWh/1000, s.SolarUnusedWh/1000, len(s.Missed), s.RunID)
	}
	return tw.Flush()
}
