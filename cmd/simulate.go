package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solarsched/app"
	"github.com/kilianp07/solarsched/core/scheduler"
	"github.com/kilianp07/solarsched/infra/logger"
)

var (
	simBaseline bool
	simEngine   string
	simDate     string
	simVehicles string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Schedule a fleet for one day against the solar forecast",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := simEngine
		if simBaseline {
			engine = scheduler.EngineBaseline
		}
		return runSimulation(cmd, engine)
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Schedule a fleet with the global optimizer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation(cmd, scheduler.EngineGlobal)
	},
}

func init() {
	for _, c := range []*cobra.Command{simulateCmd, optimizeCmd} {
		c.Flags().StringVar(&simDate, "date", "", "simulated day YYYY-MM-DD (overrides simulation.date)")
		c.Flags().StringVar(&simVehicles, "vehicles", "", "vehicle file (overrides simulation.vehicles_path)")
		rootCmd.AddCommand(c)
	}
	simulateCmd.Flags().BoolVar(&simBaseline, "baseline", false, "start every vehicle at arrival at full power")
	simulateCmd.Flags().StringVar(&simEngine, "engine", "", "engine: greedy, global or baseline")
}

func runSimulation(cmd *cobra.Command, engine string) error {
	ctx, stop := signalContext()
	defer stop()

	if simDate != "" {
		cfg.Simulation.Date = simDate
	}
	if simVehicles != "" {
		cfg.Simulation.VehiclesPath = simVehicles
	}
	if err := cfg.Simulation.Validate(); err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	rep, err := svc.Simulate(ctx, engine)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), rep)
}

func printReport(w io.Writer, rep app.Report) error {
	s := rep.Summary
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "engine\t%s\n", rep.Engine)
	fmt.Fprintf(tw, "date\t%s\n", s.Date.Format("2006-01-02"))
	fmt.Fprintf(tw, "vehicles\t%d scheduled of %d\n", s.ScheduledVehicles, s.TotalVehicles)
	fmt.Fprintf(tw, "required\t%.2f kWh\n", s.RequiredWh/1000)
	fmt.Fprintf(tw, "solar\t%.2f kWh\n", s.SolarWh/1000)
	fmt.Fprintf(tw, "consumed\t%.2f kWh\n", s.ConsumedWh/1000)
	fmt.Fprintf(tw, "grid\t%.2f kWh\n", s.GridWh/1000)
	fmt.Fprintf(tw, "solar unused\t%.2f kWh\n", s.SolarUnusedWh/1000)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "vehicle\trequired kWh\tdelivered kWh\tovercharge kWh\tsoc %\tmet")
	for _, o := range rep.Outcomes {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.1f\t%t\n",
			o.VehicleID, o.RequiredKWh, o.DeliveredKWh, o.OverchargeKWh, o.SoCReached, o.Met)
	}
	return tw.Flush()
}
