package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sepsim/sepsim/sim"
	"github.com/sepsim/sepsim/sim/massbalance"
)

var (
	// CLI flags for the run subcommand
	configPath  string  // Path to the plant YAML, empty = built-in default plant
	durationS   float64 // Total simulated time in seconds
	stepS       float64 // Tick length in seconds
	seed        int64   // Master RNG seed override
	logLevel    string  // Log verbosity level
	feedRoute   string  // Transfer route started at t=0, empty = none
	feedRateM3h float64 // Requested rate for the startup transfer
	showBalance bool    // Print the mass balance report after the run
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "sepsim",
	Short: "Tick-driven simulator for a decanter centrifuge separation plant",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the plant simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := sim.DefaultPlantConfig()
		if configPath != "" {
			cfg, err = LoadPlantConfig(configPath)
			if err != nil {
				logrus.Fatalf("Failed to load plant config: %v", err)
			}
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}

		ps, err := sim.New(cfg)
		if err != nil {
			logrus.Fatalf("Failed to build plant: %v", err)
		}
		logrus.Infof("Starting run %s: duration=%.0fs dt=%.2fs seed=%d", ps.RunID, durationS, stepS, cfg.Seed)

		if feedRoute != "" {
			if !ps.StartTransfer(feedRoute, feedRateM3h) {
				logrus.Fatalf("Startup transfer on route %q refused", feedRoute)
			}
		}

		startTime := time.Now()
		for remaining := durationS; remaining > 0; {
			dt := stepS
			if dt > sim.MaxStepSeconds {
				dt = sim.MaxStepSeconds
			}
			if dt > remaining {
				dt = remaining
			}
			ps.Step(dt)
			remaining -= dt
		}
		wall := time.Since(startTime)

		st := ps.State()
		logrus.Infof("Run complete: %d steps, %.0fs simulated in %v", st.StepCount, st.SimTimeS, wall)

		printSummary(st, ps.KPIs(), ps.Costs())
		if showBalance {
			res := massbalance.Calculate(ps.BalanceInput(), massbalance.DefaultConfig())
			fmt.Println(massbalance.FormatReport(res))
		}
	},
}

// printSummary writes the end-of-run report to stdout.
func printSummary(st sim.ProcessState, k sim.ProcessKPIs, c sim.OperationalCostBreakdown) {
	fmt.Println("=== Run Summary ===")
	fmt.Printf("run_id:              %s\n", st.RunID)
	fmt.Printf("simulated_s:         %.0f\n", st.SimTimeS)
	fmt.Printf("feed_in_m3:          %.3f\n", st.Totals.FeedInM3)
	fmt.Printf("separator_feed_m3:   %.3f\n", st.Totals.SepFeedM3)
	fmt.Printf("centrate_m3:         %.3f\n", st.Totals.CentrateM3)
	fmt.Printf("cake_m3:             %.3f\n", st.Totals.CakeM3)
	fmt.Printf("oil_recovered_m3:    %.3f\n", st.Totals.OilRecoveredM3)
	fmt.Printf("energy_kwh:          %.2f\n", st.Totals.EnergyKWh)
	fmt.Printf("alarms_raised:       %d\n", st.Totals.AlarmsRaised)
	fmt.Printf("interlock_trips:     %d\n", st.Totals.InterlockTrips)

	fmt.Println("=== KPIs ===")
	printDistribution("solids_removal_pct", k.SolidsRemovalPct)
	printDistribution("oil_recovery_pct", k.OilRecoveryPct)
	printDistribution("outlet_oil_ppm", k.OutletOilPPM)
	printDistribution("separator_feed_m3h", k.SepFeedM3h)
	fmt.Printf("uptime_pct:          %.2f\n", k.UptimePct)
	fmt.Printf("specific_energy:     %.3f kWh/m3\n", k.SpecificEnergyKWhM3)

	fmt.Println("=== Operating Cost ===")
	fmt.Printf("power:               %s\n", c.PowerCost)
	fmt.Printf("chemicals:           %s\n", c.ChemicalCost)
	fmt.Printf("disposal:            %s\n", c.DisposalCost)
	fmt.Printf("maintenance:         %s\n", c.MaintenanceCost)
	fmt.Printf("oil_credit:          %s\n", c.OilCredit)
	fmt.Printf("net:                 %s\n", c.NetCost)
}

func printDistribution(name string, d sim.Distribution) {
	fmt.Printf("%-20s mean=%.2f p50=%.2f p95=%.2f p99=%.2f\n", name+":", d.Mean, d.P50, d.P95, d.P99)
}

// configCmd prints the built-in default plant as YAML, for use as a starting
// point for site-specific configs.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the default plant config as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := MarshalPlantConfig(sim.DefaultPlantConfig())
		if err != nil {
			logrus.Fatalf("Failed to marshal default config: %v", err)
		}
		fmt.Print(string(raw))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Plant config YAML (empty = built-in default plant)")
	runCmd.Flags().Float64Var(&durationS, "duration", 3600, "Simulated duration in seconds")
	runCmd.Flags().Float64Var(&stepS, "dt", 1.0, "Tick length in seconds")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for feed and sensor noise streams")
	runCmd.Flags().StringVar(&logLevel, "log", "warning", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&feedRoute, "route", "R-101", "Transfer route to start at t=0 (empty = idle plant)")
	runCmd.Flags().Float64Var(&feedRateM3h, "rate", 18, "Requested rate for the startup transfer, m3/h")
	runCmd.Flags().BoolVar(&showBalance, "balance", false, "Print the mass balance report after the run")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(balanceCmd)
}
