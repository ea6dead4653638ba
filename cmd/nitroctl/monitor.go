package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"nitroctl/internal/cache"
	"nitroctl/internal/config"
	"nitroctl/internal/db"
	"nitroctl/internal/ec"
	"nitroctl/internal/insights"
)

// snapshotKeep caps how many recorded snapshots the monitor retains.
const snapshotKeep = 10000

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live fan and thermal monitoring with auto-refresh",
	Long: `Live monitoring of fan state and system telemetry.

Fan registers are read every interval. Telemetry (lm-sensors,
nvidia-smi) spawns external processes and refreshes less often.
The screen is redrawn in place with ANSI escape sequences.`,
	Run: runMonitor,
}

func init() {
	monitorCmd.Flags().IntP("interval", "i", 0, "fan state refresh interval in seconds (default from config)")
	monitorCmd.Flags().IntP("insights-interval", "t", 0, "telemetry refresh interval in seconds (default from config)")
	monitorCmd.Flags().Bool("record", false, "record snapshots to the history database")
}

func runMonitor(cmd *cobra.Command, args []string) {
	interval, _ := cmd.Flags().GetInt("interval")
	insInterval, _ := cmd.Flags().GetInt("insights-interval")
	record, _ := cmd.Flags().GetBool("record")

	cfg := loadConfig()
	if interval <= 0 {
		interval = cfg.Monitor.Interval
	}
	if insInterval <= 0 {
		insInterval = cfg.Monitor.InsightsInterval
	}

	ctrl := newController(cfg)
	collector := newCollector(cfg)
	c := cache.New()

	var hist *db.DB
	if record {
		var err error
		hist, err = db.New(cfg.History.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
			os.Exit(1)
		}
		defer hist.Close()
	}

	insTTL := time.Duration(insInterval) * time.Second

	for {
		// Clear screen
		fmt.Print("\033[H\033[2J")
		fmt.Println("=== nitroctl Fan Monitor === (Ctrl+C to exit)")
		fmt.Printf("Refreshing every %ds | %s\n\n", interval, time.Now().Format("2006-01-02 15:04:05"))

		info := ctrl.GetFanInfo()
		printFanInfo(info)

		var snap insights.Snapshot
		if cached := c.Get("insights"); cached != nil {
			snap = cached.(insights.Snapshot)
		} else {
			snap = collector.Gather()
			c.Set("insights", snap, insTTL)

			if hist != nil {
				recordMonitorSnapshot(hist, info, snap)
			}
		}

		fmt.Println()
		printInsights(snap)
		if e := c.GetEntry("insights"); e != nil {
			fmt.Printf("\n%s\n", colorize(colDim, fmt.Sprintf("telemetry age: %ds", int(e.Age().Seconds()))))
		}

		printThermalWarnings(cfg, snap)

		time.Sleep(time.Duration(interval) * time.Second)
	}
}

func recordMonitorSnapshot(hist *db.DB, info ec.FanInfo, snap insights.Snapshot) {
	rec := &db.Snapshot{
		Mode:            string(info.Mode),
		CPUPercent:      info.CPUPercent,
		GPUPercent:      info.GPUPercent,
		CPURPM:          info.CPURPM,
		GPURPM:          info.GPURPM,
		CPURPMEstimated: info.CPURPMEstimated,
		GPURPMEstimated: info.GPURPMEstimated,
		CoolerBoost:     info.CoolerBoost,
		CPUTemp:         snap.CPU.Temperature,
		GPUTemp:         snap.GPUTemperature,
		CPUUsage:        snap.CPU.Usage,
	}
	if err := hist.RecordSnapshot(rec); err != nil {
		return
	}
	hist.PruneSnapshots(snapshotKeep)
}

func printThermalWarnings(cfg *config.Config, snap insights.Snapshot) {
	check := func(label string, temp *float64) {
		if temp == nil {
			return
		}
		switch {
		case *temp >= float64(cfg.Thresholds.CriticalTemp):
			fmt.Printf("\n%s\n", colorize(colRed, fmt.Sprintf("CRITICAL: %s at %.1f°C", label, *temp)))
		case *temp >= float64(cfg.Thresholds.WarningTemp):
			fmt.Printf("\n%s\n", colorize(colYellow, fmt.Sprintf("Warning: %s at %.1f°C", label, *temp)))
		}
	}
	check("CPU", snap.CPU.Temperature)
	check("GPU", snap.GPUTemperature)
}
