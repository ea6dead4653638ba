package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"nitroctl/internal/db"
)

var fanCmd = &cobra.Command{
	Use:   "fan",
	Short: "Custom fan speed control",
}

var fanSetCmd = &cobra.Command{
	Use:   "set [percent]",
	Short: "Set custom fan speed (0-100%)",
	Long: `Switch both fans to custom mode at the given percentage.

With a single positional percentage both fans get the same speed.
Use --cpu and --gpu together for independent speeds. The EC applies
custom percentages to both domains as one operation; there is no
single-domain custom mode.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runFanSet,
}

var fanAutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Return both fans to automatic control",
	Run:   runFanAuto,
}

func init() {
	fanSetCmd.Flags().Int("cpu", -1, "CPU fan percentage (0-100)")
	fanSetCmd.Flags().Int("gpu", -1, "GPU fan percentage (0-100)")

	fanCmd.AddCommand(fanSetCmd)
	fanCmd.AddCommand(fanAutoCmd)
}

func runFanSet(cmd *cobra.Command, args []string) {
	cpuPct, _ := cmd.Flags().GetInt("cpu")
	gpuPct, _ := cmd.Flags().GetInt("gpu")

	if len(args) == 1 {
		pct, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid percentage %q\n", args[0])
			os.Exit(1)
		}
		cpuPct, gpuPct = pct, pct
	} else if cpuPct < 0 || gpuPct < 0 {
		fmt.Fprintln(os.Stderr, "Specify a percentage, or both --cpu and --gpu")
		os.Exit(1)
	}

	if cpuPct < 0 || cpuPct > 100 || gpuPct < 0 || gpuPct > 100 {
		fmt.Fprintln(os.Stderr, "Percentages must be between 0 and 100")
		os.Exit(1)
	}

	cfg := loadConfig()
	ctrl := newController(cfg)
	requireAvailable(ctrl)

	ok := mutate(func() bool { return ctrl.SetCustomFans(cpuPct, gpuPct) })

	recordEvent(cfg, &db.ControlEvent{
		EventType: db.EventCustomFan,
		CPUValue:  &cpuPct,
		GPUValue:  &gpuPct,
		Succeeded: ok,
	})

	if !ok {
		fmt.Fprintln(os.Stderr, "Failed to set custom fan speed")
		os.Exit(1)
	}
	fmt.Printf("Custom fan speed set: CPU %d%%, GPU %d%%\n", cpuPct, gpuPct)
}

func runFanAuto(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctrl := newController(cfg)
	requireAvailable(ctrl)

	// Auto for both domains is "boost off" at the register level.
	ok := mutate(func() bool { return ctrl.SetCoolerBoost(false) })

	recordEvent(cfg, &db.ControlEvent{
		EventType: db.EventAutoMode,
		Succeeded: ok,
	})

	if !ok {
		fmt.Fprintln(os.Stderr, "Failed to restore automatic fan control")
		os.Exit(1)
	}
	fmt.Println("Fans returned to automatic control")
}
