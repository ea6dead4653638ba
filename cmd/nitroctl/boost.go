package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"nitroctl/internal/db"
	"nitroctl/internal/ec"
)

var boostCmd = &cobra.Command{
	Use:   "boost",
	Short: "Control Cooler Boost (maximum fan speed)",
	Long: `Control Cooler Boost, which forces fans to maximum speed.

By default both fan domains are switched together. With --cpu or
--gpu only that domain's mode register is touched; the other domain
keeps its current mode.`,
}

var boostOnCmd = &cobra.Command{
	Use:   "on",
	Short: "Enable Cooler Boost",
	Run:   func(cmd *cobra.Command, args []string) { runBoost(cmd, true) },
}

var boostOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable Cooler Boost (back to automatic control)",
	Run:   func(cmd *cobra.Command, args []string) { runBoost(cmd, false) },
}

var boostStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Cooler Boost status",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctrl := newController(cfg)
		switch st := ctrl.GetCoolerBoostStatus(); {
		case st == nil:
			fmt.Println("Cooler Boost: unknown (EC registers unreadable)")
			os.Exit(1)
		case *st:
			fmt.Printf("Cooler Boost: %s\n", colorize(colGreen, "enabled"))
		default:
			fmt.Println("Cooler Boost: disabled")
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{boostOnCmd, boostOffCmd} {
		c.Flags().Bool("cpu", false, "apply to the CPU fan only")
		c.Flags().Bool("gpu", false, "apply to the GPU fan only")
	}

	boostCmd.AddCommand(boostOnCmd)
	boostCmd.AddCommand(boostOffCmd)
	boostCmd.AddCommand(boostStatusCmd)
}

func runBoost(cmd *cobra.Command, enable bool) {
	cpuOnly, _ := cmd.Flags().GetBool("cpu")
	gpuOnly, _ := cmd.Flags().GetBool("gpu")

	cfg := loadConfig()
	ctrl := newController(cfg)
	requireAvailable(ctrl)

	target := ec.ModeAuto
	if enable {
		target = ec.ModeMax
	}

	var ok bool
	var eventType string
	switch {
	case cpuOnly && !gpuOnly:
		ok = mutate(func() bool { return ctrl.SetDomainMode(ec.DomainCPU, target) })
		eventType = db.EventBoostMix
	case gpuOnly && !cpuOnly:
		ok = mutate(func() bool { return ctrl.SetDomainMode(ec.DomainGPU, target) })
		eventType = db.EventBoostMix
	default:
		ok = mutate(func() bool { return ctrl.SetCoolerBoost(enable) })
		eventType = db.EventBoostOn
		if !enable {
			eventType = db.EventBoostOff
		}
	}

	recordEvent(cfg, &db.ControlEvent{
		EventType: eventType,
		Succeeded: ok,
		Details:   boostDetails(enable, cpuOnly, gpuOnly),
	})

	if !ok {
		fmt.Fprintln(os.Stderr, "Failed to apply Cooler Boost setting")
		os.Exit(1)
	}

	state := "disabled"
	if enable {
		state = "enabled"
	}
	fmt.Printf("Cooler Boost %s%s\n", state, boostScope(cpuOnly, gpuOnly))
}

func boostScope(cpuOnly, gpuOnly bool) string {
	switch {
	case cpuOnly && !gpuOnly:
		return " (CPU fan only)"
	case gpuOnly && !cpuOnly:
		return " (GPU fan only)"
	default:
		return ""
	}
}

func boostDetails(enable, cpuOnly, gpuOnly bool) string {
	scope := "both"
	switch {
	case cpuOnly && !gpuOnly:
		scope = "cpu"
	case gpuOnly && !cpuOnly:
		scope = "gpu"
	}
	return fmt.Sprintf(`{"enable":%t,"scope":%q}`, enable, scope)
}
