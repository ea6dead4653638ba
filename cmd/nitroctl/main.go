package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"nitroctl/internal/config"
	"nitroctl/internal/ec"
	"nitroctl/internal/version"
)

var cfgFile string

// sessionID tags every control event recorded by this invocation.
var sessionID = uuid.NewString()

var rootCmd = &cobra.Command{
	Use:   "nitroctl",
	Short: "Cooler Boost and fan control for Acer Nitro 5 laptops",
	Long: `nitroctl controls the cooling fans of Acer Nitro 5 laptops
(AN515-44/46/56/57/58) through the embedded controller's registers.
It can force both fans to maximum (Cooler Boost), set custom fan
percentages, and report fan state alongside system telemetry.

Mutating commands require root and a kernel EC interface (ec_sys
with write support, or acpi_ec).`,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show fan mode, speeds and boost state",
	Run: func(cmd *cobra.Command, args []string) {
		jsonOut, _ := cmd.Flags().GetBool("json")
		withInsights, _ := cmd.Flags().GetBool("insights")
		cfg := loadConfig()
		ctrl := newController(cfg)

		info := ctrl.GetFanInfo()
		if jsonOut {
			printJSON(statusPayload(cfg, info, withInsights))
			return
		}
		printFanInfo(info)
		if withInsights {
			fmt.Println()
			printInsights(newCollector(cfg).Gather())
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the nitroctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/nitroctl/config.yaml)")

	statusCmd.Flags().Bool("json", false, "Output as JSON")
	statusCmd.Flags().Bool("insights", false, "Include system telemetry (temperatures, usage, GPU)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(boostCmd)
	rootCmd.AddCommand(fanCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the configuration or exits with a diagnostic.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newController builds the EC controller from configuration.
func newController(cfg *config.Config) *ec.Controller {
	ctrl := ec.New()
	ctrl.SysPath = cfg.EC.SysPath
	ctrl.DevPath = cfg.EC.DevPath
	ctrl.VerifyWrites = cfg.EC.VerifyWrites
	ctrl.RPMEstimateFactor = cfg.EC.RPMEstimateFactor
	return ctrl
}

// requireAvailable exits with the EC diagnostic when control is not
// possible (missing privilege or missing kernel interface).
func requireAvailable(ctrl *ec.Controller) {
	if ok, msg := ctrl.IsAvailable(); !ok {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
