package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether EC fan control is available",
	Long: `Verify that fan control can work on this machine:

  - the process runs as root
  - an EC interface exists (ec_sys debugfs node or /dev/ec),
    loading ec_sys with write support if needed

On failure the diagnostic distinguishes missing privilege from
missing kernel support, the latter with boot-configuration
instructions.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ctrl := newController(cfg)

		ok, msg := ctrl.IsAvailable()
		if !ok {
			fmt.Fprintln(os.Stderr, msg)
			os.Exit(1)
		}
		fmt.Println(colorize(colGreen, "EC fan control available"))
	},
}
