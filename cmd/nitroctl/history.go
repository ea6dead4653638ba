package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"nitroctl/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded control events and fan snapshots",
	Long: `Browse the history database.

Control events are written by the boost and fan commands; fan
snapshots are written by "monitor --record".`,
}

var historyEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent control events",
	Run:   runHistoryEvents,
}

var historySnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Show recent fan snapshots",
	Run:   runHistorySnapshots,
}

func init() {
	historyEventsCmd.Flags().IntP("limit", "n", 20, "number of events to show")
	historyEventsCmd.Flags().String("type", "", "filter by event type (boost_on, boost_off, custom_fan, ...)")
	historyEventsCmd.Flags().Bool("json", false, "Output as JSON")

	historySnapshotsCmd.Flags().IntP("limit", "n", 20, "number of snapshots to show")
	historySnapshotsCmd.Flags().Bool("json", false, "Output as JSON")

	historyCmd.AddCommand(historyEventsCmd)
	historyCmd.AddCommand(historySnapshotsCmd)
}

func openHistory(path string) *db.DB {
	d, err := db.New(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	return d
}

func runHistoryEvents(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	eventType, _ := cmd.Flags().GetString("type")
	jsonOut, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig()
	d := openHistory(cfg.History.Path)
	defer d.Close()

	var events []*db.ControlEvent
	var err error
	if eventType != "" {
		events, err = d.EventsByType(eventType, limit)
	} else {
		events, err = d.RecentEvents(limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying events: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		printJSON(events)
		return
	}
	if len(events) == 0 {
		fmt.Println("No control events recorded.")
		return
	}

	fmt.Printf("%-20s %-18s %-12s %-9s %s\n", "WHEN", "TYPE", "VALUES", "RESULT", "SESSION")
	fmt.Println(strings.Repeat("-", 78))
	for _, e := range events {
		values := "-"
		if e.CPUValue != nil && e.GPUValue != nil {
			values = fmt.Sprintf("%d%%/%d%%", *e.CPUValue, *e.GPUValue)
		}
		result := colorize(colGreen, "ok")
		if !e.Succeeded {
			result = colorize(colRed, "failed")
		}
		if e.Verified {
			result += " (verified)"
		}
		fmt.Printf("%-20s %-18s %-12s %-9s %s\n",
			humanize.Time(e.Timestamp), e.EventType, values, result, shortSession(e.SessionID))
	}
}

func runHistorySnapshots(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOut, _ := cmd.Flags().GetBool("json")

	cfg := loadConfig()
	d := openHistory(cfg.History.Path)
	defer d.Close()

	snaps, err := d.RecentSnapshots(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying snapshots: %v\n", err)
		os.Exit(1)
	}

	if jsonOut {
		printJSON(snaps)
		return
	}
	if len(snaps) == 0 {
		fmt.Println("No snapshots recorded. Run: nitroctl monitor --record")
		return
	}

	fmt.Printf("%-20s %-8s %-10s %-10s %-10s %s\n", "WHEN", "MODE", "CPU FAN", "GPU FAN", "CPU TEMP", "GPU TEMP")
	fmt.Println(strings.Repeat("-", 74))
	for _, s := range snaps {
		fmt.Printf("%-20s %-8s %-10s %-10s %-10s %s\n",
			humanize.Time(s.Timestamp), s.Mode,
			fmtPercent(s.CPUPercent), fmtPercent(s.GPUPercent),
			fmtTemp(s.CPUTemp), fmtTemp(s.GPUTemp))
	}
}

// shortSession trims a session UUID for table display.
func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
