package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"nitroctl/internal/config"
	"nitroctl/internal/db"
	"nitroctl/internal/ec"
	"nitroctl/internal/hostlock"
	"nitroctl/internal/insights"
)

// ANSI colors, used only when stdout is a terminal
const (
	colReset  = "\033[0m"
	colGreen  = "\033[32m"
	colYellow = "\033[33m"
	colRed    = "\033[31m"
	colDim    = "\033[2m"
)

func colorize(col, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return s
	}
	return col + s + colReset
}

func newCollector(cfg *config.Config) *insights.Collector {
	c := insights.NewCollector()
	c.Timeout = time.Duration(cfg.Insights.CommandTimeout) * time.Second
	return c
}

// mutate wraps a register-mutating operation in the host lock. The
// EC offers no atomicity across multi-byte writes, so concurrent
// nitroctl invocations must not interleave.
func mutate(fn func() bool) bool {
	lock, err := hostlock.Acquire("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error acquiring lock: %v\n", err)
		os.Exit(1)
	}
	defer lock.Release()
	return fn()
}

// recordEvent appends a control event to the history database.
// History is best-effort: a missing or unwritable database must
// never block fan control.
func recordEvent(cfg *config.Config, e *db.ControlEvent) {
	d, err := db.New(cfg.History.Path)
	if err != nil {
		return
	}
	defer d.Close()
	e.SessionID = sessionID
	e.Verified = cfg.EC.VerifyWrites && e.Succeeded
	d.RecordControlEvent(e)
}

func fmtPercent(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", *v)
}

func fmtRPM(v *int, estimated bool) string {
	if v == nil {
		return "-"
	}
	if estimated {
		return fmt.Sprintf("~%d RPM", *v)
	}
	return fmt.Sprintf("%d RPM", *v)
}

func fmtBoost(v *bool) string {
	switch {
	case v == nil:
		return "unknown"
	case *v:
		return colorize(colGreen, "on")
	default:
		return "off"
	}
}

func fmtMode(m ec.Mode) string {
	switch m {
	case ec.ModeMax:
		return colorize(colGreen, string(m))
	case ec.ModeUnknown:
		return colorize(colYellow, string(m))
	default:
		return string(m)
	}
}

func printFanInfo(info ec.FanInfo) {
	fmt.Printf("Fan mode:     %s\n", fmtMode(info.Mode))
	fmt.Printf("CPU fan:      %-5s %s\n", fmtPercent(info.CPUPercent), fmtRPM(info.CPURPM, info.CPURPMEstimated))
	fmt.Printf("GPU fan:      %-5s %s\n", fmtPercent(info.GPUPercent), fmtRPM(info.GPURPM, info.GPURPMEstimated))
	fmt.Printf("Cooler boost: %s (cpu %s, gpu %s)\n",
		fmtBoost(info.CoolerBoost), fmtBoost(info.CPUCoolerBoost), fmtBoost(info.GPUCoolerBoost))
}

func fmtTemp(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f°C", *v)
}

func printInsights(snap insights.Snapshot) {
	fmt.Printf("CPU temp:     %s\n", fmtTemp(snap.CPU.Temperature))
	if snap.CPU.Usage != nil {
		fmt.Printf("CPU usage:    %.1f%%\n", *snap.CPU.Usage)
	}
	if snap.CPU.FrequencyMHz != nil {
		fmt.Printf("CPU freq:     %.0f MHz\n", *snap.CPU.FrequencyMHz)
	}
	fmt.Printf("GPU temp:     %s\n", fmtTemp(snap.GPUTemperature))
	if gpu := snap.GPU; gpu != nil {
		fmt.Printf("GPU:          %s", gpu.Name)
		if gpu.Utilization != nil {
			fmt.Printf(", %d%% util", *gpu.Utilization)
		}
		if gpu.MemoryUsedMB != nil && gpu.MemoryTotalMB != nil {
			fmt.Printf(", %d/%d MiB", *gpu.MemoryUsedMB, *gpu.MemoryTotalMB)
		}
		if gpu.PowerWatts != nil {
			fmt.Printf(", %.1f W", *gpu.PowerWatts)
		}
		fmt.Println()
	}
	if snap.Uptime != "" {
		fmt.Printf("Uptime:       %s\n", snap.Uptime)
	}
}

// statusPayload is the JSON shape of `status`.
func statusPayload(cfg *config.Config, info ec.FanInfo, withInsights bool) any {
	if !withInsights {
		return info
	}
	return struct {
		Fans     ec.FanInfo        `json:"fans"`
		Insights insights.Snapshot `json:"insights"`
	}{info, newCollector(cfg).Gather()}
}
