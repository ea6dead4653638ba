// Package insights aggregates system telemetry around the fan
// controller: temperatures from lm-sensors, NVIDIA GPU state,
// CPU usage/frequency and uptime. Everything is best-effort; a
// missing tool or sensor yields nil fields, never an error.
package insights

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Temperature is one sensor reading.
type Temperature struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Chip  string  `json:"chip,omitempty"`
}

// FanReading is a fan speed reported by lm-sensors (as opposed to
// the EC registers).
type FanReading struct {
	Fan   int    `json:"fan,omitempty"`
	Label string `json:"label,omitempty"`
	RPM   int    `json:"rpm"`
}

// GPU holds nvidia-smi data for the discrete GPU.
type GPU struct {
	Name          string   `json:"name"`
	Temperature   *int     `json:"temperature,omitempty"`
	Utilization   *int     `json:"utilization,omitempty"`
	MemoryUsedMB  *int     `json:"memory_used_mb,omitempty"`
	MemoryTotalMB *int     `json:"memory_total_mb,omitempty"`
	PowerWatts    *float64 `json:"power_watts,omitempty"`
}

// CPUStats groups the CPU-side readings.
type CPUStats struct {
	Temperature  *float64 `json:"temperature,omitempty"`
	Usage        *float64 `json:"usage,omitempty"`
	FrequencyMHz *float64 `json:"frequency_mhz,omitempty"`
}

// Snapshot is a read-only aggregate of all insights.
type Snapshot struct {
	CPU            CPUStats      `json:"cpu"`
	GPU            *GPU          `json:"gpu,omitempty"`
	GPUTemperature *float64      `json:"gpu_temperature,omitempty"`
	Temperatures   []Temperature `json:"temperatures"`
	Uptime         string        `json:"uptime,omitempty"`
	CPUFanRPM      *int          `json:"cpu_fan_rpm,omitempty"`
	GPUFanRPM      *int          `json:"gpu_fan_rpm,omitempty"`
}

// maxTemps caps the temperature list carried in a snapshot.
const maxTemps = 12

// cpuSample is one /proc/stat reading. Usage needs two samples; the
// previous one is owned by the Collector rather than hidden in
// package state.
type cpuSample struct {
	total int64
	idle  int64
}

// Collector gathers snapshots. Paths are overridable for tests.
type Collector struct {
	// Timeout bounds each external command. Zero means 2s.
	Timeout time.Duration

	ProcStatPath string
	ThermalBase  string
	CPUFreqPath  string
	UptimePath   string

	prev *cpuSample
}

// NewCollector returns a collector with default system paths.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 2 * time.Second
}

func (c *Collector) procStat() string {
	if c.ProcStatPath != "" {
		return c.ProcStatPath
	}
	return "/proc/stat"
}

func (c *Collector) thermalBase() string {
	if c.ThermalBase != "" {
		return c.ThermalBase
	}
	return "/sys/class/thermal"
}

func (c *Collector) cpuFreqPath() string {
	if c.CPUFreqPath != "" {
		return c.CPUFreqPath
	}
	return "/sys/devices/system/cpu/cpu0/cpufreq/scaling_cur_freq"
}

func (c *Collector) uptimePath() string {
	if c.UptimePath != "" {
		return c.UptimePath
	}
	return "/proc/uptime"
}

// run executes an external command and returns its stdout, or ""
// when the command is missing, fails, or times out.
func (c *Collector) run(name string, args ...string) string {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout())
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Sensors returns lm-sensors temperatures and fan readings, trying
// the raw `-u` format first and the human-readable output second.
func (c *Collector) Sensors() ([]Temperature, []FanReading) {
	out := c.run("sensors", "-u")
	temps := parseSensorsRaw(out)
	if len(temps) == 0 {
		out = c.run("sensors")
		temps = parseSensorsHuman(out)
	}
	if len(temps) > maxTemps {
		temps = temps[:maxTemps]
	}
	return temps, parseSensorFans(out)
}

// NvidiaGPU queries nvidia-smi. Returns nil when no NVIDIA GPU or
// driver is present.
func (c *Collector) NvidiaGPU() *GPU {
	out := c.run("nvidia-smi",
		"--query-gpu=name,temperature.gpu,utilization.gpu,memory.used,memory.total,power.draw",
		"--format=csv,noheader,nounits")
	if out == "" {
		return nil
	}
	return parseNvidiaSMI(out)
}

// CPUUsage derives CPU utilization from two /proc/stat samples. The
// first call primes the sample and returns nil.
func (c *Collector) CPUUsage() *float64 {
	data, err := os.ReadFile(c.procStat())
	if err != nil {
		return nil
	}
	line, _, _ := strings.Cut(string(data), "\n")
	fields := strings.Fields(line)
	if len(fields) < 8 {
		return nil
	}

	var total int64
	for _, f := range fields[1:8] {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil
		}
		total += v
	}
	idle, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil
	}

	curr := &cpuSample{total: total, idle: idle}
	prev := c.prev
	c.prev = curr
	if prev == nil {
		return nil
	}
	dt := curr.total - prev.total
	di := curr.idle - prev.idle
	if dt <= 0 {
		return nil
	}
	usage := round1(100 * (1 - float64(di)/float64(dt)))
	return &usage
}

// CPUTempThermal reads a CPU temperature from the thermal zones,
// preferring zones whose type names the CPU package.
func (c *Collector) CPUTempThermal() *float64 {
	zones, err := filepath.Glob(filepath.Join(c.thermalBase(), "thermal_zone*"))
	if err != nil || len(zones) == 0 {
		return nil
	}
	sort.Strings(zones)

	var first *float64
	for _, zone := range zones {
		val := readThermalZone(zone)
		if val == nil {
			continue
		}
		if first == nil {
			first = val
		}
		t, err := os.ReadFile(filepath.Join(zone, "type"))
		if err != nil {
			continue
		}
		typ := strings.ToLower(strings.TrimSpace(string(t)))
		if strings.Contains(typ, "pkg") || strings.Contains(typ, "cpu") || strings.Contains(typ, "x86") {
			return val
		}
	}
	return first
}

// readThermalZone reads one zone's millidegree value, rejecting
// readings outside (0, 150°C).
func readThermalZone(zone string) *float64 {
	data, err := os.ReadFile(filepath.Join(zone, "temp"))
	if err != nil {
		return nil
	}
	raw, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || raw <= 0 || raw >= 150000 {
		return nil
	}
	v := round1(float64(raw) / 1000)
	return &v
}

// CPUFreq returns the current cpu0 frequency in MHz.
func (c *Collector) CPUFreq() *float64 {
	data, err := os.ReadFile(c.cpuFreqPath())
	if err != nil {
		return nil
	}
	khz, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return nil
	}
	v := math.Round(float64(khz) / 1000)
	return &v
}

// Uptime returns system uptime as a short human string ("3d 7h").
func (c *Collector) Uptime() string {
	data, err := os.ReadFile(c.uptimePath())
	if err != nil {
		return ""
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return ""
	}
	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return ""
	}
	return formatUptime(int64(secs))
}

func formatUptime(secs int64) string {
	m := secs / 60
	s := secs % 60
	h := m / 60
	m %= 60
	d := h / 24
	h %= 24
	switch {
	case d > 0:
		return formatUnits(d, "d", h, "h")
	case h > 0:
		return formatUnits(h, "h", m, "m")
	default:
		return formatUnits(m, "m", s, "s")
	}
}

func formatUnits(a int64, au string, b int64, bu string) string {
	return strconv.FormatInt(a, 10) + au + " " + strconv.FormatInt(b, 10) + bu
}

// Gather collects a full snapshot.
func (c *Collector) Gather() Snapshot {
	temps, fans := c.Sensors()
	gpu := c.NvidiaGPU()

	snap := Snapshot{
		CPU: CPUStats{
			Usage:        c.CPUUsage(),
			FrequencyMHz: c.CPUFreq(),
		},
		GPU:          gpu,
		Temperatures: temps,
		Uptime:       c.Uptime(),
	}

	cpuTemp, gpuTemp := pickMainTemps(temps)
	if cpuTemp == nil {
		cpuTemp = c.CPUTempThermal()
	}
	if cpuTemp == nil && len(temps) > 0 {
		cpuTemp = &temps[0].Value
	}
	snap.CPU.Temperature = cpuTemp

	if gpu != nil && gpu.Temperature != nil {
		v := float64(*gpu.Temperature)
		snap.GPUTemperature = &v
	} else {
		snap.GPUTemperature = gpuTemp
	}

	snap.CPUFanRPM, snap.GPUFanRPM = assignFans(fans)
	return snap
}

// pickMainTemps selects CPU and GPU temperatures from the sensor
// list by label and chip heuristics.
func pickMainTemps(temps []Temperature) (cpu, gpu *float64) {
	for i := range temps {
		t := &temps[i]
		label := strings.ToLower(t.Label)
		chip := strings.ToLower(t.Chip)
		switch {
		case strings.Contains(label, "core") || strings.Contains(label, "package") ||
			strings.Contains(label, "cpu") || strings.Contains(label, "k10"):
			if cpu == nil {
				cpu = &t.Value
			}
		case strings.Contains(chip, "coretemp") || strings.Contains(chip, "k10temp") ||
			strings.Contains(chip, "zenpower"):
			if cpu == nil {
				cpu = &t.Value
			}
		case strings.Contains(label, "gpu") || strings.Contains(label, "nvidia") ||
			strings.Contains(label, "amdgpu"):
			if gpu == nil {
				gpu = &t.Value
			}
		}
	}
	return cpu, gpu
}

// assignFans maps lm-sensors fan readings onto the CPU/GPU domains.
// Fan indexes and cpu/gpu labels are consulted, but when two or more
// readings exist the positional order wins: the Nitro's EC exposes
// the CPU fan first.
func assignFans(fans []FanReading) (cpu, gpu *int) {
	for i := range fans {
		f := &fans[i]
		label := strings.ToLower(f.Label)
		if f.Fan == 1 || strings.Contains(label, "cpu") {
			cpu = &f.RPM
		} else if f.Fan == 2 || strings.Contains(label, "gpu") {
			gpu = &f.RPM
		}
	}
	if len(fans) == 1 {
		cpu = &fans[0].RPM
	} else if len(fans) >= 2 {
		cpu = &fans[0].RPM
		gpu = &fans[1].RPM
	}
	return cpu, gpu
}
