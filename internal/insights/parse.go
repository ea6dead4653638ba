package insights

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	tempInputRe = regexp.MustCompile(`(\w+)_input:\s*([\d.]+)`)
	tempHumanRe = regexp.MustCompile(`([^:\n]+):\s*\+?([\d.]+)°C`)
	fanInputRe  = regexp.MustCompile(`fan(\d+)_input:\s*([\d.]+)`)
	fanHumanRe  = regexp.MustCompile(`(?i)([^:\n]*fan[^:\n]*):\s*(\d+)\s*RPM`)
)

// parseSensorsRaw parses `sensors -u` output. Chip names are the
// unindented lines without a colon; readings look like
// "temp1_input: 45.000".
func parseSensorsRaw(out string) []Temperature {
	var temps []Temperature
	currentChip := ""

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Adapter:") {
			continue
		}
		if !strings.Contains(line, ":") {
			currentChip = line
			continue
		}
		m := tempInputRe.FindStringSubmatch(line)
		if m == nil || !strings.HasPrefix(m[1], "temp") {
			continue
		}
		val, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		label := strings.ReplaceAll(strings.Replace(m[1], "temp", "Temp ", 1), "_", " ")
		chip := currentChip
		if chip == "" {
			chip = "unknown"
		}
		temps = append(temps, Temperature{
			Label: label,
			Value: round1(val),
			Chip:  chip,
		})
	}
	return temps
}

// parseSensorsHuman parses the human-readable `sensors` output used
// as a fallback when the raw format yields nothing.
func parseSensorsHuman(out string) []Temperature {
	var temps []Temperature
	for _, m := range tempHumanRe.FindAllStringSubmatch(out, -1) {
		val, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		temps = append(temps, Temperature{
			Label: strings.TrimSpace(m[1]),
			Value: round1(val),
		})
	}
	return temps
}

// parseSensorFans extracts fan readings from either sensors output
// format.
func parseSensorFans(out string) []FanReading {
	var fans []FanReading
	for _, m := range fanInputRe.FindAllStringSubmatch(out, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		rpm, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		fans = append(fans, FanReading{Fan: idx, RPM: int(rpm)})
	}
	for _, m := range fanHumanRe.FindAllStringSubmatch(out, -1) {
		rpm, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		fans = append(fans, FanReading{Label: strings.TrimSpace(m[1]), RPM: rpm})
	}
	return fans
}

// parseNvidiaSMI parses one line of nvidia-smi CSV output queried as
// name,temperature.gpu,utilization.gpu,memory.used,memory.total,power.draw
// with noheader,nounits. Fields may read "[N/A]".
func parseNvidiaSMI(out string) *GPU {
	parts := strings.Split(out, ",")
	if len(parts) < 4 {
		return nil
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	gpu := &GPU{Name: strings.Trim(parts[0], `"`)}
	gpu.Temperature = csvInt(parts, 1)
	gpu.Utilization = csvInt(parts, 2)
	gpu.MemoryUsedMB = csvInt(parts, 3)
	gpu.MemoryTotalMB = csvInt(parts, 4)
	if w := csvFloat(parts, 5); w != nil {
		v := round1(*w)
		gpu.PowerWatts = &v
	}
	return gpu
}

func csvFloat(parts []string, i int) *float64 {
	if i >= len(parts) || parts[i] == "" || parts[i] == "[N/A]" {
		return nil
	}
	v, err := strconv.ParseFloat(parts[i], 64)
	if err != nil {
		return nil
	}
	return &v
}

func csvInt(parts []string, i int) *int {
	f := csvFloat(parts, i)
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
