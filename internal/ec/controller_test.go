package ec

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// newTestEC returns a controller backed by a 256-byte file standing
// in for the EC register space, with the chardev candidate absent.
func newTestEC(t *testing.T) (*Controller, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "io")
	if err := os.WriteFile(path, make([]byte, 256), 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	c := &Controller{
		SysPath: path,
		DevPath: filepath.Join(t.TempDir(), "absent"),
	}
	return c, path
}

func readReg(t *testing.T, path string, offset int) byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	return data[offset]
}

func pokeReg(t *testing.T, path string, offset int, value byte) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile() error: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteAt([]byte{value}, int64(offset)); err != nil {
		t.Fatalf("WriteAt() error: %v", err)
	}
}

func TestSetCustomFans_Roundtrip(t *testing.T) {
	for _, p := range []int{0, 1, 37, 50, 100} {
		c, _ := newTestEC(t)
		if !c.SetCustomFans(p, p) {
			t.Fatalf("SetCustomFans(%d, %d) = false", p, p)
		}
		info := c.GetFanInfo()
		if info.Mode != ModeCustom {
			t.Fatalf("mode=%q want custom", info.Mode)
		}
		if info.CPUPercent == nil || *info.CPUPercent != p {
			t.Fatalf("cpu_percent=%v want %d", info.CPUPercent, p)
		}
		if info.GPUPercent == nil || *info.GPUPercent != p {
			t.Fatalf("gpu_percent=%v want %d", info.GPUPercent, p)
		}
	}
}

func TestSetCustomFans_ArmsWriteGate(t *testing.T) {
	c, path := newTestEC(t)
	if !c.SetCustomFans(40, 60) {
		t.Fatal("SetCustomFans(40, 60) = false")
	}
	if got := readReg(t, path, RegWriteEnable); got != 0x11 {
		t.Fatalf("write-enable register=0x%02x want 0x11", got)
	}
	if got := readReg(t, path, RegCPUFanPct); got != 40 {
		t.Fatalf("cpu pct register=%d want 40", got)
	}
	if got := readReg(t, path, RegGPUFanPct); got != 60 {
		t.Fatalf("gpu pct register=%d want 60", got)
	}
}

func TestSetCustomFans_RejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name     string
		cpu, gpu int
	}{
		{"CPUNegative", -1, 50},
		{"GPUNegative", 50, -1},
		{"CPUTooHigh", 101, 50},
		{"GPUTooHigh", 50, 101},
		{"BothWild", -20, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, path := newTestEC(t)
			before, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			if c.SetCustomFans(tc.cpu, tc.gpu) {
				t.Fatalf("SetCustomFans(%d, %d) = true, want reject", tc.cpu, tc.gpu)
			}
			after, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error: %v", err)
			}
			if !bytes.Equal(before, after) {
				t.Fatal("register store changed on rejected input")
			}
		})
	}
}

func TestSetCoolerBoost_WritesModeRegisters(t *testing.T) {
	c, path := newTestEC(t)
	if !c.SetCoolerBoost(true) {
		t.Fatal("SetCoolerBoost(true) = false")
	}
	if got := readReg(t, path, RegCPUFanMode); got != 0x08 {
		t.Fatalf("cpu mode=0x%02x want 0x08", got)
	}
	if got := readReg(t, path, RegGPUFanMode); got != 0x20 {
		t.Fatalf("gpu mode=0x%02x want 0x20", got)
	}

	if !c.SetCoolerBoost(false) {
		t.Fatal("SetCoolerBoost(false) = false")
	}
	if got := readReg(t, path, RegCPUFanMode); got != 0x04 {
		t.Fatalf("cpu mode=0x%02x want 0x04", got)
	}
	if got := readReg(t, path, RegGPUFanMode); got != 0x10 {
		t.Fatalf("gpu mode=0x%02x want 0x10", got)
	}
}

func TestGetCoolerBoostStatus(t *testing.T) {
	cases := []struct {
		name     string
		cpu, gpu byte
		want     bool
	}{
		{"BothMax", 0x08, 0x20, true},
		{"CPUMaxOnly", 0x08, 0x10, false},
		{"GPUMaxOnly", 0x04, 0x20, false},
		{"BothAuto", 0x04, 0x10, false},
		{"BothCustom", 0x0c, 0x30, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, path := newTestEC(t)
			pokeReg(t, path, RegCPUFanMode, tc.cpu)
			pokeReg(t, path, RegGPUFanMode, tc.gpu)
			got := c.GetCoolerBoostStatus()
			if got == nil {
				t.Fatal("status=nil want readable")
			}
			if *got != tc.want {
				t.Fatalf("status=%v want %v", *got, tc.want)
			}
		})
	}
}

func TestGetCoolerBoostStatus_UnreadableIsNil(t *testing.T) {
	c := &Controller{
		SysPath: filepath.Join(t.TempDir(), "gone"),
		DevPath: filepath.Join(t.TempDir(), "gone-too"),
	}
	if got := c.GetCoolerBoostStatus(); got != nil {
		t.Fatalf("status=%v want nil", *got)
	}
}

func TestGetFanInfo_AggregateMode(t *testing.T) {
	cases := []struct {
		name     string
		cpu, gpu byte
		want     Mode
	}{
		{"Auto", 0x04, 0x10, ModeAuto},
		{"Max", 0x08, 0x20, ModeMax},
		{"Custom", 0x0c, 0x30, ModeCustom},
		{"Disagreement", 0x04, 0x20, ModeUnknown},
		{"CPUGarbage", 0x00, 0x10, ModeUnknown},
		{"GPUGarbage", 0x08, 0xff, ModeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, path := newTestEC(t)
			pokeReg(t, path, RegCPUFanMode, tc.cpu)
			pokeReg(t, path, RegGPUFanMode, tc.gpu)
			info := c.GetFanInfo()
			if info.Mode != tc.want {
				t.Fatalf("mode=%q want %q", info.Mode, tc.want)
			}
		})
	}
}

func TestGetFanInfo_PerDomainBoostIndependent(t *testing.T) {
	c, path := newTestEC(t)
	pokeReg(t, path, RegCPUFanMode, 0x08) // max
	pokeReg(t, path, RegGPUFanMode, 0x10) // auto
	info := c.GetFanInfo()
	if info.Mode != ModeUnknown {
		t.Fatalf("mode=%q want unknown", info.Mode)
	}
	if info.CPUCoolerBoost == nil || !*info.CPUCoolerBoost {
		t.Fatal("cpu_cooler_boost should be true")
	}
	if info.GPUCoolerBoost == nil || *info.GPUCoolerBoost {
		t.Fatal("gpu_cooler_boost should be false")
	}
	if info.CoolerBoost == nil || *info.CoolerBoost {
		t.Fatal("cooler_boost should be false")
	}
}

func TestGetFanInfo_RPMEstimate(t *testing.T) {
	c, path := newTestEC(t)
	pokeReg(t, path, RegCPUFanPct, 50)
	pokeReg(t, path, RegGPUFanPct, 50)
	// RPM registers are all zero, so the direct read is discarded
	// and the percent heuristic kicks in.
	info := c.GetFanInfo()
	if info.CPURPM == nil || *info.CPURPM != 2750 {
		t.Fatalf("cpu_rpm=%v want 2750", info.CPURPM)
	}
	if !info.CPURPMEstimated {
		t.Fatal("cpu_rpm should be flagged as estimated")
	}
	if info.GPURPM == nil || *info.GPURPM != 2750 {
		t.Fatalf("gpu_rpm=%v want 2750", info.GPURPM)
	}
	if !info.GPURPMEstimated {
		t.Fatal("gpu_rpm should be flagged as estimated")
	}
}

func TestGetFanInfo_RPMDirect(t *testing.T) {
	c, path := newTestEC(t)
	// 0x03e8 = 1000 RPM, 16-bit little-endian-by-register
	pokeReg(t, path, RegCPUFanRPMLo, 0xe8)
	pokeReg(t, path, RegCPUFanRPMHi, 0x03)
	pokeReg(t, path, RegCPUFanPct, 50)
	info := c.GetFanInfo()
	if info.CPURPM == nil || *info.CPURPM != 1000 {
		t.Fatalf("cpu_rpm=%v want 1000", info.CPURPM)
	}
	if info.CPURPMEstimated {
		t.Fatal("direct rpm must not be flagged as estimated")
	}
}

func TestReadFanRPM_ImplausibleValues(t *testing.T) {
	cases := []struct {
		name   string
		lo, hi byte
		want   *int
	}{
		{"Zero", 0x00, 0x00, nil},
		{"JustOverCeiling", 0xe9, 0xfd, nil}, // 65001
		{"AtCeiling", 0xe8, 0xfd, intp(65000)},
		{"EightBitOnly", 0x2a, 0x00, intp(42)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, path := newTestEC(t)
			pokeReg(t, path, RegCPUFanRPMLo, tc.lo)
			pokeReg(t, path, RegCPUFanRPMHi, tc.hi)
			got := c.readFanRPM(RegCPUFanRPMLo, RegCPUFanRPMHi)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("rpm=%v want %v", got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("rpm=%d want %d", *got, *tc.want)
			}
		})
	}
}

func TestSetDomainMode_LeavesOtherDomainAlone(t *testing.T) {
	c, path := newTestEC(t)
	pokeReg(t, path, RegCPUFanMode, 0x04)
	if !c.SetDomainMode(DomainGPU, ModeMax) {
		t.Fatal("SetDomainMode(gpu, max) = false")
	}
	if got := readReg(t, path, RegGPUFanMode); got != 0x20 {
		t.Fatalf("gpu mode=0x%02x want 0x20", got)
	}
	if got := readReg(t, path, RegCPUFanMode); got != 0x04 {
		t.Fatalf("cpu mode=0x%02x want 0x04 (untouched)", got)
	}
	if st := c.GetCoolerBoostStatus(); st == nil || *st {
		t.Fatal("single boosted domain must not report aggregate boost")
	}
}

func TestSetDomainMode_RejectsUnknownMode(t *testing.T) {
	c, path := newTestEC(t)
	before, _ := os.ReadFile(path)
	if c.SetDomainMode(DomainCPU, ModeUnknown) {
		t.Fatal("SetDomainMode(cpu, unknown) = true")
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(before, after) {
		t.Fatal("register store changed on rejected mode")
	}
}

func TestWriteGateFailureAborts(t *testing.T) {
	// A directory opens for neither reading nor writing a byte, so
	// the gate write fails and the operation reports failure.
	dir := t.TempDir()
	c := &Controller{SysPath: dir, DevPath: filepath.Join(dir, "absent")}
	if c.SetCoolerBoost(true) {
		t.Fatal("SetCoolerBoost should fail when the gate write fails")
	}
	if c.SetCustomFans(50, 50) {
		t.Fatal("SetCustomFans should fail when the gate write fails")
	}
}

func TestVerifyWrites_Roundtrip(t *testing.T) {
	c, _ := newTestEC(t)
	c.VerifyWrites = true
	if !c.SetCustomFans(30, 70) {
		t.Fatal("SetCustomFans with verification = false")
	}
	if !c.SetCoolerBoostIndividual(true, false) {
		t.Fatal("SetCoolerBoostIndividual with verification = false")
	}
}

func TestVerifyWrites_DetectsUnreadableReadback(t *testing.T) {
	if _, err := os.Stat(os.DevNull); err != nil {
		t.Skip("no null device")
	}
	// Writes to the null device succeed but read-back yields EOF:
	// best-effort mode reports success, strict mode does not.
	c := &Controller{SysPath: os.DevNull, DevPath: filepath.Join(t.TempDir(), "absent")}
	if !c.SetCoolerBoost(true) {
		t.Fatal("best-effort SetCoolerBoost = false")
	}
	c.VerifyWrites = true
	if c.SetCoolerBoost(true) {
		t.Fatal("strict SetCoolerBoost = true with unreadable read-back")
	}
}

func intp(v int) *int { return &v }
