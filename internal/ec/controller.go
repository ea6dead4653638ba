// Package ec controls the cooling fans of Acer Nitro 5 laptops by
// reading and writing single-byte registers in the machine's
// embedded controller, reached through the ec_sys debugfs node or
// the acpi_ec character device.
//
// The EC register set is global shared mutable state with no
// hardware atomicity across multi-byte sequences. The package itself
// is synchronous and lock-free; hosts embedding it must serialize
// all mutating operations (see internal/hostlock).
package ec

// Controller drives the fan-control registers of one EC. The zero
// value is usable; overridable paths exist for test rigs and
// non-standard kernels.
type Controller struct {
	// SysPath and DevPath override the candidate interface paths
	// when non-empty. CmdlinePath overrides the kernel command
	// line source.
	SysPath     string
	DevPath     string
	CmdlinePath string

	// VerifyWrites makes the mutating operations read the mode
	// registers back and report failure on mismatch, instead of
	// the default best-effort behavior where success reflects only
	// the write-enable gate.
	VerifyWrites bool

	// RPMEstimateFactor scales a fan percentage into an estimated
	// RPM when no readable RPM register exists. The default of 55
	// assumes a ~5500 RPM ceiling at 100%; it is a placeholder
	// heuristic, not a calibrated hardware fact.
	RPMEstimateFactor int

	iface *iface // resolved lazily, re-resolved if the path vanishes
}

// New returns a controller with default interface paths.
func New() *Controller {
	return &Controller{}
}

func (c *Controller) sysPath() string {
	if c.SysPath != "" {
		return c.SysPath
	}
	return ECSysPath
}

func (c *Controller) devPath() string {
	if c.DevPath != "" {
		return c.DevPath
	}
	return ECDevPath
}

func (c *Controller) cmdline() string {
	if c.CmdlinePath != "" {
		return c.CmdlinePath
	}
	return cmdlinePath
}

func (c *Controller) estimateFactor() int {
	if c.RPMEstimateFactor > 0 {
		return c.RPMEstimateFactor
	}
	return 55
}

// enableWrite arms the EC for mutating writes. The EC may require
// re-arming between operations, so the gate is issued once per
// logical operation and never cached. Callers must abort the
// operation when the gate fails.
func (c *Controller) enableWrite() bool {
	return c.writeByte(RegWriteEnable, writeEnableCode)
}

// SetCoolerBoost enables or disables Cooler Boost (max fan speed)
// for both CPU and GPU.
func (c *Controller) SetCoolerBoost(enabled bool) bool {
	return c.SetCoolerBoostIndividual(enabled, enabled)
}

// SetCoolerBoostIndividual sets Cooler Boost per domain. A domain
// not boosted is returned to auto mode. Success reflects the
// write-enable gate only (unless VerifyWrites is set): the two mode
// writes are best-effort and a partial application still reports
// true.
func (c *Controller) SetCoolerBoostIndividual(cpuMax, gpuMax bool) bool {
	if !c.enableWrite() {
		return false
	}

	// Current modes are read but unused: a hook for future
	// partial-preserve logic, not current behavior.
	c.readByte(RegCPUFanMode)
	c.readByte(RegGPUFanMode)

	newCPU := byte(cpuModeAuto)
	if cpuMax {
		newCPU = cpuModeMax
	}
	newGPU := byte(gpuModeAuto)
	if gpuMax {
		newGPU = gpuModeMax
	}

	c.writeByte(RegCPUFanMode, newCPU)
	c.writeByte(RegGPUFanMode, newGPU)

	if c.VerifyWrites {
		return c.verifyModes(newCPU, newGPU)
	}
	return true
}

// SetCustomFan sets the same custom fan percentage for both domains.
func (c *Controller) SetCustomFan(percent int) bool {
	return c.SetCustomFans(percent, percent)
}

// SetCustomFans switches both domains to custom mode with
// independent percentages. Percentages outside [0,100] are rejected
// before any register access. Writes happen in fixed order (GPU
// mode, CPU mode, CPU percent, GPU percent) with no rollback on
// partial failure.
func (c *Controller) SetCustomFans(cpuPercent, gpuPercent int) bool {
	if cpuPercent < 0 || cpuPercent > 100 || gpuPercent < 0 || gpuPercent > 100 {
		return false
	}
	if !c.enableWrite() {
		return false
	}

	c.writeByte(RegGPUFanMode, gpuModeCustom)
	c.writeByte(RegCPUFanMode, cpuModeCustom)
	c.writeByte(RegCPUFanPct, byte(cpuPercent))
	c.writeByte(RegGPUFanPct, byte(gpuPercent))

	if c.VerifyWrites {
		if !c.verifyModes(cpuModeCustom, gpuModeCustom) {
			return false
		}
		cp, ok1 := c.readByte(RegCPUFanPct)
		gp, ok2 := c.readByte(RegGPUFanPct)
		return ok1 && ok2 && cp == byte(cpuPercent) && gp == byte(gpuPercent)
	}
	return true
}

// SetDomainMode sets one domain's mode register, leaving the other
// domain untouched. This is the register-level escape hatch for
// callers needing finer control than the aggregate entry points,
// e.g. boosting one domain while holding the other's current mode.
func (c *Controller) SetDomainMode(d Domain, m Mode) bool {
	code, ok := modeCode(d, m)
	if !ok {
		return false
	}
	if !c.enableWrite() {
		return false
	}

	reg := int64(RegCPUFanMode)
	if d == DomainGPU {
		reg = RegGPUFanMode
	}
	if !c.writeByte(reg, code) {
		return false
	}
	if c.VerifyWrites {
		got, okr := c.readByte(reg)
		return okr && got == code
	}
	return true
}

// verifyModes reads both mode registers back and compares.
func (c *Controller) verifyModes(wantCPU, wantGPU byte) bool {
	cpu, ok1 := c.readByte(RegCPUFanMode)
	gpu, ok2 := c.readByte(RegGPUFanMode)
	return ok1 && ok2 && cpu == wantCPU && gpu == wantGPU
}
