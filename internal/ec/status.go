package ec

// FanInfo is a read-through snapshot of the fan-control registers.
// Optional fields are nil when the backing register was unreadable.
// Register state is owned by the hardware; nothing here is cached
// and a new call always re-queries the EC.
type FanInfo struct {
	Mode            Mode  `json:"mode"`
	CPUPercent      *int  `json:"cpu_percent,omitempty"`
	GPUPercent      *int  `json:"gpu_percent,omitempty"`
	CPURPM          *int  `json:"cpu_rpm,omitempty"`
	GPURPM          *int  `json:"gpu_rpm,omitempty"`
	CPURPMEstimated bool  `json:"cpu_rpm_estimated,omitempty"`
	GPURPMEstimated bool  `json:"gpu_rpm_estimated,omitempty"`
	CoolerBoost     *bool `json:"cooler_boost,omitempty"`
	CPUCoolerBoost  *bool `json:"cpu_cooler_boost,omitempty"`
	GPUCoolerBoost  *bool `json:"gpu_cooler_boost,omitempty"`
}

// GetCoolerBoostStatus reports whether both domains are in max mode.
// Returns nil when either mode register is unreadable. Any readable
// combination other than CPU=max and GPU=max is false, including a
// single boosted domain.
func (c *Controller) GetCoolerBoostStatus() *bool {
	cpu, ok1 := c.readByte(RegCPUFanMode)
	gpu, ok2 := c.readByte(RegGPUFanMode)
	if !ok1 || !ok2 {
		return nil
	}
	v := cpu == cpuModeMax && gpu == gpuModeMax
	return &v
}

// GetFanInfo reads the mode and percent registers of both domains
// and derives a consistent logical snapshot. The aggregate mode is
// well-defined only when both domains encode the same mode family;
// disagreement and partial reads yield ModeUnknown. Per-domain boost
// flags are computed independently of the aggregate label.
func (c *Controller) GetFanInfo() FanInfo {
	cpuMode, cpuModeOK := c.readByte(RegCPUFanMode)
	gpuMode, gpuModeOK := c.readByte(RegGPUFanMode)
	cpuPct, cpuPctOK := c.readByte(RegCPUFanPct)
	gpuPct, gpuPctOK := c.readByte(RegGPUFanPct)

	info := FanInfo{Mode: ModeUnknown}

	if cpuModeOK && gpuModeOK {
		cm := domainMode(DomainCPU, cpuMode)
		gm := domainMode(DomainGPU, gpuMode)
		if cm == gm && cm != ModeUnknown {
			info.Mode = cm
		}
	}

	if cpuModeOK {
		v := cpuMode == cpuModeMax
		info.CPUCoolerBoost = &v
	}
	if gpuModeOK {
		v := gpuMode == gpuModeMax
		info.GPUCoolerBoost = &v
	}
	info.CoolerBoost = c.GetCoolerBoostStatus()

	if cpuPctOK {
		v := int(cpuPct)
		info.CPUPercent = &v
	}
	if gpuPctOK {
		v := int(gpuPct)
		info.GPUPercent = &v
	}

	// RPM: direct register read first, percent-based estimate as
	// fallback. The estimate carries a provenance flag so it is
	// never mistaken for a measurement.
	info.CPURPM = c.readFanRPM(RegCPUFanRPMLo, RegCPUFanRPMHi)
	info.GPURPM = c.readFanRPM(RegGPUFanRPMLo, RegGPUFanRPMHi)
	if info.CPURPM == nil && info.CPUPercent != nil {
		v := *info.CPUPercent * c.estimateFactor()
		info.CPURPM = &v
		info.CPURPMEstimated = true
	}
	if info.GPURPM == nil && info.GPUPercent != nil {
		v := *info.GPUPercent * c.estimateFactor()
		info.GPURPM = &v
		info.GPURPMEstimated = true
	}

	return info
}

// readFanRPM reads an 8- or 16-bit RPM value. hiReg of 0 means the
// domain has no high byte. Raw values of 0 or above 65000 are sensor
// noise or absent hardware and are never surfaced literally.
func (c *Controller) readFanRPM(loReg, hiReg int64) *int {
	lo, ok := c.readByte(loReg)
	if !ok {
		return nil
	}
	val := int(lo)
	if hiReg != 0 {
		if hi, ok := c.readByte(hiReg); ok {
			val = int(hi)<<8 | int(lo)
		}
	}
	if val == 0 || val > 65000 {
		return nil
	}
	return &val
}
