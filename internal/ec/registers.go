package ec

// EC register offsets for the Acer Nitro 5 family
// (AN515-44/46/56/57/58). The map is fixed for the controller
// family and never discovered at runtime.
const (
	RegWriteEnable = 0x03 // write 0x11 to arm subsequent writes
	RegGPUFanMode  = 0x21 // 0x10=auto, 0x20=max, 0x30=custom
	RegCPUFanMode  = 0x22 // 0x04=auto, 0x08=max, 0x0c=custom
	RegCPUFanPct   = 0x37 // 0-100%
	RegGPUFanPct   = 0x3a // 0-100%

	// RPM registers (some models; raw 8- or 16-bit values)
	RegCPUFanRPMLo = 0x13
	RegCPUFanRPMHi = 0x14
	RegGPUFanRPMLo = 0x15
	RegGPUFanRPMHi = 0x16
)

// writeEnableCode arms the EC for mutating writes.
const writeEnableCode = 0x11

// Mode is a logical fan mode shared by both domains.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeMax     Mode = "max"
	ModeCustom  Mode = "custom"
	ModeUnknown Mode = "unknown"
)

// Domain identifies a fan subsystem. Each domain has its own
// mode/percent registers and byte encodings.
type Domain int

const (
	DomainCPU Domain = iota
	DomainGPU
)

func (d Domain) String() string {
	if d == DomainGPU {
		return "gpu"
	}
	return "cpu"
}

// Per-domain mode byte codes. The codes are never comparable across
// domains; aggregate labels are derived in GetFanInfo.
const (
	cpuModeAuto   = 0x04
	cpuModeMax    = 0x08
	cpuModeCustom = 0x0c

	gpuModeAuto   = 0x10
	gpuModeMax    = 0x20
	gpuModeCustom = 0x30
)

// modeCode returns the register byte for a mode in the given domain.
func modeCode(d Domain, m Mode) (byte, bool) {
	switch d {
	case DomainCPU:
		switch m {
		case ModeAuto:
			return cpuModeAuto, true
		case ModeMax:
			return cpuModeMax, true
		case ModeCustom:
			return cpuModeCustom, true
		}
	case DomainGPU:
		switch m {
		case ModeAuto:
			return gpuModeAuto, true
		case ModeMax:
			return gpuModeMax, true
		case ModeCustom:
			return gpuModeCustom, true
		}
	}
	return 0, false
}

// domainMode decodes a raw mode register byte for the given domain.
func domainMode(d Domain, code byte) Mode {
	switch d {
	case DomainCPU:
		switch code {
		case cpuModeAuto:
			return ModeAuto
		case cpuModeMax:
			return ModeMax
		case cpuModeCustom:
			return ModeCustom
		}
	case DomainGPU:
		switch code {
		case gpuModeAuto:
			return ModeAuto
		case gpuModeMax:
			return ModeMax
		case gpuModeCustom:
			return ModeCustom
		}
	}
	return ModeUnknown
}
