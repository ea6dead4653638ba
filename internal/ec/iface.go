package ec

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Default EC interface paths. Exactly one is selected per controller
// lifetime; both are read and written identically.
const (
	ECSysPath   = "/sys/kernel/debug/ec/ec0/io" // ec_sys debugfs node
	ECDevPath   = "/dev/ec"                     // acpi_ec character device
	cmdlinePath = "/proc/cmdline"

	bootParam = "ec_sys.write_support=1"
)

var (
	// ErrNotRoot indicates the process lacks the privileges needed
	// to reach the EC interface.
	ErrNotRoot = errors.New("ec: root privileges required")

	// ErrNoInterface indicates neither candidate EC interface exists.
	ErrNoInterface = errors.New("ec: no EC interface found")
)

// unavailableMsg carries the remediation instructions shown when no
// EC interface exists after the modprobe attempt.
const unavailableMsg = `EC interface not found.

Configure the kernel:
1. Edit /etc/default/grub
2. Add ec_sys.write_support=1 to GRUB_CMDLINE_LINUX_DEFAULT
3. Run: sudo update-grub
4. Reboot the system`

// iface is a resolved EC interface handle. The debugfs flag is
// bookkeeping only; access is identical for both mechanisms.
type iface struct {
	path    string
	debugfs bool
}

// detectInterface probes the candidate paths in fixed order.
// Existence alone selects; readability is validated at access time.
func (c *Controller) detectInterface() *iface {
	if _, err := os.Stat(c.sysPath()); err == nil {
		return &iface{path: c.sysPath(), debugfs: true}
	}
	if _, err := os.Stat(c.devPath()); err == nil {
		return &iface{path: c.devPath()}
	}
	return nil
}

// resolve returns the cached interface handle, re-probing when the
// cached path no longer exists.
func (c *Controller) resolve() *iface {
	if c.iface != nil {
		if _, err := os.Stat(c.iface.path); err == nil {
			return c.iface
		}
		c.iface = nil
	}
	c.iface = c.detectInterface()
	return c.iface
}

// ensureECSys tries to load the ec_sys module with write support and
// re-probes for the debugfs node. One attempt only.
func (c *Controller) ensureECSys() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := exec.CommandContext(ctx, "modprobe", "ec_sys", "write_support=1").Run(); err != nil {
		return false
	}
	_, err := os.Stat(c.sysPath())
	return err == nil
}

// bootParamPersisted reports whether write support is already
// configured as a boot-time kernel parameter.
func (c *Controller) bootParamPersisted() bool {
	data, err := os.ReadFile(c.cmdline())
	if err != nil {
		return false
	}
	return strings.Contains(string(data), bootParam)
}

// Available reports whether EC control is usable. Privilege is
// checked before any probing; a missing interface gets one modprobe
// remediation attempt. Returns ErrNotRoot, ErrNoInterface, or nil.
func (c *Controller) Available() error {
	if os.Geteuid() != 0 {
		return ErrNotRoot
	}

	if c.ensureECSys() {
		c.iface = nil
	}

	if c.resolve() == nil {
		return ErrNoInterface
	}

	return nil
}

// IsAvailable wraps Available with user-facing diagnostics, including
// the boot-configuration instructions when no interface exists.
func (c *Controller) IsAvailable() (bool, string) {
	switch err := c.Available(); {
	case errors.Is(err, ErrNotRoot):
		return false, "Root privileges required (sudo)"
	case errors.Is(err, ErrNoInterface):
		msg := unavailableMsg
		if c.bootParamPersisted() {
			msg += "\n\nNote: ec_sys.write_support=1 is already on the kernel command line; a reboot may be pending."
		}
		return false, msg
	}
	return true, "OK"
}
