package ec

import (
	"io"
	"os"
)

// readByte reads one byte at the given register offset. Every call
// performs a fresh open/seek/read/close against the resolved
// interface; no handle is kept open across calls, so interface
// resets or revocation cost one re-probe rather than a stale fd.
// All I/O failures are absorbed here and reported as (0, false).
func (c *Controller) readByte(offset int64) (byte, bool) {
	iface := c.resolve()
	if iface == nil {
		return 0, false
	}

	f, err := os.Open(iface.path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, false
	}

	buf := make([]byte, 1)
	if _, err := io.ReadFull(f, buf); err != nil {
		return 0, false
	}
	return buf[0], true
}

// writeByte writes one byte at the given register offset. Same
// open-per-call discipline and failure absorption as readByte;
// callers see only success or failure.
func (c *Controller) writeByte(offset int64, value byte) bool {
	iface := c.resolve()
	if iface == nil {
		return false
	}

	f, err := os.OpenFile(iface.path, os.O_RDWR, 0)
	if err != nil {
		return false
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return false
	}
	if _, err := f.Write([]byte{value}); err != nil {
		return false
	}
	return true
}
