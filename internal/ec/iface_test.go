package ec

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, 256), 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
}

func TestDetectInterface_NeitherPresent(t *testing.T) {
	dir := t.TempDir()
	c := &Controller{
		SysPath: filepath.Join(dir, "io"),
		DevPath: filepath.Join(dir, "ec"),
	}
	// Detection depends only on path existence, never on privilege.
	if got := c.detectInterface(); got != nil {
		t.Fatalf("detectInterface()=%+v want nil", got)
	}
}

func TestDetectInterface_PrefersDebugfs(t *testing.T) {
	dir := t.TempDir()
	sys := filepath.Join(dir, "io")
	dev := filepath.Join(dir, "ec")
	touch(t, sys)
	touch(t, dev)

	c := &Controller{SysPath: sys, DevPath: dev}
	got := c.detectInterface()
	if got == nil || got.path != sys || !got.debugfs {
		t.Fatalf("detectInterface()=%+v want debugfs node %s", got, sys)
	}
}

func TestDetectInterface_FallsBackToChardev(t *testing.T) {
	dir := t.TempDir()
	dev := filepath.Join(dir, "ec")
	touch(t, dev)

	c := &Controller{SysPath: filepath.Join(dir, "io"), DevPath: dev}
	got := c.detectInterface()
	if got == nil || got.path != dev || got.debugfs {
		t.Fatalf("detectInterface()=%+v want chardev node %s", got, dev)
	}
}

func TestResolve_ReprobesWhenPathVanishes(t *testing.T) {
	dir := t.TempDir()
	sys := filepath.Join(dir, "io")
	dev := filepath.Join(dir, "ec")
	touch(t, sys)
	touch(t, dev)

	c := &Controller{SysPath: sys, DevPath: dev}
	if got := c.resolve(); got == nil || got.path != sys {
		t.Fatalf("resolve()=%+v want %s", got, sys)
	}

	// Cached handle survives while the path exists.
	if got := c.resolve(); got == nil || got.path != sys {
		t.Fatalf("cached resolve()=%+v want %s", got, sys)
	}

	// Once the debugfs node vanishes the handle is re-resolved to
	// the remaining candidate.
	if err := os.Remove(sys); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if got := c.resolve(); got == nil || got.path != dev {
		t.Fatalf("resolve() after removal=%+v want %s", got, dev)
	}
}

func TestBootParamPersisted(t *testing.T) {
	cases := []struct {
		name    string
		cmdline string
		want    bool
	}{
		{"Present", "BOOT_IMAGE=/vmlinuz quiet ec_sys.write_support=1\n", true},
		{"Absent", "BOOT_IMAGE=/vmlinuz quiet splash\n", false},
		{"Empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cmdline")
			if err := os.WriteFile(path, []byte(tc.cmdline), 0o644); err != nil {
				t.Fatalf("WriteFile() error: %v", err)
			}
			c := &Controller{CmdlinePath: path}
			if got := c.bootParamPersisted(); got != tc.want {
				t.Fatalf("bootParamPersisted()=%v want %v", got, tc.want)
			}
		})
	}
}
