package db

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func ip(v int) *int         { return &v }
func bp(v bool) *bool       { return &v }
func fp(v float64) *float64 { return &v }

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	d, err := New(path)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	d.Close()

	// Re-opening must not re-run or fail migrations.
	d, err = New(path)
	if err != nil {
		t.Fatalf("New() second open error: %v", err)
	}
	d.Close()
}

func TestRecordAndQuerySnapshots(t *testing.T) {
	d := newTestDB(t)

	snaps := []*Snapshot{
		{Mode: "auto", CPUPercent: ip(30), GPUPercent: ip(25), CPURPM: ip(1650), GPURPM: ip(1375),
			CPURPMEstimated: true, GPURPMEstimated: true, CoolerBoost: bp(false),
			CPUTemp: fp(55.5), CPUUsage: fp(12.0)},
		{Mode: "max", CPUPercent: ip(100), GPUPercent: ip(100), CoolerBoost: bp(true)},
		{Mode: "unknown"},
	}
	for _, s := range snaps {
		if err := d.RecordSnapshot(s); err != nil {
			t.Fatalf("RecordSnapshot() error: %v", err)
		}
	}

	got, err := d.RecentSnapshots(10)
	if err != nil {
		t.Fatalf("RecentSnapshots() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("snapshots=%d want 3", len(got))
	}

	// Newest first
	if got[0].Mode != "unknown" {
		t.Fatalf("got[0].Mode=%q want unknown", got[0].Mode)
	}
	if got[0].CPUPercent != nil || got[0].CoolerBoost != nil {
		t.Fatal("absent fields must scan as nil")
	}

	oldest := got[2]
	if oldest.Mode != "auto" {
		t.Fatalf("oldest.Mode=%q want auto", oldest.Mode)
	}
	if oldest.CPURPM == nil || *oldest.CPURPM != 1650 || !oldest.CPURPMEstimated {
		t.Fatalf("oldest rpm=%+v", oldest)
	}
	if oldest.CPUTemp == nil || *oldest.CPUTemp != 55.5 {
		t.Fatalf("oldest cpu_temp=%v", oldest.CPUTemp)
	}
	if oldest.CoolerBoost == nil || *oldest.CoolerBoost {
		t.Fatalf("oldest cooler_boost=%v", oldest.CoolerBoost)
	}
}

func TestRecordAndQueryEvents(t *testing.T) {
	d := newTestDB(t)

	events := []*ControlEvent{
		{SessionID: "s1", EventType: EventBoostOn, Succeeded: true},
		{SessionID: "s1", EventType: EventCustomFan, CPUValue: ip(40), GPUValue: ip(60), Succeeded: true, Verified: true},
		{SessionID: "s2", EventType: EventBoostOff, Succeeded: false, Details: "write gate failed"},
	}
	for _, e := range events {
		if err := d.RecordControlEvent(e); err != nil {
			t.Fatalf("RecordControlEvent() error: %v", err)
		}
	}

	got, err := d.RecentEvents(10)
	if err != nil {
		t.Fatalf("RecentEvents() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("events=%d want 3", len(got))
	}
	if got[0].EventType != EventBoostOff || got[0].Succeeded {
		t.Fatalf("got[0]=%+v", got[0])
	}
	if got[0].Details != "write gate failed" {
		t.Fatalf("details=%q", got[0].Details)
	}

	custom, err := d.EventsByType(EventCustomFan, 10)
	if err != nil {
		t.Fatalf("EventsByType() error: %v", err)
	}
	if len(custom) != 1 {
		t.Fatalf("custom events=%d want 1", len(custom))
	}
	if custom[0].CPUValue == nil || *custom[0].CPUValue != 40 || !custom[0].Verified {
		t.Fatalf("custom[0]=%+v", custom[0])
	}
}

func TestPruneSnapshots(t *testing.T) {
	d := newTestDB(t)
	for i := 0; i < 10; i++ {
		if err := d.RecordSnapshot(&Snapshot{Mode: "auto"}); err != nil {
			t.Fatalf("RecordSnapshot() error: %v", err)
		}
	}
	if err := d.PruneSnapshots(4); err != nil {
		t.Fatalf("PruneSnapshots() error: %v", err)
	}
	got, err := d.RecentSnapshots(100)
	if err != nil {
		t.Fatalf("RecentSnapshots() error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("snapshots=%d want 4", len(got))
	}
}
