package db

import (
	"database/sql"
	"fmt"
)

// RecordSnapshot stores one fan status snapshot
func (d *DB) RecordSnapshot(s *Snapshot) error {
	_, err := d.conn.Exec(`
		INSERT INTO fan_snapshots (mode, cpu_percent, gpu_percent, cpu_rpm, gpu_rpm,
			cpu_rpm_estimated, gpu_rpm_estimated, cooler_boost, cpu_temp, gpu_temp, cpu_usage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.Mode, nullInt(s.CPUPercent), nullInt(s.GPUPercent), nullInt(s.CPURPM), nullInt(s.GPURPM),
		s.CPURPMEstimated, s.GPURPMEstimated, nullBool(s.CoolerBoost),
		nullFloat(s.CPUTemp), nullFloat(s.GPUTemp), nullFloat(s.CPUUsage))

	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// RecordControlEvent stores one control operation outcome
func (d *DB) RecordControlEvent(e *ControlEvent) error {
	_, err := d.conn.Exec(`
		INSERT INTO control_events (session_id, event_type, cpu_value, gpu_value, succeeded, verified, details)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.SessionID, e.EventType, nullInt(e.CPUValue), nullInt(e.GPUValue), e.Succeeded, e.Verified, e.Details)

	if err != nil {
		return fmt.Errorf("failed to record control event: %w", err)
	}
	return nil
}

// RecentSnapshots returns the most recent snapshots, newest first
func (d *DB) RecentSnapshots(limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, mode, cpu_percent, gpu_percent, cpu_rpm, gpu_rpm,
			cpu_rpm_estimated, gpu_rpm_estimated, cooler_boost, cpu_temp, gpu_temp, cpu_usage, timestamp
		FROM fan_snapshots
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		var s Snapshot
		var cpuPct, gpuPct, cpuRPM, gpuRPM sql.NullInt64
		var boost sql.NullBool
		var cpuTemp, gpuTemp, cpuUsage sql.NullFloat64

		if err := rows.Scan(&s.ID, &s.Mode, &cpuPct, &gpuPct, &cpuRPM, &gpuRPM,
			&s.CPURPMEstimated, &s.GPURPMEstimated, &boost, &cpuTemp, &gpuTemp, &cpuUsage, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		s.CPUPercent = intPtr(cpuPct)
		s.GPUPercent = intPtr(gpuPct)
		s.CPURPM = intPtr(cpuRPM)
		s.GPURPM = intPtr(gpuRPM)
		s.CoolerBoost = boolPtr(boost)
		s.CPUTemp = floatPtr(cpuTemp)
		s.GPUTemp = floatPtr(gpuTemp)
		s.CPUUsage = floatPtr(cpuUsage)
		snaps = append(snaps, &s)
	}
	return snaps, rows.Err()
}

// RecentEvents returns the most recent control events, newest first
func (d *DB) RecentEvents(limit int) ([]*ControlEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, session_id, event_type, cpu_value, gpu_value, succeeded, verified, details, timestamp
		FROM control_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query control events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// EventsByType returns control events of one type, newest first
func (d *DB) EventsByType(eventType string, limit int) ([]*ControlEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, session_id, event_type, cpu_value, gpu_value, succeeded, verified, details, timestamp
		FROM control_events
		WHERE event_type = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, eventType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query control events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// PruneSnapshots deletes all but the newest keep snapshots
func (d *DB) PruneSnapshots(keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := d.conn.Exec(`
		DELETE FROM fan_snapshots
		WHERE id NOT IN (SELECT id FROM fan_snapshots ORDER BY timestamp DESC, id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]*ControlEvent, error) {
	var events []*ControlEvent
	for rows.Next() {
		var e ControlEvent
		var cpuVal, gpuVal sql.NullInt64
		var details sql.NullString

		if err := rows.Scan(&e.ID, &e.SessionID, &e.EventType, &cpuVal, &gpuVal,
			&e.Succeeded, &e.Verified, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan control event: %w", err)
		}

		e.CPUValue = intPtr(cpuVal)
		e.GPUValue = intPtr(gpuVal)
		e.Details = details.String
		events = append(events, &e)
	}
	return events, rows.Err()
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func boolPtr(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}
