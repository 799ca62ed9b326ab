package views

import "fleetdash/internal/models"

type HealthClass string

const (
	Healthy  HealthClass = "healthy"
	Warning  HealthClass = "warning"
	Critical HealthClass = "critical"
	Offline  HealthClass = "offline"
	Unknown  HealthClass = "unknown"
)

const (
	criticalUsage = 90.0
	warningUsage  = 70.0
)

// ClassifyHealth grades the latest sample of one device. h may be nil when
// the device is missing from the health list.
func ClassifyHealth(h *models.DeviceHealth) HealthClass {
	if h == nil {
		return Unknown
	}
	s := h.LatestHealth
	if s == nil {
		if h.IsOffline {
			return Offline
		}
		return Unknown
	}
	switch {
	case s.CPUUsage > criticalUsage || s.MemoryUsage > criticalUsage:
		return Critical
	case s.CPUUsage > warningUsage || s.MemoryUsage > warningUsage:
		return Warning
	}
	return Healthy
}

type HealthRow struct {
	Device models.Device        `json:"device"`
	Health *models.DeviceHealth `json:"health,omitempty"`
	Class  HealthClass          `json:"class"`
}

// JoinHealth pairs each device with its health entry by hardware id.
func JoinHealth(devices []models.Device, ov *models.HealthOverview) []HealthRow {
	byID := map[models.HardwareID]*models.DeviceHealth{}
	if ov != nil {
		for i := range ov.Devices {
			byID[ov.Devices[i].RpiID] = &ov.Devices[i]
		}
	}
	rows := make([]HealthRow, 0, len(devices))
	for _, d := range devices {
		h := byID[d.RpiID]
		rows = append(rows, HealthRow{Device: d, Health: h, Class: ClassifyHealth(h)})
	}
	return rows
}

type HealthCounts struct {
	Healthy  int `json:"healthy"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	Offline  int `json:"offline"`
	Unknown  int `json:"unknown"`
}

func HealthSummary(rows []HealthRow) HealthCounts {
	var c HealthCounts
	for _, r := range rows {
		switch r.Class {
		case Healthy:
			c.Healthy++
		case Warning:
			c.Warning++
		case Critical:
			c.Critical++
		case Offline:
			c.Offline++
		default:
			c.Unknown++
		}
	}
	return c
}

// RecentHistory takes the n newest records of a newest-first history and
// returns them oldest first, ready for charting.
func RecentHistory(history []models.HealthRecord, n int) []models.HealthRecord {
	if n <= 0 || n > len(history) {
		n = len(history)
	}
	out := make([]models.HealthRecord, n)
	for i := 0; i < n; i++ {
		out[i] = history[n-1-i]
	}
	return out
}
