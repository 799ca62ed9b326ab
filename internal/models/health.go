package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Connectivity accepts the agent's boolean or string internet_status.
type Connectivity string

const (
	Connected    Connectivity = "connected"
	Disconnected Connectivity = "disconnected"
)

func (c *Connectivity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", "":
		*c = ""
		return nil
	case "true":
		*c = Connected
		return nil
	case "false":
		*c = Disconnected
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "online", "connected", "up", "true":
		*c = Connected
	case "offline", "disconnected", "down", "false":
		*c = Disconnected
	default:
		*c = Connectivity(s)
	}
	return nil
}

type HealthRecord struct {
	Timestamp      time.Time    `json:"timestamp"`
	CPUUsage       float64      `json:"cpu_usage"`
	MemoryUsage    float64      `json:"memory_usage"`
	DiskUsage      float64      `json:"disk_usage"`
	Temperature    float64      `json:"temperature"`
	WifiSignal     float64      `json:"wifi_signal"`
	InternetStatus Connectivity `json:"internet_status,omitempty"`
}

// DeviceHealth is one entry of the GET /devices/health side-list.
type DeviceHealth struct {
	RpiID        HardwareID    `json:"rpi_id"`
	Name         string        `json:"rpi_name,omitempty"`
	LatestHealth *HealthRecord `json:"latest_health"`
	IsOffline    bool          `json:"is_offline"`
	LastSeen     *time.Time    `json:"last_seen,omitempty"`
}

type HealthOverview struct {
	Devices []DeviceHealth `json:"devices"`
	Stats   HealthStats    `json:"stats"`
}

type HealthStats struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
	Warning int `json:"warning"`
}

type HealthQuery struct {
	Status string
	Limit  int
}

// DeviceDetails is the GET /devices/health/{rpi_id} payload.
type DeviceDetails struct {
	ID       DeviceID     `json:"id"`
	RpiID    HardwareID   `json:"rpi_id"`
	Status   DeviceStatus `json:"status"`
	IsOnline bool         `json:"is_online"`
	Device   struct {
		Name          string     `json:"rpi_name"`
		Location      string     `json:"location"`
		RegisteredAt  *time.Time `json:"registered_at,omitempty"`
		HealthHistory struct {
			Data []HealthRecord `json:"data"`
		} `json:"health_history"`
	} `json:"device"`
	Health struct {
		Current *HealthRecord `json:"current"`
	} `json:"health"`
	Statistics struct {
		AvgCPUUsage      float64 `json:"avg_cpu_usage"`
		AvgMemoryUsage   float64 `json:"avg_memory_usage"`
		UptimePercentage float64 `json:"uptime_percentage"`
	} `json:"statistics"`
	Sync struct {
		LastSync *time.Time `json:"last_sync,omitempty"`
	} `json:"sync"`
}
