package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// DeviceID is the backend database id (`_id`). Store patches and the
// /rpi/{id} CRUD and status endpoints address devices by it.
type DeviceID string

// HardwareID is the stable id the device reports (`rpi_id`). Health,
// wifi lookup and remote commands address devices by it.
type HardwareID string

type DeviceStatus string

const (
	DeviceActive      DeviceStatus = "active"
	DeviceInactive    DeviceStatus = "in_active"
	DeviceWarning     DeviceStatus = "warning"
	DeviceMaintenance DeviceStatus = "maintenance"
)

func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceActive, DeviceInactive, DeviceWarning, DeviceMaintenance:
		return true
	}
	return false
}

// Toggle flips active <-> in_active; any other status activates.
func (s DeviceStatus) Toggle() DeviceStatus {
	if s == DeviceActive {
		return DeviceInactive
	}
	return DeviceActive
}

// Device doubles as the offline snapshot row.
type Device struct {
	ID           DeviceID       `json:"_id" gorm:"column:id;primaryKey;size:64"`
	RpiID        HardwareID     `json:"rpi_id" gorm:"column:rpi_id;index;size:128"`
	Name         string         `json:"rpi_name" gorm:"column:rpi_name"`
	Location     string         `json:"location"`
	VehicleNo    string         `json:"vehicle_no"`
	OwnerName    string         `json:"owner_name"`
	OwnerPhone   string         `json:"owner_phone"`
	WifiSSID     string         `json:"wifi_ssid,omitempty"`
	WifiPassword string         `json:"wifi_password,omitempty"`
	Display      datatypes.JSON `json:"display,omitempty" gorm:"type:json"`
	Status       DeviceStatus   `json:"rpi_status" gorm:"column:rpi_status;size:32"`
	LastSeen     *time.Time     `json:"last_seen,omitempty"`
	CreatedAt    *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time     `json:"updatedAt,omitempty"`
}

func (Device) TableName() string { return "device_snapshots" }

func (d Device) Key() string { return string(d.ID) }

// DeviceInput is the create/update body for /rpi.
type DeviceInput struct {
	RpiID        HardwareID      `json:"rpi_id"`
	Name         string          `json:"rpi_name"`
	Location     string          `json:"location"`
	VehicleNo    string          `json:"vehicle_no"`
	OwnerName    string          `json:"owner_name"`
	OwnerPhone   string          `json:"owner_phone"`
	WifiSSID     string          `json:"wifi_ssid,omitempty"`
	WifiPassword string          `json:"wifi_password,omitempty"`
	Display      json.RawMessage `json:"display,omitempty"`
	Status       DeviceStatus    `json:"rpi_status,omitempty"`
}

// DevicePatch carries the fields to overwrite; nil fields are kept.
// Decoding a server record into it sets exactly the keys the record has.
type DevicePatch struct {
	RpiID        *HardwareID    `json:"rpi_id"`
	Name         *string        `json:"rpi_name"`
	Location     *string        `json:"location"`
	VehicleNo    *string        `json:"vehicle_no"`
	OwnerName    *string        `json:"owner_name"`
	OwnerPhone   *string        `json:"owner_phone"`
	WifiSSID     *string        `json:"wifi_ssid"`
	WifiPassword *string        `json:"wifi_password"`
	Display      datatypes.JSON `json:"display"`
	Status       *DeviceStatus  `json:"rpi_status"`
	LastSeen     *time.Time     `json:"last_seen"`
}

func StatusPatch(s DeviceStatus) DevicePatch { return DevicePatch{Status: &s} }

// DeviceReply is a device record as the server sent it. Patch holds only
// the fields present in the body.
type DeviceReply struct {
	Device
	Patch DevicePatch `json:"-"`
}

func (r *DeviceReply) UnmarshalJSON(data []byte) error {
	if err := decodeReply(data, &r.Device, &r.Patch); err != nil {
		return err
	}
	if isNullJSON(r.Patch.Display) {
		r.Patch.Display = nil
	}
	return nil
}

func (p DevicePatch) Apply(d *Device) {
	if p.RpiID != nil {
		d.RpiID = *p.RpiID
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.VehicleNo != nil {
		d.VehicleNo = *p.VehicleNo
	}
	if p.OwnerName != nil {
		d.OwnerName = *p.OwnerName
	}
	if p.OwnerPhone != nil {
		d.OwnerPhone = *p.OwnerPhone
	}
	if p.WifiSSID != nil {
		d.WifiSSID = *p.WifiSSID
	}
	if p.WifiPassword != nil {
		d.WifiPassword = *p.WifiPassword
	}
	if p.Display != nil {
		d.Display = p.Display
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.LastSeen != nil {
		d.LastSeen = p.LastSeen
	}
}

type DeviceStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Warning  int `json:"warning"`
	Offline  int `json:"offline"`
}

type WifiDetails struct {
	RpiID        HardwareID `json:"rpi_id"`
	WifiSSID     string     `json:"wifi_ssid"`
	WifiPassword string     `json:"wifi_password"`
}

// StatusUpdate is one entry of a POST /rpi/bulk body.
type StatusUpdate struct {
	ID     DeviceID     `json:"id"`
	Status DeviceStatus `json:"rpi_status"`
}

type Command string

const (
	CommandReboot     Command = "sudo reboot"
	CommandUpdateWifi Command = "update_wifi"
	CommandSyncVideos Command = "sync_videos"
)

type CommandRequest struct {
	DeviceIDs []HardwareID    `json:"device_ids"`
	Command   Command         `json:"command"`
	Payload   *WifiCredential `json:"payload,omitempty"`
}

type WifiCredential struct {
	SSID     string `json:"wifi_ssid"`
	Password string `json:"wifi_password"`
}
