package forms

import (
	"context"
	"encoding/json"
	"strings"

	"fleetdash/internal/models"
)

// DeviceForm is the create/edit device dialog.
type DeviceForm struct {
	RpiID        string
	Name         string
	VehicleNo    string
	Location     string
	OwnerName    string
	OwnerPhone   string
	WifiSSID     string
	WifiPassword string
	Display      string // JSON text, optional
	Status       models.DeviceStatus
}

var DeviceRules = []Rule{
	{Field: "rpi_id", Required: "Device ID is required"},
	{Field: "rpi_name", Required: "Device name is required"},
	{Field: "vehicle_no", Required: "Vehicle number is required"},
	{Field: "location", Required: "Location is required"},
	{Field: "owner_name", Required: "Owner name is required"},
	{Field: "owner_phone", Required: "Owner phone is required"},
	{Field: "display", Check: func(get Getter) string {
		if !json.Valid([]byte(strings.TrimSpace(get("display")))) {
			return "Display configuration must be valid JSON"
		}
		return ""
	}},
	{Field: "rpi_status", Check: func(get Getter) string {
		if !models.DeviceStatus(get("rpi_status")).Valid() {
			return "Unknown device status"
		}
		return ""
	}},
}

// DeviceFormFrom pre-fills the edit dialog.
func DeviceFormFrom(d models.Device) DeviceForm {
	return DeviceForm{
		RpiID:        string(d.RpiID),
		Name:         d.Name,
		VehicleNo:    d.VehicleNo,
		Location:     d.Location,
		OwnerName:    d.OwnerName,
		OwnerPhone:   d.OwnerPhone,
		WifiSSID:     d.WifiSSID,
		WifiPassword: d.WifiPassword,
		Display:      string(d.Display),
		Status:       d.Status,
	}
}

func (f DeviceForm) get(field string) string {
	return fieldMap(map[string]string{
		"rpi_id":        f.RpiID,
		"rpi_name":      f.Name,
		"vehicle_no":    f.VehicleNo,
		"location":      f.Location,
		"owner_name":    f.OwnerName,
		"owner_phone":   f.OwnerPhone,
		"wifi_ssid":     f.WifiSSID,
		"wifi_password": f.WifiPassword,
		"display":       f.Display,
		"rpi_status":    string(f.Status),
	})(field)
}

func (f DeviceForm) Validate() Errors { return validate(DeviceRules, f.get) }

func (f DeviceForm) Input() models.DeviceInput {
	in := models.DeviceInput{
		RpiID:        models.HardwareID(strings.TrimSpace(f.RpiID)),
		Name:         strings.TrimSpace(f.Name),
		Location:     strings.TrimSpace(f.Location),
		VehicleNo:    strings.TrimSpace(f.VehicleNo),
		OwnerName:    strings.TrimSpace(f.OwnerName),
		OwnerPhone:   strings.TrimSpace(f.OwnerPhone),
		WifiSSID:     f.WifiSSID,
		WifiPassword: f.WifiPassword,
		Status:       f.Status,
	}
	if d := strings.TrimSpace(f.Display); d != "" {
		in.Display = json.RawMessage(d)
	}
	return in
}

func (f DeviceForm) Submit(ctx context.Context, onSubmit func(context.Context, models.DeviceInput) error) error {
	return submit(ctx, f.Validate(), func() (models.DeviceInput, error) { return f.Input(), nil }, onSubmit)
}
