package pages

import (
	"context"
	"fmt"

	"fleetdash/internal/api"
	"fleetdash/internal/forms"
	"fleetdash/internal/models"
	"fleetdash/internal/views"
)

// Devices drives the device list: CRUD, status toggles and bulk actions
// over the current selection.
type Devices struct {
	*Env
	Selection *Selection
}

func NewDevices(env *Env, sel *Selection) *Devices {
	if sel == nil {
		sel = NewSelection()
	}
	return &Devices{Env: env, Selection: sel}
}

func (p *Devices) Load(ctx context.Context) error {
	list, err := p.Devices.List(ctx)
	if err != nil {
		return p.failStatic(err, "Failed to fetch devices")
	}
	p.DeviceStore.SetDevices(list)
	return nil
}

// Open fetches one device, refreshes its list entry and makes it the
// selected device.
func (p *Devices) Open(ctx context.Context, id models.DeviceID) (*models.Device, error) {
	r, err := p.Devices.Get(ctx, id)
	if err == nil && r == nil {
		err = api.Local("Device not found")
	}
	if err != nil {
		return nil, p.fail(err, "Failed to fetch device")
	}
	d := r.Device
	if p.DeviceStore.UpdateDevice(id, r.Patch) {
		d, _ = p.DeviceStore.Device(id)
	}
	p.DeviceStore.SetSelected(&d)
	return &d, nil
}

// Rows is the store's list in table order.
func (p *Devices) Rows(st views.SortState) []models.Device {
	return views.SortDevices(p.DeviceStore.Devices(), st)
}

func (p *Devices) Create(ctx context.Context, f forms.DeviceForm) (*models.Device, error) {
	var created *models.Device
	err := f.Submit(ctx, func(ctx context.Context, in models.DeviceInput) error {
		d, err := p.Devices.Create(ctx, in)
		if err != nil {
			return err
		}
		if d != nil {
			p.DeviceStore.AddDevice(*d)
		}
		created = d
		return nil
	})
	if err != nil {
		return nil, p.fail(err, "Failed to create device")
	}
	p.Notify.Success("Device created successfully")
	return created, nil
}

func (p *Devices) Update(ctx context.Context, id models.DeviceID, f forms.DeviceForm) error {
	err := f.Submit(ctx, func(ctx context.Context, in models.DeviceInput) error {
		r, err := p.Devices.Update(ctx, id, in)
		if err != nil {
			return err
		}
		if r != nil {
			p.DeviceStore.UpdateDevice(id, r.Patch)
		}
		return nil
	})
	if err != nil {
		return p.fail(err, "Failed to update device")
	}
	p.Notify.Success("Device updated successfully")
	return nil
}

func (p *Devices) Delete(ctx context.Context, id models.DeviceID) error {
	if !p.confirm("Are you sure you want to delete this device? This action cannot be undone.") {
		return ErrDeclined
	}
	if err := p.Devices.Delete(ctx, id); err != nil {
		return p.fail(err, "Failed to delete device")
	}
	p.DeviceStore.DeleteDevice(id)
	p.Selection.Remove(id)
	p.Notify.Success("Device deleted successfully")
	return nil
}

// ToggleStatus flips active and in_active for one device.
func (p *Devices) ToggleStatus(ctx context.Context, id models.DeviceID) error {
	d, ok := p.DeviceStore.Device(id)
	if !ok {
		return p.failStatic(api.Local("device %s is not loaded", id), "Failed to update device status")
	}
	return p.SetStatus(ctx, id, d.Status.Toggle())
}

func (p *Devices) SetStatus(ctx context.Context, id models.DeviceID, status models.DeviceStatus) error {
	if err := p.Devices.UpdateStatus(ctx, id, status); err != nil {
		return p.failStatic(err, "Failed to update device status")
	}
	p.DeviceStore.UpdateDevice(id, models.StatusPatch(status))
	p.Notify.Success("Device " + verb(status))
	return nil
}

func verb(s models.DeviceStatus) string {
	if s == models.DeviceActive {
		return "activated"
	}
	return "deactivated"
}

func (p *Devices) selected() ([]models.DeviceID, error) {
	ids := p.Selection.IDs()
	if len(ids) == 0 {
		p.Notify.Error("Please select devices first")
		return nil, ErrNoSelection
	}
	return ids, nil
}

// BulkStatus sets status on every selected device and clears the selection.
func (p *Devices) BulkStatus(ctx context.Context, status models.DeviceStatus) error {
	ids, err := p.selected()
	if err != nil {
		return err
	}
	updates := make([]models.StatusUpdate, len(ids))
	for i, id := range ids {
		updates[i] = models.StatusUpdate{ID: id, Status: status}
	}
	if err := p.Devices.BulkUpdate(ctx, updates); err != nil {
		return p.failStatic(err, "Failed to update device status")
	}
	p.DeviceStore.BulkUpdateDevices(ids, models.StatusPatch(status))
	p.Notify.Success(fmt.Sprintf("%d devices %s", len(ids), verb(status)))
	p.Selection.Clear()
	return nil
}

func (p *Devices) BulkDelete(ctx context.Context) error {
	ids, err := p.selected()
	if err != nil {
		return err
	}
	if !p.confirm(fmt.Sprintf("Are you sure you want to delete %d devices? This action cannot be undone.", len(ids))) {
		return ErrDeclined
	}
	if err := p.Devices.BulkDelete(ctx, ids); err != nil {
		return p.failStatic(err, "Failed to delete devices")
	}
	for _, id := range ids {
		p.DeviceStore.DeleteDevice(id)
	}
	p.Notify.Success(fmt.Sprintf("%d devices deleted successfully", len(ids)))
	p.Selection.Clear()
	return nil
}

// BulkOp names a remote command in the bulk operations menu.
type BulkOp string

const (
	OpReboot     BulkOp = "reboot"
	OpUpdateWifi BulkOp = "update_wifi"
	OpSync       BulkOp = "sync"
)

func (op BulkOp) command() (models.Command, bool) {
	switch op {
	case OpReboot:
		return models.CommandReboot, true
	case OpUpdateWifi:
		return models.CommandUpdateWifi, true
	case OpSync:
		return models.CommandSyncVideos, true
	}
	return "", false
}

// BulkCommand sends op to the selected devices, addressed by hardware id.
// On success the selection is cleared and the list reloaded.
func (p *Devices) BulkCommand(ctx context.Context, op BulkOp, wifi *models.WifiCredential) error {
	ids, err := p.selected()
	if err != nil {
		return err
	}
	cmd, ok := op.command()
	if !ok {
		return p.failStatic(api.Local("unknown operation %q", op), fmt.Sprintf("Failed to perform %s operation", op))
	}
	hw := make([]models.HardwareID, 0, len(ids))
	for _, id := range ids {
		if d, ok := p.DeviceStore.Device(id); ok && d.RpiID != "" {
			hw = append(hw, d.RpiID)
		}
	}
	if len(hw) == 0 {
		return p.failStatic(api.Local("no device id for the selection"), "Selected devices are not loaded")
	}
	if skipped := len(ids) - len(hw); skipped > 0 {
		p.log().WithField("skipped", skipped).Warn("bulk command: devices without hardware id")
	}
	req := models.CommandRequest{DeviceIDs: hw, Command: cmd}
	if op == OpUpdateWifi {
		req.Payload = wifi
	}
	if _, err := p.Devices.SendCommand(ctx, req); err != nil {
		return p.failStatic(err, fmt.Sprintf("Failed to perform %s operation", op))
	}
	n := len(hw)
	switch op {
	case OpReboot:
		p.Notify.Success(fmt.Sprintf("Reboot command sent to %d devices", n))
	case OpUpdateWifi:
		p.Notify.Success(fmt.Sprintf("WiFi updated for %d devices", n))
	case OpSync:
		p.Notify.Success(fmt.Sprintf("Sync command sent to %d devices", n))
	}
	p.Selection.Clear()
	if err := p.Load(detach(ctx)); err != nil {
		p.log().WithError(err).Debug("reload after bulk command")
	}
	return nil
}
