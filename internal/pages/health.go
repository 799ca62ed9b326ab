package pages

import (
	"context"

	"golang.org/x/sync/errgroup"

	"fleetdash/internal/models"
	"fleetdash/internal/views"
)

// ── Device details ──

const historyPoints = 10

type DeviceDetails struct {
	*Env
	Details *models.DeviceDetails
}

func NewDeviceDetails(env *Env) *DeviceDetails { return &DeviceDetails{Env: env} }

// DetailsView is what the details page renders.
type DetailsView struct {
	Details  *models.DeviceDetails `json:"details"`
	History  []models.HealthRecord `json:"history"`
	LastSeen views.SeenBucket      `json:"last_seen"`
}

func (p *DeviceDetails) Load(ctx context.Context, rpiID models.HardwareID) (*DetailsView, error) {
	d, err := p.Devices.Health(ctx, rpiID)
	if err != nil {
		return nil, p.failStatic(err, "Failed to fetch device details")
	}
	p.Details = d
	return p.View(), nil
}

func (p *DeviceDetails) View() *DetailsView {
	if p.Details == nil {
		return nil
	}
	d := p.Details
	v := &DetailsView{Details: d, History: views.RecentHistory(d.Device.HealthHistory.Data, historyPoints)}
	if cur := d.Health.Current; cur != nil && !cur.Timestamp.IsZero() {
		ts := cur.Timestamp
		v.LastSeen = views.LastSeenBucket(&ts, p.now())
	} else {
		v.LastSeen = views.LastSeenBucket(nil, p.now())
	}
	return v
}

func (p *DeviceDetails) command(ctx context.Context, cmd models.Command, ok, failed string) error {
	if p.Details == nil {
		return nil
	}
	req := models.CommandRequest{DeviceIDs: []models.HardwareID{p.Details.RpiID}, Command: cmd}
	if _, err := p.Devices.SendCommand(ctx, req); err != nil {
		return p.failStatic(err, failed)
	}
	p.Notify.Success(ok)
	return nil
}

func (p *DeviceDetails) Reboot(ctx context.Context) error {
	if p.Details == nil {
		return nil
	}
	if !p.confirm("Are you sure you want to reboot this device?") {
		return ErrDeclined
	}
	return p.command(ctx, models.CommandReboot, "Reboot command sent to device", "Failed to send reboot command")
}

func (p *DeviceDetails) Sync(ctx context.Context) error {
	return p.command(ctx, models.CommandSyncVideos, "Sync command sent to device", "Failed to send sync command")
}

// ToggleStatus flips the device by its database id and mirrors the result
// into the details and the device store.
func (p *DeviceDetails) ToggleStatus(ctx context.Context) error {
	if p.Details == nil {
		return nil
	}
	next := p.Details.Status.Toggle()
	if err := p.Devices.UpdateStatus(ctx, p.Details.ID, next); err != nil {
		return p.failStatic(err, "Failed to update device status")
	}
	p.Details.Status = next
	p.Details.IsOnline = next == models.DeviceActive
	p.DeviceStore.UpdateDevice(p.Details.ID, models.StatusPatch(next))
	p.Notify.Success("Device " + verb(next))
	return nil
}

// WifiDetails reveals the stored credentials of the loaded device.
func (p *DeviceDetails) WifiDetails(ctx context.Context) (*models.WifiDetails, error) {
	if p.Details == nil {
		return nil, nil
	}
	w, err := p.Devices.WifiDetails(ctx, p.Details.RpiID)
	if err != nil {
		return nil, p.fail(err, "Failed to fetch WiFi details")
	}
	return w, nil
}

// ── Health overview ──

type Health struct {
	*Env
	Overview *models.HealthOverview
}

func NewHealth(env *Env) *Health { return &Health{Env: env} }

type HealthView struct {
	Rows   []views.HealthRow  `json:"rows"`
	Counts views.HealthCounts `json:"counts"`
	Stats  models.HealthStats `json:"stats"`
}

// Load fetches the device list and the health side-list in parallel. Both
// are reported separately; the view is built from whatever arrived.
func (p *Health) Load(ctx context.Context, q models.HealthQuery) (*HealthView, error) {
	var (
		list          []models.Device
		ov            *models.HealthOverview
		listErr, hErr error
	)
	// neither source cancels the other
	var g errgroup.Group
	g.Go(func() error { list, listErr = p.Devices.List(ctx); return nil })
	g.Go(func() error { ov, hErr = p.Devices.HealthAll(ctx, q); return nil })
	_ = g.Wait()

	var firstErr error
	if listErr != nil {
		firstErr = p.failStatic(listErr, "Failed to fetch devices")
	} else {
		p.DeviceStore.SetDevices(list)
	}
	if hErr != nil {
		if firstErr == nil {
			firstErr = hErr
		}
		p.failStatic(hErr, "Failed to fetch health data")
	} else {
		p.Overview = ov
	}
	return p.View(), firstErr
}

func (p *Health) View() *HealthView {
	rows := views.JoinHealth(p.DeviceStore.Devices(), p.Overview)
	v := &HealthView{Rows: rows, Counts: views.HealthSummary(rows)}
	if p.Overview != nil {
		v.Stats = p.Overview.Stats
	}
	return v
}
