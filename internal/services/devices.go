package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"fleetdash/internal/api"
	"fleetdash/internal/models"

	"github.com/pkg/errors"
)

type DeviceService struct {
	c *api.Client
}

func NewDeviceService(c *api.Client) *DeviceService { return &DeviceService{c: c} }

// ── Device management ──

func (s *DeviceService) List(ctx context.Context) ([]models.Device, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/rpi", nil, &raw); err != nil {
		return nil, err
	}
	var out []models.Device
	if err := decodeList("/rpi", raw, &out, "rpis", "devices"); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the record with a patch of just the fields the server sent.
func (s *DeviceService) Get(ctx context.Context, id models.DeviceID) (*models.DeviceReply, error) {
	path := "/rpi/" + seg(string(id))
	var raw json.RawMessage
	if err := s.c.Get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	return s.reply(path, raw)
}

// Create returns the stored record, or nil when the backend only acked.
func (s *DeviceService) Create(ctx context.Context, in models.DeviceInput) (*models.Device, error) {
	var raw json.RawMessage
	if err := s.c.Post(ctx, "/rpi", in, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Failed to add device"); err != nil {
		return nil, err
	}
	return s.one("/rpi", raw)
}

func (s *DeviceService) Update(ctx context.Context, id models.DeviceID, in models.DeviceInput) (*models.DeviceReply, error) {
	path := "/rpi/" + seg(string(id))
	var raw json.RawMessage
	if err := s.c.Put(ctx, path, in, &raw); err != nil {
		return nil, err
	}
	if err := ackOf(raw).err("Failed to update device"); err != nil {
		return nil, err
	}
	return s.reply(path, raw)
}

func (s *DeviceService) Delete(ctx context.Context, id models.DeviceID) error {
	var raw json.RawMessage
	if err := s.c.Delete(ctx, "/rpi/"+seg(string(id)), nil, &raw); err != nil {
		return err
	}
	return ackOf(raw).err("Failed to delete device")
}

func (s *DeviceService) UpdateStatus(ctx context.Context, id models.DeviceID, status models.DeviceStatus) error {
	if !status.Valid() {
		return api.Local("unknown device status %q", status)
	}
	var raw json.RawMessage
	body := map[string]models.DeviceStatus{"rpi_status": status}
	if err := s.c.Put(ctx, "/rpi/status/"+seg(string(id)), body, &raw); err != nil {
		return err
	}
	return ackOf(raw).err("Failed to update device status")
}

func (s *DeviceService) WifiDetails(ctx context.Context, rpiID models.HardwareID) (*models.WifiDetails, error) {
	path := "/rpi/get-wifi/" + seg(string(rpiID))
	var raw json.RawMessage
	if err := s.c.Get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	var w models.WifiDetails
	found, err := decodeOne(path, raw, &w, "data", "wifi", "rpi")
	if err != nil {
		return nil, err
	}
	if !found {
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, wrapDecode(path, err)
		}
	}
	if w.RpiID == "" {
		w.RpiID = rpiID
	}
	return &w, nil
}

var deviceKeys = []string{"rpis", "rpi", "device"}

func (s *DeviceService) one(path string, raw json.RawMessage) (*models.Device, error) {
	return record[models.Device](path, raw, deviceKeys...)
}

func (s *DeviceService) reply(path string, raw json.RawMessage) (*models.DeviceReply, error) {
	return record[models.DeviceReply](path, raw, deviceKeys...)
}

// ── Health ──

// Health fetches the details view of one device by hardware id.
func (s *DeviceService) Health(ctx context.Context, rpiID models.HardwareID) (*models.DeviceDetails, error) {
	path := "/devices/health/" + seg(string(rpiID))
	var raw json.RawMessage
	if err := s.c.Get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	var d models.DeviceDetails
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, wrapDecode(path, err)
	}
	body := raw
	if v, ok := env["device"]; ok && !isNull(v) {
		if _, nested := env["rpi_id"]; !nested {
			body = v
		}
	}
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, wrapDecode(path, err)
	}
	return &d, nil
}

func (s *DeviceService) HealthAll(ctx context.Context, q models.HealthQuery) (*models.HealthOverview, error) {
	params := url.Values{}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	var out models.HealthOverview
	if err := s.c.Get(ctx, "/devices/health", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Bulk operations ──

func (s *DeviceService) BulkUpdate(ctx context.Context, updates []models.StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	body := struct {
		Updates []models.StatusUpdate `json:"updates"`
	}{updates}
	var raw json.RawMessage
	if err := s.c.Post(ctx, "/rpi/bulk", body, &raw); err != nil {
		return err
	}
	return ackOf(raw).err("Failed to update devices")
}

func (s *DeviceService) BulkDelete(ctx context.Context, ids []models.DeviceID) error {
	if len(ids) == 0 {
		return nil
	}
	body := struct {
		IDs []models.DeviceID `json:"ids"`
	}{ids}
	var raw json.RawMessage
	if err := s.c.Do(ctx, api.Request{Method: http.MethodDelete, Path: "/rpi/bulk", JSON: body}, &raw); err != nil {
		return err
	}
	return ackOf(raw).err("Failed to delete devices")
}

// SendCommand dispatches a remote command to devices addressed by hardware id.
func (s *DeviceService) SendCommand(ctx context.Context, req models.CommandRequest) (Ack, error) {
	if len(req.DeviceIDs) == 0 {
		return Ack{}, api.Local("no devices selected")
	}
	if req.Command == models.CommandUpdateWifi && (req.Payload == nil || req.Payload.SSID == "") {
		return Ack{}, api.Local("wifi_ssid is required for %s", req.Command)
	}
	var a Ack
	if err := s.c.Post(ctx, "/devices/command", req, &a); err != nil {
		return Ack{}, errors.Wrapf(err, "command %q", req.Command)
	}
	return a, a.err("Failed to send command")
}

// ── Statistics ──

func (s *DeviceService) Stats(ctx context.Context) (*models.DeviceStats, error) {
	var raw json.RawMessage
	if err := s.c.Get(ctx, "/rpi/stats", nil, &raw); err != nil {
		return nil, err
	}
	var st models.DeviceStats
	var env struct {
		Data *models.DeviceStats `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, wrapDecode("/rpi/stats", err)
	}
	if env.Data != nil {
		return env.Data, nil
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, wrapDecode("/rpi/stats", err)
	}
	return &st, nil
}
