package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"fleetdash/internal/forms"
	"fleetdash/internal/logs"
	"fleetdash/internal/models"
	"fleetdash/internal/pages"
	"fleetdash/internal/views"

	"github.com/gorilla/mux"
)

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return badRequestf("invalid JSON body: %v", err)
	}
	return nil
}

// ── list & dashboard ──

type deviceList struct {
	Devices []models.Device `json:"devices"`
	Sort    string          `json:"sort"`
	Dir     views.SortDir   `json:"dir"`
	// Stale is set when the fleet API was unreachable and the list comes
	// from the last snapshot.
	Stale bool `json:"stale,omitempty"`
}

func (a *App) listDevices(r *http.Request, env *pages.Env) (any, error) {
	q := r.URL.Query()
	st := views.DefaultDeviceSort()
	if k := q.Get("sort"); k != "" {
		st = views.SortState{Key: k, Dir: views.ParseDir(q.Get("dir"))}
	}
	p := pages.NewDevices(env, nil)
	out := deviceList{Sort: st.Key, Dir: st.Dir}

	if err := p.Load(r.Context()); err != nil {
		if a.snap == nil {
			return nil, err
		}
		n, serr := a.snap.Into(env.DeviceStore)
		if serr != nil || n == 0 {
			return nil, err
		}
		out.Stale = true
		out.Devices = p.Rows(st)
		return out, nil
	}
	if a.snap != nil {
		if err := a.snap.SaveDevices(env.DeviceStore.Devices()); err != nil {
			logs.Component("server").WithError(err).Warn("device snapshot")
		}
	}
	out.Devices = p.Rows(st)
	return out, nil
}

func (a *App) dashboard(r *http.Request, env *pages.Env) (any, error) {
	return pages.NewDashboard(env).Load(r.Context())
}

// ── single device ──

type deviceBody struct {
	RpiID        string              `json:"rpi_id"`
	Name         string              `json:"rpi_name"`
	VehicleNo    string              `json:"vehicle_no"`
	Location     string              `json:"location"`
	OwnerName    string              `json:"owner_name"`
	OwnerPhone   string              `json:"owner_phone"`
	WifiSSID     string              `json:"wifi_ssid"`
	WifiPassword string              `json:"wifi_password"`
	Display      json.RawMessage     `json:"display"`
	Status       models.DeviceStatus `json:"rpi_status"`
}

func (b deviceBody) form() forms.DeviceForm {
	f := forms.DeviceForm{
		RpiID:        b.RpiID,
		Name:         b.Name,
		VehicleNo:    b.VehicleNo,
		Location:     b.Location,
		OwnerName:    b.OwnerName,
		OwnerPhone:   b.OwnerPhone,
		WifiSSID:     b.WifiSSID,
		WifiPassword: b.WifiPassword,
		Status:       b.Status,
	}
	if f.Status == "" {
		f.Status = models.DeviceActive
	}
	// display may arrive as an object or as JSON text
	if raw := strings.TrimSpace(string(b.Display)); raw != "" && raw != "null" {
		var s string
		if json.Unmarshal(b.Display, &s) == nil {
			f.Display = s
		} else {
			f.Display = raw
		}
	}
	return f
}

func (a *App) createDevice(r *http.Request, env *pages.Env) (any, error) {
	var b deviceBody
	if err := decodeJSON(r, &b); err != nil {
		return nil, err
	}
	return pages.NewDevices(env, nil).Create(r.Context(), b.form())
}

func (a *App) openDevice(r *http.Request, env *pages.Env) (any, error) {
	return pages.NewDevices(env, nil).Open(r.Context(), models.DeviceID(mux.Vars(r)["id"]))
}

func (a *App) updateDevice(r *http.Request, env *pages.Env) (any, error) {
	id := models.DeviceID(mux.Vars(r)["id"])
	var b deviceBody
	if err := decodeJSON(r, &b); err != nil {
		return nil, err
	}
	if err := pages.NewDevices(env, nil).Update(r.Context(), id, b.form()); err != nil {
		return nil, err
	}
	d, _ := env.DeviceStore.Device(id)
	return d, nil
}

func (a *App) deleteDevice(r *http.Request, env *pages.Env) (any, error) {
	id := models.DeviceID(mux.Vars(r)["id"])
	return map[string]models.DeviceID{"deleted": id}, pages.NewDevices(env, nil).Delete(r.Context(), id)
}

func (a *App) toggleDevice(r *http.Request, env *pages.Env) (any, error) {
	id := models.DeviceID(mux.Vars(r)["id"])
	if err := pages.NewDevices(env, nil).ToggleStatus(r.Context(), id); err != nil {
		return nil, err
	}
	d, _ := env.DeviceStore.Device(id)
	return d, nil
}

func (a *App) setDeviceStatus(r *http.Request, env *pages.Env) (any, error) {
	id := models.DeviceID(mux.Vars(r)["id"])
	var b struct {
		Status models.DeviceStatus `json:"rpi_status"`
	}
	if err := decodeJSON(r, &b); err != nil {
		return nil, err
	}
	if !b.Status.Valid() {
		return nil, badRequestf("unknown status %q", b.Status)
	}
	if err := pages.NewDevices(env, nil).SetStatus(r.Context(), id, b.Status); err != nil {
		return nil, err
	}
	d, _ := env.DeviceStore.Device(id)
	return d, nil
}

// ── bulk ──

type bulkBody struct {
	IDs    []models.DeviceID      `json:"ids"`
	Status models.DeviceStatus    `json:"rpi_status"`
	Op     pages.BulkOp           `json:"op"`
	Wifi   *models.WifiCredential `json:"wifi"`
}

// bulk reads the body and returns a controller with those ids selected. Bulk actions never share a selection between requests.
func bulk(r *http.Request, env *pages.Env) (*pages.Devices, bulkBody, error) {
	var b bulkBody
	if err := decodeJSON(r, &b); err != nil {
		return nil, b, err
	}
	return pages.NewDevices(env, pages.NewSelection(b.IDs...)), b, nil
}

type bulkResult struct {
	Count int `json:"count"`
}

func (a *App) bulkStatus(r *http.Request, env *pages.Env) (any, error) {
	p, b, err := bulk(r, env)
	if err != nil {
		return nil, err
	}
	if !b.Status.Valid() {
		return nil, badRequestf("unknown status %q", b.Status)
	}
	return bulkResult{Count: len(b.IDs)}, p.BulkStatus(r.Context(), b.Status)
}

func (a *App) bulkDelete(r *http.Request, env *pages.Env) (any, error) {
	p, b, err := bulk(r, env)
	if err != nil {
		return nil, err
	}
	return bulkResult{Count: len(b.IDs)}, p.BulkDelete(r.Context())
}

func (a *App) bulkCommand(r *http.Request, env *pages.Env) (any, error) {
	p, b, err := bulk(r, env)
	if err != nil {
		return nil, err
	}
	if b.Op == pages.OpUpdateWifi && (b.Wifi == nil || b.Wifi.SSID == "") {
		return nil, forms.Errors{"wifi_ssid": "WiFi SSID is required"}
	}
	return bulkResult{Count: len(b.IDs)}, p.BulkCommand(r.Context(), b.Op, b.Wifi)
}

// ── health ──

func (a *App) healthOverview(r *http.Request, env *pages.Env) (any, error) {
	q := models.HealthQuery{Status: r.URL.Query().Get("status")}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, badRequestf("invalid limit %q", s)
		}
		q.Limit = n
	}
	return pages.NewHealth(env).Load(r.Context(), q)
}

// details loads the device addressed by its hardware id.
func details(r *http.Request, env *pages.Env) (*pages.DeviceDetails, error) {
	p := pages.NewDeviceDetails(env)
	if _, err := p.Load(r.Context(), models.HardwareID(mux.Vars(r)["rpiID"])); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *App) deviceDetails(r *http.Request, env *pages.Env) (any, error) {
	p, err := details(r, env)
	if err != nil {
		return nil, err
	}
	return p.View(), nil
}

func (a *App) deviceWifi(r *http.Request, env *pages.Env) (any, error) {
	p, err := details(r, env)
	if err != nil {
		return nil, err
	}
	return p.WifiDetails(r.Context())
}

func (a *App) deviceReboot(r *http.Request, env *pages.Env) (any, error) {
	p, err := details(r, env)
	if err != nil {
		return nil, err
	}
	return p.View(), p.Reboot(r.Context())
}

func (a *App) deviceSync(r *http.Request, env *pages.Env) (any, error) {
	p, err := details(r, env)
	if err != nil {
		return nil, err
	}
	return p.View(), p.Sync(r.Context())
}

func (a *App) deviceDetailsToggle(r *http.Request, env *pages.Env) (any, error) {
	p, err := details(r, env)
	if err != nil {
		return nil, err
	}
	if err := p.ToggleStatus(r.Context()); err != nil {
		return nil, err
	}
	return p.View(), nil
}
