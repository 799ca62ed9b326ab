// Package views derives display figures from store contents. Everything
// here is a pure function of its inputs.
package views

import (
	"sort"
	"strings"
	"time"

	"fleetdash/internal/models"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Sortable device columns.
const (
	ByName      = "rpi_name"
	ByRpiID     = "rpi_id"
	ByLocation  = "location"
	ByVehicle   = "vehicle_no"
	ByOwner     = "owner_name"
	ByStatus    = "rpi_status"
	ByLastSeen  = "last_seen"
	ByCreatedAt = "createdAt"
	ByUpdatedAt = "updatedAt"
)

// SortState is the device table's current column and direction.
type SortState struct {
	Key string
	Dir SortDir
}

// DefaultDeviceSort puts the most recently seen devices first.
func DefaultDeviceSort() SortState { return SortState{Key: ByLastSeen, Dir: Desc} }

// Click returns the state after a header click: the same column flips
// direction, a new column starts ascending.
func (s SortState) Click(key string) SortState {
	if s.Key == key {
		if s.Dir == Asc {
			return SortState{Key: key, Dir: Desc}
		}
		return SortState{Key: key, Dir: Asc}
	}
	return SortState{Key: key, Dir: Asc}
}

// statusRank orders statuses for sorting; unknown values sort last.
func statusRank(s models.DeviceStatus) int {
	switch s {
	case models.DeviceActive:
		return 1
	case models.DeviceWarning:
		return 2
	case models.DeviceMaintenance:
		return 3
	case models.DeviceInactive:
		return 4
	}
	return 5
}

func ParseDir(s string) SortDir {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

// SortDevices returns a sorted copy. Equal keys keep their input order.
func SortDevices(list []models.Device, st SortState) []models.Device {
	out := make([]models.Device, len(list))
	copy(out, list)
	cmp := deviceCmp(st.Key)
	if cmp == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if st.Dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func deviceCmp(key string) func(a, b models.Device) int {
	str := func(f func(models.Device) string) func(a, b models.Device) int {
		return func(a, b models.Device) int { return strings.Compare(f(a), f(b)) }
	}
	date := func(f func(models.Device) *time.Time) func(a, b models.Device) int {
		return func(a, b models.Device) int { return tv(f(a)).Compare(tv(f(b))) }
	}
	switch key {
	case ByName:
		return str(func(d models.Device) string { return d.Name })
	case ByRpiID:
		return str(func(d models.Device) string { return string(d.RpiID) })
	case ByLocation:
		return str(func(d models.Device) string { return d.Location })
	case ByVehicle:
		return str(func(d models.Device) string { return d.VehicleNo })
	case ByOwner:
		return str(func(d models.Device) string { return d.OwnerName })
	case ByStatus:
		return func(a, b models.Device) int { return statusRank(a.Status) - statusRank(b.Status) }
	case ByLastSeen:
		return date(func(d models.Device) *time.Time { return d.LastSeen })
	case ByCreatedAt:
		return date(func(d models.Device) *time.Time { return d.CreatedAt })
	case ByUpdatedAt:
		return date(func(d models.Device) *time.Time { return d.UpdatedAt })
	}
	return nil
}

func tv(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
