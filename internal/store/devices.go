package store

import (
	"sync"

	"fleetdash/internal/models"
)

type DeviceStore struct {
	devices *Collection[models.Device]

	mu       sync.RWMutex
	stats    models.DeviceStats
	selected *models.Device
}

func NewDeviceStore() *DeviceStore {
	return &DeviceStore{devices: NewCollection[models.Device]()}
}

func (s *DeviceStore) SetDevices(list []models.Device) { s.devices.Load(list) }

func (s *DeviceStore) Devices() []models.Device { return s.devices.All() }

func (s *DeviceStore) Device(id models.DeviceID) (models.Device, bool) {
	return s.devices.Get(string(id))
}

// AddDevice appends a server-confirmed device.
func (s *DeviceStore) AddDevice(d models.Device) { s.devices.ApplyCreate(d, false) }

func (s *DeviceStore) UpdateDevice(id models.DeviceID, p models.DevicePatch) bool {
	ok := s.devices.ApplyUpdate(string(id), p.Apply)
	if ok {
		s.mu.Lock()
		if s.selected != nil && s.selected.ID == id {
			p.Apply(s.selected)
		}
		s.mu.Unlock()
	}
	return ok
}

func (s *DeviceStore) DeleteDevice(id models.DeviceID) bool {
	ok := s.devices.ApplyDelete(string(id))
	if ok {
		s.mu.Lock()
		if s.selected != nil && s.selected.ID == id {
			s.selected = nil
		}
		s.mu.Unlock()
	}
	return ok
}

// BulkUpdateDevices applies the same patch to every listed id.
func (s *DeviceStore) BulkUpdateDevices(ids []models.DeviceID, p models.DevicePatch) int {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}
	return s.devices.ApplyUpdateMany(keys, p.Apply)
}

func (s *DeviceStore) SetStats(st models.DeviceStats) {
	s.mu.Lock()
	s.stats = st
	s.mu.Unlock()
}

func (s *DeviceStore) Stats() models.DeviceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// SetSelected stores a copy of d; nil clears the selection.
func (s *DeviceStore) SetSelected(d *models.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d == nil {
		s.selected = nil
		return
	}
	cp := *d
	s.selected = &cp
}

func (s *DeviceStore) Selected() (models.Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return models.Device{}, false
	}
	return *s.selected, true
}
