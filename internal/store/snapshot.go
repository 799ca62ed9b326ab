package store

import (
	"fleetdash/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Snapshotter keeps the last fetched device list in the database so the
// CLI can show it when the backend is unreachable.
type Snapshotter struct {
	db *gorm.DB
}

func NewSnapshotter(db *gorm.DB) *Snapshotter { return &Snapshotter{db: db} }

// SaveDevices replaces the snapshot with list.
func (s *Snapshotter) SaveDevices(list []models.Device) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Device{}).Error; err != nil {
			return errors.Wrap(err, "clear device snapshot")
		}
		if len(list) == 0 {
			return nil
		}
		rows := make([]models.Device, 0, len(list))
		for _, d := range list {
			if d.ID == "" {
				continue
			}
			rows = append(rows, d)
		}
		if len(rows) == 0 {
			return nil
		}
		return errors.Wrap(tx.CreateInBatches(rows, 100).Error, "write device snapshot")
	})
}

func (s *Snapshotter) LoadDevices() ([]models.Device, error) {
	var out []models.Device
	if err := s.db.Order("rpi_name asc").Find(&out).Error; err != nil {
		return nil, errors.Wrap(err, "read device snapshot")
	}
	return out, nil
}

// Into loads the snapshot into a device store and returns how many rows
// were restored.
func (s *Snapshotter) Into(ds *DeviceStore) (int, error) {
	list, err := s.LoadDevices()
	if err != nil {
		return 0, err
	}
	ds.SetDevices(list)
	return len(list), nil
}
