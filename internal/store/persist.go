package store

import (
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Persister keeps small named blobs across restarts.
type Persister interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, data []byte) error
	Remove(key string) error
}

// ─────────────────────────── in-memory ───────────────────────────

type MemPersister struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemPersister() *MemPersister {
	return &MemPersister{data: make(map[string][]byte)}
}

func (m *MemPersister) Load(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (m *MemPersister) Save(key string, data []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

func (m *MemPersister) Remove(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// ─────────────────────────── file ───────────────────────────

// FilePersister stores each key as <dir>/<key>.json, written atomically.
type FilePersister struct {
	dir string
	mu  sync.Mutex
}

func NewFilePersister(dir string) *FilePersister { return &FilePersister{dir: dir} }

var safeKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func (f *FilePersister) path(key string) (string, error) {
	if !safeKey.MatchString(key) {
		return "", errors.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *FilePersister) Load(key string) ([]byte, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "read %s", p)
	}
	return b, true, nil
}

func (f *FilePersister) Save(key string, data []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return errors.Wrapf(err, "create %s", f.dir)
	}
	tmp, err := os.CreateTemp(f.dir, "."+key+"-*")
	if err != nil {
		return errors.Wrap(err, "temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return errors.Wrapf(os.Rename(tmp.Name(), p), "persist %s", key)
}

func (f *FilePersister) Remove(key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "remove %s", p)
	}
	return nil
}

// ─────────────────────────── database ───────────────────────────

// StoredValue is one persisted blob.
type StoredValue struct {
	Key       string         `gorm:"column:storage_key;primaryKey;size:191"`
	Value     datatypes.JSON `gorm:"type:json"`
	UpdatedAt time.Time
}

func (StoredValue) TableName() string { return "client_storage" }

type DBPersister struct {
	db *gorm.DB
}

func NewDBPersister(db *gorm.DB) *DBPersister { return &DBPersister{db: db} }

func (d *DBPersister) Load(key string) ([]byte, bool, error) {
	var v StoredValue
	err := d.db.Where("storage_key = ?", key).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load %s", key)
	}
	return []byte(v.Value), true, nil
}

func (d *DBPersister) Save(key string, data []byte) error {
	v := StoredValue{Key: key, Value: datatypes.JSON(data), UpdatedAt: time.Now()}
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&v).Error
	return errors.Wrapf(err, "save %s", key)
}

func (d *DBPersister) Remove(key string) error {
	err := d.db.Where("storage_key = ?", key).Delete(&StoredValue{}).Error
	return errors.Wrapf(err, "remove %s", key)
}
