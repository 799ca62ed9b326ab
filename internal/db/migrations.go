package db

import (
	"fmt"

	"gorm.io/gorm"
)

// MigrateSnapshotIndexes adds the status index the offline device list
// filters on. AutoMigrate does not know about it.
func MigrateSnapshotIndexes(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	const table, index = "device_snapshots", "idx_device_snapshots_status"
	if !db.Migrator().HasTable(table) || db.Migrator().HasIndex(table, index) {
		return nil
	}

	switch dialect := db.Dialector.Name(); dialect {
	case "mysql":
		return db.Exec("CREATE INDEX `" + index + "` ON `" + table + "` (`rpi_status`)").Error
	case "postgres":
		return db.Exec(`CREATE INDEX IF NOT EXISTS ` + index + ` ON "` + table + `" ("rpi_status")`).Error
	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}
}
