package model

import (
	"time"

	"github.com/google/uuid"
)

// Setting keys read by the jobs
const (
	SettingAutoArchiveEnabled = "auto_archive_enabled"
	SettingAutoArchiveDays    = "auto_archive_days"
)

// Setting is a tenant-scoped key/value pair.
type Setting struct {
	AdminID   uuid.UUID `json:"admin_id" db:"admin_id"`
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
