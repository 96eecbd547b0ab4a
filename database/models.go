package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Row is one warehouse record: a few indexed columns lifted from the
// record plus the full record as JSON.
type Row struct {
	ID              string    `gorm:"type:varchar(36);primaryKey"`
	ExecutionID     string    `gorm:"index"`
	LedgerIndex     int64     `gorm:"index"`
	Hash            string    `gorm:"index"`
	TransactionType string
	Payload         string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

// BeforeCreate assigns a UUID when none is set.
func (r *Row) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
