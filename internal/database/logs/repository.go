// Package logs persists collection-run audit records. Inserts are
// append-only with no dedup key; nothing here updates or deletes.
package logs

import (
	"time"

	"gorm.io/gorm"

	"github.com/wnghdcjfe/card/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append saves one collection log.
func (r *Repository) Append(entry *entities.CollectionLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.Create(entry).Error
}

// Recent retrieves the most recent collection logs, newest first.
func (r *Repository) Recent(limit int) ([]entities.CollectionLog, error) {
	if limit <= 0 {
		limit = 10
	}
	var entries []entities.CollectionLog
	err := r.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
