// Package database owns the storage handle. The handle is opened once per
// invocation, passed explicitly into whatever needs it, and closed once at
// the end. There is no process-wide connection singleton.
package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wnghdcjfe/card/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the database and migrates the schema. The unique index
// on cards.card_idx created here is what backs the atomic upsert.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Card{},
		&entities.CardBrand{},
		&entities.CardBenefit{},
		&entities.CardCorp{},
		&entities.CollectionLog{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
