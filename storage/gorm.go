package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is one row of the key-value table.
type Entry struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:longtext;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name regardless of naming strategy.
func (Entry) TableName() string { return "kv_entries" }

// Gorm stores entries in a SQL table through gorm (sqlite or mysql).
type Gorm struct {
	db *gorm.DB
}

// NewGorm migrates the kv table when missing and returns the backend.
func NewGorm(db *gorm.DB) (*Gorm, error) {
	if !db.Migrator().HasTable(&Entry{}) {
		if err := db.AutoMigrate(&Entry{}); err != nil {
			return nil, fmt.Errorf("migrate kv_entries: %w", err)
		}
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Get(ctx context.Context, key string) ([]byte, error) {
	var e Entry
	err := g.db.WithContext(ctx).Where("`key` = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gorm get %s: %w", key, err)
	}
	return []byte(e.Value), nil
}

func (g *Gorm) Set(ctx context.Context, key string, value []byte) error {
	e := Entry{Key: key, Value: string(value), UpdatedAt: time.Now()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("gorm set %s: %w", key, err)
	}
	return nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
