// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/models"
)

// markerRecord is the SQL row. Seq is the surrogate primary key and gives
// creation order; ID is the public uuid.
type markerRecord struct {
	Seq   uint64 `gorm:"primaryKey;autoIncrement"`
	ID    string `gorm:"size:36;uniqueIndex;not null"`
	Seed  string `gorm:"size:128;index;not null"`
	X     int    `gorm:"not null"`
	Y     int    `gorm:"not null"`
	Label string `gorm:"size:200;not null"`
	Color string `gorm:"size:32;not null"`
	Type  string `gorm:"size:64;not null;default:lieu"`
	Notes string `gorm:"type:text;not null;default:''"`
}

func (markerRecord) TableName() string { return "markers" }

func (r *markerRecord) marker() *models.Marker {
	return &models.Marker{
		ID: r.ID, Seed: r.Seed, X: r.X, Y: r.Y,
		Label: r.Label, Color: r.Color, Type: r.Type, Notes: r.Notes,
		Seq: r.Seq,
	}
}

// GormStore implements Store on a SQL database through gorm.
type GormStore struct {
	db   *gorm.DB
	name string
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// OpenSQLiteStore opens (or creates) a SQLite database file.
func OpenSQLiteStore(ctx context.Context, path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}

	// SQLite allows one writer; a single connection avoids "database is locked".
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	logging.Info().Str("path", path).Msg("Using SQLite marker store")
	return newGormStore(ctx, db, "sqlite")
}

// OpenPostgresStore connects to PostgreSQL using dsn.
func OpenPostgresStore(ctx context.Context, dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	logging.Info().Msg("Using PostgreSQL marker store")
	return newGormStore(ctx, db, "postgres")
}

func newGormStore(ctx context.Context, db *gorm.DB, name string) (*GormStore, error) {
	s := &GormStore{db: db, name: name}
	if err := s.db.WithContext(ctx).AutoMigrate(&markerRecord{}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate markers table: %w", err)
	}
	return s, nil
}

func (s *GormStore) Name() string { return s.name }

func (s *GormStore) List(ctx context.Context, seed string) ([]models.Marker, error) {
	var records []markerRecord
	err := s.db.WithContext(ctx).
		Where("seed = ?", seed).
		Order("seq ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}

	markers := make([]models.Marker, 0, len(records))
	for i := range records {
		markers = append(markers, *records[i].marker())
	}
	return markers, nil
}

func (s *GormStore) Create(ctx context.Context, seed string, in *models.MarkerInput) (*models.Marker, error) {
	m := in.ToMarker(newMarkerID(), seed)
	rec := markerRecord{
		ID: m.ID, Seed: m.Seed, X: m.X, Y: m.Y,
		Label: m.Label, Color: m.Color, Type: m.Type, Notes: m.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create marker: %w", err)
	}
	m.Seq = rec.Seq
	return m, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.Marker, error) {
	var rec markerRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get marker: %w", err)
	}
	return rec.marker(), nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&markerRecord{})
	if result.Error != nil {
		return fmt.Errorf("delete marker: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
