// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and MySQL, schema migrations, and reference-data
// seeding.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/clubnavi/go-club-backend/internal/config"
	"github.com/clubnavi/go-club-backend/internal/domain"
)

// OpenDatabase opens the configured relational store and instruments it with
// OpenTelemetry query spans. The sqlite driver is the default (pure Go, no
// cgo); mysql is selected for deployments with a shared server.
func OpenDatabase(cfg config.DBConfig) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	switch cfg.Driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
	case "sqlite":
		db, err = openSQLite(cfg.Path)
	default:
		return nil, errors.New("repo: unsupported database driver " + cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	return db, nil
}

// openSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func openSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every persisted model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.University{},
		&domain.User{},
		&domain.Club{},
		&domain.ClubImage{},
		&domain.Idempotency{},
	)
}

// SeedUniversities inserts the reference universities if the table is empty.
// Safe to call on every startup.
func SeedUniversities(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.University{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	seed := []domain.University{
		{Name: "東京大学", Reading: "とうきょうだいがく"},
		{Name: "早稲田大学", Reading: "わせだだいがく"},
		{Name: "慶應義塾大学", Reading: "けいおうぎじゅくだいがく"},
		{Name: "京都大学", Reading: "きょうとだいがく"},
		{Name: "大阪大学", Reading: "おおさかだいがく"},
	}
	return db.Create(&seed).Error
}
