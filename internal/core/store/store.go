// Package store implements C1: the relational schema and the read/write
// primitives every other component builds on.
package store

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lipish/xtrace/internal/config"
)

// Store wraps the GORM connection pool used by the writer tasks and the
// query handlers. It holds no in-memory state of its own.
type Store struct {
	DB *gorm.DB
}

// Open connects to Postgres using cfg, bounding the pool to at most
// MaxOpenConn connections (spec.md §4.8: pool <= 20 conns). It does not
// run migrations; that is internal/migration's job, invoked separately at
// startup.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen := cfg.MaxOpenConn
	if maxOpen <= 0 || maxOpen > 20 {
		maxOpen = 20
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)

	return &Store{DB: db}, nil
}

// Close closes the underlying connection pool (spec.md §4.8 shutdown).
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
