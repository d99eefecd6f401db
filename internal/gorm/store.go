package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound indicates the entity was not found.
var ErrNotFound = gorm.ErrRecordNotFound

// Firster encompasses fetching a single entity from the passed *gorm.DB.
type Firster interface {
	First(context.Context, *gorm.DB) error
}

// Finder encompasses fetching zero or more entities from the passed *gorm.DB.
type Finder interface {
	Find(context.Context, *gorm.DB) error
}

// NewStore creates a new Store instance.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Store provides a mockable API for reading from a relational DB with GORM.
type Store struct {
	db *gorm.DB
}

// First retrieves a single instance of the entity. The returned bool is false
// when no such entity exists.
func (s Store) First(ctx context.Context, entity Firster) (bool, error) {
	err := entity.First(ctx, s.db)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Find retrieves all instances of the entity matching its conditions.
func (s Store) Find(ctx context.Context, entity Finder) error {
	return entity.Find(ctx, s.db)
}

// Ping verifies the connection pool can reach the database.
func (s Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
