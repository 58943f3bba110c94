// Package postgres implements the marketplace stores on PostgreSQL via sqlx.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const driver = "postgres"

//go:embed schema.sql
var schema string

// Store groups the repositories of one database.
type Store struct {
	DB        *sqlx.DB
	Listings  *ListingRepository
	Reviews   *ReviewRepository
	Views     *ViewRepository
	Favorites *FavoriteRepository
}

// Connect opens the database, verifies it and applies the schema.
func Connect(ctx context.Context, dsn string, timeout time.Duration) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		DB:        db,
		Listings:  NewListingRepository(db),
		Reviews:   NewReviewRepository(db),
		Views:     NewViewRepository(db),
		Favorites: NewFavoriteRepository(db),
	}
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func newID() string {
	return uuid.NewString()
}
