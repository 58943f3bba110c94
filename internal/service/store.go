package service

import (
	"context"
	"io"
	"time"

	"car-listing-service/internal/model"
)

// ListingRepository is the write and point-read surface over cars.
type ListingRepository interface {
	Create(ctx context.Context, c *model.Car) error
	Update(ctx context.Context, c *model.Car) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.Car, error)
	FindByOwner(ctx context.Context, ownerID string) ([]model.Car, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdatePhotoFileID(ctx context.Context, id, fileID string) error
}

type ReviewRepository interface {
	Insert(ctx context.Context, review *model.Review) (string, error)
	FindByListing(ctx context.Context, carID string) ([]model.Review, error)
}

type ViewRepository interface {
	// RecordIfAbsent stores ev unless an event for the same car and ip
	// exists at or after ev.CreatedAt-window. It reports whether ev was stored.
	RecordIfAbsent(ctx context.Context, ev *model.ViewEvent, window time.Duration) (bool, error)
	Stats(ctx context.Context, carID string, since time.Time) (model.ViewStats, error)
}

type FavoriteRepository interface {
	Add(ctx context.Context, fav *model.Favorite) (bool, error)
	Remove(ctx context.Context, userID, carID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Favorite, error)
	CountByCar(ctx context.Context, carID string) (int64, error)
}

type PhotoRepository interface {
	UploadPhoto(ctx context.Context, r io.Reader, filename string) (string, error)
	DownloadPhoto(ctx context.Context, fileID string) ([]byte, error)
}
