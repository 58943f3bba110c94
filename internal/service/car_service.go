package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/model"
)

// CarService owns the lifecycle of listings. Only the owner may change
// or remove a car.
type CarService struct {
	cars   ListingRepository
	photos PhotoRepository
	now    func() time.Time
}

// NewCarService builds a CarService. photos may be nil when the store has
// no image storage.
func NewCarService(cars ListingRepository, photos PhotoRepository) *CarService {
	return &CarService{cars: cars, photos: photos, now: time.Now}
}

func (s *CarService) Create(ctx context.Context, ownerID string, in model.CarInput) (*model.Car, error) {
	now := s.now().UTC()
	car := &model.Car{OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	in.Apply(car)
	if err := s.cars.Create(ctx, car); err != nil {
		return nil, fmt.Errorf("CarService.Create: %w", err)
	}
	return car, nil
}

func (s *CarService) Get(ctx context.Context, id string) (*model.Car, error) {
	car, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("CarService.Get: %w", err)
	}
	return car, nil
}

func (s *CarService) Mine(ctx context.Context, ownerID string) ([]model.Car, error) {
	cars, err := s.cars.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("CarService.Mine: %w", err)
	}
	if cars == nil {
		cars = []model.Car{}
	}
	return cars, nil
}

func (s *CarService) Update(ctx context.Context, userID, id string, in model.CarInput) (*model.Car, error) {
	car, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("CarService.Update: %w", err)
	}
	in.Apply(car)
	car.UpdatedAt = s.now().UTC()
	if err := s.cars.Update(ctx, car); err != nil {
		return nil, fmt.Errorf("CarService.Update: %w", err)
	}
	return car, nil
}

func (s *CarService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return fmt.Errorf("CarService.Delete: %w", err)
	}
	if err := s.cars.Delete(ctx, id); err != nil {
		return fmt.Errorf("CarService.Delete: %w", err)
	}
	return nil
}

// PhotosEnabled reports whether image upload is available.
func (s *CarService) PhotosEnabled() bool { return s.photos != nil }

// UploadPhoto stores an image for the car and links it to the listing.
func (s *CarService) UploadPhoto(ctx context.Context, userID, id, filename string, r io.Reader) (string, error) {
	if s.photos == nil {
		return "", apperr.NotFound("image storage is not available")
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return "", fmt.Errorf("CarService.UploadPhoto: %w", err)
	}
	fileID, err := s.photos.UploadPhoto(ctx, r, fmt.Sprintf("car_%s_%s", id, path.Base(filename)))
	if err != nil {
		return "", fmt.Errorf("CarService.UploadPhoto: %w", err)
	}
	if err := s.cars.UpdatePhotoFileID(ctx, id, fileID); err != nil {
		return "", fmt.Errorf("CarService.UploadPhoto: %w", err)
	}
	return fileID, nil
}

// Photo returns the stored image of a car.
func (s *CarService) Photo(ctx context.Context, id string) ([]byte, error) {
	if s.photos == nil {
		return nil, apperr.NotFound("image storage is not available")
	}
	car, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("CarService.Photo: %w", err)
	}
	if car.PhotoFileID == "" {
		return nil, apperr.NotFound("car %s has no photo", id)
	}
	data, err := s.photos.DownloadPhoto(ctx, car.PhotoFileID)
	if err != nil {
		return nil, fmt.Errorf("CarService.Photo: %w", err)
	}
	return data, nil
}

func (s *CarService) owned(ctx context.Context, userID, id string) (*model.Car, error) {
	car, err := s.cars.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if car.OwnerID != userID {
		return nil, apperr.Forbidden("car %s belongs to another user", id)
	}
	return car, nil
}
