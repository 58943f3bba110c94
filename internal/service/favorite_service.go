package service

import (
	"context"
	"fmt"
	"time"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/model"
)

type FavoriteService struct {
	favorites FavoriteRepository
	cars      ListingRepository
	now       func() time.Time
}

func NewFavoriteService(favorites FavoriteRepository, cars ListingRepository) *FavoriteService {
	return &FavoriteService{favorites: favorites, cars: cars, now: time.Now}
}

// Add bookmarks carID for userID. Adding an existing pair is a no-op and
// reports false.
func (s *FavoriteService) Add(ctx context.Context, userID, carID string) (bool, error) {
	exists, err := s.cars.Exists(ctx, carID)
	if err != nil {
		return false, fmt.Errorf("FavoriteService.Add: %w", err)
	}
	if !exists {
		return false, apperr.NotFound("car %s not found", carID)
	}
	added, err := s.favorites.Add(ctx, &model.Favorite{
		UserID:    userID,
		CarID:     carID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("FavoriteService.Add: %w", err)
	}
	return added, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, carID string) error {
	removed, err := s.favorites.Remove(ctx, userID, carID)
	if err != nil {
		return fmt.Errorf("FavoriteService.Remove: %w", err)
	}
	if !removed {
		return apperr.NotFound("car %s is not in favorites", carID)
	}
	return nil
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]model.Favorite, error) {
	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("FavoriteService.List: %w", err)
	}
	if favs == nil {
		favs = []model.Favorite{}
	}
	return favs, nil
}
