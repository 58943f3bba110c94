package memory

import (
	"context"
	"sort"

	"car-listing-service/internal/model"
)

type FavoriteRepository struct {
	db *db
}

// Add stores the pair and reports false when it already existed.
func (r *FavoriteRepository) Add(_ context.Context, fav *model.Favorite) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, f := range r.db.favorites {
		if f.UserID == fav.UserID && f.CarID == fav.CarID {
			return false, nil
		}
	}
	stored := *fav
	stored.Car = nil
	r.db.favorites = append(r.db.favorites, stored)
	return true, nil
}

func (r *FavoriteRepository) Remove(_ context.Context, userID, carID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, f := range r.db.favorites {
		if f.UserID == userID && f.CarID == carID {
			r.db.favorites = append(r.db.favorites[:i], r.db.favorites[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListByUser returns the user's favorites, newest first, with cars attached.
// Favorites of deleted cars are skipped.
func (r *FavoriteRepository) ListByUser(_ context.Context, userID string) ([]model.Favorite, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []model.Favorite
	for _, f := range r.db.favorites {
		if f.UserID != userID {
			continue
		}
		c, ok := r.db.cars[f.CarID]
		if !ok {
			continue
		}
		f.Car = &c
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *FavoriteRepository) CountByCar(_ context.Context, carID string) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, f := range r.db.favorites {
		if f.CarID == carID {
			n++
		}
	}
	return n, nil
}
