package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/metrics"
	"car-listing-service/internal/model"
)

type FavoriteRepository struct {
	db *sqlx.DB
}

func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Add(ctx context.Context, fav *model.Favorite) (_ bool, err error) {
	defer metrics.ObserveStore(driver, "FavoriteRepository.Add", time.Now(), &err)
	res, err := r.db.NamedExecContext(ctx, `
		INSERT INTO favorites (user_id, car_id, created_at)
		VALUES (:user_id, :car_id, :created_at)
		ON CONFLICT (user_id, car_id) DO NOTHING
	`, fav)
	if err != nil {
		return false, apperr.Store("FavoriteRepository.Add", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Store("FavoriteRepository.Add", err)
	}
	return n == 1, nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, carID string) (_ bool, err error) {
	defer metrics.ObserveStore(driver, "FavoriteRepository.Remove", time.Now(), &err)
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND car_id = $2`, userID, carID)
	if err != nil {
		return false, apperr.Store("FavoriteRepository.Remove", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Store("FavoriteRepository.Remove", err)
	}
	return n > 0, nil
}

// ListByUser returns the user's favorites, newest first, with cars attached.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) (_ []model.Favorite, err error) {
	defer metrics.ObserveStore(driver, "FavoriteRepository.ListByUser", time.Now(), &err)
	var favs []model.Favorite
	if err := r.db.SelectContext(ctx, &favs, `
		SELECT user_id, car_id, created_at FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID); err != nil {
		return nil, apperr.Store("FavoriteRepository.ListByUser", err)
	}
	if len(favs) == 0 {
		return favs, nil
	}

	ids := make([]string, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.CarID)
	}
	var cars []model.Car
	if err := r.db.SelectContext(ctx, &cars, `SELECT * FROM cars WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, apperr.Store("FavoriteRepository.ListByUser", err)
	}
	byID := make(map[string]model.Car, len(cars))
	for _, c := range cars {
		byID[c.ID] = c
	}

	out := favs[:0]
	for _, f := range favs {
		if c, ok := byID[f.CarID]; ok {
			f.Car = &c
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *FavoriteRepository) CountByCar(ctx context.Context, carID string) (_ int64, err error) {
	defer metrics.ObserveStore(driver, "FavoriteRepository.CountByCar", time.Now(), &err)
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM favorites WHERE car_id = $1`, carID); err != nil {
		return 0, apperr.Store("FavoriteRepository.CountByCar", err)
	}
	return n, nil
}
