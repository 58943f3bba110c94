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

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Insert saves a new review and returns its ID. created_at falls back to
// the database clock when unset.
func (r *ReviewRepository) Insert(ctx context.Context, review *model.Review) (_ string, err error) {
	defer metrics.ObserveStore(driver, "ReviewRepository.Insert", time.Now(), &err)
	const insertQuery = `
		INSERT INTO reviews (id, car_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		RETURNING id, created_at
	`
	if review.ID == "" {
		review.ID = newID()
	}
	var createdAt *time.Time
	if !review.CreatedAt.IsZero() {
		createdAt = &review.CreatedAt
	}

	var id string
	var stored time.Time
	err = r.db.QueryRowxContext(ctx, insertQuery,
		review.ID,
		review.CarID,
		review.UserID,
		review.Rating,
		review.Comment,
		createdAt,
	).Scan(&id, &stored)
	if err != nil {
		return "", apperr.Store("ReviewRepository.Insert", err)
	}

	review.ID = id
	review.CreatedAt = stored
	return id, nil
}

// FindByListing returns all reviews for a car, newest first.
func (r *ReviewRepository) FindByListing(ctx context.Context, carID string) (_ []model.Review, err error) {
	defer metrics.ObserveStore(driver, "ReviewRepository.FindByListing", time.Now(), &err)
	const selectQuery = `
		SELECT id, car_id, user_id, rating, comment, created_at
		FROM reviews
		WHERE car_id = $1
		ORDER BY created_at DESC
	`
	var reviews []model.Review
	if err := r.db.SelectContext(ctx, &reviews, selectQuery, carID); err != nil {
		return nil, apperr.Store("ReviewRepository.FindByListing", err)
	}
	return reviews, nil
}

// Summaries aggregates the reviews of each car in carIDs that has any.
func (r *ReviewRepository) Summaries(ctx context.Context, carIDs []string) (_ map[string]model.ReviewSummary, err error) {
	defer metrics.ObserveStore(driver, "ReviewRepository.Summaries", time.Now(), &err)
	const q = `
		SELECT r.car_id, r.rating, COALESCE(u.name, '') AS author
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.car_id = ANY($1)
		ORDER BY r.created_at ASC, r.id ASC
	`
	var rows []struct {
		CarID string `db:"car_id"`
		model.ReviewBrief
	}
	if err := r.db.SelectContext(ctx, &rows, q, pq.Array(carIDs)); err != nil {
		return nil, apperr.Store("ReviewRepository.Summaries", err)
	}

	out := make(map[string]model.ReviewSummary)
	totals := make(map[string]int)
	for _, row := range rows {
		s := out[row.CarID]
		s.CarID = row.CarID
		s.Count++
		s.Reviews = append(s.Reviews, row.ReviewBrief)
		out[row.CarID] = s
		totals[row.CarID] += row.Rating
	}
	for id, s := range out {
		s.Average = float64(totals[id]) / float64(s.Count)
		out[id] = s
	}
	return out, nil
}
