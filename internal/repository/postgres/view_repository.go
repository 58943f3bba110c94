package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/metrics"
	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

type ViewRepository struct {
	db *sqlx.DB
}

func NewViewRepository(db *sqlx.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

// RecordIfAbsent inserts ev in one statement guarded by NOT EXISTS on the
// same car and ip within the window.
func (r *ViewRepository) RecordIfAbsent(ctx context.Context, ev *model.ViewEvent, window time.Duration) (_ bool, err error) {
	defer metrics.ObserveStore(driver, "ViewRepository.RecordIfAbsent", time.Now(), &err)
	const q = `
		INSERT INTO views (id, car_id, viewer_id, ip, user_agent, created_at)
		SELECT $1::text, $2::text, $3::text, $4::text, $5::text, $6::timestamptz
		WHERE NOT EXISTS (
			SELECT 1 FROM views
			WHERE car_id = $2::text AND ip = $4::text AND created_at >= $7::timestamptz
		)
	`
	if ev.ID == "" {
		ev.ID = newID()
	}
	res, err := r.db.ExecContext(ctx, q,
		ev.ID, ev.CarID, ev.ViewerID, ev.IP, ev.UserAgent, ev.CreatedAt, ev.CreatedAt.Add(-window))
	if err != nil {
		return false, apperr.Store("ViewRepository.RecordIfAbsent", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Store("ViewRepository.RecordIfAbsent", err)
	}
	return n == 1, nil
}

func (r *ViewRepository) Stats(ctx context.Context, carID string, since time.Time) (_ model.ViewStats, err error) {
	defer metrics.ObserveStore(driver, "ViewRepository.Stats", time.Now(), &err)
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $2),
			COUNT(DISTINCT ip)
		FROM views
		WHERE car_id = $1
	`
	st := model.ViewStats{CarID: carID}
	if err := r.db.QueryRowxContext(ctx, q, carID, since).Scan(&st.TotalViews, &st.RecentViews, &st.UniqueVisitors); err != nil {
		return model.ViewStats{}, apperr.Store("ViewRepository.Stats", err)
	}
	return st, nil
}

// Trending runs the plan compiled to SQL. The joined car columns are a
// superset of TrendingCar, so scanning is unsafe-mapped.
func (r *ViewRepository) Trending(ctx context.Context, plan *query.Plan) (_ []model.TrendingCar, err error) {
	defer metrics.ObserveStore(driver, "ViewRepository.Trending", time.Now(), &err)
	q, args, err := query.SQLPlan(plan)
	if err != nil {
		return nil, err
	}
	var cars []model.TrendingCar
	if err := r.db.Unsafe().SelectContext(ctx, &cars, q, args...); err != nil {
		return nil, apperr.Store("ViewRepository.Trending", err)
	}
	return cars, nil
}
