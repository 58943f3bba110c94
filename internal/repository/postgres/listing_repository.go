package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/metrics"
	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

// uniqueViolation is the SQLSTATE of a unique constraint failure.
const uniqueViolation = "23505"

type ListingRepository struct {
	DB *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{DB: db}
}

func (r *ListingRepository) Create(ctx context.Context, c *model.Car) (err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Create", time.Now(), &err)
	if c.ID == "" {
		c.ID = newID()
	}
	_, err = r.DB.NamedExecContext(ctx, `
		INSERT INTO cars
			(id, owner_id, company, description, engine, color, mileage, price, image, photo_file_id, created_at, updated_at)
		VALUES
			(:id, :owner_id, :company, :description, :engine, :color, :mileage, :price, :image, :photo_file_id, :created_at, :updated_at)
	`, c)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperr.Validation("car %s already exists", c.ID)
	}
	return apperr.Store("ListingRepository.Create", err)
}

func (r *ListingRepository) Update(ctx context.Context, c *model.Car) (err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Update", time.Now(), &err)
	res, err := r.DB.NamedExecContext(ctx, `
		UPDATE cars SET
			company       = :company,
			description   = :description,
			engine        = :engine,
			color         = :color,
			mileage       = :mileage,
			price         = :price,
			image         = :image,
			photo_file_id = :photo_file_id,
			updated_at    = :updated_at
		WHERE id = :id
	`, c)
	if err != nil {
		return apperr.Store("ListingRepository.Update", err)
	}
	return affected(res, "car %s not found", c.ID)
}

func (r *ListingRepository) Delete(ctx context.Context, id string) (err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Delete", time.Now(), &err)
	res, err := r.DB.ExecContext(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		return apperr.Store("ListingRepository.Delete", err)
	}
	return affected(res, "car %s not found", id)
}

func (r *ListingRepository) UpdatePhotoFileID(ctx context.Context, id, fileID string) (err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.UpdatePhotoFileID", time.Now(), &err)
	res, err := r.DB.ExecContext(ctx, `UPDATE cars SET photo_file_id = $1 WHERE id = $2`, fileID, id)
	if err != nil {
		return apperr.Store("ListingRepository.UpdatePhotoFileID", err)
	}
	return affected(res, "car %s not found", id)
}

func (r *ListingRepository) Exists(ctx context.Context, id string) (ok bool, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Exists", time.Now(), &err)
	var count int
	const q = `SELECT COUNT(1) FROM cars WHERE id = $1`
	if err := r.DB.GetContext(ctx, &count, q, id); err != nil {
		return false, apperr.Store("ListingRepository.Exists", err)
	}
	return count > 0, nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (_ *model.Car, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.FindByID", time.Now(), &err)
	var c model.Car
	if err := r.DB.GetContext(ctx, &c, `SELECT * FROM cars WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("car %s not found", id)
		}
		return nil, apperr.Store("ListingRepository.FindByID", err)
	}
	cars := []model.Car{c}
	if err := r.attachOwners(ctx, cars); err != nil {
		return nil, apperr.Store("ListingRepository.FindByID", err)
	}
	return &cars[0], nil
}

func (r *ListingRepository) FindByIDs(ctx context.Context, ids []string) (_ []model.Car, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.FindByIDs", time.Now(), &err)
	var cars []model.Car
	if err := r.DB.SelectContext(ctx, &cars, `SELECT * FROM cars WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, apperr.Store("ListingRepository.FindByIDs", err)
	}
	if err := r.attachOwners(ctx, cars); err != nil {
		return nil, apperr.Store("ListingRepository.FindByIDs", err)
	}
	return cars, nil
}

func (r *ListingRepository) attachOwners(ctx context.Context, cars []model.Car) error {
	if len(cars) == 0 {
		return nil
	}
	ids := make([]string, 0, len(cars))
	for _, c := range cars {
		ids = append(ids, c.OwnerID)
	}
	var users []model.User
	if err := r.DB.SelectContext(ctx, &users, `SELECT id, name, email FROM users WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return err
	}
	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range cars {
		if u, ok := byID[cars[i].OwnerID]; ok {
			cars[i].Owner = &u
		}
	}
	return nil
}

func (r *ListingRepository) FindByOwner(ctx context.Context, ownerID string) (_ []model.Car, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.FindByOwner", time.Now(), &err)
	var cars []model.Car
	err = r.DB.SelectContext(ctx, &cars, `
		SELECT * FROM cars
		WHERE owner_id = $1
		ORDER BY created_at DESC, id ASC
	`, ownerID)
	return cars, apperr.Store("ListingRepository.FindByOwner", err)
}

func (r *ListingRepository) Find(ctx context.Context, spec query.Spec) (_ []model.Car, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Find", time.Now(), &err)
	b := &query.SQLBuilder{}
	where, err := b.Where(spec.Filter)
	if err != nil {
		return nil, err
	}
	order, err := query.OrderBy(spec.Sort)
	if err != nil {
		return nil, err
	}
	q := "SELECT * FROM cars WHERE " + where + order
	args := b.Args
	if spec.Limit > 0 {
		args = append(args, spec.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if spec.Skip > 0 {
		args = append(args, spec.Skip)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var cars []model.Car
	if err := r.DB.SelectContext(ctx, &cars, q, args...); err != nil {
		return nil, apperr.Store("ListingRepository.Find", err)
	}
	return cars, nil
}

func (r *ListingRepository) Count(ctx context.Context, filter query.Predicate) (_ int64, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Count", time.Now(), &err)
	b := &query.SQLBuilder{}
	where, err := b.Where(filter)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM cars WHERE "+where, b.Args...); err != nil {
		return 0, apperr.Store("ListingRepository.Count", err)
	}
	return n, nil
}

func (r *ListingRepository) Distinct(ctx context.Context, field query.Field) (_ []string, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Distinct", time.Now(), &err)
	col, err := query.SQLColumn(field)
	if err != nil {
		return nil, err
	}
	var out []string
	err = r.DB.SelectContext(ctx, &out, fmt.Sprintf("SELECT DISTINCT %s FROM cars", col))
	return out, apperr.Store("ListingRepository.Distinct", err)
}

func (r *ListingRepository) Extent(ctx context.Context, field query.Field) (_ query.Extent, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Extent", time.Now(), &err)
	col, err := query.SQLColumn(field)
	if err != nil {
		return query.Extent{}, err
	}
	var lo, hi sql.NullInt64
	row := r.DB.QueryRowxContext(ctx, fmt.Sprintf("SELECT MIN(%s), MAX(%s) FROM cars", col, col))
	if err := row.Scan(&lo, &hi); err != nil {
		return query.Extent{}, apperr.Store("ListingRepository.Extent", err)
	}
	if !lo.Valid || !hi.Valid {
		return query.Extent{Empty: true}, nil
	}
	return query.Extent{Min: lo.Int64, Max: hi.Int64}, nil
}

func affected(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store("RowsAffected", err)
	}
	if n == 0 {
		return apperr.NotFound(format, args...)
	}
	return nil
}
