package memory

import (
	"context"
	"fmt"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

type ListingRepository struct {
	db *db
}

func (r *ListingRepository) Create(_ context.Context, c *model.Car) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	if _, ok := r.db.cars[c.ID]; ok {
		return apperr.Validation("car %s already exists", c.ID)
	}
	stored := *c
	stored.Owner = nil
	r.db.cars[c.ID] = stored
	return nil
}

func (r *ListingRepository) Update(_ context.Context, c *model.Car) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.cars[c.ID]; !ok {
		return apperr.NotFound("car %s not found", c.ID)
	}
	stored := *c
	stored.Owner = nil
	r.db.cars[c.ID] = stored
	return nil
}

func (r *ListingRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.cars[id]; !ok {
		return apperr.NotFound("car %s not found", id)
	}
	delete(r.db.cars, id)
	return nil
}

func (r *ListingRepository) UpdatePhotoFileID(_ context.Context, id, fileID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.cars[id]
	if !ok {
		return apperr.NotFound("car %s not found", id)
	}
	c.PhotoFileID = fileID
	r.db.cars[id] = c
	return nil
}

func (r *ListingRepository) FindByID(_ context.Context, id string) (*model.Car, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.cars[id]
	if !ok {
		return nil, apperr.NotFound("car %s not found", id)
	}
	c = r.db.withOwner(c)
	return &c, nil
}

func (r *ListingRepository) Exists(_ context.Context, id string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	_, ok := r.db.cars[id]
	return ok, nil
}

func (r *ListingRepository) FindByIDs(_ context.Context, ids []string) ([]model.Car, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []model.Car
	for _, c := range r.db.sortedCars() {
		if query.Match(query.IDIn(ids), carRow(c)) {
			out = append(out, r.db.withOwner(c))
		}
	}
	return out, nil
}

func (r *ListingRepository) FindByOwner(_ context.Context, ownerID string) ([]model.Car, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var rows []query.Row
	for _, c := range r.db.cars {
		if c.OwnerID == ownerID {
			rows = append(rows, carRow(c))
		}
	}
	query.SortRows(rows, ownerOrder)
	out := make([]model.Car, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.db.cars[row[query.FieldID].(string)])
	}
	return out, nil
}

// ownerOrder lists a seller's cars newest first.
var ownerOrder = []query.SortKey{
	{Field: query.FieldCreatedAt, Dir: query.Desc},
	{Field: query.FieldID, Dir: query.Asc},
}

func (r *ListingRepository) Find(_ context.Context, spec query.Spec) ([]model.Car, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var rows []query.Row
	for _, c := range r.db.sortedCars() {
		row := carRow(c)
		if query.Match(spec.Filter, row) {
			rows = append(rows, row)
		}
	}
	query.SortRows(rows, spec.Sort)

	if spec.Skip > 0 {
		if spec.Skip >= int64(len(rows)) {
			return []model.Car{}, nil
		}
		rows = rows[spec.Skip:]
	}
	if spec.Limit > 0 && int64(len(rows)) > spec.Limit {
		rows = rows[:spec.Limit]
	}
	out := make([]model.Car, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.db.cars[row[query.FieldID].(string)])
	}
	return out, nil
}

func (r *ListingRepository) Count(_ context.Context, filter query.Predicate) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, c := range r.db.cars {
		if query.Match(filter, carRow(c)) {
			n++
		}
	}
	return n, nil
}

func (r *ListingRepository) Distinct(_ context.Context, field query.Field) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	seen := map[string]struct{}{}
	var out []string
	for _, c := range r.db.sortedCars() {
		s, ok := carRow(c)[field].(string)
		if !ok {
			return nil, fmt.Errorf("ListingRepository.Distinct: field %q is not a string", field)
		}
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *ListingRepository) Extent(_ context.Context, field query.Field) (query.Extent, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ext := query.Extent{Empty: true}
	for _, c := range r.db.cars {
		n, ok := carRow(c)[field].(int64)
		if !ok {
			return query.Extent{}, fmt.Errorf("ListingRepository.Extent: field %q is not numeric", field)
		}
		if ext.Empty || n < ext.Min {
			ext.Min = n
		}
		if ext.Empty || n > ext.Max {
			ext.Max = n
		}
		ext.Empty = false
	}
	return ext, nil
}
