package memory

import (
	"context"
	"time"

	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

type ViewRepository struct {
	db *db
}

// RecordIfAbsent appends ev unless the same (car, ip) pair was seen in
// the window ending at ev.CreatedAt. The check and the insert happen
// under one lock.
func (r *ViewRepository) RecordIfAbsent(_ context.Context, ev *model.ViewEvent, window time.Duration) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cutoff := ev.CreatedAt.Add(-window)
	for _, v := range r.db.views {
		if v.CarID == ev.CarID && v.IP == ev.IP && !v.CreatedAt.Before(cutoff) {
			return false, nil
		}
	}
	if ev.ID == "" {
		ev.ID = newID()
	}
	r.db.views = append(r.db.views, *ev)
	return true, nil
}

func (r *ViewRepository) Stats(_ context.Context, carID string, since time.Time) (model.ViewStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	st := model.ViewStats{CarID: carID}
	ips := map[string]struct{}{}
	for _, v := range r.db.views {
		if v.CarID != carID {
			continue
		}
		st.TotalViews++
		if !v.CreatedAt.Before(since) {
			st.RecentViews++
		}
		ips[v.IP] = struct{}{}
	}
	st.UniqueVisitors = int64(len(ips))
	return st, nil
}

func (r *ViewRepository) Trending(_ context.Context, plan *query.Plan) ([]model.TrendingCar, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rows := make([]query.Row, 0, len(r.db.views))
	for _, v := range r.db.views {
		rows = append(rows, viewRow(v))
	}
	out, err := query.Run(plan, rows, func(from query.Collection, id string) (query.Row, bool) {
		if from != query.Cars {
			return nil, false
		}
		c, ok := r.db.cars[id]
		if !ok {
			return nil, false
		}
		return carRow(c), true
	})
	if err != nil {
		return nil, err
	}

	cars := make([]model.TrendingCar, 0, len(out))
	for _, row := range out {
		cars = append(cars, trendingFromRow(row))
	}
	return cars, nil
}

func trendingFromRow(row query.Row) model.TrendingCar {
	str := func(f query.Field) string { s, _ := row[f].(string); return s }
	num := func(f query.Field) int64 { n, _ := row[f].(int64); return n }
	return model.TrendingCar{
		ID:        str(query.FieldID),
		Company:   str(query.FieldCompany),
		Price:     num(query.FieldPrice),
		Image:     str(query.FieldImage),
		Color:     str(query.FieldColor),
		Engine:    str(query.FieldEngine),
		Mileage:   num(query.FieldMileage),
		ViewCount: num(query.FieldCount),
	}
}
