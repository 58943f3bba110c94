package memory

import (
	"context"
	"sort"

	"car-listing-service/internal/model"
)

type ReviewRepository struct {
	db *db
}

func (r *ReviewRepository) Insert(_ context.Context, review *model.Review) (string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if review.ID == "" {
		review.ID = newID()
	}
	r.db.reviews = append(r.db.reviews, *review)
	return review.ID, nil
}

// FindByListing returns the reviews of a car, newest first.
func (r *ReviewRepository) FindByListing(_ context.Context, carID string) ([]model.Review, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []model.Review
	for _, rv := range r.db.reviews {
		if rv.CarID == carID {
			out = append(out, rv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ReviewRepository) Summaries(_ context.Context, carIDs []string) (map[string]model.ReviewSummary, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	want := make(map[string]struct{}, len(carIDs))
	for _, id := range carIDs {
		want[id] = struct{}{}
	}
	sums := map[string]model.ReviewSummary{}
	totals := map[string]int{}
	for _, rv := range r.db.reviews {
		if _, ok := want[rv.CarID]; !ok {
			continue
		}
		s := sums[rv.CarID]
		s.CarID = rv.CarID
		s.Count++
		s.Reviews = append(s.Reviews, model.ReviewBrief{Rating: rv.Rating, Author: r.db.users[rv.UserID].Name})
		sums[rv.CarID] = s
		totals[rv.CarID] += rv.Rating
	}
	for id, s := range sums {
		s.Average = float64(totals[id]) / float64(s.Count)
		sums[id] = s
	}
	return sums, nil
}
