package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/metrics"
	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

type ReviewRepository struct {
	coll *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(string(query.Reviews))}
}

// Insert saves a new review and returns its generated ID.
func (r *ReviewRepository) Insert(ctx context.Context, review *model.Review) (_ string, err error) {
	defer metrics.ObserveStore(driver, "ReviewRepository.Insert", time.Now(), &err)
	if review.ID == "" {
		review.ID = newID()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	if _, err = r.coll.InsertOne(ctx, review); err != nil {
		return "", apperr.Store("ReviewRepository.Insert", err)
	}
	return review.ID, nil
}

// FindByListing returns all reviews of a car, newest first.
func (r *ReviewRepository) FindByListing(ctx context.Context, carID string) (_ []model.Review, err error) {
	defer metrics.ObserveStore(driver, "ReviewRepository.FindByListing", time.Now(), &err)
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.D{{Key: "car", Value: carID}}, opts)
	if err != nil {
		return nil, apperr.Store("ReviewRepository.FindByListing", err)
	}
	var reviews []model.Review
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, apperr.Store("ReviewRepository.FindByListing", err)
	}
	return reviews, nil
}

// Summaries aggregates rating and author per review for each car in carIDs
// that has reviews.
func (r *ReviewRepository) Summaries(ctx context.Context, carIDs []string) (_ map[string]model.ReviewSummary, err error) {
	defer metrics.ObserveStore(driver, "ReviewRepository.Summaries", time.Now(), &err)
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "car", Value: bson.D{{Key: "$in", Value: carIDs}}}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: string(query.Users)},
			{Key: "localField", Value: "user"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authors"},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$car"},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "reviews", Value: bson.D{{Key: "$push", Value: bson.D{
				{Key: "rating", Value: "$rating"},
				{Key: "author", Value: bson.D{{Key: "$ifNull", Value: bson.A{
					bson.D{{Key: "$arrayElemAt", Value: bson.A{"$authors.name", 0}}},
					"",
				}}}},
			}}}},
		}}},
	})
	if err != nil {
		return nil, apperr.Store("ReviewRepository.Summaries", err)
	}
	var docs []struct {
		CarID   string              `bson:"_id"`
		Average float64             `bson:"average"`
		Count   int                 `bson:"count"`
		Reviews []model.ReviewBrief `bson:"reviews"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperr.Store("ReviewRepository.Summaries", err)
	}
	out := make(map[string]model.ReviewSummary, len(docs))
	for _, d := range docs {
		out[d.CarID] = model.ReviewSummary{CarID: d.CarID, Average: d.Average, Count: d.Count, Reviews: d.Reviews}
	}
	return out, nil
}
