package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/metrics"
	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

type ListingRepository struct {
	coll *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{coll: db.Collection(string(query.Cars))}
}

// carWithOwner is a car document after ownerLookup.
type carWithOwner struct {
	model.Car `bson:",inline"`
	Owners    []model.User `bson:"owners"`
}

func (c carWithOwner) car() model.Car {
	car := c.Car
	if len(c.Owners) > 0 {
		u := c.Owners[0]
		car.Owner = &u
	}
	return car
}

func (r *ListingRepository) Create(ctx context.Context, c *model.Car) (err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Create", time.Now(), &err)
	if c.ID == "" {
		c.ID = newID()
	}
	if _, err = r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Validation("car %s already exists", c.ID)
		}
		return apperr.Store("ListingRepository.Create", err)
	}
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, c *model.Car) (err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Update", time.Now(), &err)
	res, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: c.ID}}, c)
	if err != nil {
		return apperr.Store("ListingRepository.Update", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("car %s not found", c.ID)
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) (err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Delete", time.Now(), &err)
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return apperr.Store("ListingRepository.Delete", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("car %s not found", id)
	}
	return nil
}

func (r *ListingRepository) UpdatePhotoFileID(ctx context.Context, id, fileID string) (err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.UpdatePhotoFileID", time.Now(), &err)
	res, err := r.coll.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: bson.D{{Key: "photoFileId", Value: fileID}}}})
	if err != nil {
		return apperr.Store("ListingRepository.UpdatePhotoFileID", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("car %s not found", id)
	}
	return nil
}

func (r *ListingRepository) Exists(ctx context.Context, id string) (ok bool, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Exists", time.Now(), &err)
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Store("ListingRepository.Exists", err)
	}
	return n > 0, nil
}

// FindByID returns the car with its owner.
func (r *ListingRepository) FindByID(ctx context.Context, id string) (_ *model.Car, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.FindByID", time.Now(), &err)
	cars, err := r.withOwners(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, apperr.Store("ListingRepository.FindByID", err)
	}
	if len(cars) == 0 {
		return nil, apperr.NotFound("car %s not found", id)
	}
	return &cars[0], nil
}

// FindByIDs returns the existing cars among ids, with owners.
func (r *ListingRepository) FindByIDs(ctx context.Context, ids []string) (_ []model.Car, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.FindByIDs", time.Now(), &err)
	filter, err := query.MongoFilter(query.IDIn(ids))
	if err != nil {
		return nil, err
	}
	cars, err := r.withOwners(ctx, filter)
	if err != nil {
		return nil, apperr.Store("ListingRepository.FindByIDs", err)
	}
	return cars, nil
}

func (r *ListingRepository) withOwners(ctx context.Context, match bson.D) ([]model.Car, error) {
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		ownerLookup(),
	})
	if err != nil {
		return nil, err
	}
	var docs []carWithOwner
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	cars := make([]model.Car, 0, len(docs))
	for _, d := range docs {
		cars = append(cars, d.car())
	}
	return cars, nil
}

func (r *ListingRepository) FindByOwner(ctx context.Context, ownerID string) (_ []model.Car, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.FindByOwner", time.Now(), &err)
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{{Key: "owner", Value: ownerID}}, opts)
	if err != nil {
		return nil, apperr.Store("ListingRepository.FindByOwner", err)
	}
	var cars []model.Car
	if err := cur.All(ctx, &cars); err != nil {
		return nil, apperr.Store("ListingRepository.FindByOwner", err)
	}
	return cars, nil
}

func (r *ListingRepository) Find(ctx context.Context, spec query.Spec) (_ []model.Car, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Find", time.Now(), &err)
	filter, err := query.MongoFilter(spec.Filter)
	if err != nil {
		return nil, err
	}
	opts := options.Find()
	if len(spec.Sort) > 0 {
		opts.SetSort(query.MongoSort(spec.Sort))
	}
	if spec.Skip > 0 {
		opts.SetSkip(spec.Skip)
	}
	if spec.Limit > 0 {
		opts.SetLimit(spec.Limit)
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Store("ListingRepository.Find", err)
	}
	var cars []model.Car
	if err := cur.All(ctx, &cars); err != nil {
		return nil, apperr.Store("ListingRepository.Find", err)
	}
	return cars, nil
}

func (r *ListingRepository) Count(ctx context.Context, filter query.Predicate) (_ int64, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Count", time.Now(), &err)
	f, err := query.MongoFilter(filter)
	if err != nil {
		return 0, err
	}
	n, err := r.coll.CountDocuments(ctx, f)
	if err != nil {
		return 0, apperr.Store("ListingRepository.Count", err)
	}
	return n, nil
}

func (r *ListingRepository) Distinct(ctx context.Context, field query.Field) (_ []string, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Distinct", time.Now(), &err)
	raw, err := r.coll.Distinct(ctx, query.BSONField(field), bson.D{})
	if err != nil {
		return nil, apperr.Store("ListingRepository.Distinct", err)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Extent reports the minimum and maximum of a numeric field.
func (r *ListingRepository) Extent(ctx context.Context, field query.Field) (_ query.Extent, err error) {
	defer metrics.ObserveStore(driver, "ListingRepository.Extent", time.Now(), &err)
	ref := "$" + query.BSONField(field)
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "min", Value: bson.D{{Key: "$min", Value: ref}}},
			{Key: "max", Value: bson.D{{Key: "$max", Value: ref}}},
		}}},
	})
	if err != nil {
		return query.Extent{}, apperr.Store("ListingRepository.Extent", err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return query.Extent{}, apperr.Store("ListingRepository.Extent", err)
		}
		return query.Extent{Empty: true}, nil
	}
	var doc struct {
		Min int64 `bson:"min"`
		Max int64 `bson:"max"`
	}
	if err := cur.Decode(&doc); err != nil {
		return query.Extent{}, apperr.Store("ListingRepository.Extent", fmt.Errorf("decode %s: %w", field, err))
	}
	return query.Extent{Min: doc.Min, Max: doc.Max}, nil
}
