// Package repository implements the marketplace stores on MongoDB.
package repository

import (
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"car-listing-service/internal/query"
)

const driver = "mongo"

// Store groups the repositories of one database.
type Store struct {
	Listings  *ListingRepository
	Reviews   *ReviewRepository
	Views     *ViewRepository
	Favorites *FavoriteRepository
	Photos    *PhotoRepository
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		Listings:  NewListingRepository(db),
		Reviews:   NewReviewRepository(db),
		Views:     NewViewRepository(db),
		Favorites: NewFavoriteRepository(db),
		Photos:    NewPhotoRepository(db),
	}
}

func newID() string {
	return uuid.NewString()
}

// ownerLookup joins the owning user as a one-element "owners" array.
func ownerLookup() bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: string(query.Users)},
		{Key: "localField", Value: query.BSONField(query.FieldOwner)},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "owners"},
	}}}
}
