package model

import "time"

// Review represents a user’s review of a car.
type Review struct {
	ID        string    `db:"id" bson:"_id" json:"id"`
	CarID     string    `db:"car_id" bson:"car" json:"carId"`
	UserID    string    `db:"user_id" bson:"user" json:"userId"`
	Rating    int       `db:"rating" bson:"rating" json:"rating"`
	Comment   string    `db:"comment" bson:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
}

// ReviewBrief is the part of a review shown next to a compared car.
type ReviewBrief struct {
	Rating int    `db:"rating" bson:"rating" json:"rating"`
	Author string `db:"author" bson:"author" json:"author"`
}

// ReviewSummary aggregates the reviews of one car.
type ReviewSummary struct {
	CarID   string        `json:"carId"`
	Average float64       `json:"avgRating"`
	Count   int           `json:"reviewCount"`
	Reviews []ReviewBrief `json:"reviews"`
}
