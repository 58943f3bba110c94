package model

import "time"

// Favorite is a (user, car) bookmark, unique per pair.
type Favorite struct {
	UserID    string    `db:"user_id" bson:"user" json:"userId"`
	CarID     string    `db:"car_id" bson:"car" json:"carId"`
	CreatedAt time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`

	Car *Car `db:"-" bson:"-" json:"car,omitempty"`
}
