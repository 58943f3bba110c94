package model

import "time"

// ViewEvent records one deduplicated view of a car. It is never mutated.
type ViewEvent struct {
	ID        string    `db:"id" bson:"_id" json:"id"`
	CarID     string    `db:"car_id" bson:"car" json:"carId"`
	ViewerID  string    `db:"viewer_id" bson:"viewer,omitempty" json:"viewerId,omitempty"`
	IP        string    `db:"ip" bson:"ip" json:"ip"`
	UserAgent string    `db:"user_agent" bson:"userAgent" json:"userAgent"`
	CreatedAt time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
}

// ViewStats summarises the audience of one car.
type ViewStats struct {
	CarID          string `json:"carId"`
	TotalViews     int64  `json:"totalViews"`
	RecentViews    int64  `json:"recentViews"`
	UniqueVisitors int64  `json:"uniqueVisitors"`
	Favorites      int64  `json:"favorites"`
}

// TrendingCar is a car's display fields plus its recent view count.
type TrendingCar struct {
	ID        string `db:"id" bson:"_id" json:"id"`
	Company   string `db:"company" bson:"company" json:"company"`
	Price     int64  `db:"price" bson:"price" json:"price"`
	Image     string `db:"image" bson:"image" json:"image"`
	Color     string `db:"color" bson:"color" json:"color"`
	Engine    string `db:"engine" bson:"engine" json:"engine"`
	Mileage   int64  `db:"mileage" bson:"mileage" json:"mileage"`
	ViewCount int64  `db:"count" bson:"count" json:"viewCount"`
}
