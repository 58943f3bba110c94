package model

import "time"

// Car is a listing for sale. Price is in the smallest currency unit.
type Car struct {
	ID          string    `db:"id" bson:"_id" json:"id"`
	OwnerID     string    `db:"owner_id" bson:"owner" json:"ownerId"`
	Company     string    `db:"company" bson:"company" json:"company"`
	Description string    `db:"description" bson:"description" json:"description"`
	Engine      string    `db:"engine" bson:"engine" json:"engine"`
	Color       string    `db:"color" bson:"color" json:"color"`
	Mileage     int64     `db:"mileage" bson:"mileage" json:"mileage"`
	Price       int64     `db:"price" bson:"price" json:"price"`
	Image       string    `db:"image" bson:"image" json:"image"`
	PhotoFileID string    `db:"photo_file_id" bson:"photoFileId,omitempty" json:"-"`
	CreatedAt   time.Time `db:"created_at" bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" bson:"updatedAt" json:"updatedAt"`

	// Owner is only populated by reads that join the users collection.
	Owner *User `db:"-" bson:"-" json:"owner,omitempty"`
}

// CarInput is the writable part of a Car.
type CarInput struct {
	Company     string `json:"company" binding:"required,max=100"`
	Description string `json:"description" binding:"max=5000"`
	Engine      string `json:"engine" binding:"required,max=50"`
	Color       string `json:"color" binding:"required,carcolor"`
	Mileage     int64  `json:"mileage" binding:"min=0"`
	Price       int64  `json:"price" binding:"min=0"`
	Image       string `json:"image" binding:"omitempty,url"`
}

// Apply copies the input onto c.
func (in CarInput) Apply(c *Car) {
	c.Company = in.Company
	c.Description = in.Description
	c.Engine = in.Engine
	c.Color = in.Color
	c.Mileage = in.Mileage
	c.Price = in.Price
	c.Image = in.Image
}
