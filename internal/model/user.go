package model

// User is the read-only view of a marketplace account.
type User struct {
	ID    string `db:"id" bson:"_id" json:"id"`
	Name  string `db:"name" bson:"name" json:"name"`
	Email string `db:"email" bson:"email" json:"email,omitempty"`
}
