// Package query describes store-independent predicates and aggregation
// plans over the marketplace collections.
//
// A predicate or plan is built once by a service and compiled by each
// storage backend: to bson for MongoDB, to SQL for PostgreSQL, or
// evaluated directly over rows by the memory store.
package query

import "time"

// Field is a logical attribute name shared by all backends.
type Field string

const (
	FieldID          Field = "id"
	FieldCompany     Field = "company"
	FieldDescription Field = "description"
	FieldEngine      Field = "engine"
	FieldColor       Field = "color"
	FieldMileage     Field = "mileage"
	FieldPrice       Field = "price"
	FieldImage       Field = "image"
	FieldCreatedAt   Field = "createdAt"
	FieldOwner       Field = "owner"
	FieldCar         Field = "car"
	FieldViewer      Field = "viewer"
	FieldIP          Field = "ip"
	FieldCount       Field = "count"
)

// Collection names a source of rows.
type Collection string

const (
	Cars      Collection = "cars"
	Views     Collection = "views"
	Reviews   Collection = "reviews"
	Favorites Collection = "favorites"
	Users     Collection = "users"
)

// Predicate is a boolean condition over one row.
type Predicate interface {
	predicate()
}

// And matches when every term matches. An empty And matches everything.
type And []Predicate

// Or matches when any term matches. An empty Or matches nothing.
type Or []Predicate

// Contains is a case-insensitive substring match.
type Contains struct {
	Field Field
	Value string
}

// EqualFold is a case-insensitive equality match.
type EqualFold struct {
	Field Field
	Value string
}

// InFold matches when the field case-insensitively equals any value.
type InFold struct {
	Field  Field
	Values []string
}

// Range is an inclusive numeric range; nil bounds are open.
type Range struct {
	Field Field
	Min   *int64
	Max   *int64
}

// Since matches rows whose time field is at or after Time.
type Since struct {
	Field Field
	Time  time.Time
}

// Equal is an exact equality match.
type Equal struct {
	Field Field
	Value any
}

// IDIn matches rows whose identifier is one of the given ids.
type IDIn []string

// NotID excludes one identifier.
type NotID string

func (And) predicate()       {}
func (Or) predicate()        {}
func (Contains) predicate()  {}
func (EqualFold) predicate() {}
func (InFold) predicate()    {}
func (Range) predicate()     {}
func (Since) predicate()     {}
func (Equal) predicate()     {}
func (IDIn) predicate()      {}
func (NotID) predicate()     {}

// All returns the predicate that matches every row.
func All() Predicate { return And{} }

// Conj joins the non-nil predicates into an And, flattening a single term.
func Conj(ps ...Predicate) Predicate {
	out := make(And, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// Direction is a sort direction.
type Direction int

const (
	Asc  Direction = 1
	Desc Direction = -1
)

func (d Direction) String() string {
	if d == Asc {
		return "asc"
	}
	return "desc"
}

// SortKey orders rows by one field.
type SortKey struct {
	Field Field
	Dir   Direction
}

// Spec is a filtered, sorted and paginated read.
type Spec struct {
	Filter Predicate
	Sort   []SortKey
	Skip   int64
	Limit  int64
}

// Extent is the min/max of a numeric field. Empty is true when no rows exist.
type Extent struct {
	Min   int64
	Max   int64
	Empty bool
}
