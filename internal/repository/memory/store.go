// Package memory is an in-process store with the same surface as the
// MongoDB and PostgreSQL repositories. It backs tests and local runs.
package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"car-listing-service/internal/model"
	"car-listing-service/internal/query"
)

type db struct {
	mu        sync.RWMutex
	cars      map[string]model.Car
	users     map[string]model.User
	reviews   []model.Review
	views     []model.ViewEvent
	favorites []model.Favorite
}

// Store groups the repositories sharing one in-memory database.
type Store struct {
	Listings  *ListingRepository
	Reviews   *ReviewRepository
	Views     *ViewRepository
	Favorites *FavoriteRepository

	db *db
}

func NewStore() *Store {
	d := &db{
		cars:  map[string]model.Car{},
		users: map[string]model.User{},
	}
	return &Store{
		Listings:  &ListingRepository{db: d},
		Reviews:   &ReviewRepository{db: d},
		Views:     &ViewRepository{db: d},
		Favorites: &FavoriteRepository{db: d},
		db:        d,
	}
}

// PutUser adds or replaces a user account.
func (s *Store) PutUser(u model.User) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.users[u.ID] = u
}

func newID() string {
	return uuid.NewString()
}

func carRow(c model.Car) query.Row {
	return query.Row{
		query.FieldID:          c.ID,
		query.FieldOwner:       c.OwnerID,
		query.FieldCompany:     c.Company,
		query.FieldDescription: c.Description,
		query.FieldEngine:      c.Engine,
		query.FieldColor:       c.Color,
		query.FieldMileage:     c.Mileage,
		query.FieldPrice:       c.Price,
		query.FieldImage:       c.Image,
		query.FieldCreatedAt:   c.CreatedAt,
	}
}

func viewRow(v model.ViewEvent) query.Row {
	return query.Row{
		query.FieldID:        v.ID,
		query.FieldCar:       v.CarID,
		query.FieldViewer:    v.ViewerID,
		query.FieldIP:        v.IP,
		query.FieldCreatedAt: v.CreatedAt,
	}
}

// sortedCars returns the cars in id order; callers hold the read lock.
func (d *db) sortedCars() []model.Car {
	out := make([]model.Car, 0, len(d.cars))
	for _, c := range d.cars {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *db) withOwner(c model.Car) model.Car {
	if u, ok := d.users[c.OwnerID]; ok {
		c.Owner = &u
	}
	return c
}
