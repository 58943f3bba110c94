package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"car-listing-service/internal/apperr"
	"car-listing-service/internal/logging"
	"car-listing-service/internal/metrics"
	"car-listing-service/internal/model"
)

const (
	// DedupWindow is how long a (car, ip) pair is counted only once.
	DedupWindow = 5 * time.Minute
	// RecentWindow bounds the recentViews figure of Stats.
	RecentWindow = 7 * 24 * time.Hour

	maxUserAgent = 512
	lockStripes  = 256
)

// ViewService records and summarises car views.
type ViewService struct {
	cars      ListingRepository
	views     ViewRepository
	favorites FavoriteRepository
	locks     *keyLock
	now       func() time.Time
}

func NewViewService(cars ListingRepository, views ViewRepository, favorites FavoriteRepository) *ViewService {
	return &ViewService{
		cars:      cars,
		views:     views,
		favorites: favorites,
		locks:     newKeyLock(lockStripes),
		now:       time.Now,
	}
}

// WithClock replaces the time source.
func (s *ViewService) WithClock(now func() time.Time) *ViewService {
	s.now = now
	return s
}

// Record stores a view of carID from ip unless the same pair was recorded
// within DedupWindow. viewerID is empty for anonymous visitors.
//
// Requests for the same pair are serialized inside this process, and the
// store write is itself conditional, so concurrent instances can at worst
// double count a pair that races across them.
func (s *ViewService) Record(ctx context.Context, carID, viewerID, ip, userAgent string) (bool, error) {
	if ip == "" {
		return false, apperr.Validation("client address is required")
	}
	exists, err := s.cars.Exists(ctx, carID)
	if err != nil {
		return false, fmt.Errorf("ViewService.Record: %w", err)
	}
	if !exists {
		return false, apperr.NotFound("car %s not found", carID)
	}
	userAgent = truncateUTF8(userAgent, maxUserAgent)

	unlock := s.locks.Lock(carID + "\x00" + ip)
	defer unlock()

	ev := &model.ViewEvent{
		CarID:     carID,
		ViewerID:  viewerID,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: s.now().UTC(),
	}
	recorded, err := s.views.RecordIfAbsent(ctx, ev, DedupWindow)
	if err != nil {
		return false, fmt.Errorf("ViewService.Record: %w", err)
	}

	result := "duplicate"
	if recorded {
		result = "recorded"
	}
	metrics.ViewEvents.WithLabelValues(result).Inc()
	logging.Ctx(ctx).Debug().
		Str("car_id", carID).
		Str("ip", ip).
		Bool("recorded", recorded).
		Msg("view")
	return recorded, nil
}

// Stats summarises the views and favorites of carID.
func (s *ViewService) Stats(ctx context.Context, carID string) (*model.ViewStats, error) {
	exists, err := s.cars.Exists(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("ViewService.Stats: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("car %s not found", carID)
	}

	st, err := s.views.Stats(ctx, carID, s.now().UTC().Add(-RecentWindow))
	if err != nil {
		return nil, fmt.Errorf("ViewService.Stats: %w", err)
	}
	favs, err := s.favorites.CountByCar(ctx, carID)
	if err != nil {
		return nil, fmt.Errorf("ViewService.Stats: %w", err)
	}
	st.CarID = carID
	st.Favorites = favs
	return &st, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune. Invalid
// sequences already in s are replaced so the result is always valid UTF-8.
func truncateUTF8(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
