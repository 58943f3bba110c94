package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"car-listing-service/internal/apperr"
)

func TestObserveStore_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(StoreQueryErrors.WithLabelValues("memory", "test.op"))

	var ok error
	ObserveStore("memory", "test.op", time.Now(), &ok)
	assert.Equal(t, before, testutil.ToFloat64(StoreQueryErrors.WithLabelValues("memory", "test.op")))

	failed := errors.New("boom")
	ObserveStore("memory", "test.op", time.Now(), &failed)
	assert.Equal(t, before+1, testutil.ToFloat64(StoreQueryErrors.WithLabelValues("memory", "test.op")))
}

func TestObserveStore_IgnoresExpectedOutcomes(t *testing.T) {
	counter := StoreQueryErrors.WithLabelValues("memory", "test.expected")
	before := testutil.ToFloat64(counter)

	for _, err := range []error{
		apperr.NotFound("car %s not found", "x"),
		apperr.Validation("duplicate"),
		apperr.Forbidden("not yours"),
	} {
		ObserveStore("memory", "test.expected", time.Now(), &err)
	}
	assert.Equal(t, before, testutil.ToFloat64(counter))

	wrapped := apperr.Store("ListingRepository.Find", errors.New("connection reset"))
	ObserveStore("memory", "test.expected", time.Now(), &wrapped)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
