package analytics_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/cartera/internal/analytics"
)

type recordingStore struct {
	events []*analytics.Event
	err    error
}

func (s *recordingStore) Insert(_ context.Context, e *analytics.Event) error {
	s.events = append(s.events, e)
	return s.err
}

func TestTracker_TrackRequest(t *testing.T) {
	store := &recordingStore{}
	tracker := analytics.NewTracker(store)

	req := httptest.NewRequest("POST", "/api/v1/transactions/abc/payments", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "cartera-test")

	tracker.TrackRequest(req, analytics.Event{
		Name:     analytics.PaymentCreate,
		Category: analytics.CategoryAction,
		Label:    "tx_id=abc",
		Extra:    map[string]any{"value": 40000.0},
	})

	require.Len(t, store.events, 1)

	e := store.events[0]
	assert.Equal(t, "payment_create", e.Name)
	assert.Equal(t, "/api/v1/transactions/abc/payments", e.Path)
	assert.Equal(t, "POST", e.Method)
	assert.Equal(t, "203.0.113.7", e.IP)
	assert.Equal(t, "cartera-test", e.UserAgent)
	assert.Equal(t, 40000.0, e.Extra["value"])
}

func TestTracker_SwallowsErrors(t *testing.T) {
	store := &recordingStore{err: errors.New("db down")}

	assert.NotPanics(t, func() {
		analytics.NewTracker(store).Track(context.Background(), analytics.Event{Name: "x"})
	})
	assert.Len(t, store.events, 1)
}

func TestTracker_NilStore(t *testing.T) {
	assert.NotPanics(t, func() {
		analytics.NewTracker(nil).Track(context.Background(), analytics.Event{Name: "x"})

		var tr *analytics.Tracker
		tr.Track(context.Background(), analytics.Event{Name: "x"})
	})
}

func TestTracker_ClipsFields(t *testing.T) {
	store := &recordingStore{}

	analytics.NewTracker(store).Track(context.Background(), analytics.Event{
		Name:  strings.Repeat("n", 100),
		Label: strings.Repeat("ñ", 200),
	})

	require.Len(t, store.events, 1)
	assert.Len(t, store.events[0].Name, 80)
	assert.Equal(t, 120, len([]rune(store.events[0].Label)))
	assert.NotNil(t, store.events[0].Extra)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"

	assert.Equal(t, "192.0.2.1", analytics.ClientIP(req))
}
