// Package analytics records usage events. Recording never fails the
// operation being tracked.
package analytics

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event names.
const (
	ClientsList     = "clients_list"
	ClientCreate    = "client_create"
	ClientUpdate    = "client_update"
	ClientDetail    = "client_detail"
	ClientImport    = "client_import"
	TxCreate        = "tx_create"
	TxUpdate        = "tx_update"
	TxPaid          = "tx_paid"
	PaymentCreate   = "payment_create"
	PaymentDelete   = "payment_delete"
	StatementExport = "statement_export"
)

// Categories.
const (
	CategoryView   = "view"
	CategoryAction = "action"
)

type Event struct {
	ID        int64             `gorm:"primaryKey"`
	Name      string            `gorm:"size:80;not null"`
	Category  string            `gorm:"size:40"`
	Label     string            `gorm:"size:120"`
	Value     *float64          `gorm:"type:numeric(14,2)"`
	Extra     datatypes.JSONMap `gorm:"type:jsonb"`
	Path      string            `gorm:"size:255"`
	Method    string            `gorm:"size:8"`
	IP        string            `gorm:"size:45"`
	UserAgent string            `gorm:"size:500"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
}

func (Event) TableName() string {
	return "analytics_events"
}

type Store interface {
	Insert(ctx context.Context, e *Event) error
}

type Tracker struct {
	store Store
}

// NewTracker returns a tracker writing to store. A nil store discards events.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Track records e, truncating fields to their column sizes. Errors are
// logged and dropped.
func (t *Tracker) Track(ctx context.Context, e Event) {
	if t == nil || t.store == nil {
		return
	}

	e.Name = clip(e.Name, 80)
	e.Category = clip(e.Category, 40)
	e.Label = clip(e.Label, 120)
	e.Path = clip(e.Path, 255)
	e.Method = clip(e.Method, 8)
	e.IP = clip(e.IP, 45)
	e.UserAgent = clip(e.UserAgent, 500)

	if e.Extra == nil {
		e.Extra = datatypes.JSONMap{}
	}

	if err := t.store.Insert(ctx, &e); err != nil {
		slog.WarnContext(ctx, "failed to track event", "event", e.Name, "error", err)
	}
}

// TrackRequest records an event carrying the request's path, method, client
// IP and user agent.
func (t *Tracker) TrackRequest(r *http.Request, e Event) {
	e.Path = r.URL.Path
	e.Method = r.Method
	e.IP = ClientIP(r)
	e.UserAgent = r.UserAgent()

	t.Track(r.Context(), e)
}

// ClientIP prefers the first X-Forwarded-For hop over the remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}

// GormStore persists events with gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, e *Event) error {
	return s.db.WithContext(ctx).Create(e).Error
}
