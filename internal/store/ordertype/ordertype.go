// Package ordertype tracks the active fulfillment mode and the reservation
// fields attached to PICKUP and TABLE flows. State is persisted so an
// interrupted checkout resumes where it left off.
package ordertype

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/domain"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/kv"
)

const storageKey = "ordertype/state"

// ReservationData holds the fields collected by the reservation screens.
// Date is stored as YYYY-MM-DD, Time as HH:MM.
type ReservationData struct {
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	TableType string `json:"table_type,omitempty"`
	Places    int    `json:"places,omitempty"`
}

// ReservationUpdate is a partial update; nil fields are left untouched
// (shallow merge).
type ReservationUpdate struct {
	Date      *string
	Time      *string
	TableType *string
	Places    *int
}

// FormattedReservation is the shape the backend expects at order creation,
// with the date rendered DD/MM/YYYY.
type FormattedReservation struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	TableType string `json:"table_type"`
	Places    int    `json:"places"`
}

type persisted struct {
	ActiveType  domain.OrderType `json:"active_type"`
	Reservation ReservationData  `json:"reservation"`
}

// Store holds the active type and reservation data. A fresh store with no
// persisted state defaults to DELIVERY.
type Store struct {
	mu          sync.RWMutex
	kv          *kv.Store
	logger      *slog.Logger
	active      domain.OrderType
	reservation ReservationData
}

func New(ctx context.Context, store *kv.Store, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{kv: store, logger: logger, active: domain.OrderTypeDelivery}
	if store != nil {
		var p persisted
		ok, err := store.Get(ctx, storageKey, &p)
		if err != nil {
			return nil, fmt.Errorf("ordertype: load: %w", err)
		}
		if ok && p.ActiveType.Valid() {
			s.active = p.ActiveType
			s.reservation = p.Reservation
		}
	}
	return s, nil
}

// ActiveType returns the current fulfillment mode.
func (s *Store) ActiveType() domain.OrderType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActiveType switches modes. Invalid values are rejected.
func (s *Store) SetActiveType(ctx context.Context, t domain.OrderType) error {
	if !t.Valid() {
		return fmt.Errorf("ordertype: %w: %q", domain.ErrInvalidOrderType, t)
	}
	s.mu.Lock()
	s.active = t
	s.mu.Unlock()
	return s.persist(ctx)
}

// SetTypeIfValid applies a raw value arriving from outside (deep links,
// navigation params) only when it names a known mode. It reports whether
// the value was applied.
func (s *Store) SetTypeIfValid(ctx context.Context, raw string) bool {
	t := domain.OrderType(raw)
	if !t.Valid() {
		s.logger.Warn("ignoring invalid order type", "value", raw)
		return false
	}
	return s.SetActiveType(ctx, t) == nil
}

// Reservation returns a copy of the reservation fields.
func (s *Store) Reservation() ReservationData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reservation
}

// SetReservationData shallow-merges the non-nil fields of the update.
func (s *Store) SetReservationData(ctx context.Context, u ReservationUpdate) error {
	s.mu.Lock()
	if u.Date != nil {
		s.reservation.Date = *u.Date
	}
	if u.Time != nil {
		s.reservation.Time = *u.Time
	}
	if u.TableType != nil {
		s.reservation.TableType = *u.TableType
	}
	if u.Places != nil {
		s.reservation.Places = *u.Places
	}
	s.mu.Unlock()
	return s.persist(ctx)
}

// ResetReservationData clears the reservation fields only.
func (s *Store) ResetReservationData(ctx context.Context) error {
	s.mu.Lock()
	s.reservation = ReservationData{}
	s.mu.Unlock()
	return s.persist(ctx)
}

// ResetToDefault returns to DELIVERY with no reservation.
func (s *Store) ResetToDefault(ctx context.Context) error {
	s.mu.Lock()
	s.active = domain.OrderTypeDelivery
	s.reservation = ReservationData{}
	s.mu.Unlock()
	return s.persist(ctx)
}

// FormattedReservation converts the stored fields into the backend payload
// shape. It returns nil — logged as a warning, not an error — when date,
// time or table type is missing, or when the date cannot be parsed.
func (s *Store) FormattedReservation() *FormattedReservation {
	s.mu.RLock()
	r := s.reservation
	s.mu.RUnlock()

	if r.Date == "" || r.Time == "" || r.TableType == "" {
		s.logger.Warn("reservation data incomplete",
			"date", r.Date, "time", r.Time, "table_type", r.TableType)
		return nil
	}

	formatted, err := FormatDate(r.Date)
	if err != nil {
		s.logger.Warn("reservation date unparseable", "date", r.Date, "error", err)
		return nil
	}

	return &FormattedReservation{
		Date:      formatted,
		Time:      r.Time,
		TableType: r.TableType,
		Places:    r.Places,
	}
}

// FormatDate renders a stored YYYY-MM-DD date as DD/MM/YYYY.
// Already-formatted values pass through unchanged.
func FormatDate(date string) (string, error) {
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.Format("02/01/2006"), nil
	}
	if _, err := time.Parse("02/01/2006", date); err == nil {
		return date, nil
	}
	return "", fmt.Errorf("unsupported date format %q", date)
}

func (s *Store) persist(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	s.mu.RLock()
	p := persisted{ActiveType: s.active, Reservation: s.reservation}
	s.mu.RUnlock()
	if err := s.kv.Put(ctx, storageKey, p); err != nil {
		return fmt.Errorf("ordertype: persist: %w", err)
	}
	return nil
}
