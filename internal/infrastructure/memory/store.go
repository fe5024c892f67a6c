// Package memory keeps every store in process. It backs --store=memory and
// the tests, and enforces the same live-slot uniqueness as the Postgres
// partial index.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/onereserve/internal/domain/booking"
)

type slotKey struct {
	serviceID, date, startTime string
}

type Store struct {
	mu sync.RWMutex

	merchants    map[string]booking.Merchant
	services     map[string]booking.Service
	templates    []booking.SlotTemplate
	reservations map[string]booking.Reservation
	order        []string
	active       map[slotKey]string
	users        map[string]booking.MerchantUser // by email
}

func New() *Store {
	return &Store{
		merchants:    make(map[string]booking.Merchant),
		services:     make(map[string]booking.Service),
		reservations: make(map[string]booking.Reservation),
		active:       make(map[slotKey]string),
		users:        make(map[string]booking.MerchantUser),
	}
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) AddMerchant(m booking.Merchant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merchants[m.ID] = m
}

func (s *Store) AddService(svc booking.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = svc
}

func (s *Store) AddTemplate(t booking.SlotTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, t)
}

func (s *Store) GetService(ctx context.Context, id string) (booking.Service, error) {
	if err := ctx.Err(); err != nil {
		return booking.Service{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return booking.Service{}, booking.ErrServiceNotFound
	}
	return svc, nil
}

func (s *Store) GetMerchant(ctx context.Context, id string) (booking.Merchant, error) {
	if err := ctx.Err(); err != nil {
		return booking.Merchant{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.merchants[id]
	if !ok {
		return booking.Merchant{}, booking.ErrMerchantNotFound
	}
	return m, nil
}

func (s *Store) ListTemplates(ctx context.Context, serviceID string, weekday *time.Weekday) ([]booking.SlotTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.SlotTemplate
	for _, t := range s.templates {
		if t.ServiceID != serviceID {
			continue
		}
		if weekday != nil && t.Weekday != *weekday {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) ListReservations(ctx context.Context, q booking.ReservationQuery) ([]booking.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.Reservation
	for _, id := range s.order {
		r := s.reservations[id]
		if r.ServiceID != q.ServiceID {
			continue
		}
		if q.Date != "" && r.Date != q.Date {
			continue
		}
		if q.StartTime != "" && r.StartTime != q.StartTime {
			continue
		}
		if q.ExcludeStatus != "" && r.Status == q.ExcludeStatus {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// InsertReservation checks and inserts under one lock, so two concurrent
// inserts for the same live slot cannot both succeed.
func (s *Store) InsertReservation(ctx context.Context, r booking.Reservation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.reservations[r.ID]; dup {
		return "", booking.ErrConstraintViolation
	}
	k := slotKey{r.ServiceID, r.Date, r.StartTime}
	if r.Status.HoldsSlot() {
		if _, taken := s.active[k]; taken {
			return "", booking.ErrConstraintViolation
		}
		s.active[k] = r.ID
	}
	s.reservations[r.ID] = r
	s.order = append(s.order, r.ID)
	return r.ID, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (booking.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return booking.Reservation{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	return r, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, from, to booking.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return booking.ErrReservationNotFound
	}
	if r.Status != from {
		return booking.ErrInvalidTransition
	}
	k := slotKey{r.ServiceID, r.Date, r.StartTime}
	if to.HoldsSlot() && !from.HoldsSlot() {
		if _, taken := s.active[k]; taken {
			return booking.ErrConstraintViolation
		}
		s.active[k] = r.ID
	}
	if !to.HoldsSlot() && s.active[k] == r.ID {
		delete(s.active, k)
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	s.reservations[id] = r
	return nil
}

func (s *Store) ListByMerchant(ctx context.Context, merchantID, fromDate, toDate string) ([]booking.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.Reservation
	for _, id := range s.order {
		r := s.reservations[id]
		if r.MerchantID != merchantID {
			continue
		}
		if fromDate != "" && r.Date < fromDate {
			continue
		}
		if toDate != "" && r.Date > toDate {
			continue
		}
		out = append(out, r)
	}
	// Rows for the same slot keep insertion order.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (s *Store) CreateMerchantUser(ctx context.Context, u booking.MerchantUser) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, dup := s.users[key]; dup {
		return booking.ErrConstraintViolation
	}
	s.users[key] = u
	return nil
}

func (s *Store) GetMerchantUserByEmail(ctx context.Context, email string) (booking.MerchantUser, error) {
	if err := ctx.Err(); err != nil {
		return booking.MerchantUser{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return booking.MerchantUser{}, booking.ErrNotFound
	}
	return u, nil
}
