package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
)

// memDB is an in-memory stand-in for Postgres shared by the fake
// repositories below. WithTx snapshots state and restores it on error.
type memDB struct {
	mu sync.Mutex
	tx sync.Mutex

	bookings        map[uuid.UUID]*entity.Booking
	selected        map[uuid.UUID][]entity.SelectedService
	payments        []*entity.Payment
	cancellations   map[uuid.UUID]*entity.Cancellation
	placed          []*entity.PlacedElement
	projectServices []*entity.ProjectService
	projects        map[uuid.UUID]*entity.Project
	listings        map[uuid.UUID]*entity.ServiceListing

	// failure injection
	findErr       func(repository.BookingFilter) error
	paymentsErr   map[uuid.UUID]error
	unlinkErr     map[uuid.UUID]error
	projectPanics bool

	findCalls []repository.BookingFilter
}

func newMemDB() *memDB {
	return &memDB{
		bookings:      map[uuid.UUID]*entity.Booking{},
		selected:      map[uuid.UUID][]entity.SelectedService{},
		cancellations: map[uuid.UUID]*entity.Cancellation{},
		projects:      map[uuid.UUID]*entity.Project{},
		listings:      map[uuid.UUID]*entity.ServiceListing{},
		paymentsErr:   map[uuid.UUID]error{},
		unlinkErr:     map[uuid.UUID]error{},
	}
}

func (m *memDB) repository() *repository.Repository {
	return &repository.Repository{
		Booking:        &memBookings{m},
		Payment:        &memPayments{m},
		Cancellation:   &memCancellations{m},
		DesignItem:     &memDesignItems{m},
		Project:        &memProjects{m},
		ServiceListing: &memListings{m},
		Tx:             m,
	}
}

func (m *memDB) WithTx(ctx context.Context, fn func(tx *repository.Repository) error) error {
	m.tx.Lock()
	defer m.tx.Unlock()

	snap := m.snapshot()
	if err := fn(m.repository()); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	bookings        map[uuid.UUID]entity.Booking
	cancellations   map[uuid.UUID]*entity.Cancellation
	placed          []entity.PlacedElement
	projectServices []entity.ProjectService
}

func (m *memDB) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := memSnapshot{
		bookings:      make(map[uuid.UUID]entity.Booking, len(m.bookings)),
		cancellations: make(map[uuid.UUID]*entity.Cancellation, len(m.cancellations)),
	}
	for id, b := range m.bookings {
		s.bookings[id] = *b
	}
	for id, c := range m.cancellations {
		s.cancellations[id] = c
	}
	for _, p := range m.placed {
		s.placed = append(s.placed, *p)
	}
	for _, p := range m.projectServices {
		s.projectServices = append(s.projectServices, *p)
	}
	return s
}

func (m *memDB) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, b := range s.bookings {
		*m.bookings[id] = b
	}
	m.cancellations = s.cancellations
	for i := range m.placed {
		*m.placed[i] = s.placed[i]
	}
	for i := range m.projectServices {
		*m.projectServices[i] = s.projectServices[i]
	}
}

// ==================== SEED HELPERS ====================

func (m *memDB) addBooking(b *entity.Booking) *entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CoupleID == uuid.Nil {
		b.CoupleID = uuid.New()
	}
	m.bookings[b.ID] = b
	return b
}

func (m *memDB) addPayment(bookingID uuid.UUID, t entity.PaymentType, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, &entity.Payment{
		BaseSimple:  entity.BaseSimple{ID: uuid.New()},
		BookingID:   bookingID,
		Amount:      amount,
		PaymentType: t,
	})
}

func (m *memDB) addDesignItems(b *entity.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := b.ID
	m.placed = append(m.placed, &entity.PlacedElement{
		Base: entity.Base{ID: uuid.New()}, ProjectID: b.ProjectID, BookingID: &id, IsBooked: true,
	})
	m.projectServices = append(m.projectServices, &entity.ProjectService{
		Base: entity.Base{ID: uuid.New()}, ProjectID: b.ProjectID, ServiceListingID: b.ServiceListingID, BookingID: &id, IsBooked: true,
	})
}

func (m *memDB) booking(id uuid.UUID) entity.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bookings[id]
}

func (m *memDB) cancellation(bookingID uuid.UUID) *entity.Cancellation {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cancellations {
		if c.BookingID == bookingID {
			return c
		}
	}
	return nil
}

func (m *memDB) linkedDesignItems(bookingID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.placed {
		if p.BookingID != nil && *p.BookingID == bookingID {
			n++
		}
	}
	for _, p := range m.projectServices {
		if p.BookingID != nil && *p.BookingID == bookingID {
			n++
		}
	}
	return n
}

// ==================== FAKE REPOSITORIES ====================

type memBookings struct{ m *memDB }

func (r *memBookings) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (r *memBookings) Find(ctx context.Context, f repository.BookingFilter) ([]*entity.Booking, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.findCalls = append(r.m.findCalls, f)
	if r.m.findErr != nil {
		if err := r.m.findErr(f); err != nil {
			return nil, err
		}
	}

	var out []*entity.Booking
	for _, b := range r.m.bookings {
		if r.m.matches(f, b) {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReservedDate.Equal(out[j].ReservedDate) {
			return out[i].ReservedDate.Before(out[j].ReservedDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func inRange(t *time.Time, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if t == nil {
		return false
	}
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// matches must be called with mu held.
func (m *memDB) matches(f repository.BookingFilter, b *entity.Booking) bool {
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if b.Status == s {
				ok = true
			}
		}
		if !ok {
			return false
		}
	}
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	if f.ProjectID != nil && b.ProjectID != *f.ProjectID {
		return false
	}
	if f.ExcludeID != nil && b.ID == *f.ExcludeID {
		return false
	}
	if f.DependsOnVenueBookingID != nil &&
		(b.DependsOnVenueBookingID == nil || *b.DependsOnVenueBookingID != *f.DependsOnVenueBookingID) {
		return false
	}
	if f.PendingVenueReplacement != nil && b.IsPendingVenueReplacement != *f.PendingVenueReplacement {
		return false
	}
	if f.HasCancellation != nil {
		has := false
		for _, c := range m.cancellations {
			if c.BookingID == b.ID {
				has = true
			}
		}
		if has != *f.HasCancellation {
			return false
		}
	}
	if !inRange(b.DepositDueDate, f.DepositDueFrom, f.DepositDueTo) ||
		!inRange(b.FinalDueDate, f.FinalDueFrom, f.FinalDueTo) ||
		!inRange(&b.ReservedDate, f.ReservedFrom, f.ReservedTo) {
		return false
	}
	if f.ReservedOn != nil && !utils.DateOnly(b.ReservedDate).Equal(utils.DateOnly(*f.ReservedOn)) {
		return false
	}
	if f.WithoutPaymentType != "" {
		for _, p := range m.payments {
			if p.BookingID == b.ID && p.PaymentType == f.WithoutPaymentType {
				return false
			}
		}
	}
	return true
}

func (r *memBookings) FindSelectedServices(ctx context.Context, bookingID uuid.UUID) ([]entity.SelectedService, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]entity.SelectedService(nil), r.m.selected[bookingID]...), nil
}

func (r *memBookings) MarkCancelled(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[bookingID]
	if !ok || b.Status.IsTerminal() {
		return fmt.Errorf("cancel booking %s: %w", bookingID, repository.ErrStaleStatus)
	}
	b.Status = status
	b.IsPendingVenueReplacement = false
	return nil
}

func (r *memBookings) ScheduleFinalPayment(ctx context.Context, bookingID uuid.UUID, finalDueDate time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	b, ok := r.m.bookings[bookingID]
	if !ok || b.Status != entity.BookingStatusConfirmed {
		return fmt.Errorf("schedule final payment for booking %s: %w", bookingID, repository.ErrStaleStatus)
	}
	b.Status = entity.BookingStatusPendingFinalPayment
	due := finalDueDate
	b.FinalDueDate = &due
	return nil
}

type memPayments struct{ m *memDB }

func (r *memPayments) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.paymentsErr[bookingID]; err != nil {
		return nil, err
	}
	var out []*entity.Payment
	for _, p := range r.m.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memCancellations struct{ m *memDB }

func (r *memCancellations) Create(ctx context.Context, c *entity.Cancellation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.cancellations {
		if existing.BookingID == c.BookingID {
			return errors.New("duplicate key value violates unique constraint \"cancellations_booking_id_key\"")
		}
	}
	r.m.cancellations[c.ID] = c
	return nil
}

type memDesignItems struct{ m *memDB }

func (r *memDesignItems) UnlinkBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.unlinkErr[bookingID]; err != nil {
		return 0, err
	}
	var n int64
	for _, p := range r.m.placed {
		if p.BookingID != nil && *p.BookingID == bookingID {
			p.BookingID, p.IsBooked = nil, false
			n++
		}
	}
	for _, p := range r.m.projectServices {
		if p.BookingID != nil && *p.BookingID == bookingID {
			p.BookingID, p.IsBooked = nil, false
			n++
		}
	}
	return n, nil
}

type memProjects struct{ m *memDB }

func (r *memProjects) FindByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.projectPanics {
		panic("project store exploded")
	}
	p, ok := r.m.projects[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

type memListings struct{ m *memDB }

func (r *memListings) FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceListing, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.listings[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

// ==================== RECORDING NOTIFIER ====================

type sentNotification struct {
	Kind      string
	BookingID uuid.UUID
	Status    entity.BookingStatus
	Reason    string
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []sentNotification
	err   error
	panic bool
}

func (n *recordingNotifier) record(kind string, b *entity.Booking, reason string) error {
	if n.panic {
		panic("notifier exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Kind: kind, BookingID: b.ID, Status: b.Status, Reason: reason})
	return n.err
}

func (n *recordingNotifier) SendAutoCancellationNotification(ctx context.Context, b *entity.Booking, reason string) error {
	return n.record("auto_cancelled", b, reason)
}

func (n *recordingNotifier) SendDepositDueDateReminder(ctx context.Context, b *entity.Booking) error {
	return n.record("deposit_reminder", b, "")
}

func (n *recordingNotifier) SendFinalPaymentDueDateReminder(ctx context.Context, b *entity.Booking) error {
	return n.record("final_reminder", b, "")
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNotification(nil), n.sent...)
}
