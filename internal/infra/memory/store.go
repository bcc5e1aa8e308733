// Package memory is an in-process booking.Repository with the same
// conditional-update and uniqueness rules as the Postgres store. Transactions
// serialize on a single mutex and roll back by restoring a snapshot.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/domain/payment"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

type state struct {
	providers  map[string]models.Provider
	services   map[string]models.Service
	customers  map[string]models.Customer
	affiliates map[string]models.Affiliate
	bookings   map[string]models.Booking
	payments   map[string]models.Payment
	webhooks   map[string]models.WebhookEvent
}

func newState() *state {
	return &state{
		providers:  map[string]models.Provider{},
		services:   map[string]models.Service{},
		customers:  map[string]models.Customer{},
		affiliates: map[string]models.Affiliate{},
		bookings:   map[string]models.Booking{},
		payments:   map[string]models.Payment{},
		webhooks:   map[string]models.WebhookEvent{},
	}
}

func (s *state) clone() *state {
	return &state{
		providers:  maps.Clone(s.providers),
		services:   maps.Clone(s.services),
		customers:  maps.Clone(s.customers),
		affiliates: maps.Clone(s.affiliates),
		bookings:   maps.Clone(s.bookings),
		payments:   maps.Clone(s.payments),
		webhooks:   maps.Clone(s.webhooks),
	}
}

type Store struct {
	mu   *sync.Mutex
	st   **state
	inTx bool
	now  func() time.Time
}

func New() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, st: &st, now: time.Now}
}

var _ domain.Repository = (*Store)(nil)

// lock takes the store mutex unless the caller already runs inside a
// transaction that holds it.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) data() *state {
	return *s.st
}

func (s *Store) Transaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.inTx {
		snapshot := s.data().clone()
		if err := fn(s); err != nil {
			*s.st = snapshot
			return err
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data().clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.st = snapshot
		return err
	}
	return nil
}

// -------- Seeding --------

func (s *Store) PutProvider(p models.Provider) models.Provider {
	defer s.lock()()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.data().providers[p.ID] = p
	return p
}

func (s *Store) PutService(v models.Service) models.Service {
	defer s.lock()()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	s.data().services[v.ID] = v
	return v
}

func (s *Store) PutAffiliate(a models.Affiliate) models.Affiliate {
	defer s.lock()()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.data().affiliates[a.ID] = a
	return a
}

func (s *Store) PutCustomer(c models.Customer) models.Customer {
	defer s.lock()()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.data().customers[c.ID] = c
	return c
}

func (s *Store) PutBooking(b models.Booking) models.Booking {
	defer s.lock()()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.data().bookings[b.ID] = b
	return b
}

func (s *Store) PutPayment(p models.Payment) models.Payment {
	defer s.lock()()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.data().payments[p.ID] = p
	return p
}

// PaymentsFor returns every payment of a booking, oldest first.
func (s *Store) PaymentsFor(bookingID string) []models.Payment {
	defer s.lock()()
	var out []models.Payment
	for _, p := range s.data().payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.Payment) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

func (s *Store) Affiliate(id string) (models.Affiliate, bool) {
	defer s.lock()()
	a, ok := s.data().affiliates[id]
	return a, ok
}

func (s *Store) WebhookEventCount() int {
	defer s.lock()()
	return len(s.data().webhooks)
}

// -------- Provider / Service --------

func (s *Store) GetProvider(_ context.Context, id string) (*models.Provider, error) {
	defer s.lock()()
	p, ok := s.data().providers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProviderByToken(_ context.Context, token string) (*models.Provider, error) {
	defer s.lock()()
	for _, p := range s.data().providers {
		if p.AccessToken == token && p.Active {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) UpdateProviderAccountFlags(_ context.Context, accountID string, chargesEnabled, payoutsEnabled bool) error {
	defer s.lock()()
	for id, p := range s.data().providers {
		if p.ExternalAccountID == accountID {
			p.ChargesEnabled = chargesEnabled
			p.PayoutsEnabled = payoutsEnabled
			p.UpdatedAt = s.now()
			s.data().providers[id] = p
		}
	}
	return nil
}

func (s *Store) GetActiveService(_ context.Context, providerID, serviceID string) (*models.Service, error) {
	defer s.lock()()
	v, ok := s.data().services[serviceID]
	if !ok || v.ProviderID != providerID || !v.Active {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (s *Store) ListActiveServices(_ context.Context, providerID, query string) ([]models.Service, error) {
	defer s.lock()()
	query = strings.TrimSpace(strings.ToLower(query))
	var out []models.Service
	for _, v := range s.data().services {
		if v.ProviderID != providerID || !v.Active {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(v.Name), query) {
			continue
		}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b models.Service) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// -------- Customer --------

func (s *Store) FindCustomerByPhone(_ context.Context, phone string) (*models.Customer, error) {
	defer s.lock()()
	for _, c := range s.data().customers {
		if c.Phone == phone {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) FindCustomerByReferralCode(_ context.Context, code string) (*models.Customer, error) {
	defer s.lock()()
	for _, c := range s.data().customers {
		if c.ReferralCode == code {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) GetCustomer(_ context.Context, id string) (*models.Customer, error) {
	defer s.lock()()
	c, ok := s.data().customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *Store) GetCustomerForUpdate(ctx context.Context, id string) (*models.Customer, error) {
	return s.GetCustomer(ctx, id)
}

func (s *Store) CreateCustomer(_ context.Context, c *models.Customer) error {
	defer s.lock()()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for _, other := range s.data().customers {
		if other.ID == c.ID || other.Phone == c.Phone || other.ReferralCode == c.ReferralCode {
			return domain.ErrDuplicate
		}
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.data().customers[c.ID] = *c
	return nil
}

func (s *Store) SaveCustomer(_ context.Context, c *models.Customer) error {
	defer s.lock()()
	c.UpdatedAt = s.now()
	s.data().customers[c.ID] = *c
	return nil
}

func (s *Store) GrantReferralReward(_ context.Context, customerID string) (bool, error) {
	defer s.lock()()
	c, ok := s.data().customers[customerID]
	if !ok || c.ReferralRewardGranted {
		return false, nil
	}
	c.ReferralRewardGranted = true
	c.UpdatedAt = s.now()
	s.data().customers[customerID] = c
	return true, nil
}

func (s *Store) SetReferrerDiscountIfZero(_ context.Context, customerID string, pct int) (bool, error) {
	defer s.lock()()
	c, ok := s.data().customers[customerID]
	if !ok || c.NextBookingDiscountPct != 0 {
		return false, nil
	}
	c.NextBookingDiscountPct = pct
	c.UpdatedAt = s.now()
	s.data().customers[customerID] = c
	return true, nil
}

// -------- Affiliate --------

func (s *Store) FindAffiliateByCode(_ context.Context, code string) (*models.Affiliate, error) {
	defer s.lock()()
	for _, a := range s.data().affiliates {
		if a.Code == code {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) AccrueAffiliateBalance(_ context.Context, affiliateID string, cents int64) error {
	defer s.lock()()
	a, ok := s.data().affiliates[affiliateID]
	if !ok {
		return domain.ErrNotFound
	}
	a.BalanceCents += cents
	a.UpdatedAt = s.now()
	s.data().affiliates[affiliateID] = a
	return nil
}

// -------- Booking --------

func (s *Store) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	defer s.lock()()
	b, ok := s.data().bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (s *Store) GetBookingForUpdate(ctx context.Context, id string) (*models.Booking, error) {
	return s.GetBooking(ctx, id)
}

func (s *Store) GetBookingByToken(_ context.Context, kind domain.TokenKind, token string) (*models.Booking, error) {
	defer s.lock()()
	if token == "" {
		return nil, domain.ErrNotFound
	}
	for _, b := range s.data().bookings {
		var candidate string
		switch kind {
		case domain.TokenConfirm:
			candidate = b.CustomerConfirmToken
		case domain.TokenCancel:
			candidate = b.CustomerCancelToken
		case domain.TokenIssue:
			candidate = b.CustomerIssueToken
		}
		if candidate == token {
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) CreateBooking(_ context.Context, b *models.Booking) error {
	defer s.lock()()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, exists := s.data().bookings[b.ID]; exists {
		return domain.ErrDuplicate
	}
	now := s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	s.data().bookings[b.ID] = *b
	return nil
}

func (s *Store) SaveBooking(_ context.Context, b *models.Booking) error {
	defer s.lock()()
	b.UpdatedAt = s.now()
	s.data().bookings[b.ID] = *b
	return nil
}

func (s *Store) CompleteBooking(_ context.Context, id string, now time.Time) (bool, error) {
	defer s.lock()()
	b, ok := s.data().bookings[id]
	if !ok || b.CompletedAt != nil || b.Status != string(domain.StatusApproved) {
		return false, nil
	}
	b.Status = string(domain.StatusCompleted)
	b.CompletedAt = &now
	b.UpdatedAt = now
	s.data().bookings[id] = b
	return true, nil
}

func (s *Store) CountBookings(_ context.Context, customerID string) (int64, error) {
	defer s.lock()()
	var n int64
	for _, b := range s.data().bookings {
		if b.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountCompletedBookings(_ context.Context, customerID string) (int64, error) {
	defer s.lock()()
	var n int64
	for _, b := range s.data().bookings {
		if b.CustomerID == customerID && b.Status == string(domain.StatusCompleted) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListDueForAutoCharge(_ context.Context, now time.Time, limit int) ([]models.Booking, error) {
	defer s.lock()()
	var out []models.Booking
	for _, b := range s.data().bookings {
		if b.Status == string(domain.StatusApproved) &&
			b.CompletedAt == nil &&
			b.IssueReportedAt == nil &&
			b.ProviderConfirmedAt != nil &&
			b.AutoChargeAt != nil && !b.AutoChargeAt.After(now) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b models.Booking) int { return a.AutoChargeAt.Compare(*b.AutoChargeAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListOpenIssues(_ context.Context) ([]models.Booking, error) {
	defer s.lock()()
	var out []models.Booking
	for _, b := range s.data().bookings {
		if b.IssueReportedAt != nil && b.CompletedAt == nil {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b models.Booking) int { return a.IssueReportedAt.Compare(*b.IssueReportedAt) })
	return out, nil
}

func (s *Store) ClaimReviewRequest(_ context.Context, bookingID string, now time.Time) (bool, error) {
	defer s.lock()()
	b, ok := s.data().bookings[bookingID]
	if !ok || b.ReviewRequestedAt != nil {
		return false, nil
	}
	b.ReviewRequestedAt = &now
	s.data().bookings[bookingID] = b
	return true, nil
}

// -------- Payment --------

func (s *Store) CreatePayment(_ context.Context, p *models.Payment) error {
	defer s.lock()()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	for _, other := range s.data().payments {
		if other.ID == p.ID {
			return domain.ErrDuplicate
		}
		if other.BookingID == p.BookingID && other.Type == p.Type &&
			payment.Active(payment.Status(other.Status)) && payment.Active(payment.Status(p.Status)) {
			return domain.ErrDuplicate
		}
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.data().payments[p.ID] = *p
	return nil
}

func (s *Store) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	defer s.lock()()
	p, ok := s.data().payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *Store) FindActivePayment(_ context.Context, bookingID string, t payment.Type) (*models.Payment, error) {
	defer s.lock()()
	for _, p := range s.data().payments {
		if p.BookingID == bookingID && p.Type == string(t) && payment.Active(payment.Status(p.Status)) {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) FindPaymentByExternalRef(_ context.Context, ref string) (*models.Payment, error) {
	defer s.lock()()
	if ref == "" {
		return nil, domain.ErrNotFound
	}
	for _, p := range s.data().payments {
		if p.ExternalRef == ref {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) TransitionPayment(_ context.Context, id string, to payment.Status, mutate domain.PaymentMutation) (bool, error) {
	defer s.lock()()
	p, ok := s.data().payments[id]
	if !ok {
		return false, domain.ErrNotFound
	}

	from := payment.Status(p.Status)
	if err := payment.CanTransition(from, to); err != nil {
		return false, err
	}

	p.Status = string(to)
	if mutate != nil {
		mutate(&p)
	}
	p.UpdatedAt = s.now()
	s.data().payments[id] = p
	return from != to, nil
}

func (s *Store) ClaimReceipt(_ context.Context, paymentID string, now time.Time) (bool, error) {
	defer s.lock()()
	p, ok := s.data().payments[paymentID]
	if !ok || p.ReceiptSentAt != nil {
		return false, nil
	}
	p.ReceiptSentAt = &now
	s.data().payments[paymentID] = p
	return true, nil
}

// -------- Webhook --------

func (s *Store) InsertWebhookEvent(_ context.Context, ev *models.WebhookEvent) (domain.InsertResult, error) {
	defer s.lock()()
	if _, exists := s.data().webhooks[ev.ID]; exists {
		return domain.AlreadyPresent, nil
	}
	s.data().webhooks[ev.ID] = *ev
	return domain.Inserted, nil
}
