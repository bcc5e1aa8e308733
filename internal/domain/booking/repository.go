package booking

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/beauty-meet/internal/domain/payment"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

// ErrNotFound and ErrDuplicate are returned by every Repository
// implementation so callers never depend on a driver's error values.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type TokenKind string

const (
	TokenConfirm TokenKind = "confirm"
	TokenCancel  TokenKind = "cancel"
	TokenIssue   TokenKind = "issue"
)

type InsertResult int

const (
	Inserted InsertResult = iota
	AlreadyPresent
)

// PaymentMutation adjusts a payment alongside a status transition, e.g. to
// record the processor's charge reference.
type PaymentMutation func(p *models.Payment)

type Repository interface {
	// Transaction runs fn against a transactional view. Returning an error
	// rolls back every write made through that view.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// -------- Provider / Service --------
	GetProvider(ctx context.Context, id string) (*models.Provider, error)
	GetProviderByToken(ctx context.Context, token string) (*models.Provider, error)
	UpdateProviderAccountFlags(ctx context.Context, accountID string, chargesEnabled, payoutsEnabled bool) error
	GetActiveService(ctx context.Context, providerID, serviceID string) (*models.Service, error)
	// ListActiveServices returns the provider's active services by name; a
	// non-empty query filters on a case-insensitive name match.
	ListActiveServices(ctx context.Context, providerID, query string) ([]models.Service, error)

	// -------- Customer --------
	FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error)
	FindCustomerByReferralCode(ctx context.Context, code string) (*models.Customer, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	GetCustomerForUpdate(ctx context.Context, id string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, c *models.Customer) error
	SaveCustomer(ctx context.Context, c *models.Customer) error
	// GrantReferralReward flips referralRewardGranted from false to true and
	// reports whether this call did it.
	GrantReferralReward(ctx context.Context, customerID string) (bool, error)
	// SetReferrerDiscountIfZero sets the pending discount only when none is
	// pending, so an unused reward is never overwritten.
	SetReferrerDiscountIfZero(ctx context.Context, customerID string, pct int) (bool, error)

	// -------- Affiliate --------
	FindAffiliateByCode(ctx context.Context, code string) (*models.Affiliate, error)
	AccrueAffiliateBalance(ctx context.Context, affiliateID string, cents int64) error

	// -------- Booking --------
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingForUpdate(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByToken(ctx context.Context, kind TokenKind, token string) (*models.Booking, error)
	CreateBooking(ctx context.Context, b *models.Booking) error
	SaveBooking(ctx context.Context, b *models.Booking) error
	// CompleteBooking marks the booking COMPLETED only if it is APPROVED and
	// not yet completed, and reports whether this call did it.
	CompleteBooking(ctx context.Context, id string, now time.Time) (bool, error)
	CountBookings(ctx context.Context, customerID string) (int64, error)
	CountCompletedBookings(ctx context.Context, customerID string) (int64, error)
	ListDueForAutoCharge(ctx context.Context, now time.Time, limit int) ([]models.Booking, error)
	ListOpenIssues(ctx context.Context) ([]models.Booking, error)
	ClaimReviewRequest(ctx context.Context, bookingID string, now time.Time) (bool, error)

	// -------- Payment --------
	// CreatePayment returns ErrDuplicate when an active payment of the same
	// type already exists for the booking.
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	FindActivePayment(ctx context.Context, bookingID string, t payment.Type) (*models.Payment, error)
	FindPaymentByExternalRef(ctx context.Context, ref string) (*models.Payment, error)
	// TransitionPayment moves a payment to a new status through the payment
	// state machine. changed is false for same-state transitions.
	TransitionPayment(ctx context.Context, id string, to payment.Status, mutate PaymentMutation) (changed bool, err error)
	ClaimReceipt(ctx context.Context, paymentID string, now time.Time) (bool, error)

	// -------- Webhook --------
	InsertWebhookEvent(ctx context.Context, ev *models.WebhookEvent) (InsertResult, error)
}
