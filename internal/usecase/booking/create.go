package booking

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/domain/payment"
	"github.com/BruksfildServices01/beauty-meet/internal/gateway"
	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
	"github.com/BruksfildServices01/beauty-meet/internal/pricing"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/referral"
	"github.com/BruksfildServices01/beauty-meet/internal/validators"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type CreateInput struct {
	ProviderID string
	ServiceID  string

	FullName    string
	Phone       string
	CustomerZip string

	StartAt  time.Time
	IsMobile bool
	Notes    string

	AffiliateCode string
	ReferralCode  string
}

type CreateOutput struct {
	Booking     *models.Booking
	Quote       pricing.Quote
	RedirectURL string
	// Demo is true when no gateway is configured outside production and the
	// customer is sent straight to the success page.
	Demo bool
}

func (in *CreateInput) normalize() error {
	in.FullName = strings.TrimSpace(in.FullName)
	if len(in.FullName) < 2 {
		return httperr.Validation("invalid_name")
	}

	phone, ok := validators.NormalizePhone(in.Phone)
	if !ok {
		return httperr.Validation("invalid_phone")
	}
	in.Phone = phone

	in.CustomerZip = strings.TrimSpace(in.CustomerZip)
	if !validators.IsZip(in.CustomerZip) {
		return httperr.Validation("invalid_zip")
	}

	if in.ProviderID == "" || in.ServiceID == "" {
		return httperr.Validation("missing_provider_or_service")
	}
	if in.StartAt.IsZero() {
		return httperr.Validation("invalid_start_at")
	}
	if len(in.Notes) > 500 {
		return httperr.Validation("notes_too_long")
	}
	return nil
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ======================================================
// EXECUTE
// ======================================================

// Create records a PENDING booking with its deposit payment and opens the
// deposit checkout.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*CreateOutput, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	now := e.now()
	if !in.StartAt.After(now) {
		return nil, httperr.Validation("start_in_past")
	}
	if e.gateway == nil && e.cfg.Production {
		return nil, httperr.New(httperr.KindPaymentConfig, "payments_not_configured")
	}

	// --------------------------------------------------
	// Provider / service / travel
	// --------------------------------------------------
	provider, err := e.repo.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return nil, notFound(err, "provider_not_found")
	}
	if !provider.Active {
		return nil, httperr.NotFound("provider_not_found")
	}

	service, err := e.repo.GetActiveService(ctx, provider.ID, in.ServiceID)
	if err != nil {
		return nil, notFound(err, "service_not_found")
	}

	var miles, travelFee int64
	if in.IsMobile {
		miles = e.geo.MilesBetween(provider.BaseZip, in.CustomerZip)
		if provider.MaxTravelMiles > 0 && miles > provider.MaxTravelMiles {
			return nil, httperr.Validation("outside_travel_radius")
		}
		travelFee = miles * provider.TravelRateCents
	}

	// --------------------------------------------------
	// Customer, discount, attribution, booking, deposit
	// --------------------------------------------------
	var (
		b        *models.Booking
		deposit  *models.Payment
		quote    pricing.Quote
		customer *models.Customer
	)
	err = e.repo.Transaction(ctx, func(tx domain.Repository) error {
		c, err := e.customerForBooking(ctx, tx, in)
		if err != nil {
			return err
		}
		customer = c

		if in.ReferralCode != "" {
			if _, err := referral.Attach(ctx, tx, c, in.ReferralCode); err != nil {
				return err
			}
		}

		affiliate, err := e.affiliateForBooking(ctx, tx, c, in.AffiliateCode)
		if err != nil {
			return err
		}

		discountPct := c.NextBookingDiscountPct
		if discountPct > 0 {
			c.NextBookingDiscountPct = 0
			if err := tx.SaveCustomer(ctx, c); err != nil {
				return err
			}
		}

		quote, err = pricing.Calculate(pricing.Input{
			ServicePriceCents:    service.PriceCents,
			TravelFeeCents:       travelFee,
			DiscountPct:          discountPct,
			HasAffiliate:         affiliate != nil,
			HasPayoutDestination: provider.HasPayoutDestination(),
		}, e.cfg.Rates)
		if err != nil {
			return err
		}

		b = &models.Booking{
			ID:                         uuid.NewString(),
			ProviderID:                 provider.ID,
			CustomerID:                 c.ID,
			ServiceID:                  service.ID,
			StartAt:                    in.StartAt,
			Status:                     string(domain.InitialStatus()),
			Notes:                      in.Notes,
			IsMobile:                   in.IsMobile,
			CustomerZip:                in.CustomerZip,
			EstimatedMiles:             miles,
			ServicePriceCents:          quote.ServicePriceCents,
			TravelFeeCents:             quote.TravelFeeCents,
			DiscountCents:              quote.DiscountCents,
			DiscountPctApplied:         quote.DiscountPct,
			PlatformFeeCents:           quote.PlatformFeeCents,
			ProcessingFeeCents:         quote.ProcessingFeeCents,
			DepositCents:               quote.DepositCents,
			TotalCents:                 quote.TotalCents,
			DepositBaseCents:           quote.DepositBaseCents,
			DepositFeeCents:            quote.DepositFeeCents,
			ProcessingFeeBps:           quote.ProcessingFeeBps,
			DepositApplicationFeeCents: quote.DepositApplicationFeeCents,
			AffiliateCommissionCents:   quote.AffiliateCommissionCents,
			CustomerConfirmToken:       newToken(),
			CustomerCancelToken:        newToken(),
			CustomerIssueToken:         newToken(),
		}
		if affiliate != nil {
			b.AffiliateID = &affiliate.ID
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}

		deposit = &models.Payment{
			ID:          uuid.NewString(),
			BookingID:   b.ID,
			Type:        string(payment.TypeDeposit),
			Status:      string(payment.StatusRequiresPayment),
			AmountCents: quote.DepositCents,
			Currency:    e.cfg.Currency,
		}
		return tx.CreatePayment(ctx, deposit)
	})
	if err != nil {
		return nil, err
	}

	out := &CreateOutput{Booking: b, Quote: quote}

	// --------------------------------------------------
	// Checkout
	// --------------------------------------------------
	if e.gateway == nil {
		out.Demo = true
		out.RedirectURL = e.successURL(b, true)
		e.record(Customer(customer.ID), b, "booking.created", map[string]any{"demo": true})
		return out, nil
	}

	req := gateway.CheckoutRequest{
		BookingID:  b.ID,
		PaymentID:  deposit.ID,
		Currency:   e.cfg.Currency,
		SuccessURL: e.successURL(b, false),
		CancelURL:  fmt.Sprintf("%s/book/cancel?bookingId=%s", e.baseURL(), url.QueryEscape(b.ID)),
		Items: []gateway.LineItem{
			{
				Name:        fmt.Sprintf("%s - %s (Deposit %d%%)", provider.DisplayName, service.Name, e.cfg.Rates.DepositBps/100),
				Description: depositDescription(b),
				AmountCents: quote.DepositBaseCents,
			},
			{
				Name:        "Processing Fee",
				Description: "Secure payment processing (deposit)",
				AmountCents: quote.DepositFeeCents,
			},
		},
		Metadata: map[string]string{"kind": "deposit", "providerId": provider.ID},
	}
	if provider.HasPayoutDestination() {
		req.Destination = provider.ExternalAccountID
		req.ApplicationFeeCents = quote.DepositApplicationFeeCents
	}

	checkout, err := e.gateway.CreateDepositCheckout(ctx, req)
	if err != nil {
		e.abandon(ctx, b, deposit, customer, quote.DiscountPct)
		if httperr.KindOf(err) == "" {
			err = httperr.Gateway(err)
		}
		return nil, err
	}

	if _, err := e.repo.TransitionPayment(ctx, deposit.ID, payment.StatusRequiresPayment, func(p *models.Payment) {
		p.ExternalRef = checkout.ExternalRef
		p.ExternalCheckoutRef = checkout.CheckoutRef
	}); err != nil {
		return nil, err
	}

	e.record(Customer(customer.ID), b, "booking.created", map[string]any{
		"deposit_cents": quote.DepositCents,
		"total_cents":   quote.TotalCents,
	})

	out.RedirectURL = checkout.RedirectURL
	return out, nil
}

// customerForBooking finds the customer by phone, creating one on first
// contact, and returns it locked.
func (e *Engine) customerForBooking(ctx context.Context, tx domain.Repository, in CreateInput) (*models.Customer, error) {
	c, err := tx.FindCustomerByPhone(ctx, in.Phone)
	if errors.Is(err, domain.ErrNotFound) {
		c = &models.Customer{
			ID:           uuid.NewString(),
			Phone:        in.Phone,
			FullName:     in.FullName,
			ReferralCode: referral.NewCode(),
		}
		if err := tx.CreateCustomer(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	c, err = tx.GetCustomerForUpdate(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if c.FullName != in.FullName {
		c.FullName = in.FullName
		if err := tx.SaveCustomer(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// affiliateForBooking attaches an affiliate only to customers without a
// completed booking. Unknown codes are ignored.
func (e *Engine) affiliateForBooking(ctx context.Context, tx domain.Repository, c *models.Customer, code string) (*models.Affiliate, error) {
	code = referral.NormalizeCode(code)
	if code == "" {
		return nil, nil
	}

	completed, err := tx.CountCompletedBookings(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if completed > 0 {
		return nil, nil
	}

	a, err := tx.FindAffiliateByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// abandon closes a booking whose checkout could not be opened and gives
// back the discount it consumed.
func (e *Engine) abandon(ctx context.Context, b *models.Booking, deposit *models.Payment, c *models.Customer, discountPct int) {
	err := e.repo.Transaction(ctx, func(tx domain.Repository) error {
		if _, err := tx.TransitionPayment(ctx, deposit.ID, payment.StatusVoided, nil); err != nil {
			return err
		}
		locked, err := tx.GetBookingForUpdate(ctx, b.ID)
		if err != nil {
			return err
		}
		if _, err := domain.Cancel(locked); err != nil {
			return err
		}
		if err := tx.SaveBooking(ctx, locked); err != nil {
			return err
		}
		*b = *locked

		if discountPct > 0 {
			if _, err := tx.SetReferrerDiscountIfZero(ctx, c.ID, discountPct); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.log.Error("abandon booking after checkout failure", zap.String("booking_id", b.ID), zap.Error(err))
		return
	}
	e.record(System(), b, "booking.checkout_failed", nil)
}

func (e *Engine) baseURL() string {
	return strings.TrimRight(e.cfg.BaseURL, "/")
}

func (e *Engine) successURL(b *models.Booking, demo bool) string {
	q := url.Values{}
	q.Set("bookingId", b.ID)
	q.Set("cancelToken", b.CustomerCancelToken)
	q.Set("issueToken", b.CustomerIssueToken)
	if demo {
		q.Set("demo", "1")
	}
	return e.baseURL() + "/book/success?" + q.Encode()
}

func depositDescription(b *models.Booking) string {
	if b.IsMobile {
		return fmt.Sprintf("Deposit for mobile appointment (%d mi est.)", b.EstimatedMiles)
	}
	return "Deposit for in-studio appointment"
}
