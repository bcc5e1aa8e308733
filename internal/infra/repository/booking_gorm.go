package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/domain/payment"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

const uniqueViolation = "23505"

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

var _ domain.Repository = (*BookingGormRepository)(nil)

func (r *BookingGormRepository) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BookingGormRepository{db: tx})
	})
}

// mapErr translates driver errors into the domain's sentinel errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicate
	}
	return err
}

// --------------------------------------------------
// Provider / Service
// --------------------------------------------------

func (r *BookingGormRepository) GetProvider(
	ctx context.Context,
	id string,
) (*models.Provider, error) {

	var p models.Provider
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *BookingGormRepository) GetProviderByToken(
	ctx context.Context,
	token string,
) (*models.Provider, error) {

	var p models.Provider
	if err := r.db.WithContext(ctx).
		Where("access_token = ? AND active = ?", token, true).
		First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *BookingGormRepository) UpdateProviderAccountFlags(
	ctx context.Context,
	accountID string,
	chargesEnabled bool,
	payoutsEnabled bool,
) error {
	return mapErr(r.db.WithContext(ctx).
		Model(&models.Provider{}).
		Where("external_account_id = ?", accountID).
		Updates(map[string]any{
			"charges_enabled": chargesEnabled,
			"payouts_enabled": payoutsEnabled,
		}).Error)
}

func (r *BookingGormRepository) GetActiveService(
	ctx context.Context,
	providerID string,
	serviceID string,
) (*models.Service, error) {

	var s models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND provider_id = ? AND active = ?", serviceID, providerID, true).
		First(&s).Error; err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *BookingGormRepository) ListActiveServices(
	ctx context.Context,
	providerID string,
	query string,
) ([]models.Service, error) {

	q := r.db.WithContext(ctx).
		Where("provider_id = ? AND active = ?", providerID, true)

	if query = strings.TrimSpace(strings.ToLower(query)); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+query+"%")
	}

	var services []models.Service
	if err := q.Order("name ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

// --------------------------------------------------
// Customer
// --------------------------------------------------

func (r *BookingGormRepository) FindCustomerByPhone(
	ctx context.Context,
	phone string,
) (*models.Customer, error) {

	var c models.Customer
	if err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&c).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *BookingGormRepository) FindCustomerByReferralCode(
	ctx context.Context,
	code string,
) (*models.Customer, error) {

	var c models.Customer
	if err := r.db.WithContext(ctx).
		Where("referral_code = ?", code).
		First(&c).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *BookingGormRepository) GetCustomer(
	ctx context.Context,
	id string,
) (*models.Customer, error) {

	var c models.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *BookingGormRepository) GetCustomerForUpdate(
	ctx context.Context,
	id string,
) (*models.Customer, error) {

	var c models.Customer
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&c).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *BookingGormRepository) CreateCustomer(
	ctx context.Context,
	c *models.Customer,
) error {
	return mapErr(r.db.WithContext(ctx).Create(c).Error)
}

func (r *BookingGormRepository) SaveCustomer(
	ctx context.Context,
	c *models.Customer,
) error {
	return mapErr(r.db.WithContext(ctx).Save(c).Error)
}

func (r *BookingGormRepository) GrantReferralReward(
	ctx context.Context,
	customerID string,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND referral_reward_granted = ?", customerID, false).
		Update("referral_reward_granted", true)
	if res.Error != nil {
		return false, mapErr(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *BookingGormRepository) SetReferrerDiscountIfZero(
	ctx context.Context,
	customerID string,
	pct int,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND next_booking_discount_pct = 0", customerID).
		Update("next_booking_discount_pct", pct)
	if res.Error != nil {
		return false, mapErr(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// --------------------------------------------------
// Affiliate
// --------------------------------------------------

func (r *BookingGormRepository) FindAffiliateByCode(
	ctx context.Context,
	code string,
) (*models.Affiliate, error) {

	var a models.Affiliate
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&a).Error; err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *BookingGormRepository) AccrueAffiliateBalance(
	ctx context.Context,
	affiliateID string,
	cents int64,
) error {
	return mapErr(r.db.WithContext(ctx).
		Model(&models.Affiliate{}).
		Where("id = ?", affiliateID).
		Update("balance_cents", gorm.Expr("balance_cents + ?", cents)).Error)
}

// --------------------------------------------------
// Booking
// --------------------------------------------------

func (r *BookingGormRepository) GetBooking(
	ctx context.Context,
	id string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&b).Error; err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (r *BookingGormRepository) GetBookingForUpdate(
	ctx context.Context,
	id string,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&b).Error; err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (r *BookingGormRepository) GetBookingByToken(
	ctx context.Context,
	kind domain.TokenKind,
	token string,
) (*models.Booking, error) {

	var column string
	switch kind {
	case domain.TokenConfirm:
		column = "customer_confirm_token"
	case domain.TokenCancel:
		column = "customer_cancel_token"
	case domain.TokenIssue:
		column = "customer_issue_token"
	default:
		return nil, domain.ErrNotFound
	}

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Where(column+" = ?", token).
		First(&b).Error; err != nil {
		return nil, mapErr(err)
	}
	return &b, nil
}

func (r *BookingGormRepository) CreateBooking(
	ctx context.Context,
	b *models.Booking,
) error {
	return mapErr(r.db.WithContext(ctx).Create(b).Error)
}

func (r *BookingGormRepository) SaveBooking(
	ctx context.Context,
	b *models.Booking,
) error {
	return mapErr(r.db.WithContext(ctx).Save(b).Error)
}

func (r *BookingGormRepository) CompleteBooking(
	ctx context.Context,
	id string,
	now time.Time,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ? AND completed_at IS NULL", id, string(domain.StatusApproved)).
		Updates(map[string]any{
			"status":       string(domain.StatusCompleted),
			"completed_at": now,
		})
	if res.Error != nil {
		return false, mapErr(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *BookingGormRepository) CountBookings(
	ctx context.Context,
	customerID string,
) (int64, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, mapErr(err)
	}
	return count, nil
}

func (r *BookingGormRepository) CountCompletedBookings(
	ctx context.Context,
	customerID string,
) (int64, error) {

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("customer_id = ? AND status = ?", customerID, string(domain.StatusCompleted)).
		Count(&count).Error; err != nil {
		return 0, mapErr(err)
	}
	return count, nil
}

func (r *BookingGormRepository) ListDueForAutoCharge(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]models.Booking, error) {

	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where(
			"status = ? AND completed_at IS NULL AND issue_reported_at IS NULL AND provider_confirmed_at IS NOT NULL AND auto_charge_at <= ?",
			string(domain.StatusApproved), now,
		).
		Order("auto_charge_at ASC").
		Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, mapErr(err)
	}
	return bookings, nil
}

func (r *BookingGormRepository) ListOpenIssues(
	ctx context.Context,
) ([]models.Booking, error) {

	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where("issue_reported_at IS NOT NULL AND completed_at IS NULL").
		Order("issue_reported_at ASC").
		Find(&bookings).Error; err != nil {
		return nil, mapErr(err)
	}
	return bookings, nil
}

func (r *BookingGormRepository) ClaimReviewRequest(
	ctx context.Context,
	bookingID string,
	now time.Time,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND review_requested_at IS NULL", bookingID).
		Update("review_requested_at", now)
	if res.Error != nil {
		return false, mapErr(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// --------------------------------------------------
// Payment
// --------------------------------------------------

func (r *BookingGormRepository) CreatePayment(
	ctx context.Context,
	p *models.Payment,
) error {
	return mapErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *BookingGormRepository) GetPayment(
	ctx context.Context,
	id string,
) (*models.Payment, error) {

	var p models.Payment
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *BookingGormRepository) FindActivePayment(
	ctx context.Context,
	bookingID string,
	t payment.Type,
) (*models.Payment, error) {

	var p models.Payment
	if err := r.db.WithContext(ctx).
		Where(
			"booking_id = ? AND type = ? AND status NOT IN ?",
			bookingID, string(t),
			[]string{string(payment.StatusVoided), string(payment.StatusRefunded)},
		).
		Order("created_at DESC").
		First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *BookingGormRepository) FindPaymentByExternalRef(
	ctx context.Context,
	ref string,
) (*models.Payment, error) {

	var p models.Payment
	if err := r.db.WithContext(ctx).
		Where("external_ref = ?", ref).
		Order("created_at DESC").
		First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *BookingGormRepository) TransitionPayment(
	ctx context.Context,
	id string,
	to payment.Status,
	mutate domain.PaymentMutation,
) (bool, error) {

	var p models.Payment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error; err != nil {
		return false, mapErr(err)
	}

	from := payment.Status(p.Status)
	if err := payment.CanTransition(from, to); err != nil {
		return false, err
	}

	p.Status = string(to)
	if mutate != nil {
		mutate(&p)
	}
	if err := r.db.WithContext(ctx).Save(&p).Error; err != nil {
		return false, mapErr(err)
	}
	return from != to, nil
}

func (r *BookingGormRepository) ClaimReceipt(
	ctx context.Context,
	paymentID string,
	now time.Time,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND receipt_sent_at IS NULL", paymentID).
		Update("receipt_sent_at", now)
	if res.Error != nil {
		return false, mapErr(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// --------------------------------------------------
// Webhook
// --------------------------------------------------

func (r *BookingGormRepository) InsertWebhookEvent(
	ctx context.Context,
	ev *models.WebhookEvent,
) (domain.InsertResult, error) {

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ev)
	if res.Error != nil {
		return domain.Inserted, mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.AlreadyPresent, nil
	}
	return domain.Inserted, nil
}
