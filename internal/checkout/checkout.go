// Package checkout turns a user's cart into orders and invoices, either
// immediately for cash or after OTP validation for card payments.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/lock"
	"github.com/example/marketplace/internal/metrics"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/services"
	"github.com/example/marketplace/internal/store"
)

// Store is the persistence checkout needs. Writes that must commit together
// go through Transaction.
type Store interface {
	Transaction(ctx context.Context, fn func(tx store.Tx) error) error
	CartLines(ctx context.Context, userID uuid.UUID) ([]models.Cart, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	CreateCardPayment(ctx context.Context, payment *models.CardPayment) error
	SetCardPaymentReference(ctx context.Context, id uuid.UUID, reference string) error
	DeleteCardPayment(ctx context.Context, id uuid.UUID) error
}

// Gateway is the card payment provider.
type Gateway interface {
	InitiateCharge(ctx context.Context, req services.ChargeRequest) (string, error)
	ValidateCharge(ctx context.Context, otp, reference string) (*services.ChargeValidation, error)
}

// Notifier tells vendors about new orders.
type Notifier interface {
	SendOrderNotification(ctx context.Context, vendor *models.User, lines int) error
}

// CardInput is the card as submitted. Expiration is MM/YY.
type CardInput struct {
	Number     string
	Name       string
	CVV        string
	Expiration string
	Pin        string
}

// PlaceOrderInput is one checkout request.
type PlaceOrderInput struct {
	UserID        uuid.UUID
	Shipping      models.ShippingDetails
	PaymentMethod models.PaymentMethod
	Card          CardInput
	DiscountCode  string
}

// PlaceOrderResult carries the created group for cash, or the pending charge
// for card.
type PlaceOrderResult struct {
	OrderGroup *models.OrderGroup
	Reference  string
	PaymentID  uuid.UUID
}

// Orchestrator runs checkouts.
type Orchestrator struct {
	store    Store
	gateway  Gateway
	locker   lock.Locker
	notifier Notifier
	log      *logrus.Entry
	now      func() time.Time

	notifications sync.WaitGroup
}

// NewOrchestrator constructs an Orchestrator. notifier may be nil.
func NewOrchestrator(store Store, gateway Gateway, locker lock.Locker, notifier Notifier, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		gateway:  gateway,
		locker:   locker,
		notifier: notifier,
		log:      log.WithField("component", "checkout"),
		now:      time.Now,
	}
}

// PlaceOrder dispatches on the payment method.
func (o *Orchestrator) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	switch in.PaymentMethod {
	case models.PaymentMethodCash:
		group, err := o.placeCash(ctx, in)
		metrics.RecordCheckout("cash", err)
		if err != nil {
			return nil, err
		}
		return &PlaceOrderResult{OrderGroup: group}, nil
	case models.PaymentMethodCard:
		result, err := o.initiateCard(ctx, in)
		metrics.RecordCheckout("card_initiate", err)
		return result, err
	default:
		return nil, apperr.Validation("Invalid payment_method. Expected CASH or CARD.")
	}
}

func (o *Orchestrator) placeCash(ctx context.Context, in PlaceOrderInput) (*models.OrderGroup, error) {
	release, err := o.acquire(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	var group *models.OrderGroup
	var purchased map[uuid.UUID]int
	err = o.store.Transaction(ctx, func(tx store.Tx) error {
		lines, err := tx.CartLines(in.UserID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return apperr.Validation("Your cart is empty.")
		}

		multiplier, err := o.resolveDiscount(tx, in.UserID, in.DiscountCode)
		if err != nil {
			return err
		}

		snapshot := make([]models.SnapshotLine, 0, len(lines))
		for _, line := range lines {
			if line.Product == nil {
				return apperr.NotFound("A product in your cart no longer exists.")
			}
			snapshot = append(snapshot, models.SnapshotLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.Product.Price,
			})
		}

		group, err = fulfil(tx, in.UserID, in.Shipping, snapshot, multiplier, models.PaymentMethodCash, models.PaymentStatusNotPaid)
		purchased = countByProduct(snapshot)
		return err
	})
	if err != nil {
		return nil, err
	}

	o.log.WithFields(logrus.Fields{"user_id": in.UserID, "order_group_id": group.ID}).Info("cash order placed")
	o.notifyVendors(purchased)
	return group, nil
}

func (o *Orchestrator) initiateCard(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	card, err := parseCard(in.Card)
	if err != nil {
		return nil, err
	}

	release, err := o.acquire(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := o.store.FindUserByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	lines, err := o.store.CartLines(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.Validation("Your cart is empty.")
	}

	snapshot := models.CartSnapshot{Shipping: in.Shipping}
	total := decimal.Zero
	for _, line := range lines {
		if line.Product == nil {
			return nil, apperr.NotFound("A product in your cart no longer exists.")
		}
		snapshot.Lines = append(snapshot.Lines, models.SnapshotLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		})
		total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	payment := &models.CardPayment{UserID: in.UserID, Total: total.Round(2)}
	if err := payment.SetSnapshot(snapshot); err != nil {
		return nil, err
	}
	if err := o.store.CreateCardPayment(ctx, payment); err != nil {
		return nil, err
	}

	reference, err := o.gateway.InitiateCharge(ctx, services.ChargeRequest{
		Card:     card,
		Email:    user.Email,
		FullName: user.FullName(),
		Amount:   payment.Total,
		TxRef:    payment.ID.String(),
	})
	if err != nil {
		if delErr := o.store.DeleteCardPayment(context.WithoutCancel(ctx), payment.ID); delErr != nil {
			o.log.WithError(delErr).WithField("payment_id", payment.ID).Error("failed to remove staged card payment")
		}
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			err = apperr.Gateway("Unable to process card payment at the moment. Please try again.", err)
		}
		return nil, err
	}

	if err := o.store.SetCardPaymentReference(ctx, payment.ID, reference); err != nil {
		return nil, err
	}

	o.log.WithFields(logrus.Fields{"user_id": in.UserID, "payment_id": payment.ID}).Info("card charge awaiting otp")
	return &PlaceOrderResult{Reference: reference, PaymentID: payment.ID}, nil
}

// VerifyCard validates the OTP with the gateway and fulfils the staged
// payment. A payment can be fulfilled once.
func (o *Orchestrator) VerifyCard(ctx context.Context, userID uuid.UUID, otp, reference, discountCode string) (*models.OrderGroup, error) {
	group, err := o.verifyCard(ctx, userID, otp, reference, discountCode)
	metrics.RecordCheckout("card_verify", err)
	return group, err
}

func (o *Orchestrator) verifyCard(ctx context.Context, userID uuid.UUID, otp, reference, discountCode string) (*models.OrderGroup, error) {
	if strings.TrimSpace(otp) == "" || strings.TrimSpace(reference) == "" {
		return nil, apperr.Validation("Invalid otp or reference. otp and reference are required.")
	}

	validation, err := o.gateway.ValidateCharge(ctx, otp, reference)
	if err != nil {
		return nil, err
	}

	paymentID, err := uuid.Parse(validation.TxRef)
	if err != nil {
		return nil, apperr.NotFound("Payment not found or already processed.")
	}

	release, err := o.acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	var group *models.OrderGroup
	var purchased map[uuid.UUID]int
	err = o.store.Transaction(ctx, func(tx store.Tx) error {
		payment, err := tx.TakeCardPayment(paymentID)
		if err != nil {
			return err
		}
		if payment.UserID != userID || payment.Reference != reference {
			return apperr.NotFound("Payment not found or already processed.")
		}
		if validation.Amount.IsPositive() && !validation.Amount.Equal(payment.Total) {
			return apperr.Gateway("Charged amount does not match the order total.",
				fmt.Errorf("charged %s, staged %s", validation.Amount, payment.Total))
		}

		snapshot, err := payment.DecodeSnapshot()
		if err != nil {
			return err
		}

		multiplier, err := o.resolveDiscount(tx, userID, discountCode)
		if err != nil {
			return err
		}

		group, err = fulfil(tx, userID, snapshot.Shipping, snapshot.Lines, multiplier, models.PaymentMethodCard, models.PaymentStatusPaid)
		purchased = countByProduct(snapshot.Lines)
		return err
	})
	if err != nil {
		o.log.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"payment_id": paymentID,
			"reference":  reference,
		}).Error("otp accepted but card order not fulfilled")
		return nil, err
	}

	o.log.WithFields(logrus.Fields{"user_id": userID, "order_group_id": group.ID}).Info("card order placed")
	o.notifyVendors(purchased)
	return group, nil
}

// fulfil writes the group, one order and invoice per line, floors stock and
// empties the live cart.
func fulfil(tx store.Tx, userID uuid.UUID, shipping models.ShippingDetails, lines []models.SnapshotLine, multiplier decimal.Decimal, method models.PaymentMethod, status models.PaymentStatus) (*models.OrderGroup, error) {
	group := &models.OrderGroup{
		UserID:      userID,
		Address:     shipping.Address,
		FirstName:   shipping.FirstName,
		LastName:    shipping.LastName,
		PhoneNumber: shipping.PhoneNumber,
	}
	if err := tx.CreateOrderGroup(group); err != nil {
		return nil, err
	}

	for _, line := range lines {
		order := models.Order{
			OrderGroupID: group.ID,
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			Status:       models.OrderStatusPending,
			Invoice: &models.Invoice{
				Amount:        LineAmount(line.UnitPrice, line.Quantity, multiplier),
				PaymentMethod: method,
				PaymentStatus: status,
			},
		}
		if err := tx.CreateOrder(&order); err != nil {
			return nil, err
		}
		if err := tx.DecrementStock(line.ProductID, line.Quantity); err != nil {
			return nil, err
		}
		group.Orders = append(group.Orders, order)
	}

	if err := tx.ClearCart(userID); err != nil {
		return nil, err
	}

	return group, nil
}

// LineAmount is quantity × unit price × multiplier rounded to cents.
func LineAmount(unitPrice decimal.Decimal, quantity int, multiplier decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Mul(multiplier).Round(2)
}

func (o *Orchestrator) acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	release, err := o.locker.Acquire(ctx, "checkout:"+userID.String())
	if errors.Is(err, lock.ErrLocked) {
		return nil, apperr.Conflict("Another checkout is already in progress for your account.")
	}
	if err != nil {
		return nil, err
	}
	return release, nil
}

func parseCard(in CardInput) (services.CardDetails, error) {
	invalid := apperr.Validation("Invalid card details. card_number, card_name, expiration (MM/YY) and pin are required.")

	// cvv is optional.
	fields := []string{in.Number, in.Name, in.Expiration, in.Pin}
	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			return services.CardDetails{}, invalid
		}
	}

	parts := strings.Split(in.Expiration, "/")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return services.CardDetails{}, invalid
	}

	return services.CardDetails{
		Number:      strings.TrimSpace(in.Number),
		Name:        strings.TrimSpace(in.Name),
		CVV:         strings.TrimSpace(in.CVV),
		ExpiryMonth: strings.TrimSpace(parts[0]),
		ExpiryYear:  strings.TrimSpace(parts[1]),
		Pin:         strings.TrimSpace(in.Pin),
	}, nil
}

func countByProduct(lines []models.SnapshotLine) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		counts[line.ProductID]++
	}
	return counts
}
