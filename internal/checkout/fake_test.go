package checkout

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/services"
	"github.com/example/marketplace/internal/store"
)

type redeemKey struct {
	user     uuid.UUID
	discount uuid.UUID
}

type state struct {
	users        map[uuid.UUID]models.User
	products     map[uuid.UUID]models.Product
	carts        []models.Cart
	discounts    map[string]models.Discount
	redeems      map[redeemKey]bool
	groups       map[uuid.UUID]models.OrderGroup
	orders       map[uuid.UUID]models.Order
	invoices     map[uuid.UUID]models.Invoice
	cardPayments map[uuid.UUID]models.CardPayment
}

func (s state) clone() state {
	return state{
		users:        maps.Clone(s.users),
		products:     maps.Clone(s.products),
		carts:        append([]models.Cart(nil), s.carts...),
		discounts:    maps.Clone(s.discounts),
		redeems:      maps.Clone(s.redeems),
		groups:       maps.Clone(s.groups),
		orders:       maps.Clone(s.orders),
		invoices:     maps.Clone(s.invoices),
		cardPayments: maps.Clone(s.cardPayments),
	}
}

// fakeStore keeps everything in memory. Transaction works on a copy that is
// swapped in only when fn succeeds.
type fakeStore struct {
	mu sync.Mutex
	st state
}

func newFakeStore() *fakeStore {
	return &fakeStore{st: state{
		users:        map[uuid.UUID]models.User{},
		products:     map[uuid.UUID]models.Product{},
		discounts:    map[string]models.Discount{},
		redeems:      map[redeemKey]bool{},
		groups:       map[uuid.UUID]models.OrderGroup{},
		orders:       map[uuid.UUID]models.Order{},
		invoices:     map[uuid.UUID]models.Invoice{},
		cardPayments: map[uuid.UUID]models.CardPayment{},
	}}
}

func (f *fakeStore) addUser(role models.Role) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := models.User{Email: uuid.NewString() + "@example.com", FirstName: "Test", LastName: "User", Role: role, Status: models.UserStatusActive}
	u.ID = uuid.New()
	f.st.users[u.ID] = u
	return u
}

func (f *fakeStore) addProduct(owner uuid.UUID, price string, stock int) models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Product{UserID: owner, Title: "Product", Price: decimal.RequireFromString(price), Stock: stock}
	p.ID = uuid.New()
	f.st.products[p.ID] = p
	return p
}

func (f *fakeStore) addToCart(userID, productID uuid.UUID, quantity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	line := models.Cart{UserID: userID, ProductID: productID, Quantity: quantity, Type: models.DefaultCartType}
	line.ID = uuid.New()
	f.st.carts = append(f.st.carts, line)
}

func (f *fakeStore) addDiscount(d models.Discount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = uuid.New()
	f.st.discounts[d.Code] = d
}

func (f *fakeStore) snapshot() state {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st.clone()
}

func (f *fakeStore) Transaction(_ context.Context, fn func(tx store.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	work := f.st.clone()
	if err := fn(&fakeTx{st: &work}); err != nil {
		return err
	}
	f.st = work
	return nil
}

func (f *fakeStore) CartLines(_ context.Context, userID uuid.UUID) ([]models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return (&fakeTx{st: &f.st}).CartLines(userID)
}

func (f *fakeStore) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.st.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found.")
	}
	return &u, nil
}

func (f *fakeStore) FindProductsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.st.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateCardPayment(_ context.Context, payment *models.CardPayment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment.ID = uuid.New()
	f.st.cardPayments[payment.ID] = *payment
	return nil
}

func (f *fakeStore) SetCardPaymentReference(_ context.Context, id uuid.UUID, reference string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.st.cardPayments[id]
	p.Reference = reference
	f.st.cardPayments[id] = p
	return nil
}

func (f *fakeStore) DeleteCardPayment(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.st.cardPayments, id)
	return nil
}

type fakeTx struct {
	st *state
}

func (t *fakeTx) CartLines(userID uuid.UUID) ([]models.Cart, error) {
	var lines []models.Cart
	for _, line := range t.st.carts {
		if line.UserID != userID {
			continue
		}
		if p, ok := t.st.products[line.ProductID]; ok {
			line.Product = &p
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (t *fakeTx) FindDiscountByCode(code string) (*models.Discount, error) {
	d, ok := t.st.discounts[code]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (t *fakeTx) RedeemDiscount(userID, discountID uuid.UUID) (bool, error) {
	key := redeemKey{user: userID, discount: discountID}
	if t.st.redeems[key] {
		return false, nil
	}
	t.st.redeems[key] = true
	return true, nil
}

func (t *fakeTx) CreateOrderGroup(group *models.OrderGroup) error {
	group.ID = uuid.New()
	t.st.groups[group.ID] = *group
	return nil
}

func (t *fakeTx) CreateOrder(order *models.Order) error {
	order.ID = uuid.New()
	if order.Invoice != nil {
		order.Invoice.ID = uuid.New()
		order.Invoice.OrderID = order.ID
		t.st.invoices[order.ID] = *order.Invoice
	}
	stored := *order
	stored.Invoice = nil
	t.st.orders[order.ID] = stored
	return nil
}

func (t *fakeTx) DecrementStock(productID uuid.UUID, quantity int) error {
	p, ok := t.st.products[productID]
	if !ok {
		return apperr.NotFound("A product in your cart no longer exists.")
	}
	p.Stock = max(p.Stock-quantity, 0)
	t.st.products[productID] = p
	return nil
}

func (t *fakeTx) ClearCart(userID uuid.UUID) error {
	kept := t.st.carts[:0:0]
	for _, line := range t.st.carts {
		if line.UserID != userID {
			kept = append(kept, line)
		}
	}
	t.st.carts = kept
	return nil
}

func (t *fakeTx) TakeCardPayment(id uuid.UUID) (*models.CardPayment, error) {
	p, ok := t.st.cardPayments[id]
	if !ok {
		return nil, apperr.NotFound("Payment not found or already processed.")
	}
	delete(t.st.cardPayments, id)
	return &p, nil
}

func (t *fakeTx) FindOrder(id uuid.UUID) (*models.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, apperr.NotFound("Order not found.")
	}
	if p, ok := t.st.products[o.ProductID]; ok {
		o.Product = &p
	}
	if inv, ok := t.st.invoices[o.ID]; ok {
		o.Invoice = &inv
	}
	return &o, nil
}

func (t *fakeTx) UpdateOrderStatus(id uuid.UUID, status models.OrderStatus) error {
	o := t.st.orders[id]
	o.Status = status
	t.st.orders[id] = o
	return nil
}

func (t *fakeTx) MarkInvoicePaid(orderID uuid.UUID) error {
	inv := t.st.invoices[orderID]
	inv.PaymentStatus = models.PaymentStatusPaid
	t.st.invoices[orderID] = inv
	return nil
}

const validOTP = "12345"

type fakeGateway struct {
	mu         sync.Mutex
	initErr    error
	charged    decimal.Decimal
	references map[string]string
	charges    []services.ChargeRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{references: map[string]string{}}
}

func (g *fakeGateway) InitiateCharge(_ context.Context, req services.ChargeRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges = append(g.charges, req)
	if g.initErr != nil {
		return "", g.initErr
	}
	ref := "FLW-" + req.TxRef
	g.references[ref] = req.TxRef
	return ref, nil
}

func (g *fakeGateway) ValidateCharge(_ context.Context, otp, reference string) (*services.ChargeValidation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	txRef, ok := g.references[reference]
	if !ok || otp != validOTP {
		return nil, apperr.Gateway("Invalid OTP", errors.New("rejected"))
	}
	return &services.ChargeValidation{TxRef: txRef, Amount: g.charged}, nil
}

type notification struct {
	vendor uuid.UUID
	lines  int
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) SendOrderNotification(_ context.Context, vendor *models.User, lines int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{vendor: vendor.ID, lines: lines})
	return nil
}
