package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogrepo "github.com/Skotchmaster/ethnic_shop/internal/catalog/repo"
	"github.com/Skotchmaster/ethnic_shop/internal/models"
	"github.com/Skotchmaster/ethnic_shop/internal/order/pricing"
	orderrepo "github.com/Skotchmaster/ethnic_shop/internal/order/repo"
	orderservice "github.com/Skotchmaster/ethnic_shop/internal/order/service"
	"github.com/Skotchmaster/ethnic_shop/internal/payment/gateway"
	"github.com/Skotchmaster/ethnic_shop/internal/testutil"
)

var (
	testSecret = []byte("rzp_test_secret")
	testNow    = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
)

type fakeGateway struct {
	calls    int
	amount   int64
	currency string
	receipt  string
	err      error
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	g.calls++
	g.amount, g.currency, g.receipt = amount, currency, receipt
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.Order{ID: fmt.Sprintf("order_G%d", g.calls), Amount: amount, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

type paymentFixture struct {
	svc    *PaymentService
	orders *orderservice.OrderService
	gw     *fakeGateway
	owner  models.Actor
	other  models.Actor
	order  *models.Order
	saree  models.Product
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	db := testutil.NewDB(t)
	owner := testutil.ActorFor(testutil.SeedUser(t, db, "lata", models.RoleUser))
	other := testutil.ActorFor(testutil.SeedUser(t, db, "kiran", models.RoleUser))

	orders := &orderservice.OrderService{
		Repo:     &orderrepo.GormRepo{DB: db},
		Products: &catalogrepo.GormRepo{DB: db},
		Pricing:  pricing.Default(),
		Now:      func() time.Time { return testNow },
	}
	saree := testutil.SeedProduct(t, db, "Saree", 1300)

	gw := &fakeGateway{}
	f := &paymentFixture{
		svc: &PaymentService{
			Gateway:         gw,
			KeyID:           "rzp_test_key",
			KeySecret:       testSecret,
			Orders:          orders,
			DefaultCurrency: "INR",
			Now:             func() time.Time { return testNow },
		},
		orders: orders,
		gw:     gw,
		owner:  owner,
		other:  other,
		saree:  saree,
	}
	f.order = f.newOrder(t, models.PaymentMethodRazorpay)
	return f
}

func (f *paymentFixture) newOrder(t *testing.T, method models.PaymentMethod) *models.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), f.owner, orderservice.CreateOrderInput{
		Items:           []models.LineItem{{ProductID: f.saree.ID, Quantity: 1, UnitPrice: 1300}},
		ShippingAddress: models.ShippingAddress{Address: "1 Park St", City: "Kolkata", PostalCode: "700016", Country: "IN"},
		PaymentMethod:   method,
	})
	require.NoError(t, err)
	return o
}

// intent opens a gateway order for o and returns its id.
func (f *paymentFixture) intent(t *testing.T, o *models.Order) string {
	t.Helper()
	in, err := f.svc.CreateIntent(context.Background(), f.owner, IntentInput{OrderID: o.ID, Amount: o.Pricing.GrandTotal})
	require.NoError(t, err)
	return in.GatewayOrderID
}

func (f *paymentFixture) verifyInput(paymentID string) VerifyInput {
	return VerifyInput{
		OrderID:          f.order.ID,
		GatewayOrderID:   "order_G1",
		GatewayPaymentID: paymentID,
		Signature:        Sign(testSecret, "order_G1", paymentID),
	}
}

func TestSignMatchesKnownVector(t *testing.T) {
	t.Parallel()

	sig := Sign([]byte("secret"), "order_1", "pay_1")
	assert.Equal(t, "52115a0d3400de9e86aade1f1b6eba9e8974604f4e267a9e9a16633a4c8dd2cb", sig)
	assert.True(t, signatureValid([]byte("secret"), "order_1", "pay_1", sig))
	assert.False(t, signatureValid([]byte("secret"), "order_1", "pay_2", sig))
	assert.False(t, signatureValid([]byte("other"), "order_1", "pay_1", sig))
}

func TestCreateIntent(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)

	intent, err := f.svc.CreateIntent(context.Background(), f.owner, IntentInput{OrderID: f.order.ID, Amount: 1365})
	require.NoError(t, err)
	assert.Equal(t, "order_G1", intent.GatewayOrderID)
	assert.Equal(t, f.order.ID, intent.OrderID)
	assert.Equal(t, "rzp_test_key", intent.KeyID)
	assert.Equal(t, int64(1365), f.gw.amount)
	assert.Equal(t, "INR", f.gw.currency)
	assert.Equal(t, "receipt_1792143000000", f.gw.receipt)
}

func TestCreateIntentValidation(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateIntent(ctx, f.owner, IntentInput{Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateIntent(ctx, f.owner, IntentInput{OrderID: f.order.ID, Amount: 1365, Currency: "rupees"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateIntent(ctx, f.owner, IntentInput{Amount: 1365})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CreateIntent(ctx, f.owner, IntentInput{OrderID: f.order.ID, Amount: 1})
	assert.ErrorIs(t, err, ErrValidation, "amount must equal the order total")

	_, err = f.svc.CreateIntent(ctx, f.other, IntentInput{OrderID: f.order.ID, Amount: 1365})
	assert.ErrorIs(t, err, orderservice.ErrForbidden)

	cod := f.newOrder(t, models.PaymentMethodCOD)
	_, err = f.svc.CreateIntent(ctx, f.owner, IntentInput{OrderID: cod.ID, Amount: cod.Pricing.GrandTotal})
	assert.ErrorIs(t, err, orderservice.ErrValidation)

	assert.Zero(t, f.gw.calls, "invalid input never reaches the gateway")
}

func TestCreateIntentUpstreamFailures(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	f.gw.err = errors.New("gateway timeout")
	_, err := f.svc.CreateIntent(ctx, f.owner, IntentInput{OrderID: f.order.ID, Amount: 1365})
	assert.ErrorIs(t, err, ErrUpstream)

	f.svc.Gateway = nil
	_, err = f.svc.CreateIntent(ctx, f.owner, IntentInput{OrderID: f.order.ID, Amount: 1365})
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestVerifySettlesOnce(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()
	require.Equal(t, "order_G1", f.intent(t, f.order))

	o, err := f.svc.Verify(ctx, f.owner, f.verifyInput("pay_P1"))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	require.NotNil(t, o.PaidAt)
	assert.True(t, o.PaidAt.Equal(testNow))
	assert.Equal(t, "pay_P1", o.PaymentResult.ExternalPaymentID)
	assert.Equal(t, f.owner.Email, o.PaymentResult.PayerEmail)

	again, err := f.svc.Verify(ctx, f.owner, f.verifyInput("pay_P1"))
	require.NoError(t, err)
	assert.True(t, again.PaidAt.Equal(*o.PaidAt))

	_, err = f.svc.Verify(ctx, f.owner, f.verifyInput("pay_P2"))
	assert.ErrorIs(t, err, orderservice.ErrConflict)
}

func TestVerifyPaymentCannotSettleAnotherOrder(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.intent(t, f.order)

	_, err := f.svc.Verify(ctx, f.owner, f.verifyInput("pay_P1"))
	require.NoError(t, err)

	// same signed triple pointed at a second order
	second := f.newOrder(t, models.PaymentMethodRazorpay)
	reused := f.verifyInput("pay_P1")
	reused.OrderID = second.ID
	_, err = f.svc.Verify(ctx, f.owner, reused)
	assert.ErrorIs(t, err, orderservice.ErrValidation)

	gid := f.intent(t, second)
	require.Equal(t, "order_G2", gid)
	_, err = f.svc.Verify(ctx, f.owner, reused)
	assert.ErrorIs(t, err, orderservice.ErrValidation, "payment belongs to order_G1")

	_, err = f.svc.Verify(ctx, f.owner, VerifyInput{
		OrderID:          second.ID,
		GatewayOrderID:   gid,
		GatewayPaymentID: "pay_P1",
		Signature:        Sign(testSecret, gid, "pay_P1"),
	})
	assert.ErrorIs(t, err, orderservice.ErrConflict, "one payment id settles one order")

	stored, err := f.orders.GetOrder(ctx, f.owner, second.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PaidAt)
}

func TestVerifyRejectsCashOnDelivery(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	cod := f.newOrder(t, models.PaymentMethodCOD)
	in := f.verifyInput("pay_P1")
	in.OrderID = cod.ID
	_, err := f.svc.Verify(ctx, f.owner, in)
	assert.ErrorIs(t, err, orderservice.ErrValidation)

	stored, err := f.orders.GetOrder(ctx, f.owner, cod.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PaidAt)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	in := f.verifyInput("pay_P1")
	sig := []byte(in.Signature)
	sig[0] ^= 0x01
	in.Signature = string(sig)

	_, err := f.svc.Verify(ctx, f.owner, in)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	stored, err := f.orders.GetOrder(ctx, f.owner, f.order.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PaidAt)
	assert.Nil(t, stored.PaymentResult)
}

func TestVerifyErrors(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	in := f.verifyInput("pay_P1")
	in.Signature = ""
	_, err := f.svc.Verify(ctx, f.owner, in)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Verify(ctx, f.other, f.verifyInput("pay_P1"))
	assert.ErrorIs(t, err, orderservice.ErrForbidden)

	missing := f.verifyInput("pay_P1")
	missing.OrderID = uuid.New()
	_, err = f.svc.Verify(ctx, f.owner, missing)
	assert.ErrorIs(t, err, orderservice.ErrNotFound)

	_, err = f.orders.Cancel(ctx, f.owner, f.order.ID)
	require.NoError(t, err)
	_, err = f.svc.Verify(ctx, f.owner, f.verifyInput("pay_P1"))
	assert.ErrorIs(t, err, orderservice.ErrInvalidTransition)
}

func TestMethods(t *testing.T) {
	t.Parallel()

	configured := (&PaymentService{Gateway: &fakeGateway{}, KeyID: "k", KeySecret: []byte("s")}).Methods()
	require.Len(t, configured, 2)
	assert.True(t, configured[0].Available)
	assert.True(t, configured[1].Available)

	bare := (&PaymentService{}).Methods()
	assert.Equal(t, models.PaymentMethodRazorpay, bare[0].ID)
	assert.False(t, bare[0].Available)
	assert.Equal(t, models.PaymentMethodCOD, bare[1].ID)
	assert.True(t, bare[1].Available)
}
