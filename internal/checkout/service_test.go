package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multimart/multimart-backend/internal/cart"
	"github.com/multimart/multimart-backend/pkg/db/models"
	"github.com/multimart/multimart-backend/pkg/enums"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
)

type stubRepo struct {
	created []*models.Order
	err     error
}

func (s *stubRepo) Create(ctx context.Context, order *models.Order) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, order)
	return nil
}

func (s *stubRepo) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	for _, o := range s.created {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubRepo) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	return nil, nil
}

type stubGateway struct {
	orderID   string
	createErr error
	verified  bool
	calls     int
}

func (s *stubGateway) CreateOrder(ctx context.Context, amountCents int64, receipt string) (string, error) {
	s.calls++
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.orderID, nil
}

func (s *stubGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return s.verified
}

type stubGeo struct {
	pos Position
	err error
}

func (s *stubGeo) CurrentPosition(ctx context.Context) (Position, error) {
	if s.err != nil {
		return Position{}, s.err
	}
	return s.pos, nil
}

func validForm() ShippingForm {
	return ShippingForm{
		Name:    "Asha Rao",
		Phone:   "9876543210",
		Email:   "asha@example.com",
		Address: "14 Lake View Road",
		City:    "Bengaluru",
		Pincode: "560001",
	}
}

func plainItem() cart.LineItem {
	return cart.LineItem{
		ID:          "prod-1",
		LineItemKey: "prod-1",
		Name:        "Notebook",
		Price:       120,
		Quantity:    2,
		Selected:    true,
	}
}

func sizedItem() cart.LineItem {
	item := cart.LineItem{
		ID:       "prod-2",
		Name:     "Hoodie",
		Price:    900,
		Quantity: 1,
		Selected: true,
		Sizes:    []string{"S", "M", "L"},
	}
	item.LineItemKey = cart.LineItemKey(item)
	return item
}

func newTestService(t *testing.T, repo *stubRepo, gw *stubGateway) Service {
	t.Helper()
	svc, err := NewService(repo, gw, nil, nil, nil)
	require.NoError(t, err)
	return svc
}

func startFlow(t *testing.T, svc Service, items ...cart.LineItem) *Flow {
	t.Helper()
	flow, err := svc.Start(context.Background(), "sess-1", items)
	require.NoError(t, err)
	return flow
}

func TestStartRequiresItems(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, nil)

	_, err := svc.Start(context.Background(), "sess-1", nil)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestAdvanceBlockedUntilRequiredVariantsChosen(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, nil)
	startFlow(t, svc, sizedItem())

	_, err := svc.Advance(context.Background(), "sess-1")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	size := "M"
	_, err = svc.Customize(context.Background(), "sess-1", sizedItem().LineItemKey, cart.CustomizationFields{Size: &size})
	require.NoError(t, err)

	flow, err := svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepPayment, flow.Step)
}

func TestAdvanceAllowedWithoutVariantOptions(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, nil)
	startFlow(t, svc, plainItem())

	flow, err := svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepPayment, flow.Step)
}

func TestBackKeepsEnteredData(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{orderID: "rzp_1"}
	svc := newTestService(t, repo, gw)
	startFlow(t, svc, plainItem())

	_, err := svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)

	// A failed submit stores nothing, but a gateway submit pins the form.
	_, err = svc.Submit(context.Background(), "sess-1", validForm(), enums.PaymentMethodRazorpay)
	require.NoError(t, err)

	flow, err := svc.Back(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepCustomization, flow.Step)
	assert.Equal(t, "Asha Rao", flow.Form.Name)
	assert.Equal(t, "560001", flow.Form.Pincode)
}

func TestCancelDiscardsFlowWithoutSideEffects(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{orderID: "rzp_1"}
	svc := newTestService(t, repo, gw)
	startFlow(t, svc, plainItem())

	require.NoError(t, svc.Cancel(context.Background(), "sess-1"))

	_, err := svc.Get(context.Background(), "sess-1")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
	assert.Empty(t, repo.created)
	assert.Zero(t, gw.calls)
}

func TestSubmitCashOnDeliveryPersistsPendingOrder(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, nil)
	startFlow(t, svc, plainItem())

	_, err := svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)

	result, err := svc.Submit(context.Background(), "sess-1", validForm(), enums.PaymentMethodCashOnDelivery)
	require.NoError(t, err)
	assert.True(t, result.Placed)
	require.NotNil(t, result.Order)
	assert.Equal(t, enums.OrderStatusPending, result.Order.Status)
	assert.Equal(t, int64(24000), result.Order.AmountCents)
	require.Len(t, repo.created, 1)

	// The flow is gone once the order is placed.
	_, err = svc.Get(context.Background(), "sess-1")
	assert.Error(t, err)
}

func TestSubmitRejectsInvalidForm(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, nil)
	startFlow(t, svc, plainItem())

	_, err := svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)

	form := validForm()
	form.Phone = "12345"
	_, err = svc.Submit(context.Background(), "sess-1", form, enums.PaymentMethodCashOnDelivery)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestSubmitGatewayInitFailure(t *testing.T) {
	gw := &stubGateway{createErr: errors.New("connection refused")}
	svc := newTestService(t, &stubRepo{}, gw)
	startFlow(t, svc, plainItem())

	_, err := svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "sess-1", validForm(), enums.PaymentMethodRazorpay)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodePaymentInit, appErr.Code())

	// A failed launch leaves the flow retryable.
	flow, err := svc.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.False(t, flow.Processing)
}

func TestGatewayPaymentHappyPath(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{orderID: "rzp_order_1", verified: true}
	svc := newTestService(t, repo, gw)
	startFlow(t, svc, plainItem())

	_, err := svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)

	result, err := svc.Submit(context.Background(), "sess-1", validForm(), enums.PaymentMethodRazorpay)
	require.NoError(t, err)
	assert.True(t, result.AwaitingPayment)
	assert.Equal(t, "rzp_order_1", result.GatewayOrderID)
	assert.Equal(t, int64(24000), result.AmountCents)

	done, err := svc.CompletePayment(context.Background(), "sess-1", PaymentCallback{
		PaymentID: "pay_1",
		Signature: "sig",
	})
	require.NoError(t, err)
	assert.True(t, done.Placed)
	require.Len(t, repo.created, 1)
	order := repo.created[0]
	assert.Equal(t, enums.OrderStatusConfirmed, order.Status)
	require.NotNil(t, order.PaymentID)
	assert.Equal(t, "pay_1", *order.PaymentID)
	require.NotNil(t, order.GatewayOrderID)
	assert.Equal(t, "rzp_order_1", *order.GatewayOrderID)
}

func TestDismissedWidgetResetsProcessing(t *testing.T) {
	gw := &stubGateway{orderID: "rzp_order_1"}
	svc := newTestService(t, &stubRepo{}, gw)
	startFlow(t, svc, plainItem())

	_, err := svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), "sess-1", validForm(), enums.PaymentMethodRazorpay)
	require.NoError(t, err)

	_, err = svc.CompletePayment(context.Background(), "sess-1", PaymentCallback{Dismissed: true})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodePaymentCancelled, appErr.Code())

	flow, err := svc.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.False(t, flow.Processing)
	assert.Equal(t, enums.CheckoutStepPayment, flow.Step)
}

func TestBadSignatureRejectsPayment(t *testing.T) {
	repo := &stubRepo{}
	gw := &stubGateway{orderID: "rzp_order_1", verified: false}
	svc := newTestService(t, repo, gw)
	startFlow(t, svc, plainItem())

	_, err := svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), "sess-1", validForm(), enums.PaymentMethodRazorpay)
	require.NoError(t, err)

	_, err = svc.CompletePayment(context.Background(), "sess-1", PaymentCallback{PaymentID: "pay_1", Signature: "forged"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodePaymentVerify, appErr.Code())
	assert.Empty(t, repo.created)
}

func TestPersistFailureAfterVerifiedPayment(t *testing.T) {
	repo := &stubRepo{err: errors.New("db down")}
	gw := &stubGateway{orderID: "rzp_order_1", verified: true}
	svc := newTestService(t, repo, gw)
	startFlow(t, svc, plainItem())

	_, err := svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), "sess-1", validForm(), enums.PaymentMethodRazorpay)
	require.NoError(t, err)

	_, err = svc.CompletePayment(context.Background(), "sess-1", PaymentCallback{PaymentID: "pay_1", Signature: "sig"})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeOrderPersist, appErr.Code())

	// The flow survives for support reconciliation; it must never look placed.
	flow, getErr := svc.Get(context.Background(), "sess-1")
	require.NoError(t, getErr)
	assert.NotEmpty(t, flow.OrderID)
}

func TestLocateFillsCoordinates(t *testing.T) {
	geo := &stubGeo{pos: Position{Latitude: 12.9716, Longitude: 77.5946}}
	svc, err := NewService(&stubRepo{}, nil, geo, nil, nil)
	require.NoError(t, err)
	startFlow(t, svc, plainItem())

	flow, notice, err := svc.Locate(context.Background(), "sess-1", nil)
	require.NoError(t, err)
	assert.Equal(t, LocationNotice, notice)
	require.NotNil(t, flow.Form.Latitude)
	assert.InDelta(t, 12.9716, *flow.Form.Latitude, 0.0001)
	assert.Contains(t, flow.Form.Address, "12.97160")
}

func TestLocatePermissionDenied(t *testing.T) {
	geo := &stubGeo{err: &PositionError{Code: PositionPermissionDenied, Message: "denied"}}
	svc, err := NewService(&stubRepo{}, nil, geo, nil, nil)
	require.NoError(t, err)
	startFlow(t, svc, plainItem())

	_, _, err = svc.Locate(context.Background(), "sess-1", nil)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())
	assert.Contains(t, appErr.Error(), "permission denied")
}

func TestCustomizeMergesCollidingRows(t *testing.T) {
	red := sizedItem()
	red.SelectedSize = "M"
	red.LineItemKey = cart.LineItemKey(red)

	other := sizedItem()
	other.SelectedSize = "L"
	other.LineItemKey = cart.LineItemKey(other)

	svc := newTestService(t, &stubRepo{}, nil)
	startFlow(t, svc, red, other)

	size := "M"
	flow, err := svc.Customize(context.Background(), "sess-1", other.LineItemKey, cart.CustomizationFields{Size: &size})
	require.NoError(t, err)
	require.Len(t, flow.Items, 1)
	assert.Equal(t, 2, flow.Items[0].Quantity)
}

func TestLocatePrefersReportedCoordinates(t *testing.T) {
	geo := &stubGeo{err: &PositionError{Code: PositionUnavailable, Message: "no fix"}}
	svc, err := NewService(&stubRepo{}, nil, geo, nil, nil)
	require.NoError(t, err)
	startFlow(t, svc, plainItem())

	flow, _, err := svc.Locate(context.Background(), "sess-1", &Position{Latitude: 19.076, Longitude: 72.8777})
	require.NoError(t, err)
	require.NotNil(t, flow.Form.Longitude)
	assert.InDelta(t, 72.8777, *flow.Form.Longitude, 0.0001)
}

func TestPruneExpiredKeepsProcessingFlows(t *testing.T) {
	gw := &stubGateway{orderID: "rzp_1"}
	svc := newTestService(t, &stubRepo{}, gw)

	_, err := svc.Start(context.Background(), "sess-old", []cart.LineItem{plainItem()})
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), "sess-paying", []cart.LineItem{plainItem()})
	require.NoError(t, err)

	// Move the paying session into the gateway wait state.
	_, err = svc.Advance(context.Background(), "sess-paying")
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), "sess-paying", validForm(), enums.PaymentMethodRazorpay)
	require.NoError(t, err)

	// Zero max age disables pruning entirely.
	assert.Zero(t, svc.PruneExpired(context.Background(), 0))

	impl := svc.(*service)
	impl.mu.Lock()
	impl.flows["sess-old"].CreatedAt = time.Now().Add(-time.Hour)
	impl.flows["sess-paying"].CreatedAt = time.Now().Add(-time.Hour)
	impl.mu.Unlock()

	pruned := svc.PruneExpired(context.Background(), 30*time.Minute)
	assert.Equal(t, 1, pruned)

	_, err = svc.Get(context.Background(), "sess-old")
	assert.Error(t, err)
	_, err = svc.Get(context.Background(), "sess-paying")
	assert.NoError(t, err)
}

// parkedGateway stalls CreateOrder until released, signalling entry so tests
// can order their steps around the in-flight call.
type parkedGateway struct {
	entered chan struct{}
	release chan struct{}
}

func (p *parkedGateway) CreateOrder(ctx context.Context, amountCents int64, receipt string) (string, error) {
	close(p.entered)
	<-p.release
	return "rzp_parked", nil
}

func (p *parkedGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return true
}

func TestSubmitDoesNotSerializeOtherSessions(t *testing.T) {
	gw := &parkedGateway{entered: make(chan struct{}), release: make(chan struct{})}
	svc, err := NewService(&stubRepo{}, gw, nil, nil, nil)
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), "sess-1", []cart.LineItem{plainItem()})
	require.NoError(t, err)
	_, err = svc.Advance(context.Background(), "sess-1")
	require.NoError(t, err)

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), "sess-1", validForm(), enums.PaymentMethodRazorpay)
		firstDone <- err
	}()
	<-gw.entered

	// A duplicate submit for the parked session conflicts instead of queuing
	// a second charge.
	_, err = svc.Submit(context.Background(), "sess-1", validForm(), enums.PaymentMethodRazorpay)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	// Other sessions keep moving while sess-1 waits on the gateway.
	flow, err := svc.Start(context.Background(), "sess-2", []cart.LineItem{plainItem()})
	require.NoError(t, err)
	require.NotNil(t, flow)

	close(gw.release)
	require.NoError(t, <-firstDone)

	parked, err := svc.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.True(t, parked.Processing)
	assert.Equal(t, "rzp_parked", parked.GatewayOrderID)
}
