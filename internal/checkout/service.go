package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/multimart/multimart-backend/internal/cart"
	"github.com/multimart/multimart-backend/internal/orders"
	"github.com/multimart/multimart-backend/pkg/db/models"
	"github.com/multimart/multimart-backend/pkg/enums"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
	"github.com/multimart/multimart-backend/pkg/logger"
	"github.com/multimart/multimart-backend/pkg/metrics"
	"github.com/multimart/multimart-backend/pkg/payment"
)

// LocationNotice accompanies a successful geolocation fill: the coordinates
// are captured but street-address lookup is a separate service.
const LocationNotice = "Coordinates captured. Automatic street-address lookup is not available; please complete the address manually."

// SubmitResult reports the outcome of a checkout submission.
type SubmitResult struct {
	// Placed is true once an order record was durably stored.
	Placed bool `json:"placed"`
	// AwaitingPayment is true when the gateway widget must complete first.
	AwaitingPayment bool           `json:"awaiting_payment"`
	Order           *models.Order  `json:"order,omitempty"`
	OrderID         string         `json:"order_id,omitempty"`
	GatewayOrderID  string         `json:"gateway_order_id,omitempty"`
	AmountCents     int64          `json:"amount_cents,omitempty"`
}

// PaymentCallback is what the gateway widget reports back.
type PaymentCallback struct {
	Dismissed bool   `json:"dismissed"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// Service drives the two-step checkout wizard for every session.
type Service interface {
	Start(ctx context.Context, sessionID string, items []cart.LineItem) (*Flow, error)
	Get(ctx context.Context, sessionID string) (*Flow, error)
	Customize(ctx context.Context, sessionID, lineItemKey string, fields cart.CustomizationFields) (*Flow, error)
	Advance(ctx context.Context, sessionID string) (*Flow, error)
	Back(ctx context.Context, sessionID string) (*Flow, error)
	Cancel(ctx context.Context, sessionID string) error
	Locate(ctx context.Context, sessionID string, reported *Position) (*Flow, string, error)
	Submit(ctx context.Context, sessionID string, form ShippingForm, method enums.PaymentMethod) (*SubmitResult, error)
	CompletePayment(ctx context.Context, sessionID string, cb PaymentCallback) (*SubmitResult, error)
	PruneExpired(ctx context.Context, maxAge time.Duration) int
}

type service struct {
	mu    sync.Mutex
	flows map[string]*Flow

	ordersRepo orders.Repository
	gateway    payment.Gateway
	geo        Geolocator

	metrics *metrics.CartMetrics
	logg    *logger.Logger
}

// NewService builds the checkout service. The gateway and geolocator are
// optional collaborators; operations needing an absent one fail cleanly.
func NewService(ordersRepo orders.Repository, gateway payment.Gateway, geo Geolocator, m *metrics.CartMetrics, logg *logger.Logger) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{
		flows:      map[string]*Flow{},
		ordersRepo: ordersRepo,
		gateway:    gateway,
		geo:        geo,
		metrics:    m,
		logg:       logg,
	}, nil
}

func (s *service) Start(ctx context.Context, sessionID string, items []cart.LineItem) (*Flow, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items to check out")
	}

	snapshot := make([]cart.LineItem, len(items))
	copy(snapshot, items)

	flow := &Flow{
		SessionID: sessionID,
		Step:      enums.CheckoutStepCustomization,
		Items:     snapshot,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.flows[sessionID] = flow
	s.mu.Unlock()
	return s.snapshotFlow(flow), nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[sessionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	return s.snapshotFlow(flow), nil
}

// Customize applies a variant change to a snapshot row. Identity is
// recomputed; a collision with another row merges the two, same as in the
// cart itself.
func (s *service) Customize(ctx context.Context, sessionID, lineItemKey string, fields cart.CustomizationFields) (*Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, err := s.flowLocked(sessionID)
	if err != nil {
		return nil, err
	}
	if flow.Step != enums.CheckoutStepCustomization {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "customization is only editable on the first step")
	}

	state := cart.Reduce(cart.State{Items: flow.Items}, cart.UpdateCustomization{Key: lineItemKey, Fields: fields})
	flow.Items = state.Items
	return s.snapshotFlow(flow), nil
}

func (s *service) Advance(ctx context.Context, sessionID string) (*Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, err := s.flowLocked(sessionID)
	if err != nil {
		return nil, err
	}
	if flow.Step != enums.CheckoutStepCustomization {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already advanced")
	}
	if err := validateAdvance(flow); err != nil {
		return nil, err
	}
	flow.Step = enums.CheckoutStepPayment
	return s.snapshotFlow(flow), nil
}

// Back returns to customization. Always allowed; entered data stays.
func (s *service) Back(ctx context.Context, sessionID string) (*Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, err := s.flowLocked(sessionID)
	if err != nil {
		return nil, err
	}
	flow.Step = enums.CheckoutStepCustomization
	return s.snapshotFlow(flow), nil
}

// Cancel aborts the flow and discards the snapshot. No collaborator is
// touched.
func (s *service) Cancel(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flows[sessionID]; !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	delete(s.flows, sessionID)
	return nil
}

// Locate fills the shipping form with device coordinates. The storefront
// usually reports them directly; the configured geolocator is a fallback.
func (s *service) Locate(ctx context.Context, sessionID string, reported *Position) (*Flow, string, error) {
	var position Position
	switch {
	case reported != nil:
		position = *reported
	case s.geo != nil:
		pos, err := s.geo.CurrentPosition(ctx)
		if err != nil {
			var posErr *PositionError
			if errors.As(err, &posErr) && posErr.Code == PositionPermissionDenied {
				return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "location permission denied, please enter the address manually").
					WithDetails(map[string]any{"reason": "permission_denied"})
			}
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not determine the current location")
		}
		position = pos
	default:
		return nil, "", pkgerrors.New(pkgerrors.CodeDependency, "location service unavailable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	flow, err := s.flowLocked(sessionID)
	if err != nil {
		return nil, "", err
	}

	lat, lng := position.Latitude, position.Longitude
	flow.Form.Latitude = &lat
	flow.Form.Longitude = &lng
	if strings.TrimSpace(flow.Form.Address) == "" {
		flow.Form.Address = fmt.Sprintf("Near coordinates %.5f, %.5f", lat, lng)
	}
	return s.snapshotFlow(flow), LocationNotice, nil
}

func (s *service) Submit(ctx context.Context, sessionID string, form ShippingForm, method enums.PaymentMethod) (*SubmitResult, error) {
	s.mu.Lock()

	flow, err := s.flowLocked(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if flow.Step != enums.CheckoutStepPayment {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "complete customization before submitting")
	}
	if flow.Processing {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a payment is already in progress")
	}
	if err := form.Validate(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !method.IsValid() {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select a payment method")
	}

	// Geo fills captured earlier survive a re-submitted form.
	if form.Latitude == nil {
		form.Latitude = flow.Form.Latitude
	}
	if form.Longitude == nil {
		form.Longitude = flow.Form.Longitude
	}
	flow.Form = form
	flow.Method = method
	flow.OrderID = newOrderID()

	// The processing flag blocks a concurrent submit for this session while
	// the mutex is released around the collaborator call. Other sessions are
	// not serialized behind this one's network I/O.
	flow.Processing = true
	pending := s.snapshotFlow(flow)
	s.mu.Unlock()

	amount := amountCents(pending.Items)

	if method.Immediate() {
		order := buildOrder(pending, amount, enums.OrderStatusPending, nil, nil)
		createErr := s.ordersRepo.Create(ctx, order)
		s.mu.Lock()
		if createErr != nil {
			flow.Processing = false
			s.mu.Unlock()
			s.metrics.IncCheckout("save_failed")
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "saving order")
		}
		delete(s.flows, sessionID)
		s.mu.Unlock()
		s.metrics.IncCheckout("placed_cod")
		s.logOrder(ctx, order, "order placed")
		return &SubmitResult{Placed: true, Order: order, OrderID: order.OrderID}, nil
	}

	if s.gateway == nil {
		s.mu.Lock()
		flow.Processing = false
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodePaymentInit, "payment gateway unavailable")
	}
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amount, pending.OrderID)
	s.mu.Lock()
	if err != nil {
		flow.Processing = false
		s.mu.Unlock()
		s.metrics.IncCheckout("gateway_init_failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentInit, err, "starting gateway payment")
	}
	flow.GatewayOrderID = gatewayOrderID
	s.mu.Unlock()

	return &SubmitResult{
		AwaitingPayment: true,
		OrderID:         pending.OrderID,
		GatewayOrderID:  gatewayOrderID,
		AmountCents:     amount,
	}, nil
}

func (s *service) CompletePayment(ctx context.Context, sessionID string, cb PaymentCallback) (*SubmitResult, error) {
	s.mu.Lock()

	flow, err := s.flowLocked(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !flow.Processing || flow.GatewayOrderID == "" || flow.settling {
		s.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no gateway payment in progress")
	}

	if cb.Dismissed {
		// The widget was closed. Reset the processing flag so the shopper is
		// not stuck, and let them retry.
		flow.Processing = false
		s.mu.Unlock()
		s.metrics.IncCheckout("cancelled")
		return nil, pkgerrors.New(pkgerrors.CodePaymentCancelled, "payment was cancelled")
	}

	if s.gateway == nil || !s.gateway.VerifySignature(flow.GatewayOrderID, cb.PaymentID, cb.Signature) {
		flow.Processing = false
		orderID := flow.OrderID
		s.mu.Unlock()
		s.metrics.IncCheckout("verify_failed")
		return nil, pkgerrors.New(pkgerrors.CodePaymentVerify, "payment verification failed").
			WithDetails(map[string]any{"order_id": orderID})
	}

	flow.settling = true
	pending := s.snapshotFlow(flow)
	s.mu.Unlock()

	paymentID := cb.PaymentID
	gatewayOrderID := pending.GatewayOrderID
	order := buildOrder(pending, amountCents(pending.Items), enums.OrderStatusConfirmed, &paymentID, &gatewayOrderID)
	if err := s.ordersRepo.Create(ctx, order); err != nil {
		// Funds are captured but the record did not save. Keep the flow so
		// support can reconcile; never report success here.
		s.mu.Lock()
		flow.Processing = false
		flow.settling = false
		s.mu.Unlock()
		s.metrics.IncCheckout("persist_failed_after_payment")
		s.logOrder(ctx, order, "order persistence failed after successful payment")
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderPersist, err, "recording paid order").
			WithDetails(map[string]any{"order_id": order.OrderID, "payment_id": paymentID})
	}

	s.mu.Lock()
	delete(s.flows, sessionID)
	s.mu.Unlock()
	s.metrics.IncCheckout("placed_gateway")
	s.logOrder(ctx, order, "order placed")
	return &SubmitResult{Placed: true, Order: order, OrderID: order.OrderID}, nil
}

// PruneExpired drops abandoned drafts older than maxAge. Flows awaiting a
// gateway callback are kept regardless of age.
func (s *service) PruneExpired(ctx context.Context, maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for sessionID, flow := range s.flows {
		if flow.Processing || !flow.CreatedAt.Before(cutoff) {
			continue
		}
		delete(s.flows, sessionID)
		pruned++
	}
	if pruned > 0 && s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "pruned", pruned), "expired checkout drafts removed")
	}
	return pruned
}

func (s *service) flowLocked(sessionID string) (*Flow, error) {
	flow, ok := s.flows[sessionID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	return flow, nil
}

// snapshotFlow hands callers a copy so the guarded original cannot be
// mutated outside the lock.
func (s *service) snapshotFlow(flow *Flow) *Flow {
	out := *flow
	out.Items = make([]cart.LineItem, len(flow.Items))
	copy(out.Items, flow.Items)
	return &out
}

func (s *service) logOrder(ctx context.Context, order *models.Order, msg string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithOrderID(ctx, order.OrderID)
	if msg == "order placed" {
		s.logg.Info(ctx, msg)
		return
	}
	s.logg.Error(ctx, msg, nil)
}

func buildOrder(flow *Flow, amount int64, status enums.OrderStatus, paymentID, gatewayOrderID *string) *models.Order {
	items := make(models.OrderLineItems, len(flow.Items))
	for i, item := range flow.Items {
		items[i] = models.OrderLineItem{
			ProductID:        item.ID,
			LineItemKey:      item.LineItemKey,
			Name:             item.Name,
			Price:            item.Price,
			Quantity:         item.Quantity,
			SelectedColor:    item.SelectedColor,
			SelectedSize:     item.SelectedSize,
			SelectedMaterial: item.SelectedMaterial,
			SelectedRAM:      item.SelectedRAM,
		}
	}
	return &models.Order{
		OrderID:        flow.OrderID,
		PaymentID:      paymentID,
		GatewayOrderID: gatewayOrderID,
		AmountCents:    amount,
		PaymentMethod:  flow.Method,
		Status:         status,
		Items:          items,
		CustomerInfo: models.CustomerInfo{
			Name:    flow.Form.Name,
			Phone:   flow.Form.Phone,
			Email:   flow.Form.Email,
			Address: flow.Form.Address,
			City:    flow.Form.City,
			Pincode: flow.Form.Pincode,
		},
		Latitude:  flow.Form.Latitude,
		Longitude: flow.Form.Longitude,
	}
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
