package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartsvc "github.com/multimart/multimart-backend/internal/cart"
	checkoutsvc "github.com/multimart/multimart-backend/internal/checkout"
	"github.com/multimart/multimart-backend/internal/products"
	"github.com/multimart/multimart-backend/pkg/config"
	"github.com/multimart/multimart-backend/pkg/db/models"
	"github.com/multimart/multimart-backend/pkg/enums"
	pkgerrors "github.com/multimart/multimart-backend/pkg/errors"
	"github.com/multimart/multimart-backend/pkg/redis"
	"github.com/multimart/multimart-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type nullStore struct{}

func (nullStore) Ping(ctx context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (nullStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	return goredis.NewStatusResult("OK", nil)
}

func (nullStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	return goredis.NewBoolResult(true, nil)
}

func (nullStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	return goredis.NewStringResult("", goredis.Nil)
}

func (nullStore) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	return goredis.NewIntResult(0, nil)
}

type stubProducts struct{}

func (stubProducts) List(ctx context.Context, params products.ListParams) ([]models.Product, int64, error) {
	return nil, 0, nil
}

func (stubProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type stubOrders struct{}

func (stubOrders) Create(ctx context.Context, order *models.Order) error { return nil }

func (stubOrders) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (stubOrders) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.Env = "test"

	manager := cartsvc.NewManager(redis.NewWithStore(nullStore{}), config.CartConfig{
		SaveDebounce:    time.Millisecond,
		NotificationTTL: time.Minute,
		StorageTTL:      time.Hour,
	}, nil, nil)
	t.Cleanup(manager.Close)

	checkoutService, err := checkoutsvc.NewService(stubOrders{}, nil, nil, nil, nil)
	require.NoError(t, err)

	return NewRouter(cfg, nil, stubPinger{}, stubPinger{}, manager, checkoutService, stubProducts{}, stubOrders{})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestCartRoutesRequireSessionHeader(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	r.Header.Set("X-Session-Id", "sess-router")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCartRoundTripThroughRouter(t *testing.T) {
	router := newTestRouter(t)

	body := `{"id":"prod-9","name":"Graph Paper","price":55.0}`
	r := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
	r.Header.Set("X-Session-Id", "sess-rt")
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	require.Equal(t, http.StatusCreated, w.Code)

	r = httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/prod-9", nil)
	r.Header.Set("X-Session-Id", "sess-rt")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	data := envelope.Data.(map[string]any)
	assert.Empty(t, data["items"])
}

func TestCheckoutStartWithEmptyCartFails(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	r.Header.Set("X-Session-Id", "sess-empty")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
}

func TestProductsListIsPublic(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/products/?vertical="+string(enums.VerticalMarketplace), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
