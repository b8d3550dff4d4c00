package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vinylvault/vinylvault/internal/cart"
	handler "github.com/vinylvault/vinylvault/internal/handler/http"
)

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetCart(ctx context.Context, userID int64) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, userID, recordID int64, quantity int) (*cart.Cart, error) {
	args := m.Called(ctx, userID, recordID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*cart.Cart, error) {
	args := m.Called(ctx, userID, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, itemID int64) (*cart.Cart, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func newCartRouter(t *testing.T, mockService *MockCartService) (*chi.Mux, string) {
	t.Helper()
	tokens := newTestTokenManager(t)
	token, err := tokens.Issue(42, "ella@example.com", false)
	require.NoError(t, err)

	h := handler.NewCartHandler(mockService)
	router := chi.NewRouter()
	router.Use(handler.Authenticate(tokens))
	h.RegisterRoutes(router)
	return router, token
}

func TestCartHandler_handleGetCart(t *testing.T) {
	mockService := new(MockCartService)
	router, token := newCartRouter(t, mockService)

	mockService.On("GetCart", mock.Anything, int64(42)).
		Return(&cart.Cart{ID: 1, UserID: 42, Items: []cart.Item{}, Total: 0}, nil).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp cart.Cart
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(42), resp.UserID)
	assert.NotNil(t, resp.Items, "empty cart serializes items as [], not null")
	mockService.AssertExpectations(t)
}

func TestCartHandler_handleAddItem_Success(t *testing.T) {
	mockService := new(MockCartService)
	router, token := newCartRouter(t, mockService)

	refreshed := &cart.Cart{
		ID:     1,
		UserID: 42,
		Items:  []cart.Item{{ID: 5, RecordID: 3, Quantity: 2, Title: "Thriller", Price: 29.99}},
		Total:  59.98,
	}
	mockService.On("AddItem", mock.Anything, int64(42), int64(3), 2).Return(refreshed, nil).Once()

	body, err := json.Marshal(handler.AddCartItemRequest{RecordID: 3, Quantity: 2})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp cart.Cart
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	assert.InDelta(t, 59.98, resp.Total, 0.001)
	mockService.AssertExpectations(t)
}

func TestCartHandler_handleAddItem_QuantityDefaultsToOne(t *testing.T) {
	mockService := new(MockCartService)
	router, token := newCartRouter(t, mockService)

	mockService.On("AddItem", mock.Anything, int64(42), int64(3), 1).
		Return(&cart.Cart{ID: 1, UserID: 42}, nil).
		Once()

	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewBufferString(`{"record_id":3}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	mockService.AssertExpectations(t)
}

func TestCartHandler_handleAddItem_UnknownRecord(t *testing.T) {
	mockService := new(MockCartService)
	router, token := newCartRouter(t, mockService)

	mockService.On("AddItem", mock.Anything, int64(42), int64(404), 1).
		Return(nil, cart.ErrRecordNotFound).
		Once()

	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewBufferString(`{"record_id":404}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
	mockService.AssertExpectations(t)
}

func TestCartHandler_handleAddItem_InsufficientStock(t *testing.T) {
	mockService := new(MockCartService)
	router, token := newCartRouter(t, mockService)

	mockService.On("AddItem", mock.Anything, int64(42), int64(3), 50).
		Return(nil, cart.ErrInsufficientStock).
		Once()

	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewBufferString(`{"record_id":3,"quantity":50}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var errorResponse map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
	assert.Contains(t, errorResponse["error"], "not enough stock")
	mockService.AssertExpectations(t)
}

func TestCartHandler_handleUpdateItem_ExplicitZeroRemoves(t *testing.T) {
	mockService := new(MockCartService)
	router, token := newCartRouter(t, mockService)

	mockService.On("UpdateItemQuantity", mock.Anything, int64(42), int64(5), 0).
		Return(&cart.Cart{ID: 1, UserID: 42, Items: []cart.Item{}}, nil).
		Once()

	req := httptest.NewRequest(http.MethodPut, "/items/5", bytes.NewBufferString(`{"quantity":0}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestCartHandler_handleUpdateItem_MissingQuantity(t *testing.T) {
	mockService := new(MockCartService)
	router, token := newCartRouter(t, mockService)

	req := httptest.NewRequest(http.MethodPut, "/items/5", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "UpdateItemQuantity")
}

func TestCartHandler_handleUpdateItem_ForeignItem(t *testing.T) {
	mockService := new(MockCartService)
	router, token := newCartRouter(t, mockService)

	mockService.On("UpdateItemQuantity", mock.Anything, int64(42), int64(5), 2).
		Return(nil, cart.ErrNotOwner).
		Once()

	req := httptest.NewRequest(http.MethodPut, "/items/5", bytes.NewBufferString(`{"quantity":2}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
	mockService.AssertExpectations(t)
}

func TestCartHandler_handleRemoveItem(t *testing.T) {
	mockService := new(MockCartService)
	router, token := newCartRouter(t, mockService)

	mockService.On("RemoveItem", mock.Anything, int64(42), int64(5)).
		Return(&cart.Cart{ID: 1, UserID: 42, Items: []cart.Item{}}, nil).
		Once()

	req := httptest.NewRequest(http.MethodDelete, "/items/5", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	mockService.AssertExpectations(t)
}

func TestCartHandler_handleClear(t *testing.T) {
	mockService := new(MockCartService)
	router, token := newCartRouter(t, mockService)

	mockService.On("Clear", mock.Anything, int64(42)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Cart cleared successfully", resp["message"])
	mockService.AssertExpectations(t)
}
