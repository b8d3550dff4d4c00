package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	handler "github.com/vinylvault/vinylvault/internal/handler/http"
	"github.com/vinylvault/vinylvault/internal/order"
	"github.com/vinylvault/vinylvault/internal/record"
	"github.com/vinylvault/vinylvault/internal/user"
)

// newAdminRouter mounts the back-office routes behind the full middleware
// chain with an admin session, mirroring the transport wiring.
func newAdminRouter(t *testing.T, records *MockRecordService, orders *MockOrderService, users *MockUserService) (*chi.Mux, string) {
	t.Helper()
	tokens := newTestTokenManager(t)
	token, err := tokens.Issue(1, "admin@example.com", true)
	require.NoError(t, err)

	users.On("GetByID", mock.Anything, int64(1)).
		Return(&user.User{ID: 1, Email: "admin@example.com", IsAdmin: true}, nil).
		Maybe()

	h := handler.NewAdminHandler(records, orders)
	router := chi.NewRouter()
	router.Use(handler.Authenticate(tokens), handler.RequireAdmin(users))
	h.RegisterRoutes(router)
	return router, token
}

func TestAdminHandler_handleCreateRecord_Success(t *testing.T) {
	records := new(MockRecordService)
	router, token := newAdminRouter(t, records, new(MockOrderService), new(MockUserService))

	records.On("Create", mock.Anything, mock.MatchedBy(func(rec *record.Record) bool {
		return rec.Title == "Blue Train" &&
			rec.Artist == "John Coltrane" &&
			rec.Price == 24.99 &&
			rec.StockQuantity == 10
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*record.Record).ID = 7
	}).Return(nil).Once()

	body, err := json.Marshal(handler.RecordRequest{
		Title:         "Blue Train",
		Artist:        "John Coltrane",
		Genre:         "Jazz",
		ReleaseYear:   1958,
		Price:         24.99,
		StockQuantity: 10,
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/records", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp record.Record
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(7), resp.ID)
	records.AssertExpectations(t)
}

func TestAdminHandler_handleCreateRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing_title", `{"artist":"John Coltrane","price":24.99}`},
		{"zero_price", `{"title":"Blue Train","artist":"John Coltrane","price":0}`},
		{"negative_stock", `{"title":"Blue Train","artist":"John Coltrane","price":24.99,"stock_quantity":-1}`},
		{"bad_release_year", `{"title":"Blue Train","artist":"John Coltrane","price":24.99,"release_year":1500}`},
		{"bad_image_url", `{"title":"Blue Train","artist":"John Coltrane","price":24.99,"image_url":"not a url"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := new(MockRecordService)
			router, token := newAdminRouter(t, records, new(MockOrderService), new(MockUserService))

			req := httptest.NewRequest(http.MethodPost, "/records", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			records.AssertNotCalled(t, "Create")
		})
	}
}

func TestAdminHandler_handleUpdateRecord_NotFound(t *testing.T) {
	records := new(MockRecordService)
	router, token := newAdminRouter(t, records, new(MockOrderService), new(MockUserService))

	records.On("Update", mock.Anything, mock.MatchedBy(func(rec *record.Record) bool {
		return rec.ID == 404
	})).Return(record.ErrNotFound).Once()

	body := `{"title":"Ghost","artist":"Nobody","price":9.99}`
	req := httptest.NewRequest(http.MethodPut, "/records/404", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
	records.AssertExpectations(t)
}

func TestAdminHandler_handleDeleteRecord(t *testing.T) {
	records := new(MockRecordService)
	router, token := newAdminRouter(t, records, new(MockOrderService), new(MockUserService))

	records.On("Delete", mock.Anything, int64(7)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/records/7", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	records.AssertExpectations(t)
}

func TestAdminHandler_handleListOrders(t *testing.T) {
	orders := new(MockOrderService)
	router, token := newAdminRouter(t, new(MockRecordService), orders, new(MockUserService))

	orders.On("ListAll", mock.Anything).
		Return([]order.Order{{ID: 2, CustomerEmail: "ella@example.com"}, {ID: 1}}, nil).
		Once()

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp []order.Order
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "ella@example.com", resp[0].CustomerEmail)
	orders.AssertExpectations(t)
}

func TestAdminHandler_handleUpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{
			name:       "valid_transition",
			body:       `{"status":"processing"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown_status",
			body:       `{"status":"paid"}`,
			serviceErr: order.ErrInvalidStatus,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "illegal_transition",
			body:       `{"status":"pending"}`,
			serviceErr: order.ErrInvalidTransition,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "order_not_found",
			body:       `{"status":"processing"}`,
			serviceErr: order.ErrOrderNotFound,
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(MockOrderService)
			router, token := newAdminRouter(t, new(MockRecordService), orders, new(MockUserService))

			call := orders.On("UpdateStatus", mock.Anything, int64(9), mock.AnythingOfType("order.Status")).Once()
			if tt.serviceErr != nil {
				call.Return(nil, tt.serviceErr)
			} else {
				call.Return(&order.Order{ID: 9, Status: order.StatusProcessing}, nil)
			}

			req := httptest.NewRequest(http.MethodPut, "/orders/9/status", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)
			require.Equal(t, tt.wantStatus, rr.Code)
			orders.AssertExpectations(t)
		})
	}
}

func TestAdminHandler_handleUpdateOrderStatus_MissingStatus(t *testing.T) {
	orders := new(MockOrderService)
	router, token := newAdminRouter(t, new(MockRecordService), orders, new(MockUserService))

	req := httptest.NewRequest(http.MethodPut, "/orders/9/status", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	orders.AssertNotCalled(t, "UpdateStatus")
}
