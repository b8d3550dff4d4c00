package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vinylvault/vinylvault/internal/order"
)

type PlaceOrderRequest struct {
	ShippingAddress    string `json:"shipping_address" validate:"required"`
	ShippingCity       string `json:"shipping_city" validate:"required"`
	ShippingPostalCode string `json:"shipping_postal_code" validate:"required"`
	ShippingCountry    string `json:"shipping_country" validate:"required"`
}

type OrderHandler struct {
	orders   order.Service
	validate *validator.Validate
}

func NewOrderHandler(orders order.Service) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/", h.handlePlaceOrder)
	router.Get("/", h.handleListOrders)
	router.Get("/{id}", h.handleGetOrder)
}

func (h *OrderHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	var payload PlaceOrderRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		respondWithValidationError(w, err)
		return
	}

	shipping := order.ShippingAddress{
		Address:    payload.ShippingAddress,
		City:       payload.ShippingCity,
		PostalCode: payload.ShippingPostalCode,
		Country:    payload.ShippingCountry,
	}

	ord, err := h.orders.PlaceOrder(r.Context(), claims.UserID, shipping)
	if err != nil {
		respondWithServiceError(w, err, "Failed to place order")
		return
	}

	respondWithJSON(w, http.StatusCreated, ord)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	orders, err := h.orders.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	orderID, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	ord, err := h.orders.GetForUser(r.Context(), claims.UserID, orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch order")
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}
