package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vinylvault/vinylvault/internal/cart"
)

type AddCartItemRequest struct {
	RecordID int64 `json:"record_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"omitempty,gt=0"`
}

type UpdateCartItemRequest struct {
	// Quantity is a pointer so an explicit zero (meaning: remove the item)
	// survives validation.
	Quantity *int `json:"quantity" validate:"required"`
}

type CartHandler struct {
	carts    cart.Service
	validate *validator.Validate
}

func NewCartHandler(carts cart.Service) *CartHandler {
	return &CartHandler{
		carts:    carts,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/", h.handleGetCart)
	router.Post("/items", h.handleAddItem)
	router.Put("/items/{id}", h.handleUpdateItem)
	router.Delete("/items/{id}", h.handleRemoveItem)
	router.Delete("/", h.handleClear)
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	c, err := h.carts.GetCart(r.Context(), claims.UserID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch cart")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	var payload AddCartItemRequest
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

	if payload.Quantity == 0 {
		payload.Quantity = 1
	}

	c, err := h.carts.AddItem(r.Context(), claims.UserID, payload.RecordID, payload.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add item to cart")
		return
	}

	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CartHandler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	itemID, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload UpdateCartItemRequest
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

	c, err := h.carts.UpdateItemQuantity(r.Context(), claims.UserID, itemID, *payload.Quantity)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update cart item")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	itemID, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	c, err := h.carts.RemoveItem(r.Context(), claims.UserID, itemID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to remove cart item")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	if err := h.carts.Clear(r.Context(), claims.UserID); err != nil {
		respondWithServiceError(w, err, "Failed to clear cart")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared successfully"})
}
