package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vinylvault/vinylvault/internal/order"
	"github.com/vinylvault/vinylvault/internal/record"
)

type RecordRequest struct {
	Title         string  `json:"title" validate:"required"`
	Artist        string  `json:"artist" validate:"required"`
	Genre         string  `json:"genre"`
	ReleaseYear   int     `json:"release_year" validate:"omitempty,gte=1800,lte=2100"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string  `json:"image_url" validate:"omitempty,url"`
	Description   string  `json:"description"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminHandler serves the back-office surface: catalog management and order
// fulfilment. All routes are mounted behind the admin middleware.
type AdminHandler struct {
	records  record.Service
	orders   order.Service
	validate *validator.Validate
}

func NewAdminHandler(records record.Service, orders order.Service) *AdminHandler {
	return &AdminHandler{
		records:  records,
		orders:   orders,
		validate: validator.New(),
	}
}

func (h *AdminHandler) RegisterRoutes(router chi.Router) {
	router.Get("/records", h.handleListRecords)
	router.Post("/records", h.handleCreateRecord)
	router.Put("/records/{id}", h.handleUpdateRecord)
	router.Delete("/records/{id}", h.handleDeleteRecord)
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/{id}", h.handleGetOrder)
	router.Put("/orders/{id}/status", h.handleUpdateOrderStatus)
}

func (h *AdminHandler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)
	filter.SortBy = "created_at"
	filter.SortDir = "desc"

	records, pagination, err := h.records.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch records")
		return
	}

	respondWithJSON(w, http.StatusOK, RecordListResponse{Records: records, Pagination: pagination})
}

func (h *AdminHandler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	rec := payload.toRecord()
	if err := h.records.Create(r.Context(), rec); err != nil {
		respondWithServiceError(w, err, "Failed to create record")
		return
	}

	respondWithJSON(w, http.StatusCreated, rec)
}

func (h *AdminHandler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	payload, ok := h.decodeRecord(w, r)
	if !ok {
		return
	}

	rec := payload.toRecord()
	rec.ID = id
	if err := h.records.Update(r.Context(), rec); err != nil {
		respondWithServiceError(w, err, "Failed to update record")
		return
	}

	respondWithJSON(w, http.StatusOK, rec)
}

func (h *AdminHandler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	if err := h.records.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, err, "Failed to delete record")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Record deleted successfully"})
}

func (h *AdminHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	ord, err := h.orders.GetAny(r.Context(), orderID)
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch order")
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}

func (h *AdminHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload UpdateOrderStatusRequest
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

	ord, err := h.orders.UpdateStatus(r.Context(), orderID, order.Status(payload.Status))
	if err != nil {
		respondWithServiceError(w, err, "Failed to update order status")
		return
	}

	respondWithJSON(w, http.StatusOK, ord)
}

func (h *AdminHandler) decodeRecord(w http.ResponseWriter, r *http.Request) (*RecordRequest, bool) {
	var payload RecordRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return nil, false
	}

	if err := h.validate.Struct(payload); err != nil {
		respondWithValidationError(w, err)
		return nil, false
	}

	return &payload, true
}

func (p *RecordRequest) toRecord() *record.Record {
	return &record.Record{
		Title:         p.Title,
		Artist:        p.Artist,
		Genre:         p.Genre,
		ReleaseYear:   p.ReleaseYear,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		Description:   p.Description,
	}
}
