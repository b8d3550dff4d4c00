package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vinylvault/vinylvault/internal/record"
)

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type RecordListResponse struct {
	Records    []record.Record   `json:"records"`
	Pagination record.Pagination `json:"pagination"`
}

type RecordHandler struct {
	records  record.Service
	validate *validator.Validate
}

func NewRecordHandler(records record.Service) *RecordHandler {
	return &RecordHandler{
		records:  records,
		validate: validator.New(),
	}
}

func (h *RecordHandler) RegisterRoutes(router chi.Router, authenticate func(http.Handler) http.Handler) {
	router.Get("/", h.handleList)
	router.Get("/featured", h.handleFeatured)
	router.Get("/filters/genres", h.handleGenres)
	router.Get("/filters/artists", h.handleArtists)
	router.Get("/{id}", h.handleGet)
	router.With(authenticate).Post("/{id}/reviews", h.handleAddReview)
}

func (h *RecordHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)

	records, pagination, err := h.records.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch records")
		return
	}

	respondWithJSON(w, http.StatusOK, RecordListResponse{Records: records, Pagination: pagination})
}

func (h *RecordHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	detail, err := h.records.GetDetail(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch record")
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

func (h *RecordHandler) handleAddReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	var payload ReviewRequest
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

	review, err := h.records.AddReview(r.Context(), claims.UserID, id, payload.Rating, payload.Comment)
	if err != nil {
		respondWithServiceError(w, err, "Failed to add review")
		return
	}

	respondWithJSON(w, http.StatusCreated, review)
}

func (h *RecordHandler) handleGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.records.Genres(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch genres")
		return
	}
	respondWithJSON(w, http.StatusOK, genres)
}

func (h *RecordHandler) handleArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := h.records.Artists(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch artists")
		return
	}
	respondWithJSON(w, http.StatusOK, artists)
}

func (h *RecordHandler) handleFeatured(w http.ResponseWriter, r *http.Request) {
	featured, err := h.records.Featured(r.Context())
	if err != nil {
		respondWithServiceError(w, err, "Failed to fetch featured records")
		return
	}
	respondWithJSON(w, http.StatusOK, featured)
}

func parseListFilter(r *http.Request) record.ListFilter {
	q := r.URL.Query()

	filter := record.ListFilter{
		Genre:   q.Get("genre"),
		Artist:  q.Get("artist"),
		Search:  q.Get("search"),
		SortBy:  q.Get("sortBy"),
		SortDir: q.Get("sortDir"),
	}

	if v, err := strconv.ParseFloat(q.Get("minPrice"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("maxPrice"), 64); err == nil {
		filter.MaxPrice = &v
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}

	return filter
}
