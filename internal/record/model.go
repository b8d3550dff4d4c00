package record

import "time"

// Record is a sellable catalog item. StockQuantity never goes negative:
// order placement checks and decrements it under a row lock.
type Record struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Artist        string    `json:"artist" db:"artist"`
	Genre         string    `json:"genre" db:"genre"`
	ReleaseYear   int       `json:"release_year" db:"release_year"`
	Price         float64   `json:"price" db:"price"`
	StockQuantity int       `json:"stock_quantity" db:"stock_quantity"`
	ImageURL      string    `json:"image_url" db:"image_url"`
	Description   string    `json:"description" db:"description"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Review is immutable once created; one per (user, record) pair.
type Review struct {
	ID        int64     `json:"id" db:"id"`
	RecordID  int64     `json:"record_id" db:"record_id"`
	UserID    *int64    `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RecordWithRating carries the average review rating for featured listings.
type RecordWithRating struct {
	Record
	AvgRating float64 `json:"avg_rating"`
}

// Featured groups the storefront home-page projections.
type Featured struct {
	Newest   []Record           `json:"newest"`
	TopRated []RecordWithRating `json:"top_rated"`
}

type Pagination struct {
	Page         int `json:"page"`
	Limit        int `json:"limit"`
	TotalRecords int `json:"total_records"`
	TotalPages   int `json:"total_pages"`
}
