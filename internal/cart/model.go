package cart

import "time"

// Item is a cart line joined with its record's catalog fields so a single
// cart read is enough to render it.
type Item struct {
	ID       int64   `json:"id" db:"id"`
	CartID   int64   `json:"cart_id" db:"cart_id"`
	RecordID int64   `json:"record_id" db:"record_id"`
	Quantity int     `json:"quantity" db:"quantity"`
	Title    string  `json:"title" db:"title"`
	Artist   string  `json:"artist" db:"artist"`
	Price    float64 `json:"price" db:"price"`
	ImageURL string  `json:"image_url" db:"image_url"`
}

// Cart is the per-user ephemeral container, created lazily on first access.
type Cart struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Items     []Item    `json:"items" db:"-"`
	Total     float64   `json:"total" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
