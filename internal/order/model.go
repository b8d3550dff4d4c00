package order

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// allowedTransitions is the order lifecycle: the fulfilment chain moves
// forward only, cancellation is reachable from any non-terminal state, and
// terminal states are immutable.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusProcessing: true,
		StatusCancelled:  true,
	},
	StatusProcessing: {
		StatusShipped:   true,
		StatusCancelled: true,
	},
	StatusShipped: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

type ShippingAddress struct {
	Address    string `json:"shipping_address" db:"shipping_address"`
	City       string `json:"shipping_city" db:"shipping_city"`
	PostalCode string `json:"shipping_postal_code" db:"shipping_postal_code"`
	Country    string `json:"shipping_country" db:"shipping_country"`
}

// Item is an immutable line of a placed order. Price is the unit price at
// the time of purchase and is never recomputed from the catalog. RecordID
// goes nil when the record is later deleted; the joined display fields are
// empty in that case.
type Item struct {
	ID       int64   `json:"id" db:"id"`
	OrderID  int64   `json:"order_id" db:"order_id"`
	RecordID *int64  `json:"record_id" db:"record_id"`
	Quantity int     `json:"quantity" db:"quantity"`
	Price    float64 `json:"price" db:"price"`
	Title    string  `json:"title" db:"title"`
	Artist   string  `json:"artist" db:"artist"`
	ImageURL string  `json:"image_url" db:"image_url"`
}

// Order is the immutable snapshot of a completed purchase. Only Status
// changes after creation, and only through admin transitions.
type Order struct {
	ID          int64   `json:"id" db:"id"`
	UserID      *int64  `json:"user_id" db:"user_id"`
	Status      Status  `json:"status" db:"status"`
	TotalAmount float64 `json:"total_amount" db:"total_amount"`
	ShippingAddress
	Items         []Item    `json:"items,omitempty" db:"-"`
	CustomerEmail string    `json:"customer_email,omitempty" db:"-"`
	CustomerName  string    `json:"customer_name,omitempty" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
