package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
)

// InsufficientStockError names the record that blocked a placement and how
// many units are actually available.
type InsufficientStockError struct {
	RecordTitle string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q, available: %d", e.RecordTitle, e.Available)
}

type Repository interface {
	PlaceOrder(ctx context.Context, userID int64, shipping ShippingAddress) (*Order, error)
	GetByID(ctx context.Context, orderID int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID int64, newStatus Status) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// PlaceOrder converts the user's cart into an order inside one transaction.
// Cart rows are read joined with their records under FOR UPDATE row locks,
// ordered by record id, so the stock check and the later decrement are
// atomic with respect to concurrent placements touching the same records.
// Any failure rolls the whole transaction back: cart, stock and order
// tables are left untouched.
func (r *postgresRepository) PlaceOrder(ctx context.Context, userID int64, shipping ShippingAddress) (ord *Order, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Int64("user_id", userID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Int64("user_id", userID).Msg("Failed to rollback place order transaction")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			ord = nil
			err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
		}
	}()

	var cartID int64
	err = tx.QueryRow(ctx, `SELECT id FROM carts WHERE user_id = $1`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("repository: failed to select cart for user %d: %w", userID, err)
	}

	// Lock record rows in primary-key order to keep concurrent placements
	// deadlock-free.
	itemsQuery := `
		SELECT ci.record_id, ci.quantity, r.title, r.artist, r.image_url, r.price, r.stock_quantity
		FROM cart_items ci
		JOIN records r ON r.id = ci.record_id
		WHERE ci.cart_id = $1
		ORDER BY ci.record_id
		FOR UPDATE OF r
	`

	rows, err := tx.Query(ctx, itemsQuery, cartID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart items for cart %d: %w", cartID, err)
	}

	type cartLine struct {
		recordID int64
		quantity int
		title    string
		artist   string
		imageURL string
		price    float64
		stock    int
	}

	var lines []cartLine
	for rows.Next() {
		var l cartLine
		if err = rows.Scan(&l.recordID, &l.quantity, &l.title, &l.artist, &l.imageURL, &l.price, &l.stock); err != nil {
			rows.Close()
			return nil, fmt.Errorf("repository: failed to scan cart item: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items: %w", err)
	}

	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	totalAmount := 0.0
	for _, l := range lines {
		if l.stock < l.quantity {
			return nil, &InsufficientStockError{RecordTitle: l.title, Available: l.stock}
		}
		totalAmount += l.price * float64(l.quantity)
	}

	ord = &Order{
		UserID:          &userID,
		Status:          StatusPending,
		TotalAmount:     totalAmount,
		ShippingAddress: shipping,
	}

	orderQuery := `
		INSERT INTO orders (user_id, total_amount, status, shipping_address, shipping_city, shipping_postal_code, shipping_country)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, orderQuery,
		userID, totalAmount, string(StatusPending),
		shipping.Address, shipping.City, shipping.PostalCode, shipping.Country,
	).Scan(&ord.ID, &ord.CreatedAt, &ord.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert order: %w", err)
	}

	ord.Items = make([]Item, 0, len(lines))
	for _, l := range lines {
		item := Item{
			OrderID:  ord.ID,
			Quantity: l.quantity,
			Price:    l.price,
			Title:    l.title,
			Artist:   l.artist,
			ImageURL: l.imageURL,
		}
		recordID := l.recordID
		item.RecordID = &recordID

		itemQuery := `
			INSERT INTO order_items (order_id, record_id, quantity, price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		if err = tx.QueryRow(ctx, itemQuery, ord.ID, l.recordID, l.quantity, l.price).Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("repository: failed to insert order item for order %d: %w", ord.ID, err)
		}

		if _, err = tx.Exec(ctx, `UPDATE records SET stock_quantity = stock_quantity - $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, l.quantity, l.recordID); err != nil {
			return nil, fmt.Errorf("repository: failed to decrement stock for record %d: %w", l.recordID, err)
		}

		ord.Items = append(ord.Items, item)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, fmt.Errorf("repository: failed to clear cart %d: %w", cartID, err)
	}

	return ord, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, orderID int64) (*Order, error) {
	orderQuery := `
		SELECT id, user_id, status, total_amount, shipping_address, shipping_city, shipping_postal_code, shipping_country, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var ord Order
	err := r.db.QueryRow(ctx, orderQuery, orderID).Scan(
		&ord.ID, &ord.UserID, &ord.Status, &ord.TotalAmount,
		&ord.Address, &ord.City, &ord.PostalCode, &ord.Country,
		&ord.CreatedAt, &ord.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order %d: %w", orderID, err)
	}

	itemsQuery := `
		SELECT oi.id, oi.order_id, oi.record_id, oi.quantity, oi.price,
		       COALESCE(r.title, ''), COALESCE(r.artist, ''), COALESCE(r.image_url, '')
		FROM order_items oi
		LEFT JOIN records r ON r.id = oi.record_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`

	rows, err := r.db.Query(ctx, itemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order %d: %w", orderID, err)
	}
	defer rows.Close()

	ord.Items = make([]Item, 0)
	for rows.Next() {
		var item Item
		err := rows.Scan(&item.ID, &item.OrderID, &item.RecordID, &item.Quantity, &item.Price, &item.Title, &item.Artist, &item.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		ord.Items = append(ord.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return &ord, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	query := `
		SELECT id, user_id, status, total_amount, shipping_address, shipping_city, shipping_postal_code, shipping_country, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user %d: %w", userID, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var ord Order
		err := rows.Scan(
			&ord.ID, &ord.UserID, &ord.Status, &ord.TotalAmount,
			&ord.Address, &ord.City, &ord.PostalCode, &ord.Country,
			&ord.CreatedAt, &ord.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, ord)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	query := `
		SELECT o.id, o.user_id, o.status, o.total_amount,
		       o.shipping_address, o.shipping_city, o.shipping_postal_code, o.shipping_country,
		       o.created_at, o.updated_at,
		       COALESCE(u.email, ''), COALESCE(u.first_name || ' ' || u.last_name, '')
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query all orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var ord Order
		err := rows.Scan(
			&ord.ID, &ord.UserID, &ord.Status, &ord.TotalAmount,
			&ord.Address, &ord.City, &ord.PostalCode, &ord.Country,
			&ord.CreatedAt, &ord.UpdatedAt,
			&ord.CustomerEmail, &ord.CustomerName,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, ord)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating all orders: %w", err)
	}

	return orders, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID int64, newStatus Status) error {
	query := `UPDATE orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	cmdTag, err := r.db.Exec(ctx, query, string(newStatus), orderID)
	if err != nil {
		return fmt.Errorf("repository: failed to update status of order %d: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}
