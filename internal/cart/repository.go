package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrItemNotFound      = errors.New("cart item not found")
	ErrNotOwner          = errors.New("cart item belongs to another user")
	ErrInsufficientStock = errors.New("not enough stock available")
)

type Repository interface {
	GetByUser(ctx context.Context, userID int64) (*Cart, error)
	AddItem(ctx context.Context, userID, recordID int64, quantity int) error
	UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

// GetByUser returns the user's cart with joined record fields, creating an
// empty cart on first access.
func (r *postgresRepository) GetByUser(ctx context.Context, userID int64) (*Cart, error) {
	cart, err := r.getOrCreateCart(ctx, r.db, userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ci.id, ci.cart_id, ci.record_id, ci.quantity, r.title, r.artist, r.price, r.image_url
		FROM cart_items ci
		JOIN records r ON r.id = ci.record_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`

	rows, err := r.db.Query(ctx, query, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart items for cart %d: %w", cart.ID, err)
	}
	defer rows.Close()

	cart.Items = make([]Item, 0)
	for rows.Next() {
		var item Item
		err := rows.Scan(&item.ID, &item.CartID, &item.RecordID, &item.Quantity, &item.Title, &item.Artist, &item.Price, &item.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
		cart.Total += item.Price * float64(item.Quantity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items: %w", err)
	}

	return cart, nil
}

// AddItem validates stock and upserts the cart line inside one transaction.
// The record row is locked before the check so concurrent adds for the same
// record serialize, and the write itself is a single insert-or-increment
// statement.
func (r *postgresRepository) AddItem(ctx context.Context, userID, recordID int64, quantity int) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer finishTx(ctx, tx, &err)

	cart, err := r.getOrCreateCart(ctx, tx, userID)
	if err != nil {
		return err
	}

	var stock int
	err = tx.QueryRow(ctx, `SELECT stock_quantity FROM records WHERE id = $1 FOR UPDATE`, recordID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("repository: failed to lock record %d: %w", recordID, err)
	}

	var existing int
	err = tx.QueryRow(ctx, `SELECT quantity FROM cart_items WHERE cart_id = $1 AND record_id = $2`, cart.ID, recordID).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("repository: failed to read existing cart quantity: %w", err)
	}

	if stock < existing+quantity {
		return ErrInsufficientStock
	}

	upsert := `
		INSERT INTO cart_items (cart_id, record_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, record_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = CURRENT_TIMESTAMP
	`
	if _, err = tx.Exec(ctx, upsert, cart.ID, recordID, quantity); err != nil {
		return fmt.Errorf("repository: failed to upsert cart item: %w", err)
	}

	return nil
}

// UpdateItemQuantity sets the quantity of an existing line after validating
// ownership and stock. Callers handle the quantity <= 0 removal case.
func (r *postgresRepository) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer finishTx(ctx, tx, &err)

	var ownerID, recordID int64
	query := `
		SELECT c.user_id, ci.record_id
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.id = $1
	`
	err = tx.QueryRow(ctx, query, itemID).Scan(&ownerID, &recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("repository: failed to select cart item %d: %w", itemID, err)
	}
	if ownerID != userID {
		return ErrNotOwner
	}

	var stock int
	err = tx.QueryRow(ctx, `SELECT stock_quantity FROM records WHERE id = $1 FOR UPDATE`, recordID).Scan(&stock)
	if err != nil {
		return fmt.Errorf("repository: failed to lock record %d: %w", recordID, err)
	}
	if stock < quantity {
		return ErrInsufficientStock
	}

	_, err = tx.Exec(ctx, `UPDATE cart_items SET quantity = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, quantity, itemID)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart item %d: %w", itemID, err)
	}

	return nil
}

// RemoveItem deletes a cart line. Removing an absent item is a no-op;
// removing another user's item is refused.
func (r *postgresRepository) RemoveItem(ctx context.Context, userID, itemID int64) error {
	var ownerID int64
	query := `
		SELECT c.user_id
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		WHERE ci.id = $1
	`
	err := r.db.QueryRow(ctx, query, itemID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already absent: removal goal achieved.
			return nil
		}
		return fmt.Errorf("repository: failed to select cart item %d: %w", itemID, err)
	}
	if ownerID != userID {
		return ErrNotOwner
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID); err != nil {
		return fmt.Errorf("repository: failed to delete cart item %d: %w", itemID, err)
	}

	return nil
}

func (r *postgresRepository) Clear(ctx context.Context, userID int64) error {
	query := `
		DELETE FROM cart_items
		USING carts
		WHERE cart_items.cart_id = carts.id AND carts.user_id = $1
	`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("repository: failed to clear cart for user %d: %w", userID, err)
	}
	return nil
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *postgresRepository) getOrCreateCart(ctx context.Context, q queryer, userID int64) (*Cart, error) {
	cart := &Cart{UserID: userID}

	err := q.QueryRow(ctx, `SELECT id, created_at, updated_at FROM carts WHERE user_id = $1`, userID).
		Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("repository: failed to select cart for user %d: %w", userID, err)
	}

	insert := `
		INSERT INTO carts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`
	err = q.QueryRow(ctx, insert, userID).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to create cart for user %d: %w", userID, err)
	}

	return cart, nil
}

// finishTx commits on success, rolls back on error or panic.
func finishTx(ctx context.Context, tx pgx.Tx, err *error) {
	if p := recover(); p != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
		}
		panic(p)
	}
	if *err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return
	}
	if commitErr := tx.Commit(ctx); commitErr != nil {
		*err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
	}
}
