package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinylvault/vinylvault/internal/cart"
)

type mockCartRepository struct {
	getByUserFunc  func(ctx context.Context, userID int64) (*cart.Cart, error)
	addItemFunc    func(ctx context.Context, userID, recordID int64, quantity int) error
	updateFunc     func(ctx context.Context, userID, itemID int64, quantity int) error
	removeItemFunc func(ctx context.Context, userID, itemID int64) error
	clearFunc      func(ctx context.Context, userID int64) error
}

func (m *mockCartRepository) GetByUser(ctx context.Context, userID int64) (*cart.Cart, error) {
	return m.getByUserFunc(ctx, userID)
}

func (m *mockCartRepository) AddItem(ctx context.Context, userID, recordID int64, quantity int) error {
	return m.addItemFunc(ctx, userID, recordID, quantity)
}

func (m *mockCartRepository) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) error {
	return m.updateFunc(ctx, userID, itemID, quantity)
}

func (m *mockCartRepository) RemoveItem(ctx context.Context, userID, itemID int64) error {
	return m.removeItemFunc(ctx, userID, itemID)
}

func (m *mockCartRepository) Clear(ctx context.Context, userID int64) error {
	return m.clearFunc(ctx, userID)
}

func projectionWith(items ...cart.Item) func(ctx context.Context, userID int64) (*cart.Cart, error) {
	return func(ctx context.Context, userID int64) (*cart.Cart, error) {
		c := &cart.Cart{ID: 1, UserID: userID, Items: items}
		for _, item := range items {
			c.Total += item.Price * float64(item.Quantity)
		}
		return c, nil
	}
}

func TestCartService_AddItem_ReturnsRefreshedCart(t *testing.T) {
	var gotQuantity int
	repo := &mockCartRepository{
		addItemFunc: func(ctx context.Context, userID, recordID int64, quantity int) error {
			gotQuantity = quantity
			return nil
		},
		getByUserFunc: projectionWith(cart.Item{ID: 10, RecordID: 3, Quantity: 2, Title: "Thriller", Price: 29.99}),
	}
	svc := cart.NewService(repo)

	c, err := svc.AddItem(context.Background(), 42, 3, 2)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 2, gotQuantity)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "Thriller", c.Items[0].Title)
	assert.InDelta(t, 59.98, c.Total, 0.001)
}

func TestCartService_AddItem_DefaultsQuantityToOne(t *testing.T) {
	var gotQuantity int
	repo := &mockCartRepository{
		addItemFunc: func(ctx context.Context, userID, recordID int64, quantity int) error {
			gotQuantity = quantity
			return nil
		},
		getByUserFunc: projectionWith(),
	}
	svc := cart.NewService(repo)

	_, err := svc.AddItem(context.Background(), 42, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, gotQuantity)
}

func TestCartService_AddItem_ExpectedErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
	}{
		{"record_not_found", cart.ErrRecordNotFound},
		{"insufficient_stock", cart.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCartRepository{
				addItemFunc: func(ctx context.Context, userID, recordID int64, quantity int) error {
					return tt.repoErr
				},
			}
			svc := cart.NewService(repo)

			c, err := svc.AddItem(context.Background(), 42, 3, 1)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.repoErr)
		})
	}
}

func TestCartService_UpdateItemQuantity_ZeroRemovesItem(t *testing.T) {
	removeCalled := false
	updateCalled := false
	repo := &mockCartRepository{
		removeItemFunc: func(ctx context.Context, userID, itemID int64) error {
			removeCalled = true
			return nil
		},
		updateFunc: func(ctx context.Context, userID, itemID int64, quantity int) error {
			updateCalled = true
			return nil
		},
		getByUserFunc: projectionWith(),
	}
	svc := cart.NewService(repo)

	c, err := svc.UpdateItemQuantity(context.Background(), 42, 10, 0)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.True(t, removeCalled, "expected zero quantity to remove the item")
	assert.False(t, updateCalled, "update must not run for zero quantity")
	assert.Empty(t, c.Items)
}

func TestCartService_UpdateItemQuantity_NegativeAlsoRemoves(t *testing.T) {
	removeCalled := false
	repo := &mockCartRepository{
		removeItemFunc: func(ctx context.Context, userID, itemID int64) error {
			removeCalled = true
			return nil
		},
		getByUserFunc: projectionWith(),
	}
	svc := cart.NewService(repo)

	_, err := svc.UpdateItemQuantity(context.Background(), 42, 10, -3)
	require.NoError(t, err)
	assert.True(t, removeCalled)
}

func TestCartService_UpdateItemQuantity_Ownership(t *testing.T) {
	repo := &mockCartRepository{
		updateFunc: func(ctx context.Context, userID, itemID int64, quantity int) error {
			return cart.ErrNotOwner
		},
	}
	svc := cart.NewService(repo)

	c, err := svc.UpdateItemQuantity(context.Background(), 42, 10, 2)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, cart.ErrNotOwner)
}

func TestCartService_RemoveItem_IdempotentOnAbsent(t *testing.T) {
	calls := 0
	repo := &mockCartRepository{
		removeItemFunc: func(ctx context.Context, userID, itemID int64) error {
			calls++
			// Repository treats an absent item as already removed.
			return nil
		},
		getByUserFunc: projectionWith(),
	}
	svc := cart.NewService(repo)

	_, err := svc.RemoveItem(context.Background(), 42, 10)
	require.NoError(t, err)
	_, err = svc.RemoveItem(context.Background(), 42, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCartService_Clear_WrapsStorageError(t *testing.T) {
	storageErr := errors.New("connection reset")
	repo := &mockCartRepository{
		clearFunc: func(ctx context.Context, userID int64) error {
			return storageErr
		},
	}
	svc := cart.NewService(repo)

	err := svc.Clear(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, storageErr)
}
