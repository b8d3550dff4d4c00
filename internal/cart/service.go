package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Service interface {
	GetCart(ctx context.Context, userID int64) (*Cart, error)
	AddItem(ctx context.Context, userID, recordID int64, quantity int) (*Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*Cart, error)
	Clear(ctx context.Context, userID int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetCart(ctx context.Context, userID int64) (*Cart, error) {
	cart, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to fetch cart")
		return nil, fmt.Errorf("service: failed to fetch cart: %w", err)
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, userID, recordID int64, quantity int) (*Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	if err := s.repo.AddItem(ctx, userID, recordID, quantity); err != nil {
		if isExpected(err) {
			return nil, err
		}
		log.Error().Err(err).Int64("user_id", userID).Int64("record_id", recordID).Msg("service: failed to add cart item")
		return nil, fmt.Errorf("service: failed to add cart item: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// UpdateItemQuantity treats a non-positive quantity as removal, matching
// the storefront contract.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID int64, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}

	if err := s.repo.UpdateItemQuantity(ctx, userID, itemID, quantity); err != nil {
		if isExpected(err) {
			return nil, err
		}
		log.Error().Err(err).Int64("user_id", userID).Int64("item_id", itemID).Msg("service: failed to update cart item")
		return nil, fmt.Errorf("service: failed to update cart item: %w", err)
	}

	return s.GetCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID int64) (*Cart, error) {
	if err := s.repo.RemoveItem(ctx, userID, itemID); err != nil {
		if isExpected(err) {
			return nil, err
		}
		log.Error().Err(err).Int64("user_id", userID).Int64("item_id", itemID).Msg("service: failed to remove cart item")
		return nil, fmt.Errorf("service: failed to remove cart item: %w", err)
	}

	return s.GetCart(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID int64) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to clear cart")
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}
	return nil
}

func isExpected(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrInsufficientStock)
}
