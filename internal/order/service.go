package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

type Service interface {
	PlaceOrder(ctx context.Context, userID int64, shipping ShippingAddress) (*Order, error)
	GetForUser(ctx context.Context, userID, orderID int64) (*Order, error)
	ListForUser(ctx context.Context, userID int64) ([]Order, error)
	GetAny(ctx context.Context, orderID int64) (*Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID int64, newStatus Status) (*Order, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) PlaceOrder(ctx context.Context, userID int64, shipping ShippingAddress) (*Order, error) {
	ord, err := s.repo.PlaceOrder(ctx, userID, shipping)
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.Is(err, ErrEmptyCart) || errors.As(err, &stockErr) {
			log.Warn().Err(err).Int64("user_id", userID).Msg("service: order placement rejected")
			return nil, err
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to place order")
		return nil, fmt.Errorf("service: failed to place order: %w", err)
	}

	log.Info().Int64("order_id", ord.ID).Int64("user_id", userID).Float64("total", ord.TotalAmount).Msg("service: order placed")
	return ord, nil
}

// GetForUser returns the order only when it belongs to the caller. A
// foreign order is indistinguishable from a missing one.
func (s *service) GetForUser(ctx context.Context, userID, orderID int64) (*Order, error) {
	ord, err := s.getByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.UserID == nil || *ord.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return ord, nil
}

func (s *service) ListForUser(ctx context.Context, userID int64) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("service: failed to fetch user orders")
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}
	return orders, nil
}

func (s *service) GetAny(ctx context.Context, orderID int64) (*Order, error) {
	return s.getByID(ctx, orderID)
}

func (s *service) ListAll(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch all orders")
		return nil, fmt.Errorf("service: failed to fetch all orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus enforces the order lifecycle. Setting the current status
// again is a no-op; moves not in the transition table are rejected.
func (s *service) UpdateStatus(ctx context.Context, orderID int64, newStatus Status) (*Order, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.getByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if current.Status == newStatus {
		log.Info().Int64("order_id", orderID).Stringer("status", newStatus).Msg("service: order status unchanged")
		return current, nil
	}

	if !CanTransition(current.Status, newStatus) {
		log.Warn().
			Int64("order_id", orderID).
			Stringer("current_status", current.Status).
			Stringer("new_status", newStatus).
			Msg("service: invalid status transition attempt")
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, newStatus)
	}

	if err := s.repo.UpdateStatus(ctx, orderID, newStatus); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", orderID).Msg("service: failed to update order status")
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().Int64("order_id", orderID).Stringer("old_status", current.Status).Stringer("new_status", newStatus).Msg("service: order status updated")

	current.Status = newStatus
	return current, nil
}

func (s *service) getByID(ctx context.Context, orderID int64) (*Order, error) {
	ord, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Int64("order_id", orderID).Msg("service: failed to fetch order")
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}
	return ord, nil
}
