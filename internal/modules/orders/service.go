package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/nexusfarm/nexus/internal/database"
	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/rs/zerolog"
)

// Service implements the order workflow. Every mutation runs in one transaction.
type Service struct {
	repo     *Repository
	activity domain.ActivityRecorder
	events   domain.EventEmitter
	now      func() time.Time
	log      zerolog.Logger
}

// NewService creates an orders service. activity and emitter may be nil.
func NewService(repo *Repository, activity domain.ActivityRecorder, emitter domain.EventEmitter, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		activity: activity,
		events:   emitter,
		now:      time.Now,
		log:      log.With().Str("service", "orders").Logger(),
	}
}

// Place creates a pending order. Stock is checked here but only deducted on accept.
func (s *Service) Place(ctx context.Context, consumerID, productID int64, qty int) (*Order, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	var order *Order
	err := database.WithTransaction(s.repo.DB(), func(tx *sqlx.Tx) error {
		product, err := s.repo.productTx(tx, productID)
		if err != nil {
			return err
		}
		if product.Quantity < qty {
			return ErrInsufficientStock
		}

		o := &Order{
			Reference:   uuid.NewString(),
			ProductID:   productID,
			ProductName: product.Name,
			ConsumerID:  consumerID,
			FarmerID:    product.FarmerID,
			Quantity:    qty,
			Status:      domain.OrderPending,
			CreatedAt:   time.Unix(s.now().Unix(), 0).UTC(),
		}
		if err := s.repo.insertTx(tx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, consumerID, fmt.Sprintf("Placed order for %s", order.ProductName))
	s.emit(order)
	s.log.Info().
		Int64("order_id", order.ID).
		Str("reference", order.Reference).
		Int64("product_id", productID).
		Int("quantity", qty).
		Msg("Order placed")
	return order, nil
}

// Manage applies a farmer's accept or reject decision. Accepting deducts stock in the
// same transaction that flips the status.
func (s *Service) Manage(ctx context.Context, farmerID, orderID int64, action string) (*Order, error) {
	var next domain.OrderStatus
	switch action {
	case ActionAccept:
		next = domain.OrderAccepted
	case ActionReject:
		next = domain.OrderRejected
	default:
		return nil, ErrInvalidAction
	}

	var order *Order
	err := database.WithTransaction(s.repo.DB(), func(tx *sqlx.Tx) error {
		o, err := s.repo.getTx(tx, orderID)
		if err != nil {
			return err
		}
		if o.FarmerID != farmerID {
			return ErrNotOwner
		}
		if o.Status != domain.OrderPending {
			return ErrNotPending
		}

		if next == domain.OrderAccepted {
			if err := s.repo.decrementStockTx(tx, o.ProductID, o.Quantity); err != nil {
				return err
			}
		}
		if err := s.repo.setStatusTx(tx, o.ID, next); err != nil {
			return err
		}

		o.Status = next
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	verb := "Accepted"
	if next == domain.OrderRejected {
		verb = "Rejected"
	}
	s.record(ctx, farmerID, fmt.Sprintf("%s order #%d", verb, order.ID))
	s.emit(order)
	s.log.Info().Int64("order_id", order.ID).Str("status", string(next)).Msg("Order updated")
	return order, nil
}

// ListFor returns the orders visible to a user: farmers see received orders, consumers
// see placed orders and admins see everything.
func (s *Service) ListFor(ctx context.Context, role domain.Role, userID int64) ([]Order, error) {
	switch role {
	case domain.RoleFarmer:
		return s.repo.ListByFarmer(ctx, userID)
	case domain.RoleConsumer:
		return s.repo.ListByConsumer(ctx, userID)
	case domain.RoleAdmin:
		return s.repo.ListAll(ctx)
	default:
		return []Order{}, nil
	}
}

// CountAcceptedByFarmer returns the farmer's accepted order count
func (s *Service) CountAcceptedByFarmer(ctx context.Context, farmerID int64) (int, error) {
	return s.repo.CountAcceptedByFarmer(ctx, farmerID)
}

// AcceptedSales returns the lines revenue totals are computed from
func (s *Service) AcceptedSales(ctx context.Context) ([]SaleLine, error) {
	return s.repo.AcceptedSales(ctx)
}

func (s *Service) record(ctx context.Context, userID int64, action string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, userID, action); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to record activity")
	}
}

func (s *Service) emit(o *Order) {
	if s.events == nil {
		return
	}
	s.events.EmitTyped("orders", &events.OrderData{
		OrderID:     o.ID,
		Reference:   o.Reference,
		ProductID:   o.ProductID,
		ProductName: o.ProductName,
		ConsumerID:  o.ConsumerID,
		FarmerID:    o.FarmerID,
		Quantity:    o.Quantity,
		Status:      string(o.Status),
	})
}
