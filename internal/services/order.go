package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/shoplite/shoplite/internal/api/middleware"
	"github.com/shoplite/shoplite/internal/errors"
	"github.com/shoplite/shoplite/internal/models"
	repository "github.com/shoplite/shoplite/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	// PlaceOrder converts the user's current cart into an order in one
	// atomic transaction. Failure outcomes are AppErrors with code
	// EMPTY_CART, INSUFFICIENT_STOCK (Detail = product id) or DATABASE_ERROR.
	PlaceOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
}

type orderService struct {
	orderRepo       repository.OrderRepository
	checkoutTimeout time.Duration
}

func NewOrderService(orderRepo repository.OrderRepository, checkoutTimeout time.Duration) OrderService {
	if checkoutTimeout <= 0 {
		checkoutTimeout = 15 * time.Second
	}

	return &orderService{orderRepo: orderRepo, checkoutTimeout: checkoutTimeout}
}

func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {

	logger := middleware.LoggerFromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.checkoutTimeout)
	defer cancel()

	tx, err := s.orderRepo.BeginCheckout(ctx)
	if err != nil {
		return nil, errors.DatabaseError("Failed to begin checkout").WithError(err)
	}

	committed := false

	defer func() {
		if committed {
			return
		}

		// A rollback that itself fails leaves the handle in an unknown
		// state; surface it loudly instead of swallowing it.
		if rbErr := tx.Rollback(); rbErr != nil && !stderrors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("Checkout rollback failed, transaction state unknown",
				slog.String("userId", userID.String()),
				slog.Any("error", rbErr))
		}
	}()

	// Authoritative snapshot for the whole placement: cart lines joined with
	// current price and stock, product rows locked until commit.
	lines, err := tx.ListCartWithProductInfo(ctx, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to read cart").WithError(err)
	}

	if len(lines) == 0 {
		return nil, errors.EmptyCartError()
	}

	// Validate the full batch before any mutation; first violation aborts.
	total := decimal.Zero

	for _, line := range lines {
		if line.Quantity > line.StockQuantity {
			return nil, errors.InsufficientStockError(line.ProductID.String())
		}

		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      models.OrderStatusPending,
		TotalAmount: total,
	}

	if err := tx.CreateOrder(ctx, order); err != nil {
		return nil, errors.DatabaseError("Failed to create order").WithError(err)
	}

	items := make([]models.OrderItem, 0, len(lines))

	for _, line := range lines {

		item := models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}

		if err := tx.AddOrderItem(ctx, &item); err != nil {
			return nil, errors.DatabaseError("Failed to add order item").WithError(err)
		}

		if err := tx.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			if stderrors.Is(err, repository.ErrStockConflict) {
				return nil, errors.InsufficientStockError(line.ProductID.String()).WithError(err)
			}

			return nil, errors.DatabaseError("Failed to update inventory").WithError(err)
		}

		items = append(items, item)
	}

	// The cart is fully consumed; there is no partial checkout.
	if err := tx.ClearCart(ctx, userID); err != nil {
		return nil, errors.DatabaseError("Failed to clear cart").WithError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.DatabaseError("Failed to commit order").WithError(err)
	}

	committed = true
	order.Items = items

	return order, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Order not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 100 {
		size = 10
	}

	orders, total, err := s.orderRepo.ListOrdersByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}
