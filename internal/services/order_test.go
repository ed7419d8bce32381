package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/shoplite/shoplite/internal/errors"
	"github.com/shoplite/shoplite/internal/models"
	repository "github.com/shoplite/shoplite/internal/repositories"
	"github.com/shoplite/shoplite/internal/repositories/mocks"
	service "github.com/shoplite/shoplite/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupOrderServiceTest(t *testing.T) (service.OrderService, *mocks.OrderRepository, *mocks.CheckoutTx) {
	t.Helper()

	mockRepo := mocks.NewOrderRepository(t)
	mockTx := mocks.NewCheckoutTx(t)
	orderService := service.NewOrderService(mockRepo, 15*time.Second)

	return orderService, mockRepo, mockTx
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	productID1 := uuid.New()
	productID2 := uuid.New()

	t.Run("Success - Two Line Cart", func(t *testing.T) {
		// Arrange
		orderService, mockRepo, mockTx := setupOrderServiceTest(t)

		lines := []models.CheckoutLine{
			{ProductID: productID1, Quantity: 2, UnitPrice: decimal.RequireFromString("19.99"), StockQuantity: 10},
			{ProductID: productID2, Quantity: 1, UnitPrice: decimal.RequireFromString("5.50"), StockQuantity: 3},
		}

		mockRepo.On("BeginCheckout", mock.Anything).Return(mockTx, nil).Once()
		mockTx.On("ListCartWithProductInfo", mock.Anything, userID).Return(lines, nil).Once()
		mockTx.On("CreateOrder", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil).Run(func(args mock.Arguments) {
			orderArg := args.Get(1).(*models.Order)
			assert.Equal(t, userID, orderArg.UserID)
			assert.Equal(t, models.OrderStatusPending, orderArg.Status)
			assert.True(t, orderArg.TotalAmount.Equal(decimal.RequireFromString("45.48"))) // 2*19.99 + 5.50
		}).Once()
		mockTx.On("AddOrderItem", mock.Anything, mock.MatchedBy(func(item *models.OrderItem) bool {
			return item.ProductID == productID1 && item.Quantity == 2
		})).Return(nil).Once()
		mockTx.On("AddOrderItem", mock.Anything, mock.MatchedBy(func(item *models.OrderItem) bool {
			return item.ProductID == productID2 && item.Quantity == 1
		})).Return(nil).Once()
		mockTx.On("DecrementStock", mock.Anything, productID1, 2).Return(nil).Once()
		mockTx.On("DecrementStock", mock.Anything, productID2, 1).Return(nil).Once()
		mockTx.On("ClearCart", mock.Anything, userID).Return(nil).Once()
		mockTx.On("Commit").Return(nil).Once()

		// Act
		order, err := orderService.PlaceOrder(ctx, userID)

		// Assert
		require.NoError(t, err)
		require.NotNil(t, order)
		assert.NotEqual(t, uuid.Nil, order.ID)
		assert.Equal(t, userID, order.UserID)
		assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("45.48")))
		require.Len(t, order.Items, 2)
		assert.Equal(t, order.ID, order.Items[0].OrderID)
		assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))
	})

	t.Run("Failure - Empty Cart", func(t *testing.T) {
		// Arrange
		orderService, mockRepo, mockTx := setupOrderServiceTest(t)

		mockRepo.On("BeginCheckout", mock.Anything).Return(mockTx, nil).Once()
		mockTx.On("ListCartWithProductInfo", mock.Anything, userID).Return([]models.CheckoutLine{}, nil).Once()
		mockTx.On("Rollback").Return(nil).Once()

		// Act
		order, err := orderService.PlaceOrder(ctx, userID)

		// Assert
		assert.Nil(t, order)
		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeEmptyCart, appErr.Code)
		mockTx.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Insufficient Stock In Snapshot", func(t *testing.T) {
		// Arrange: second line wants more than is available, so nothing may be
		// written, not even for the first line.
		orderService, mockRepo, mockTx := setupOrderServiceTest(t)

		lines := []models.CheckoutLine{
			{ProductID: productID1, Quantity: 1, UnitPrice: decimal.RequireFromString("19.99"), StockQuantity: 10},
			{ProductID: productID2, Quantity: 5, UnitPrice: decimal.RequireFromString("5.50"), StockQuantity: 3},
		}

		mockRepo.On("BeginCheckout", mock.Anything).Return(mockTx, nil).Once()
		mockTx.On("ListCartWithProductInfo", mock.Anything, userID).Return(lines, nil).Once()
		mockTx.On("Rollback").Return(nil).Once()

		// Act
		order, err := orderService.PlaceOrder(ctx, userID)

		// Assert
		assert.Nil(t, order)
		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeInsufficientStock, appErr.Code)
		assert.Equal(t, productID2.String(), appErr.Detail)
		mockTx.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		mockTx.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Concurrent Decrement Conflict", func(t *testing.T) {
		// Arrange: the snapshot looked fine, but the guarded UPDATE catches a
		// concurrent placement that drained the stock.
		orderService, mockRepo, mockTx := setupOrderServiceTest(t)

		lines := []models.CheckoutLine{
			{ProductID: productID1, Quantity: 2, UnitPrice: decimal.RequireFromString("19.99"), StockQuantity: 2},
		}

		mockRepo.On("BeginCheckout", mock.Anything).Return(mockTx, nil).Once()
		mockTx.On("ListCartWithProductInfo", mock.Anything, userID).Return(lines, nil).Once()
		mockTx.On("CreateOrder", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil).Once()
		mockTx.On("AddOrderItem", mock.Anything, mock.AnythingOfType("*models.OrderItem")).Return(nil).Once()
		mockTx.On("DecrementStock", mock.Anything, productID1, 2).Return(repository.ErrStockConflict).Once()
		mockTx.On("Rollback").Return(nil).Once()

		// Act
		order, err := orderService.PlaceOrder(ctx, userID)

		// Assert
		assert.Nil(t, order)
		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeInsufficientStock, appErr.Code)
		assert.Equal(t, productID1.String(), appErr.Detail)
		assert.ErrorIs(t, err, repository.ErrStockConflict)
		mockTx.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything)
		mockTx.AssertNotCalled(t, "Commit")
	})

	t.Run("Failure - Begin Checkout Error", func(t *testing.T) {
		// Arrange
		orderService, mockRepo, _ := setupOrderServiceTest(t)

		dbErr := errors.New("connection refused")
		mockRepo.On("BeginCheckout", mock.Anything).Return(nil, dbErr).Once()

		// Act
		order, err := orderService.PlaceOrder(ctx, userID)

		// Assert
		assert.Nil(t, order)
		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("Failure - Commit Error", func(t *testing.T) {
		// Arrange
		orderService, mockRepo, mockTx := setupOrderServiceTest(t)

		lines := []models.CheckoutLine{
			{ProductID: productID1, Quantity: 1, UnitPrice: decimal.RequireFromString("19.99"), StockQuantity: 10},
		}

		commitErr := errors.New("could not serialize access")
		mockRepo.On("BeginCheckout", mock.Anything).Return(mockTx, nil).Once()
		mockTx.On("ListCartWithProductInfo", mock.Anything, userID).Return(lines, nil).Once()
		mockTx.On("CreateOrder", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil).Once()
		mockTx.On("AddOrderItem", mock.Anything, mock.AnythingOfType("*models.OrderItem")).Return(nil).Once()
		mockTx.On("DecrementStock", mock.Anything, productID1, 1).Return(nil).Once()
		mockTx.On("ClearCart", mock.Anything, userID).Return(nil).Once()
		mockTx.On("Commit").Return(commitErr).Once()
		mockTx.On("Rollback").Return(sql.ErrTxDone).Once()

		// Act
		order, err := orderService.PlaceOrder(ctx, userID)

		// Assert
		assert.Nil(t, order)
		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
		assert.ErrorIs(t, err, commitErr)
	})
}

func TestOrderServiceGetOrderByID(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		orderService, mockRepo, _ := setupOrderServiceTest(t)

		expected := &models.Order{ID: orderID, UserID: uuid.New(), Status: models.OrderStatusPending}
		mockRepo.On("GetOrderByID", ctx, orderID).Return(expected, nil).Once()

		// Act
		order, err := orderService.GetOrderByID(ctx, orderID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, expected, order)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		orderService, mockRepo, _ := setupOrderServiceTest(t)

		mockRepo.On("GetOrderByID", ctx, orderID).Return(nil, sql.ErrNoRows).Once()

		// Act
		order, err := orderService.GetOrderByID(ctx, orderID)

		// Assert
		assert.Nil(t, order)
		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestOrderServiceListOrdersByUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Success - Clamps Page And Size", func(t *testing.T) {
		// Arrange
		orderService, mockRepo, _ := setupOrderServiceTest(t)

		mockRepo.On("ListOrdersByUser", ctx, userID, 1, 10).Return([]models.Order{}, 0, nil).Once()

		// Act
		orders, total, err := orderService.ListOrdersByUser(ctx, userID, -3, 5000)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, orders)
		assert.Zero(t, total)
	})

	t.Run("Failure - Database Error", func(t *testing.T) {
		// Arrange
		orderService, mockRepo, _ := setupOrderServiceTest(t)

		dbErr := errors.New("connection reset")
		mockRepo.On("ListOrdersByUser", ctx, userID, 1, 10).Return(nil, 0, dbErr).Once()

		// Act
		orders, total, err := orderService.ListOrdersByUser(ctx, userID, 1, 10)

		// Assert
		assert.Nil(t, orders)
		assert.Zero(t, total)
		var appErr *appErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrCodeDatabaseError, appErr.Code)
	})
}
