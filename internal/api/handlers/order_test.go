package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shoplite/shoplite/internal/api/handlers"
	appErrors "github.com/shoplite/shoplite/internal/errors"
	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/services/mocks"
	"github.com/shoplite/shoplite/internal/testutils"
	"github.com/shoplite/shoplite/internal/utils/response"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupOrderHandlerTest(t *testing.T) (*mocks.OrderService, *handlers.OrderHandler) {
	t.Helper()

	mockOrderService := mocks.NewOrderService(t)
	orderHandler := handlers.NewOrderHandler(mockOrderService)

	return mockOrderService, orderHandler
}

func TestPlaceOrderHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - Returns 201 With Order", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("POST", "/orders", nil, userID, nil)
		recorder := httptest.NewRecorder()

		order := &models.Order{
			ID:          uuid.New(),
			UserID:      userID,
			Status:      models.OrderStatusPending,
			TotalAmount: decimal.RequireFromString("45.48"),
		}
		mockOrderService.On("PlaceOrder", mock.Anything, userID).Return(order, nil).Once()

		// Act
		orderHandler.PlaceOrder()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusCreated, recorder.Code)

		var resp response.APIResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotNil(t, resp.Data)
	})

	t.Run("Failure - Empty Cart Maps To 400", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("POST", "/orders", nil, userID, nil)
		recorder := httptest.NewRecorder()

		mockOrderService.On("PlaceOrder", mock.Anything, userID).Return(nil, appErrors.EmptyCartError()).Once()

		// Act
		orderHandler.PlaceOrder()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		var resp response.APIResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeEmptyCart, resp.Error.Code)
	})

	t.Run("Failure - Insufficient Stock Names The Product", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("POST", "/orders", nil, userID, nil)
		recorder := httptest.NewRecorder()

		productID := uuid.New()
		mockOrderService.On("PlaceOrder", mock.Anything, userID).
			Return(nil, appErrors.InsufficientStockError(productID.String())).Once()

		// Act
		orderHandler.PlaceOrder()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)

		var resp response.APIResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeInsufficientStock, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, productID.String(), resp.Error.Details[0])
	})

	t.Run("Failure - Storage Error Maps To 500", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("POST", "/orders", nil, userID, nil)
		recorder := httptest.NewRecorder()

		mockOrderService.On("PlaceOrder", mock.Anything, userID).
			Return(nil, appErrors.DatabaseError("Failed to commit order")).Once()

		// Act
		orderHandler.PlaceOrder()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})

	t.Run("Failure - Missing Claims", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithoutContext("POST", "/orders", nil, nil)
		recorder := httptest.NewRecorder()

		// Act
		orderHandler.PlaceOrder()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		mockOrderService.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
	})
}

func TestGetOrderHandler(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("GET", "/orders/"+orderID.String(), nil, userID,
			map[string]string{"id": orderID.String()})
		recorder := httptest.NewRecorder()

		order := &models.Order{ID: orderID, UserID: userID, Status: models.OrderStatusPending}
		mockOrderService.On("GetOrderByID", mock.Anything, orderID).Return(order, nil).Once()

		// Act
		orderHandler.GetOrder()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("Failure - Another User's Order Is Forbidden", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("GET", "/orders/"+orderID.String(), nil, userID,
			map[string]string{"id": orderID.String()})
		recorder := httptest.NewRecorder()

		order := &models.Order{ID: orderID, UserID: uuid.New(), Status: models.OrderStatusPending}
		mockOrderService.On("GetOrderByID", mock.Anything, orderID).Return(order, nil).Once()

		// Act
		orderHandler.GetOrder()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusForbidden, recorder.Code)

		var resp response.APIResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeForbidden, resp.Error.Code)
	})

	t.Run("Failure - Invalid ID Format", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("GET", "/orders/not-a-uuid", nil, userID,
			map[string]string{"id": "not-a-uuid"})
		recorder := httptest.NewRecorder()

		// Act
		orderHandler.GetOrder()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockOrderService.AssertNotCalled(t, "GetOrderByID", mock.Anything, mock.Anything)
	})

	t.Run("Failure - Not Found", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("GET", "/orders/"+orderID.String(), nil, userID,
			map[string]string{"id": orderID.String()})
		recorder := httptest.NewRecorder()

		mockOrderService.On("GetOrderByID", mock.Anything, orderID).
			Return(nil, appErrors.NotFoundError("Order not found")).Once()

		// Act
		orderHandler.GetOrder()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestListOrdersHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - Paginated Envelope", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("GET", "/orders?page=2&pageSize=5", nil, userID, nil)
		recorder := httptest.NewRecorder()

		orders := []models.Order{{ID: uuid.New(), UserID: userID}}
		mockOrderService.On("ListOrdersByUser", mock.Anything, userID, 2, 5).Return(orders, 6, nil).Once()

		// Act
		orderHandler.ListOrders()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		var resp struct {
			Success bool                     `json:"success"`
			Data    models.PaginatedResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 6, resp.Data.Total)
		assert.Equal(t, 2, resp.Data.Page)
		assert.Equal(t, 5, resp.Data.PageSize)
	})

	t.Run("Success - Bad Query Params Fall Back To Defaults", func(t *testing.T) {
		// Arrange
		mockOrderService, orderHandler := setupOrderHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("GET", "/orders?page=zero&pageSize=-1", nil, userID, nil)
		recorder := httptest.NewRecorder()

		mockOrderService.On("ListOrdersByUser", mock.Anything, userID, 1, 10).Return([]models.Order{}, 0, nil).Once()

		// Act
		orderHandler.ListOrders()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}
