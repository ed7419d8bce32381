package handlers_test

import (
	"bytes"
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

func setupCartHandlerTest(t *testing.T) (*mocks.CartService, *handlers.CartHandler) {
	t.Helper()

	mockCartService := mocks.NewCartService(t)
	cartHandler := handlers.NewCartHandler(mockCartService)

	return mockCartService, cartHandler
}

func TestGetCartHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartHandlerTest(t)
		req := testutils.CreateTestRequestWithContext("GET", "/carts", nil, userID, nil)
		recorder := httptest.NewRecorder()

		cart := &models.Cart{UserID: userID, Total: decimal.Zero}
		mockCartService.On("GetCart", mock.Anything, userID).Return(cart, nil).Once()

		// Act
		cartHandler.GetCart()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)

		var resp response.APIResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	})

	t.Run("Failure - Missing Claims", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartHandlerTest(t)
		req := testutils.CreateTestRequestWithoutContext("GET", "/carts", nil, nil)
		recorder := httptest.NewRecorder()

		// Act
		cartHandler.GetCart()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		mockCartService.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
	})
}

func TestAddItemHandler(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	t.Run("Success - Returns 201", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartHandlerTest(t)

		body, err := json.Marshal(models.AddItemRequest{ProductID: productID, Quantity: 2})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithContext("POST", "/carts/items", bytes.NewBuffer(body), userID, nil)
		recorder := httptest.NewRecorder()

		cart := &models.Cart{UserID: userID, Items: []models.CartItem{{ProductID: productID, Quantity: 2}}}
		mockCartService.On("AddItem", mock.Anything, userID, mock.AnythingOfType("*models.AddItemRequest")).
			Return(cart, nil).Once()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusCreated, recorder.Code)
	})

	t.Run("Failure - Zero Quantity Rejected By Validation", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartHandlerTest(t)

		body, err := json.Marshal(models.AddItemRequest{ProductID: productID, Quantity: 0})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithContext("POST", "/carts/items", bytes.NewBuffer(body), userID, nil)
		recorder := httptest.NewRecorder()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		mockCartService.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - Unknown Product Maps To 404", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartHandlerTest(t)

		body, err := json.Marshal(models.AddItemRequest{ProductID: productID, Quantity: 1})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithContext("POST", "/carts/items", bytes.NewBuffer(body), userID, nil)
		recorder := httptest.NewRecorder()

		mockCartService.On("AddItem", mock.Anything, userID, mock.AnythingOfType("*models.AddItemRequest")).
			Return(nil, appErrors.NotFoundError("Product not found: "+productID.String())).Once()

		// Act
		cartHandler.AddItem()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestUpdateQuantityHandler(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	t.Run("Success - Zero Quantity Allowed", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartHandlerTest(t)

		body, err := json.Marshal(models.UpdateQuantityRequest{ProductID: productID, Quantity: 0})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithContext("PUT", "/carts/items", bytes.NewBuffer(body), userID, nil)
		recorder := httptest.NewRecorder()

		cart := &models.Cart{UserID: userID}
		mockCartService.On("UpdateQuantity", mock.Anything, userID, mock.AnythingOfType("*models.UpdateQuantityRequest")).
			Return(cart, nil).Once()

		// Act
		cartHandler.UpdateQuantity()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("Failure - Line Not In Cart", func(t *testing.T) {
		// Arrange
		mockCartService, cartHandler := setupCartHandlerTest(t)

		body, err := json.Marshal(models.UpdateQuantityRequest{ProductID: productID, Quantity: 3})
		require.NoError(t, err)

		req := testutils.CreateTestRequestWithContext("PUT", "/carts/items", bytes.NewBuffer(body), userID, nil)
		recorder := httptest.NewRecorder()

		mockCartService.On("UpdateQuantity", mock.Anything, userID, mock.AnythingOfType("*models.UpdateQuantityRequest")).
			Return(nil, appErrors.BadRequestError("Item not found in the cart")).Once()

		// Act
		cartHandler.UpdateQuantity()(recorder, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
