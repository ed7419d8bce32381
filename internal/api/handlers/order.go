package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shoplite/shoplite/internal/api/middleware"
	"github.com/shoplite/shoplite/internal/errors"
	"github.com/shoplite/shoplite/internal/metrics"
	"github.com/shoplite/shoplite/internal/models"
	service "github.com/shoplite/shoplite/internal/services"
	"github.com/shoplite/shoplite/internal/utils"
	"github.com/shoplite/shoplite/internal/utils/response"
)

func placementOutcome(err error) string {
	appErr, ok := errors.IsAppError(err)
	if !ok {
		return "error"
	}

	switch appErr.Code {
	case errors.ErrCodeEmptyCart:
		return "empty_cart"
	case errors.ErrCodeInsufficientStock:
		return "insufficient_stock"
	default:
		return "error"
	}
}

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PlaceOrder godoc
//	@Summary		Place a new order
//	@Description	Converts the authenticated user's current cart into an order in one atomic transaction. The cart must be non-empty and every line must be within the product's available stock.
//	@Tags			Orders
//	@Produce		json
//	@Success		201	{object}	models.Order			"Successfully placed order"
//	@Failure		400	{object}	response.ErrorResponse	"Cart empty or insufficient stock (error code EMPTY_CART or INSUFFICIENT_STOCK)"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse	"Storage failure"
//	@Security		BearerAuth
//	@Router			/orders [post]
func (h *OrderHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order placement attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		order, err := h.orderService.PlaceOrder(r.Context(), claims.UserID)
		if err != nil {
			metrics.ObserveOrderPlacement(placementOutcome(err))
			logger.Error("Failed to place order", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		metrics.ObserveOrderPlacement("success")

		logger.Info("Order placed successfully",
			slog.String("orderId", order.ID.String()),
			slog.String("total", order.TotalAmount.String()))
		response.Success(w, http.StatusCreated, order)
	}
}

// GetOrder godoc
//	@Summary		Get an order by ID
//	@Description	Retrieves one of the authenticated user's orders, including its items with their price snapshots.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Successfully retrieved order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"User does not own this order"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order access attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		order, err := h.orderService.GetOrderByID(r.Context(), id)
		if err != nil {
			logger.Error("Failed to get order",
				slog.String("orderId", id.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		if order.UserID != claims.UserID {
			logger.Warn("Attempted to access another user's order",
				slog.String("orderId", id.String()),
				slog.String("ownerId", order.UserID.String()))
			response.Error(w, errors.ForbiddenError("You don't have permission to access this order"))

			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//	@Summary		List user's orders with pagination
//	@Tags			Orders
//	@Produce		json
//	@Param			page		query		int												false	"Page number (default: 1)"							minimum(1)
//	@Param			pageSize	query		int												false	"Number of items per page (default: 10, max: 100)"	minimum(1)	maximum(100)
//	@Success		200			{object}	models.PaginatedResponse{Data=[]models.Order}	"Successfully retrieved orders"
//	@Failure		401			{object}	response.ErrorResponse							"Authentication required"
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized order list attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))

			return
		}

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 10
		}

		orders, total, err := h.orderService.ListOrdersByUser(r.Context(), claims.UserID, page, pageSize)
		if err != nil {
			logger.Error("Failed to list orders", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     orders,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}
