package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shoplite/shoplite/internal/api/middleware"
	"github.com/shoplite/shoplite/internal/models"
	service "github.com/shoplite/shoplite/internal/services"
	"github.com/shoplite/shoplite/internal/utils"
	"github.com/shoplite/shoplite/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type ProductHandler struct {
	productService service.ProductService
	validator      *validator.Validate
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService, validator: validator.New()}
}

// CreateProduct godoc
//	@Summary		Create a new product (admin only)
//	@Tags			Products
//	@Accept			json
//	@Produce		json
//	@Param			product	body		models.CreateProductRequest	true	"Product details"
//	@Success		201		{object}	models.Product				"Successfully created product"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		403		{object}	response.ErrorResponse		"Admin access required"
//	@Security		BearerAuth
//	@Router			/products [post]
func (h *ProductHandler) CreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.CreateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid create product input")

			return
		}

		product, err := h.productService.CreateProduct(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to create product", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Product created successfully", slog.String("productId", product.ID.String()))
		response.Success(w, http.StatusCreated, product)
	}
}

// GetProduct godoc
//	@Summary	Get product by ID
//	@Tags		Products
//	@Produce	json
//	@Param		id	path		string					true	"Product ID (UUID)"	Format(uuid)
//	@Success	200	{object}	models.Product			"Product details"
//	@Failure	404	{object}	response.ErrorResponse	"Product not found"
//	@Router		/products/{id} [get]
func (h *ProductHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		product, err := h.productService.GetProductByID(r.Context(), id)
		if err != nil {
			logger.Error("Failed to get product", slog.String("productId", id.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, product)
	}
}

// UpdateProduct godoc
//	@Summary	Update a product (admin only)
//	@Tags		Products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Product ID (UUID)"	Format(uuid)
//	@Param		product	body		models.UpdateProductRequest	true	"Fields to update"
//	@Success	200		{object}	models.Product				"Successfully updated product"
//	@Failure	400		{object}	response.ErrorResponse		"Validation error"
//	@Failure	403		{object}	response.ErrorResponse		"Admin access required"
//	@Failure	404		{object}	response.ErrorResponse		"Product not found"
//	@Security	BearerAuth
//	@Router		/products/{id} [put]
func (h *ProductHandler) UpdateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid product id", slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		var req models.UpdateProductRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update product input")

			return
		}

		product, err := h.productService.UpdateProduct(r.Context(), id, &req)
		if err != nil {
			logger.Error("Failed to update product", slog.String("productId", id.String()), slog.Any("error", err))
			response.Error(w, err)

			return
		}

		logger.Info("Product updated successfully", slog.String("productId", product.ID.String()))
		response.Success(w, http.StatusOK, product)
	}
}

// ListProducts godoc
//	@Summary	List products with pagination
//	@Tags		Products
//	@Produce	json
//	@Param		page		query		int	false	"Page number (default: 1)"
//	@Param		pageSize	query		int	false	"Number of items per page (default: 10, max: 100)"
//	@Success	200			{object}	models.PaginatedResponse{Data=[]models.Product}
//	@Router		/products [get]
func (h *ProductHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 10
		}

		products, total, err := h.productService.ListProducts(r.Context(), page, pageSize)
		if err != nil {
			logger.Error("Failed to list products", slog.Any("error", err))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusOK, models.PaginatedResponse{
			Data:     products,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		})
	}
}
