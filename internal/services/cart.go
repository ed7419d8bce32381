package service

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/shoplite/shoplite/internal/errors"
	"github.com/shoplite/shoplite/internal/models"
	repository "github.com/shoplite/shoplite/internal/repositories"
	"github.com/google/uuid"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, errors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {

	// Adding an unknown product is a 404, matching the catalog lookup.
	if _, err := s.productRepo.GetProductByID(ctx, req.ProductID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Product not found: " + req.ProductID.String()).WithError(err)
		}

		return nil, errors.DatabaseError("Failed to look up product").WithError(err)
	}

	if err := s.cartRepo.UpsertItem(ctx, userID, req.ProductID, req.Quantity); err != nil {
		return nil, errors.DatabaseError("Failed to add item to cart").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.Cart, error) {

	var err error

	if req.Quantity == 0 {
		err = s.cartRepo.RemoveItem(ctx, userID, req.ProductID)
	} else {
		err = s.cartRepo.UpdateQuantity(ctx, userID, req.ProductID, req.Quantity)
	}

	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.BadRequestError("Item not found in the cart").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to update cart").WithError(err)
	}

	return s.GetCart(ctx, userID)
}
