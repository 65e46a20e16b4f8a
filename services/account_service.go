package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/internal/logger"
	"social-pilot/models"
	"social-pilot/repositories"
)

type AccountStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	ListByPlatform(ctx context.Context, platform models.Platform) ([]models.Account, error)
	Upsert(ctx context.Context, a *models.Account) (*models.Account, error)
}

type AccountLinker interface {
	LinkAccount(ctx context.Context, id primitive.ObjectID, platform models.Platform, accountID primitive.ObjectID) error
}

// AccountService stores connected accounts and links them to products.
type AccountService struct {
	accounts AccountStore
	products AccountLinker
}

func NewAccountService(accounts AccountStore, products AccountLinker) *AccountService {
	return &AccountService{accounts: accounts, products: products}
}

func (s *AccountService) List(ctx context.Context, platform models.Platform) ([]models.Account, error) {
	return s.accounts.ListByPlatform(ctx, platform)
}

// Connect upserts an account returned by an OAuth flow and, when productID
// is set, links it to that product.
func (s *AccountService) Connect(ctx context.Context, productID primitive.ObjectID, acc *models.Account) (*models.Account, error) {
	saved, err := s.accounts.Upsert(ctx, acc)
	if err != nil {
		return nil, err
	}
	logger.InfoWithFields("account connected", logger.Fields{
		"platform":   string(saved.Platform),
		"account_id": saved.ID.Hex(),
		"username":   saved.Username,
	})
	if productID.IsZero() {
		return saved, nil
	}
	if err := s.link(ctx, productID, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// Link points a product at an existing account of the same platform.
func (s *AccountService) Link(ctx context.Context, productID, accountID primitive.ObjectID) (*models.Account, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NotFound("Account not found")
	}
	if err != nil {
		return nil, err
	}
	if err := s.link(ctx, productID, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *AccountService) link(ctx context.Context, productID primitive.ObjectID, acc *models.Account) error {
	err := s.products.LinkAccount(ctx, productID, acc.Platform, acc.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("Product not found")
	}
	return err
}
