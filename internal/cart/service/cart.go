package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ethnic_shop/internal/cart/repo"
	catalogrepo "github.com/Skotchmaster/ethnic_shop/internal/catalog/repo"
	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

const maxWriteAttempts = 3

type ProductLookup interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type CartService struct {
	Repo     *repo.GormRepo
	Products ProductLookup
}

type LineKey struct {
	ProductID uuid.UUID
	Size      string
	Color     string
}

type AddInput struct {
	LineKey
	Quantity int
}

func (s *CartService) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return u, err
}

// mutate applies fn to a fresh copy of the user and saves it under the
// optimistic version check, retrying on a lost race.
func (s *CartService) mutate(ctx context.Context, userID uuid.UUID, fn func(u *models.User) error, save func(context.Context, *models.User, int64) error) (*models.User, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		u, err := s.loadUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		prev := u.Version
		if err := fn(u); err != nil {
			return nil, err
		}
		err = save(ctx, u, prev)
		if errors.Is(err, repo.ErrStale) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return u, nil
	}
	return nil, fmt.Errorf("%w: cart changed concurrently, retry", ErrConflict)
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(u.Cart), nil
}

func (s *CartService) product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Products.GetProduct(ctx, id)
	if errors.Is(err, catalogrepo.ErrNotFound) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return p, err
}

// AddToCart merges into an existing line with the same product, size and
// color, snapshotting the current catalog price.
func (s *CartService) AddToCart(ctx context.Context, userID uuid.UUID, in AddInput) ([]models.CartLine, error) {
	if in.ProductID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be more than zero", ErrValidation)
	}

	p, err := s.product(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if in.Size != "" && len(p.Sizes) > 0 && !slices.Contains(p.Sizes, in.Size) {
		return nil, fmt.Errorf("%w: size %q is not offered", ErrValidation, in.Size)
	}
	if in.Color != "" && len(p.Colors) > 0 && !slices.Contains(p.Colors, in.Color) {
		return nil, fmt.Errorf("%w: color %q is not offered", ErrValidation, in.Color)
	}

	u, err := s.mutate(ctx, userID, func(u *models.User) error {
		for i := range u.Cart {
			if u.Cart[i].SameKey(in.ProductID, in.Size, in.Color) {
				u.Cart[i].Quantity += in.Quantity
				u.Cart[i].Price = p.Price
				return nil
			}
		}
		u.Cart = append(u.Cart, models.CartLine{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			Size:      in.Size,
			Color:     in.Color,
			Price:     p.Price,
		})
		return nil
	}, s.Repo.SaveCart)
	if err != nil {
		return nil, err
	}
	return nonNil(u.Cart), nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, key LineKey, quantity int) ([]models.CartLine, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be more than zero", ErrValidation)
	}
	u, err := s.mutate(ctx, userID, func(u *models.User) error {
		for i := range u.Cart {
			if u.Cart[i].SameKey(key.ProductID, key.Size, key.Color) {
				u.Cart[i].Quantity = quantity
				return nil
			}
		}
		return fmt.Errorf("%w: item is not in the cart", ErrNotFound)
	}, s.Repo.SaveCart)
	if err != nil {
		return nil, err
	}
	return nonNil(u.Cart), nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID uuid.UUID, key LineKey) ([]models.CartLine, error) {
	u, err := s.mutate(ctx, userID, func(u *models.User) error {
		n := len(u.Cart)
		u.Cart = slices.DeleteFunc(u.Cart, func(l models.CartLine) bool {
			return l.SameKey(key.ProductID, key.Size, key.Color)
		})
		if len(u.Cart) == n {
			return fmt.Errorf("%w: item is not in the cart", ErrNotFound)
		}
		return nil
	}, s.Repo.SaveCart)
	if err != nil {
		return nil, err
	}
	return nonNil(u.Cart), nil
}

func (s *CartService) ClearAll(ctx context.Context, userID uuid.UUID) error {
	return s.ClearCart(ctx, nil, userID)
}

// ClearCart implements the checkout hook; tx may be nil.
func (s *CartService) ClearCart(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	err := s.Repo.ClearCart(ctx, tx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	return err
}

func (s *CartService) GetWishlist(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := s.Products.ProductsByIDs(ctx, u.Wishlist)
	if err != nil {
		return nil, err
	}

	// keep wishlist order, drop products deleted from the catalog
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(u.Wishlist))
	for _, id := range u.Wishlist {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *CartService) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]uuid.UUID, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if _, err := s.product(ctx, productID); err != nil {
		return nil, err
	}
	u, err := s.mutate(ctx, userID, func(u *models.User) error {
		if !slices.Contains(u.Wishlist, productID) {
			u.Wishlist = append(u.Wishlist, productID)
		}
		return nil
	}, s.Repo.SaveWishlist)
	if err != nil {
		return nil, err
	}
	return nonNil(u.Wishlist), nil
}

func (s *CartService) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]uuid.UUID, error) {
	u, err := s.mutate(ctx, userID, func(u *models.User) error {
		u.Wishlist = slices.DeleteFunc(u.Wishlist, func(id uuid.UUID) bool { return id == productID })
		return nil
	}, s.Repo.SaveWishlist)
	if err != nil {
		return nil, err
	}
	return nonNil(u.Wishlist), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
