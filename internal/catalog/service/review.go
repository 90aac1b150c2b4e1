package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/ethnic_shop/internal/models"
)

type ReviewInput struct {
	Rating  int
	Comment string
}

func (in ReviewInput) validate() error {
	if in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if strings.TrimSpace(in.Comment) == "" {
		return fmt.Errorf("%w: comment is required", ErrValidation)
	}
	return nil
}

func (s *CatalogService) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	p, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return nonNil(p.Reviews), nil
}

// AddReview records the actor's review. Each user may review a product once.
func (s *CatalogService) AddReview(ctx context.Context, actor models.Actor, productID uuid.UUID, in ReviewInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, productID, func(p *models.Product) error {
		if slices.ContainsFunc(p.Reviews, func(r models.Review) bool { return r.UserID == actor.UserID }) {
			return fmt.Errorf("%w: product already reviewed", ErrConflict)
		}
		p.Reviews = append(p.Reviews, models.Review{
			ID:        uuid.New(),
			UserID:    actor.UserID,
			Name:      actor.Name,
			Rating:    in.Rating,
			Comment:   strings.TrimSpace(in.Comment),
			CreatedAt: s.now(),
		})
		p.RecomputeRating()
		return nil
	}, s.Repo.SaveReviews)
}

func findReview(p *models.Product, reviewID uuid.UUID, actor models.Actor) (int, error) {
	i := slices.IndexFunc(p.Reviews, func(r models.Review) bool { return r.ID == reviewID })
	if i < 0 {
		return -1, fmt.Errorf("%w: review", ErrNotFound)
	}
	if p.Reviews[i].UserID != actor.UserID {
		return -1, ErrForbidden
	}
	return i, nil
}

func (s *CatalogService) UpdateReview(ctx context.Context, actor models.Actor, productID, reviewID uuid.UUID, in ReviewInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.mutate(ctx, productID, func(p *models.Product) error {
		i, err := findReview(p, reviewID, actor)
		if err != nil {
			return err
		}
		p.Reviews[i].Rating = in.Rating
		p.Reviews[i].Comment = strings.TrimSpace(in.Comment)
		p.RecomputeRating()
		return nil
	}, s.Repo.SaveReviews)
}

func (s *CatalogService) DeleteReview(ctx context.Context, actor models.Actor, productID, reviewID uuid.UUID) (*models.Product, error) {
	return s.mutate(ctx, productID, func(p *models.Product) error {
		i, err := findReview(p, reviewID, actor)
		if err != nil {
			return err
		}
		p.Reviews = slices.Delete(p.Reviews, i, i+1)
		p.RecomputeRating()
		return nil
	}, s.Repo.SaveReviews)
}
