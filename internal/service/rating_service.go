package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"recipe-blog/internal/cache"
	"recipe-blog/internal/domain"
	"recipe-blog/internal/repository"
)

// RatingService coordina escritura y lectura de valoraciones de recetas.
type RatingService struct {
	logger  *zap.Logger
	ratings repository.RatingRepository
	cache   cache.RatingsCache
}

func NewRatingService(logger *zap.Logger, ratings repository.RatingRepository, ratingsCache cache.RatingsCache) *RatingService {
	return &RatingService{
		logger:  logger,
		ratings: ratings,
		cache:   ratingsCache,
	}
}

var (
	ErrRecipeRequired   = errors.New("recipe name required")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
)

// AddRating persiste una valoración nueva. No hay deduplicación: cada llamada
// crea una fila nueva.
func (s *RatingService) AddRating(ctx context.Context, userID int64, recipeName string, value int) (domain.Rating, error) {
	if s.ratings == nil {
		return domain.Rating{}, errors.New("rating service not configured")
	}

	recipeName = strings.TrimSpace(recipeName)
	if recipeName == "" {
		return domain.Rating{}, ErrRecipeRequired
	}
	if value < 1 || value > 5 {
		return domain.Rating{}, ErrRatingOutOfRange
	}

	rating, err := s.ratings.Create(ctx, domain.Rating{
		UserID:     userID,
		RecipeName: recipeName,
		Rating:     value,
	})
	if err != nil {
		return domain.Rating{}, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, recipeName); err != nil {
			s.logger.Warn("invalidate ratings cache failed", zap.Error(err), zap.String("recipe", recipeName))
		}
	}
	return rating, nil
}

// RecipeSummary devuelve todas las valoraciones de una receta con promedio y total.
func (s *RatingService) RecipeSummary(ctx context.Context, recipeName string) (domain.RecipeSummary, error) {
	if s.ratings == nil {
		return domain.RecipeSummary{}, errors.New("rating service not configured")
	}

	if s.cache != nil {
		summary, ok, err := s.cache.GetSummary(ctx, recipeName)
		if err != nil {
			s.logger.Warn("read ratings cache failed", zap.Error(err), zap.String("recipe", recipeName))
		} else if ok {
			return summary, nil
		}
	}

	ratings, err := s.ratings.ListByRecipe(ctx, recipeName)
	if err != nil {
		return domain.RecipeSummary{}, err
	}

	summary := domain.RecipeSummary{
		RecipeName:    recipeName,
		Ratings:       ratings,
		AverageRating: averageRating(ratings),
		TotalRatings:  len(ratings),
	}

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, summary); err != nil {
			s.logger.Warn("write ratings cache failed", zap.Error(err), zap.String("recipe", recipeName))
		}
	}
	return summary, nil
}

// averageRating calcula el promedio redondeado a un decimal; 0 sin valoraciones.
func averageRating(ratings []domain.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(ratings))
	return math.Round(avg*10) / 10
}
