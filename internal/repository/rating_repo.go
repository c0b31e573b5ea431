package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"recipe-blog/internal/domain"
)

// RatingRepository define el contrato de persistencia para valoraciones.
type RatingRepository interface {
	Create(ctx context.Context, rating domain.Rating) (domain.Rating, error)
	ListByRecipe(ctx context.Context, recipeName string) ([]domain.Rating, error)
}

// PgRatingRepository implementa RatingRepository usando pgxpool.
type PgRatingRepository struct {
	pool *pgxpool.Pool
}

func NewPgRatingRepository(pool *pgxpool.Pool) *PgRatingRepository {
	return &PgRatingRepository{pool: pool}
}

func (r *PgRatingRepository) Create(ctx context.Context, rating domain.Rating) (domain.Rating, error) {
	const query = `
		INSERT INTO ratings (user_id, recipe_name, rating)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		rating.UserID,
		rating.RecipeName,
		rating.Rating,
	).Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		return domain.Rating{}, err
	}
	return rating, nil
}

func (r *PgRatingRepository) ListByRecipe(ctx context.Context, recipeName string) ([]domain.Rating, error) {
	const query = `
		SELECT id, COALESCE(user_id, 0), recipe_name, rating, created_at
		FROM ratings
		WHERE recipe_name = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, recipeName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make([]domain.Rating, 0)
	for rows.Next() {
		var rt domain.Rating
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.RecipeName, &rt.Rating, &rt.CreatedAt); err != nil {
			return nil, err
		}
		ratings = append(ratings, rt)
	}
	return ratings, rows.Err()
}
