package domain

import "time"

type Rating struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	RecipeName string    `json:"recipe_name"`
	Rating     int       `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecipeSummary agrega las valoraciones de una receta.
type RecipeSummary struct {
	RecipeName    string   `json:"recipe_name"`
	Ratings       []Rating `json:"ratings"`
	AverageRating float64  `json:"averageRating"`
	TotalRatings  int      `json:"totalRatings"`
}
