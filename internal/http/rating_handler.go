package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-blog/internal/service"
)

// RatingHandler mantiene dependencias para los endpoints de valoraciones.
type RatingHandler struct {
	logger     *zap.Logger
	ratingServ *service.RatingService
}

// NewRatingHandler crea una instancia de RatingHandler con dependencias necesarias.
func NewRatingHandler(logger *zap.Logger, ratingServ *service.RatingService) *RatingHandler {
	return &RatingHandler{
		logger:     logger,
		ratingServ: ratingServ,
	}
}

// CreateRating maneja POST /api/ratings.
func (h *RatingHandler) CreateRating(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		RecipeName string `json:"recipe_name"`
		Rating     int    `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid rating request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipe name and rating required"})
		return
	}

	rating, err := h.ratingServ.AddRating(c.Request.Context(), claims.UserID, req.RecipeName, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeRequired),
			errors.Is(err, service.ErrRatingOutOfRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		default:
			h.logger.Error("save rating failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"rating": rating})
}

// GetRecipeRatings maneja GET /api/ratings/:recipe_name.
func (h *RatingHandler) GetRecipeRatings(c *gin.Context) {
	recipeName := c.Param("recipe_name")

	summary, err := h.ratingServ.RecipeSummary(c.Request.Context(), recipeName)
	if err != nil {
		h.logger.Error("get recipe ratings failed", zap.Error(err), zap.String("recipe", recipeName))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
