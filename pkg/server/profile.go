package server

import (
	"errors"
	"net/http"

	"github.com/cinescan/cinescan/pkg/models"
	"github.com/cinescan/cinescan/pkg/users"
	"github.com/gin-gonic/gin"
)

type updateProfileRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email" binding:"omitempty,email"`
	FavouriteReleaseYear string `json:"favourite_release_year"`
	FavouriteGenreID     *int   `json:"favourite_genre_id"`
}

func (s *Server) getProfile(c *gin.Context) {
	user, err := s.users.ByUsername(c.Request.Context(), currentUsername(c))
	if err != nil {
		s.logger.Error("loading user failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load your profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	user, err := s.users.ByUsername(ctx, currentUsername(c))
	if err != nil {
		s.logger.Error("loading user failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load your profile"})
		return
	}

	update := models.User{
		Username:             req.Username,
		Email:                req.Email,
		FavouriteReleaseYear: req.FavouriteReleaseYear,
		FavouriteGenreID:     req.FavouriteGenreID,
	}

	if err := s.users.UpdateProfile(ctx, &user, update); err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		s.logger.Error("profile update failed", "username", user.Username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update your profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}
