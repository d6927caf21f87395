package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/cinescan/cinescan/pkg/registry"
	"github.com/cinescan/cinescan/pkg/tmdb"
	"github.com/cinescan/cinescan/pkg/watchlist"
	"github.com/gin-gonic/gin"
)

type addMovieRequest struct {
	TmdbMovieID int     `json:"tmdb_movie_id" binding:"required"`
	Rating      float64 `json:"rating"`
}

type editRatingRequest struct {
	Rating float64 `json:"rating"`
}

func (s *Server) listMovies(c *gin.Context) {
	entries, err := s.ledger.ListByUser(c.Request.Context(), currentUsername(c))
	if err != nil {
		s.logger.Error("listing movies failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list your movies"})
		return
	}

	if len(entries) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (s *Server) addMovie(c *gin.Context) {
	var req addMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	candidate, err := s.tmdb.MovieByID(ctx, req.TmdbMovieID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "movie not found in tmdb"})
			return
		}

		s.logger.Error("tmdb lookup failed", "tmdb_id", req.TmdbMovieID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not reach the movie catalogue"})
		return
	}

	user, err := s.users.ByUsername(ctx, currentUsername(c))
	if err != nil {
		s.logger.Error("loading user failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load your profile"})
		return
	}

	entry, err := s.ledger.AddToList(ctx, user, candidate, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, watchlist.ErrAlreadyInList):
			c.JSON(http.StatusConflict, gin.H{"error": "this movie already exists in your list"})
		case errors.Is(err, watchlist.ErrInvalidRating),
			errors.Is(err, registry.ErrGenresNotFound),
			errors.Is(err, registry.ErrMalformedReleaseDate):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			s.logger.Error("adding movie failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add the movie to your list"})
		}
		return
	}

	// Keep the derived favourites in step with the new rating.
	if err := s.prefs.Recompute(ctx, &user); err != nil {
		s.logger.Warn("favourites recompute after add failed", "username", user.Username, "error", err)
	}

	c.JSON(http.StatusCreated, gin.H{"message": entry.Movie.Title + " added to your list!", "entry": entry})
}

func (s *Server) editRating(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("entryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var req editRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	if err := s.ledger.UpdateRating(ctx, entryID, req.Rating); err != nil {
		switch {
		case errors.Is(err, watchlist.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "watchlist entry not found"})
		case errors.Is(err, watchlist.ErrInvalidRating):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			s.logger.Error("updating rating failed", "entry_id", entryID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update the rating"})
		}
		return
	}

	s.recomputeFavourites(c)

	c.JSON(http.StatusOK, gin.H{"message": "rating updated successfully"})
}

func (s *Server) removeMovie(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("entryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := s.ledger.RemoveEntry(c.Request.Context(), entryID); err != nil {
		if errors.Is(err, watchlist.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "watchlist entry not found"})
			return
		}

		s.logger.Error("removing entry failed", "entry_id", entryID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove the movie from your list"})
		return
	}

	s.recomputeFavourites(c)

	c.JSON(http.StatusOK, gin.H{"message": "movie removed from your list"})
}

func (s *Server) searchTmdb(c *gin.Context) {
	ctx := c.Request.Context()

	if year := c.Query("year"); year != "" {
		results, err := s.tmdb.DiscoverByYear(ctx, year)
		if err != nil {
			s.logger.Error("tmdb discover failed", "year", year, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not reach the movie catalogue"})
			return
		}
		c.JSON(http.StatusOK, results)
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q or year query parameter is required"})
		return
	}

	results, err := s.tmdb.SearchByTitle(ctx, query)
	if err != nil {
		s.logger.Error("tmdb search failed", "query", query, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not reach the movie catalogue"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (s *Server) triggerScan(c *gin.Context) {
	user, err := s.users.ByUsername(c.Request.Context(), currentUsername(c))
	if err != nil {
		s.logger.Error("loading user failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load your profile"})
		return
	}

	// Detach from the request context; the scan outlives the response.
	go func() {
		if err := s.runner.ScanUser(context.Background(), user); err != nil {
			s.logger.Error("triggered scan failed", "username", user.Username, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "cinema scan started"})
}

func (s *Server) recomputeFavourites(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := s.users.ByUsername(ctx, currentUsername(c))
	if err != nil {
		s.logger.Warn("loading user for recompute failed", "error", err)
		return
	}

	if err := s.prefs.Recompute(ctx, &user); err != nil {
		s.logger.Warn("favourites recompute failed", "username", user.Username, "error", err)
	}
}
