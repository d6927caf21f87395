package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/cinescan/cinescan/pkg/jobs"
	"github.com/cinescan/cinescan/pkg/preferences"
	"github.com/cinescan/cinescan/pkg/tmdb"
	"github.com/cinescan/cinescan/pkg/users"
	"github.com/cinescan/cinescan/pkg/watchlist"
	"github.com/gin-gonic/gin"
)

// Server wires the HTTP surface onto the domain services.
type Server struct {
	users  *users.Service
	ledger *watchlist.Service
	prefs  *preferences.Engine
	tmdb   *tmdb.Client
	runner *jobs.Runner
	logger *slog.Logger
}

func New(
	userSvc *users.Service,
	ledger *watchlist.Service,
	prefs *preferences.Engine,
	tmdbClient *tmdb.Client,
	runner *jobs.Runner,
	logger *slog.Logger,
) *Server {
	return &Server{
		users:  userSvc,
		ledger: ledger,
		prefs:  prefs,
		tmdb:   tmdbClient,
		runner: runner,
		logger: logger,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)

	api.GET("/tmdb/search", s.searchTmdb)

	user := api.Group("/user", s.authRequired())
	user.GET("/profile", s.getProfile)
	user.POST("/profile/edit", s.updateProfile)
	user.GET("/movies", s.listMovies)
	user.POST("/movies/add", s.addMovie)
	user.POST("/movies/:entryId/edit-rating", s.editRating)
	user.DELETE("/movies/:entryId/remove", s.removeMovie)
	user.POST("/scan", s.triggerScan)

	return r
}

// authRequired validates the bearer token and stores the subject username
// on the request context. Handlers read the acting user from there; no
// global session state exists anywhere below this middleware.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header format"})
			return
		}

		username, err := s.users.ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("username", username)
		c.Next()
	}
}

func currentUsername(c *gin.Context) string {
	return c.GetString("username")
}
