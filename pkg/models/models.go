package models

// Genre is a movie category keyed by the id the metadata catalogue assigns
// to it. Rows are immutable once written.
type Genre struct {
	ID   int    `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

// Movie is the canonical record for a title. Every user's watchlist entry
// points at the same row, so registration must dedupe on title.
type Movie struct {
	ID           int     `gorm:"primaryKey;autoIncrement" json:"id"`
	TmdbID       int     `gorm:"column:tmdb_id" json:"tmdb_id"`
	Title        string  `gorm:"uniqueIndex;not null" json:"title"`
	ReleaseYear  string  `json:"release_year"`
	Runtime      int     `json:"runtime"`
	Tagline      string  `json:"tagline"`
	BackdropPath string  `json:"backdrop_path"`
	PosterPath   string  `json:"poster_path"`
	Overview     string  `gorm:"type:text" json:"overview"`
	Genres       []Genre `gorm:"many2many:movie_genres" json:"genres"`
}

// WatchlistEntry links a user to a movie with their rating. The composite
// unique index keeps the pair to at most one row even under concurrent adds.
type WatchlistEntry struct {
	ID      int     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  int     `gorm:"not null;uniqueIndex:uq_watchlist_user_movie" json:"-"`
	MovieID int     `gorm:"not null;uniqueIndex:uq_watchlist_user_movie" json:"-"`
	Movie   Movie   `json:"movie"`
	Rating  float64 `gorm:"not null" json:"rating"`
}

// User holds the account plus the derived favourite fields. The favourites
// are recomputed from the watchlist and overwritten wholesale; nothing else
// should treat them as authoritative.
type User struct {
	ID                   int              `gorm:"primaryKey;autoIncrement" json:"id"`
	Email                string           `json:"email"`
	Username             string           `gorm:"uniqueIndex;not null" json:"username"`
	Password             string           `json:"-"`
	Latitude             float64          `json:"latitude"`
	Longitude            float64          `json:"longitude"`
	FavouriteReleaseYear string           `json:"favourite_release_year"`
	FavouriteGenreID     *int             `json:"-"`
	FavouriteGenre       *Genre           `gorm:"foreignKey:FavouriteGenreID" json:"favourite_genre,omitempty"`
	Watchlist            []WatchlistEntry `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ShowingRecord is one showtime listing pulled off a venue's website. It is
// never persisted, only handed to the matcher and dropped.
type ShowingRecord struct {
	VenueName string
	VenueURL  string
	FilmTitle string
}

// Place is a venue returned by the places text search.
type Place struct {
	DisplayName string `json:"display_name"`
	WebsiteURI  string `json:"website_uri"`
}
