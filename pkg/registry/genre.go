package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cinescan/cinescan/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Genres canonicalizes genre tags by their catalogue id.
type Genres struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewGenres(db *gorm.DB, logger *slog.Logger) *Genres {
	return &Genres{db: db, logger: logger}
}

// WithTx returns a Genres bound to the given transaction.
func (g *Genres) WithTx(tx *gorm.DB) *Genres {
	return &Genres{db: tx, logger: g.logger}
}

// Resolve returns the stored genre for the candidate's id, creating it if
// absent. The stored row wins over the candidate's name: the first write
// for an id is the permanent one. Concurrent calls for the same id are
// settled by the primary key, not by call ordering.
func (g *Genres) Resolve(ctx context.Context, genre models.Genre) (models.Genre, error) {
	res := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&genre)
	if res.Error != nil {
		return models.Genre{}, fmt.Errorf("resolving genre %d: %w", genre.ID, res.Error)
	}

	if res.RowsAffected > 0 {
		g.logger.Info("new genre registered", "id", genre.ID, "name", genre.Name)
		return genre, nil
	}

	var stored models.Genre
	if err := g.db.WithContext(ctx).First(&stored, "id = ?", genre.ID).Error; err != nil {
		return models.Genre{}, fmt.Errorf("reading genre %d: %w", genre.ID, err)
	}

	return stored, nil
}
