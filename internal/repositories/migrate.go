package repositories

import (
	"fmt"

	"github.com/anonto42/pinpost/backend/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the users, posts and favourites tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Post{}, "FavouritedBy", &models.Favourite{}); err != nil {
		return fmt.Errorf("failed to set up favourites join table: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Favourite{}); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	return nil
}
