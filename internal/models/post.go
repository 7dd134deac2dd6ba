package models

import "time"

// Post represents a shared place: an image with a name, location and description.
type Post struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Location     string    `json:"location" gorm:"not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	Image        string    `json:"image" gorm:"not null"`
	ImageRef     string    `json:"-"`
	Visited      int64     `json:"visited" gorm:"not null;default:0"`
	UserID       uint      `json:"user_id" gorm:"index;not null"`
	User         User      `json:"-" gorm:"foreignKey:UserID"`
	FavouritedBy []User    `json:"-" gorm:"many2many:favourites"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EnrichedPost is a post with author info and user-specific flags
type EnrichedPost struct {
	Post
	Author       UserCompact   `json:"user"`
	FavouritedBy []UserCompact `json:"favouritedBy"`
	Likes        int           `json:"likes"`
	IsLiked      bool          `json:"liked"`
}

// Enrich builds the response view of p as seen by viewerID.
func (p Post) Enrich(viewerID uint) EnrichedPost {
	favouritedBy := make([]UserCompact, len(p.FavouritedBy))
	for i, u := range p.FavouritedBy {
		favouritedBy[i] = u.ToCompact()
	}
	return EnrichedPost{
		Post:         p,
		Author:       p.User.ToCompact(),
		FavouritedBy: favouritedBy,
		Likes:        p.Likes(),
		IsLiked:      p.LikedBy(viewerID),
	}
}

// RecommendedPost is the trimmed view returned by the recommendation feed.
type RecommendedPost struct {
	ID    uint        `json:"id"`
	Name  string      `json:"name"`
	Image string      `json:"image"`
	User  UserCompact `json:"user"`
}

func (p Post) ToRecommended() RecommendedPost {
	return RecommendedPost{ID: p.ID, Name: p.Name, Image: p.Image, User: p.User.ToCompact()}
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Name        string `json:"name" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description" validate:"required"`
	Image       string `json:"image" validate:"required,datauri"`
}

// UpdatePostRequest defines the request body for a partial post update
type UpdatePostRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Location    *string `json:"location,omitempty" validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty" validate:"omitempty,min=1"`
	Image       *string `json:"image,omitempty" validate:"omitempty,datauri"`
}
