package models

// Favourite is one row of the favourites join table. The composite primary key
// keeps a (post, user) pair unique.
type Favourite struct {
	PostID uint `gorm:"primaryKey;autoIncrement:false"`
	UserID uint `gorm:"primaryKey;autoIncrement:false"`
}

// Likes is the favourite count, derived from the relation rather than stored.
func (p Post) Likes() int {
	return len(p.FavouritedBy)
}

func (p Post) LikedBy(userID uint) bool {
	for _, u := range p.FavouritedBy {
		if u.ID == userID {
			return true
		}
	}
	return false
}
