package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/pinpost/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPostNotFound = errors.New("post not found")

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	GetLatestPosts(ctx context.Context, limit int) ([]models.Post, error)
	GetAllPosts(ctx context.Context) ([]models.Post, error)
	ListPostIDs(ctx context.Context) ([]uint, error)
	SearchPosts(ctx context.Context, filter PostFilter) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id uint) error
	IncrementVisits(ctx context.Context, id uint) error
	ToggleFavourite(ctx context.Context, postID, userID uint) (bool, error)
}

// PostFilter narrows SearchPosts. Keyword matches name, location or description;
// a nil UserID searches every author.
type PostFilter struct {
	Keyword string
	UserID  *uint
}

// PostgresPostRepository implements PostRepository on gorm
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("User").Preload("FavouritedBy")
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetPostByID retrieves a post with its author and favourites.
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// GetPostsByIDs returns the posts that exist among ids, in no particular order.
func (r *PostgresPostRepository) GetPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	posts := []models.Post{}
	if len(ids) == 0 {
		return posts, nil
	}
	if err := r.withRelations(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	return posts, nil
}

func (r *PostgresPostRepository) GetLatestPosts(ctx context.Context, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.withRelations(ctx).Order(newestFirst).Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get latest posts: %w", err)
	}
	return posts, nil
}

// GetAllPosts returns every post in storage (insertion) order.
func (r *PostgresPostRepository) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := r.withRelations(ctx).Order("id ASC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	return posts, nil
}

// ListPostIDs returns all post ids, newest first.
func (r *PostgresPostRepository) ListPostIDs(ctx context.Context) ([]uint, error) {
	ids := []uint{}
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Order(newestFirst).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list post ids: %w", err)
	}
	return ids, nil
}

// SearchPosts returns posts whose name, location or description contains the
// keyword, newest first. Matching is a literal, case-insensitive substring test.
func (r *PostgresPostRepository) SearchPosts(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	q := r.withRelations(ctx)
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Keyword != "" {
		like := "%" + likeEscaper.Replace(filter.Keyword) + "%"
		q = q.Where(keywordMatch, like, like, like)
	}
	posts := []models.Post{}
	if err := q.Order(newestFirst).Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	return posts, nil
}

// UpdatePost writes the editable columns of post.
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(post).Omit(clause.Associations).
		Select("Name", "Location", "Description", "Image", "ImageRef", "UpdatedAt").
		Updates(post)
	if res.Error != nil {
		return fmt.Errorf("failed to update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost removes the post and its favourite rows.
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Favourite{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

// IncrementVisits bumps the visit counter in a single UPDATE so concurrent
// readers never lose an increment. updated_at is left alone.
func (r *PostgresPostRepository) IncrementVisits(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("visited", gorm.Expr("visited + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment visits: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ToggleFavourite flips the (post, user) pair and reports whether it is now
// present. The post row is locked for the duration so concurrent toggles of
// the same post serialize.
func (r *PostgresPostRepository) ToggleFavourite(ctx context.Context, postID, userID uint) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&post, postID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		if err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Favourite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		fav := models.Favourite{PostID: postID, UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return false, err
		}
		return false, fmt.Errorf("failed to toggle favourite: %w", err)
	}
	return liked, nil
}

const newestFirst = "created_at DESC, id DESC"

const keywordMatch = `(LOWER(name) LIKE LOWER(?) ESCAPE '\'` +
	` OR LOWER(location) LIKE LOWER(?) ESCAPE '\'` +
	` OR LOWER(description) LIKE LOWER(?) ESCAPE '\')`

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
