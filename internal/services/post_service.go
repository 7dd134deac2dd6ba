package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/anonto42/pinpost/backend/internal/models"
	"github.com/anonto42/pinpost/backend/internal/repositories"
	"github.com/anonto42/pinpost/backend/pkg/blob"
)

const (
	latestLimit         = 5
	recommendationLimit = 5
)

// PostService is the engagement engine: post lifecycle, visits, likes,
// ranking, sampling and search.
type PostService struct {
	posts  repositories.PostRepository
	images blob.Store
	policy OwnershipPolicy

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPostService creates a PostService. rng may be nil.
func NewPostService(posts repositories.PostRepository, images blob.Store, policy OwnershipPolicy, rng *rand.Rand) *PostService {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &PostService{posts: posts, images: images, policy: policy, rng: rng}
}

// Create uploads the image and then stores the post. No post is created
// without a stored image; an uploaded image is not rolled back if the insert fails.
func (s *PostService) Create(ctx context.Context, identity models.Identity, req models.CreatePostRequest) (*models.Post, error) {
	obj, err := uploadDataURI(ctx, s.images, req.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Image:       obj.URL,
		ImageRef:    obj.Ref,
		UserID:      identity.ID,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, internal("failed to create post", err)
	}
	return s.find(ctx, post.ID)
}

// Latest returns up to five newest posts.
func (s *PostService) Latest(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.GetLatestPosts(ctx, latestLimit)
	if err != nil {
		return nil, internal("failed to get latest posts", err)
	}
	return posts, nil
}

// View returns one post and counts the visit. The increment is a single
// atomic update, so concurrent views never lose a count.
func (s *PostService) View(ctx context.Context, id uint) (*models.Post, error) {
	if err := s.posts.IncrementVisits(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, internal("failed to count visit", err)
	}
	return s.find(ctx, id)
}

// ToggleLike likes the post for the caller, or unlikes it if already liked.
// Toggling twice restores the original state.
func (s *PostService) ToggleLike(ctx context.Context, identity models.Identity, postID uint) (*models.EnrichedPost, error) {
	if _, err := s.posts.ToggleFavourite(ctx, postID, identity.ID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, internal("failed to toggle like", err)
	}
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}
	enriched := post.Enrich(identity.ID)
	return &enriched, nil
}

// Popular ranks every post by visits, then likes.
func (s *PostService) Popular(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.GetAllPosts(ctx)
	if err != nil {
		return nil, internal("failed to get posts", err)
	}
	rankByPopularity(posts)
	return posts, nil
}

// Recommend samples up to five distinct posts uniformly at random. Only the
// id list is read in full; the sampled rows are fetched afterwards.
func (s *PostService) Recommend(ctx context.Context) ([]models.Post, error) {
	ids, err := s.posts.ListPostIDs(ctx)
	if err != nil {
		return nil, internal("failed to list posts", err)
	}

	s.mu.Lock()
	sampled := sampleIDs(ids, recommendationLimit, s.rng)
	s.mu.Unlock()

	posts, err := s.posts.GetPostsByIDs(ctx, sampled)
	if err != nil {
		return nil, internal("failed to get posts", err)
	}
	return orderByIDs(posts, sampled), nil
}

// Search returns posts whose name, location or description contains keyword,
// newest first, or ErrNoPostsFound when nothing matches.
func (s *PostService) Search(ctx context.Context, keyword string) ([]models.Post, error) {
	posts, err := s.posts.SearchPosts(ctx, repositories.PostFilter{Keyword: keyword})
	if err != nil {
		return nil, internal("failed to search posts", err)
	}
	if len(posts) == 0 {
		return nil, ErrNoPostsFound
	}
	return posts, nil
}

// Mine lists the caller's own posts, newest first. With a keyword it behaves
// like Search restricted to the caller.
func (s *PostService) Mine(ctx context.Context, identity models.Identity, keyword string) ([]models.Post, error) {
	posts, err := s.posts.SearchPosts(ctx, repositories.PostFilter{Keyword: keyword, UserID: &identity.ID})
	if err != nil {
		return nil, internal("failed to get posts", err)
	}
	if keyword != "" && len(posts) == 0 {
		return nil, ErrNoPostsFound
	}
	return posts, nil
}

// Update applies a partial edit. A replaced image is deleted best effort.
func (s *PostService) Update(ctx context.Context, identity models.Identity, postID uint, req models.UpdatePostRequest) (*models.Post, error) {
	post, err := s.find(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanModify(identity, post) {
		return nil, ErrNotPostOwner
	}

	if req.Name != nil {
		post.Name = *req.Name
	}
	if req.Location != nil {
		post.Location = *req.Location
	}
	if req.Description != nil {
		post.Description = *req.Description
	}

	staleRef := ""
	if req.Image != nil {
		obj, err := uploadDataURI(ctx, s.images, *req.Image)
		if err != nil {
			return nil, err
		}
		staleRef = post.ImageRef
		post.Image = obj.URL
		post.ImageRef = obj.Ref
	}
	post.UpdatedAt = time.Now()

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, internal("failed to update post", err)
	}

	deleteBlob(ctx, s.images, staleRef)
	return post, nil
}

// Delete removes a post and then, best effort, its image.
func (s *PostService) Delete(ctx context.Context, identity models.Identity, postID uint) error {
	post, err := s.find(ctx, postID)
	if err != nil {
		return err
	}
	if !s.policy.CanModify(identity, post) {
		return ErrNotPostOwner
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return ErrPostNotFound
		}
		return internal("failed to delete post", err)
	}

	deleteBlob(ctx, s.images, post.ImageRef)
	return nil
}

func (s *PostService) find(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, internal("failed to get post", err)
	}
	return post, nil
}
