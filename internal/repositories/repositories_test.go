package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anonto42/pinpost/backend/internal/models"
	"github.com/anonto42/pinpost/backend/pkg/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), config.GormConfig())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, repo *PostgresUserRepository, email string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Password: "hash"}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createPost(t *testing.T, repo *PostgresPostRepository, owner uint, name string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Name: name, Location: "loc", Description: "desc", Image: "img", UserID: owner, CreatedAt: at}
	if err := repo.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresUserRepository(db)
	createUser(t, repo, "ada@example.com")

	err := repo.CreateUser(context.Background(), &models.User{Name: "x", Email: "ada@example.com", Password: "h"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail got %v", err)
	}
}

func TestUserRepositoryLookups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()
	u := createUser(t, repo, "ada@example.com")

	got, err := repo.GetUserByEmail(ctx, "ada@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("by email: %v %+v", err, got)
	}
	if _, err := repo.GetUserByEmail(ctx, "ADA@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected exact-match lookup, got %v", err)
	}
	if _, err := repo.GetUserByID(ctx, u.ID+100); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound got %v", err)
	}

	u.Name = "Ada"
	if err := repo.UpdateUser(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetUserByID(ctx, u.ID)
	if got.Name != "Ada" {
		t.Fatalf("name not updated: %q", got.Name)
	}
}

func TestUserRepositoryDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	users := NewPostgresUserRepository(db)
	posts := NewPostgresPostRepository(db)
	ctx := context.Background()
	ada := createUser(t, users, "ada@example.com")
	bob := createUser(t, users, "bob@example.com")
	adaPost := createPost(t, posts, ada.ID, "a", time.Now())
	bobPost := createPost(t, posts, bob.ID, "b", time.Now())
	posts.ToggleFavourite(ctx, adaPost.ID, bob.ID)
	posts.ToggleFavourite(ctx, bobPost.ID, ada.ID)

	if err := users.DeleteUser(ctx, ada.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := posts.GetPostByID(ctx, adaPost.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected owned post removed, got %v", err)
	}
	remaining, err := posts.GetPostByID(ctx, bobPost.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if remaining.Likes() != 0 {
		t.Fatalf("expected ada's favourite removed, got %d", remaining.Likes())
	}
	if err := users.DeleteUser(ctx, ada.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound got %v", err)
	}
}

func TestPostRepositoryOrdering(t *testing.T) {
	db := setupTestDB(t)
	users := NewPostgresUserRepository(db)
	posts := NewPostgresPostRepository(db)
	ctx := context.Background()
	owner := createUser(t, users, "ada@example.com")

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	older := createPost(t, posts, owner.ID, "older", base.Add(time.Hour))
	newer := createPost(t, posts, owner.ID, "newer", base.Add(2*time.Hour))
	oldest := createPost(t, posts, owner.ID, "oldest", base)

	ids, err := posts.ListPostIDs(ctx)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 3 || ids[0] != newer.ID || ids[1] != older.ID || ids[2] != oldest.ID {
		t.Fatalf("expected newest first, got %v", ids)
	}

	all, err := posts.GetAllPosts(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if all[0].ID != older.ID || all[2].ID != oldest.ID {
		t.Fatalf("expected id order, got %d %d %d", all[0].ID, all[1].ID, all[2].ID)
	}

	latest, err := posts.GetLatestPosts(ctx, 2)
	if err != nil || len(latest) != 2 || latest[0].ID != newer.ID {
		t.Fatalf("latest: %v %+v", err, latest)
	}

	byIDs, err := posts.GetPostsByIDs(ctx, []uint{oldest.ID, 999})
	if err != nil || len(byIDs) != 1 || byIDs[0].ID != oldest.ID {
		t.Fatalf("by ids: %v %+v", err, byIDs)
	}
	if empty, err := posts.GetPostsByIDs(ctx, nil); err != nil || len(empty) != 0 {
		t.Fatalf("by no ids: %v %+v", err, empty)
	}
}

func TestPostRepositoryToggleFavourite(t *testing.T) {
	db := setupTestDB(t)
	users := NewPostgresUserRepository(db)
	posts := NewPostgresPostRepository(db)
	ctx := context.Background()
	owner := createUser(t, users, "ada@example.com")
	post := createPost(t, posts, owner.ID, "a", time.Now())

	liked, err := posts.ToggleFavourite(ctx, post.ID, owner.ID)
	if err != nil || !liked {
		t.Fatalf("expected liked, got %v %v", liked, err)
	}
	got, _ := posts.GetPostByID(ctx, post.ID)
	if !got.LikedBy(owner.ID) || got.Likes() != 1 {
		t.Fatalf("favourite not stored")
	}

	liked, err = posts.ToggleFavourite(ctx, post.ID, owner.ID)
	if err != nil || liked {
		t.Fatalf("expected unliked, got %v %v", liked, err)
	}
	got, _ = posts.GetPostByID(ctx, post.ID)
	if got.Likes() != 0 {
		t.Fatalf("favourite not removed")
	}

	if _, err := posts.ToggleFavourite(ctx, 999, owner.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound got %v", err)
	}
}

func TestPostRepositoryIncrementAndDelete(t *testing.T) {
	db := setupTestDB(t)
	users := NewPostgresUserRepository(db)
	posts := NewPostgresPostRepository(db)
	ctx := context.Background()
	owner := createUser(t, users, "ada@example.com")
	post := createPost(t, posts, owner.ID, "a", time.Now())

	for i := 0; i < 3; i++ {
		if err := posts.IncrementVisits(ctx, post.ID); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	got, _ := posts.GetPostByID(ctx, post.ID)
	if got.Visited != 3 {
		t.Fatalf("expected 3 visits got %d", got.Visited)
	}
	if err := posts.IncrementVisits(ctx, 999); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound got %v", err)
	}

	if err := posts.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := posts.GetPostByID(ctx, post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound got %v", err)
	}
	if err := posts.DeletePost(ctx, post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound got %v", err)
	}
}

func TestPostRepositorySearchFilters(t *testing.T) {
	db := setupTestDB(t)
	users := NewPostgresUserRepository(db)
	posts := NewPostgresPostRepository(db)
	ctx := context.Background()
	ada := createUser(t, users, "ada@example.com")
	bob := createUser(t, users, "bob@example.com")
	createPost(t, posts, ada.ID, "river walk", time.Now())
	createPost(t, posts, bob.ID, "river bank", time.Now())

	all, err := posts.SearchPosts(ctx, PostFilter{Keyword: "river"})
	if err != nil || len(all) != 2 {
		t.Fatalf("keyword: %v %d", err, len(all))
	}
	mine, err := posts.SearchPosts(ctx, PostFilter{Keyword: "river", UserID: &bob.ID})
	if err != nil || len(mine) != 1 || mine[0].UserID != bob.ID {
		t.Fatalf("keyword+user: %v %+v", err, mine)
	}

	createPost(t, posts, ada.ID, "100% river_side", time.Now())
	cases := map[string]int{
		"%":        1,
		"_":        1,
		"r_ver":    0,
		"riv%":     0,
		`\`:       0,
		"RIVER":    3,
		"0% river": 1,
	}
	for kw, want := range cases {
		got, err := posts.SearchPosts(ctx, PostFilter{Keyword: kw})
		if err != nil || len(got) != want {
			t.Fatalf("keyword %q: expected %d got %d (%v)", kw, want, len(got), err)
		}
	}
}

func TestPostRepositoryConcurrentIncrements(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	users := NewPostgresUserRepository(db)
	posts := NewPostgresPostRepository(db)
	ctx := context.Background()
	owner := createUser(t, users, "ada@example.com")
	post := createPost(t, posts, owner.ID, "a", time.Now())

	const n = 25
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := posts.IncrementVisits(ctx, post.ID); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d increments failed", failures.Load())
	}
	got, err := posts.GetPostByID(ctx, post.ID)
	if err != nil || got.Visited != n {
		t.Fatalf("expected %d visits, got %+v %v", n, got, err)
	}
}
