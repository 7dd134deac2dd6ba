package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/pinpost/backend/internal/models"
	"github.com/anonto42/pinpost/backend/internal/repositories"
	"github.com/anonto42/pinpost/backend/pkg/blob"
	"github.com/anonto42/pinpost/backend/pkg/config"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pngDataURI = "data:image/png;base64,iVBORw0KGgo="

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), config.GormConfig())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repositories.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// serializeWrites pins the pool to one connection. Shared-cache sqlite
// answers "table is locked" to concurrent writers instead of waiting.
func serializeWrites(t *testing.T, env *testEnv) {
	t.Helper()
	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
}

// fakeStore is an in-memory blob.Store.
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]string
	deleted   []string
	uploadErr error
	next      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]string{}}
}

func (s *fakeStore) Upload(_ context.Context, _ []byte, contentType string) (blob.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return blob.Object{}, s.uploadErr
	}
	s.next++
	ref := fmt.Sprintf("img-%d", s.next)
	s.objects[ref] = contentType
	return blob.Object{URL: "https://cdn.test/" + ref, Ref: ref}, nil
}

func (s *fakeStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[ref]; !ok {
		return blob.ErrBlobNotFound
	}
	delete(s.objects, ref)
	s.deleted = append(s.deleted, ref)
	return nil
}

func (s *fakeStore) has(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[ref]
	return ok
}

// fakeVerifier accepts tokens listed in identities.
type fakeVerifier struct {
	identities map[string]*FederatedIdentity
}

func (v *fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*FederatedIdentity, error) {
	if fed, ok := v.identities[idToken]; ok {
		return fed, nil
	}
	return nil, errors.New("token rejected")
}

type testEnv struct {
	db     *gorm.DB
	store  *fakeStore
	tokens *TokenService
	auth   *AuthService
	posts  *PostService
}

func newTestEnv(t *testing.T, policy OwnershipPolicy) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	store := newFakeStore()
	tokens := NewTokenService("test-secret", 0)
	return &testEnv{
		db:     db,
		store:  store,
		tokens: tokens,
		auth:   NewAuthService(repositories.NewPostgresUserRepository(db), tokens, store, bcrypt.MinCost),
		posts:  NewPostService(repositories.NewPostgresPostRepository(db), store, policy, rand.New(rand.NewPCG(1, 2))),
	}
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.Identity {
	t.Helper()
	u := models.User{Name: strings.Split(email, "@")[0], Email: email, Password: "hash"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return models.Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}

var seedBase = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// seedPost inserts a post created n minutes after seedBase.
func seedPost(t *testing.T, db *gorm.DB, owner models.Identity, name string, n int) *models.Post {
	t.Helper()
	p := models.Post{
		Name:        name,
		Location:    name + " town",
		Description: "about " + name,
		Image:       "https://cdn.test/" + name,
		ImageRef:    "seed-" + name,
		UserID:      owner.ID,
		CreatedAt:   seedBase.Add(time.Duration(n) * time.Minute),
	}
	if err := db.Omit(clause.Associations).Create(&p).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return &p
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
