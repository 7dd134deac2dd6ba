package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/anonto42/pinpost/backend/internal/models"
	"github.com/anonto42/pinpost/backend/internal/repositories"
	"github.com/anonto42/pinpost/backend/pkg/blob"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// FederatedIdentity is what an external identity provider vouches for.
type FederatedIdentity struct {
	UID   string
	Email string
	Name  string
}

// IdentityVerifier validates an external ID token (Firebase).
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*FederatedIdentity, error)
}

// AuthService handles registration, login, logout and profile edits.
type AuthService struct {
	users      repositories.UserRepository
	tokens     *TokenService
	images     blob.Store
	bcryptCost int
	federated  IdentityVerifier
}

// NewAuthService creates an AuthService. bcryptCost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func NewAuthService(users repositories.UserRepository, tokens *TokenService, images blob.Store, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, tokens: tokens, images: images, bcryptCost: bcryptCost}
}

// WithIdentityVerifier enables federated login.
func (s *AuthService) WithIdentityVerifier(v IdentityVerifier) *AuthService {
	s.federated = v
	return s
}

// Tokens exposes the token service used for issuing session tokens.
func (s *AuthService) Tokens() *TokenService { return s.tokens }

// Register creates a user. The email must not be taken; the password is
// stored only as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, internal("failed to look up user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, internal("failed to hash password", err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hash),
	}

	if req.ProfilePicture != "" {
		obj, err := uploadDataURI(ctx, s.images, req.ProfilePicture)
		if err != nil {
			return nil, err
		}
		user.ProfilePicture = &obj.URL
		user.ProfilePictureRef = &obj.Ref
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, internal("failed to create user", err)
	}
	return user, nil
}

// Login checks the credentials and issues a session token. Unknown email and
// wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, internal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Logout verifies the presented token. Tokens are stateless, so there is
// nothing to revoke; the caller only discards the cookie.
func (s *AuthService) Logout(token string) error {
	_, err := s.tokens.Verify(token)
	return err
}

// FirebaseLogin exchanges a Firebase ID token for a local session token,
// creating the user on first sight.
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string) (*models.LoginResult, error) {
	if s.federated == nil {
		return nil, ErrFederatedDisabled
	}

	fed, err := s.federated.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, newError(KindUnauthenticated, "Invalid Firebase ID token", err)
	}
	if fed.Email == "" {
		return nil, newError(KindValidation, "Firebase account has no email", nil)
	}

	user, err := s.users.GetUserByEmail(ctx, fed.Email)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrUserNotFound):
		user, err = s.createFederatedUser(ctx, fed)
		if err != nil {
			return nil, err
		}
	default:
		return nil, internal("failed to look up user", err)
	}

	return s.issue(user)
}

func (s *AuthService) createFederatedUser(ctx context.Context, fed *FederatedIdentity) (*models.User, error) {
	// Federated users sign in through the provider only; their local password
	// is random and never disclosed.
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, internal("failed to generate password", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.RawStdEncoding.EncodeToString(secret)), s.bcryptCost)
	if err != nil {
		return nil, internal("failed to hash password", err)
	}

	name := fed.Name
	if name == "" {
		name = fed.Email
	}
	user := &models.User{Name: name, Email: fed.Email, Password: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return s.users.GetUserByEmail(ctx, fed.Email)
		}
		return nil, internal("failed to create user", err)
	}
	return user, nil
}

// UpdateProfile applies a partial edit to the caller's own record. A new
// profile picture replaces the previous blob, which is deleted best effort.
// The caller's existing token keeps its old claims until the next login.
func (s *AuthService) UpdateProfile(ctx context.Context, identity models.Identity, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal("failed to look up user", err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}

	var staleRef *string
	if req.ProfilePicture != nil {
		obj, err := uploadDataURI(ctx, s.images, *req.ProfilePicture)
		if err != nil {
			return nil, err
		}
		staleRef = user.ProfilePictureRef
		user.ProfilePicture = &obj.URL
		user.ProfilePictureRef = &obj.Ref
	}
	user.UpdatedAt = time.Now()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal("failed to update user", err)
	}

	if staleRef != nil {
		deleteBlob(ctx, s.images, *staleRef)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*models.LoginResult, error) {
	identity := models.Identity{ID: user.ID, Name: user.Name, Email: user.Email}
	token, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, internal("failed to generate token", err)
	}
	return &models.LoginResult{Identity: identity, Token: token}, nil
}

// uploadDataURI decodes a data URI and stores it. Upload failures are internal.
func uploadDataURI(ctx context.Context, images blob.Store, uri string) (blob.Object, error) {
	data, contentType, err := blob.DecodeDataURI(uri)
	if err != nil {
		return blob.Object{}, newError(KindValidation, "image must be a base64 data URI", err)
	}
	obj, err := images.Upload(ctx, data, contentType)
	if err != nil {
		return blob.Object{}, internal("failed to upload image", err)
	}
	return obj, nil
}

// deleteBlob removes a replaced image; failure only leaves an orphan behind.
func deleteBlob(ctx context.Context, images blob.Store, ref string) {
	if ref == "" {
		return
	}
	if err := images.Delete(ctx, ref); err != nil {
		log.Warn().Err(err).Str("ref", ref).Msg("Failed to delete replaced image")
	}
}
