package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/pinpost/backend/internal/services"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and auth client
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	log.Info().Msg("Firebase app and auth client initialized")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

// Verifier checks Firebase ID tokens for federated login.
type Verifier struct {
	client *auth.Client
}

func NewVerifier(app *App) *Verifier {
	return &Verifier{client: app.AuthClient}
}

// VerifyIDToken validates idToken and extracts the account's email and
// display name from its claims.
func (v *Verifier) VerifyIDToken(ctx context.Context, idToken string) (*services.FederatedIdentity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	fed := &services.FederatedIdentity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		fed.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		fed.Name = name
	}
	return fed, nil
}
