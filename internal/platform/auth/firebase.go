package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/osegonte/p9-commerce/internal/platform/config"
)

const defaultCallTimeout = 10 * time.Second

// TokenVerifier abstracts the Firebase Admin SDK for testability.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// LinkSender issues a magic sign-in link for the given email.
type LinkSender interface {
	EmailSignInLink(ctx context.Context, email string) (string, error)
}

// FirebaseClient coordinates Firebase Admin SDK initialisation for magic-link
// sign-in and token verification.
type FirebaseClient struct {
	client      *firebaseauth.Client
	callbackURL string
	timeout     time.Duration
}

// FirebaseOption customises FirebaseClient instances.
type FirebaseOption func(*FirebaseClient)

// WithCallTimeout overrides the timeout used for Admin SDK calls.
func WithCallTimeout(d time.Duration) FirebaseOption {
	return func(c *FirebaseClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewFirebaseClient constructs a FirebaseClient backed by the Admin SDK.
// callbackURL is the absolute URL of the sign-in completion endpoint the magic
// link redirects back to.
func NewFirebaseClient(ctx context.Context, cfg config.FirebaseConfig, callbackURL string, opts ...FirebaseOption) (*FirebaseClient, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project id is required")
	}
	callbackURL = strings.TrimSpace(callbackURL)
	if callbackURL == "" {
		return nil, errors.New("firebase callback url is required")
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase auth client: %w", err)
	}

	client := &FirebaseClient{
		client:      authClient,
		callbackURL: callbackURL,
		timeout:     defaultCallTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// VerifyIDToken forwards verification to the underlying Firebase client using
// a bounded context.
func (c *FirebaseClient) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("firebase client not initialised")
	}

	ctx, cancel := c.contextWithTimeout(ctx)
	if cancel != nil {
		defer cancel()
	}
	return c.client.VerifyIDToken(ctx, idToken)
}

// EmailSignInLink generates a magic sign-in link for the email. Firebase
// delivers the mail; the returned link is surfaced for logging in development.
func (c *FirebaseClient) EmailSignInLink(ctx context.Context, email string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("firebase client not initialised")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("email is required")
	}

	ctx, cancel := c.contextWithTimeout(ctx)
	if cancel != nil {
		defer cancel()
	}

	settings := &firebaseauth.ActionCodeSettings{
		URL:             c.callbackURL,
		HandleCodeInApp: true,
	}
	link, err := c.client.EmailSignInLink(ctx, email, settings)
	if err != nil {
		return "", fmt.Errorf("generate sign-in link: %w", err)
	}
	return link, nil
}

func (c *FirebaseClient) contextWithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c == nil || c.timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, c.timeout)
}

// EmailFromToken extracts the lower-cased email claim from a verified token.
func EmailFromToken(token *firebaseauth.Token) string {
	if token == nil {
		return ""
	}
	email, _ := token.Claims["email"].(string)
	return strings.ToLower(strings.TrimSpace(email))
}
