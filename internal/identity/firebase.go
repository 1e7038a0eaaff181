package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/Skotchmaster/shops_api/internal/apperr"
)

type firebaseAuth interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	CustomTokenWithClaims(ctx context.Context, uid string, devClaims map[string]interface{}) (string, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseProvider delegates identity administration and token handling to
// Firebase Authentication.
type FirebaseProvider struct {
	client firebaseAuth
}

func NewFirebaseProvider(ctx context.Context, credentialsFile, projectID string) (*FirebaseProvider, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) CreateIdentity(ctx context.Context, n NewIdentity) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(n.Email).
		EmailVerified(false).
		Password(n.Password).
		DisplayName(n.DisplayName).
		Disabled(false)
	if n.PhoneNumber != "" {
		params = params.PhoneNumber(n.PhoneNumber)
	}

	user, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) || auth.IsPhoneNumberAlreadyExists(err) {
			return "", fmt.Errorf("%w: identity already registered", apperr.ErrConflict)
		}
		return "", err
	}
	return user.UID, nil
}

func (p *FirebaseProvider) DeleteIdentity(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return fmt.Errorf("%w: identity %s", apperr.ErrNotFound, uid)
		}
		return err
	}
	return nil
}

func (p *FirebaseProvider) CustomToken(ctx context.Context, uid string, shopID uint) (string, error) {
	return p.client.CustomTokenWithClaims(ctx, uid, map[string]interface{}{shopIDClaim: shopID})
}

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	tok, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	return &Token{UID: tok.UID, ShopID: shopIDFromClaims(tok.Claims)}, nil
}
