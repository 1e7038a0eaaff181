package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/shops_api/internal/apperr"
	"github.com/Skotchmaster/shops_api/internal/hash"
	"github.com/Skotchmaster/shops_api/internal/identity"
	"github.com/Skotchmaster/shops_api/internal/logging"
	"github.com/Skotchmaster/shops_api/internal/metrics"
	"github.com/Skotchmaster/shops_api/internal/models"
	"github.com/Skotchmaster/shops_api/internal/repo"
	"github.com/Skotchmaster/shops_api/internal/transport"
	"github.com/Skotchmaster/shops_api/internal/validate"
)

const TokenScheme = "Token"

var ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)

type AuthService struct {
	Repo     *repo.GormRepo
	Identity *identity.Bridge
	Metrics  metrics.Recorder
}

// Login checks the shop's password and trades a custom assertion for an ID
// token. The returned value is ready for the Authorization header.
func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (string, error) {
	email := strings.TrimSpace(req.Email)
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	if err := validate.Struct(req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid request", "error", err)
		return "", err
	}

	shop, err := s.Repo.GetShopByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			s.Metrics.RecordLogin(metrics.LoginFailure)
			return "", ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return "", err
	}

	if !hash.CheckPassword(shop.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "password mismatch")
		s.Metrics.RecordLogin(metrics.LoginFailure)
		return "", ErrInvalidCredentials
	}
	if shop.IdentityUID == nil || *shop.IdentityUID == "" {
		l.Warn("login_failed", "status", 401, "reason", "shop has no identity", "shop_id", shop.ID)
		s.Metrics.RecordLogin(metrics.LoginFailure)
		return "", ErrInvalidCredentials
	}

	assertion, err := s.Identity.CreateAssertion(ctx, *shop.IdentityUID, shop.ID)
	if err != nil {
		l.Error("login_failed", "status", 502, "reason", "cannot create assertion", "error", err)
		return "", err
	}
	idToken, err := s.Identity.Exchange(ctx, assertion)
	if err != nil {
		l.Error("login_failed", "status", 502, "reason", "token exchange failed", "error", err)
		return "", err
	}

	s.Metrics.RecordLogin(metrics.LoginSuccess)
	l.Info("login_successful", "shop_id", shop.ID)
	return TokenScheme + " " + idToken, nil
}

// Authenticate verifies a bearer ID token and resolves the shop that owns it.
func (s *AuthService) Authenticate(ctx context.Context, idToken string) (*models.Shop, error) {
	l := logging.FromContext(ctx).With("svc", "auth.authenticate")

	tok, err := s.Identity.Verify(ctx, idToken)
	if err != nil {
		l.Warn("auth_failed", "status", 401, "reason", "token rejected", "error", err)
		return nil, err
	}

	shop, err := s.Repo.GetShopByIdentity(ctx, tok.UID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			l.Warn("auth_failed", "status", 401, "reason", "no shop for identity", "identity_uid", tok.UID)
			return nil, fmt.Errorf("%w: no shop for token", apperr.ErrUnauthorized)
		}
		return nil, err
	}
	if tok.ShopID != 0 && tok.ShopID != shop.ID {
		l.Warn("auth_failed", "status", 401, "reason", "shop claim mismatch", "claim", tok.ShopID, "shop_id", shop.ID)
		return nil, fmt.Errorf("%w: shop claim mismatch", apperr.ErrUnauthorized)
	}
	return shop, nil
}
