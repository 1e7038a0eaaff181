package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/shops_api/internal/apperr"
)

type Bridge struct {
	Provider  Provider
	Exchanger Exchanger
}

func NewBridge(p Provider, x Exchanger) *Bridge {
	return &Bridge{Provider: p, Exchanger: x}
}

func (b *Bridge) CreateIdentity(ctx context.Context, n NewIdentity) (string, error) {
	uid, err := b.Provider.CreateIdentity(ctx, n)
	if err != nil {
		return "", upstream("create identity", err)
	}
	return uid, nil
}

func (b *Bridge) DeleteIdentity(ctx context.Context, uid string) error {
	if err := b.Provider.DeleteIdentity(ctx, uid); err != nil {
		return upstream("delete identity", err)
	}
	return nil
}

// CreateAssertion asks the provider for a custom token scoped to uid and
// carrying the shop id claim.
func (b *Bridge) CreateAssertion(ctx context.Context, uid string, shopID uint) (string, error) {
	tok, err := b.Provider.CustomToken(ctx, uid, shopID)
	if err != nil {
		return "", upstream("create assertion", err)
	}
	return tok, nil
}

// Exchange trades the assertion for an ID token at the token endpoint.
func (b *Bridge) Exchange(ctx context.Context, assertion string) (string, error) {
	res, err := b.Exchanger.Exchange(ctx, assertion)
	if err != nil {
		return "", upstream("exchange token", err)
	}
	if res.IDToken == "" {
		return "", fmt.Errorf("%w: exchange token: empty idToken", apperr.ErrUpstream)
	}
	return res.IDToken, nil
}

// Verify checks a bearer ID token. Every failure is reported as
// apperr.ErrUnauthorized.
func (b *Bridge) Verify(ctx context.Context, idToken string) (*Token, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty token", apperr.ErrUnauthorized)
	}
	tok, err := b.Provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	if tok == nil || tok.UID == "" {
		return nil, fmt.Errorf("%w: token has no subject", apperr.ErrUnauthorized)
	}
	return tok, nil
}

// upstream keeps conflict and not-found answers from the provider and turns
// everything else into apperr.ErrUpstream.
func upstream(op string, err error) error {
	if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrUpstream) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", apperr.ErrUpstream, op, err)
}
