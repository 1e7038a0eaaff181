// Package identity bridges the shops API to the external identity provider:
// identity records, custom assertions, the custom-token exchange and ID-token
// verification.
package identity

import "context"

// NewIdentity describes the account created at the provider for a shop.
type NewIdentity struct {
	Email       string
	Password    string
	PhoneNumber string
	DisplayName string
}

// Token is a verified ID token.
type Token struct {
	UID    string
	ShopID uint
}

// Provider is the administrative side of the identity service.
type Provider interface {
	CreateIdentity(ctx context.Context, n NewIdentity) (string, error)
	DeleteIdentity(ctx context.Context, uid string) error
	CustomToken(ctx context.Context, uid string, shopID uint) (string, error)
	VerifyIDToken(ctx context.Context, idToken string) (*Token, error)
}

// Exchanger trades a custom assertion for a session ID token.
type Exchanger interface {
	Exchange(ctx context.Context, customToken string) (*ExchangeResponse, error)
}

const shopIDClaim = "shop_id"

func shopIDFromClaims(claims map[string]any) uint {
	switch v := claims[shopIDClaim].(type) {
	case float64:
		if v > 0 {
			return uint(v)
		}
	case int:
		if v > 0 {
			return uint(v)
		}
	case uint:
		return v
	}
	return 0
}
