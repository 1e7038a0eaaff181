package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shops_api/internal/apperr"
	"github.com/Skotchmaster/shops_api/internal/hash"
	"github.com/Skotchmaster/shops_api/internal/logging"
)

const (
	localIssuer       = "shops-api-local-identity"
	localExchangeAud  = "local-identity-exchange"
	assertionLifetime = time.Hour
	idTokenLifetime   = time.Hour
)

// Identity is the credential record kept by LocalProvider.
type Identity struct {
	UID          string  `gorm:"primaryKey;size:64"`
	Email        string  `gorm:"size:120;uniqueIndex;not null"`
	PhoneNumber  *string `gorm:"size:120;uniqueIndex"`
	DisplayName  string  `gorm:"size:80"`
	PasswordHash string  `gorm:"size:255;not null"`
	Disabled     bool    `gorm:"default:false"`
	CreatedAt    time.Time
}

type AssertionClaims struct {
	UID    string `json:"uid"`
	ShopID uint   `json:"shop_id,omitempty"`
	jwt.RegisteredClaims
}

type IDTokenClaims struct {
	ShopID uint `json:"shop_id,omitempty"`
	jwt.RegisteredClaims
}

// LocalProvider is an in-process identity service for development and tests.
// It mirrors the provider contract: records live in the relational store,
// custom assertions and ID tokens are HS256 JWTs signed with separate secrets.
type LocalProvider struct {
	DB              *gorm.DB
	AssertionSecret []byte
	IDTokenSecret   []byte
	Now             func() time.Time
}

func NewLocalProvider(db *gorm.DB, assertionSecret, idTokenSecret []byte) *LocalProvider {
	return &LocalProvider{
		DB:              db,
		AssertionSecret: assertionSecret,
		IDTokenSecret:   idTokenSecret,
		Now:             time.Now,
	}
}

func (p *LocalProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *LocalProvider) CreateIdentity(ctx context.Context, n NewIdentity) (string, error) {
	pwHash, err := hash.HashPassword(n.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	rec := Identity{
		UID:          uuid.NewString(),
		Email:        n.Email,
		DisplayName:  n.DisplayName,
		PasswordHash: pwHash,
	}
	if n.PhoneNumber != "" {
		rec.PhoneNumber = &n.PhoneNumber
	}

	if err := p.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return "", fmt.Errorf("%w: identity already registered", apperr.ErrConflict)
		}
		return "", err
	}
	return rec.UID, nil
}

func (p *LocalProvider) DeleteIdentity(ctx context.Context, uid string) error {
	res := p.DB.WithContext(ctx).Where("uid = ?", uid).Delete(&Identity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: identity %s", apperr.ErrNotFound, uid)
	}
	return nil
}

func (p *LocalProvider) CustomToken(ctx context.Context, uid string, shopID uint) (string, error) {
	now := p.now()
	claims := AssertionClaims{
		UID:    uid,
		ShopID: shopID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    localIssuer,
			Subject:   uid,
			Audience:  jwt.ClaimStrings{localExchangeAud},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(assertionLifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.AssertionSecret)
}

func (p *LocalProvider) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	var claims IDTokenClaims
	tkn, err := jwt.ParseWithClaims(idToken, &claims, p.keyFunc(p.IDTokenSecret),
		jwt.WithIssuer(localIssuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	// custom assertions are only good for the exchange endpoint
	if slices.Contains(claims.Audience, localExchangeAud) {
		return nil, fmt.Errorf("%w: assertion used as ID token", apperr.ErrUnauthorized)
	}
	return &Token{UID: claims.Subject, ShopID: claims.ShopID}, nil
}

// SignIn verifies a custom assertion and issues an ID token for the identity
// it names.
func (p *LocalProvider) SignIn(ctx context.Context, assertion string) (*ExchangeResponse, error) {
	var claims AssertionClaims
	tkn, err := jwt.ParseWithClaims(assertion, &claims, p.keyFunc(p.AssertionSecret),
		jwt.WithAudience(localExchangeAud),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: INVALID_CUSTOM_TOKEN", apperr.ErrUnauthorized)
	}

	var rec Identity
	if err := p.DB.WithContext(ctx).Where("uid = ?", claims.UID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: USER_NOT_FOUND", apperr.ErrUnauthorized)
		}
		return nil, err
	}
	if rec.Disabled {
		return nil, fmt.Errorf("%w: USER_DISABLED", apperr.ErrUnauthorized)
	}

	now := p.now()
	idClaims := IDTokenClaims{
		ShopID: claims.ShopID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    localIssuer,
			Subject:   rec.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(idTokenLifetime)),
		},
	}
	idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, idClaims).SignedString(p.IDTokenSecret)
	if err != nil {
		return nil, err
	}

	return &ExchangeResponse{
		IDToken:   idToken,
		ExpiresIn: strconv.Itoa(int(idTokenLifetime.Seconds())),
		LocalID:   rec.UID,
	}, nil
}

func (p *LocalProvider) keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	}
}

// ExchangeHandler serves the custom-token exchange in the provider's wire format.
func (p *LocalProvider) ExchangeHandler(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "identity.exchange")

	var req ExchangeRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		l.Warn("exchange_failed", "status", 400, "reason", "invalid body")
		return c.JSON(http.StatusBadRequest, exchangeErrorBody(http.StatusBadRequest, "MISSING_CUSTOM_TOKEN"))
	}

	res, err := p.SignIn(ctx, req.Token)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			l.Warn("exchange_failed", "status", 400, "reason", "rejected assertion", "error", err)
			return c.JSON(http.StatusBadRequest, exchangeErrorBody(http.StatusBadRequest, "INVALID_CUSTOM_TOKEN"))
		}
		l.Error("exchange_failed", "status", 500, "reason", "cannot sign in", "error", err)
		return c.JSON(http.StatusInternalServerError, exchangeErrorBody(http.StatusInternalServerError, "INTERNAL_ERROR"))
	}

	l.Info("exchange_success")
	return c.JSON(http.StatusOK, res)
}

func exchangeErrorBody(code int, msg string) exchangeError {
	var e exchangeError
	e.Error.Code = code
	e.Error.Message = msg
	return e
}
