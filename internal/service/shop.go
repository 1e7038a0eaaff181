package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Skotchmaster/shops_api/internal/events"
	"github.com/Skotchmaster/shops_api/internal/hash"
	"github.com/Skotchmaster/shops_api/internal/identity"
	"github.com/Skotchmaster/shops_api/internal/logging"
	"github.com/Skotchmaster/shops_api/internal/metrics"
	"github.com/Skotchmaster/shops_api/internal/models"
	"github.com/Skotchmaster/shops_api/internal/repo"
	"github.com/Skotchmaster/shops_api/internal/transport"
	"github.com/Skotchmaster/shops_api/internal/validate"
)

type ShopService struct {
	Repo     *repo.GormRepo
	Identity *identity.Bridge
	Events   events.Publisher
	Metrics  metrics.Recorder
}

// Register validates the request, provisions the external identity and stores
// the shop. When the insert fails the identity is removed again.
func (s *ShopService) Register(ctx context.Context, req transport.CreateShopRequest) (*models.Shop, error) {
	l := logging.FromContext(ctx).With("svc", "shop.register", "email", req.Email)

	req.Address = blankToNil(req.Address)
	req.PhoneNumber = blankToNil(req.PhoneNumber)

	if err := validate.Struct(req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid request", "error", err)
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	newIdentity := identity.NewIdentity{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.Name,
	}
	if req.PhoneNumber != nil {
		newIdentity.PhoneNumber = *req.PhoneNumber
	}
	uid, err := s.Identity.CreateIdentity(ctx, newIdentity)
	if err != nil {
		l.Warn("register_error", "reason", "cannot create identity", "error", err)
		return nil, err
	}

	shop := &models.Shop{
		Name:         req.Name,
		Email:        req.Email,
		Address:      req.Address,
		PhoneNumber:  req.PhoneNumber,
		IdentityUID:  &uid,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateShop(ctx, shop); err != nil {
		l.Warn("register_error", "reason", "cannot save shop", "identity_uid", uid, "error", err)
		s.releaseIdentity(ctx, uid, err)
		return nil, err
	}

	s.Metrics.RecordShopRegistered()
	ev := events.New(events.ShopRegistered)
	ev.ShopID = shop.ID
	ev.Payload = shop.Serialize()
	if err := s.Events.Publish(ctx, events.TopicShops, strconv.FormatUint(uint64(shop.ID), 10), ev); err != nil {
		l.Warn("publish_failed", "event", ev.Type, "error", err)
	}

	l.Info("register_success", "shop_id", shop.ID)
	return shop, nil
}

// releaseIdentity is the compensating delete for a shop row that could not be
// stored. A failed delete is reported out of band and never to the caller.
func (s *ShopService) releaseIdentity(ctx context.Context, uid string, cause error) {
	l := logging.FromContext(ctx).With("svc", "shop.register", "identity_uid", uid)

	// the request context may already be cancelled; the cleanup must still run
	cleanupCtx := context.WithoutCancel(ctx)

	err := s.Identity.DeleteIdentity(cleanupCtx, uid)
	if err == nil {
		l.Info("identity_released")
		return
	}

	l.Error("identity_cleanup_failed", "reason", "orphaned identity", "cause", cause, "error", err)
	s.Metrics.RecordIdentityCleanupFailure()

	ev := events.New(events.IdentityCleanupFailed)
	ev.IdentityUID = uid
	ev.Reason = errors.Join(cause, err).Error()
	if perr := s.Events.Publish(cleanupCtx, events.TopicShops, uid, ev); perr != nil {
		l.Error("publish_failed", "event", ev.Type, "error", perr)
	}
}

func (s *ShopService) GetShop(ctx context.Context, id uint) (*models.Shop, error) {
	return s.Repo.GetShop(ctx, id)
}

func (s *ShopService) ListShops(ctx context.Context) ([]models.Shop, error) {
	return s.Repo.ListShops(ctx)
}

// blankToNil drops optional values that carry no characters besides
// whitespace. Anything else is stored as supplied.
func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}
