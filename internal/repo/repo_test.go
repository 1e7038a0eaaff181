package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shops_api/internal/apperr"
	"github.com/Skotchmaster/shops_api/internal/db"
	"github.com/Skotchmaster/shops_api/internal/models"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(gdb))
	return gdb
}

func strPtr(s string) *string { return &s }

func seedShop(t *testing.T, r *GormRepo, name, email string) *models.Shop {
	t.Helper()
	shop := &models.Shop{Name: name, Email: email, PasswordHash: "hash", IdentityUID: strPtr("uid-" + name)}
	require.NoError(t, r.CreateShop(context.Background(), shop))
	return shop
}

func seedCategories(t *testing.T, r *GormRepo, titles ...string) []models.Category {
	t.Helper()
	out := make([]models.Category, 0, len(titles))
	for _, title := range titles {
		c := models.Category{Title: title}
		require.NoError(t, r.CreateCategory(context.Background(), &c))
		out = append(out, c)
	}
	return out
}

func TestShop_CreateAndGet(t *testing.T) {
	r := &GormRepo{DB: InitTestDB(t)}
	ctx := context.Background()

	shop := &models.Shop{
		Name:         "corner",
		Email:        "corner@shop.test",
		Address:      strPtr("1 Main St"),
		PhoneNumber:  strPtr("+447400123456"),
		IdentityUID:  strPtr("uid-1"),
		PasswordHash: "hash",
	}
	require.NoError(t, r.CreateShop(ctx, shop))
	require.NotZero(t, shop.ID)

	got, err := r.GetShop(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, shop.Serialize().Name, got.Serialize().Name)
	assert.Equal(t, "1 Main St", *got.Address)
	assert.Equal(t, "+447400123456", *got.PhoneNumber)

	byEmail, err := r.GetShopByEmail(ctx, "corner@shop.test")
	require.NoError(t, err)
	assert.Equal(t, shop.ID, byEmail.ID)

	byUID, err := r.GetShopByIdentity(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, shop.ID, byUID.ID)

	shops, err := r.ListShops(ctx)
	require.NoError(t, err)
	assert.Len(t, shops, 1)
}

func TestShop_Conflict(t *testing.T) {
	r := &GormRepo{DB: InitTestDB(t)}
	ctx := context.Background()
	seedShop(t, r, "corner", "corner@shop.test")

	dup := &models.Shop{Name: "another", Email: "corner@shop.test", PasswordHash: "hash"}
	err := r.CreateShop(ctx, dup)
	require.ErrorIs(t, err, apperr.ErrConflict)

	shops, err := r.ListShops(ctx)
	require.NoError(t, err)
	assert.Len(t, shops, 1)
}

func TestShop_EmailKeptAsSuppliedButUniqueIgnoringCase(t *testing.T) {
	r := &GormRepo{DB: InitTestDB(t)}
	ctx := context.Background()
	shop := seedShop(t, r, "corner", "Owner@Corner.test")

	got, err := r.GetShopByEmail(ctx, "owner@corner.TEST")
	require.NoError(t, err)
	assert.Equal(t, shop.ID, got.ID)
	assert.Equal(t, "Owner@Corner.test", got.Email)

	err = r.CreateShop(ctx, &models.Shop{Name: "another", Email: "owner@corner.test", PasswordHash: "hash"})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestShop_NotFound(t *testing.T) {
	r := &GormRepo{DB: InitTestDB(t)}
	ctx := context.Background()

	_, err := r.GetShop(ctx, 42)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = r.GetShopByEmail(ctx, "nobody@shop.test")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProduct_CreateWithCategories(t *testing.T) {
	r := &GormRepo{DB: InitTestDB(t)}
	ctx := context.Background()
	shop := seedShop(t, r, "corner", "corner@shop.test")
	cats := seedCategories(t, r, "kitchen", "gifts", "garden")

	prod := &models.Product{Name: "mug", Price: decimal.RequireFromString("9.99"), ShopID: shop.ID}
	linked, err := r.CreateProduct(ctx, prod, []uint{cats[2].ID, cats[0].ID})
	require.NoError(t, err)
	require.NotZero(t, prod.ID)
	assert.Len(t, linked, 2)

	got, categories, err := r.GetProduct(ctx, prod.ID)
	require.NoError(t, err)
	assert.Equal(t, "mug", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.99")))
	assert.ElementsMatch(t, []string{"kitchen", "garden"}, titles(categories))
}

func TestProduct_UnknownCategoryWritesNothing(t *testing.T) {
	r := &GormRepo{DB: InitTestDB(t)}
	ctx := context.Background()
	shop := seedShop(t, r, "corner", "corner@shop.test")
	cats := seedCategories(t, r, "kitchen")

	prod := &models.Product{Name: "mug", Price: decimal.NewFromInt(3), ShopID: shop.ID}
	_, err := r.CreateProduct(ctx, prod, []uint{cats[0].ID, 999})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.Error(), "999")
	assert.Zero(t, prod.ID)

	products, _, err := r.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProduct_UnknownShop(t *testing.T) {
	r := &GormRepo{DB: InitTestDB(t)}

	prod := &models.Product{Name: "mug", Price: decimal.NewFromInt(3), ShopID: 77}
	_, err := r.CreateProduct(context.Background(), prod, nil)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestProduct_LinkFailureRollsBackProduct(t *testing.T) {
	gdb := InitTestDB(t)
	r := &GormRepo{DB: gdb}
	ctx := context.Background()
	shop := seedShop(t, r, "corner", "corner@shop.test")
	cats := seedCategories(t, r, "kitchen")

	require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register("test:fail_links", func(tx *gorm.DB) {
		if tx.Statement.Table == "product_categories" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	prod := &models.Product{Name: "mug", Price: decimal.NewFromInt(3), ShopID: shop.ID}
	_, err := r.CreateProduct(ctx, prod, []uint{cats[0].ID})
	require.ErrorIs(t, err, apperr.ErrPersistence)

	var count int64
	require.NoError(t, gdb.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, gdb.Model(&models.ProductCategory{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProduct_DuplicateLinkRejectedByIndex(t *testing.T) {
	r := &GormRepo{DB: InitTestDB(t)}
	ctx := context.Background()
	shop := seedShop(t, r, "corner", "corner@shop.test")
	cats := seedCategories(t, r, "kitchen")

	prod := &models.Product{Name: "mug", Price: decimal.NewFromInt(3), ShopID: shop.ID}
	_, err := r.CreateProduct(ctx, prod, []uint{cats[0].ID, cats[0].ID})
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestProduct_ListResolvesCategoriesPerProduct(t *testing.T) {
	r := &GormRepo{DB: InitTestDB(t)}
	ctx := context.Background()
	shop := seedShop(t, r, "corner", "corner@shop.test")
	cats := seedCategories(t, r, "kitchen", "gifts")

	mug := &models.Product{Name: "mug", Price: decimal.NewFromInt(3), ShopID: shop.ID}
	_, err := r.CreateProduct(ctx, mug, []uint{cats[0].ID, cats[1].ID})
	require.NoError(t, err)
	card := &models.Product{Name: "card", Price: decimal.NewFromInt(1), ShopID: shop.ID}
	_, err = r.CreateProduct(ctx, card, []uint{cats[1].ID})
	require.NoError(t, err)
	bare := &models.Product{Name: "bag", Price: decimal.Zero, ShopID: shop.ID}
	_, err = r.CreateProduct(ctx, bare, nil)
	require.NoError(t, err)

	products, byProduct, err := r.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.ElementsMatch(t, []string{"kitchen", "gifts"}, titles(byProduct[mug.ID]))
	assert.Equal(t, []string{"gifts"}, titles(byProduct[card.ID]))
	assert.Empty(t, byProduct[bare.ID])
}

func TestProduct_GetNotFound(t *testing.T) {
	r := &GormRepo{DB: InitTestDB(t)}
	_, _, err := r.GetProduct(context.Background(), 5)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateShop_DriverFailureIsPersistenceError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{})
	require.NoError(t, err)
	r := &GormRepo{DB: gormDB}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "shops"`).WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	err = r.CreateShop(context.Background(), &models.Shop{Name: "corner", Email: "corner@shop.test", PasswordHash: "hash"})
	require.ErrorIs(t, err, apperr.ErrPersistence)
	assert.NotErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func titles(categories []models.Category) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.Title)
	}
	return out
}
