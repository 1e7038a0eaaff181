package migrations

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Versions(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	versions := []uint{first}
	for v := first; ; {
		next, err := src.Next(v)
		if err != nil {
			assert.ErrorIs(t, err, os.ErrNotExist)
			break
		}
		versions = append(versions, next)
		v = next
	}
	assert.Equal(t, []uint{1, 2, 3}, versions)

	for _, v := range versions {
		up, _, err := src.ReadUp(v)
		require.NoError(t, err)
		_ = up.Close()
		down, _, err := src.ReadDown(v)
		require.NoError(t, err)
		_ = down.Close()
	}
}

func TestInitMigration_CreatesStoreTables(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	r, _, err := src.ReadUp(1)
	require.NoError(t, err)
	defer r.Close()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)

	sql := string(raw)
	for _, table := range []string{"shops", "categories", "products", "product_categories"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, sql, "idx_product_category ON product_categories (product_id, category_id)")
	assert.Contains(t, sql, "NUMERIC(12, 2)")
}

func TestShopEmailMigration_IndexesLowerEmail(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	r, _, err := src.ReadUp(3)
	require.NoError(t, err)
	defer r.Close()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ON shops (lower(email))")
}
