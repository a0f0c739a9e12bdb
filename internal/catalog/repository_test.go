package catalog

import (
	"context"
	"testing"

	"github.com/angelmondragon/seedling-limiter/internal/limiter"
	"github.com/angelmondragon/seedling-limiter/pkg/config"
	"github.com/angelmondragon/seedling-limiter/pkg/db/models"
	"github.com/angelmondragon/seedling-limiter/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Run(context.Background(), sqlDB, config.DriverSQLite, "../../pkg/migrate/migrations", "up"))
	return conn
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&[]models.Product{
		{ID: 10, Name: "Cherry Tomato"},
		{ID: 20, Name: "Garden Trowel"},
	}).Error)
	require.NoError(t, db.Create(&[]models.ProductCategory{
		{ID: 1, Slug: "seedling", Name: "Seedlings"},
		{ID: 2, Slug: "tools", Name: ""},
	}).Error)
	require.NoError(t, db.Create(&[]models.ProductCategoryLink{
		{ProductID: 10, CategoryID: 1},
		{ProductID: 20, CategoryID: 2},
	}).Error)
	require.NoError(t, db.Create(&models.ProductVariation{ID: 101, ProductID: 10, Name: "Cherry Tomato - Red"}).Error)
	require.NoError(t, db.Create(&[]models.ProductVariationAttribute{
		{VariationID: 101, Position: 2, Label: "Pot", Value: "9cm"},
		{VariationID: 101, Position: 1, Label: "Colour", Value: "Red"},
		{VariationID: 101, Position: 3, Label: "Grade", Value: " "},
	}).Error)
}

func TestInCategory(t *testing.T) {
	db := openTestDB(t)
	seedCatalog(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	cases := []struct {
		product int64
		slug    string
		want    bool
	}{
		{10, "seedling", true},
		{10, "tools", false},
		{20, "tools", true},
		{99, "seedling", false},
		{10, "missing", false},
	}
	for _, tc := range cases {
		got, err := repo.InCategory(ctx, tc.product, tc.slug)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, got, "product %d in %q", tc.product, tc.slug)
	}
}

func TestDescribeVariation(t *testing.T) {
	db := openTestDB(t)
	seedCatalog(t, db)
	repo := NewRepository(db)

	info, err := repo.DescribeVariation(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, limiter.VariationInfo{Name: "Cherry Tomato - Red", Attributes: "Colour: Red, Pot: 9cm"}, info)

	unknown, err := repo.DescribeVariation(context.Background(), 404)
	require.NoError(t, err)
	assert.Equal(t, limiter.VariationInfo{}, unknown)
}

func TestCategoryNameFallsBackToSlug(t *testing.T) {
	db := openTestDB(t)
	seedCatalog(t, db)
	repo := NewRepository(db)
	ctx := context.Background()

	name, err := repo.CategoryName(ctx, "seedling")
	require.NoError(t, err)
	assert.Equal(t, "Seedlings", name)

	name, err = repo.CategoryName(ctx, "tools")
	require.NoError(t, err)
	assert.Equal(t, "tools", name)

	name, err = repo.CategoryName(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, "unknown", name)
}

func TestProductName(t *testing.T) {
	db := openTestDB(t)
	seedCatalog(t, db)
	repo := NewRepository(db)

	name, err := repo.ProductName(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Cherry Tomato", name)

	name, err = repo.ProductName(context.Background(), 77)
	require.NoError(t, err)
	assert.Empty(t, name)
}
