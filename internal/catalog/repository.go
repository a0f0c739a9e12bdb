package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/seedling-limiter/internal/limiter"
	"github.com/angelmondragon/seedling-limiter/internal/repo"
	"github.com/angelmondragon/seedling-limiter/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads catalog data for the limiter: category membership,
// variation display data and category names.
type Repository struct {
	base repo.Base
}

var (
	_ limiter.CategoryMembership = (*Repository)(nil)
	_ limiter.VariationResolver  = (*Repository)(nil)
	_ limiter.CategoryResolver   = (*Repository)(nil)
)

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// InCategory reports whether the parent product is directly linked to the category slug.
func (r *Repository) InCategory(ctx context.Context, productID int64, slug string) (bool, error) {
	var count int64
	err := r.base.DB(ctx).
		Table("product_category_links AS l").
		Joins("JOIN product_categories c ON c.id = l.category_id").
		Where("l.product_id = ? AND c.slug = ?", productID, slug).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DescribeVariation returns the variation name and its "Label: Value" list.
// Unknown variations yield empty data.
func (r *Repository) DescribeVariation(ctx context.Context, variationID int64) (limiter.VariationInfo, error) {
	var variation models.ProductVariation
	err := r.base.DB(ctx).Where("id = ?", variationID).Take(&variation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return limiter.VariationInfo{}, nil
	}
	if err != nil {
		return limiter.VariationInfo{}, err
	}

	var attrs []models.ProductVariationAttribute
	if err := r.base.DB(ctx).
		Where("variation_id = ?", variationID).
		Order("position ASC").
		Find(&attrs).Error; err != nil {
		return limiter.VariationInfo{}, err
	}

	return limiter.VariationInfo{
		Name:       variation.Name,
		Attributes: formatAttributes(attrs),
	}, nil
}

// CategoryName returns the display name for slug, or the slug itself when the category is unknown.
func (r *Repository) CategoryName(ctx context.Context, slug string) (string, error) {
	var category models.ProductCategory
	err := r.base.DB(ctx).Where("slug = ?", slug).Take(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return slug, nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(category.Name) == "" {
		return slug, nil
	}
	return category.Name, nil
}

// ProductName returns the parent product name, empty when unknown.
func (r *Repository) ProductName(ctx context.Context, productID int64) (string, error) {
	var product models.Product
	err := r.base.DB(ctx).Where("id = ?", productID).Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return product.Name, nil
}

func formatAttributes(attrs []models.ProductVariationAttribute) string {
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		value := strings.TrimSpace(attr.Value)
		if value == "" {
			continue
		}
		parts = append(parts, strings.TrimSpace(attr.Label)+": "+value)
	}
	return strings.Join(parts, ", ")
}
