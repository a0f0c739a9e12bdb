package models

// Product is a parent catalog product. Variations hang off it.
type Product struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name string `gorm:"column:name;not null"`
}

func (Product) TableName() string { return "products" }

type ProductCategory struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	Slug string `gorm:"column:slug;not null;uniqueIndex"`
	Name string `gorm:"column:name;not null"`
}

func (ProductCategory) TableName() string { return "product_categories" }

type ProductCategoryLink struct {
	ProductID  int64 `gorm:"column:product_id;primaryKey;autoIncrement:false"`
	CategoryID int64 `gorm:"column:category_id;primaryKey;autoIncrement:false"`
}

func (ProductCategoryLink) TableName() string { return "product_category_links" }

type ProductVariation struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	ProductID int64  `gorm:"column:product_id;not null;index"`
	Name      string `gorm:"column:name;not null"`
}

func (ProductVariation) TableName() string { return "product_variations" }

// ProductVariationAttribute is one "Label: Value" pair of a variation, rendered in Position order.
type ProductVariationAttribute struct {
	VariationID int64  `gorm:"column:variation_id;primaryKey;autoIncrement:false"`
	Position    int    `gorm:"column:position;primaryKey;autoIncrement:false"`
	Label       string `gorm:"column:label;not null"`
	Value       string `gorm:"column:value;not null;default:''"`
}

func (ProductVariationAttribute) TableName() string { return "product_variation_attributes" }
