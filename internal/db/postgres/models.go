package postgres

import (
	"time"

	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
)

// CategoryModel is the categories table row.
type CategoryModel struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	NameNorm    string `gorm:"size:100;not null;default:''"`
	Slug        string `gorm:"size:120;uniqueIndex;not null"`
	Description string `gorm:"type:text;not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName pins the table name.
func (CategoryModel) TableName() string { return "categories" }

// ToDomain converts the row to the domain projection.
func (m CategoryModel) ToDomain() product.Category {
	return product.Category{ID: m.ID, Name: m.Name, Slug: m.Slug}
}

// ProductModel is the products table row. NameNorm and BrandNorm hold the
// normalized text the trigram indexes are built on.
type ProductModel struct {
	ID          int64         `gorm:"primaryKey"`
	Name        string        `gorm:"size:200;not null"`
	NameNorm    string        `gorm:"size:200;not null;default:''"`
	Brand       string        `gorm:"size:100;not null"`
	BrandNorm   string        `gorm:"size:100;not null;default:''"`
	CategoryID  int64         `gorm:"not null;index:product_category_calories_idx,priority:1"`
	Category    CategoryModel `gorm:"foreignKey:CategoryID"`
	Description string        `gorm:"type:text;not null;default:''"`
	Calories    int           `gorm:"not null;default:0;index:product_category_calories_idx,priority:2"`
	Protein     float64       `gorm:"not null;default:0"`
	Carbs       float64       `gorm:"not null;default:0"`
	Fats        float64       `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName pins the table name.
func (ProductModel) TableName() string { return "products" }

// ToDomain converts the row (with its preloaded category) to the domain projection.
func (m ProductModel) ToDomain() product.Product {
	return product.Product{
		ID:          m.ID,
		Name:        m.Name,
		Brand:       m.Brand,
		Category:    m.Category.ToDomain(),
		Description: m.Description,
		Calories:    m.Calories,
		Protein:     m.Protein,
		Carbs:       m.Carbs,
		Fats:        m.Fats,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
