package catalog

import (
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
)

var (
	catFruits = product.Category{ID: 1, Name: "Fruits", Slug: "fruits"}
	catDairy  = product.Category{ID: 3, Name: "Dairy", Slug: "dairy"}
)

func fixtureProducts() []product.Product {
	return []product.Product{
		{ID: 5, Name: "Pineapple Juice", Brand: "Fresh", Category: catFruits, Calories: 120},
		{ID: 1, Name: "Apple", Brand: "Organic", Category: catFruits, Calories: 52},
		{ID: 2, Name: "تفاحة", Brand: "مزارع", Category: catFruits, Calories: 50},
		{ID: 3, Name: "Banana", Brand: "Apple Farms", Category: catFruits, Calories: 89},
		{ID: 4, Name: "Cheese", Brand: "Almarai", Category: catDairy, Calories: 400},
	}
}

func newFixtureMemory() *Memory {
	m := NewMemory(3, 0)
	m.Load(fixtureProducts())
	return m
}

func ptr(f float64) *float64 { return &f }
