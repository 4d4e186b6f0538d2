package enums

import "fmt"

// ProductCategory buckets marketplace listings.
type ProductCategory string

const (
	ProductCategoryElectronics ProductCategory = "electronics"
	ProductCategoryFashion     ProductCategory = "fashion"
	ProductCategoryHome        ProductCategory = "home"
	ProductCategoryGroceries   ProductCategory = "groceries"
	ProductCategorySports      ProductCategory = "sports"
	ProductCategoryBooks       ProductCategory = "books"
	ProductCategoryServices    ProductCategory = "services"
	ProductCategoryOther       ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryElectronics,
	ProductCategoryFashion,
	ProductCategoryHome,
	ProductCategoryGroceries,
	ProductCategorySports,
	ProductCategoryBooks,
	ProductCategoryServices,
	ProductCategoryOther,
}

// IsValid reports whether the value is a known ProductCategory.
func (p ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw strings into ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
