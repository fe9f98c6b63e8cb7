package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a platform-owned catalog entry. It is read-only for this service.
type Product struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Description   string             `json:"description" bson:"description"`
	Price         float64            `json:"price" bson:"price"`
	OriginalPrice *float64           `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	Discount      int                `json:"discount" bson:"discount"`
	CategoryID    string             `json:"categoryId" bson:"categoryId"`
	ImageURL      string             `json:"imageUrl" bson:"imageUrl"`
	Images        []string           `json:"images" bson:"images"`
	Stock         int                `json:"stock" bson:"stock"`
	Rating        float64            `json:"rating" bson:"rating"`
	Reviews       int                `json:"reviews" bson:"reviews"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// Catalog sources.
const (
	SourceFirstParty = "first_party"
	SourceSeller     = "seller"
)

// CatalogItem is the unified read shape for both catalog sources.
type CatalogItem struct {
	ID            string   `json:"_id"`
	Source        string   `json:"source"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Discount      int      `json:"discount"`
	Category      string   `json:"category,omitempty"`
	CategoryID    string   `json:"categoryId"`
	ImageURL      string   `json:"imageUrl"`
	Images        []string `json:"images"`
	Stock         int      `json:"stock"`
	Rating        float64  `json:"rating"`
	Reviews       int      `json:"reviews"`
	Brand         string   `json:"brand,omitempty"`
	SellerID      string   `json:"sellerId,omitempty"`
	SellerName    string   `json:"sellerName,omitempty"`
	// Status is the moderation state of a seller listing. List views only
	// ever carry approved listings; a lookup by id may return any state.
	Status string `json:"status,omitempty"`
}

// FromProduct projects a first-party product. categoryName may be empty when
// the native category id is not in the mapping.
func FromProduct(p *Product, categoryName string) CatalogItem {
	return CatalogItem{
		ID:            p.ID.Hex(),
		Source:        SourceFirstParty,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Discount:      p.Discount,
		Category:      categoryName,
		CategoryID:    p.CategoryID,
		ImageURL:      p.ImageURL,
		Images:        nonNil(p.Images),
		Stock:         p.Stock,
		Rating:        p.Rating,
		Reviews:       p.Reviews,
	}
}

// FromSellerProduct projects an approved seller listing.
func FromSellerProduct(p *SellerProduct) CatalogItem {
	return CatalogItem{
		ID:            p.ID.Hex(),
		Source:        SourceSeller,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Discount:      p.Discount,
		Category:      p.Category,
		CategoryID:    p.CategoryID,
		ImageURL:      p.ImageURL,
		Images:        nonNil(p.Images),
		Stock:         p.Stock,
		Rating:        p.Rating,
		Reviews:       p.Reviews,
		Brand:         p.Brand,
		SellerID:      p.SellerID,
		SellerName:    p.SellerName,
		Status:        string(p.Status),
	}
}

// CatalogResult carries merged items plus warnings for sources that failed.
type CatalogResult struct {
	Items    []CatalogItem `json:"items"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Complete reports whether every source answered.
func (r *CatalogResult) Complete() bool {
	return len(r.Warnings) == 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
