package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListingInput is the body for creating or updating a seller listing.
type ListingInput struct {
	SellerID      string   `json:"sellerId"`
	SellerName    string   `json:"sellerName"`
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description" validate:"required"`
	Category      string   `json:"category" validate:"required"`
	Subcategory   string   `json:"subcategory"`
	Brand         string   `json:"brand"`
	Price         float64  `json:"price" validate:"gt=0"`
	OriginalPrice *float64 `json:"originalPrice" validate:"omitempty,gte=0"`
	Stock         int      `json:"stock" validate:"gte=0"`
	Images        []string `json:"images" validate:"omitempty,dive,required"`
	ImageURL      string   `json:"imageUrl"`
}

// SellerProduct is a listing submitted by an approved seller.
type SellerProduct struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Description   string             `json:"description" bson:"description"`
	Category      string             `json:"category" bson:"category"`
	Subcategory   string             `json:"subcategory,omitempty" bson:"subcategory,omitempty"`
	Brand         string             `json:"brand,omitempty" bson:"brand,omitempty"`
	Price         float64            `json:"price" bson:"price"`
	OriginalPrice *float64           `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	Discount      int                `json:"discount" bson:"discount"`
	Stock         int                `json:"stock" bson:"stock"`
	Images        []string           `json:"images" bson:"images"`
	ImageURL      string             `json:"imageUrl" bson:"imageUrl"`
	CategoryID    string             `json:"categoryId" bson:"categoryId"`
	SellerID      string             `json:"sellerId" bson:"sellerId"`
	SellerName    string             `json:"sellerName" bson:"sellerName"`
	Status        ModerationStatus   `json:"status" bson:"status"`
	AdminComments string             `json:"adminComments" bson:"adminComments"`
	ReviewedBy    string             `json:"reviewedBy" bson:"reviewedBy"`
	ReviewedAt    *time.Time         `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	ApprovedAt    *time.Time         `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`
	Rating        float64            `json:"rating" bson:"rating"`
	Reviews       int                `json:"reviews" bson:"reviews"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ApplyInput copies the seller-editable fields from in.
func (p *SellerProduct) ApplyInput(in ListingInput) {
	p.Name = in.Name
	p.Description = in.Description
	p.Category = in.Category
	p.Subcategory = in.Subcategory
	p.Brand = in.Brand
	p.Price = in.Price
	p.OriginalPrice = in.OriginalPrice
	p.Stock = in.Stock
	p.Images = in.Images
	p.ImageURL = in.ImageURL
	if p.Images == nil {
		p.Images = []string{}
	}
}
