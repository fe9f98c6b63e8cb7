package services

import (
	"strings"

	"marketplace-service/catalog"
	"marketplace-service/models"

	"github.com/shopspring/decimal"
)

// Discount is the whole-percent reduction from originalPrice to price,
// rounded half away from zero. It is 0 unless originalPrice exceeds price.
func Discount(price float64, originalPrice *float64) int {
	if originalPrice == nil || *originalPrice <= price || *originalPrice <= 0 {
		return 0
	}
	orig := decimal.NewFromFloat(*originalPrice)
	pct := orig.Sub(decimal.NewFromFloat(price)).Div(orig).Mul(decimal.NewFromInt(100))
	return int(pct.Round(0).IntPart())
}

// ApplyDerivedFields recomputes discount, imageUrl and the legacy categoryId.
// It returns false when the category is not in the mapping.
func ApplyDerivedFields(p *models.SellerProduct, categories *catalog.CategoryMapping) bool {
	p.Discount = Discount(p.Price, p.OriginalPrice)

	if strings.TrimSpace(p.ImageURL) == "" && len(p.Images) > 0 {
		p.ImageURL = p.Images[0]
	}

	c, ok := categories.ByName(p.Category)
	if !ok {
		return false
	}
	p.Category = c.Name
	p.CategoryID = c.LegacyID
	return true
}
