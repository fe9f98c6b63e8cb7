package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ProductID     string    `json:"productId" bson:"productId"`
	Name          string    `json:"name" bson:"name"`
	Price         float64   `json:"price" bson:"price"`
	ImageURL      string    `json:"imageUrl" bson:"imageUrl"`
	Quantity      int       `json:"quantity" bson:"quantity"`
	AddedAt       time.Time `json:"addedAt" bson:"addedAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt" bson:"lastUpdatedAt"`
}

// Cart is persisted per user. Totals are never stored.
type Cart struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Items     []CartItem         `json:"items" bson:"items"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// AddToCartInput is the body of POST /cart/add. Both _id and productId are accepted.
type AddToCartInput struct {
	ID        string  `json:"_id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"imageUrl"`
	Quantity  *int    `json:"quantity"`
}

// Ref returns the product identifier regardless of which key the client used.
func (in AddToCartInput) Ref() string {
	if in.ID != "" {
		return in.ID
	}
	return in.ProductID
}

// CartView is the read shape of a cart with derived totals.
type CartView struct {
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice float64    `json:"totalPrice"`
}

// View derives totals from the items. A nil cart yields the empty view.
func (c *Cart) View() CartView {
	view := CartView{Items: []CartItem{}}
	if c == nil {
		return view
	}
	total := decimal.Zero
	for _, it := range c.Items {
		view.Items = append(view.Items, it)
		view.TotalItems += it.Quantity
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	view.TotalPrice = total.Round(2).InexactFloat64()
	return view
}

// IndexOf returns the position of productID in the cart, or -1.
func (c *Cart) IndexOf(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
