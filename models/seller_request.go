package models

import (
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SellerCredentials are issued once when an application is created.
// Only the bcrypt hash of the password is persisted.
type SellerCredentials struct {
	Username     string `json:"username" bson:"username"`
	PasswordHash string `json:"-" bson:"passwordHash"`
	SellerID     string `json:"sellerId" bson:"sellerId"`
}

// CategoryList accepts either a JSON array or a comma separated string, since
// older clients submit productCategories as free text.
type CategoryList []string

func (l *CategoryList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = trimAll(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = trimAll(strings.Split(s, ","))
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SellerApplicationInput is the body of POST /seller/apply.
type SellerApplicationInput struct {
	BusinessName      string       `json:"businessName" validate:"required"`
	OwnerName         string       `json:"ownerName" validate:"required"`
	Email             string       `json:"email" validate:"required,email"`
	Phone             string       `json:"phone" validate:"required"`
	BusinessType      string       `json:"businessType" validate:"required"`
	Address           string       `json:"address" validate:"required"`
	GST               string       `json:"gst" validate:"required"`
	PAN               string       `json:"pan" validate:"required"`
	ProductCategories CategoryList `json:"productCategories" validate:"required,min=1"`
	Description       string       `json:"description"`
	Website           string       `json:"website" validate:"omitempty,url"`
	Agree             bool         `json:"agree" validate:"eq=true"`
}

// SellerRequest is a persisted seller application.
type SellerRequest struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	BusinessName      string             `json:"businessName" bson:"businessName"`
	OwnerName         string             `json:"ownerName" bson:"ownerName"`
	Email             string             `json:"email" bson:"email"`
	Phone             string             `json:"phone" bson:"phone"`
	BusinessType      string             `json:"businessType" bson:"businessType"`
	Address           string             `json:"address" bson:"address"`
	GST               string             `json:"gst" bson:"gst"`
	PAN               string             `json:"pan" bson:"pan"`
	ProductCategories []string           `json:"productCategories" bson:"productCategories"`
	Description       string             `json:"description,omitempty" bson:"description,omitempty"`
	Website           string             `json:"website,omitempty" bson:"website,omitempty"`
	Agree             bool               `json:"agree" bson:"agree"`
	SellerCredentials SellerCredentials  `json:"sellerCredentials" bson:"sellerCredentials"`
	Status            ModerationStatus   `json:"status" bson:"status"`
	AdminComments     string             `json:"adminComments" bson:"adminComments"`
	RejectionReason   string             `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	ReviewedBy        string             `json:"reviewedBy" bson:"reviewedBy"`
	ReviewedAt        *time.Time         `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	LastStatusUpdate  time.Time          `json:"lastStatusUpdate" bson:"lastStatusUpdate"`
}

// SellerProfile is the password-free projection returned by login and status lookups.
type SellerProfile struct {
	ID                string           `json:"_id"`
	SellerID          string           `json:"sellerId"`
	Username          string           `json:"username"`
	BusinessName      string           `json:"businessName"`
	OwnerName         string           `json:"ownerName"`
	Email             string           `json:"email"`
	ProductCategories []string         `json:"productCategories"`
	Status            ModerationStatus `json:"status"`
	AdminComments     string           `json:"adminComments"`
	RejectionReason   string           `json:"rejectionReason,omitempty"`
	ReviewedAt        *time.Time       `json:"reviewedAt,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	LastStatusUpdate  time.Time        `json:"lastStatusUpdate"`
}

// Profile projects the request without any credential secret.
func (r *SellerRequest) Profile() SellerProfile {
	return SellerProfile{
		ID:                r.ID.Hex(),
		SellerID:          r.SellerCredentials.SellerID,
		Username:          r.SellerCredentials.Username,
		BusinessName:      r.BusinessName,
		OwnerName:         r.OwnerName,
		Email:             r.Email,
		ProductCategories: r.ProductCategories,
		Status:            r.Status,
		AdminComments:     r.AdminComments,
		RejectionReason:   r.RejectionReason,
		ReviewedAt:        r.ReviewedAt,
		CreatedAt:         r.CreatedAt,
		LastStatusUpdate:  r.LastStatusUpdate,
	}
}

// IssuedCredentials carries the plaintext password. It only ever appears in
// the submit response.
type IssuedCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	SellerID string `json:"sellerId"`
}

// SubmitResult is returned by a successful application submit.
type SubmitResult struct {
	RequestID   string            `json:"requestId"`
	SellerID    string            `json:"sellerId"`
	Credentials IssuedCredentials `json:"credentials"`
	Status      ModerationStatus  `json:"status"`
}
