package middleware

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const RoleSeller = "seller"

// DefaultSellerTokenTTL is used when no TTL is configured.
const DefaultSellerTokenTTL = 24 * time.Hour

// SellerToken is returned by a successful seller login.
type SellerToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SellerTokenIssuer signs access tokens that AuthMiddleware accepts, with the
// seller id as subject.
type SellerTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSellerTokenIssuer(secret []byte, ttl time.Duration) *SellerTokenIssuer {
	if ttl <= 0 {
		ttl = DefaultSellerTokenTTL
	}
	return &SellerTokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

func (ti *SellerTokenIssuer) Issue(sellerID, email string) (*SellerToken, error) {
	if len(ti.secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}
	now := ti.now()
	expires := now.Add(ti.ttl)
	claims := jwt.MapClaims{
		"user_id": sellerID,
		"email":   email,
		"role":    RoleSeller,
		"typ":     "access",
		"exp":     expires.Unix(),
		"iat":     now.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign seller token: %w", err)
	}
	return &SellerToken{AccessToken: signed, ExpiresAt: expires}, nil
}
