package middleware

import (
	"fmt"
	"strings"

	"marketplace-service/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Identity headers set by the API gateway after it has verified the caller.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderUserEmail = "X-User-Email"
)

const (
	ctxUserID    = "user_id"
	ctxUserRole  = "user_role"
	ctxUserEmail = "user_email"

	RoleAdmin = "admin"
)

// AuthMiddleware resolves the caller identity. Gateway headers win; a Bearer
// token signed with secret is accepted for direct calls.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := strings.TrimSpace(c.GetHeader(HeaderUserID)); userID != "" {
			setIdentity(c, userID, c.GetHeader(HeaderUserRole), c.GetHeader(HeaderUserEmail))
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, apperrors.Unauthorized("Authentication required"))
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			abort(c, apperrors.Unauthorized("Invalid token format"))
			return
		}

		claims, err := ParseToken(strings.TrimSpace(header[len("Bearer "):]), secret)
		if err != nil {
			abort(c, apperrors.Unauthorized("Invalid or expired token"))
			return
		}
		userID := claimString(claims, "user_id")
		if userID == "" {
			userID = claimString(claims, "sub")
		}
		if userID == "" {
			abort(c, apperrors.Unauthorized("Token has no subject"))
			return
		}
		setIdentity(c, userID, claimString(claims, "role"), claimString(claims, "email"))
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(GetUserRole(c), RoleAdmin) {
			abort(c, apperrors.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

// ParseToken verifies an HMAC signed access token and returns its claims.
// Refresh tokens (typ=refresh) are rejected.
func ParseToken(tokenStr string, secret []byte) (jwt.MapClaims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if typ, ok := claims["typ"].(string); ok && typ != "access" {
		return nil, fmt.Errorf("invalid token type")
	}
	return claims, nil
}

// SellerOnly must run after AuthMiddleware. The user id of a seller caller is
// its seller id.
func SellerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(GetUserRole(c), RoleSeller) {
			abort(c, apperrors.Forbidden("Seller access required"))
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) string    { return c.GetString(ctxUserID) }
func GetUserRole(c *gin.Context) string  { return c.GetString(ctxUserRole) }
func GetUserEmail(c *gin.Context) string { return c.GetString(ctxUserEmail) }

// Reviewer names the admin for audit fields, preferring the email.
func Reviewer(c *gin.Context) string {
	if email := GetUserEmail(c); email != "" {
		return email
	}
	return GetUserID(c)
}

func setIdentity(c *gin.Context, userID, role, email string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxUserRole, strings.ToLower(strings.TrimSpace(role)))
	c.Set(ctxUserEmail, strings.TrimSpace(email))
}

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// abort hands err to apperrors.ErrorMiddleware and stops the chain.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
