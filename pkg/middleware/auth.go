package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Roles issued by the identity provider
const (
	RoleAdmin     = "admin"
	RoleComercial = "comercial"
	RoleViewer    = "viewer"
)

const claimsKey = "claims"

// Claims are the JWT claims the identity provider puts in access tokens
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken validates an HS256 token signed with secret
func ParseToken(tokenString, secret, issuer string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// AuthMiddleware requires a valid bearer token and stores its claims
func AuthMiddleware(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			common.ErrorResponse(c, http.StatusUnauthorized, "authorization header required")
			c.Abort()
			return
		}

		claims, err := ParseToken(strings.TrimPrefix(header, "Bearer "), secret, issuer)
		if err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		SetClaims(c, claims)
		userID := claims.UserID
		if userID == "" {
			userID = claims.Email
		}
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), userID))

		c.Next()
	}
}

// RequireRole allows the request only when the caller holds one of roles.
// Admins are always allowed.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "unauthenticated")
			c.Abort()
			return
		}
		if claims.Role == RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		common.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
		c.Abort()
	}
}

// GetClaims returns the claims stored by AuthMiddleware
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// GetUserName returns the display name of the caller, falling back to the email
func GetUserName(c *gin.Context) string {
	claims, ok := GetClaims(c)
	if !ok {
		return ""
	}
	if claims.Name != "" {
		return claims.Name
	}
	return claims.Email
}

// SetClaims stores claims on the context as AuthMiddleware does
func SetClaims(c *gin.Context, claims *Claims) {
	c.Set(claimsKey, claims)
}
