package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prohmpiriya/ringside/pkg/response"
)

// Context keys set by JWTAuth
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

// Roles carried in the access token
const (
	RoleOrganizer = "organizer"
	RoleCustomer  = "customer"
	RoleAdmin     = "admin"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the identity extracted from an access token
type Claims struct {
	UserID string
	Role   string
}

// JWTConfig configures token verification
type JWTConfig struct {
	Secret string
	Issuer string // optional; checked when set
}

// ParseToken verifies an HS256 token and extracts its claims
func ParseToken(cfg JWTConfig, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return nil, ErrInvalidToken
	}
	role, _ := claims["role"].(string)

	return &Claims{UserID: userID, Role: role}, nil
}

// JWTAuth rejects requests without a valid bearer token and stores the
// caller identity in the gin context.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized(ErrMissingToken.Error()))
			return
		}

		claims, err := ParseToken(cfg, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized(err.Error()))
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole allows the request only when the caller has one of roles.
// Must run after JWTAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := GetRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Forbidden("insufficient role"))
	}
}

// GetUserID returns the authenticated user ID
func GetUserID(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyUserID)
}

// GetRole returns the authenticated user's role
func GetRole(c *gin.Context) (string, bool) {
	return getString(c, ContextKeyRole)
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
