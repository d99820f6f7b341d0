package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/db/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by RequireAuth
const (
	ContextOperator = "operator"
	ContextRole     = "operator_role"
)

// AuthMiddleware provides JWT authentication middleware for Gin
type AuthMiddleware struct {
	jwtConfig *config.JWTConfig
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(jwtConfig *config.JWTConfig) *AuthMiddleware {
	return &AuthMiddleware{
		jwtConfig: jwtConfig,
	}
}

// RequireAuth middleware ensures that a valid JWT token is present in the request
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := ValidateToken(parts[1], am.jwtConfig)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ContextOperator, claims.Operator)
		c.Set(ContextRole, models.Role(claims.Role))

		c.Next()
	}
}

// RequireOperator middleware ensures that the caller may control the simulator
func (am *AuthMiddleware) RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Operator is not authenticated"})
			return
		}

		if r, ok := role.(models.Role); !ok || !r.CanOperate() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}

		c.Next()
	}
}

// CurrentOperator returns the authenticated operator name, if any
func CurrentOperator(c *gin.Context) string {
	return c.GetString(ContextOperator)
}

// ValidateToken validates the JWT token and returns the claims. The issuer is
// checked when one is configured.
func ValidateToken(tokenString string, cfg *config.JWTConfig) (*models.Claims, error) {
	if cfg.Secret == "" {
		return nil, errors.New("JWT secret key is not configured")
	}

	var opts []jwt.ParserOption
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.Secret), nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("token has expired")
		}
		return nil, errors.New("invalid token")
	}

	if !token.Valid || claims.Operator == "" {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
