package models

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role represents operator roles on the control routes
type Role string

const (
	// RoleAdmin admin role with full access
	RoleAdmin Role = "admin"
	// RoleOperator may start, stop and refresh the simulator
	RoleOperator Role = "operator"
	// RoleViewer may only read
	RoleViewer Role = "viewer"
)

// CanOperate reports whether the role may use the control routes
func (r Role) CanOperate() bool {
	return r == RoleAdmin || r == RoleOperator
}

// Operator is the identity carried by an API token. Operators are not
// stored; tokens are minted out of band from the shared secret.
type Operator struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Claims represents the JWT claims for authentication
type Claims struct {
	Operator string `json:"operator"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for the operator
func (o *Operator) GenerateToken(secretKey, issuer string, ttl time.Duration) (string, error) {
	if secretKey == "" {
		return "", errors.New("empty JWT secret key")
	}
	if o.Name == "" {
		return "", errors.New("operator name is required")
	}

	now := time.Now()
	claims := &Claims{
		Operator: o.Name,
		Role:     string(o.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   o.Name,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}
