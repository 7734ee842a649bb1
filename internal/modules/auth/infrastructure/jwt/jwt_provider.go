package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CustomClaims carries the identity and tenant scope for every API call.
// CarrierID is the multi-tenancy boundary: every notification query is
// scoped by it.
type CustomClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	CarrierID uuid.UUID `json:"carrier_id"`
	Role      string    `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates an HS256-signed JWT with user, carrier and role
// claims plus the standard expiry/issued-at/not-before set.
func GenerateToken(secret string, duration time.Duration, userID, carrierID uuid.UUID, role string) (string, error) {
	claims := CustomClaims{
		UserID:    userID,
		CarrierID: carrierID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies a token string, rejecting any signing
// method other than HMAC.
func ValidateToken(tokenStr string, secret string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenMalformed
}
