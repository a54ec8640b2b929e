package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims carried by an access token. Role is embedded so
// request handling doesn't need a user lookup to authorize; tokens are
// short-lived, which bounds staleness after a role change.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ReceiptClaims are the claims of a short-lived receipt viewing token. The
// audience pins the token to receipt viewing so an access token can't be
// substituted for one.
type ReceiptClaims struct {
	Key string `json:"key"` // receipt blob locator
	jwt.RegisteredClaims
}

const receiptAudience = "receipt-view"

// GenerateJWT generates a new access token for the given user.
func GenerateJWT(userID string, role string, secret string, expiryDuration time.Duration, issuer string) (string, error) {
	claims := AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiryDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAndValidateJWT parses an access token string, validates its signature and
// standard claims, and returns the claims if the token is valid.
func ParseAndValidateJWT(tokenString string, secretKey string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Don't forget to validate the alg is what you expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	return claims, nil
}

// GenerateReceiptToken signs a short-lived token granting view access to a
// single receipt blob.
func GenerateReceiptToken(key string, secret string, ttl time.Duration, issuer string) (string, error) {
	claims := ReceiptClaims{
		Key: key,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{receiptAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseReceiptToken validates a receipt viewing token and returns the blob key
// it grants access to.
func ParseReceiptToken(tokenString string, secretKey string) (string, error) {
	claims := &ReceiptClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secretKey), nil
	}, jwt.WithAudience(receiptAudience))

	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Key == "" {
		return "", errors.New("invalid receipt token")
	}

	return claims.Key, nil
}
