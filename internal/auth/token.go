package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the bearer token claims. Tokens are issued by the household's
// sign-in service; this service only verifies them.
type Claims struct {
	HouseholdID int64  `json:"household_id"`
	MemberID    int64  `json:"member_id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for ac that expires after ttl.
func IssueToken(secret string, ac AuthContext, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		HouseholdID: ac.HouseholdID,
		MemberID:    ac.MemberID,
		Role:        ac.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken checks the signature and expiry of tokenString and returns the
// AuthContext it carries.
func VerifyToken(secret, tokenString string) (AuthContext, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return AuthContext{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.HouseholdID == 0 || claims.MemberID == 0 {
		return AuthContext{}, ErrInvalidToken
	}
	return AuthContext{
		MemberID:    claims.MemberID,
		HouseholdID: claims.HouseholdID,
		Role:        claims.Role,
	}, nil
}
