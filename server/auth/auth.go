// Package auth issues and verifies the access tokens of signed-in users.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"

	"github.com/rabithua/chatmemo/common"
)

const (
	issuer = "chatmemo"
	// Signing key section. For now, this is only used for signing, not for verifying since we only
	// have 1 version. But it will be used to maintain backward compatibility if we change the signing mechanism.
	keyID = "v1"
	// AccessTokenAudienceName is the audience name of the access token.
	AccessTokenAudienceName = "user.access-token"
	// AccessTokenCookieName is the cookie name of the access token.
	AccessTokenCookieName = "chatmemo.access-token"
)

type ClaimsMessage struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// UserID returns the user id carried in the subject claim.
func (c *ClaimsMessage) UserID() (int, error) {
	userID, err := strconv.Atoi(c.Subject)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed subject %q", c.Subject)
	}
	return userID, nil
}

// GenerateAccessToken generates an access token for the user.
func GenerateAccessToken(username string, userID int, expirationTime time.Time, secret []byte) (string, error) {
	return generateToken(username, userID, AccessTokenAudienceName, expirationTime, secret)
}

func generateToken(username string, userID int, audience string, expirationTime time.Time, secret []byte) (string, error) {
	// Create the JWT claims, which includes the username and expiry time.
	claims := &ClaimsMessage{
		Name: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
			Subject:   strconv.Itoa(userID),
			ID:        common.GenUUID(),
		},
	}

	// Declare the token with the HS256 algorithm used for signing, and the claims.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = keyID

	// Create the JWT string.
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseAccessToken verifies the signature, expiry and audience of an access token.
func ParseAccessToken(tokenString string, secret []byte) (*ClaimsMessage, error) {
	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Name {
			return nil, fmt.Errorf("unexpected access token signing method=%v, expect %v", t.Header["alg"], jwt.SigningMethodHS256)
		}
		if kid, ok := t.Header["kid"].(string); ok && kid == keyID {
			return secret, nil
		}
		return nil, fmt.Errorf("unexpected access token kid=%v", t.Header["kid"])
	})
	if err != nil {
		return nil, err
	}
	if !claims.VerifyAudience(AccessTokenAudienceName, true) {
		return nil, fmt.Errorf("invalid audience %v, expected %s", claims.Audience, AccessTokenAudienceName)
	}
	return claims, nil
}
