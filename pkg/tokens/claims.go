package tokens

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload of a user bearer token. Rand makes two tokens issued
// for the same user within the same second distinct.
type Claims struct {
	Rand string `json:"rand"`
	jwt.RegisteredClaims
}
