package jwt

import "github.com/golang-jwt/jwt"

// Claims defines the JWT payload presented as the connection credential.
// The identity subsystem issues these tokens; this server only verifies
// them and reads the identity fields.
type Claims struct {
	// StandardClaims embeds the standard JWT fields (Exp, Iat, Iss) used
	// for validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the stable identifier of the authenticated user.
	ID string `json:"id"`

	// Username is the display name broadcast in presence lists and messages.
	Username string `json:"username"`

	// Avatar is the user's avatar location: an absolute URL or a storage key.
	Avatar string `json:"avatar,omitempty"`
}
