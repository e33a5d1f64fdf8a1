package security

import (
	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// hsSigner is the HS256 core shared by reset tokens and flash cookies.
// Each token kind pins its own audience.
type hsSigner struct {
	secret []byte
	issuer string
}

func newHSSigner(secret, issuer string) hsSigner {
	return hsSigner{secret: []byte(secret), issuer: issuer}
}

func (s hsSigner) sign(claims jwt.Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	str, err := tok.SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return str, nil
}

func (s hsSigner) parse(raw string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	return err
}
