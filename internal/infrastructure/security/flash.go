package security

import (
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	flashAudience = "flash"
	FlashTTL      = 5 * time.Minute
)

type flashClaims struct {
	Messages []domain.Notice `json:"msgs"`
	jwt.RegisteredClaims
}

// FlashCodec signs the notices carried across a redirect so the client
// cannot forge them.
type FlashCodec struct {
	hs hsSigner
}

func NewFlashCodec(secret, issuer string) *FlashCodec {
	return &FlashCodec{hs: newHSSigner(secret, issuer)}
}

func (c *FlashCodec) Encode(msgs []domain.Notice) (string, error) {
	now := time.Now()
	return c.hs.sign(flashClaims{
		Messages: msgs,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.hs.issuer,
			Audience:  jwt.ClaimStrings{flashAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(FlashTTL)),
		},
	})
}

// Decode returns nil for anything that does not verify.
func (c *FlashCodec) Decode(raw string) []domain.Notice {
	if raw == "" {
		return nil
	}
	var claims flashClaims
	if err := c.hs.parse(raw, &claims, flashAudience); err != nil {
		return nil
	}
	return claims.Messages
}
