package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const resetAudience = "password_reset"

type resetClaims struct {
	UID int64  `json:"uid"`
	FP  string `json:"fp"`
	jwt.RegisteredClaims
}

/*
ResetTokenSigner
----------------
Implements auth.ResetTokenIssuer.

Tokens are stateless. The "fp" claim is an HMAC over the account's
password hash and last login, so a token stops verifying as soon as
either changes (password set, or the user logs in again).
*/
type ResetTokenSigner struct {
	hs hsSigner
}

func NewResetTokenSigner(secret, issuer string) *ResetTokenSigner {
	return &ResetTokenSigner{hs: newHSSigner(secret, issuer)}
}

func (s *ResetTokenSigner) IssueResetToken(a domain.Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := resetClaims{
		UID: a.ID,
		FP:  s.fingerprint(a),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.hs.issuer,
			Subject:   strconv.FormatInt(a.ID, 10),
			Audience:  jwt.ClaimStrings{resetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return s.hs.sign(claims)
}

func (s *ResetTokenSigner) VerifyResetToken(token string, a domain.Account) error {
	var claims resetClaims
	if err := s.hs.parse(token, &claims, resetAudience); err != nil {
		return domain.ErrResetTokenInvalid()
	}
	if claims.UID != a.ID {
		return domain.ErrResetTokenInvalid()
	}
	if !hmac.Equal([]byte(claims.FP), []byte(s.fingerprint(a))) {
		return domain.ErrResetTokenInvalid()
	}
	return nil
}

func (s *ResetTokenSigner) fingerprint(a domain.Account) string {
	var lastLogin int64
	if a.LastLogin != nil {
		lastLogin = a.LastLogin.Unix()
	}
	mac := hmac.New(sha256.New, s.hs.secret)
	mac.Write([]byte(strconv.FormatInt(a.ID, 10)))
	mac.Write([]byte{0})
	mac.Write([]byte(a.PasswordHash))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(lastLogin, 10)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16])
}
