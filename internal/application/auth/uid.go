package auth

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

// EncodeUID renders an account id for the /reset/{uidb64}/{token}/ link.
func EncodeUID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeUID reverses EncodeUID. Any malformed input is an invalid link.
func DecodeUID(uidb64 string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(uidb64), "="))
	if err != nil {
		return 0, domain.ErrResetTokenInvalid()
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrResetTokenInvalid()
	}
	return id, nil
}
