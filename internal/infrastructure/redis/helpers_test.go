package redis

import (
	"errors"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
)

// isMissingField matches domain.ErrMissingField(field).
func isMissingField(err error, field string) bool {
	var de *domain.Error
	return errors.As(err, &de) && de.Code == "missing_field" && de.Meta["field"] == field
}
