package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/account-service/internal/pkg/context"
)

const contentTypeJSON = "application/json; charset=utf-8"

// errorDoc is the body of every non-page failure: {"error": {...}}.
type errorDoc struct {
	Error errorFields `json:"error"`
}

type errorFields struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

var kindStatus = map[domain.ErrKind]int{
	domain.KindValidation:       http.StatusBadRequest,
	domain.KindAuth:             http.StatusUnauthorized,
	domain.KindForbidden:        http.StatusForbidden,
	domain.KindNotFound:         http.StatusNotFound,
	domain.KindMethodNotAllowed: http.StatusMethodNotAllowed,
	domain.KindConflict:         http.StatusConflict,
	domain.KindRateLimited:      http.StatusTooManyRequests,
	domain.KindPayloadTooLarge:  http.StatusRequestEntityTooLarge,
	domain.KindInfrastructure:   http.StatusServiceUnavailable,
}

// StatusFor maps an error kind to its HTTP status; unknown kinds are 500.
func StatusFor(kind domain.ErrKind) int {
	if s, ok := kindStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// WriteJSON keeps a Content-Type the caller already set.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", contentTypeJSON)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Page writes a rendered page document. Pages carry one-shot notices and
// are never cached.
func Page(w http.ResponseWriter, page any) {
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, page)
}

// WriteError renders err for the endpoints that do not answer with a page
// (health, 404/405, CSRF). Anything that is not a domain error is reported
// as a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	doc := errorDoc{Error: errorFields{
		Code:      "internal",
		Message:   domain.GenericFailure,
		RequestID: appCtx.GetRequestID(r.Context()),
	}}
	status := http.StatusInternalServerError

	var de *domain.Error
	if errors.As(err, &de) {
		status = StatusFor(de.Kind)
		doc.Error.Code, doc.Error.Message, doc.Error.Meta = de.Code, de.Message, de.Meta
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	WriteJSON(w, status, doc)
}
