package response

import (
	"net/http"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/logger"
)

type NoticeCodec interface {
	Encode(msgs []domain.Notice) (string, error)
	Decode(raw string) []domain.Notice
}

/*
Flash
-----
Carries notices across a redirect in a signed one-shot cookie.
Redirect sets it; Consume reads and clears it on the next page.
*/
type Flash struct {
	codec  NoticeCodec
	secure bool
}

func NewFlash(codec NoticeCodec, secure bool) *Flash {
	return &Flash{codec: codec, secure: secure}
}

// Redirect answers 302 to location, attaching any non-empty notices.
func (f *Flash) Redirect(w http.ResponseWriter, r *http.Request, location string, notices ...domain.Notice) {
	msgs := make([]domain.Notice, 0, len(notices))
	for _, n := range notices {
		if !n.IsZero() {
			msgs = append(msgs, n)
		}
	}
	if len(msgs) > 0 {
		raw, err := f.codec.Encode(msgs)
		if err != nil {
			logger.WithCtx(r.Context()).Error().Err(err).Msg("flash_encode_failed")
		} else {
			security.SetFlash(w, raw, f.secure)
		}
	}
	http.Redirect(w, r, location, http.StatusFound)
}

// Consume returns the pending notices, if any, and clears the cookie.
func (f *Flash) Consume(w http.ResponseWriter, r *http.Request) []domain.Notice {
	raw := security.ReadFlash(r)
	if raw == "" {
		return []domain.Notice{}
	}
	security.ClearFlash(w, f.secure)
	msgs := f.codec.Decode(raw)
	if msgs == nil {
		return []domain.Notice{}
	}
	return msgs
}
