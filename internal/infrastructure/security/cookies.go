package security

import (
	"net/http"
	"time"
)

const (
	SessionCookieName = "sessionid"
	FlashCookieName   = "flash"
)

func cookieName(base string, secure bool) string {
	if secure {
		return "__Host-" + base
	}
	return base
}

func setCookie(w http.ResponseWriter, base, value string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName(base, secure),
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func readCookie(r *http.Request, base string) (string, error) {
	if c, err := r.Cookie("__Host-" + base); err == nil {
		return c.Value, nil
	}
	// plain name for local http dev
	c, err := r.Cookie(base)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

func SetSession(w http.ResponseWriter, sessionID string, ttl time.Duration, secure bool) {
	setCookie(w, SessionCookieName, sessionID, int(ttl.Seconds()), secure)
}

func ClearSession(w http.ResponseWriter, secure bool) {
	setCookie(w, SessionCookieName, "", -1, secure)
}

func ReadSession(r *http.Request) (string, error) {
	return readCookie(r, SessionCookieName)
}

func SetFlash(w http.ResponseWriter, value string, secure bool) {
	setCookie(w, FlashCookieName, value, int(FlashTTL.Seconds()), secure)
}

func ClearFlash(w http.ResponseWriter, secure bool) {
	setCookie(w, FlashCookieName, "", -1, secure)
}

func ReadFlash(r *http.Request) string {
	v, _ := readCookie(r, FlashCookieName)
	return v
}
