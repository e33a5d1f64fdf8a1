package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/domain"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/redis"
	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/security"
	appCtx "github.com/baechuer/real-time-ressys/services/account-service/internal/pkg/context"
)

// ---------- fakes ----------

type fakeAuthn struct {
	accounts map[string]domain.Account
	err      error
}

func (f *fakeAuthn) Authenticate(ctx context.Context, sid string) (domain.Account, error) {
	if f.err != nil {
		return domain.Account{}, f.err
	}
	a, ok := f.accounts[sid]
	if !ok {
		return domain.Account{}, domain.ErrSessionInvalid()
	}
	return a, nil
}

type redirectCall struct {
	location string
	notices  []domain.Notice
}

func recordingRedirect(calls *[]redirectCall) RedirectFunc {
	return func(w http.ResponseWriter, r *http.Request, location string, notices ...domain.Notice) {
		*calls = append(*calls, redirectCall{location: location, notices: notices})
		http.Redirect(w, r, location, http.StatusFound)
	}
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) AllowFixedWindow(ctx context.Context, key string, limit int, window time.Duration) (redis.Decision, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return redis.Decision{}, f.err
	}
	if f.allow {
		return redis.Decision{Allowed: true, Limit: limit}, nil
	}
	return redis.Decision{Allowed: false, Limit: limit, RetryAfter: 30 * time.Second}, nil
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func captureErr(got *error) WriteErrFunc {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		*got = err
		w.WriteHeader(http.StatusTeapot)
	}
}

// ---------- RequestID ----------

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = appCtx.GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatalf("expected generated request id in context")
	}
	if rr.Header().Get(HeaderXRequestID) != seen {
		t.Fatalf("expected response header %q, got %q", seen, rr.Header().Get(HeaderXRequestID))
	}
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = appCtx.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "rid-abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "rid-abc" {
		t.Fatalf("expected rid-abc, got %q", seen)
	}
}

func TestRequestID_ReplacesUnusable(t *testing.T) {
	for _, bad := range []string{"has space", "line\nbreak", strings.Repeat("x", maxRequestIDLen+1)} {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = appCtx.GetRequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderXRequestID, bad)
		h.ServeHTTP(httptest.NewRecorder(), req)

		if seen == bad || seen == "" {
			t.Fatalf("expected a fresh id for %q, got %q", bad, seen)
		}
	}
}

// ---------- LoadSession ----------

func TestLoadSession_ValidCookie_InjectsAccount(t *testing.T) {
	authn := &fakeAuthn{accounts: map[string]domain.Account{
		"sid-1": {ID: 3, Email: "s@example.com", Role: domain.RoleSuperuser, IsActive: true},
	}}

	var got domain.Account
	var ok bool
	var sid string
	h := LoadSession(authn, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = AccountFromContext(r.Context())
		sid, _ = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "sid-1"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !ok || got.ID != 3 {
		t.Fatalf("expected account 3 in context, got %+v ok=%v", got, ok)
	}
	if sid != "sid-1" {
		t.Fatalf("expected session id sid-1, got %q", sid)
	}
}

func TestLoadSession_StaleCookie_AnonymousAndCleared(t *testing.T) {
	authn := &fakeAuthn{accounts: map[string]domain.Account{}}

	var ok bool
	h := LoadSession(authn, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = AccountFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "gone"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if ok {
		t.Fatalf("expected anonymous request")
	}
	cleared := false
	for _, c := range rr.Result().Cookies() {
		if c.Name == security.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected session cookie to be cleared")
	}
}

func TestLoadSession_StoreDown_AnonymousCookieKept(t *testing.T) {
	authn := &fakeAuthn{err: domain.ErrRedisUnavailable(errors.New("down"))}

	called := false
	h := LoadSession(authn, false)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "sid"})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if !called {
		t.Fatalf("expected request to continue")
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("did not expect cookie changes on infra failure")
	}
}

// ---------- RequireSuperuser ----------

func TestRequireSuperuser_Anonymous_RedirectsToLogin(t *testing.T) {
	var calls []redirectCall
	called := false
	h := RequireSuperuser(recordingRedirect(&calls))(okHandler(&called))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/add-user/", nil))

	if called {
		t.Fatalf("handler must not run")
	}
	if len(calls) != 1 || calls[0].location != LoginPath {
		t.Fatalf("expected redirect to login, got %+v", calls)
	}
	if calls[0].notices[0].Level != domain.LevelWarning {
		t.Fatalf("expected warning notice, got %+v", calls[0].notices)
	}
}

func TestRequireSuperuser_NonSuperuser_RedirectsToDashboard(t *testing.T) {
	var calls []redirectCall
	called := false
	h := RequireSuperuser(recordingRedirect(&calls))(okHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/delete-user/", nil)
	req = req.WithContext(WithAccount(req.Context(), domain.Account{ID: 5, Role: domain.RoleLecturer, IsActive: true}, "sid"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if called {
		t.Fatalf("handler must not run")
	}
	if len(calls) != 1 || calls[0].location != DashboardPath {
		t.Fatalf("expected redirect to dashboard, got %+v", calls)
	}
	if calls[0].notices[0] != domain.Failure("You do not have permission to manage users.") {
		t.Fatalf("unexpected notice: %+v", calls[0].notices)
	}
}

func TestRequireSuperuser_Superuser_Passes(t *testing.T) {
	var calls []redirectCall
	called := false
	h := RequireSuperuser(recordingRedirect(&calls))(okHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/delete-user/", nil)
	req = req.WithContext(WithAccount(req.Context(), domain.Account{ID: 1, Role: domain.RoleSuperuser, IsActive: true}, "sid"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !called || len(calls) != 0 {
		t.Fatalf("expected pass-through, called=%v calls=%+v", called, calls)
	}
}

// ---------- CSRF ----------

func TestCSRFProtection(t *testing.T) {
	cases := []struct {
		name    string
		method  string
		origin  string
		referer string
		wantOK  bool
		reason  string
	}{
		{"get passes", http.MethodGet, "", "", true, ""},
		{"allowed origin", http.MethodPost, "https://accounts.example", "", true, ""},
		{"same host", http.MethodPost, "http://example.com", "", true, ""},
		{"referer fallback", http.MethodPost, "", "https://accounts.example/login/", true, ""},
		{"missing", http.MethodPost, "", "", false, "missing_origin"},
		{"cross origin", http.MethodPost, "https://evil.example", "", false, "cross_origin"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotErr error
			called := false
			h := CSRFProtection([]string{"https://accounts.example"}, captureErr(&gotErr))(okHandler(&called))

			req := httptest.NewRequest(tc.method, "http://example.com/login/", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.referer != "" {
				req.Header.Set("Referer", tc.referer)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if called != tc.wantOK {
				t.Fatalf("called=%v want %v (err=%v)", called, tc.wantOK, gotErr)
			}
			if !tc.wantOK {
				var de *domain.Error
				if !errors.As(gotErr, &de) || de.Code != "csrf_rejected" || de.Meta["reason"] != tc.reason {
					t.Fatalf("expected csrf_rejected/%s, got %v", tc.reason, gotErr)
				}
			}
		})
	}
}

// ---------- RateLimit ----------

func TestRateLimit_Blocked_SetsRetryAfterAndCallsOnLimited(t *testing.T) {
	lim := &fakeLimiter{allow: false}
	var gotErr error
	called := false
	h := RateLimitFixedWindow(lim, FixedWindowConfig{RouteKey: "login", Limit: 5, Window: time.Minute}, captureErr(&gotErr))(okHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/login/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if called {
		t.Fatalf("handler must not run when limited")
	}
	if !domain.Is(gotErr, "rate_limited") {
		t.Fatalf("expected rate_limited, got %v", gotErr)
	}
	if rr.Header().Get("Retry-After") != "30" {
		t.Fatalf("expected Retry-After 30, got %q", rr.Header().Get("Retry-After"))
	}
	if len(lim.keys) != 1 || lim.keys[0][:len("rl:login:ip:10.0.0.1:")] != "rl:login:ip:10.0.0.1:" {
		t.Fatalf("unexpected key: %v", lim.keys)
	}
}

func TestRateLimit_GetNotCounted_ErrorFailsOpen(t *testing.T) {
	lim := &fakeLimiter{err: errors.New("redis down")}
	called := false
	h := RateLimitFixedWindow(lim, FixedWindowConfig{RouteKey: "login", Limit: 1}, captureErr(new(error)))(okHandler(&called))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/login/", nil))
	if !called || len(lim.keys) != 0 {
		t.Fatalf("GET should bypass limiter, called=%v keys=%v", called, lim.keys)
	}

	called = false
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login/", nil))
	if !called {
		t.Fatalf("limiter error should fail open")
	}
}

func TestRateLimit_SignedInKeyedByAccount(t *testing.T) {
	lim := &fakeLimiter{allow: true}
	called := false
	h := RateLimitFixedWindow(lim, FixedWindowConfig{RouteKey: "admin", Limit: 10}, captureErr(new(error)))(okHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/add-user/", nil)
	req = req.WithContext(WithAccount(req.Context(), domain.Account{ID: 42}, "sid"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !called || len(lim.keys) != 1 || lim.keys[0][:len("rl:admin:a:42:")] != "rl:admin:a:42:" {
		t.Fatalf("unexpected: called=%v keys=%v", called, lim.keys)
	}
}

func TestRealIP_TrustsForwardedForOnlyFromProxies(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.7 "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cases := []struct {
		name    string
		trusted TrustedProxies
		remote  string
		xff     []string
		want    string
	}{
		{"no header", trusted, "10.0.0.1:5555", nil, "10.0.0.1"},
		{"via proxy", trusted, "10.0.0.1:5555", []string{"203.0.113.9"}, "203.0.113.9"},
		{"proxy chain", trusted, "10.0.0.1:5555", []string{"203.0.113.9, 192.0.2.7, 10.1.2.3"}, "203.0.113.9"},
		{"spoofed left hop", trusted, "10.0.0.1:5555", []string{"1.1.1.1, 198.51.100.4"}, "198.51.100.4"},
		{"split headers", trusted, "10.0.0.1:5555", []string{"203.0.113.9", "10.1.2.3"}, "203.0.113.9"},
		{"untrusted peer", trusted, "198.51.100.20:4000", []string{"203.0.113.9"}, "198.51.100.20"},
		{"nothing trusted", nil, "10.0.0.1:5555", []string{"203.0.113.9"}, "10.0.0.1"},
		{"garbage hop", trusted, "10.0.0.1:5555", []string{"not-an-ip"}, "10.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			h := RealIP(tc.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = clientIP(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for _, v := range tc.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestParseTrustedProxies_RejectsGarbage(t *testing.T) {
	if _, err := ParseTrustedProxies([]string{"10.0.0.0/33"}); err == nil {
		t.Fatalf("expected error for bad prefix")
	}
	if _, err := ParseTrustedProxies([]string{"proxy.local"}); err == nil {
		t.Fatalf("expected error for hostname")
	}
	got, err := ParseTrustedProxies([]string{"", "::ffff:10.0.0.1"})
	if err != nil || len(got) != 1 || !got.trusts(netip.MustParseAddr("10.0.0.1")) {
		t.Fatalf("unexpected: %v %v", got, err)
	}
}

func TestRateLimit_AnonymousKeyIgnoresUntrustedForwardedFor(t *testing.T) {
	lim := &fakeLimiter{}
	h := RealIP(nil)(RateLimitFixedWindow(lim, FixedWindowConfig{RouteKey: "login", Limit: 5}, captureErr(new(error)))(okHandler(new(bool))))

	for _, xff := range []string{"1.1.1.1", "2.2.2.2"} {
		req := httptest.NewRequest(http.MethodPost, "/login/", nil)
		req.RemoteAddr = "198.51.100.20:4000"
		req.Header.Set("X-Forwarded-For", xff)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(lim.keys) != 2 {
		t.Fatalf("expected 2 limiter calls, got %v", lim.keys)
	}
	for _, k := range lim.keys {
		if !strings.HasPrefix(k, "rl:login:ip:198.51.100.20:") {
			t.Fatalf("expected the peer address in the key, got %q", k)
		}
	}
}

// ---------- BodyLimit ----------

func TestBodyLimit_DeclaredTooLarge(t *testing.T) {
	var called bool
	var gotErr error
	h := BodyLimit(8, captureErr(&gotErr))(okHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader("email=a%40b.c&password=x"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if called || !domain.Is(gotErr, "payload_too_large") {
		t.Fatalf("expected rejection, called=%v err=%v", called, gotErr)
	}
}

func TestBodyLimit_StreamedBodyIsCapped(t *testing.T) {
	var parseErr error
	h := BodyLimit(8, captureErr(new(error)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parseErr = r.ParseForm()
	}))

	req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader("email=a%40b.c&password=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.ContentLength = -1
	h.ServeHTTP(httptest.NewRecorder(), req)

	if parseErr == nil {
		t.Fatalf("expected form parse to fail past the limit")
	}
}

func TestBodyLimit_SmallBodyPasses(t *testing.T) {
	var called bool
	h := BodyLimit(0, captureErr(new(error)))(okHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/login/", strings.NewReader("email=a%40b.c"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatalf("expected handler to run")
	}
}

// ---------- AccessLog / SecurityHeaders ----------

func TestAccessLog_PassesThroughStatus(t *testing.T) {
	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusCreated || rr.Body.String() != "ok" {
		t.Fatalf("unexpected response: %d %q", rr.Code, rr.Body.String())
	}
}

func TestSecurityHeaders_Set(t *testing.T) {
	called := false
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler(&called)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Frame-Options") != "DENY" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers: %v", rr.Header())
	}
}
