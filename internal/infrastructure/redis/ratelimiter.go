package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// fixedWindow counts a hit and arms the expiry on the first one.
// Returns {count, pttl_ms}.
var fixedWindow = goredis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// Decision is the outcome of one counted request.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// FixedWindowLimiter counts requests per key in Redis. Callers put the scope,
// the client identity and the window bucket into the key.
type FixedWindowLimiter struct {
	c *Client
}

func NewFixedWindowLimiter(c *Client) *FixedWindowLimiter {
	return &FixedWindowLimiter{c: c}
}

// AllowFixedWindow counts one request for key. A non-positive limit or a
// limiter without Redis lets everything through.
func (l *FixedWindowLimiter) AllowFixedWindow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	open := Decision{Allowed: true, Limit: limit, Remaining: limit}
	if limit <= 0 || l.c == nil || l.c.rdb == nil {
		return open, nil
	}
	if window < time.Millisecond {
		window = time.Minute
	}

	vals, err := fixedWindow.Run(ctx, l.c.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit %s: %w", key, err)
	}
	if len(vals) != 2 {
		return Decision{}, fmt.Errorf("ratelimit %s: unexpected reply %v", key, vals)
	}

	count, pttl := int(vals[0]), time.Duration(vals[1])*time.Millisecond
	d := Decision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(0, limit-count),
	}
	if !d.Allowed {
		d.RetryAfter = window
		if pttl > 0 {
			d.RetryAfter = pttl
		}
	}
	return d, nil
}
