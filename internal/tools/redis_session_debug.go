// Command redis_session_debug lists login sessions kept in Redis and can
// revoke every session of one account.
//
//	go run ./internal/tools -addr 127.0.0.1:6379
//	go run ./internal/tools -account 42 -revoke
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/account-service/internal/infrastructure/redis"
)

const (
	sessPrefix = "sess:"
	verPrefix  = "sessver:"
)

func main() {
	var (
		addr    = flag.String("addr", "127.0.0.1:6379", "redis address host:port")
		pass    = flag.String("pass", "", "redis password")
		db      = flag.Int("db", 0, "redis db")
		account = flag.Int64("account", 0, "only show sessions of this account id")
		revoke  = flag.Bool("revoke", false, "revoke every session of -account")
		limit   = flag.Int64("count", 200, "SCAN COUNT hint")
		timeout = flag.Duration("timeout", 2*time.Second, "per-command timeout")
	)
	flag.Parse()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     *addr,
		Password: *pass,
		DB:       *db,
	})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		fmt.Fprintf(os.Stderr, "redis ping failed: %v\n", err)
		os.Exit(1)
	}

	if *revoke {
		if *account <= 0 {
			fmt.Fprintln(os.Stderr, "-revoke needs -account")
			os.Exit(2)
		}
		store := redis.NewSessionStore(redis.New(*addr, *pass, *db))
		if err := store.DestroyAll(ctx, *account); err != nil {
			fmt.Fprintf(os.Stderr, "revoke failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Revoked all sessions of account %d\n", *account)
		return
	}

	fmt.Printf("Connected: addr=%s db=%d\n", *addr, *db)

	var cursor uint64
	total := 0

	for {
		ctxScan, cancelScan := context.WithTimeout(context.Background(), *timeout)
		keys, next, err := rdb.Scan(ctxScan, cursor, sessPrefix+"*", *limit).Result()
		cancelScan()
		if err != nil {
			fmt.Fprintf(os.Stderr, "SCAN error: %v\n", err)
			os.Exit(1)
		}

		for _, k := range keys {
			ctxCmd, cancelCmd := context.WithTimeout(context.Background(), *timeout)
			val, _ := rdb.Get(ctxCmd, k).Result() // expired between SCAN and GET: shown empty
			ttl, _ := rdb.TTL(ctxCmd, k).Result()

			info := describe(val)
			if *account > 0 && info.accountID != *account {
				cancelCmd()
				continue
			}
			cur, _ := rdb.Get(ctxCmd, verPrefix+strconv.FormatInt(info.accountID, 10)).Int64()
			cancelCmd()

			total++
			fmt.Printf("%d) %s\n   %s ttl=%s\n", total, k, info.line(cur), ttl)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if total == 0 {
		fmt.Println("No sessions matched.")
	}
}

type sessionInfo struct {
	accountID int64
	ver       int64
	created   time.Time
	ok        bool
}

// describe parses "<account_id>:<ver>:<created_unix_ms>".
func describe(val string) sessionInfo {
	parts := strings.Split(val, ":")
	if len(parts) != 3 {
		return sessionInfo{}
	}
	id, err1 := strconv.ParseInt(parts[0], 10, 64)
	ver, err2 := strconv.ParseInt(parts[1], 10, 64)
	ms, err3 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return sessionInfo{}
	}
	return sessionInfo{accountID: id, ver: ver, created: time.UnixMilli(ms).UTC(), ok: true}
}

func (s sessionInfo) line(currentVer int64) string {
	if !s.ok {
		return "malformed"
	}
	state := "live"
	if s.ver != currentVer {
		state = "revoked"
	}
	return fmt.Sprintf("account=%d ver=%d created=%s state=%s", s.accountID, s.ver, s.created.Format(time.RFC3339), state)
}
